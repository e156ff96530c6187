// Package openai provides an agent client backed by the OpenAI Chat
// Completions API. It adapts the single-shot prompt/response contract onto
// the SDK's message format.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/hupe1980/councilmesh/client"
	"github.com/hupe1980/councilmesh/core"
)

// Options configure the OpenAI client adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Client wraps the OpenAI Chat Completions API behind the client.Client interface.
type Client struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI client using the official SDK.
func New(optFns ...func(o *Options)) *Client {
	c := openai.NewClient()
	return NewFromClient(&c, optFns...)
}

// NewFromClient creates a new OpenAI client from an existing SDK client.
func NewFromClient(sdk *openai.Client, optFns ...func(o *Options)) *Client {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Client{client: sdk, opts: opts}
}

// Send implements client.Client with a single prompt/response exchange.
func (c *Client) Send(ctx context.Context, participant core.Participant, systemPrompt, userPrompt string, callOpts client.CallOptions) (string, error) {
	model := c.opts.Model
	if callOpts.Model != "" {
		model = callOpts.Model
	}

	temperature := c.opts.Temperature
	if callOpts.Temperature != 0 {
		temperature = callOpts.Temperature
	}

	maxTokens := c.opts.MaxCompletionTokens
	if callOpts.MaxTokens != 0 {
		maxTokens = callOpts.MaxTokens
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(userPrompt))

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               model,
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned for participant %s", participant)
	}

	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("openai: empty response for participant %s", participant)
	}

	return text, nil
}
