// Package anthropic provides an agent client backed by the Anthropic Claude API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/councilmesh/client"
	"github.com/hupe1980/councilmesh/core"
)

// Options configures the Anthropic client adapter (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Client wraps the Anthropic Messages API behind the client.Client interface.
type Client struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic client using the official SDK.
func New(optFns ...func(o *Options)) *Client {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	c := anthropic.NewClient(clientOpts...)

	return &Client{client: &c, opts: opts}
}

// NewFromClient creates a new Anthropic client from an existing SDK client.
func NewFromClient(sdk *anthropic.Client, optFns ...func(o *Options)) *Client {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
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
		model = anthropic.Model(callOpts.Model)
	}

	temperature := c.opts.Temperature
	if callOpts.Temperature != 0 {
		temperature = callOpts.Temperature
	}

	maxTokens := c.opts.MaxTokens
	if callOpts.MaxTokens != 0 {
		maxTokens = callOpts.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("anthropic: empty response for participant %s", participant)
	}

	return text, nil
}
