// Package client defines the agent call interface the engine consumes and a
// scriptable in-memory implementation for tests and examples. Provider-backed
// implementations live in the subpackages (anthropic, openai).
package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/councilmesh/core"
)

// CallOptions carries per-call model parameters. Zero values defer to the
// implementation's defaults.
type CallOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int64
}

// Client issues one reasoning call on behalf of a participant and returns the
// response text. Implementations own per-call timeouts and distinguish
// transient from permanent failures through the error they return; the engine
// applies a uniform retry policy either way.
type Client interface {
	Send(ctx context.Context, participant core.Participant, systemPrompt, userPrompt string, opts CallOptions) (string, error)
}

// Call records one invocation captured by the MockClient.
type Call struct {
	Participant  core.Participant
	SystemPrompt string
	UserPrompt   string
	Options      CallOptions
}

// MockClient is a lightweight in-memory Client useful for tests & examples.
// Responses are either scripted per participant (consumed in order) or
// produced by a response function; every invocation is captured for
// call-count and prompt assertions.
type MockClient struct {
	mu        sync.Mutex
	responses map[core.Participant][]string
	respFn    func(call Call) (string, error)
	calls     []Call
}

// NewMockClient creates an empty mock. Without scripted responses it answers
// with a canned per-participant string.
func NewMockClient() *MockClient {
	return &MockClient{responses: make(map[core.Participant][]string)}
}

// Queue appends scripted responses for a participant, consumed FIFO.
func (m *MockClient) Queue(p core.Participant, responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[p] = append(m.responses[p], responses...)
}

// SetResponseFunc installs a function that produces every response. It takes
// precedence over queued responses.
func (m *MockClient) SetResponseFunc(fn func(call Call) (string, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.respFn = fn
}

// Send implements Client.
func (m *MockClient) Send(_ context.Context, participant core.Participant, systemPrompt, userPrompt string, opts CallOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := Call{
		Participant:  participant,
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Options:      opts,
	}
	m.calls = append(m.calls, call)

	if m.respFn != nil {
		return m.respFn(call)
	}

	if queued := m.responses[participant]; len(queued) > 0 {
		next := queued[0]
		m.responses[participant] = queued[1:]
		return next, nil
	}

	return fmt.Sprintf("mock response from %s", participant), nil
}

// Calls returns a copy of all captured invocations in order.
func (m *MockClient) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Call, len(m.calls))
	copy(out, m.calls)

	return out
}

// CallCount returns the number of captured invocations for a participant.
func (m *MockClient) CallCount(p core.Participant) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.calls {
		if c.Participant == p {
			n++
		}
	}

	return n
}

// TotalCalls returns the number of captured invocations across participants.
func (m *MockClient) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.calls)
}
