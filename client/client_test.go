package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/councilmesh/core"
)

func TestMockClient_QueuedResponsesConsumedInOrder(t *testing.T) {
	m := NewMockClient()
	m.Queue(core.Analyst, "first", "second")

	got, err := m.Send(context.Background(), core.Analyst, "sys", "user", CallOptions{})
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	got, err = m.Send(context.Background(), core.Analyst, "sys", "user", CallOptions{})
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	// Exhausted queue falls back to the canned response.
	got, err = m.Send(context.Background(), core.Analyst, "sys", "user", CallOptions{})
	require.NoError(t, err)
	assert.Equal(t, "mock response from analyst", got)
}

func TestMockClient_ResponseFuncTakesPrecedence(t *testing.T) {
	m := NewMockClient()
	m.Queue(core.Skeptic, "ignored")

	sentinel := errors.New("backend down")
	m.SetResponseFunc(func(call Call) (string, error) {
		if call.Participant == core.Skeptic {
			return "", sentinel
		}
		return "fn response", nil
	})

	_, err := m.Send(context.Background(), core.Skeptic, "", "prompt", CallOptions{})
	assert.ErrorIs(t, err, sentinel)

	got, err := m.Send(context.Background(), core.Analyst, "", "prompt", CallOptions{})
	require.NoError(t, err)
	assert.Equal(t, "fn response", got)
}

func TestMockClient_CapturesCalls(t *testing.T) {
	m := NewMockClient()

	_, err := m.Send(context.Background(), core.Analyst, "system-a", "user-a", CallOptions{Model: "test-model"})
	require.NoError(t, err)
	_, err = m.Send(context.Background(), core.Synthesizer, "system-s", "user-s", CallOptions{})
	require.NoError(t, err)

	calls := m.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, core.Analyst, calls[0].Participant)
	assert.Equal(t, "system-a", calls[0].SystemPrompt)
	assert.Equal(t, "user-a", calls[0].UserPrompt)
	assert.Equal(t, "test-model", calls[0].Options.Model)

	assert.Equal(t, 1, m.CallCount(core.Analyst))
	assert.Equal(t, 1, m.CallCount(core.Synthesizer))
	assert.Equal(t, 0, m.CallCount(core.Skeptic))
	assert.Equal(t, 2, m.TotalCalls())
}
