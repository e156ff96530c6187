package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer, level LogLevel) *CouncilLogger {
	return NewLogger(&LoggerConfig{Level: level, Format: "json", Output: buf})
}

// lastEntry decodes the final JSON log line written to buf.
func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines[0], "expected at least one log entry")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))

	return entry
}

func TestCouncilLoggerContextualAttrs(t *testing.T) {
	var buf bytes.Buffer

	logger := newBufferLogger(&buf, LogLevelInfo).
		WithComponent("engine").
		WithRun("run-42").
		WithContext("app", "test")

	logger.Info("hello")

	entry := lastEntry(t, &buf)
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "run-42", entry["run_id"])
	assert.Equal(t, "test", entry["app"])
}

func TestCouncilLoggerWithMethodsDoNotMutateParent(t *testing.T) {
	var buf bytes.Buffer

	parent := newBufferLogger(&buf, LogLevelInfo)
	_ = parent.WithRun("child-run").WithContext("k", "v")

	parent.Info("from parent")

	entry := lastEntry(t, &buf)
	assert.NotContains(t, entry, "run_id")
	assert.NotContains(t, entry, "k")
}

func TestCouncilLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer

	logger := newBufferLogger(&buf, LogLevelWarn)

	logger.Info("suppressed")
	assert.Zero(t, buf.Len())

	logger.Warn("emitted")
	entry := lastEntry(t, &buf)
	assert.Equal(t, "emitted", entry["msg"])
}

func TestCouncilLoggerCustomAttrsFromConfig(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(&LoggerConfig{
		Level:       LogLevelInfo,
		Format:      "json",
		Output:      &buf,
		CustomAttrs: map[string]interface{}{"service": "councilmesh"},
	})

	logger.Info("configured")

	entry := lastEntry(t, &buf)
	assert.Equal(t, "councilmesh", entry["service"])
}

func TestLogAgentCall(t *testing.T) {
	var buf bytes.Buffer

	logger := newBufferLogger(&buf, LogLevelInfo)

	logger.LogAgentCall("analyst", 1, 20*time.Millisecond, true, nil)
	entry := lastEntry(t, &buf)
	assert.Equal(t, "Agent call completed", entry["msg"])
	assert.Equal(t, "analyst", entry["participant"])
	assert.Equal(t, float64(1), entry["attempts"])
	assert.Equal(t, true, entry["success"])

	buf.Reset()

	logger.LogAgentCall("skeptic", 3, 50*time.Millisecond, false, errors.New("backend down"))
	entry = lastEntry(t, &buf)
	assert.Equal(t, "Agent call failed", entry["msg"])
	assert.Equal(t, float64(3), entry["attempts"])
	assert.Equal(t, false, entry["success"])
	assert.Equal(t, "backend down", entry["error"])
}

func TestLogPhase(t *testing.T) {
	var buf bytes.Buffer

	logger := newBufferLogger(&buf, LogLevelInfo)

	logger.LogPhase("debate", 2)
	entry := lastEntry(t, &buf)
	assert.Equal(t, "Phase transition", entry["msg"])
	assert.Equal(t, "debate", entry["phase"])
	assert.Equal(t, float64(2), entry["round"])

	buf.Reset()

	// Round 0 phases (analysis, impasse) carry no round attribute.
	logger.LogPhase("independent_analysis", 0)
	entry = lastEntry(t, &buf)
	assert.NotContains(t, entry, "round")
}

func TestErrorWithStack(t *testing.T) {
	var buf bytes.Buffer

	logger := newBufferLogger(&buf, LogLevelInfo)

	logger.ErrorWithStack(errors.New("boom"), "operation failed")

	entry := lastEntry(t, &buf)
	assert.Equal(t, "operation failed", entry["msg"])
	assert.Equal(t, "boom", entry["error"])
	assert.Contains(t, entry, "error_type")
	assert.Contains(t, entry["stack_trace"], "goroutine")
}

func TestStartTimer(t *testing.T) {
	var buf bytes.Buffer

	logger := newBufferLogger(&buf, LogLevelInfo)

	done := logger.StartTimer("deliberation")
	done()

	entry := lastEntry(t, &buf)
	assert.Contains(t, entry["msg"], "Operation completed")
}
