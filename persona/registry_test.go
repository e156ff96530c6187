package persona

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/councilmesh/core"
)

func TestRegistry_SetAndGet(t *testing.T) {
	r := NewRegistry()
	r.Set(core.Analyst, "you analyze")

	prompt, err := r.SystemPrompt(core.Analyst)
	require.NoError(t, err)
	assert.Equal(t, "you analyze", prompt)
}

func TestRegistry_MissingPrompt(t *testing.T) {
	r := NewRegistry()

	_, err := r.SystemPrompt(core.Skeptic)
	assert.ErrorIs(t, err, ErrPersonaNotFound)
}

func TestNewDefaultRegistry_CoversAllDeliberators(t *testing.T) {
	r := NewDefaultRegistry()

	for _, p := range core.DefaultParticipants() {
		prompt, err := r.SystemPrompt(p)
		require.NoError(t, err)
		assert.NotEmpty(t, prompt)
	}
}

func TestRegistry_Load(t *testing.T) {
	r := NewRegistry()

	data := []byte("analyst: custom analyst prompt\nskeptic: custom skeptic prompt\n")
	require.NoError(t, r.Load(data))

	prompt, err := r.SystemPrompt(core.Analyst)
	require.NoError(t, err)
	assert.Equal(t, "custom analyst prompt", prompt)

	_, err = r.SystemPrompt(core.Synthesizer)
	assert.ErrorIs(t, err, ErrPersonaNotFound)
}

func TestRegistry_LoadRejectsUnknownParticipant(t *testing.T) {
	r := NewRegistry()

	err := r.Load([]byte("oracle: not a council member\n"))
	assert.Error(t, err)

	// A failed load must not partially apply.
	assert.Empty(t, r.Participants())
}

func TestRegistry_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.yaml")
	content := "analyst: file analyst\nskeptic: file skeptic\nsynthesizer: file synthesizer\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	r := NewRegistry()
	require.NoError(t, r.LoadFile(path))

	prompt, err := r.SystemPrompt(core.Synthesizer)
	require.NoError(t, err)
	assert.Equal(t, "file synthesizer", prompt)
}

func TestRegistry_LoadFileMissing(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")))
}
