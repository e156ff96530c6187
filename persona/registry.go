// Package persona stores the system prompts that frame each participant's
// role during deliberation. The engine treats a missing prompt as a fatal
// precondition: no agent call is attempted before every deliberating
// participant resolves one.
package persona

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/councilmesh/core"
)

// ErrPersonaNotFound is returned when no prompt is registered for a participant.
var ErrPersonaNotFound = errors.New("persona: prompt not found")

// Registry is a concurrency-safe in-memory store of participant system prompts.
type Registry struct {
	mu      sync.RWMutex
	prompts map[core.Participant]string
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{prompts: make(map[core.Participant]string)}
}

// NewDefaultRegistry constructs a registry pre-populated with the built-in
// prompts for the three deliberating participants.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range core.DefaultParticipants() {
		r.Set(p, DefaultSystemPrompt(p))
	}
	return r
}

// Set registers (or replaces) the system prompt for a participant.
func (r *Registry) Set(p core.Participant, prompt string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts[p] = prompt
}

// SystemPrompt returns the registered prompt for a participant, failing with
// ErrPersonaNotFound when unset.
func (r *Registry) SystemPrompt(p core.Participant) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prompt, ok := r.prompts[p]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrPersonaNotFound, p)
	}

	return prompt, nil
}

// Participants returns the participants that currently have a prompt.
func (r *Registry) Participants() []core.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Participant, 0, len(r.prompts))
	for p := range r.prompts {
		out = append(out, p)
	}

	return out
}

// LoadFile reads a YAML file mapping participant identity to system prompt
// and registers every entry. Unknown identities fail the load; previously
// registered prompts for other participants are preserved.
//
// File shape:
//
//	analyst: |
//	  You are the analyst...
//	skeptic: |
//	  You are the skeptic...
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("persona: read %s: %w", path, err)
	}

	return r.Load(data)
}

// Load parses YAML persona data and registers every entry.
func (r *Registry) Load(data []byte) error {
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("persona: parse: %w", err)
	}

	parsed := make(map[core.Participant]string, len(raw))
	for key, prompt := range raw {
		p := core.Participant(key)
		if !p.IsDeliberator() {
			return fmt.Errorf("persona: %q is not a deliberating participant", key)
		}
		parsed[p] = prompt
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for p, prompt := range parsed {
		r.prompts[p] = prompt
	}

	return nil
}

// DefaultSystemPrompt returns the built-in role framing for a participant.
func DefaultSystemPrompt(p core.Participant) string {
	switch p {
	case core.Analyst:
		return "You are the analyst of a three-member reasoning council. Work the inquiry " +
			"from first principles, state your position plainly, and support it with concrete reasoning."
	case core.Skeptic:
		return "You are the skeptic of a three-member reasoning council. Probe the other " +
			"positions for weak assumptions and unstated risks, and argue the strongest counter-case."
	case core.Synthesizer:
		return "You are the synthesizer of a three-member reasoning council. Deliberate like " +
			"the others, and when asked to adjudicate, weigh every position impartially before answering."
	default:
		return fmt.Sprintf("You are %s, a member of a reasoning council.", p)
	}
}
