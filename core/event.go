package core

import (
	"time"

	"github.com/google/uuid"
)

// Event types emitted during a deliberation run, in the order they can occur.
const (
	EventAnalysisStarted   = "analysis.started"
	EventThesisRecorded    = "thesis.recorded"
	EventEnvelopeAssembled = "envelope.assembled"
	EventRoundStarted      = "round.started"
	EventTurnCompleted     = "turn.completed"
	EventConsensusReached  = "consensus.reached"
	EventImpasseDeclared   = "impasse.declared"
	EventCompleted         = "deliberation.completed"
)

// Event is a progress frame fanned out to live observers. After emission it
// should be treated as immutable. The wire shape is the tagged Frame plus
// correlation metadata (run id, event id, timestamp).
type Event struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Frame     Frame     `json:"frame"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates an event for a run carrying a statically-typed payload.
// Payload marshaling uses the Frame tagged-union convention; a nil payload
// produces a bare type-only frame.
func NewEvent(runID, eventType string, payload any) Event {
	frame, err := NewFrame(eventType, payload)
	if err != nil {
		// Payload structs in this package always marshal; fall back to a
		// type-only frame rather than losing the transition.
		frame = Frame{Type: eventType}
	}

	return Event{
		ID:        NewID(),
		RunID:     runID,
		Frame:     frame,
		Timestamp: time.Now().UTC(),
	}
}

// Type returns the event's frame type tag.
func (e Event) Type() string { return e.Frame.Type }

// NewID generates a new unique identifier for runs, messages and events.
func NewID() string { return uuid.NewString() }

// Typed event and message payloads. One struct per frame type so bus handlers
// and stream observers can decode without structural guessing.

// TextData carries a bare text payload.
type TextData struct {
	Text string `json:"text"`
}

// PhaseData announces a phase transition.
type PhaseData struct {
	Phase string `json:"phase"`
}

// ThesisData reports a recorded independent thesis.
type ThesisData struct {
	Participant Participant `json:"participant"`
}

// RoundData announces a round together with its speaking order.
type RoundData struct {
	Round int           `json:"round"`
	Order []Participant `json:"order"`
}

// TurnData carries one completed debate turn.
type TurnData struct {
	Participant Participant `json:"participant"`
	Round       int         `json:"round"`
	Text        string      `json:"text"`
}

// CompletionData carries the final response of a finished run.
type CompletionData struct {
	Response  string `json:"response"`
	Consensus bool   `json:"consensus"`
	Rounds    int    `json:"rounds"`
}
