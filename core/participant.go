package core

import "fmt"

// Participant identifies one member of the fixed deliberation council.
// The council is a closed set: three deliberating identities plus two
// routing-only identities (User, All) used for message addressing.
// Participants are immutable and have no lifecycle beyond process start.
type Participant string

const (
	// Analyst works the inquiry from first principles.
	Analyst Participant = "analyst"

	// Skeptic stress-tests the positions of the other participants.
	Skeptic Participant = "skeptic"

	// Synthesizer deliberates like the others and additionally owns the
	// adjudication and impasse-summary calls. The role assignment is fixed,
	// never chosen dynamically.
	Synthesizer Participant = "synthesizer"

	// User is the routing identity for the human observer. It never speaks
	// during a deliberation.
	User Participant = "user"

	// All addresses every subscriber currently registered on the bus.
	All Participant = "all"
)

// DefaultParticipants returns the three deliberating identities in the
// canonical order used for envelope assembly. The order is fixed and
// independent of call completion order.
func DefaultParticipants() []Participant {
	return []Participant{Analyst, Skeptic, Synthesizer}
}

// IsDeliberator reports whether p is one of the three deliberating identities.
func (p Participant) IsDeliberator() bool {
	switch p {
	case Analyst, Skeptic, Synthesizer:
		return true
	}

	return false
}

// Validate returns an error if p is not a known routable identity.
func (p Participant) Validate() error {
	if p.IsDeliberator() || p == User || p == All {
		return nil
	}

	return fmt.Errorf("unknown participant %q", string(p))
}

// String implements fmt.Stringer.
func (p Participant) String() string { return string(p) }
