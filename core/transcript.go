package core

import (
	"fmt"
	"strings"
)

// Thesis is one participant's independent initial position on an inquiry.
// Immutable once recorded.
type Thesis struct {
	Participant Participant `json:"participant"`
	Text        string      `json:"text"`
}

// Envelope is the ordered collection of exactly one thesis per deliberating
// participant. It is assembled once, after independent analysis completes for
// all participants, and is never mutated afterwards.
type Envelope struct {
	theses []Thesis
}

// NewEnvelope assembles an envelope from the per-participant theses. The
// section order is always the canonical participant order regardless of the
// order the theses were produced in. It fails if a thesis is missing, empty,
// or belongs to an unknown participant.
func NewEnvelope(theses map[Participant]string) (*Envelope, error) {
	order := DefaultParticipants()

	if len(theses) != len(order) {
		return nil, fmt.Errorf("expected %d theses, got %d", len(order), len(theses))
	}

	sections := make([]Thesis, 0, len(order))

	for _, p := range order {
		text, ok := theses[p]
		if !ok {
			return nil, fmt.Errorf("missing thesis for participant %s", p)
		}

		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("empty thesis for participant %s", p)
		}

		sections = append(sections, Thesis{Participant: p, Text: text})
	}

	return &Envelope{theses: sections}, nil
}

// Theses returns a copy of the envelope sections in canonical order.
func (e *Envelope) Theses() []Thesis {
	out := make([]Thesis, len(e.theses))
	copy(out, e.theses)

	return out
}

// Render produces the textual form of the envelope, one labeled section per
// participant in canonical order. This is the immutable seed of a transcript.
func (e *Envelope) Render() string {
	var sb strings.Builder

	sb.WriteString("## Independent analysis\n")

	for _, t := range e.theses {
		fmt.Fprintf(&sb, "\n### %s\n\n%s\n", t.Participant, strings.TrimSpace(t.Text))
	}

	return sb.String()
}

// Argument is one participant's contribution during a debate round.
type Argument struct {
	Participant Participant `json:"participant"`
	Round       int         `json:"round"`
	Text        string      `json:"text"`
}

// Round records one full debate cycle: its ordinal, the speaking order chosen
// for it (a permutation of all deliberating participants), and the arguments
// appended during the round in speaking order.
type Round struct {
	Number    int           `json:"number"`
	Order     []Participant `json:"order"`
	Arguments []Argument    `json:"arguments"`
}

// Validate checks that the speaking order is a permutation of the deliberating
// participants (no repeats, no omissions) and that the arguments, if present,
// follow that order.
func (r Round) Validate() error {
	want := DefaultParticipants()

	if len(r.Order) != len(want) {
		return fmt.Errorf("round %d: speaking order has %d entries, want %d", r.Number, len(r.Order), len(want))
	}

	seen := make(map[Participant]bool, len(r.Order))
	for _, p := range r.Order {
		if !p.IsDeliberator() {
			return fmt.Errorf("round %d: %s is not a deliberating participant", r.Number, p)
		}
		if seen[p] {
			return fmt.Errorf("round %d: participant %s repeated in speaking order", r.Number, p)
		}
		seen[p] = true
	}

	if len(r.Arguments) > len(r.Order) {
		return fmt.Errorf("round %d: %d arguments for %d speaking slots", r.Number, len(r.Arguments), len(r.Order))
	}

	for i, a := range r.Arguments {
		if a.Participant != r.Order[i] {
			return fmt.Errorf("round %d: argument %d authored by %s, expected %s", r.Number, i, a.Participant, r.Order[i])
		}
	}

	return nil
}

// Render produces the textual form of the round's arguments.
func (r Round) Render() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## Round %d\n", r.Number)

	for _, a := range r.Arguments {
		fmt.Fprintf(&sb, "\n### %s\n\n%s\n", a.Participant, strings.TrimSpace(a.Text))
	}

	return sb.String()
}

// Transcript is the full accumulated record of one deliberation run: the
// envelope plus all completed rounds' arguments in chronological order.
//
// It is strictly append-only. The content after round k is always a prefix of
// the content after round k+1. It is private to one run and written by exactly
// one logical writer (the round loop), so it carries no lock.
type Transcript struct {
	envelope *Envelope
	rounds   []Round
}

// NewTranscript seeds a transcript with the completed envelope.
func NewTranscript(envelope *Envelope) *Transcript {
	return &Transcript{envelope: envelope}
}

// AppendRound extends the transcript with a completed round. Rounds must be
// appended in order, starting at 1.
func (t *Transcript) AppendRound(r Round) error {
	if err := r.Validate(); err != nil {
		return err
	}

	if want := len(t.rounds) + 1; r.Number != want {
		return fmt.Errorf("round %d appended out of order, expected %d", r.Number, want)
	}

	t.rounds = append(t.rounds, r)

	return nil
}

// Rounds returns the number of completed rounds recorded so far.
func (t *Transcript) Rounds() int { return len(t.rounds) }

// Envelope returns the immutable envelope seeding this transcript.
func (t *Transcript) Envelope() *Envelope { return t.envelope }

// String renders the full transcript in chronological order.
func (t *Transcript) String() string {
	var sb strings.Builder

	sb.WriteString(t.envelope.Render())

	for _, r := range t.rounds {
		sb.WriteString("\n")
		sb.WriteString(r.Render())
	}

	return sb.String()
}
