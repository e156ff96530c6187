package core

// ConsensusOutcome is the tagged result of one adjudication call: either a
// final agreed recommendation or no consensus yet. Never both, never neither.
// The raw sentinel string returned over the wire is mapped into this type at
// the adjudication boundary so downstream code dispatches on the variant
// rather than re-comparing strings.
type ConsensusOutcome struct {
	recommendation string
	agreed         bool
}

// NewRecommendation returns an outcome carrying the final agreed text.
func NewRecommendation(text string) ConsensusOutcome {
	return ConsensusOutcome{recommendation: text, agreed: true}
}

// NoConsensus returns the outcome signaling that no agreement was reached.
func NoConsensus() ConsensusOutcome {
	return ConsensusOutcome{}
}

// Agreed reports whether the adjudication produced a recommendation.
func (o ConsensusOutcome) Agreed() bool { return o.agreed }

// Recommendation returns the agreed text. Empty unless Agreed.
func (o ConsensusOutcome) Recommendation() string { return o.recommendation }
