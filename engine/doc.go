// Package engine implements the deliberation state machine for CouncilMesh.
//
// A deliberation run moves through fixed phases:
//
//  1. Independent Analysis: one concurrent call per participant, each
//     individually retry-wrapped; the run advances only once all three
//     theses exist (any exhausted failure fails the whole run, no partial
//     envelope).
//  2. Envelope Assembly: the theses are concatenated in canonical
//     participant order, independent of arrival order, seeding the
//     append-only transcript.
//  3. Rounds (up to MaxRounds): each round opens with one adjudication call
//     to the synthesizer over the transcript so far. On agreement the run
//     terminates with that recommendation and remaining rounds are skipped.
//     Otherwise the participants debate in a freshly drawn random speaking
//     order, strictly sequentially, each turn seeing all earlier arguments
//     of the same round.
//  4. Impasse Fallback: after MaxRounds rounds without agreement, one
//     summarization call to the synthesizer produces the final response.
//
// Progress is fanned out through the event stream broadcaster and mirrored
// onto the message bus; both are side effects the caller never blocks on.
// All retry mechanics stay internal: the caller of Deliberate receives
// either a final response or a single wrapped error naming the phase that
// failed.
//
// Engines are safe for concurrent runs; each run keeps its transcript and
// round state private and shares only the bus, broadcaster and random
// source (the latter guarded by a mutex).
package engine
