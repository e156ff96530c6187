// Package core provides the foundational domain types used by CouncilMesh.
// It defines the core abstractions for:
//
//   - Participants (the fixed council identities plus routing identities)
//   - Theses, Envelopes, Rounds and the append-only Transcript of a run
//   - ConsensusOutcome (the two-variant adjudication result)
//   - Messages and typed payload frames exchanged over the bus
//   - Events streamed to live observers
//   - CallLimiter (per-run agent call budget)
//
// The package intentionally keeps implementation concerns (the engine state
// machine, transports, provider clients) out of scope so that the domain
// model stays dependency-free and easy to test.
package core
