package engine

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/hupe1980/councilmesh/bus"
	"github.com/hupe1980/councilmesh/client"
	"github.com/hupe1980/councilmesh/core"
	"github.com/hupe1980/councilmesh/logging"
	"github.com/hupe1980/councilmesh/persona"
	"github.com/hupe1980/councilmesh/retry"
	"github.com/hupe1980/councilmesh/stream"
)

const (
	// DefaultMaxRounds is the debate round budget before the impasse fallback.
	DefaultMaxRounds = 3

	// DefaultSentinel is the reserved token the synthesizer returns to signal
	// that no agreement has been reached yet.
	DefaultSentinel = "IMPASSE"
)

// Options configures an Engine instance using the functional options pattern.
type Options struct {
	// Bus receives per-turn notifications and the completion message.
	// Defaults to a fresh in-memory bus.
	Bus *bus.Bus

	// Broadcaster fans progress events out to live observers.
	// Defaults to a fresh broadcaster with no observers.
	Broadcaster *stream.Broadcaster

	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger

	// MaxRounds bounds the number of debate rounds. Defaults to DefaultMaxRounds.
	MaxRounds int

	// Sentinel is the reserved no-agreement token. Defaults to DefaultSentinel.
	Sentinel string

	// Retry configures the per-call backoff budget applied uniformly to
	// every agent call. Defaults to retry.DefaultOptions.
	Retry retry.Options

	// Rand is the source for the per-round speaking-order permutation.
	// Inject a fixed source for deterministic tests; defaults to a securely
	// seeded generator.
	Rand rand.Source

	// MaxCalls caps the total agent calls of one run. 0 means unlimited.
	MaxCalls int

	// CallOptions are passed through to every agent call.
	CallOptions client.CallOptions
}

// Engine orchestrates deliberation runs over a fixed council of participants.
// Construct once and reuse; Deliberate may be called concurrently, each call
// being an isolated run.
type Engine struct {
	clients     map[core.Participant]client.Client
	personas    *persona.Registry
	bus         *bus.Bus
	broadcaster *stream.Broadcaster
	logger      logging.Logger
	maxRounds   int
	sentinel    string
	retryOpts   retry.Options
	callOpts    client.CallOptions
	maxCalls    int

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates an engine for the given per-participant clients and persona
// registry. Every deliberating participant must have a client; this is
// validated per run so a partially wired engine fails fast, before any
// agent call.
func New(clients map[core.Participant]client.Client, personas *persona.Registry, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Bus:         bus.New(),
		Broadcaster: stream.New(),
		Logger:      logging.NoOpLogger{},
		MaxRounds:   DefaultMaxRounds,
		Sentinel:    DefaultSentinel,
		Retry:       retry.DefaultOptions,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	src := opts.Rand
	if src == nil {
		src = secureSource()
	}

	return &Engine{
		clients:     clients,
		personas:    personas,
		bus:         opts.Bus,
		broadcaster: opts.Broadcaster,
		logger:      opts.Logger,
		maxRounds:   opts.MaxRounds,
		sentinel:    opts.Sentinel,
		retryOpts:   opts.Retry,
		callOpts:    opts.CallOptions,
		maxCalls:    opts.MaxCalls,
		rng:         rand.New(src),
	}
}

// secureSource seeds a PCG from the operating system entropy pool.
func secureSource() rand.Source {
	var seed [16]byte
	if _, err := crand.Read(seed[:]); err != nil {
		// The OS entropy pool failing to read is effectively unrecoverable.
		panic(fmt.Sprintf("engine: seeding random source: %v", err))
	}

	return rand.NewPCG(
		binary.LittleEndian.Uint64(seed[:8]),
		binary.LittleEndian.Uint64(seed[8:]),
	)
}

// Result carries the final response of a completed deliberation run plus
// metadata about how it terminated.
type Result struct {
	// RunID uniquely identifies the deliberation run.
	RunID string

	// Response is the final text: the agreed recommendation or, without
	// consensus, the impasse summary.
	Response string

	// Consensus reports whether the response is an agreed recommendation.
	Consensus bool

	// Rounds is the number of completed debate rounds.
	Rounds int

	// AgentCalls is the number of logical agent calls the run issued
	// (retries not counted).
	AgentCalls int
}

// Deliberate runs the full deliberation protocol for an inquiry and returns
// the final response. It fails only on precondition violations or when an
// agent call exhausts its retry budget; impasse is a valid outcome, not an
// error.
func (e *Engine) Deliberate(ctx context.Context, inquiry string) (*Result, error) {
	if strings.TrimSpace(inquiry) == "" {
		return nil, errors.New("engine: empty inquiry")
	}

	for _, p := range core.DefaultParticipants() {
		if _, ok := e.clients[p]; !ok {
			return nil, fmt.Errorf("engine: no client for participant %s", p)
		}
		if _, err := e.personas.SystemPrompt(p); err != nil {
			return nil, fmt.Errorf("engine: persona precondition: %w", err)
		}
	}

	runID := core.NewID()

	r := &run{
		engine:  e,
		runID:   runID,
		inquiry: inquiry,
		limiter: core.NewCallLimiter(e.maxCalls),
		logger:  e.logger,
	}

	// A CouncilLogger unlocks the richer domain instrumentation: component
	// and run scoping, per-call latency records and phase transitions.
	if cl, ok := e.logger.(*logging.CouncilLogger); ok {
		r.council = cl.WithComponent("engine").WithRun(runID)
		r.logger = r.council
	}

	res, err := r.execute(ctx)
	if err != nil && r.council != nil {
		r.council.ErrorWithStack(err, "deliberation failed")
	}

	return res, err
}

// perm draws a fresh uniformly random speaking order covering every
// deliberating participant exactly once.
func (e *Engine) perm() []core.Participant {
	participants := core.DefaultParticipants()

	e.rngMu.Lock()
	idx := e.rng.Perm(len(participants))
	e.rngMu.Unlock()

	order := make([]core.Participant, len(participants))
	for i, j := range idx {
		order[i] = participants[j]
	}

	return order
}
