// Package councilmesh provides a high-level façade over the deliberation
// engine and its supporting services (message bus, event stream, persona
// registry & logging). Most applications interact with this package by:
//  1. Creating a Council via New() with a backend client (or one per participant)
//  2. Optionally subscribing to the event stream or the message bus
//  3. Running inquiries through Deliberate()
//
// The façade delegates orchestration to engine.Engine while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply real backend clients and a
// structured logger.
package councilmesh

import (
	"context"

	"github.com/hupe1980/councilmesh/bus"
	"github.com/hupe1980/councilmesh/client"
	"github.com/hupe1980/councilmesh/core"
	"github.com/hupe1980/councilmesh/engine"
	"github.com/hupe1980/councilmesh/logging"
	"github.com/hupe1980/councilmesh/persona"
	"github.com/hupe1980/councilmesh/retry"
	"github.com/hupe1980/councilmesh/stream"
)

// Options configures the Council instance.
type Options struct {
	// Client is the shared backend client used by every participant that has
	// no dedicated entry in Clients.
	Client client.Client

	// Clients maps individual participants to dedicated backend clients,
	// overriding Client. Mixing providers per participant is supported.
	Clients map[core.Participant]client.Client

	// Personas supplies the per-participant system prompts. Defaults to the
	// built-in registry covering all deliberating participants.
	Personas *persona.Registry

	// Bus carries per-turn notifications and the completion message between
	// participants. Defaults to a fresh in-memory bus.
	Bus *bus.Bus

	// Broadcaster fans progress events out to live observers. Defaults to a
	// fresh broadcaster with no observers.
	Broadcaster *stream.Broadcaster

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger

	// MaxRounds bounds the number of debate rounds before the impasse
	// fallback. Defaults to engine.DefaultMaxRounds.
	MaxRounds int

	// Sentinel is the reserved no-agreement token the synthesizer uses
	// during consensus checks. Defaults to engine.DefaultSentinel.
	Sentinel string

	// Retry configures the backoff budget applied to every agent call.
	Retry retry.Options

	// MaxCalls caps the total agent calls of one run. 0 means unlimited.
	MaxCalls int

	// CallOptions are passed through to every agent call (model override,
	// temperature, token budget).
	CallOptions client.CallOptions
}

// Council is the high-level façade aggregating the deliberation engine and
// its services.
type Council struct {
	opts   Options
	engine *engine.Engine
}

// New creates a new Council with optional overrides. Any unset service is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Council {
	opts := Options{
		Personas:    persona.NewDefaultRegistry(),
		Bus:         bus.New(),
		Broadcaster: stream.New(),
		Logger:      logging.NoOpLogger{},
		MaxRounds:   engine.DefaultMaxRounds,
		Sentinel:    engine.DefaultSentinel,
		Retry:       retry.DefaultOptions,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	clients := make(map[core.Participant]client.Client)

	if opts.Client != nil {
		for _, p := range core.DefaultParticipants() {
			clients[p] = opts.Client
		}
	}

	for p, c := range opts.Clients {
		clients[p] = c
	}

	eng := engine.New(clients, opts.Personas, func(o *engine.Options) {
		o.Bus = opts.Bus
		o.Broadcaster = opts.Broadcaster
		o.Logger = opts.Logger
		o.MaxRounds = opts.MaxRounds
		o.Sentinel = opts.Sentinel
		o.Retry = opts.Retry
		o.MaxCalls = opts.MaxCalls
		o.CallOptions = opts.CallOptions
	})

	return &Council{opts: opts, engine: eng}
}

// Deliberate runs one full deliberation over the inquiry and blocks until a
// consensus recommendation or an impasse summary is produced.
func (c *Council) Deliberate(ctx context.Context, inquiry string) (*engine.Result, error) {
	return c.engine.Deliberate(ctx, inquiry)
}

// Bus returns the message bus carrying participant traffic.
func (c *Council) Bus() *bus.Bus { return c.opts.Bus }

// Broadcaster returns the event stream broadcaster for live observers.
func (c *Council) Broadcaster() *stream.Broadcaster { return c.opts.Broadcaster }

// Personas returns the persona registry backing the council.
func (c *Council) Personas() *persona.Registry { return c.opts.Personas }
