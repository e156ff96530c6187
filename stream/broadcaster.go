// Package stream fans deliberation progress events out to live observers.
//
// Delivery is best-effort: an observer whose Notify returns an error is
// silently dropped from the subscriber set and never retried. Events reach
// all observers in the same relative order they were emitted; Emit is the
// single emission point and performs the fan-out synchronously under the
// broadcaster lock.
package stream

import (
	"errors"
	"sync"

	"github.com/hupe1980/councilmesh/core"
	"github.com/hupe1980/councilmesh/logging"
)

// ErrObserverClosed is returned by observers that can no longer accept
// events, signaling the broadcaster to drop them.
var ErrObserverClosed = errors.New("stream: observer closed")

// ErrObserverSaturated is returned by ChannelObserver when its buffer is
// full. Slow observers are dropped rather than blocking the emitter.
var ErrObserverSaturated = errors.New("stream: observer buffer full")

// Observer receives emitted events. A non-nil error from Notify removes the
// observer from the broadcaster.
type Observer interface {
	Notify(ev core.Event) error
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ev core.Event) error

// Notify implements Observer.
func (f ObserverFunc) Notify(ev core.Event) error { return f(ev) }

// Options configures a Broadcaster.
type Options struct {
	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger
}

// Broadcaster distributes events to the currently subscribed observers.
// Safe for concurrent Emit from multiple deliberation runs.
type Broadcaster struct {
	mu      sync.Mutex
	entries []entry
	opts    Options
}

type entry struct {
	id  string
	obs Observer
}

// New constructs a broadcaster with no observers.
func New(optFns ...func(o *Options)) *Broadcaster {
	opts := Options{Logger: logging.NoOpLogger{}}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Broadcaster{opts: opts}
}

// Subscription identifies one registered observer. Cancel removes it;
// canceling twice is a no-op.
type Subscription struct {
	id   string
	b    *Broadcaster
	once sync.Once
}

// Cancel removes the observer from the broadcaster.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		s.b.removeLocked(s.id)
	})
}

// Subscribe registers an observer. Observers receive events emitted after
// registration; there is no replay of earlier events.
func (b *Broadcaster) Subscribe(obs Observer) *Subscription {
	sub := &Subscription{id: core.NewID(), b: b}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, entry{id: sub.id, obs: obs})

	return sub
}

// Emit delivers ev to every currently subscribed observer in subscription
// order. Observers that fail are dropped from the set.
func (b *Broadcaster) Emit(ev core.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var failed []string

	for _, e := range b.entries {
		if err := e.obs.Notify(ev); err != nil {
			failed = append(failed, e.id)
			b.opts.Logger.Debug("stream observer dropped", "event_type", ev.Type(), "error", err)
		}
	}

	for _, id := range failed {
		b.removeLocked(id)
	}
}

// Observers returns the current number of subscribed observers.
func (b *Broadcaster) Observers() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.entries)
}

func (b *Broadcaster) removeLocked(id string) {
	for i, e := range b.entries {
		if e.id == id {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return
		}
	}
}

// ChannelObserver bridges the broadcaster to a channel consumer, typically a
// UI or log collaborator draining events from its own goroutine.
type ChannelObserver struct {
	ch     chan core.Event
	mu     sync.Mutex
	closed bool
}

// NewChannelObserver creates a channel-backed observer with the given buffer.
func NewChannelObserver(buffer int) *ChannelObserver {
	return &ChannelObserver{ch: make(chan core.Event, buffer)}
}

// Events returns the receive side of the observer channel.
func (c *ChannelObserver) Events() <-chan core.Event { return c.ch }

// Notify implements Observer. It never blocks: a full buffer fails the
// delivery so the broadcaster drops this observer instead of stalling the run.
func (c *ChannelObserver) Notify(ev core.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrObserverClosed
	}

	select {
	case c.ch <- ev:
		return nil
	default:
		return ErrObserverSaturated
	}
}

// Close marks the observer closed and closes the event channel. Subsequent
// Notify calls fail, causing the broadcaster to drop the observer.
func (c *ChannelObserver) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.ch)
	}
}
