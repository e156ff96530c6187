// Package bus implements the in-memory publish/subscribe layer that routes
// messages between participants and the outside world during deliberations.
//
// Delivery model: a published message is delivered synchronously to every
// handler subscribed for its recipient at publish time. There is no buffering
// for subscribers that join later and no durable queue semantics. A handler
// that fails leaves the message unacknowledged; the bus does not schedule
// redelivery (a collaborator concern), but unacknowledged messages remain
// addressable by id within the retention window.
//
// The bus is safe for concurrent publishes from multiple deliberation runs
// and concurrent subscriber registration/removal.
package bus

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/councilmesh/core"
	"github.com/hupe1980/councilmesh/logging"
)

var (
	// ErrMessageNotFound is returned when an id does not resolve to a
	// retained message.
	ErrMessageNotFound = errors.New("bus: message not found")

	// ErrAlreadyAcknowledged is returned when a message is acknowledged a
	// second time. Acknowledgement is a one-way, exactly-once transition.
	ErrAlreadyAcknowledged = errors.New("bus: message already acknowledged")
)

// Handler processes a delivered message. A non-nil error marks the delivery
// as failed; the message stays unacknowledged.
type Handler func(msg core.Message) error

// Options configures a Bus.
type Options struct {
	// Retention caps the number of retained messages; the oldest message is
	// evicted first. 0 disables eviction (unbounded growth).
	Retention int

	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger
}

// PublishOptions carries optional per-publish parameters.
type PublishOptions struct {
	// CorrelationID links a response to an earlier request.
	CorrelationID string
}

// Bus is an in-memory message bus keyed by recipient identity.
type Bus struct {
	mu       sync.RWMutex
	subs     map[core.Participant]map[string]Handler
	messages map[string]*core.Message
	order    []string // retention eviction order (oldest first)
	opts     Options
}

// New constructs an empty bus.
func New(optFns ...func(o *Options)) *Bus {
	opts := Options{
		Retention: 4096,
		Logger:    logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Bus{
		subs:     make(map[core.Participant]map[string]Handler),
		messages: make(map[string]*core.Message),
		opts:     opts,
	}
}

// Subscription represents a registered (recipient, handler) pair. Cancel
// removes it from the bus; canceling twice is a no-op.
type Subscription struct {
	id        string
	recipient core.Participant
	bus       *Bus
	once      sync.Once
}

// Recipient returns the identity this subscription listens for.
func (s *Subscription) Recipient() core.Participant { return s.recipient }

// Cancel removes the subscription from the bus.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()

		if handlers, ok := s.bus.subs[s.recipient]; ok {
			delete(handlers, s.id)
			if len(handlers) == 0 {
				delete(s.bus.subs, s.recipient)
			}
		}
	})
}

// Subscribe registers a handler for messages addressed to recipient.
// Subscribing to core.All receives every published message.
func (b *Bus) Subscribe(recipient core.Participant, handler Handler) *Subscription {
	sub := &Subscription{id: core.NewID(), recipient: recipient, bus: b}

	b.mu.Lock()
	defer b.mu.Unlock()

	handlers, ok := b.subs[recipient]
	if !ok {
		handlers = make(map[string]Handler)
		b.subs[recipient] = handlers
	}
	handlers[sub.id] = handler

	return sub
}

// Publish creates a message, retains it, and delivers it to the handlers
// subscribed for its recipient at publish time. It returns the message id.
func (b *Bus) Publish(
	sender, recipient core.Participant,
	kind core.MessageKind,
	payload core.Frame,
	optFns ...func(o *PublishOptions),
) (string, error) {
	if err := sender.Validate(); err != nil {
		return "", fmt.Errorf("invalid sender: %w", err)
	}
	if err := recipient.Validate(); err != nil {
		return "", fmt.Errorf("invalid recipient: %w", err)
	}

	var pubOpts PublishOptions
	for _, fn := range optFns {
		fn(&pubOpts)
	}

	msg := core.NewMessage(sender, recipient, kind, payload)
	msg.CorrelationID = pubOpts.CorrelationID

	b.mu.Lock()
	b.retainLocked(msg)
	handlers := b.handlersLocked(recipient)
	b.mu.Unlock()

	// Deliver outside the lock so handlers may call back into the bus
	// (e.g. to acknowledge). Handler failures are logged, not propagated:
	// publish succeeds once the message is retained.
	for _, h := range handlers {
		if err := h(msg); err != nil {
			b.opts.Logger.Warn("bus handler failed", "message_id", msg.ID, "recipient", recipient.String(), "error", err)
		}
	}

	return msg.ID, nil
}

// retainLocked stores the message, evicting the oldest beyond the retention cap.
func (b *Bus) retainLocked(msg core.Message) {
	b.messages[msg.ID] = &msg
	b.order = append(b.order, msg.ID)

	if b.opts.Retention > 0 {
		for len(b.order) > b.opts.Retention {
			oldest := b.order[0]
			b.order = b.order[1:]
			delete(b.messages, oldest)
		}
	}
}

// handlersLocked snapshots the handlers that should see a message addressed
// to recipient: its direct subscribers plus the core.All subscribers, and for
// a broadcast recipient every registered handler.
func (b *Bus) handlersLocked(recipient core.Participant) []Handler {
	var out []Handler

	if recipient == core.All {
		for _, handlers := range b.subs {
			for _, h := range handlers {
				out = append(out, h)
			}
		}
		return out
	}

	for _, h := range b.subs[recipient] {
		out = append(out, h)
	}
	for _, h := range b.subs[core.All] {
		out = append(out, h)
	}

	return out
}

// Acknowledge marks a retained message as processed. The transition happens
// exactly once; repeat acknowledgements fail with ErrAlreadyAcknowledged.
func (b *Bus) Acknowledge(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	msg, ok := b.messages[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMessageNotFound, id)
	}

	if msg.Acknowledged {
		return fmt.Errorf("%w: %s", ErrAlreadyAcknowledged, id)
	}

	msg.Acknowledged = true

	return nil
}

// Get returns a copy of a retained message by id.
func (b *Bus) Get(id string) (core.Message, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	msg, ok := b.messages[id]
	if !ok {
		return core.Message{}, false
	}

	return *msg, true
}

// Len returns the number of currently retained messages.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.messages)
}
