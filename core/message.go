package core

import (
	"encoding/json"
	"time"
)

// MessageKind categorizes bus messages so handlers can dispatch exhaustively.
type MessageKind string

const (
	// KindRequest marks a message asking its recipient to act.
	KindRequest MessageKind = "request"
	// KindResponse marks a reply correlated to an earlier request.
	KindResponse MessageKind = "response"
	// KindNotification marks a one-way informational message.
	KindNotification MessageKind = "notification"
	// KindEvent marks a deliberation progress event mirrored onto the bus.
	KindEvent MessageKind = "event"
)

// Frame is the JSON-serializable payload envelope carried by messages and
// stream events: a type tag plus the marshaled data for that type. Handlers
// switch on Type and unmarshal Data into the matching payload struct instead
// of runtime-checking an untyped value.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewFrame marshals a statically-typed payload into a tagged frame.
func NewFrame(frameType string, payload any) (Frame, error) {
	if payload == nil {
		return Frame{Type: frameType}, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}

	return Frame{Type: frameType, Data: data}, nil
}

// TextFrame builds a frame whose payload is a single text field.
func TextFrame(frameType, text string) Frame {
	f, _ := NewFrame(frameType, TextData{Text: text})
	return f
}

// Decode unmarshals the frame data into the provided payload struct.
func (f Frame) Decode(payload any) error {
	if len(f.Data) == 0 {
		return nil
	}

	return json.Unmarshal(f.Data, payload)
}

// Message is the unit of communication on the bus. It is created on publish
// and transitions to acknowledged exactly once; the core never deletes
// messages (storage lifetime beyond the retention window is a collaborator
// concern).
type Message struct {
	ID            string      `json:"id"`
	Sender        Participant `json:"sender"`
	Recipient     Participant `json:"recipient"`
	Kind          MessageKind `json:"kind"`
	Payload       Frame       `json:"payload"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	Acknowledged  bool        `json:"acknowledged"`
}

// NewMessage creates an unacknowledged message with a fresh unique id and a
// high precision UTC timestamp.
func NewMessage(sender, recipient Participant, kind MessageKind, payload Frame) Message {
	return Message{
		ID:        NewID(),
		Sender:    sender,
		Recipient: recipient,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}
