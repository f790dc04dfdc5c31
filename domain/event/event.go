// Package event defines the relay wire protocol: one tagged variant per
// event name, each with a fixed field set. Consumers decode into these
// variants and drop anything malformed instead of trusting payload shape.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"spill/domain"
)

const (
	NameMessageCreated = "message-created"
	NameMessageStatus  = "message-status"
	NameMessagesRead   = "messages-read"
)

// RelayEvent is implemented by every variant carried over the relay.
type RelayEvent interface {
	EventName() string
}

// Sender carries the resolved display fields of the message author, so
// receivers can render a conversation without a second profile lookup.
type Sender struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

// MessageCreated announces a freshly persisted message on its channel.
type MessageCreated struct {
	ID         string             `json:"id"`
	Content    string             `json:"content"`
	SenderID   string             `json:"senderId"`
	ReceiverID string             `json:"receiverId"`
	Type       domain.MessageType `json:"type"`
	Timestamp  time.Time          `json:"timestamp"`
	Status     domain.Status      `json:"status"`
	Sender     Sender             `json:"sender"`
}

func (MessageCreated) EventName() string { return NameMessageCreated }

// MessageStatus advances a single message to a later status,
// currently only "delivered".
type MessageStatus struct {
	MessageID string        `json:"messageId"`
	Status    domain.Status `json:"status"`
}

func (MessageStatus) EventName() string { return NameMessageStatus }

// MessagesRead acknowledges a batch of messages observed by their receiver.
type MessagesRead struct {
	MessageIDs []string  `json:"messageIds"`
	ReadBy     string    `json:"readBy"`
	ReadAt     time.Time `json:"readAt"`
}

func (MessagesRead) EventName() string { return NameMessagesRead }

// Envelope is the frame published on the relay: the event name plus its
// raw payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Encode frames a variant for publication.
func Encode(e RelayEvent) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: e.EventName(), Data: data})
}

// Decode parses a frame back into its typed variant. Unknown names and
// payloads missing required fields are errors; callers are expected to
// log and drop them.
func Decode(raw []byte) (RelayEvent, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed envelope: %w", err)
	}

	switch env.Event {
	case NameMessageCreated:
		var e MessageCreated
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Event, err)
		}
		if e.ID == "" || e.SenderID == "" {
			return nil, fmt.Errorf("%s payload missing identifiers", env.Event)
		}
		return e, nil
	case NameMessageStatus:
		var e MessageStatus
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Event, err)
		}
		if e.MessageID == "" {
			return nil, fmt.Errorf("%s payload missing message id", env.Event)
		}
		return e, nil
	case NameMessagesRead:
		var e MessagesRead
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Event, err)
		}
		if len(e.MessageIDs) == 0 || e.ReadBy == "" {
			return nil, fmt.Errorf("%s payload missing ids", env.Event)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown relay event %q", env.Event)
	}
}

// FromMessage builds the creation announcement for a persisted message.
func FromMessage(m domain.Message, sender domain.User) MessageCreated {
	return MessageCreated{
		ID:         m.ID.String(),
		Content:    m.Content,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Type:       m.Type,
		Timestamp:  m.CreatedAt,
		Status:     m.Status(),
		Sender: Sender{
			ID:       sender.ID,
			Name:     sender.Name,
			ImageURL: sender.ImageURL,
		},
	}
}
