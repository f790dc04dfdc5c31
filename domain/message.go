// Package domain contains core concepts of the messaging system.
// Messages are immutable once created except for the two status
// timestamps, each settable exactly once.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	TypeText MessageType = "text"
	// TypeImage is reserved; the current pipeline never produces it.
	TypeImage MessageType = "image"
)

// Message represents one direct message between two users.
// CreatedAt is the authoritative ordering key. DeliveredAt and ReadAt
// are nullable and monotonic: once set they never change.
type Message struct {
	ID          uuid.UUID
	SenderID    string
	ReceiverID  string
	Content     string
	Type        MessageType
	CreatedAt   time.Time
	DeliveredAt *time.Time
	ReadAt      *time.Time
}

// Channel returns the relay topic this message belongs to.
func (m Message) Channel() string {
	return DeriveChannel(m.SenderID, m.ReceiverID)
}

// Status is derived from the two nullable timestamps, never stored.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

// Rank orders statuses so consumers can advance monotonically.
// A status must never be replaced by one with a lower rank.
func (s Status) Rank() int {
	switch s {
	case StatusDelivered:
		return 1
	case StatusRead:
		return 2
	default:
		return 0
	}
}

// StatusOf is the single source of truth for status derivation, shared by
// the server pipelines and the client synchronization engine. Read wins
// over delivered: a receiver-confirmed read does not wait for the delivery
// confirmation to have landed first.
func StatusOf(deliveredAt, readAt *time.Time) Status {
	switch {
	case readAt != nil:
		return StatusRead
	case deliveredAt != nil:
		return StatusDelivered
	default:
		return StatusSent
	}
}

// Status reports the derived status of the message.
func (m Message) Status() Status {
	return StatusOf(m.DeliveredAt, m.ReadAt)
}
