package events

import (
	"context"
	"time"
)

// Type names a ledger event.
type Type string

const (
	PaymentCollected     Type = "payment.collected"
	PaymentReversed      Type = "payment.reversed"
	StudentFeeWaived     Type = "student_fee.waived"
	ObligationsGenerated Type = "obligations.generated"
)

// Event is published after the change it describes has committed.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	ActorID    string    `json:"actorID"`
	Payload    any       `json:"payload"`
}

// Publisher delivers ledger events to downstream collaborators (notifications, reports).
// Delivery is best effort; the ledger never rolls back because a publish failed.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
