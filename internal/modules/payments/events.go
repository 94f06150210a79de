package payments

import (
	"time"

	"gorm.io/datatypes"
)

const (
	EventPending   = "pending"
	EventReceived  = "received"
	EventProcessed = "processed"
	EventFailed    = "failed"
	EventError     = "error"
)

// PaymentEvent is the append-only audit and idempotency record for gateway
// webhooks and synthesized internal payment actions. EventID is the
// external event id; insert-or-ignore on it is the sole dedupe guard.
type PaymentEvent struct {
	EventID          string         `gorm:"type:varchar(128);primaryKey"`
	EventType        string         `gorm:"type:varchar(64);not null"`
	ProcessingStatus string         `gorm:"type:varchar(16);not null"`
	RawEvent         datatypes.JSON `gorm:"type:json"`
	BookingID        *string        `gorm:"type:char(36);index:ix_payment_events_booking_id"`

	ReceivedAt   time.Time  `gorm:"not null"`
	ProcessedAt  *time.Time
	ErrorMessage *string    `gorm:"type:varchar(255)"`
}

func (PaymentEvent) TableName() string { return "payment_events" }
