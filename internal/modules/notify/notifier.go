// Package notify delivers best-effort guest notifications. The booking core
// only holds a Notify capability it never waits on; delivery failures are
// logged durably and must never affect the transaction that triggered them.
package notify

import (
	"context"
	"time"
)

const (
	EventBookingCancelled = "booking.cancelled"
	EventBookingConfirmed = "booking.confirmed"
	EventPaymentLink      = "booking.payment_link"
	EventManualReview     = "booking.manual_review"
)

// Event is one guest-facing notification to be delivered out of band.
type Event struct {
	Type       string `json:"type"`
	OperatorID string `json:"operator_id"`
	BookingID  string `json:"booking_id"`
	GuestName  string `json:"guest_name,omitempty"`
	GuestEmail string `json:"guest_email,omitempty"`
	GuestPhone string `json:"guest_phone,omitempty"`
	Message    string `json:"message,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// NotificationLog records every delivery attempt, success or failure.
type NotificationLog struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	OperatorID string    `gorm:"type:char(36);not null;index:ix_notification_logs_operator_id"`
	BookingID  string    `gorm:"type:char(36);not null;index:ix_notification_logs_booking_id"`
	Channel    string    `gorm:"type:varchar(32);not null"`
	EventType  string    `gorm:"type:varchar(64);not null"`
	Status     string    `gorm:"type:varchar(16);not null"` // sent|failed
	Error      *string   `gorm:"type:varchar(255)"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (NotificationLog) TableName() string { return "notification_logs" }
