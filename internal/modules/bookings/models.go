package bookings

import "time"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

const (
	PayUnpaid           = "unpaid"
	PayPaid             = "paid"
	PayDepositPaid      = "deposit_paid"
	PaySettledElsewhere = "settled_elsewhere"
	PayWaived           = "waived"
)

// Manual-review reason codes.
const (
	ReasonLatePaymentHoldExpired   = "late_payment_hold_expired"
	ReasonPaymentAfterCancellation = "payment_after_cancellation"
)

// Booking is one guest party reserved against one dive session.
//
// PaymentAmountMinor/PaymentCurrency form the pricing snapshot: set once
// when the booking becomes session-scoped and never recomputed from the
// session's current price. StripeCharge* mirror what the gateway was
// actually asked to charge, which can differ in currency via the static FX
// path; the ledger snapshot itself is never mutated by conversion.
type Booking struct {
	ID         string  `gorm:"type:char(36);primaryKey" json:"id"`
	OperatorID string  `gorm:"type:char(36);not null;index:ix_bookings_operator_id" json:"operator_id"`
	SessionID  *string `gorm:"type:char(36);index:ix_bookings_session_id" json:"session_id,omitempty"`

	GuestName  string  `gorm:"type:varchar(255);not null" json:"guest_name"`
	GuestEmail *string `gorm:"type:varchar(255)" json:"guest_email,omitempty"`
	GuestPhone *string `gorm:"type:varchar(32);index:ix_bookings_guest_phone" json:"guest_phone,omitempty"`
	Headcount  int     `gorm:"not null" json:"headcount"`

	BookingStatus string     `gorm:"type:varchar(16);not null" json:"booking_status"`
	PaymentStatus string     `gorm:"type:varchar(24);not null" json:"payment_status"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`

	PaymentCurrency    *string `gorm:"type:char(3)" json:"payment_currency,omitempty"`
	PaymentAmountMinor *int64  `json:"payment_amount_minor,omitempty"`

	StripeCheckoutSessionID *string  `gorm:"type:varchar(128);index:ix_bookings_checkout_session" json:"stripe_checkout_session_id,omitempty"`
	StripePaymentIntentID   *string  `gorm:"type:varchar(128)" json:"stripe_payment_intent_id,omitempty"`
	StripeChargeCurrency    *string  `gorm:"type:char(3)" json:"stripe_charge_currency,omitempty"`
	StripeChargeAmountMinor *int64   `json:"stripe_charge_amount_minor,omitempty"`
	FxRate                  *float64 `json:"fx_rate,omitempty"`
	FxSource                *string  `gorm:"type:varchar(64)" json:"fx_source,omitempty"`

	ManualReviewRequired bool    `gorm:"not null;default:false" json:"manual_review_required"`
	ManualReviewReason   *string `gorm:"type:varchar(64)" json:"manual_review_reason,omitempty"`

	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (Booking) TableName() string { return "bookings" }

// HoldActive reports whether an unexpired payment hold is running.
func (b *Booking) HoldActive(now time.Time) bool {
	return b.HoldExpiresAt != nil && now.Before(*b.HoldExpiresAt)
}

func (b *Booking) HasCheckoutSession() bool { return b.StripeCheckoutSessionID != nil }

func (b *Booking) HasPricingSnapshot() bool { return b.PaymentAmountMinor != nil }
