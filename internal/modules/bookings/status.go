package bookings

import "time"

// UI statuses derived from booking_status × payment_status × hold state.
const (
	UICancelled            = "cancelled"
	UIPaidConfirmed        = "paid_confirmed"
	UIPaidManualReview     = "paid_manual_review"
	UIAwaitingPayment      = "awaiting_payment"
	UIPaymentLinkExpired   = "payment_link_expired"
	UINeedsPricingSnapshot = "needs_pricing_snapshot"
	UIPending              = "pending"
)

// UIStatus collapses the booking's true state into the operationally
// meaningful phase for display. The rule ORDER is the contract: first
// match wins, so a cancelled booking reads cancelled no matter what its
// payment fields say, and a paid-but-unconfirmed one always surfaces as an
// anomaly instead of hiding behind the link state.
func UIStatus(b *Booking, now time.Time) string {
	switch {
	case b.BookingStatus == StatusCancelled:
		return UICancelled
	case b.BookingStatus == StatusConfirmed && b.PaymentStatus == PayPaid:
		return UIPaidConfirmed
	case b.PaymentStatus == PayPaid:
		return UIPaidManualReview
	case b.HasCheckoutSession() && b.PaymentStatus == PayUnpaid && b.HoldActive(now):
		return UIAwaitingPayment
	case b.HasCheckoutSession() && b.PaymentStatus == PayUnpaid:
		return UIPaymentLinkExpired
	case !b.HasPricingSnapshot():
		return UINeedsPricingSnapshot
	default:
		return UIPending
	}
}
