package bookings

import (
	"testing"
	"time"
)

func TestUIStatus_DerivationOrder(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	cs := "cs_123"
	amount := int64(95500)

	tests := []struct {
		name string
		b    Booking
		want string
	}{
		{
			// cancelled beats everything, even paid
			name: "cancelled wins over paid",
			b: Booking{
				BookingStatus:           StatusCancelled,
				PaymentStatus:           PayPaid,
				StripeCheckoutSessionID: &cs,
				PaymentAmountMinor:      &amount,
			},
			want: UICancelled,
		},
		{
			name: "paid and confirmed",
			b:    Booking{BookingStatus: StatusConfirmed, PaymentStatus: PayPaid, PaymentAmountMinor: &amount},
			want: UIPaidConfirmed,
		},
		{
			name: "paid but never confirmed is an anomaly",
			b:    Booking{BookingStatus: StatusPending, PaymentStatus: PayPaid, ManualReviewRequired: true, PaymentAmountMinor: &amount},
			want: UIPaidManualReview,
		},
		{
			name: "live checkout link with running hold",
			b: Booking{
				BookingStatus:           StatusPending,
				PaymentStatus:           PayUnpaid,
				StripeCheckoutSessionID: &cs,
				HoldExpiresAt:           &future,
				PaymentAmountMinor:      &amount,
			},
			want: UIAwaitingPayment,
		},
		{
			name: "checkout link with expired hold",
			b: Booking{
				BookingStatus:           StatusPending,
				PaymentStatus:           PayUnpaid,
				StripeCheckoutSessionID: &cs,
				HoldExpiresAt:           &past,
				PaymentAmountMinor:      &amount,
			},
			want: UIPaymentLinkExpired,
		},
		{
			name: "checkout link but no hold at all",
			b: Booking{
				BookingStatus:           StatusPending,
				PaymentStatus:           PayUnpaid,
				StripeCheckoutSessionID: &cs,
				PaymentAmountMinor:      &amount,
			},
			want: UIPaymentLinkExpired,
		},
		{
			name: "no pricing snapshot yet",
			b:    Booking{BookingStatus: StatusPending, PaymentStatus: PayUnpaid},
			want: UINeedsPricingSnapshot,
		},
		{
			name: "plain pending",
			b:    Booking{BookingStatus: StatusPending, PaymentStatus: PayUnpaid, PaymentAmountMinor: &amount},
			want: UIPending,
		},
		{
			name: "deposit paid falls through to pending",
			b:    Booking{BookingStatus: StatusPending, PaymentStatus: PayDepositPaid, PaymentAmountMinor: &amount},
			want: UIPending,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := UIStatus(&tc.b, now); got != tc.want {
				t.Errorf("UIStatus = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestHoldActive(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	b := Booking{}
	if b.HoldActive(now) {
		t.Error("nil hold must not be active")
	}
	b.HoldExpiresAt = &future
	if !b.HoldActive(now) {
		t.Error("future hold must be active")
	}
	b.HoldExpiresAt = &past
	if b.HoldActive(now) {
		t.Error("past hold must not be active")
	}
}
