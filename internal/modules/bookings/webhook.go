package bookings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/database"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/notify"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/payments"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/shared/apperr"
)

// ReconcileOutcome says what a verified gateway event did to the ledger.
const (
	OutcomeProcessed        = "processed"
	OutcomeDuplicate        = "duplicate"
	OutcomeIgnoredEventType = "ignored_event_type"
	OutcomeBookingNotFound  = "booking_not_found"
	OutcomeAlreadyPaid      = "already_paid"
	OutcomeManualReview     = "manual_review"
	OutcomeError            = "error"
)

// Reconciler applies verified payment gateway events to bookings. Signature
// verification happens before Reconcile is called; everything here assumes
// the event is authentic.
type Reconciler struct {
	db     *gorm.DB
	notify Dispatcher
	logger *slog.Logger
	now    func() time.Time
}

func NewReconciler(db *gorm.DB, nt Dispatcher, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{db: db, notify: nt, logger: logger, now: time.Now}
}

// Reconcile processes one verified event exactly once. Dedupe is a plain
// insert-or-ignore on the event id: the first delivery that inserts the row
// owns processing, later redeliveries of a processed event are duplicates.
// A redelivery of an event whose earlier attempt errored is reprocessed.
//
// The returned error reports a processing failure that the caller should
// log; the HTTP layer still acknowledges the delivery so the gateway does
// not retry forever against a bug that needs a code fix.
func (r *Reconciler) Reconcile(ctx context.Context, ev payments.Event) (string, error) {
	if ev.Type != "checkout.session.completed" {
		return OutcomeIgnoredEventType, nil
	}

	now := r.now()
	audit := payments.PaymentEvent{
		EventID:          ev.ID,
		EventType:        ev.Type,
		ProcessingStatus: payments.EventReceived,
		RawEvent:         ev.Raw,
		ReceivedAt:       now,
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&audit)
	if res.Error != nil {
		return OutcomeError, apperr.Wrap(fmt.Errorf("record payment event: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		var prior payments.PaymentEvent
		if err := r.db.WithContext(ctx).First(&prior, "event_id = ?", ev.ID).Error; err != nil {
			return OutcomeError, apperr.Wrap(err)
		}
		if prior.ProcessingStatus != payments.EventError {
			return OutcomeDuplicate, nil
		}
		// earlier attempt failed; this redelivery gets another run
	}

	outcome, booking, procErr := r.apply(ctx, ev)

	status := payments.EventProcessed
	var errMsg *string
	if procErr != nil {
		status = payments.EventError
		msg := procErr.Error()
		if len(msg) > 250 {
			msg = msg[:250]
		}
		errMsg = &msg
	}
	done := r.now()
	updates := map[string]any{
		"processing_status": status,
		"processed_at":      done,
		"error_message":     errMsg,
	}
	if booking != nil {
		updates["booking_id"] = booking.ID
	}
	if err := r.db.WithContext(ctx).Model(&payments.PaymentEvent{}).
		Where("event_id = ?", ev.ID).
		Updates(updates).Error; err != nil {
		r.logger.Error("payment event audit update failed", "event_id", ev.ID, "error", err)
	}

	if procErr != nil {
		return OutcomeError, procErr
	}

	if r.notify != nil && booking != nil {
		switch outcome {
		case OutcomeProcessed:
			r.notify.DispatchAsync(guestEvent(notify.EventBookingConfirmed, *booking, "Payment received. Your booking is confirmed."))
		case OutcomeManualReview:
			r.notify.DispatchAsync(notify.Event{
				Type:       notify.EventManualReview,
				OperatorID: booking.OperatorID,
				BookingID:  booking.ID,
				GuestName:  booking.GuestName,
				Message:    "Payment arrived after the hold expired; booking needs review.",
			})
		}
	}
	return outcome, nil
}

// apply holds the actual transition. Runs in its own transaction with the
// booking row locked.
func (r *Reconciler) apply(ctx context.Context, ev payments.Event) (string, *Booking, error) {
	var (
		outcome string
		applied Booking
		found   bool
	)
	err := database.WithTxRetry(ctx, r.db, 3, func(tx *gorm.DB) error {
		b, ok, err := r.resolve(ctx, tx, ev)
		if err != nil {
			return err
		}
		if !ok {
			outcome = OutcomeBookingNotFound
			found = false
			return nil
		}
		found = true
		applied = b

		now := r.now()

		// a booking already marked paid is final for this event stream
		if b.PaymentStatus == PayPaid {
			outcome = OutcomeAlreadyPaid
			return nil
		}
		if b.BookingStatus == StatusCancelled {
			// money arrived for a cancelled booking: keep the payment fact,
			// flag for a human, never resurrect the booking
			reason := ReasonPaymentAfterCancellation
			if err := tx.WithContext(ctx).Model(&Booking{}).Where("id = ?", b.ID).Updates(map[string]any{
				"payment_status":           PayPaid,
				"paid_at":                  now,
				"stripe_payment_intent_id": nilIfEmpty(ev.PaymentIntentID),
				"manual_review_required":   true,
				"manual_review_reason":     reason,
				"updated_at":               now,
			}).Error; err != nil {
				return apperr.Wrap(err)
			}
			applied.PaymentStatus = PayPaid
			applied.ManualReviewRequired = true
			outcome = OutcomeManualReview
			return nil
		}

		updates := map[string]any{
			"payment_status":           PayPaid,
			"paid_at":                  now,
			"stripe_payment_intent_id": nilIfEmpty(ev.PaymentIntentID),
			"updated_at":               now,
		}

		// No hold on the booking means no deadline was ever set, so the
		// payment cannot be late. Only a hold that was armed and has since
		// lapsed routes to manual review.
		if b.HoldExpiresAt == nil || b.HoldActive(now) {
			// on time: payment both settles and confirms
			updates["booking_status"] = StatusConfirmed
			applied.BookingStatus = StatusConfirmed
			outcome = OutcomeProcessed
		} else {
			// late: the seat may have been resold, so record the payment
			// but leave confirmation to an operator
			reason := ReasonLatePaymentHoldExpired
			updates["manual_review_required"] = true
			updates["manual_review_reason"] = reason
			applied.ManualReviewRequired = true
			applied.ManualReviewReason = &reason
			outcome = OutcomeManualReview
		}

		if err := tx.WithContext(ctx).Model(&Booking{}).Where("id = ?", b.ID).Updates(updates).Error; err != nil {
			return apperr.Wrap(err)
		}
		applied.PaymentStatus = PayPaid
		applied.PaidAt = &now
		applied.UpdatedAt = now
		return nil
	})
	if err != nil {
		return OutcomeError, nil, err
	}
	if !found {
		return outcome, nil, nil
	}
	return outcome, &applied, nil
}

// resolve locates the booking the event belongs to: the booking_id the
// checkout was created with, falling back to the stored checkout session id
// for events that lost their metadata.
func (r *Reconciler) resolve(ctx context.Context, tx *gorm.DB, ev payments.Event) (Booking, bool, error) {
	if id := ev.Metadata["booking_id"]; id != "" {
		var b Booking
		err := database.LockForUpdate(tx.WithContext(ctx)).First(&b, "id = ?", id).Error
		if err == nil {
			return b, true, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return Booking{}, false, apperr.Wrap(err)
		}
	}
	if ev.CheckoutSessionID != "" {
		return ByCheckoutSession(ctx, tx, ev.CheckoutSessionID)
	}
	return Booking{}, false, nil
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
