package bookings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/database"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/money"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/notify"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/payments"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/sessions"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/shared/apperr"
)

// Closed action set returned by booking mutations so callers can tell a
// genuine state change from an idempotent no-op.
const (
	ActionCheckoutCreated          = "checkout_created"
	ActionCheckoutReused           = "checkout_reused"
	ActionPaymentLinkRegenerated   = "payment_link_regenerated"
	ActionNoopAlreadyPaidConfirmed = "noop_already_paid_confirmed"
	ActionRejected                 = "rejected"
	ActionNoopAlreadyCancelled     = "noop_already_cancelled"
	ActionConfirmedAfterReview     = "confirmed_after_review"
)

type ActionResult struct {
	Action      string
	Booking     Booking
	CheckoutURL string
}

// Dispatcher is the notification capability the booking core holds. It is
// fire-and-forget; *notify.Service satisfies it.
type Dispatcher interface {
	DispatchAsync(ev notify.Event)
}

// Service runs every booking state transition. Each mutation is a single
// transaction that starts by locking the booking row, so concurrent
// attempts against the same booking serialize at the database.
type Service struct {
	db       *gorm.DB
	repo     *Repo
	sessions *sessions.Repo
	gateway  payments.Provider
	fx       payments.FxConfig
	notify   Dispatcher
	logger   *slog.Logger

	holdWindow         time.Duration
	enforceUniquePhone bool

	checkoutSuccessURL string
	checkoutCancelURL  string

	now func() time.Time
}

type ServiceOptions struct {
	HoldWindow         time.Duration
	EnforceUniquePhone bool
	CheckoutSuccessURL string
	CheckoutCancelURL  string
	Fx                 payments.FxConfig
}

func NewService(db *gorm.DB, sess *sessions.Repo, gw payments.Provider, nt Dispatcher, logger *slog.Logger, opts ServiceOptions) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:                 db,
		repo:               NewRepo(db),
		sessions:           sess,
		gateway:            gw,
		fx:                 opts.Fx,
		notify:             nt,
		logger:             logger,
		holdWindow:         opts.HoldWindow,
		enforceUniquePhone: opts.EnforceUniquePhone,
		checkoutSuccessURL: opts.CheckoutSuccessURL,
		checkoutCancelURL:  opts.CheckoutCancelURL,
		now:                time.Now,
	}
}

type CreateInput struct {
	OperatorID string
	SessionID  *string
	GuestName  string
	GuestEmail *string
	GuestPhone *string
	Headcount  int
}

// Create is the intake step: a pending/unpaid booking. When it is already
// session-scoped, the pricing snapshot is taken here, from the session's
// price at this moment, and never again.
func (s *Service) Create(ctx context.Context, in CreateInput) (Booking, error) {
	if in.Headcount < 1 {
		return Booking{}, apperr.InvalidErr("invalid headcount", map[string]string{"headcount": "must be a positive integer"})
	}
	if in.GuestName == "" {
		return Booking{}, apperr.InvalidErr("guest name required", map[string]string{"guest_name": "required"})
	}

	if s.enforceUniquePhone && in.GuestPhone != nil && *in.GuestPhone != "" {
		used, err := s.repo.phoneInUse(ctx, in.OperatorID, *in.GuestPhone, "")
		if err != nil {
			return Booking{}, err
		}
		if used {
			return Booking{}, apperr.ConflictErr("an active booking already exists for this phone number")
		}
	}

	now := s.now()
	b := Booking{
		ID:            uuid.NewString(),
		OperatorID:    in.OperatorID,
		SessionID:     in.SessionID,
		GuestName:     in.GuestName,
		GuestEmail:    in.GuestEmail,
		GuestPhone:    in.GuestPhone,
		Headcount:     in.Headcount,
		BookingStatus: StatusPending,
		PaymentStatus: PayUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if in.SessionID != nil {
		sess, err := s.sessions.Get(ctx, in.OperatorID, *in.SessionID)
		if err != nil {
			return Booking{}, err
		}
		if sess.Cancelled() {
			return Booking{}, apperr.ConflictErr("session is cancelled")
		}
		cur, amount, err := snapshotPrice(sess, in.Headcount)
		if err != nil {
			return Booking{}, err
		}
		b.PaymentCurrency = &cur
		b.PaymentAmountMinor = &amount
	}

	if err := s.db.WithContext(ctx).Create(&b).Error; err != nil {
		return Booking{}, apperr.Wrap(err)
	}
	return b, nil
}

// AssignSession binds a session-less booking to a session and takes the
// pricing snapshot if none exists yet. An existing snapshot is kept as is.
func (s *Service) AssignSession(ctx context.Context, operatorID, bookingID, sessionID string) (Booking, error) {
	var out Booking
	err := database.WithTxRetry(ctx, s.db, 3, func(tx *gorm.DB) error {
		b, err := lockGet(ctx, tx, operatorID, bookingID)
		if err != nil {
			return err
		}
		if b.BookingStatus == StatusCancelled {
			return apperr.ConflictErr("booking is cancelled")
		}

		sess, err := sessionGetTx(ctx, tx, operatorID, sessionID)
		if err != nil {
			return err
		}
		if sess.Cancelled() {
			return apperr.ConflictErr("session is cancelled")
		}

		now := s.now()
		updates := map[string]any{"session_id": sessionID, "updated_at": now}

		if !b.HasPricingSnapshot() {
			cur, amount, err := snapshotPrice(sess, b.Headcount)
			if err != nil {
				return err
			}
			updates["payment_currency"] = cur
			updates["payment_amount_minor"] = amount
			b.PaymentCurrency = &cur
			b.PaymentAmountMinor = &amount
		}

		if err := tx.WithContext(ctx).Model(&Booking{}).Where("id = ?", b.ID).Updates(updates).Error; err != nil {
			return apperr.Wrap(err)
		}
		b.SessionID = &sessionID
		b.UpdatedAt = now
		out = b
		return nil
	})
	return out, err
}

// Approve creates (or, idempotently, returns) the hosted checkout link for
// a booking. force regenerates a fresh link, still from the original
// pricing snapshot. The whole transition, including the gateway call,
// happens under the booking row lock so a racing pair of approvals against
// a nearly-full session resolves deterministically.
func (s *Service) Approve(ctx context.Context, operatorID, bookingID string, force bool) (ActionResult, error) {
	var res ActionResult
	err := database.WithTxRetry(ctx, s.db, 3, func(tx *gorm.DB) error {
		b, err := lockGet(ctx, tx, operatorID, bookingID)
		if err != nil {
			return err
		}
		now := s.now()

		if b.BookingStatus == StatusCancelled {
			return apperr.ConflictErr("booking is cancelled")
		}
		if b.BookingStatus == StatusConfirmed && b.PaymentStatus == PayPaid {
			res = ActionResult{Action: ActionNoopAlreadyPaidConfirmed, Booking: b}
			return nil
		}
		if b.PaymentStatus == PayPaid {
			// money is already collected; a fresh link would be a second
			// payable charge for it
			return apperr.ConflictErr("booking is paid; resolve the review via confirm")
		}
		if !b.HasPricingSnapshot() {
			// pricing must be established first; recomputing from the
			// session's current price after a quote was given is a
			// bait-and-switch
			return apperr.InvalidErr("booking has no pricing snapshot", map[string]string{"payment_amount_minor": "assign a session to establish pricing first"})
		}
		if b.SessionID == nil {
			return apperr.InvalidErr("booking is not session-scoped", map[string]string{"session_id": "assign a session first"})
		}

		sess, err := sessionGetTx(ctx, tx, operatorID, *b.SessionID)
		if err != nil {
			return err
		}
		if sess.Cancelled() {
			return apperr.ConflictErr("session is cancelled")
		}

		if err := s.checkCapacity(ctx, tx, &b, sess, now); err != nil {
			return err
		}

		// Idempotent retrieval: a live link is returned, not duplicated.
		if !force && b.HasCheckoutSession() && b.PaymentStatus == PayUnpaid && b.HoldActive(now) {
			cs, err := s.gateway.RetrieveCheckoutSession(ctx, *b.StripeCheckoutSessionID)
			if err != nil {
				return apperr.Wrap(fmt.Errorf("retrieve checkout session: %w", err))
			}
			res = ActionResult{Action: ActionCheckoutReused, Booking: b, CheckoutURL: cs.URL}
			return nil
		}

		charge, err := s.fx.Convert(*b.PaymentCurrency, *b.PaymentAmountMinor)
		if err != nil {
			return apperr.Wrap(err)
		}

		cs, err := s.gateway.CreateCheckoutSession(ctx, payments.CreateCheckoutInput{
			AmountMinor: charge.AmountMinor,
			Currency:    charge.Currency,
			Description: fmt.Sprintf("Dive session %s, %d diver(s)", sess.Site, b.Headcount),
			SuccessURL:  s.checkoutSuccessURL,
			CancelURL:   s.checkoutCancelURL,
			Metadata:    map[string]string{"booking_id": b.ID},
		})
		if err != nil {
			return apperr.Wrap(fmt.Errorf("create checkout session: %w", err))
		}

		updates := map[string]any{
			"stripe_checkout_session_id": cs.ID,
			"stripe_payment_intent_id":   nil,
			"updated_at":                 now,
		}
		if charge.FxRate != nil {
			updates["stripe_charge_currency"] = charge.Currency
			updates["stripe_charge_amount_minor"] = charge.AmountMinor
			updates["fx_rate"] = *charge.FxRate
			updates["fx_source"] = *charge.FxSource
		} else {
			updates["stripe_charge_currency"] = nil
			updates["stripe_charge_amount_minor"] = nil
			updates["fx_rate"] = nil
			updates["fx_source"] = nil
		}
		// (re)arm the hold only when none is running; re-approval must not
		// shorten an active payment window
		if !b.HoldActive(now) {
			expires := now.Add(s.holdWindow)
			updates["hold_expires_at"] = expires
			b.HoldExpiresAt = &expires
		}

		if err := tx.WithContext(ctx).Model(&Booking{}).Where("id = ?", b.ID).Updates(updates).Error; err != nil {
			return apperr.Wrap(err)
		}

		b.StripeCheckoutSessionID = &cs.ID
		b.StripePaymentIntentID = nil
		if charge.FxRate != nil {
			b.StripeChargeCurrency = &charge.Currency
			b.StripeChargeAmountMinor = &charge.AmountMinor
			b.FxRate = charge.FxRate
			b.FxSource = charge.FxSource
		} else {
			b.StripeChargeCurrency = nil
			b.StripeChargeAmountMinor = nil
			b.FxRate = nil
			b.FxSource = nil
		}
		b.UpdatedAt = now

		action := ActionCheckoutCreated
		if force {
			action = ActionPaymentLinkRegenerated
		}
		res = ActionResult{Action: action, Booking: b, CheckoutURL: cs.URL}
		return nil
	})
	if err != nil {
		return ActionResult{}, err
	}

	if s.notify != nil && (res.Action == ActionCheckoutCreated || res.Action == ActionPaymentLinkRegenerated) {
		s.notify.DispatchAsync(guestEvent(notify.EventPaymentLink, res.Booking, "Your payment link is ready: "+res.CheckoutURL))
	}
	return res, nil
}

// Reject cancels the booking. Cancelling twice is an idempotent success,
// and the second call sends no second guest message.
func (s *Service) Reject(ctx context.Context, operatorID, bookingID string) (ActionResult, error) {
	var res ActionResult
	err := database.WithTxRetry(ctx, s.db, 3, func(tx *gorm.DB) error {
		b, err := lockGet(ctx, tx, operatorID, bookingID)
		if err != nil {
			return err
		}
		if b.BookingStatus == StatusCancelled {
			res = ActionResult{Action: ActionNoopAlreadyCancelled, Booking: b}
			return nil
		}

		now := s.now()
		if err := tx.WithContext(ctx).Model(&Booking{}).
			Where("id = ?", b.ID).
			Updates(map[string]any{"booking_status": StatusCancelled, "updated_at": now}).Error; err != nil {
			return apperr.Wrap(err)
		}
		b.BookingStatus = StatusCancelled
		b.UpdatedAt = now
		res = ActionResult{Action: ActionRejected, Booking: b}
		return nil
	})
	if err != nil {
		return ActionResult{}, err
	}

	if s.notify != nil && res.Action == ActionRejected {
		s.notify.DispatchAsync(guestEvent(notify.EventBookingCancelled, res.Booking, "Your booking has been cancelled."))
	}
	return res, nil
}

// ConfirmAfterReview is the explicit resolution of a paid_manual_review
// booking: an operator takes responsibility, capacity is re-checked, and
// the review flag is cleared. Neither approval nor the webhook ever clears
// the flag implicitly.
func (s *Service) ConfirmAfterReview(ctx context.Context, operatorID, bookingID string) (ActionResult, error) {
	var res ActionResult
	err := database.WithTxRetry(ctx, s.db, 3, func(tx *gorm.DB) error {
		b, err := lockGet(ctx, tx, operatorID, bookingID)
		if err != nil {
			return err
		}
		if b.BookingStatus == StatusCancelled {
			return apperr.ConflictErr("booking is cancelled")
		}
		if b.PaymentStatus != PayPaid {
			return apperr.ConflictErr("booking is not paid")
		}
		if b.BookingStatus == StatusConfirmed && !b.ManualReviewRequired {
			res = ActionResult{Action: ActionNoopAlreadyPaidConfirmed, Booking: b}
			return nil
		}

		now := s.now()
		if b.SessionID != nil {
			sess, err := sessionGetTx(ctx, tx, operatorID, *b.SessionID)
			if err != nil {
				return err
			}
			if err := s.checkCapacity(ctx, tx, &b, sess, now); err != nil {
				return err
			}
		}

		if err := tx.WithContext(ctx).Model(&Booking{}).
			Where("id = ?", b.ID).
			Updates(map[string]any{
				"booking_status":         StatusConfirmed,
				"manual_review_required": false,
				"manual_review_reason":   nil,
				"updated_at":             now,
			}).Error; err != nil {
			return apperr.Wrap(err)
		}
		b.BookingStatus = StatusConfirmed
		b.ManualReviewRequired = false
		b.ManualReviewReason = nil
		b.UpdatedAt = now
		res = ActionResult{Action: ActionConfirmedAfterReview, Booking: b}
		return nil
	})
	if err != nil {
		return ActionResult{}, err
	}

	if s.notify != nil && res.Action == ActionConfirmedAfterReview {
		s.notify.DispatchAsync(guestEvent(notify.EventBookingConfirmed, res.Booking, "Your booking is confirmed."))
	}
	return res, nil
}

func (s *Service) Get(ctx context.Context, operatorID, id string) (Booking, error) {
	return s.repo.Get(ctx, operatorID, id)
}

func (s *Service) List(ctx context.Context, in ListParams) ([]Booking, error) {
	return s.repo.List(ctx, in)
}

func (s *Service) Repo() *Repo { return s.repo }

// checkCapacity enforces consumed + requested ≤ max inside the caller's
// transaction. Shore sessions (no vessel) are unbounded.
func (s *Service) checkCapacity(ctx context.Context, tx *gorm.DB, b *Booking, sess sessions.DiveSession, now time.Time) error {
	if sess.VesselID == nil {
		return nil
	}

	var max int
	if err := tx.WithContext(ctx).Model(&sessions.Vessel{}).
		Select("max_capacity").
		Where("id = ?", *sess.VesselID).
		Scan(&max).Error; err != nil {
		return apperr.Wrap(err)
	}

	consumed, err := ConsumedHeadcount(ctx, tx, b.OperatorID, sess.ID, b.ID, now)
	if err != nil {
		return err
	}
	if consumed+b.Headcount > max {
		oc := &OverCapacityError{SessionID: sess.ID, MaxCapacity: max, Consumed: consumed, Requested: b.Headcount}
		return &apperr.AppError{
			Kind:      apperr.Conflict,
			PublicMsg: "session is over capacity",
			Fields: map[string]string{
				"max_capacity": strconv.Itoa(max),
				"consumed":     strconv.Itoa(consumed),
				"requested":    strconv.Itoa(b.Headcount),
			},
			Err: oc,
		}
	}
	return nil
}

func snapshotPrice(sess sessions.DiveSession, headcount int) (string, int64, error) {
	minorStr, err := money.ToMinorUnits(sess.PricePerDiver, sess.Currency)
	if err != nil {
		return "", 0, apperr.Wrap(fmt.Errorf("session %s has unparseable price %q: %w", sess.ID, sess.PricePerDiver, err))
	}
	perDiver, err := strconv.ParseInt(minorStr, 10, 64)
	if err != nil {
		return "", 0, apperr.Wrap(err)
	}
	return money.NormalizeCurrency(sess.Currency), perDiver * int64(headcount), nil
}

func sessionGetTx(ctx context.Context, tx *gorm.DB, operatorID, sessionID string) (sessions.DiveSession, error) {
	var sess sessions.DiveSession
	err := tx.WithContext(ctx).First(&sess, "id = ? AND operator_id = ?", sessionID, operatorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sessions.DiveSession{}, apperr.NotFoundErr("session not found")
	}
	if err != nil {
		return sessions.DiveSession{}, apperr.Wrap(err)
	}
	return sess, nil
}

func guestEvent(eventType string, b Booking, msg string) notify.Event {
	ev := notify.Event{
		Type:       eventType,
		OperatorID: b.OperatorID,
		BookingID:  b.ID,
		GuestName:  b.GuestName,
		Message:    msg,
	}
	if b.GuestEmail != nil {
		ev.GuestEmail = *b.GuestEmail
	}
	if b.GuestPhone != nil {
		ev.GuestPhone = *b.GuestPhone
	}
	return ev
}
