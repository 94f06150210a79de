package bookings

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/database"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/shared/apperr"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) DB() *gorm.DB { return r.db }

// Get returns a booking scoped to the operator. Cross-tenant reads are
// indistinguishable from missing rows.
func (r *Repo) Get(ctx context.Context, operatorID, id string) (Booking, error) {
	var b Booking
	err := r.db.WithContext(ctx).First(&b, "id = ? AND operator_id = ?", id, operatorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Booking{}, apperr.NotFoundErr("booking not found")
	}
	if err != nil {
		return Booking{}, apperr.Wrap(err)
	}
	return b, nil
}

// lockGet takes the booking row FOR UPDATE inside the caller's transaction.
// Every state transition goes through here first.
func lockGet(ctx context.Context, tx *gorm.DB, operatorID, id string) (Booking, error) {
	var b Booking
	err := database.LockForUpdate(tx.WithContext(ctx)).
		First(&b, "id = ? AND operator_id = ?", id, operatorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Booking{}, apperr.NotFoundErr("booking not found")
	}
	if err != nil {
		return Booking{}, apperr.Wrap(err)
	}
	return b, nil
}

type ListParams struct {
	OperatorID string
	SessionID  string // empty means all sessions
	Status     string // booking_status filter, empty means all
}

func (r *Repo) List(ctx context.Context, in ListParams) ([]Booking, error) {
	q := r.db.WithContext(ctx).Model(&Booking{}).Where("operator_id = ?", in.OperatorID)
	if in.SessionID != "" {
		q = q.Where("session_id = ?", in.SessionID)
	}
	if in.Status != "" {
		q = q.Where("booking_status = ?", in.Status)
	}

	var out []Booking
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, apperr.Wrap(err)
	}
	return out, nil
}

// ConsumedHeadcount sums the heads that still count against a session's
// capacity: confirmed bookings plus pending ones whose payment hold has not
// lapsed. Expired-hold pending bookings stop counting the moment this is
// evaluated; nothing demotes them proactively. The booking being acted on
// is excluded so it cannot double-count against itself.
func ConsumedHeadcount(ctx context.Context, tx *gorm.DB, operatorID, sessionID, excludeBookingID string, now time.Time) (int, error) {
	var n int
	err := tx.WithContext(ctx).Model(&Booking{}).
		Select("COALESCE(SUM(headcount), 0)").
		Where("operator_id = ? AND session_id = ? AND id <> ?", operatorID, sessionID, excludeBookingID).
		Where("booking_status = ? OR (booking_status = ? AND hold_expires_at IS NOT NULL AND hold_expires_at > ?)",
			StatusConfirmed, StatusPending, now).
		Scan(&n).Error
	if err != nil {
		return 0, apperr.Wrap(err)
	}
	return n, nil
}

// SessionHeadcounts returns the confirmed and pending (unexpired-hold)
// sums feeding the dual capacity view.
func (r *Repo) SessionHeadcounts(ctx context.Context, operatorID, sessionID string, now time.Time) (confirmed, pending int, err error) {
	if err = r.db.WithContext(ctx).Model(&Booking{}).
		Select("COALESCE(SUM(headcount), 0)").
		Where("operator_id = ? AND session_id = ? AND booking_status = ?", operatorID, sessionID, StatusConfirmed).
		Scan(&confirmed).Error; err != nil {
		return 0, 0, apperr.Wrap(err)
	}

	if err = r.db.WithContext(ctx).Model(&Booking{}).
		Select("COALESCE(SUM(headcount), 0)").
		Where("operator_id = ? AND session_id = ? AND booking_status = ? AND hold_expires_at IS NOT NULL AND hold_expires_at > ?",
			operatorID, sessionID, StatusPending, now).
		Scan(&pending).Error; err != nil {
		return 0, 0, apperr.Wrap(err)
	}

	return confirmed, pending, nil
}

// phoneInUse checks the per-operator unique-phone rule (config toggle).
// Cancelled bookings release the number.
func (r *Repo) phoneInUse(ctx context.Context, operatorID, phone, excludeBookingID string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&Booking{}).
		Where("operator_id = ? AND guest_phone = ? AND booking_status <> ? AND id <> ?",
			operatorID, phone, StatusCancelled, excludeBookingID).
		Count(&cnt).Error
	if err != nil {
		return false, apperr.Wrap(err)
	}
	return cnt > 0, nil
}

// ByCheckoutSession resolves a booking from a gateway checkout-session id;
// used by the webhook reconciler when event metadata is absent.
func ByCheckoutSession(ctx context.Context, tx *gorm.DB, checkoutSessionID string) (Booking, bool, error) {
	var b Booking
	err := database.LockForUpdate(tx.WithContext(ctx)).
		First(&b, "stripe_checkout_session_id = ?", checkoutSessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Booking{}, false, nil
	}
	if err != nil {
		return Booking{}, false, err
	}
	return b, true, nil
}
