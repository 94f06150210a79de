package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/money"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/shared/apperr"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

type CreateSessionInput struct {
	OperatorID    string
	DiveDatetime  time.Time
	Site          string
	VesselID      *string
	PricePerDiver string
	Currency      string
}

func (r *Repo) Create(ctx context.Context, in CreateSessionInput) (DiveSession, error) {
	cur := money.NormalizeCurrency(in.Currency)
	if cur == "" {
		return DiveSession{}, apperr.InvalidErr("invalid currency", map[string]string{"currency": "must be a 3-letter code"})
	}
	// validate the price parses as a money amount for this currency
	if _, err := money.ToMinorUnits(in.PricePerDiver, cur); err != nil {
		return DiveSession{}, apperr.InvalidErr("invalid price", map[string]string{"price_per_diver": "must be a decimal amount"})
	}

	if in.VesselID != nil {
		var v Vessel
		err := r.db.WithContext(ctx).First(&v, "id = ? AND operator_id = ?", *in.VesselID, in.OperatorID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DiveSession{}, apperr.NotFoundErr("vessel not found")
		}
		if err != nil {
			return DiveSession{}, apperr.Wrap(err)
		}
	}

	now := time.Now()
	s := DiveSession{
		ID:            uuid.NewString(),
		OperatorID:    in.OperatorID,
		DiveDatetime:  in.DiveDatetime,
		Site:          in.Site,
		VesselID:      in.VesselID,
		PricePerDiver: in.PricePerDiver,
		Currency:      cur,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
		return DiveSession{}, apperr.Wrap(err)
	}
	return s, nil
}

// Get returns a session scoped to the operator. A session belonging to a
// different tenant is indistinguishable from a missing one.
func (r *Repo) Get(ctx context.Context, operatorID, id string) (DiveSession, error) {
	var s DiveSession
	err := r.db.WithContext(ctx).First(&s, "id = ? AND operator_id = ?", id, operatorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DiveSession{}, apperr.NotFoundErr("session not found")
	}
	if err != nil {
		return DiveSession{}, apperr.Wrap(err)
	}
	return s, nil
}

type ListParams struct {
	OperatorID       string
	From             *time.Time
	To               *time.Time
	IncludeCancelled bool
}

func (r *Repo) List(ctx context.Context, in ListParams) ([]DiveSession, error) {
	q := r.db.WithContext(ctx).Model(&DiveSession{}).Where("operator_id = ?", in.OperatorID)
	if !in.IncludeCancelled {
		q = q.Where("cancelled_at IS NULL")
	}
	if in.From != nil {
		q = q.Where("dive_datetime >= ?", *in.From)
	}
	if in.To != nil {
		q = q.Where("dive_datetime < ?", *in.To)
	}

	var out []DiveSession
	if err := q.Order("dive_datetime ASC").Find(&out).Error; err != nil {
		return nil, apperr.Wrap(err)
	}
	return out, nil
}

// Cancel soft-deletes the session. Cancelling twice is a no-op success;
// there is no un-cancel.
func (r *Repo) Cancel(ctx context.Context, operatorID, id string) (DiveSession, error) {
	s, err := r.Get(ctx, operatorID, id)
	if err != nil {
		return DiveSession{}, err
	}
	if s.Cancelled() {
		return s, nil
	}

	now := time.Now()
	if err := r.db.WithContext(ctx).Model(&DiveSession{}).
		Where("id = ? AND operator_id = ? AND cancelled_at IS NULL", id, operatorID).
		Updates(map[string]any{"cancelled_at": &now, "updated_at": now}).Error; err != nil {
		return DiveSession{}, apperr.Wrap(err)
	}
	s.CancelledAt = &now
	s.UpdatedAt = now
	return s, nil
}

// Vessel returns the bound vessel's capacity, or nil when the session is a
// shore dive.
func (r *Repo) VesselCapacity(ctx context.Context, s DiveSession) (*int, error) {
	if s.VesselID == nil {
		return nil, nil
	}
	var v Vessel
	err := r.db.WithContext(ctx).First(&v, "id = ?", *s.VesselID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFoundErr("vessel not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return &v.MaxCapacity, nil
}

type CreateVesselInput struct {
	OperatorID  string
	Name        string
	MaxCapacity int
}

func (r *Repo) CreateVessel(ctx context.Context, in CreateVesselInput) (Vessel, error) {
	if in.MaxCapacity < 1 {
		return Vessel{}, apperr.InvalidErr("invalid capacity", map[string]string{"max_capacity": "must be positive"})
	}
	v := Vessel{
		ID:          uuid.NewString(),
		OperatorID:  in.OperatorID,
		Name:        in.Name,
		MaxCapacity: in.MaxCapacity,
		CreatedAt:   time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(&v).Error; err != nil {
		return Vessel{}, apperr.Wrap(err)
	}
	return v, nil
}

func (r *Repo) ListVessels(ctx context.Context, operatorID string) ([]Vessel, error) {
	var out []Vessel
	if err := r.db.WithContext(ctx).
		Where("operator_id = ?", operatorID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, apperr.Wrap(err)
	}
	return out, nil
}
