package operators

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/shared/apperr"
)

type Resolver struct{ db *gorm.DB }

func NewResolver(db *gorm.DB) *Resolver { return &Resolver{db: db} }

// BySubject maps an authenticated subject to its operator. A subject bound
// to more than one operator is a provisioning mistake and surfaces as a
// conflict rather than silently picking one tenant.
func (r *Resolver) BySubject(ctx context.Context, subject string) (Operator, error) {
	if subject == "" {
		return Operator{}, apperr.UnauthorizedErr("authentication required")
	}

	var ops []Operator
	if err := r.db.WithContext(ctx).
		Where("auth_subject = ?", subject).
		Limit(2).
		Find(&ops).Error; err != nil {
		return Operator{}, apperr.Wrap(err)
	}

	switch len(ops) {
	case 0:
		return Operator{}, apperr.UnauthorizedErr("no operator account for this identity")
	case 1:
		return ops[0], nil
	default:
		return Operator{}, apperr.ConflictErr("identity is linked to multiple operator accounts")
	}
}

func (r *Resolver) ByID(ctx context.Context, id string) (Operator, error) {
	var op Operator
	if err := r.db.WithContext(ctx).First(&op, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Operator{}, apperr.NotFoundErr("operator not found")
		}
		return Operator{}, apperr.Wrap(err)
	}
	return op, nil
}
