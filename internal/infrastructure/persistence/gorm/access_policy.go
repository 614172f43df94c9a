package gorm

import (
	"context"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/ports/outbound"
	"gorm.io/gorm"
)

// AccessPolicy grants plan access to the plan's patient and nutritionist
type AccessPolicy struct {
	db *gorm.DB
}

// NewAccessPolicy creates a plan membership policy
func NewAccessPolicy(db *gorm.DB) *AccessPolicy {
	return &AccessPolicy{db: db}
}

var _ outbound.AccessPolicy = (*AccessPolicy)(nil)

// CanAccessPlan reports whether actor is a member of the plan. Unknown
// plans report false.
func (p *AccessPolicy) CanAccessPlan(ctx context.Context, actorID, planID uuid.UUID) (bool, error) {
	var n int64
	err := p.db.WithContext(ctx).Model(&PlanModel{}).
		Where("id = ? AND (patient_id = ? OR nutritionist_id = ?)", planID, actorID, actorID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
