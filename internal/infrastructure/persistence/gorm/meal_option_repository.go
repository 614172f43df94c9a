package gorm

import (
	"context"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/mealplan"
	"github.com/nutriplan/engine/internal/ports/outbound"
	"gorm.io/gorm"
)

// MealOptionRepository implements meal slot storage using GORM. The
// unique index on (day_id, meal_type, option_number) rejects a third
// option even when two writers race.
type MealOptionRepository struct {
	db *gorm.DB
}

// NewMealOptionRepository creates a new meal option repository
func NewMealOptionRepository(db *gorm.DB) *MealOptionRepository {
	return &MealOptionRepository{db: db}
}

var _ outbound.MealOptionRepository = (*MealOptionRepository)(nil)

// WithinTx runs fn in a database transaction
func (r *MealOptionRepository) WithinTx(ctx context.Context, fn func(repo outbound.MealOptionRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&MealOptionRepository{db: tx})
	})
}

// ListSlot returns a slot's options ordered by number
func (r *MealOptionRepository) ListSlot(ctx context.Context, dayID uuid.UUID, mealType mealplan.MealType) ([]*mealplan.MealOption, error) {
	var models []MealOptionModel
	err := preloadOptions(r.db.WithContext(ctx), "").
		Where("day_id = ? AND meal_type = ?", dayID, string(mealType)).
		Order("option_number").
		Find(&models).Error
	if err != nil {
		return nil, translate(err)
	}

	out := make([]*mealplan.MealOption, 0, len(models))
	for i := range models {
		o, err := ModelToOption(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// FindByID loads one option
func (r *MealOptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*mealplan.MealOption, error) {
	var model MealOptionModel
	if err := preloadOptions(r.db.WithContext(ctx), "").First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return ModelToOption(&model)
}

// Insert stores a new option with its items
func (r *MealOptionRepository) Insert(ctx context.Context, option *mealplan.MealOption) error {
	model := OptionToModel(option)
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertOption(tx, model)
	}))
}

func insertOption(tx *gorm.DB, model *MealOptionModel) error {
	items := model.Items
	model.Items = nil
	if err := tx.Omit("Recipe").Create(model).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].OptionID = model.ID
	}
	return tx.Omit("Food").Create(&items).Error
}

// Delete removes an option and its items
func (r *MealOptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("option_id = ?", id).Delete(&MealOptionItemModel{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&MealOptionModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}))
}

// UpdateNumbers persists new positions. Rows are first parked on negative
// numbers so swaps never trip the unique index midway.
func (r *MealOptionRepository) UpdateNumbers(ctx context.Context, options []*mealplan.MealOption) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, o := range options {
			if err := tx.Model(&MealOptionModel{}).Where("id = ?", o.ID).
				Update("option_number", -o.Number).Error; err != nil {
				return err
			}
		}
		for _, o := range options {
			err := tx.Model(&MealOptionModel{}).Where("id = ?", o.ID).Updates(map[string]interface{}{
				"option_number":  o.Number,
				"is_alternative": o.IsAlternative,
				"label":          o.Label,
				"updated_at":     o.UpdatedAt,
			}).Error
			if err != nil {
				return err
			}
		}
		return nil
	}))
}
