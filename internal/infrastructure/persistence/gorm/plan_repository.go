package gorm

import (
	"context"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/mealplan"
	"github.com/nutriplan/engine/internal/ports/outbound"
	"gorm.io/gorm"
)

// PlanRepository implements the plan snapshot read model using GORM.
// Each load preloads the whole graph it returns.
type PlanRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

var _ outbound.PlanRepository = (*PlanRepository)(nil)

// preloadOptions loads options with items, foods and recipes under prefix
func preloadOptions(db *gorm.DB, prefix string) *gorm.DB {
	return db.
		Preload(prefix+"Items", orderByPosition).
		Preload(prefix + "Items.Food").
		Preload(prefix + "Recipe").
		Preload(prefix+"Recipe.Items", orderByPosition).
		Preload(prefix + "Recipe.Items.Food")
}

func orderOptions(db *gorm.DB) *gorm.DB {
	return db.Order("meal_type, option_number")
}

// LoadPlan loads a plan with every day and option
func (r *PlanRepository) LoadPlan(ctx context.Context, planID uuid.UUID) (*mealplan.PlanSnapshot, error) {
	var model PlanModel
	q := r.db.WithContext(ctx).
		Preload("Days", func(db *gorm.DB) *gorm.DB { return db.Order("day_index") }).
		Preload("Days.Options", orderOptions)
	if err := preloadOptions(q, "Days.Options.").First(&model, "id = ?", planID).Error; err != nil {
		return nil, translate(err)
	}
	return ModelToPlan(&model)
}

// LoadDay loads a single day with its options
func (r *PlanRepository) LoadDay(ctx context.Context, dayID uuid.UUID) (*mealplan.DaySnapshot, error) {
	var model PlanDayModel
	q := r.db.WithContext(ctx).Preload("Options", orderOptions)
	if err := preloadOptions(q, "Options.").First(&model, "id = ?", dayID).Error; err != nil {
		return nil, translate(err)
	}
	day, err := ModelToDay(&model)
	if err != nil {
		return nil, err
	}
	return &day, nil
}

// LoadMeal loads a single meal option
func (r *PlanRepository) LoadMeal(ctx context.Context, optionID uuid.UUID) (*mealplan.MealOption, error) {
	var model MealOptionModel
	if err := preloadOptions(r.db.WithContext(ctx), "").First(&model, "id = ?", optionID).Error; err != nil {
		return nil, translate(err)
	}
	return ModelToOption(&model)
}

// FindDay returns the plan owning a day
func (r *PlanRepository) FindDay(ctx context.Context, dayID uuid.UUID) (uuid.UUID, error) {
	var day PlanDayModel
	if err := r.db.WithContext(ctx).Select("id", "plan_id").First(&day, "id = ?", dayID).Error; err != nil {
		return uuid.Nil, translate(err)
	}
	return day.PlanID, nil
}

// SavePlan writes a plan with its days and options. Used for seeding and
// imports; meal slot edits go through MealOptionRepository.
func (r *PlanRepository) SavePlan(ctx context.Context, plan *mealplan.PlanSnapshot) error {
	model := PlanToModel(plan)
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		days := model.Days
		model.Days = nil
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		for i := range days {
			options := days[i].Options
			days[i].Options = nil
			if err := tx.Create(&days[i]).Error; err != nil {
				return err
			}
			for j := range options {
				if err := insertOption(tx, &options[j]); err != nil {
					return err
				}
			}
		}
		return nil
	}))
}
