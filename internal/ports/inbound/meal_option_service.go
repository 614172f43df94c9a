package inbound

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/mealplan"
	"github.com/nutriplan/engine/internal/domain/nutrition"
)

// MealOptionService manages the options of a (day, meal type) slot
type MealOptionService interface {
	AddMealOption(ctx context.Context, cmd AddMealOptionCommand) (*MealOptionDTO, error)
	// DeleteMealOption returns the slot's remaining options after renumbering
	DeleteMealOption(ctx context.Context, cmd DeleteMealOptionCommand) ([]MealOptionDTO, error)
	ReorderMealOptions(ctx context.Context, cmd ReorderMealOptionsCommand) ([]MealOptionDTO, error)
	ListMealOptions(ctx context.Context, q ListMealOptionsQuery) ([]MealOptionDTO, error)
}

// AddMealOptionCommand fills the next position of a slot with either
// items or a recipe.
type AddMealOptionCommand struct {
	ActorID  uuid.UUID   `validate:"required"`
	DayID    uuid.UUID   `validate:"required"`
	MealType string      `validate:"required,meal_type"`
	Items    []ItemInput `validate:"omitempty,max=50,dive"`
	RecipeID *uuid.UUID
	Label    string      `validate:"max=100"`
}

// DeleteMealOptionCommand removes one option
type DeleteMealOptionCommand struct {
	ActorID  uuid.UUID `validate:"required"`
	OptionID uuid.UUID `validate:"required"`
}

// ReorderMealOptionsCommand assigns positions in the given order
type ReorderMealOptionsCommand struct {
	ActorID    uuid.UUID   `validate:"required"`
	DayID      uuid.UUID   `validate:"required"`
	MealType   string      `validate:"required,meal_type"`
	OrderedIDs []uuid.UUID `validate:"required,min=1,max=2,dive,required"`
}

// ListMealOptionsQuery lists a slot's options
type ListMealOptionsQuery struct {
	ActorID  uuid.UUID `validate:"required"`
	DayID    uuid.UUID `validate:"required"`
	MealType string    `validate:"required,meal_type"`
}

// MealOptionDTO is a persisted option with its computed totals
type MealOptionDTO struct {
	ID            uuid.UUID                `json:"id"`
	DayID         uuid.UUID                `json:"day_id"`
	MealType      mealplan.MealType        `json:"meal_type"`
	Number        int                      `json:"option_numero"`
	IsAlternative bool                     `json:"es_alternativa"`
	Label         string                   `json:"label,omitempty"`
	Items         []ItemDTO                `json:"items,omitempty"`
	RecipeID      *uuid.UUID               `json:"recipe_id,omitempty"`
	Totals        nutrition.NutrientTotals `json:"totals"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}
