// Package mealplan models plans, days and the meal option slots that a
// nutritionist fills with food lists or recipes.
package mealplan

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/nutriplan/engine/internal/domain/recipe"
)

// OptionPayload is the content of a meal option: either an ordered item
// list or a recipe reference.
type OptionPayload struct {
	Items    []nutrition.QuantityBinding
	RecipeID *uuid.UUID
}

// Validate enforces that exactly one payload form is present
func (p OptionPayload) Validate() error {
	hasItems := len(p.Items) > 0
	hasRecipe := p.RecipeID != nil && *p.RecipeID != uuid.Nil
	if hasItems == hasRecipe {
		return ErrInvalidPayload
	}
	return nutrition.ValidateAll(p.Items)
}

// MealOption is one selectable proposal occupying position 1 or 2 of a
// (day, meal type) slot.
type MealOption struct {
	ID            uuid.UUID
	DayID         uuid.UUID
	MealType      MealType
	Number        int
	IsAlternative bool
	Label         string
	LabelAuto     bool // label is system-managed and follows the position
	Items         []nutrition.QuantityBinding
	RecipeID      *uuid.UUID
	Recipe        *recipe.Recipe
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AutoLabel is the generated label for a position; the first option has none
func AutoLabel(number int) string {
	if number <= 1 {
		return ""
	}
	return fmt.Sprintf("Opción %d", number)
}

// Bindings returns the option's items, resolving a recipe when loaded
func (o *MealOption) Bindings() []nutrition.QuantityBinding {
	if len(o.Items) > 0 {
		return o.Items
	}
	if o.Recipe != nil {
		return o.Recipe.Items()
	}
	return nil
}

// Totals aggregates the option's nutrients
func (o *MealOption) Totals() nutrition.NutrientTotals {
	return nutrition.Totals(o.Bindings())
}

// place moves the option to a position. System-managed labels follow the
// position; explicit labels are kept.
func (o *MealOption) place(number int, now time.Time) bool {
	label := o.Label
	if o.LabelAuto {
		label = AutoLabel(number)
	}
	alt := number > 1
	if o.Number == number && o.IsAlternative == alt && o.Label == label {
		return false
	}
	o.Number = number
	o.IsAlternative = alt
	o.Label = label
	o.UpdatedAt = now
	return true
}
