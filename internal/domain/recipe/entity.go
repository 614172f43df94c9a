// Package recipe contains the recipe aggregate used as the base for
// nutritional variations.
package recipe

import (
	"strings"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/nutrition"
)

// Recipe is a named, ordered list of quantity bindings with preparation
// metadata. Recipes are read-only inside the engine; variations are new
// recipes that remember their base.
type Recipe struct {
	id          uuid.UUID
	name        string
	items       []nutrition.QuantityBinding
	preparation Preparation
	variantOf   *uuid.UUID
}

// NewRecipe creates a Recipe with validation
func NewRecipe(id uuid.UUID, name string, items []nutrition.QuantityBinding, prep Preparation) (*Recipe, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}
	if err := prep.Validate(); err != nil {
		return nil, err
	}
	if prep.Servings == 0 {
		prep.Servings = 1
	}
	if id == uuid.Nil {
		id = uuid.New()
	}

	return &Recipe{
		id:          id,
		name:        name,
		items:       append([]nutrition.QuantityBinding(nil), items...),
		preparation: prep.clone(),
	}, nil
}

// NewVariant derives a new recipe from r with different items
func (r *Recipe) NewVariant(name string, items []nutrition.QuantityBinding) (*Recipe, error) {
	v, err := NewRecipe(uuid.New(), name, items, r.preparation)
	if err != nil {
		return nil, err
	}
	base := r.id
	v.variantOf = &base
	return v, nil
}

// Restore rebuilds a persisted recipe, keeping its variant link
func Restore(id uuid.UUID, name string, items []nutrition.QuantityBinding, prep Preparation, variantOf *uuid.UUID) (*Recipe, error) {
	r, err := NewRecipe(id, name, items, prep)
	if err != nil {
		return nil, err
	}
	if variantOf != nil {
		base := *variantOf
		r.variantOf = &base
	}
	return r, nil
}

// ID returns the recipe's unique identifier
func (r *Recipe) ID() uuid.UUID {
	return r.id
}

// Name returns the recipe's name
func (r *Recipe) Name() string {
	return r.name
}

// Items returns a copy of the ordered bindings
func (r *Recipe) Items() []nutrition.QuantityBinding {
	return append([]nutrition.QuantityBinding(nil), r.items...)
}

// Preparation returns the preparation metadata
func (r *Recipe) Preparation() Preparation {
	return r.preparation.clone()
}

// VariantOf returns the base recipe id for variations
func (r *Recipe) VariantOf() *uuid.UUID {
	return r.variantOf
}

// Foods returns the foods in item order
func (r *Recipe) Foods() []nutrition.FoodProfile {
	foods := make([]nutrition.FoodProfile, len(r.items))
	for i, item := range r.items {
		foods[i] = item.Food
	}
	return foods
}

// Grams returns the quantities in item order
func (r *Recipe) Grams() []float64 {
	grams := make([]float64, len(r.items))
	for i, item := range r.items {
		grams[i] = item.Grams
	}
	return grams
}

// Totals aggregates the recipe's nutrients
func (r *Recipe) Totals() nutrition.NutrientTotals {
	return nutrition.Totals(r.items)
}

func validateName(name string) error {
	if name == "" {
		return ErrNameRequired
	}
	if len(name) > 200 {
		return ErrNameTooLong
	}
	return nil
}

func validateItems(items []nutrition.QuantityBinding) error {
	if len(items) == 0 {
		return ErrNoItems
	}
	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
		if seen[item.Food.ID] {
			return ErrDuplicateFood
		}
		seen[item.Food.ID] = true
	}
	return nil
}
