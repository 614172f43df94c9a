package nutrition

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Category is the fixed food category enum
type Category string

const (
	CategoryCereals   Category = "cereales"
	CategoryDairy     Category = "lacteos"
	CategoryMeat      Category = "carnes"
	CategoryFish      Category = "pescados"
	CategoryEggs      Category = "huevos"
	CategoryLegumes   Category = "legumbres"
	CategoryVegetable Category = "verduras"
	CategoryFruit     Category = "frutas"
	CategoryFats      Category = "grasas"
	CategoryNuts      Category = "frutos_secos"
	CategoryBeverages Category = "bebidas"
	CategoryOther     Category = "otros"
)

// Categories lists every valid category
var Categories = []Category{
	CategoryCereals, CategoryDairy, CategoryMeat, CategoryFish, CategoryEggs, CategoryLegumes,
	CategoryVegetable, CategoryFruit, CategoryFats, CategoryNuts, CategoryBeverages, CategoryOther,
}

// ParseCategory validates a category name
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Categories, c) {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// FoodProfile is a catalog food with its per-100g nutrient profile.
// It is treated as immutable during an analysis call.
type FoodProfile struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Category  Category       `json:"category"`
	Per100g   NutrientTotals `json:"per_100g"`
	Tags      []string       `json:"tags,omitempty"`
	Available bool           `json:"available"`
}

// NewFoodProfile validates and normalizes a catalog food
func NewFoodProfile(id uuid.UUID, name string, category Category, per100g NutrientTotals, tags []string, available bool) (FoodProfile, error) {
	if strings.TrimSpace(name) == "" {
		return FoodProfile{}, ErrEmptyFoodName
	}
	if _, err := ParseCategory(string(category)); err != nil {
		return FoodProfile{}, err
	}
	for _, n := range AllNutrients {
		if per100g.Get(n) < 0 {
			return FoodProfile{}, fmt.Errorf("%w: %s", ErrNegativeNutrient, n)
		}
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	return FoodProfile{
		ID:        id,
		Name:      strings.TrimSpace(name),
		Category:  category,
		Per100g:   per100g,
		Tags:      NormalizeTags(tags),
		Available: available,
	}, nil
}

// HasTag reports whether the food carries the tag
func (f FoodProfile) HasTag(tag string) bool {
	return slices.Contains(f.Tags, strings.ToLower(strings.TrimSpace(tag)))
}

// HasAnyTag returns the first of tags the food carries
func (f FoodProfile) HasAnyTag(tags []string) (string, bool) {
	for _, t := range tags {
		if f.HasTag(t) {
			return strings.ToLower(strings.TrimSpace(t)), true
		}
	}
	return "", false
}

// CaloriesPerGram is the caloric density of the food
func (f FoodProfile) CaloriesPerGram() float64 {
	return f.Per100g.Calories / 100
}

// NormalizeTags lower-cases, trims, dedups and sorts tags
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return out
}
