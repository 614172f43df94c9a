package optimization

import (
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/nutrition"
)

// CatalogFilter selects the foods a search may use
type CatalogFilter struct {
	ExcludedTags      []string
	AllowedCategories []nutrition.Category
	ExcludeIDs        []uuid.UUID
}

// FilterCatalog keeps available foods in an allowed category that carry
// none of the excluded tags. The result is ordered by name, then id.
func FilterCatalog(catalog []nutrition.FoodProfile, f CatalogFilter) []nutrition.FoodProfile {
	out := make([]nutrition.FoodProfile, 0, len(catalog))
	for _, food := range catalog {
		if !food.Available {
			continue
		}
		if len(f.AllowedCategories) > 0 && !slices.Contains(f.AllowedCategories, food.Category) {
			continue
		}
		if _, excluded := food.HasAnyTag(f.ExcludedTags); excluded {
			continue
		}
		if slices.Contains(f.ExcludeIDs, food.ID) {
			continue
		}
		out = append(out, food)
	}
	slices.SortFunc(out, compareFoods)
	return out
}

func compareFoods(a, b nutrition.FoodProfile) int {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}
