package optimization

import (
	"testing"

	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompatibilityCheck(t *testing.T) {
	catalog := newCatalog()
	checker := NewCompatibilityChecker(DefaultConflictRules())

	t.Run("excluded tag marks every pair with the food", func(t *testing.T) {
		report := checker.Check(catalog.pick("Leche", "Avena", "Manzana"), []string{"LACTOSA"})

		assert.False(t, report.Compatible)
		assert.Equal(t, 3, report.TotalPairs)
		require.Len(t, report.Conflicts, 2)
		assert.Equal(t, "Leche", report.Conflicts[0].FoodA.Name)
		require.Len(t, report.Excluded, 1)
		assert.Equal(t, "Leche", report.Excluded[0].Name)
		assert.InDelta(t, 1.0/3, report.Score, 1e-9)
	})

	t.Run("conflict rule matches either order", func(t *testing.T) {
		report := checker.Check(catalog.pick("Naranja", "Manzana", "Leche"), nil)

		assert.False(t, report.Compatible)
		require.Len(t, report.Conflicts, 1)
		assert.Equal(t, "lácteo combinado con cítrico", report.Conflicts[0].Reason)
		assert.InDelta(t, 2.0/3, report.Score, 1e-9)
	})

	t.Run("compatible set scores one", func(t *testing.T) {
		report := checker.Check(catalog.pick("Pollo", "Arroz", "Brócoli"), []string{"gluten"})

		assert.True(t, report.Compatible)
		assert.Empty(t, report.Conflicts)
		assert.Equal(t, 1.0, report.Score)
	})

	t.Run("single excluded food is incompatible without pairs", func(t *testing.T) {
		report := checker.Check(catalog.pick("Avena"), []string{"gluten"})

		assert.False(t, report.Compatible)
		assert.Equal(t, 0, report.TotalPairs)
		assert.Equal(t, 1.0, report.Score)
	})
}

func TestConflictRuleNeedsAConstraintPerSide(t *testing.T) {
	catalog := newCatalog()
	rule := ConflictRule{CategoryA: nutrition.CategoryFish, Reason: "vacía"}

	assert.False(t, rule.Matches(catalog["Salmón"], catalog["Arroz"]))

	rule.CategoryB = nutrition.CategoryDairy
	assert.True(t, rule.Matches(catalog["Yogur"], catalog["Salmón"]))
}

func TestFilterCatalog(t *testing.T) {
	catalog := newCatalog()

	pool := FilterCatalog(catalog.all(), CatalogFilter{
		ExcludedTags:      []string{"lactosa"},
		AllowedCategories: []nutrition.Category{nutrition.CategoryCereals, nutrition.CategoryDairy},
		ExcludeIDs:        nil,
	})

	names := make([]string, len(pool))
	for i, f := range pool {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"Arroz", "Avena", "Quinoa"}, names)
}
