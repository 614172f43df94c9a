package catalog_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/nutriplan/engine/internal/infrastructure/catalog"
	"github.com/nutriplan/engine/internal/infrastructure/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const providerDoc = `{
  "source": "test-provider",
  "foods": [
    {
      "name": "Avena",
      "category": "cereales",
      "serving_size_g": 40,
      "nutrients": {"energy_kcal": 150, "proteins": 5.2, "carbohydrates": 27, "fat_total": 2.8, "unknown_field": 9},
      "tags": ["Gluten", " desayuno "]
    },
    {
      "id": "7f0c6f0e-9c55-4f53-9d0b-2b8b0b1c4a10",
      "name": "Leche descremada",
      "category": "LACTEOS",
      "nutrients": {"calorias": 35, "proteinas": 3.4, "carbohidratos": 5, "grasas": 0.1, "calcio": 120},
      "available": false
    },
    {"name": "Sin categoria", "category": "plasticos", "nutrients": {"kcal": 1}},
    {"name": "Porcion rota", "category": "frutas", "serving_size_g": 0, "nutrients": {"kcal": 1}},
    {"name": "", "category": "frutas", "nutrients": {"kcal": 1}},
    {"name": "Texto", "category": "frutas", "nutrients": {"kcal": "mucho"}}
  ]
}`

func TestParseRescalesServingsAndSkipsBadEntries(t *testing.T) {
	foods, result, err := catalog.Parse([]byte(providerDoc))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 4, result.Skipped)
	assert.Len(t, result.Problems, 4)
	require.Len(t, foods, 2)

	oats := foods[0]
	assert.Equal(t, "Avena", oats.Name)
	assert.Equal(t, nutrition.CategoryCereals, oats.Category)
	assert.InDelta(t, 375, oats.Per100g.Calories, 1e-9)
	assert.InDelta(t, 13, oats.Per100g.Protein, 1e-9)
	assert.InDelta(t, 67.5, oats.Per100g.Carbohydrate, 1e-9)
	assert.InDelta(t, 7, oats.Per100g.Fat, 1e-9)
	assert.Equal(t, []string{"desayuno", "gluten"}, oats.Tags)
	assert.True(t, oats.Available)

	milk := foods[1]
	assert.Equal(t, uuid.MustParse("7f0c6f0e-9c55-4f53-9d0b-2b8b0b1c4a10"), milk.ID)
	assert.Equal(t, nutrition.CategoryDairy, milk.Category)
	assert.InDelta(t, 35, milk.Per100g.Calories, 1e-9)
	assert.InDelta(t, 120, milk.Per100g.Calcium, 1e-9)
	assert.False(t, milk.Available)
}

func TestParseAcceptsBareArray(t *testing.T) {
	foods, result, err := catalog.Parse([]byte(`[{"name":"Manzana","category":"frutas","nutrients":{"calories":52}}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, foods, 1)
	assert.InDelta(t, 52, foods[0].Per100g.Calories, 1e-9)
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	for name, doc := range map[string]string{
		"malformed":   `{"foods": [`,
		"no foods":    `{"items": []}`,
		"scalar root": `42`,
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := catalog.Parse([]byte(doc))
			assert.ErrorIs(t, err, catalog.ErrInvalidDocument)
		})
	}
}

func TestImportIsIdempotentForGeneratedIDs(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	importer := catalog.NewImporter(store, zap.NewNop())

	first, err := importer.Import(ctx, []byte(providerDoc))
	require.NoError(t, err)
	assert.Equal(t, 2, first.Imported)

	_, err = importer.Import(ctx, []byte(providerDoc))
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}
