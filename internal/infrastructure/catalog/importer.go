// Package catalog imports food catalogs from provider JSON documents
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/nutriplan/engine/internal/ports/outbound"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// ErrInvalidDocument is returned for input that is not a JSON catalog
var ErrInvalidDocument = errors.New("invalid catalog document")

// foodNamespace seeds ids for foods that arrive without one, so a
// re-import updates instead of duplicating.
var foodNamespace = uuid.MustParse("3b1f0c52-8a57-4d0e-9a55-5a3a3c0f6e21")

// nutrientAliases maps provider field names to nutrients
var nutrientAliases = map[string]nutrition.Nutrient{
	"calories":      nutrition.Calories,
	"energy_kcal":   nutrition.Calories,
	"kcal":          nutrition.Calories,
	"calorias":      nutrition.Calories,
	"protein":       nutrition.Protein,
	"proteins":      nutrition.Protein,
	"proteinas":     nutrition.Protein,
	"carbohydrate":  nutrition.Carbohydrate,
	"carbohydrates": nutrition.Carbohydrate,
	"carbohidratos": nutrition.Carbohydrate,
	"fat":           nutrition.Fat,
	"fat_total":     nutrition.Fat,
	"grasas":        nutrition.Fat,
	"fiber":         nutrition.Fiber,
	"fibra":         nutrition.Fiber,
	"sugar":         nutrition.Sugar,
	"sugars":        nutrition.Sugar,
	"azucares":      nutrition.Sugar,
	"sodium":        nutrition.Sodium,
	"sodio":         nutrition.Sodium,
	"potassium":     nutrition.Potassium,
	"potasio":       nutrition.Potassium,
	"calcium":       nutrition.Calcium,
	"calcio":        nutrition.Calcium,
	"iron":          nutrition.Iron,
	"hierro":        nutrition.Iron,
	"vitamin_a":     nutrition.VitaminA,
	"vitamina_a":    nutrition.VitaminA,
	"vitamin_c":     nutrition.VitaminC,
	"vitamina_c":    nutrition.VitaminC,
}

// Result summarizes one import
type Result struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Problems []string `json:"problems,omitempty"`
}

// Importer converts provider JSON into catalog foods
type Importer struct {
	catalog outbound.FoodCatalog
	logger  *zap.Logger
}

// NewImporter creates an importer writing to catalog
func NewImporter(catalog outbound.FoodCatalog, logger *zap.Logger) *Importer {
	return &Importer{catalog: catalog, logger: logger.Named("catalog-importer")}
}

// Import parses the document and upserts every valid food. The document
// is either an array of foods or an object with a "foods" array.
// Nutrients are per 100 g unless the food declares serving_size_g, in
// which case they are per serving and get rescaled.
func (i *Importer) Import(ctx context.Context, doc []byte) (*Result, error) {
	foods, result, err := Parse(doc)
	if err != nil {
		return nil, err
	}
	for _, p := range result.Problems {
		i.logger.Warn("Catalog entry skipped", zap.String("reason", p))
	}
	if len(foods) > 0 {
		if err := i.catalog.UpsertFoods(ctx, foods); err != nil {
			return nil, fmt.Errorf("failed to store foods: %w", err)
		}
	}
	i.logger.Info("Catalog imported",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// Parse converts a document into foods without storing them
func Parse(doc []byte) ([]nutrition.FoodProfile, *Result, error) {
	if !gjson.ValidBytes(doc) {
		return nil, nil, ErrInvalidDocument
	}
	root := gjson.ParseBytes(doc)
	list := root
	if root.IsObject() {
		list = root.Get("foods")
	}
	if !list.IsArray() {
		return nil, nil, fmt.Errorf("%w: expected an array of foods", ErrInvalidDocument)
	}

	result := &Result{}
	var foods []nutrition.FoodProfile
	list.ForEach(func(key, entry gjson.Result) bool {
		food, err := parseFood(entry)
		if err != nil {
			result.Skipped++
			result.Problems = append(result.Problems, fmt.Sprintf("entry %d: %v", key.Int(), err))
			return true
		}
		foods = append(foods, food)
		result.Imported++
		return true
	})
	return foods, result, nil
}

func parseFood(entry gjson.Result) (nutrition.FoodProfile, error) {
	if !entry.IsObject() {
		return nutrition.FoodProfile{}, errors.New("not an object")
	}
	name := strings.TrimSpace(entry.Get("name").String())
	category, err := nutrition.ParseCategory(entry.Get("category").String())
	if err != nil {
		return nutrition.FoodProfile{}, err
	}

	var per100g nutrition.NutrientTotals
	var parseErr error
	entry.Get("nutrients").ForEach(func(k, v gjson.Result) bool {
		n, ok := nutrientAliases[strings.ToLower(k.String())]
		if !ok {
			return true
		}
		if v.Type != gjson.Number {
			parseErr = fmt.Errorf("nutrient %s is not a number", k.String())
			return false
		}
		per100g = per100g.With(n, v.Float())
		return true
	})
	if parseErr != nil {
		return nutrition.FoodProfile{}, parseErr
	}

	if serving := entry.Get("serving_size_g"); serving.Exists() {
		g := serving.Float()
		if g <= 0 {
			return nutrition.FoodProfile{}, fmt.Errorf("serving_size_g must be positive, got %v", g)
		}
		per100g = per100g.Scale(100 / g)
	}

	id := uuid.NewSHA1(foodNamespace, []byte(strings.ToLower(name)+"|"+string(category)))
	if raw := entry.Get("id"); raw.Exists() {
		parsed, err := uuid.Parse(raw.String())
		if err != nil {
			return nutrition.FoodProfile{}, fmt.Errorf("invalid id %q", raw.String())
		}
		id = parsed
	}

	var tags []string
	entry.Get("tags").ForEach(func(_, t gjson.Result) bool {
		tags = append(tags, t.String())
		return true
	})

	available := true
	if a := entry.Get("available"); a.Exists() {
		available = a.Bool()
	}

	return nutrition.NewFoodProfile(id, name, category, per100g, tags, available)
}
