package optimization

import (
	"math"
	"slices"

	"github.com/nutriplan/engine/internal/domain/nutrition"
)

// Suggestion is a food that complements a base selection
type Suggestion struct {
	Food   nutrition.FoodProfile
	Grams  float64
	Totals nutrition.NutrientTotals
	Score  float64
}

// Suggest ranks pool foods by how close base plus the food gets to the
// targets. Each food is sized to close the calorie gap within Bounds.
func (s *CombinationSearch) Suggest(base []nutrition.QuantityBinding, pool []nutrition.FoodProfile, targets nutrition.Targets, limit int) ([]Suggestion, error) {
	tracked := targets.Tracked()
	if len(tracked) == 0 {
		return nil, ErrNoTargets
	}
	if err := nutrition.ValidateAll(base); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	baseTotals := nutrition.Totals(base)
	baseFoods := make([]nutrition.FoodProfile, len(base))
	for i, b := range base {
		baseFoods[i] = b.Food
	}
	gap := targets[nutrition.Calories] - baseTotals.Calories

	out := make([]Suggestion, 0, len(pool))
	for _, food := range pool {
		if slices.ContainsFunc(baseFoods, func(f nutrition.FoodProfile) bool { return f.ID == food.ID }) {
			continue
		}

		grams := s.cfg.PortionGrams
		if gap > 0 && food.CaloriesPerGram() > 0 && targets[nutrition.Calories] > 0 {
			grams = gap / food.CaloriesPerGram()
		}
		grams = s.cfg.Bounds.Clamp(grams)

		totals := baseTotals.Add(food.Per100g.Scale(grams / 100))
		score := 0.0
		for _, n := range tracked {
			d := relativeDeviation(totals.Get(n), targets[n])
			score += s.cfg.Weights.For(n) * d * d
		}
		compat := s.checker.Check(append(slices.Clone(baseFoods), food), nil).Score
		score += s.cfg.CompatibilityPenalty * (1 - compat)

		out = append(out, Suggestion{Food: food, Grams: grams, Totals: totals, Score: score})
	}

	slices.SortFunc(out, func(a, b Suggestion) int {
		if math.Abs(a.Score-b.Score) > 1e-12 {
			if a.Score < b.Score {
				return -1
			}
			return 1
		}
		return compareFoods(a.Food, b.Food)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
