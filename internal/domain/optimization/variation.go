package optimization

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/nutriplan/engine/internal/domain/recipe"
)

// Strategy names how a variation was produced
type Strategy string

const (
	StrategyQuantity     Strategy = "quantity"
	StrategySubstitution Strategy = "substitution"
)

// Substitution records the food swapped in a composition variation
type Substitution struct {
	From FoodRef `json:"from"`
	To   FoodRef `json:"to"`
}

// Variation is an accepted recipe variant
type Variation struct {
	Recipe       *recipe.Recipe
	Strategy     Strategy
	Substitution *Substitution
	Error        float64
	Attempts     int
}

// VariationRequest parameterizes one Generate call
type VariationRequest struct {
	Count        int
	ExcludedTags []string
}

// VariationGenerator derives nutritionally bounded variants of a recipe
type VariationGenerator struct {
	cfg       VariationConfig
	optimizer *ProportionOptimizer
	checker   *CompatibilityChecker
}

// NewVariationGenerator creates a generator
func NewVariationGenerator(cfg VariationConfig, optimizer *ProportionOptimizer, checker *CompatibilityChecker) *VariationGenerator {
	return &VariationGenerator{cfg: cfg, optimizer: optimizer, checker: checker}
}

// Generate produces up to req.Count variants. Each variant re-optimizes
// quantities against the base recipe's macro totals. Candidates that
// repeat an earlier gram vector, miss the tolerance or are incompatible
// are retried up to MaxRetries times; fewer variants may be returned.
func (g *VariationGenerator) Generate(base *recipe.Recipe, catalog []nutrition.FoodProfile, req VariationRequest, rng *rand.Rand) ([]Variation, error) {
	if req.Count <= 0 {
		return nil, ErrInvalidCount
	}

	targets := nutrition.Targets{}
	baseTotals := base.Totals()
	for _, n := range nutrition.Macronutrients {
		if v := baseTotals.Get(n); v > 0 {
			targets[n] = v
		}
	}
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	seen := map[string]bool{fingerprintItems(base.Items()): true}
	out := make([]Variation, 0, req.Count)
	for len(out) < req.Count {
		v, ok := g.attempt(base, catalog, req, targets, seen, rng, len(out)+1)
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out, nil
}

func (g *VariationGenerator) attempt(base *recipe.Recipe, catalog []nutrition.FoodProfile, req VariationRequest, targets nutrition.Targets, seen map[string]bool, rng *rand.Rand, ordinal int) (Variation, bool) {
	for attempt := 1; attempt <= g.cfg.MaxRetries; attempt++ {
		var (
			foods    []nutrition.FoodProfile
			start    []float64
			sub      *Substitution
			strategy = StrategyQuantity
		)
		if rng.Float64() < g.cfg.SubstitutionRate {
			var ok bool
			foods, start, sub, ok = g.proposeSubstitution(base, catalog, req.ExcludedTags, rng)
			if !ok {
				continue
			}
			strategy = StrategySubstitution
		} else {
			foods, start = g.proposeQuantities(base, rng)
		}

		res, err := g.optimizer.Optimize(foods, targets, start)
		if err != nil || !res.Converged {
			continue
		}
		if !g.checker.Check(foods, req.ExcludedTags).Compatible {
			continue
		}

		items := nutrition.Bind(foods, res.Quantities)
		key := fingerprintItems(items)
		if seen[key] {
			continue
		}

		variant, err := base.NewVariant(fmt.Sprintf("%s (variación %d)", base.Name(), ordinal), items)
		if err != nil {
			continue
		}
		seen[key] = true
		return Variation{Recipe: variant, Strategy: strategy, Substitution: sub, Error: res.Error, Attempts: attempt}, true
	}
	return Variation{}, false
}

// proposeQuantities perturbs every binding by a random ±[PerturbMin, PerturbMax] share
func (g *VariationGenerator) proposeQuantities(base *recipe.Recipe, rng *rand.Rand) ([]nutrition.FoodProfile, []float64) {
	grams := base.Grams()
	for i := range grams {
		delta := g.cfg.PerturbMin + rng.Float64()*(g.cfg.PerturbMax-g.cfg.PerturbMin)
		if rng.Intn(2) == 0 {
			delta = -delta
		}
		grams[i] = g.optimizer.cfg.Bounds.Clamp(grams[i] * (1 + delta))
	}
	return base.Foods(), grams
}

// proposeSubstitution swaps one random food for a same-category food that
// passes the catalog filter and is compatible with the rest.
func (g *VariationGenerator) proposeSubstitution(base *recipe.Recipe, catalog []nutrition.FoodProfile, excluded []string, rng *rand.Rand) ([]nutrition.FoodProfile, []float64, *Substitution, bool) {
	foods := base.Foods()
	grams := base.Grams()
	idx := rng.Intn(len(foods))
	replaced := foods[idx]

	ids := make([]uuid.UUID, len(foods))
	for i, f := range foods {
		ids[i] = f.ID
	}
	pool := FilterCatalog(catalog, CatalogFilter{
		ExcludedTags:      excluded,
		AllowedCategories: []nutrition.Category{replaced.Category},
		ExcludeIDs:        ids,
	})
	pool = slices.DeleteFunc(pool, func(candidate nutrition.FoodProfile) bool {
		trial := slices.Clone(foods)
		trial[idx] = candidate
		return !g.checker.Check(trial, excluded).Compatible
	})
	if len(pool) == 0 {
		return nil, nil, nil, false
	}

	substitute := pool[rng.Intn(len(pool))]
	foods[idx] = substitute
	if substitute.CaloriesPerGram() > 0 && replaced.CaloriesPerGram() > 0 {
		grams[idx] = g.optimizer.cfg.Bounds.Clamp(grams[idx] * replaced.CaloriesPerGram() / substitute.CaloriesPerGram())
	}
	return foods, grams, &Substitution{From: refOf(replaced), To: refOf(substitute)}, true
}

// fingerprintItems identifies a food and gram vector at 0.1 g resolution
func fingerprintItems(items []nutrition.QuantityBinding) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprintf("%s:%.0f", item.Food.ID, math.Round(item.Grams*10))
	}
	slices.Sort(parts)
	return strings.Join(parts, ",")
}
