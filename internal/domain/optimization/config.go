package optimization

import (
	"fmt"

	"github.com/nutriplan/engine/internal/domain/nutrition"
)

// Weights scale each macro's squared relative deviation in search scores.
// Nutrients without a weight count once.
type Weights struct {
	Calories     float64 `mapstructure:"calories"`
	Protein      float64 `mapstructure:"protein"`
	Carbohydrate float64 `mapstructure:"carbohydrate"`
	Fat          float64 `mapstructure:"fat"`
}

// DefaultWeights favors calories and protein 2:2:1:1
func DefaultWeights() Weights {
	return Weights{Calories: 2, Protein: 2, Carbohydrate: 1, Fat: 1}
}

// For returns the weight of a nutrient
func (w Weights) For(n nutrition.Nutrient) float64 {
	switch n {
	case nutrition.Calories:
		return w.Calories
	case nutrition.Protein:
		return w.Protein
	case nutrition.Carbohydrate:
		return w.Carbohydrate
	case nutrition.Fat:
		return w.Fat
	}
	return 1
}

// Bounds limits the grams assigned to one food
type Bounds struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

// DefaultBounds is 10 g to 500 g
func DefaultBounds() Bounds {
	return Bounds{Min: 10, Max: 500}
}

// Validate checks 0 < min < max
func (b Bounds) Validate() error {
	if !(b.Min > 0) || !(b.Max > b.Min) {
		return fmt.Errorf("%w: got [%v, %v]", ErrInvalidBounds, b.Min, b.Max)
	}
	return nil
}

// Clamp limits g to the bounds
func (b Bounds) Clamp(g float64) float64 {
	if g < b.Min {
		return b.Min
	}
	if g > b.Max {
		return b.Max
	}
	return g
}

// SearchConfig tunes CombinationSearch
type SearchConfig struct {
	Weights              Weights
	CompatibilityPenalty float64
	MaxIterations        int
	PortionGrams         float64
	Tolerance            float64
	Bounds               Bounds
	RestartFactor        int
}

// DefaultSearchConfig returns the standard search tuning
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Weights:              DefaultWeights(),
		CompatibilityPenalty: 1,
		MaxIterations:        200,
		PortionGrams:         100,
		Tolerance:            0.05,
		Bounds:               DefaultBounds(),
		RestartFactor:        4,
	}
}

// ProportionConfig tunes ProportionOptimizer
type ProportionConfig struct {
	Bounds        Bounds
	Tolerance     float64
	MaxIterations int
}

// DefaultProportionConfig returns bounds 10-500 g, 5% tolerance, 50 iterations
func DefaultProportionConfig() ProportionConfig {
	return ProportionConfig{Bounds: DefaultBounds(), Tolerance: 0.05, MaxIterations: 50}
}

// VariationConfig tunes RecipeVariationGenerator
type VariationConfig struct {
	SubstitutionRate float64
	PerturbMin       float64
	PerturbMax       float64
	MaxRetries       int
}

// DefaultVariationConfig perturbs by 5-15% and substitutes half the time
func DefaultVariationConfig() VariationConfig {
	return VariationConfig{SubstitutionRate: 0.5, PerturbMin: 0.05, PerturbMax: 0.15, MaxRetries: 10}
}

func relativeDeviation(actual, target float64) float64 {
	if target == 0 {
		return 0
	}
	return (actual - target) / target
}
