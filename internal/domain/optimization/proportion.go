package optimization

import (
	"fmt"
	"math"

	"github.com/nutriplan/engine/internal/domain/nutrition"
)

// ProportionResult is the best iterate found by the optimizer. Warning is
// ErrUnresolvableTarget when Error stayed above tolerance.
type ProportionResult struct {
	Quantities []float64
	Achieved   nutrition.NutrientTotals
	Deviations map[nutrition.Nutrient]float64
	Error      float64
	Iterations int
	Converged  bool
	Warning    error
}

// ProportionOptimizer assigns gram quantities to a fixed food list by
// iterative proportional scaling.
type ProportionOptimizer struct {
	cfg ProportionConfig
}

// NewProportionOptimizer creates an optimizer with the given tuning
func NewProportionOptimizer(cfg ProportionConfig) *ProportionOptimizer {
	return &ProportionOptimizer{cfg: cfg}
}

// Config returns the optimizer tuning
func (o *ProportionOptimizer) Config() ProportionConfig {
	return o.cfg
}

type iterate struct {
	grams      []float64
	achieved   nutrition.NutrientTotals
	deviations map[nutrition.Nutrient]float64
	worst      nutrition.Nutrient
	err        float64
}

// Optimize fits grams so the aggregated foods approach targets. start
// overrides the calorie-share initialization when non-nil.
func (o *ProportionOptimizer) Optimize(foods []nutrition.FoodProfile, targets nutrition.Targets, start []float64) (ProportionResult, error) {
	if len(foods) == 0 {
		return ProportionResult{}, ErrNoFoods
	}
	if err := o.cfg.Bounds.Validate(); err != nil {
		return ProportionResult{}, err
	}
	if err := targets.Validate(); err != nil {
		return ProportionResult{}, err
	}
	tracked := targets.Tracked()
	if len(tracked) == 0 {
		return ProportionResult{}, ErrNoTargets
	}
	if start != nil && len(start) != len(foods) {
		return ProportionResult{}, fmt.Errorf("%w: %d quantities for %d foods", ErrStartMismatch, len(start), len(foods))
	}

	grams := o.initial(foods, targets, start)
	current := o.evaluate(foods, grams, targets, tracked)
	best := current
	iterations := 0

	for iterations < o.cfg.MaxIterations && current.err > o.cfg.Tolerance {
		next, moved := o.step(foods, current, targets)
		if !moved {
			break
		}
		iterations++
		current = o.evaluate(foods, next, targets, tracked)
		if current.err < best.err {
			best = current
		}
	}

	result := ProportionResult{
		Quantities: best.grams,
		Achieved:   best.achieved,
		Deviations: best.deviations,
		Error:      best.err,
		Iterations: iterations,
		Converged:  best.err <= o.cfg.Tolerance,
	}
	if !result.Converged {
		result.Warning = ErrUnresolvableTarget
	}
	return result, nil
}

// initial gives every food an equal share of the calorie target
func (o *ProportionOptimizer) initial(foods []nutrition.FoodProfile, targets nutrition.Targets, start []float64) []float64 {
	grams := make([]float64, len(foods))
	share := targets[nutrition.Calories] / float64(len(foods))
	for i, f := range foods {
		switch {
		case start != nil:
			grams[i] = start[i]
		case share > 0 && f.CaloriesPerGram() > 0:
			grams[i] = share / f.CaloriesPerGram()
		default:
			grams[i] = 100
		}
		grams[i] = o.cfg.Bounds.Clamp(grams[i])
	}
	return grams
}

func (o *ProportionOptimizer) evaluate(foods []nutrition.FoodProfile, grams []float64, targets nutrition.Targets, tracked []nutrition.Nutrient) iterate {
	it := iterate{
		grams:      grams,
		achieved:   nutrition.Totals(nutrition.Bind(foods, grams)),
		deviations: make(map[nutrition.Nutrient]float64, len(tracked)),
	}
	for _, n := range tracked {
		d := relativeDeviation(it.achieved.Get(n), targets[n])
		it.deviations[n] = d
		if it.worst == "" || math.Abs(d) > it.err {
			it.worst, it.err = n, math.Abs(d)
		}
	}
	return it
}

// step corrects the worst nutrient: each food is scaled by
// (target/achieved)^share, share being its contribution to that nutrient.
func (o *ProportionOptimizer) step(foods []nutrition.FoodProfile, it iterate, targets nutrition.Targets) ([]float64, bool) {
	n := it.worst
	achieved := it.achieved.Get(n)
	if achieved <= 0 {
		return nil, false
	}
	ratio := targets[n] / achieved

	next := make([]float64, len(it.grams))
	moved := false
	for i, f := range foods {
		share := f.Per100g.Get(n) * it.grams[i] / 100 / achieved
		next[i] = o.cfg.Bounds.Clamp(it.grams[i] * math.Pow(ratio, share))
		if math.Abs(next[i]-it.grams[i]) > 1e-9 {
			moved = true
		}
	}
	return next, moved
}
