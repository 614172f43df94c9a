package optimization

import (
	"math"
	"testing"

	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizeRoundTrip(t *testing.T) {
	catalog := newCatalog()
	optimizer := NewProportionOptimizer(DefaultProportionConfig())
	foods := catalog.pick("Pollo", "Arroz", "Aceite de oliva")
	targets := nutrition.TargetsFrom(nutrition.Totals(nutrition.Bind(foods, []float64{150, 200, 10})))

	result, err := optimizer.Optimize(foods, targets, nil)

	require.NoError(t, err)
	assert.True(t, result.Converged)
	assert.Nil(t, result.Warning)
	assert.LessOrEqual(t, result.Error, 0.05)
	assert.Greater(t, result.Iterations, 0)

	achieved := nutrition.Totals(nutrition.Bind(foods, result.Quantities))
	for _, n := range targets.Tracked() {
		assert.LessOrEqual(t, math.Abs(achieved.Get(n)-targets[n])/targets[n], 0.05, "nutrient %s", n)
	}
	for _, g := range result.Quantities {
		assert.GreaterOrEqual(t, g, 10.0)
		assert.LessOrEqual(t, g, 500.0)
	}
}

func TestOptimizeInitialSplitAlreadyOnTarget(t *testing.T) {
	catalog := newCatalog()
	optimizer := NewProportionOptimizer(DefaultProportionConfig())

	result, err := optimizer.Optimize(catalog.pick("Avena"), nutrition.Targets{nutrition.Calories: 389}, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, result.Iterations)
	assert.InDelta(t, 100, result.Quantities[0], 1e-9)
	assert.True(t, result.Converged)
}

func TestOptimizeKeepsStartWithinTolerance(t *testing.T) {
	catalog := newCatalog()
	optimizer := NewProportionOptimizer(DefaultProportionConfig())
	foods := catalog.pick("Pollo", "Arroz", "Aceite de oliva")
	start := []float64{150, 200, 10}
	targets := nutrition.TargetsFrom(nutrition.Totals(nutrition.Bind(foods, start)))

	result, err := optimizer.Optimize(foods, targets, start)

	require.NoError(t, err)
	assert.Equal(t, start, result.Quantities)
	assert.InDelta(t, 0, result.Error, 1e-9)
}

func TestOptimizeInfeasibleReturnsBestIterate(t *testing.T) {
	catalog := newCatalog()
	optimizer := NewProportionOptimizer(DefaultProportionConfig())

	result, err := optimizer.Optimize(catalog.pick("Arroz"),
		nutrition.Targets{nutrition.Protein: 100, nutrition.Carbohydrate: 10}, nil)

	require.NoError(t, err)
	assert.False(t, result.Converged)
	assert.ErrorIs(t, result.Warning, ErrUnresolvableTarget)
	assert.Greater(t, result.Error, 0.05)
	assert.LessOrEqual(t, result.Iterations, 50)
	assert.GreaterOrEqual(t, result.Quantities[0], 10.0)
	assert.LessOrEqual(t, result.Quantities[0], 500.0)

	achieved := nutrition.Totals(nutrition.Bind(catalog.pick("Arroz"), result.Quantities))
	worst := math.Max(math.Abs(achieved.Protein-100)/100, math.Abs(achieved.Carbohydrate-10)/10)
	assert.InDelta(t, worst, result.Error, 1e-9)
}

func TestOptimizeClampsToBounds(t *testing.T) {
	catalog := newCatalog()
	optimizer := NewProportionOptimizer(DefaultProportionConfig())

	result, err := optimizer.Optimize(catalog.pick("Aceite de oliva"), nutrition.Targets{nutrition.Calories: 10000}, nil)

	require.NoError(t, err)
	assert.Equal(t, 500.0, result.Quantities[0])
	assert.False(t, result.Converged)
}

func TestOptimizeRejectsBadInput(t *testing.T) {
	catalog := newCatalog()
	optimizer := NewProportionOptimizer(DefaultProportionConfig())
	foods := catalog.pick("Pollo")

	_, err := optimizer.Optimize(nil, nutrition.Targets{nutrition.Calories: 100}, nil)
	assert.ErrorIs(t, err, ErrNoFoods)

	_, err = optimizer.Optimize(foods, nutrition.Targets{}, nil)
	assert.ErrorIs(t, err, ErrNoTargets)

	_, err = optimizer.Optimize(foods, nutrition.Targets{nutrition.Calories: 100}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrStartMismatch)

	_, err = optimizer.Optimize(foods, nutrition.Targets{nutrition.Calories: -1}, nil)
	assert.ErrorIs(t, err, nutrition.ErrNegativeNutrient)

	bad := NewProportionOptimizer(ProportionConfig{Bounds: Bounds{Min: 50, Max: 20}, Tolerance: 0.05, MaxIterations: 50})
	_, err = bad.Optimize(foods, nutrition.Targets{nutrition.Calories: 100}, nil)
	assert.ErrorIs(t, err, ErrInvalidBounds)
}
