package testutils

import (
	"testing"

	"github.com/nutriplan/engine/internal/domain/mealplan"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	apperrors "github.com/nutriplan/engine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertTotalsInDelta compares every nutrient within delta
func AssertTotalsInDelta(t *testing.T, want, got nutrition.NutrientTotals, delta float64) {
	t.Helper()
	for _, n := range nutrition.AllNutrients {
		assert.InDelta(t, want.Get(n), got.Get(n), delta, "nutrient %s", n)
	}
}

// AssertErrorCode asserts err carries the application error code
func AssertErrorCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperrors.GetCode(err), "unexpected error: %v", err)
}

// AssertSlotNumbers asserts options are numbered 1..n with only the first primary
func AssertSlotNumbers(t *testing.T, options []*mealplan.MealOption) {
	t.Helper()
	for i, o := range options {
		assert.Equal(t, i+1, o.Number, "option %s", o.ID)
		assert.Equal(t, i > 0, o.IsAlternative, "option %s", o.ID)
	}
}
