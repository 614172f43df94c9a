package nutrition

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type AggregatorTestSuite struct {
	suite.Suite
	avena FoodProfile
	leche FoodProfile
}

func (s *AggregatorTestSuite) SetupTest() {
	var err error
	s.avena, err = NewFoodProfile(uuid.New(), "Avena", CategoryCereals,
		NutrientTotals{Calories: 389, Protein: 16.9, Carbohydrate: 66.3, Fat: 6.9, Fiber: 10.6}, []string{"Gluten"}, true)
	s.Require().NoError(err)
	s.leche, err = NewFoodProfile(uuid.New(), "Leche", CategoryDairy,
		NutrientTotals{Calories: 61, Protein: 3.2, Carbohydrate: 4.8, Fat: 3.3, Calcium: 113}, []string{"lactosa"}, true)
	s.Require().NoError(err)
}

func TestAggregatorTestSuite(t *testing.T) {
	suite.Run(t, new(AggregatorTestSuite))
}

func (s *AggregatorTestSuite) TestTotals() {
	s.Run("OatsWithMilk_ShouldSumScaledProfiles", func() {
		// Arrange
		items := []QuantityBinding{
			{Food: s.avena, Grams: 50},
			{Food: s.leche, Grams: 200},
		}

		// Act
		totals := Totals(items)

		// Assert
		s.InDelta(316.5, totals.Calories, 1e-9)
		s.InDelta(14.85, totals.Protein, 1e-9)
		s.InDelta(42.75, totals.Carbohydrate, 1e-9)
		s.InDelta(10.05, totals.Fat, 1e-9)
		s.InDelta(5.3, totals.Fiber, 1e-9)
		s.InDelta(226, totals.Calcium, 1e-9)
	})

	s.Run("EmptyList_ShouldYieldZero", func() {
		s.True(Totals(nil).IsZero())
	})

	s.Run("ScaledGrams_ShouldScaleTotalsLinearly", func() {
		base := []QuantityBinding{{Food: s.avena, Grams: 37.5}, {Food: s.leche, Grams: 180}}
		for _, factor := range []float64{0.1, 0.5, 1, 2.75, 13} {
			scaled := make([]QuantityBinding, len(base))
			for i, b := range base {
				scaled[i] = QuantityBinding{Food: b.Food, Grams: b.Grams * factor}
			}

			want := Totals(base).Scale(factor)
			got := Totals(scaled)
			for _, n := range AllNutrients {
				s.InDelta(want.Get(n), got.Get(n), 1e-6, "nutrient %s at factor %v", n, factor)
			}
		}
	})
}

func (s *AggregatorTestSuite) TestQuantityBinding() {
	s.Run("NonPositiveGrams_ShouldFail", func() {
		for _, g := range []float64{0, -10} {
			_, err := NewQuantityBinding(s.avena, g)
			s.ErrorIs(err, ErrInvalidGrams)
		}
	})

	s.Run("PositiveGrams_ShouldBind", func() {
		b, err := NewQuantityBinding(s.leche, 250)
		s.Require().NoError(err)
		s.InDelta(152.5, b.Contribution().Calories, 1e-9)
	})
}

func TestRoundedAppliesPresentationPolicy(t *testing.T) {
	totals := NutrientTotals{Calories: 316.5, Protein: 14.84, Carbohydrate: 42.75, Fat: 10.04, Sodium: 0.06}

	rounded := totals.Rounded()

	assert.Equal(t, 317.0, rounded.Calories)
	assert.Equal(t, 14.8, rounded.Protein)
	assert.Equal(t, 42.8, rounded.Carbohydrate)
	assert.Equal(t, 10.0, rounded.Fat)
	assert.Equal(t, 0.1, rounded.Sodium)
	assert.Equal(t, 316.5, totals.Calories, "rounding must not mutate the source")
}

func TestNewFoodProfileValidation(t *testing.T) {
	_, err := NewFoodProfile(uuid.New(), "Pan", Category("panaderia"), NutrientTotals{Calories: 250}, nil, true)
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = NewFoodProfile(uuid.New(), "  ", CategoryCereals, NutrientTotals{}, nil, true)
	assert.ErrorIs(t, err, ErrEmptyFoodName)

	_, err = NewFoodProfile(uuid.New(), "Sal", CategoryOther, NutrientTotals{Sodium: -1}, nil, true)
	assert.ErrorIs(t, err, ErrNegativeNutrient)

	food, err := NewFoodProfile(uuid.Nil, "Nueces", CategoryNuts, NutrientTotals{Calories: 654}, []string{" Frutos-Secos", "frutos-secos", "ARBOL"}, true)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, food.ID)
	assert.Equal(t, []string{"arbol", "frutos-secos"}, food.Tags)
	assert.True(t, food.HasTag("Frutos-Secos"))
}

func TestParseNutrientAndMap(t *testing.T) {
	n, err := ParseNutrient("vitamin_c")
	require.NoError(t, err)
	assert.Equal(t, VitaminC, n)

	_, err = ParseNutrient("zinc")
	assert.ErrorIs(t, err, ErrUnknownNutrient)

	totals := FromMap(map[Nutrient]float64{Calories: 2000, Protein: 90})
	assert.Equal(t, 2000.0, totals.Calories)
	assert.Equal(t, 90.0, totals.Map()[Protein])
}
