package recipe

import (
	"testing"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/stretchr/testify/suite"
)

type RecipeTestSuite struct {
	suite.Suite
	arroz nutrition.FoodProfile
	pollo nutrition.FoodProfile
}

func (s *RecipeTestSuite) SetupTest() {
	s.arroz = nutrition.FoodProfile{ID: uuid.New(), Name: "Arroz", Category: nutrition.CategoryCereals,
		Per100g: nutrition.NutrientTotals{Calories: 130, Protein: 2.7, Carbohydrate: 28, Fat: 0.3}, Available: true}
	s.pollo = nutrition.FoodProfile{ID: uuid.New(), Name: "Pollo", Category: nutrition.CategoryMeat,
		Per100g: nutrition.NutrientTotals{Calories: 165, Protein: 31, Fat: 3.6}, Available: true}
}

func TestRecipeTestSuite(t *testing.T) {
	suite.Run(t, new(RecipeTestSuite))
}

func (s *RecipeTestSuite) TestNewRecipe() {
	s.Run("ValidInput_ShouldCreateRecipe", func() {
		// Arrange
		items := []nutrition.QuantityBinding{{Food: s.arroz, Grams: 150}, {Food: s.pollo, Grams: 120}}

		// Act
		r, err := NewRecipe(uuid.Nil, "  Arroz con pollo ", items, Preparation{PrepMinutes: 10, CookMinutes: 25})

		// Assert
		s.Require().NoError(err)
		s.NotEqual(uuid.Nil, r.ID())
		s.Equal("Arroz con pollo", r.Name())
		s.Equal(1, r.Preparation().Servings)
		s.Equal(35, r.Preparation().TotalMinutes())
		s.Equal([]float64{150, 120}, r.Grams())
		s.InDelta(195+198, r.Totals().Calories, 1e-9)
		s.Nil(r.VariantOf())
	})

	s.Run("NoItems_ShouldFail", func() {
		_, err := NewRecipe(uuid.New(), "Vacía", nil, Preparation{})
		s.ErrorIs(err, ErrNoItems)
	})

	s.Run("NonPositiveGrams_ShouldFail", func() {
		_, err := NewRecipe(uuid.New(), "Arroz", []nutrition.QuantityBinding{{Food: s.arroz, Grams: 0}}, Preparation{})
		s.ErrorIs(err, nutrition.ErrInvalidGrams)
	})

	s.Run("DuplicateFood_ShouldFail", func() {
		items := []nutrition.QuantityBinding{{Food: s.arroz, Grams: 10}, {Food: s.arroz, Grams: 20}}
		_, err := NewRecipe(uuid.New(), "Doble arroz", items, Preparation{})
		s.ErrorIs(err, ErrDuplicateFood)
	})

	s.Run("NegativeServings_ShouldFail", func() {
		_, err := NewRecipe(uuid.New(), "Arroz", []nutrition.QuantityBinding{{Food: s.arroz, Grams: 10}}, Preparation{Servings: -1})
		s.ErrorIs(err, ErrInvalidServings)
	})
}

func (s *RecipeTestSuite) TestNewVariant() {
	s.Run("Variant_ShouldReferenceBase", func() {
		base, err := NewRecipe(uuid.New(), "Arroz con pollo",
			[]nutrition.QuantityBinding{{Food: s.arroz, Grams: 150}, {Food: s.pollo, Grams: 120}},
			Preparation{Servings: 2, Instructions: []string{"Cocer el arroz"}})
		s.Require().NoError(err)

		v, err := base.NewVariant("Arroz con pollo (variación 1)",
			[]nutrition.QuantityBinding{{Food: s.arroz, Grams: 140}, {Food: s.pollo, Grams: 130}})

		s.Require().NoError(err)
		s.Require().NotNil(v.VariantOf())
		s.Equal(base.ID(), *v.VariantOf())
		s.NotEqual(base.ID(), v.ID())
		s.Equal(2, v.Preparation().Servings)
		s.Equal([]float64{150, 120}, base.Grams(), "base must be unchanged")
	})
}
