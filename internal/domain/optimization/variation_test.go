package optimization

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/nutriplan/engine/internal/domain/recipe"
	"github.com/stretchr/testify/suite"
)

type VariationTestSuite struct {
	suite.Suite
	catalog catalogFixture
	base    *recipe.Recipe
}

func (s *VariationTestSuite) SetupTest() {
	s.catalog = newCatalog()
	var err error
	s.base, err = recipe.NewRecipe(uuid.New(), "Pollo con arroz", []nutrition.QuantityBinding{
		{Food: s.catalog["Pollo"], Grams: 150},
		{Food: s.catalog["Arroz"], Grams: 200},
		{Food: s.catalog["Aceite de oliva"], Grams: 10},
	}, recipe.Preparation{Servings: 2})
	s.Require().NoError(err)
}

func TestVariationTestSuite(t *testing.T) {
	suite.Run(t, new(VariationTestSuite))
}

func (s *VariationTestSuite) generator(rate float64) *VariationGenerator {
	cfg := DefaultVariationConfig()
	cfg.SubstitutionRate = rate
	return NewVariationGenerator(cfg, NewProportionOptimizer(DefaultProportionConfig()), NewCompatibilityChecker(DefaultConflictRules()))
}

func (s *VariationTestSuite) assertWithinBase(v Variation) {
	baseTotals := s.base.Totals()
	got := v.Recipe.Totals()
	for _, n := range nutrition.Macronutrients {
		s.LessOrEqual(math.Abs(got.Get(n)-baseTotals.Get(n))/baseTotals.Get(n), 0.05, "nutrient %s", n)
	}
}

func (s *VariationTestSuite) TestQuantityVariations() {
	variations, err := s.generator(0).Generate(s.base, s.catalog.all(), VariationRequest{Count: 3}, rand.New(rand.NewSource(42)))

	s.Require().NoError(err)
	s.Require().Len(variations, 3)

	seen := map[string]bool{fingerprintItems(s.base.Items()): true}
	for i, v := range variations {
		s.Equal(StrategyQuantity, v.Strategy)
		s.Nil(v.Substitution)
		s.Equal(s.base.ID(), *v.Recipe.VariantOf())
		s.Equal(s.base.Foods(), v.Recipe.Foods())
		s.Contains(v.Recipe.Name(), "variación")
		s.Equal(2, v.Recipe.Preparation().Servings)

		key := fingerprintItems(v.Recipe.Items())
		s.False(seen[key], "variation %d repeats an earlier gram vector", i)
		seen[key] = true
		s.assertWithinBase(v)
	}
}

func (s *VariationTestSuite) TestSubstitutionVariations() {
	req := VariationRequest{Count: 2, ExcludedTags: []string{"cerdo"}}

	variations, err := s.generator(1).Generate(s.base, s.catalog.all(), req, rand.New(rand.NewSource(7)))

	s.Require().NoError(err)
	s.Require().NotEmpty(variations)
	for _, v := range variations {
		s.Equal(StrategySubstitution, v.Strategy)
		s.Require().NotNil(v.Substitution)
		from := s.catalog[v.Substitution.From.Name]
		to := s.catalog[v.Substitution.To.Name]
		s.Equal(from.Category, to.Category)
		s.NotEqual("Cerdo", to.Name)
		s.True(to.Available)

		changed := 0
		for i, f := range v.Recipe.Foods() {
			if f.ID != s.base.Foods()[i].ID {
				changed++
				s.Equal(to.ID, f.ID)
			}
		}
		s.Equal(1, changed)
		s.assertWithinBase(v)
	}
}

func (s *VariationTestSuite) TestNoSubstituteAvailable() {
	only := s.catalog.pick("Pollo", "Arroz", "Aceite de oliva")

	variations, err := s.generator(1).Generate(s.base, only, VariationRequest{Count: 2}, rand.New(rand.NewSource(1)))

	s.Require().NoError(err)
	s.Empty(variations)
}

func (s *VariationTestSuite) TestInvalidCount() {
	_, err := s.generator(0.5).Generate(s.base, s.catalog.all(), VariationRequest{}, rand.New(rand.NewSource(1)))
	s.ErrorIs(err, ErrInvalidCount)
}
