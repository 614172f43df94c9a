package nutrition_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	appnutrition "github.com/nutriplan/engine/internal/application/nutrition"
	"github.com/nutriplan/engine/internal/domain/analysis"
	"github.com/nutriplan/engine/internal/domain/mealplan"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/nutriplan/engine/internal/domain/optimization"
	"github.com/nutriplan/engine/internal/domain/recipe"
	"github.com/nutriplan/engine/internal/infrastructure/persistence/memory"
	"github.com/nutriplan/engine/internal/ports/inbound"
	apperrors "github.com/nutriplan/engine/pkg/errors"
	"github.com/nutriplan/engine/test/testutils"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type ServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	cache   *memory.CacheRepository
	metrics *testutils.MockEngineMetrics
	service *appnutrition.Service
	foods   map[string]nutrition.FoodProfile
	plan    *mealplan.PlanSnapshot
	owner   uuid.UUID
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.cache = memory.NewCacheRepository(0)
	s.metrics = new(testutils.MockEngineMetrics)
	s.metrics.On("ObserveOperation", mock.Anything, mock.Anything, mock.Anything).Maybe()
	s.metrics.On("ObserveOptimization", mock.Anything, mock.Anything, mock.Anything).Maybe()
	s.metrics.On("ObserveCache", mock.Anything).Maybe()

	s.foods = testutils.ReferenceCatalog()
	s.Require().NoError(s.store.UpsertFoods(s.ctx, testutils.Foods(s.foods)))

	s.owner = uuid.New()
	f := s.foods
	s.plan = testutils.NewPlanBuilder(2).
		WithOwners(uuid.New(), s.owner).
		WithTargets(nutrition.Targets{nutrition.Calories: 700, nutrition.Protein: 80}).
		WithOption(0, mealplan.MealBreakfast, 1, testutils.Bind(f["Avena"], 100.0)).
		WithOption(0, mealplan.MealBreakfast, 2, testutils.Bind(f["Huevo"], 100.0)).
		WithOption(0, mealplan.MealLunch, 1, testutils.Bind(f["Pollo"], 100.0, f["Arroz"], 100.0)).
		WithOption(1, mealplan.MealBreakfast, 1, testutils.Bind(f["Avena"], 50.0)).
		WithOption(1, mealplan.MealLunch, 1, testutils.Bind(f["Pollo"], 200.0, f["Arroz"], 100.0)).
		Build()
	s.Require().NoError(s.store.SavePlan(s.ctx, s.plan))

	s.service = appnutrition.NewService(appnutrition.Dependencies{
		Foods:   s.store,
		Recipes: s.store.Recipes(),
		Plans:   s.store,
		Access:  s.store,
		Cache:   s.cache,
		Metrics: s.metrics,
	}, appnutrition.DefaultConfig(), zap.NewNop())
}

func (s *ServiceTestSuite) lunchOption(day int) *mealplan.MealOption {
	for _, o := range s.plan.Days[day].Options {
		if o.MealType == mealplan.MealLunch {
			return o
		}
	}
	s.FailNow("no lunch option")
	return nil
}

func (s *ServiceTestSuite) TestComputeMealTotals() {
	out, err := s.service.ComputeMealTotals(s.ctx, inbound.MealTotalsQuery{
		ActorID:  s.owner,
		OptionID: s.lunchOption(0).ID,
	})

	s.Require().NoError(err)
	s.Equal(295.0, out.Totals.Calories)
	s.Equal(33.7, out.Totals.Protein)
	s.Equal(28.0, out.Totals.Carbohydrate)
	s.Equal(3.9, out.Totals.Fat)
}

func (s *ServiceTestSuite) TestComputeDayAnalysis_CountsOnlyPrimaries() {
	out, err := s.service.ComputeDayAnalysis(s.ctx, inbound.DayAnalysisQuery{
		ActorID: s.owner,
		DayID:   s.plan.Days[0].ID,
	})

	s.Require().NoError(err)
	s.Equal(684.0, out.Totals.Calories)
	s.Equal(50.6, out.Totals.Protein)
	s.Require().Len(out.Meals, 2)

	breakfast := out.Meals[0]
	s.Equal(mealplan.MealBreakfast, breakfast.MealType)
	s.Require().NotNil(breakfast.Primary)
	s.Equal(389.0, breakfast.Primary.Totals.Calories)
	s.Require().Len(breakfast.Alternatives, 1)
	s.Equal(155.0, breakfast.Alternatives[0].Totals.Calories)

	dist := out.Distribution
	s.InDelta(100, dist.ProteinPct+dist.CarbohydratePct+dist.FatPct, 0.5)
}

func (s *ServiceTestSuite) TestComputePlanAnalysis() {
	out, err := s.service.ComputePlanAnalysis(s.ctx, inbound.PlanAnalysisQuery{
		ActorID: s.owner,
		PlanID:  s.plan.ID,
	})

	s.Require().NoError(err)
	s.Equal(2, out.DayCount)
	s.InDelta(669.25, out.DailyAverage.Calories, 0.5)
	s.InDelta(1338.5, out.PlanTotal.Calories, 0.5)
	s.Len(out.Days, 2)
	s.InDelta(669.25, out.Variability[nutrition.Calories].Mean, 0.05)
	s.InDelta(14.75, out.Variability[nutrition.Calories].Stdev, 0.05)
}

func (s *ServiceTestSuite) TestCompareToTargets() {
	s.Run("PlanTargets_ShouldBeUsedWhenNoneGiven", func() {
		out, err := s.service.CompareToTargets(s.ctx, inbound.CompareTargetsQuery{
			ActorID: s.owner,
			PlanID:  s.plan.ID,
		})

		s.Require().NoError(err)
		s.Require().Len(out.Compliance, 2)
		s.Equal(analysis.StatusOptimal, out.Compliance[nutrition.Calories].Status)
		s.Equal(analysis.StatusLow, out.Compliance[nutrition.Protein].Status)
		s.NotEmpty(out.Recommendations)
	})

	s.Run("ExplicitTargets_ShouldOverridePlan", func() {
		out, err := s.service.CompareToTargets(s.ctx, inbound.CompareTargetsQuery{
			ActorID: s.owner,
			PlanID:  s.plan.ID,
			Targets: map[string]float64{"calories": 500},
		})

		s.Require().NoError(err)
		s.Require().Len(out.Compliance, 1)
		s.Equal(analysis.StatusHigh, out.Compliance[nutrition.Calories].Status)
		s.Equal(100.0, out.OverallScore)
	})

	s.Run("UnknownNutrient_ShouldFailValidation", func() {
		_, err := s.service.CompareToTargets(s.ctx, inbound.CompareTargetsQuery{
			ActorID: s.owner,
			PlanID:  s.plan.ID,
			Targets: map[string]float64{"magic": 10},
		})
		testutils.AssertErrorCode(s.T(), err, apperrors.CodeValidationFailed)
	})
}

func (s *ServiceTestSuite) TestCompareToTargets_WithoutAnyTargets() {
	plan := testutils.NewPlanBuilder(1).WithOwners(uuid.New(), s.owner).Build()
	s.Require().NoError(s.store.SavePlan(s.ctx, plan))

	_, err := s.service.CompareToTargets(s.ctx, inbound.CompareTargetsQuery{ActorID: s.owner, PlanID: plan.ID})
	testutils.AssertErrorCode(s.T(), err, apperrors.CodeValidationFailed)
}

func (s *ServiceTestSuite) TestGenerateReport_CachesResult() {
	metrics := new(testutils.MockEngineMetrics)
	metrics.On("ObserveOperation", "report", mock.Anything, nil).Twice()
	metrics.On("ObserveCache", false).Once()
	metrics.On("ObserveCache", true).Once()

	service := appnutrition.NewService(appnutrition.Dependencies{
		Foods:   s.store,
		Recipes: s.store.Recipes(),
		Plans:   s.store,
		Access:  s.store,
		Cache:   s.cache,
		Metrics: metrics,
	}, appnutrition.DefaultConfig(), zap.NewNop())

	q := inbound.ReportQuery{ActorID: s.owner, PlanID: s.plan.ID}
	first, err := service.GenerateReport(s.ctx, q)
	s.Require().NoError(err)
	s.Require().NotNil(first.Comparison)
	s.Equal(2, first.Analysis.DayCount)

	second, err := service.GenerateReport(s.ctx, q)
	s.Require().NoError(err)
	s.Equal(first.Analysis.DailyAverage, second.Analysis.DailyAverage)
	s.True(first.GeneratedAt.Equal(second.GeneratedAt))

	metrics.AssertExpectations(s.T())
}

func (s *ServiceTestSuite) TestAccessDenied_ShouldLookLikeNotFound() {
	stranger := uuid.New()

	_, err := s.service.ComputePlanAnalysis(s.ctx, inbound.PlanAnalysisQuery{ActorID: stranger, PlanID: s.plan.ID})
	testutils.AssertErrorCode(s.T(), err, apperrors.CodeNotFound)

	_, err = s.service.ComputeMealTotals(s.ctx, inbound.MealTotalsQuery{ActorID: stranger, OptionID: s.lunchOption(0).ID})
	testutils.AssertErrorCode(s.T(), err, apperrors.CodeNotFound)

	_, err = s.service.GenerateReport(s.ctx, inbound.ReportQuery{ActorID: stranger, PlanID: s.plan.ID})
	testutils.AssertErrorCode(s.T(), err, apperrors.CodeNotFound)

	_, err = s.service.ComputePlanAnalysis(s.ctx, inbound.PlanAnalysisQuery{ActorID: s.owner, PlanID: uuid.New()})
	testutils.AssertErrorCode(s.T(), err, apperrors.CodeNotFound)
}

func (s *ServiceTestSuite) TestFindCombinations_RespectsRestrictions() {
	excluded := []string{"gluten", "lactosa", "pescado"}
	out, err := s.service.FindCombinations(s.ctx, inbound.FindCombinationsCommand{
		ActorID:        s.owner,
		TargetCalories: 650,
		Protein:        &inbound.MacroRangeInput{Min: 30},
		ExcludedTags:   excluded,
		MaxResults:     4,
		Seed:           1,
	})

	s.Require().NoError(err)
	s.NotEmpty(out.Candidates)
	s.Positive(out.PoolSize)
	banned := map[string]bool{"Avena": true, "Pan integral": true, "Leche": true, "Yogur": true, "Salmón": true}
	for _, c := range out.Candidates {
		for _, item := range c.Items {
			s.False(banned[item.Name], "unexpected %s", item.Name)
		}
	}
}

func (s *ServiceTestSuite) TestFindCombinations_GeneratedCatalog() {
	factory := testutils.NewFoodFactory(7)
	generated := factory.Catalog(4)
	for i := 0; i < 3; i++ {
		generated = append(generated, factory.Food(nutrition.CategoryMeat, "cerdo"))
	}
	store := memory.NewStore()
	s.Require().NoError(store.UpsertFoods(s.ctx, generated))

	service := appnutrition.NewService(appnutrition.Dependencies{
		Foods:   store,
		Recipes: store.Recipes(),
		Plans:   store,
		Access:  store,
	}, appnutrition.DefaultConfig(), zap.NewNop())

	out, err := service.FindCombinations(s.ctx, inbound.FindCombinationsCommand{
		ActorID:           s.owner,
		TargetCalories:    700,
		ExcludedTags:      []string{"cerdo"},
		AllowedCategories: []string{"carnes", "cereales", "verduras", "grasas"},
		MaxResults:        3,
		Seed:              11,
	})

	s.Require().NoError(err)
	s.Equal(16, out.PoolSize)
	s.NotEmpty(out.Candidates)
	allowed := map[nutrition.Category]bool{
		nutrition.CategoryMeat: true, nutrition.CategoryCereals: true,
		nutrition.CategoryVegetable: true, nutrition.CategoryFats: true,
	}
	for _, c := range out.Candidates {
		s.GreaterOrEqual(len(c.Items), 2)
		for _, item := range c.Items {
			s.True(allowed[item.Category], "category %s", item.Category)
		}
	}
}

func (s *ServiceTestSuite) TestFindCombinations_InvalidInput() {
	_, err := s.service.FindCombinations(s.ctx, inbound.FindCombinationsCommand{ActorID: s.owner})
	testutils.AssertErrorCode(s.T(), err, apperrors.CodeValidationFailed)

	_, err = s.service.FindCombinations(s.ctx, inbound.FindCombinationsCommand{
		ActorID:           s.owner,
		TargetCalories:    500,
		AllowedCategories: []string{"golosinas"},
	})
	testutils.AssertErrorCode(s.T(), err, apperrors.CodeValidationFailed)
}

func (s *ServiceTestSuite) TestSuggestComplementary() {
	f := s.foods
	out, err := s.service.SuggestComplementary(s.ctx, inbound.SuggestQuery{
		ActorID:      s.owner,
		Items:        []inbound.ItemInput{{FoodID: f["Arroz"].ID, Grams: 150}},
		Targets:      map[string]float64{"calories": 400, "protein": 40},
		ExcludedTags: []string{"lactosa", "pescado"},
		Limit:        3,
	})

	s.Require().NoError(err)
	s.Require().Len(out, 3)
	banned := map[string]bool{"Arroz": true, "Leche": true, "Yogur": true, "Salmón": true, "Pan integral": true}
	for i, sg := range out {
		s.False(banned[sg.Item.Name], "unexpected %s", sg.Item.Name)
		s.GreaterOrEqual(sg.Item.Grams, 10.0)
		s.LessOrEqual(sg.Item.Grams, 500.0)
		if i > 0 {
			s.GreaterOrEqual(sg.Score, out[i-1].Score)
		}
	}

	_, err = s.service.SuggestComplementary(s.ctx, inbound.SuggestQuery{ActorID: s.owner})
	testutils.AssertErrorCode(s.T(), err, apperrors.CodeValidationFailed)
}

func (s *ServiceTestSuite) TestCheckCompatibility() {
	f := s.foods
	report, err := s.service.CheckCompatibility(s.ctx, inbound.CompatibilityQuery{
		ActorID:      s.owner,
		FoodIDs:      []uuid.UUID{f["Pollo"].ID, f["Leche"].ID},
		ExcludedTags: []string{"lactosa"},
	})

	s.Require().NoError(err)
	s.False(report.Compatible)
	s.Require().Len(report.Excluded, 1)

	_, err = s.service.CheckCompatibility(s.ctx, inbound.CompatibilityQuery{
		ActorID: s.owner,
		FoodIDs: []uuid.UUID{uuid.New()},
	})
	testutils.AssertErrorCode(s.T(), err, apperrors.CodeNotFound)
}

func (s *ServiceTestSuite) TestOptimizeProportions_RoundTrip() {
	f := s.foods
	foods := []nutrition.FoodProfile{f["Pollo"], f["Arroz"], f["Aceite de oliva"]}
	targets := nutrition.Totals(nutrition.Bind(foods, []float64{150, 200, 10}))

	out, err := s.service.OptimizeProportions(s.ctx, inbound.OptimizeProportionsCommand{
		ActorID: s.owner,
		FoodIDs: []uuid.UUID{foods[0].ID, foods[1].ID, foods[2].ID},
		Targets: map[string]float64{
			"calories":     targets.Calories,
			"protein":      targets.Protein,
			"carbohydrate": targets.Carbohydrate,
			"fat":          targets.Fat,
		},
	})

	s.Require().NoError(err)
	s.True(out.Converged)
	s.Nil(out.Warning)
	s.Require().Len(out.Items, 3)
	s.Equal("Pollo", out.Items[0].Name)
	s.InDelta(targets.Calories, out.Achieved.Calories, targets.Calories*0.05)
}

func (s *ServiceTestSuite) TestGenerateVariations_Persists() {
	f := s.foods
	base, err := recipe.NewRecipe(uuid.New(), "Pollo con arroz", []nutrition.QuantityBinding{
		{Food: f["Pollo"], Grams: 150},
		{Food: f["Arroz"], Grams: 200},
		{Food: f["Aceite de oliva"], Grams: 10},
	}, recipe.Preparation{Servings: 2})
	s.Require().NoError(err)
	s.Require().NoError(s.store.Recipes().Save(s.ctx, base))

	cfg := appnutrition.DefaultConfig()
	cfg.Variation.SubstitutionRate = 0
	service := appnutrition.NewService(appnutrition.Dependencies{
		Foods:   s.store,
		Recipes: s.store.Recipes(),
		Plans:   s.store,
		Access:  s.store,
		Cache:   s.cache,
		Metrics: s.metrics,
	}, cfg, zap.NewNop())

	out, err := service.GenerateVariations(s.ctx, inbound.GenerateVariationsCommand{
		ActorID:  s.owner,
		RecipeID: base.ID(),
		Count:    3,
		Seed:     42,
		Persist:  true,
	})

	s.Require().NoError(err)
	s.Equal(base.ID(), out.BaseRecipeID)
	s.Require().Len(out.Variations, 3)
	for _, v := range out.Variations {
		s.Equal(optimization.StrategyQuantity, v.Strategy)
		stored, err := s.store.Recipes().FindByID(s.ctx, v.RecipeID)
		s.Require().NoError(err)
		s.Equal(base.ID(), *stored.VariantOf())
	}

	_, err = service.GenerateVariations(s.ctx, inbound.GenerateVariationsCommand{
		ActorID:  s.owner,
		RecipeID: uuid.New(),
		Count:    1,
	})
	testutils.AssertErrorCode(s.T(), err, apperrors.CodeNotFound)

	_, err = service.GenerateVariations(s.ctx, inbound.GenerateVariationsCommand{
		ActorID:  s.owner,
		RecipeID: base.ID(),
		Count:    21,
	})
	testutils.AssertErrorCode(s.T(), err, apperrors.CodeValidationFailed)
}
