package gorm_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/mealplan"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/nutriplan/engine/internal/domain/recipe"
	gormstore "github.com/nutriplan/engine/internal/infrastructure/persistence/gorm"
	"github.com/nutriplan/engine/internal/ports/outbound"
	"github.com/nutriplan/engine/test/testutils"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type RepositoryTestSuite struct {
	suite.Suite
	openDB func(t *testing.T) *gorm.DB

	ctx     context.Context
	db      *gorm.DB
	foods   *gormstore.FoodCatalog
	recipes *gormstore.RecipeRepository
	plans   *gormstore.PlanRepository
	options *gormstore.MealOptionRepository
	access  *gormstore.AccessPolicy
	catalog map[string]nutrition.FoodProfile
	plan    *mealplan.PlanSnapshot
}

func TestRepositoriesWithSQLite(t *testing.T) {
	suite.Run(t, &RepositoryTestSuite{openDB: testutils.NewSQLiteDB})
}

func TestRepositoriesWithPostgres(t *testing.T) {
	testutils.RequireIntegration(t)
	td := testutils.SetupTestDatabase(t)
	suite.Run(t, &RepositoryTestSuite{openDB: func(t *testing.T) *gorm.DB {
		if err := td.TruncateAllTables(); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return td.GormDB
	}})
}

func (s *RepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = s.openDB(s.T())
	s.foods = gormstore.NewFoodCatalog(s.db)
	s.recipes = gormstore.NewRecipeRepository(s.db)
	s.plans = gormstore.NewPlanRepository(s.db)
	s.options = gormstore.NewMealOptionRepository(s.db)
	s.access = gormstore.NewAccessPolicy(s.db)

	s.catalog = testutils.ReferenceCatalog()
	s.Require().NoError(s.foods.UpsertFoods(s.ctx, testutils.Foods(s.catalog)))

	f := s.catalog
	s.plan = testutils.NewPlanBuilder(2).
		WithTargets(nutrition.Targets{nutrition.Calories: 1800, nutrition.Protein: 90}).
		WithOption(0, mealplan.MealBreakfast, 1, testutils.Bind(f["Avena"], 60.0, f["Leche"], 200.0)).
		WithOption(0, mealplan.MealLunch, 1, testutils.Bind(f["Pollo"], 150.0, f["Arroz"], 120.0)).
		WithOption(0, mealplan.MealLunch, 2, testutils.Bind(f["Lentejas"], 250.0)).
		WithOption(1, mealplan.MealDinner, 1, testutils.Bind(f["Salmón"], 130.0, f["Brócoli"], 150.0)).
		Build()
	s.Require().NoError(s.plans.SavePlan(s.ctx, s.plan))
}

func (s *RepositoryTestSuite) TestFoodCatalog() {
	count, err := s.foods.Count(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(len(s.catalog), count)

	all, err := s.foods.ListFoods(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, len(s.catalog))
	s.Equal("Aceite de oliva", all[0].Name)

	pollo := s.catalog["Pollo"]
	found, err := s.foods.FindFoods(s.ctx, []uuid.UUID{pollo.ID, uuid.New()})
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(pollo.Per100g, found[0].Per100g)
	s.Equal(nutrition.CategoryMeat, found[0].Category)

	pan, err := s.foods.FindFoods(s.ctx, []uuid.UUID{s.catalog["Pan integral"].ID})
	s.Require().NoError(err)
	s.Require().Len(pan, 1)
	s.False(pan[0].Available)
	s.Equal([]string{"gluten"}, pan[0].Tags)

	updated, err := nutrition.NewFoodProfile(pollo.ID, "Pollo asado", pollo.Category,
		nutrition.NutrientTotals{Calories: 190, Protein: 29, Fat: 7.7}, []string{"asado"}, true)
	s.Require().NoError(err)
	s.Require().NoError(s.foods.UpsertFoods(s.ctx, []nutrition.FoodProfile{updated}))

	count, err = s.foods.Count(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(len(s.catalog), count)
	found, err = s.foods.FindFoods(s.ctx, []uuid.UUID{pollo.ID})
	s.Require().NoError(err)
	s.Equal("Pollo asado", found[0].Name)
	s.Equal(190.0, found[0].Per100g.Calories)
}

func (s *RepositoryTestSuite) TestRecipeRoundTrip() {
	f := s.catalog
	base, err := recipe.NewRecipe(uuid.New(), "Pollo con arroz", []nutrition.QuantityBinding{
		{Food: f["Pollo"], Grams: 150},
		{Food: f["Arroz"], Grams: 200},
		{Food: f["Aceite de oliva"], Grams: 10},
	}, recipe.Preparation{Servings: 2, PrepMinutes: 10, CookMinutes: 25})
	s.Require().NoError(err)
	s.Require().NoError(s.recipes.Save(s.ctx, base))

	loaded, err := s.recipes.FindByID(s.ctx, base.ID())
	s.Require().NoError(err)
	s.Equal(base.Name(), loaded.Name())
	s.Equal(base.Grams(), loaded.Grams())
	s.Equal(base.Preparation(), loaded.Preparation())
	testutils.AssertTotalsInDelta(s.T(), base.Totals(), loaded.Totals(), 1e-6)
	s.Nil(loaded.VariantOf())

	variant, err := base.NewVariant("Pollo con arroz (v1)", nutrition.Bind(base.Foods(), []float64{160, 190, 9}))
	s.Require().NoError(err)
	s.Require().NoError(s.recipes.Save(s.ctx, variant))

	loaded, err = s.recipes.FindByID(s.ctx, variant.ID())
	s.Require().NoError(err)
	s.Require().NotNil(loaded.VariantOf())
	s.Equal(base.ID(), *loaded.VariantOf())
	s.Equal([]float64{160, 190, 9}, loaded.Grams())

	_, err = s.recipes.FindByID(s.ctx, uuid.New())
	s.ErrorIs(err, outbound.ErrNotFound)
}

func (s *RepositoryTestSuite) TestPlanRepository() {
	plan, err := s.plans.LoadPlan(s.ctx, s.plan.ID)
	s.Require().NoError(err)
	s.Equal(s.plan.Name, plan.Name)
	s.Equal(s.plan.Targets, plan.Targets)
	s.Require().Len(plan.Days, 2)
	s.Equal(1, plan.Days[0].Index)
	s.Require().Len(plan.Days[0].Options, 3)
	s.Equal(mealplan.MealBreakfast, plan.Days[0].Options[0].MealType)
	s.Equal(mealplan.MealLunch, plan.Days[0].Options[1].MealType)
	s.Equal(1, plan.Days[0].Options[1].Number)
	s.Equal(2, plan.Days[0].Options[2].Number)
	s.True(plan.Days[0].Options[2].IsAlternative)

	day, err := s.plans.LoadDay(s.ctx, s.plan.Days[1].ID)
	s.Require().NoError(err)
	s.Require().Len(day.Options, 1)
	s.InDelta(270.4+51, day.Options[0].Totals().Calories, 1e-6)

	lunch := s.plan.Days[0].Options[1]
	meal, err := s.plans.LoadMeal(s.ctx, lunch.ID)
	s.Require().NoError(err)
	s.InDelta(247.5+156, meal.Totals().Calories, 1e-6)

	planID, err := s.plans.FindDay(s.ctx, s.plan.Days[0].ID)
	s.Require().NoError(err)
	s.Equal(s.plan.ID, planID)

	_, err = s.plans.LoadPlan(s.ctx, uuid.New())
	s.ErrorIs(err, outbound.ErrNotFound)
	_, err = s.plans.FindDay(s.ctx, uuid.New())
	s.ErrorIs(err, outbound.ErrNotFound)
}

func (s *RepositoryTestSuite) TestAccessPolicy() {
	for _, actor := range []uuid.UUID{s.plan.PatientID, s.plan.NutritionistID} {
		ok, err := s.access.CanAccessPlan(s.ctx, actor, s.plan.ID)
		s.Require().NoError(err)
		s.True(ok)
	}

	ok, err := s.access.CanAccessPlan(s.ctx, uuid.New(), s.plan.ID)
	s.Require().NoError(err)
	s.False(ok)

	ok, err = s.access.CanAccessPlan(s.ctx, s.plan.PatientID, uuid.New())
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RepositoryTestSuite) newOption(dayID uuid.UUID, mealType mealplan.MealType, number int) *mealplan.MealOption {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return &mealplan.MealOption{
		ID:            uuid.New(),
		DayID:         dayID,
		MealType:      mealType,
		Number:        number,
		IsAlternative: number > 1,
		Label:         mealplan.AutoLabel(number),
		LabelAuto:     true,
		Items:         testutils.Bind(s.catalog["Manzana"], 150.0),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (s *RepositoryTestSuite) TestMealOptionRepository_UniquePosition() {
	dayID := s.plan.Days[1].ID
	first := s.newOption(dayID, mealplan.MealAfternoonSnack, 1)
	s.Require().NoError(s.options.Insert(s.ctx, first))

	clash := s.newOption(dayID, mealplan.MealAfternoonSnack, 1)
	err := s.options.Insert(s.ctx, clash)
	s.ErrorIs(err, outbound.ErrDuplicate)

	slot, err := s.options.ListSlot(s.ctx, dayID, mealplan.MealAfternoonSnack)
	s.Require().NoError(err)
	s.Require().Len(slot, 1)
	s.Equal(first.ID, slot[0].ID)
	s.InDelta(78.0, slot[0].Totals().Calories, 1e-6)
}

func (s *RepositoryTestSuite) TestMealOptionRepository_SwapAndDelete() {
	lunch := s.plan.Days[0].Options[1:3]
	dayID := s.plan.Days[0].ID

	err := s.options.WithinTx(s.ctx, func(tx outbound.MealOptionRepository) error {
		slot, err := tx.ListSlot(s.ctx, dayID, mealplan.MealLunch)
		if err != nil {
			return err
		}
		loaded, err := mealplan.LoadSlot(dayID, mealplan.MealLunch, slot)
		if err != nil {
			return err
		}
		changed, err := loaded.Reorder([]uuid.UUID{lunch[1].ID, lunch[0].ID}, time.Now().UTC())
		if err != nil {
			return err
		}
		return tx.UpdateNumbers(s.ctx, changed)
	})
	s.Require().NoError(err)

	slot, err := s.options.ListSlot(s.ctx, dayID, mealplan.MealLunch)
	s.Require().NoError(err)
	s.Require().Len(slot, 2)
	testutils.AssertSlotNumbers(s.T(), slot)
	s.Equal(lunch[1].ID, slot[0].ID)
	s.False(slot[0].IsAlternative)
	s.Empty(slot[0].Label)
	s.Equal(lunch[0].ID, slot[1].ID)
	s.Equal("Opción 2", slot[1].Label)

	s.Require().NoError(s.options.Delete(s.ctx, lunch[0].ID))
	_, err = s.options.FindByID(s.ctx, lunch[0].ID)
	s.ErrorIs(err, outbound.ErrNotFound)
	s.ErrorIs(s.options.Delete(s.ctx, lunch[0].ID), outbound.ErrNotFound)
}

func (s *RepositoryTestSuite) TestMealOptionRepository_TxRollback() {
	dayID := s.plan.Days[1].ID
	err := s.options.WithinTx(s.ctx, func(tx outbound.MealOptionRepository) error {
		if err := tx.Insert(s.ctx, s.newOption(dayID, mealplan.MealNightSnack, 1)); err != nil {
			return err
		}
		return tx.Insert(s.ctx, s.newOption(dayID, mealplan.MealNightSnack, 1))
	})
	s.ErrorIs(err, outbound.ErrDuplicate)

	slot, err := s.options.ListSlot(s.ctx, dayID, mealplan.MealNightSnack)
	s.Require().NoError(err)
	s.Empty(slot)
}
