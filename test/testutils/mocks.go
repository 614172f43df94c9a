package testutils

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/mealplan"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/nutriplan/engine/internal/domain/recipe"
	"github.com/nutriplan/engine/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

var (
	_ outbound.FoodCatalog      = (*MockFoodCatalog)(nil)
	_ outbound.RecipeRepository = (*MockRecipeRepository)(nil)
	_ outbound.PlanRepository   = (*MockPlanRepository)(nil)
	_ outbound.AccessPolicy     = (*MockAccessPolicy)(nil)
	_ outbound.CacheRepository  = (*MockCacheRepository)(nil)
	_ outbound.EngineMetrics    = (*MockEngineMetrics)(nil)
)

// MockFoodCatalog provides a mock implementation of FoodCatalog
type MockFoodCatalog struct {
	mock.Mock
}

func (m *MockFoodCatalog) ListFoods(ctx context.Context) ([]nutrition.FoodProfile, error) {
	args := m.Called(ctx)
	foods, _ := args.Get(0).([]nutrition.FoodProfile)
	return foods, args.Error(1)
}

func (m *MockFoodCatalog) FindFoods(ctx context.Context, ids []uuid.UUID) ([]nutrition.FoodProfile, error) {
	args := m.Called(ctx, ids)
	foods, _ := args.Get(0).([]nutrition.FoodProfile)
	return foods, args.Error(1)
}

func (m *MockFoodCatalog) UpsertFoods(ctx context.Context, foods []nutrition.FoodProfile) error {
	return m.Called(ctx, foods).Error(0)
}

func (m *MockFoodCatalog) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockRecipeRepository provides a mock implementation of RecipeRepository
type MockRecipeRepository struct {
	mock.Mock
}

func (m *MockRecipeRepository) FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*recipe.Recipe)
	return r, args.Error(1)
}

func (m *MockRecipeRepository) Save(ctx context.Context, r *recipe.Recipe) error {
	return m.Called(ctx, r).Error(0)
}

// MockPlanRepository provides a mock implementation of PlanRepository
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) LoadPlan(ctx context.Context, planID uuid.UUID) (*mealplan.PlanSnapshot, error) {
	args := m.Called(ctx, planID)
	p, _ := args.Get(0).(*mealplan.PlanSnapshot)
	return p, args.Error(1)
}

func (m *MockPlanRepository) LoadDay(ctx context.Context, dayID uuid.UUID) (*mealplan.DaySnapshot, error) {
	args := m.Called(ctx, dayID)
	d, _ := args.Get(0).(*mealplan.DaySnapshot)
	return d, args.Error(1)
}

func (m *MockPlanRepository) LoadMeal(ctx context.Context, optionID uuid.UUID) (*mealplan.MealOption, error) {
	args := m.Called(ctx, optionID)
	o, _ := args.Get(0).(*mealplan.MealOption)
	return o, args.Error(1)
}

func (m *MockPlanRepository) FindDay(ctx context.Context, dayID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, dayID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// MockAccessPolicy provides a mock implementation of AccessPolicy
type MockAccessPolicy struct {
	mock.Mock
}

func (m *MockAccessPolicy) CanAccessPlan(ctx context.Context, actorID, planID uuid.UUID) (bool, error) {
	args := m.Called(ctx, actorID, planID)
	return args.Bool(0), args.Error(1)
}

// MockCacheRepository provides a mock implementation of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepository) SAdd(ctx context.Context, key string, members ...string) error {
	return m.Called(ctx, key, members).Error(0)
}

func (m *MockCacheRepository) SMembers(ctx context.Context, key string) ([]string, error) {
	args := m.Called(ctx, key)
	s, _ := args.Get(0).([]string)
	return s, args.Error(1)
}

// MockEngineMetrics records metric calls
type MockEngineMetrics struct {
	mock.Mock
}

func (m *MockEngineMetrics) ObserveOperation(operation string, duration time.Duration, err error) {
	m.Called(operation, duration, err)
}

func (m *MockEngineMetrics) ObserveCache(hit bool) {
	m.Called(hit)
}

func (m *MockEngineMetrics) ObserveOptimization(kind string, iterations int, converged bool) {
	m.Called(kind, iterations, converged)
}

func (m *MockEngineMetrics) ObserveSlotChange(action string) {
	m.Called(action)
}
