// Package outbound defines the interfaces for outbound ports (secondary/driven adapters).
// Storage, caching and access control are reached only through these.
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/mealplan"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/nutriplan/engine/internal/domain/recipe"
)

var (
	// ErrNotFound is returned by repositories for missing rows
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write
	ErrDuplicate = errors.New("duplicate record")
	// ErrCacheMiss is returned by CacheRepository.Get for absent or expired keys
	ErrCacheMiss = errors.New("cache miss")
)

// FoodCatalog provides nutrient profiles
type FoodCatalog interface {
	// ListFoods returns every food, available or not
	ListFoods(ctx context.Context) ([]nutrition.FoodProfile, error)
	// FindFoods returns the foods with the given ids; unknown ids are skipped
	FindFoods(ctx context.Context, ids []uuid.UUID) ([]nutrition.FoodProfile, error)
	// UpsertFoods inserts or replaces foods by id
	UpsertFoods(ctx context.Context, foods []nutrition.FoodProfile) error
	Count(ctx context.Context) (int64, error)
}

// RecipeRepository persists recipes with their items resolved
type RecipeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error)
	Save(ctx context.Context, r *recipe.Recipe) error
}

// PlanRepository is the snapshot read model over plans. Every call loads
// the full graph it returns in one go.
type PlanRepository interface {
	LoadPlan(ctx context.Context, planID uuid.UUID) (*mealplan.PlanSnapshot, error)
	LoadDay(ctx context.Context, dayID uuid.UUID) (*mealplan.DaySnapshot, error)
	LoadMeal(ctx context.Context, optionID uuid.UUID) (*mealplan.MealOption, error)
	// FindDay resolves the plan a day belongs to
	FindDay(ctx context.Context, dayID uuid.UUID) (planID uuid.UUID, err error)
}

// MealOptionRepository stores meal option rows. Implementations enforce
// uniqueness of (day_id, meal_type, option_number) and report violations
// as ErrDuplicate.
type MealOptionRepository interface {
	// WithinTx runs fn against a repository bound to one transaction
	WithinTx(ctx context.Context, fn func(repo MealOptionRepository) error) error
	ListSlot(ctx context.Context, dayID uuid.UUID, mealType mealplan.MealType) ([]*mealplan.MealOption, error)
	FindByID(ctx context.Context, id uuid.UUID) (*mealplan.MealOption, error)
	Insert(ctx context.Context, option *mealplan.MealOption) error
	Delete(ctx context.Context, id uuid.UUID) error
	// UpdateNumbers persists number, alternative flag and label of each option
	UpdateNumbers(ctx context.Context, options []*mealplan.MealOption) error
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	// Set operations, used to index keys by owner for invalidation
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// AccessPolicy decides whether an actor may read or modify a plan
type AccessPolicy interface {
	CanAccessPlan(ctx context.Context, actorID, planID uuid.UUID) (bool, error)
}

// EngineMetrics records engine activity for monitoring
type EngineMetrics interface {
	ObserveOperation(operation string, duration time.Duration, err error)
	ObserveCache(hit bool)
	ObserveOptimization(kind string, iterations int, converged bool)
	ObserveSlotChange(action string)
}
