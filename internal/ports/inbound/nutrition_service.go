// Package inbound defines the interfaces for inbound ports (primary/driving adapters).
// These are the use cases the engine exposes to the rest of the platform.
package inbound

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/analysis"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/nutriplan/engine/internal/domain/optimization"
)

// NutritionService exposes analysis and optimization over persisted plans,
// foods and recipes.
type NutritionService interface {
	// Analysis
	ComputeMealTotals(ctx context.Context, q MealTotalsQuery) (*MealTotalsDTO, error)
	ComputeDayAnalysis(ctx context.Context, q DayAnalysisQuery) (*analysis.DayAnalysis, error)
	ComputePlanAnalysis(ctx context.Context, q PlanAnalysisQuery) (*analysis.PlanAnalysis, error)
	CompareToTargets(ctx context.Context, q CompareTargetsQuery) (*analysis.Comparison, error)
	GenerateReport(ctx context.Context, q ReportQuery) (*ReportDTO, error)

	// Optimization
	FindCombinations(ctx context.Context, cmd FindCombinationsCommand) (*CombinationsDTO, error)
	CheckCompatibility(ctx context.Context, q CompatibilityQuery) (*optimization.CompatibilityReport, error)
	SuggestComplementary(ctx context.Context, q SuggestQuery) ([]SuggestionDTO, error)
	OptimizeProportions(ctx context.Context, cmd OptimizeProportionsCommand) (*ProportionDTO, error)
	GenerateVariations(ctx context.Context, cmd GenerateVariationsCommand) (*VariationsDTO, error)
}

// Queries

// MealTotalsQuery asks for the totals of one meal option
type MealTotalsQuery struct {
	ActorID  uuid.UUID `validate:"required"`
	OptionID uuid.UUID `validate:"required"`
}

// DayAnalysisQuery asks for the analysis of one plan day
type DayAnalysisQuery struct {
	ActorID uuid.UUID `validate:"required"`
	DayID   uuid.UUID `validate:"required"`
}

// PlanAnalysisQuery asks for the analysis of a whole plan
type PlanAnalysisQuery struct {
	ActorID uuid.UUID `validate:"required"`
	PlanID  uuid.UUID `validate:"required"`
}

// CompareTargetsQuery compares a plan with targets. When Targets is empty
// the plan's own targets are used.
type CompareTargetsQuery struct {
	ActorID uuid.UUID          `validate:"required"`
	PlanID  uuid.UUID          `validate:"required"`
	Targets map[string]float64 `validate:"omitempty,dive,keys,nutrient,endkeys,gte=0"`
}

// ReportQuery asks for the full plan report
type ReportQuery struct {
	ActorID uuid.UUID          `validate:"required"`
	PlanID  uuid.UUID          `validate:"required"`
	Targets map[string]float64 `validate:"omitempty,dive,keys,nutrient,endkeys,gte=0"`
}

// CompatibilityQuery checks a set of catalog foods
type CompatibilityQuery struct {
	ActorID      uuid.UUID   `validate:"required"`
	FoodIDs      []uuid.UUID `validate:"required,min=1,dive,required"`
	ExcludedTags []string    `validate:"omitempty,dive,required"`
}

// SuggestQuery ranks foods that complement a partial meal
type SuggestQuery struct {
	ActorID      uuid.UUID          `validate:"required"`
	Items        []ItemInput        `validate:"omitempty,dive"`
	Targets      map[string]float64 `validate:"required,min=1,dive,keys,nutrient,endkeys,gte=0"`
	ExcludedTags []string           `validate:"omitempty,dive,required"`
	Limit        int                `validate:"gte=0,lte=50"`
}

// Commands

// ItemInput is a food reference with a quantity
type ItemInput struct {
	FoodID uuid.UUID `json:"food_id" validate:"required"`
	Grams  float64   `json:"grams" validate:"gt=0"`
}

// MacroRangeInput is an optional floor and ceiling in grams
type MacroRangeInput struct {
	Min float64 `json:"min" validate:"gte=0"`
	Max float64 `json:"max" validate:"gte=0"`
}

// FindCombinationsCommand searches the catalog for combinations
type FindCombinationsCommand struct {
	ActorID           uuid.UUID        `validate:"required"`
	TargetCalories    float64          `validate:"gt=0"`
	Protein           *MacroRangeInput
	Carbohydrate      *MacroRangeInput
	Fat               *MacroRangeInput
	ExcludedTags      []string         `validate:"omitempty,dive,required"`
	AllowedCategories []string         `validate:"omitempty,dive,category"`
	MinItems          int              `validate:"gte=0"`
	MaxItems          int              `validate:"gte=0"`
	MaxResults        int              `validate:"gte=0,lte=50"`
	Seed              int64
}

// OptimizeProportionsCommand computes grams for a fixed food list
type OptimizeProportionsCommand struct {
	ActorID    uuid.UUID          `validate:"required"`
	FoodIDs    []uuid.UUID        `validate:"required,min=1,dive,required"`
	Targets    map[string]float64 `validate:"required,min=1,dive,keys,nutrient,endkeys,gte=0"`
	StartGrams []float64          `validate:"omitempty,dive,gt=0"`
}

// GenerateVariationsCommand derives variants of a stored recipe
type GenerateVariationsCommand struct {
	ActorID      uuid.UUID `validate:"required"`
	RecipeID     uuid.UUID `validate:"required"`
	Count        int       `validate:"gte=1,lte=20"`
	ExcludedTags []string  `validate:"omitempty,dive,required"`
	Seed         int64
	// Persist stores accepted variants through the recipe repository
	Persist bool
}

// Response DTOs

// ItemDTO is a resolved food with its quantity
type ItemDTO struct {
	FoodID   uuid.UUID          `json:"food_id"`
	Name     string             `json:"name"`
	Category nutrition.Category `json:"category"`
	Grams    float64            `json:"grams"`
}

// MealTotalsDTO is the rounded totals of one option
type MealTotalsDTO struct {
	OptionID uuid.UUID                `json:"option_id"`
	Totals   nutrition.NutrientTotals `json:"totals"`
}

// ReportDTO bundles analysis and target comparison
type ReportDTO struct {
	PlanID      uuid.UUID              `json:"plan_id"`
	Analysis    *analysis.PlanAnalysis `json:"analisis"`
	Comparison  *analysis.Comparison   `json:"comparacion,omitempty"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// CandidateDTO is one proposed combination
type CandidateDTO struct {
	Items           []ItemDTO                `json:"items"`
	Totals          nutrition.NutrientTotals `json:"totals"`
	Score           float64                  `json:"score"`
	Compatibility   float64                  `json:"compatibility"`
	Deviation       float64                  `json:"deviation"`
	Iterations      int                      `json:"iterations"`
	Converged       bool                     `json:"converged"`
	WithinTolerance bool                     `json:"within_tolerance"`
}

// CombinationsDTO is the ranked search output
type CombinationsDTO struct {
	Candidates []CandidateDTO `json:"candidates"`
	PoolSize   int            `json:"pool_size"`
	Evaluated  int            `json:"evaluated"`
	Warning    error          `json:"-"`
}

// SuggestionDTO is one complementary food
type SuggestionDTO struct {
	Item   ItemDTO                  `json:"item"`
	Totals nutrition.NutrientTotals `json:"totals"`
	Score  float64                  `json:"score"`
}

// ProportionDTO is the optimizer output
type ProportionDTO struct {
	Items      []ItemDTO                      `json:"items"`
	Achieved   nutrition.NutrientTotals       `json:"achieved"`
	Deviations map[nutrition.Nutrient]float64 `json:"deviations"`
	Error      float64                        `json:"error"`
	Iterations int                            `json:"iterations"`
	Converged  bool                           `json:"converged"`
	Warning    error                          `json:"-"`
}

// VariationDTO is one accepted recipe variant
type VariationDTO struct {
	RecipeID     uuid.UUID                  `json:"recipe_id"`
	Name         string                     `json:"name"`
	Strategy     optimization.Strategy      `json:"strategy"`
	Substitution *optimization.Substitution `json:"substitution,omitempty"`
	Items        []ItemDTO                  `json:"items"`
	Totals       nutrition.NutrientTotals   `json:"totals"`
	Error        float64                    `json:"error"`
}

// VariationsDTO lists variants of a base recipe
type VariationsDTO struct {
	BaseRecipeID uuid.UUID      `json:"base_recipe_id"`
	Requested    int            `json:"requested"`
	Variations   []VariationDTO `json:"variations"`
}
