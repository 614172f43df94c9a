// Package nutrition provides the application layer for plan analysis and
// food optimization. This implements the use cases defined in the inbound ports.
package nutrition

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/application/apperr"
	"github.com/nutriplan/engine/internal/application/reportcache"
	"github.com/nutriplan/engine/internal/application/validation"
	"github.com/nutriplan/engine/internal/domain/analysis"
	"github.com/nutriplan/engine/internal/domain/mealplan"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/nutriplan/engine/internal/domain/optimization"
	"github.com/nutriplan/engine/internal/ports/inbound"
	"github.com/nutriplan/engine/internal/ports/outbound"
	"github.com/nutriplan/engine/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Config tunes the engine components behind the service
type Config struct {
	Search     optimization.SearchConfig
	Proportion optimization.ProportionConfig
	Variation  optimization.VariationConfig
	Compliance analysis.ComplianceConfig
	Rules      []optimization.ConflictRule
	ReportTTL  time.Duration
}

// DefaultConfig returns the built-in tuning
func DefaultConfig() Config {
	return Config{
		Search:     optimization.DefaultSearchConfig(),
		Proportion: optimization.DefaultProportionConfig(),
		Variation:  optimization.DefaultVariationConfig(),
		Compliance: analysis.DefaultComplianceConfig(),
		Rules:      optimization.DefaultConflictRules(),
		ReportTTL:  10 * time.Minute,
	}
}

// Dependencies groups the outbound ports the service uses
type Dependencies struct {
	Foods   outbound.FoodCatalog
	Recipes outbound.RecipeRepository
	Plans   outbound.PlanRepository
	Access  outbound.AccessPolicy
	Cache   outbound.CacheRepository
	Metrics outbound.EngineMetrics
}

// Service implements inbound.NutritionService
type Service struct {
	foods   outbound.FoodCatalog
	recipes outbound.RecipeRepository
	plans   outbound.PlanRepository
	access  outbound.AccessPolicy
	metrics outbound.EngineMetrics
	reports *reportcache.Index
	flight  singleflight.Group

	checker    *optimization.CompatibilityChecker
	search     *optimization.CombinationSearch
	optimizer  *optimization.ProportionOptimizer
	variations *optimization.VariationGenerator

	cfg       Config
	validator *validation.Validator
	now       func() time.Time
	logger    *zap.Logger
}

// NewService creates the nutrition service
func NewService(deps Dependencies, cfg Config, logger *zap.Logger) *Service {
	checker := optimization.NewCompatibilityChecker(cfg.Rules)
	optimizer := optimization.NewProportionOptimizer(cfg.Proportion)
	return &Service{
		foods:      deps.Foods,
		recipes:    deps.Recipes,
		plans:      deps.Plans,
		access:     deps.Access,
		metrics:    deps.Metrics,
		reports:    reportcache.New(deps.Cache, cfg.ReportTTL, logger),
		checker:    checker,
		search:     optimization.NewCombinationSearch(cfg.Search, checker),
		optimizer:  optimizer,
		variations: optimization.NewVariationGenerator(cfg.Variation, optimizer, checker),
		cfg:        cfg,
		validator:  validation.New(),
		now:        time.Now,
		logger:     logger.Named("nutrition-service"),
	}
}

var _ inbound.NutritionService = (*Service)(nil)

// track starts timing an operation; call the result with the final error
func (s *Service) track(op string) func(*error) {
	start := s.now()
	return func(errp *error) {
		if s.metrics != nil {
			s.metrics.ObserveOperation(op, s.now().Sub(start), *errp)
		}
	}
}

// authorize resolves the actor's access to a plan. Denials surface as not
// found so callers cannot probe for other tenants' plans.
func (s *Service) authorize(ctx context.Context, actorID, planID uuid.UUID) error {
	ok, err := s.access.CanAccessPlan(ctx, actorID, planID)
	if err != nil {
		return errors.NewDatabaseError("check plan access", err)
	}
	if !ok {
		s.logger.Warn("Plan access denied",
			zap.String("actor_id", actorID.String()),
			zap.String("plan_id", planID.String()),
		)
		return errors.NewPermissionError("plan", actorID.String())
	}
	return nil
}

func (s *Service) loadPlan(ctx context.Context, actorID, planID uuid.UUID) (*mealplan.PlanSnapshot, error) {
	if err := s.authorize(ctx, actorID, planID); err != nil {
		return nil, err
	}
	plan, err := s.plans.LoadPlan(ctx, planID)
	if err != nil {
		return nil, apperr.Map(err, "plan", "load plan")
	}
	return plan, nil
}

// authorizeDay checks access through the plan that owns the day
func (s *Service) authorizeDay(ctx context.Context, actorID, dayID uuid.UUID) error {
	planID, err := s.plans.FindDay(ctx, dayID)
	if err != nil {
		return apperr.Map(err, "plan day", "find plan day")
	}
	return s.authorize(ctx, actorID, planID)
}

// ComputeMealTotals aggregates one meal option
func (s *Service) ComputeMealTotals(ctx context.Context, q inbound.MealTotalsQuery) (_ *inbound.MealTotalsDTO, err error) {
	defer s.track("meal_totals")(&err)
	if err := s.validator.Struct(q); err != nil {
		return nil, err
	}

	option, err := s.plans.LoadMeal(ctx, q.OptionID)
	if err != nil {
		return nil, apperr.Map(err, "meal option", "load meal option")
	}
	if err := s.authorizeDay(ctx, q.ActorID, option.DayID); err != nil {
		return nil, err
	}

	return &inbound.MealTotalsDTO{
		OptionID: option.ID,
		Totals:   mealplan.MealTotals(option).Rounded(),
	}, nil
}

// ComputeDayAnalysis aggregates a plan day with its per-meal breakdown
func (s *Service) ComputeDayAnalysis(ctx context.Context, q inbound.DayAnalysisQuery) (_ *analysis.DayAnalysis, err error) {
	defer s.track("day_analysis")(&err)
	if err := s.validator.Struct(q); err != nil {
		return nil, err
	}
	if err := s.authorizeDay(ctx, q.ActorID, q.DayID); err != nil {
		return nil, err
	}

	day, err := s.plans.LoadDay(ctx, q.DayID)
	if err != nil {
		return nil, apperr.Map(err, "plan day", "load plan day")
	}

	out := presentDay(analysis.AnalyzeDay(*day))
	return &out, nil
}

// ComputePlanAnalysis aggregates a plan and its day-to-day variability
func (s *Service) ComputePlanAnalysis(ctx context.Context, q inbound.PlanAnalysisQuery) (_ *analysis.PlanAnalysis, err error) {
	defer s.track("plan_analysis")(&err)
	if err := s.validator.Struct(q); err != nil {
		return nil, err
	}

	plan, err := s.loadPlan(ctx, q.ActorID, q.PlanID)
	if err != nil {
		return nil, err
	}

	out := presentPlan(analysis.AnalyzePlan(*plan))
	return &out, nil
}

// CompareToTargets compares the plan's daily average with targets
func (s *Service) CompareToTargets(ctx context.Context, q inbound.CompareTargetsQuery) (_ *analysis.Comparison, err error) {
	defer s.track("compare_targets")(&err)
	if err := s.validator.Struct(q); err != nil {
		return nil, err
	}

	plan, err := s.loadPlan(ctx, q.ActorID, q.PlanID)
	if err != nil {
		return nil, err
	}
	targets, err := resolveTargets(q.Targets, plan.Targets)
	if err != nil {
		return nil, err
	}
	if len(targets.Tracked()) == 0 {
		return nil, errors.NewValidationError("no positive targets given and the plan defines none")
	}

	out := presentComparison(analysis.CompareToTargets(analysis.AnalyzePlan(*plan), targets, s.cfg.Compliance))
	return &out, nil
}

// GenerateReport returns the plan analysis with its target comparison.
// Reports are cached per plan and targets, and identical concurrent
// requests share one computation.
func (s *Service) GenerateReport(ctx context.Context, q inbound.ReportQuery) (_ *inbound.ReportDTO, err error) {
	defer s.track("report")(&err)
	if err := s.validator.Struct(q); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, q.ActorID, q.PlanID); err != nil {
		return nil, err
	}
	requested, err := parseTargets(q.Targets)
	if err != nil {
		return nil, err
	}

	key := reportcache.Key(q.PlanID, requested)
	if data, ok := s.reports.Get(ctx, key); ok {
		var cached inbound.ReportDTO
		if err := json.Unmarshal(data, &cached); err == nil {
			s.cacheResult(true)
			return &cached, nil
		}
		s.logger.Warn("Discarding unreadable cached report", zap.String("key", key))
	}
	s.cacheResult(false)

	v, err, shared := s.flight.Do(key, func() (interface{}, error) {
		return s.buildReport(ctx, q.PlanID, requested, key)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("Report computation shared", zap.String("key", key))
	}
	report := *v.(*inbound.ReportDTO)
	return &report, nil
}

func (s *Service) buildReport(ctx context.Context, planID uuid.UUID, requested nutrition.Targets, key string) (*inbound.ReportDTO, error) {
	plan, err := s.plans.LoadPlan(ctx, planID)
	if err != nil {
		return nil, apperr.Map(err, "plan", "load plan")
	}

	targets := requested
	if len(targets.Tracked()) == 0 {
		targets = plan.Targets
	}

	a := analysis.AnalyzePlan(*plan)
	planAnalysis := presentPlan(a)
	report := &inbound.ReportDTO{
		PlanID:      plan.ID,
		Analysis:    &planAnalysis,
		GeneratedAt: s.now().UTC(),
	}
	if len(targets.Tracked()) > 0 {
		cmp := presentComparison(analysis.CompareToTargets(a, targets, s.cfg.Compliance))
		report.Comparison = &cmp
	}

	if data, err := json.Marshal(report); err == nil {
		s.reports.Put(ctx, plan.ID, key, data)
	} else {
		s.logger.Warn("Report not cacheable", zap.Error(err))
	}

	s.logger.Info("Report generated",
		zap.String("plan_id", plan.ID.String()),
		zap.Int("days", a.DayCount),
		zap.Bool("with_targets", report.Comparison != nil),
	)
	return report, nil
}

func (s *Service) cacheResult(hit bool) {
	if s.metrics != nil {
		s.metrics.ObserveCache(hit)
	}
}

// FindCombinations searches the catalog for food sets near the targets
func (s *Service) FindCombinations(ctx context.Context, cmd inbound.FindCombinationsCommand) (_ *inbound.CombinationsDTO, err error) {
	defer s.track("find_combinations")(&err)
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}

	criteria := optimization.SearchCriteria{
		TargetCalories: cmd.TargetCalories,
		Protein:        macroBounds(cmd.Protein),
		Carbohydrate:   macroBounds(cmd.Carbohydrate),
		Fat:            macroBounds(cmd.Fat),
		ExcludedTags:   cmd.ExcludedTags,
		MinItems:       cmd.MinItems,
		MaxItems:       cmd.MaxItems,
		MaxResults:     cmd.MaxResults,
	}
	for _, c := range cmd.AllowedCategories {
		category, err := nutrition.ParseCategory(c)
		if err != nil {
			return nil, apperr.Map(err, "", "")
		}
		criteria.AllowedCategories = append(criteria.AllowedCategories, category)
	}

	catalog, err := s.foods.ListFoods(ctx)
	if err != nil {
		return nil, apperr.Map(err, "food catalog", "list foods")
	}

	result, err := s.search.Search(catalog, criteria, rand.New(rand.NewSource(cmd.Seed)))
	if err != nil {
		return nil, apperr.Map(err, "", "search combinations")
	}

	out := &inbound.CombinationsDTO{
		Candidates: make([]inbound.CandidateDTO, 0, len(result.Candidates)),
		PoolSize:   result.PoolSize,
		Evaluated:  result.Evaluated,
	}
	converged := true
	for _, c := range result.Candidates {
		out.Candidates = append(out.Candidates, candidateDTO(c))
		converged = converged && c.Converged
	}
	if result.Warning != nil {
		best := 1.0
		if len(result.Candidates) > 0 {
			best = result.Candidates[0].Deviation
		}
		out.Warning = errors.NewUnresolvableTargetError(best, s.cfg.Search.Tolerance).WithCause(result.Warning)
	}
	if s.metrics != nil {
		s.metrics.ObserveOptimization("search", result.Evaluated, converged)
	}

	s.logger.Info("Combination search finished",
		zap.Float64("target_calories", cmd.TargetCalories),
		zap.Int("pool", result.PoolSize),
		zap.Int("candidates", len(out.Candidates)),
		zap.Bool("unresolved", out.Warning != nil),
	)
	return out, nil
}

// CheckCompatibility reports conflicts among catalog foods
func (s *Service) CheckCompatibility(ctx context.Context, q inbound.CompatibilityQuery) (_ *optimization.CompatibilityReport, err error) {
	defer s.track("check_compatibility")(&err)
	if err := s.validator.Struct(q); err != nil {
		return nil, err
	}

	foods, err := s.resolveFoods(ctx, q.FoodIDs)
	if err != nil {
		return nil, err
	}

	report := s.checker.Check(foods, q.ExcludedTags)
	return &report, nil
}

// SuggestComplementary ranks catalog foods that bring a partial meal
// closer to the targets.
func (s *Service) SuggestComplementary(ctx context.Context, q inbound.SuggestQuery) (_ []inbound.SuggestionDTO, err error) {
	defer s.track("suggest_complementary")(&err)
	if err := s.validator.Struct(q); err != nil {
		return nil, err
	}

	targets, err := parseTargets(q.Targets)
	if err != nil {
		return nil, err
	}
	base, err := s.resolveItems(ctx, q.Items)
	if err != nil {
		return nil, err
	}
	catalog, err := s.foods.ListFoods(ctx)
	if err != nil {
		return nil, apperr.Map(err, "food catalog", "list foods")
	}

	filter := optimization.CatalogFilter{ExcludedTags: q.ExcludedTags}
	for _, b := range base {
		filter.ExcludeIDs = append(filter.ExcludeIDs, b.Food.ID)
	}
	suggestions, err := s.search.Suggest(base, optimization.FilterCatalog(catalog, filter), targets, q.Limit)
	if err != nil {
		return nil, apperr.Map(err, "", "suggest foods")
	}

	out := make([]inbound.SuggestionDTO, len(suggestions))
	for i, sg := range suggestions {
		out[i] = inbound.SuggestionDTO{
			Item:   items([]nutrition.FoodProfile{sg.Food}, []float64{sg.Grams})[0],
			Totals: sg.Totals.Rounded(),
			Score:  round4(sg.Score),
		}
	}
	return out, nil
}

// OptimizeProportions computes gram quantities for a fixed food list
func (s *Service) OptimizeProportions(ctx context.Context, cmd inbound.OptimizeProportionsCommand) (_ *inbound.ProportionDTO, err error) {
	defer s.track("optimize_proportions")(&err)
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}

	targets, err := parseTargets(cmd.Targets)
	if err != nil {
		return nil, err
	}
	foods, err := s.resolveFoods(ctx, cmd.FoodIDs)
	if err != nil {
		return nil, err
	}

	result, err := s.optimizer.Optimize(foods, targets, cmd.StartGrams)
	if err != nil {
		return nil, apperr.Map(err, "", "optimize proportions")
	}
	if s.metrics != nil {
		s.metrics.ObserveOptimization("proportion", result.Iterations, result.Converged)
	}

	deviations := make(map[nutrition.Nutrient]float64, len(result.Deviations))
	for n, d := range result.Deviations {
		deviations[n] = round4(d)
	}
	out := &inbound.ProportionDTO{
		Items:      items(foods, result.Quantities),
		Achieved:   result.Achieved.Rounded(),
		Deviations: deviations,
		Error:      round4(result.Error),
		Iterations: result.Iterations,
		Converged:  result.Converged,
	}
	if result.Warning != nil {
		out.Warning = errors.NewUnresolvableTargetError(result.Error, s.cfg.Proportion.Tolerance).WithCause(result.Warning)
		s.logger.Info("Proportions not resolved within tolerance",
			zap.Float64("error", result.Error),
			zap.Int("iterations", result.Iterations),
		)
	}
	return out, nil
}

// GenerateVariations derives nutritionally bounded variants of a recipe
func (s *Service) GenerateVariations(ctx context.Context, cmd inbound.GenerateVariationsCommand) (_ *inbound.VariationsDTO, err error) {
	defer s.track("generate_variations")(&err)
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}

	base, err := s.recipes.FindByID(ctx, cmd.RecipeID)
	if err != nil {
		return nil, apperr.Map(err, "recipe", "load recipe")
	}
	catalog, err := s.foods.ListFoods(ctx)
	if err != nil {
		return nil, apperr.Map(err, "food catalog", "list foods")
	}

	variations, err := s.variations.Generate(base, catalog, optimization.VariationRequest{
		Count:        cmd.Count,
		ExcludedTags: cmd.ExcludedTags,
	}, rand.New(rand.NewSource(cmd.Seed)))
	if err != nil {
		return nil, apperr.Map(err, "", "generate variations")
	}

	out := &inbound.VariationsDTO{
		BaseRecipeID: base.ID(),
		Requested:    cmd.Count,
		Variations:   make([]inbound.VariationDTO, 0, len(variations)),
	}
	for _, v := range variations {
		if cmd.Persist {
			if err := s.recipes.Save(ctx, v.Recipe); err != nil {
				return nil, apperr.Map(err, "recipe", "save recipe variation")
			}
		}
		out.Variations = append(out.Variations, inbound.VariationDTO{
			RecipeID:     v.Recipe.ID(),
			Name:         v.Recipe.Name(),
			Strategy:     v.Strategy,
			Substitution: v.Substitution,
			Items:        bindingItems(v.Recipe.Items()),
			Totals:       v.Recipe.Totals().Rounded(),
			Error:        round4(v.Error),
		})
	}

	s.logger.Info("Recipe variations generated",
		zap.String("recipe_id", base.ID().String()),
		zap.Int("requested", cmd.Count),
		zap.Int("generated", len(out.Variations)),
		zap.Bool("persisted", cmd.Persist),
	)
	return out, nil
}

// resolveFoods loads foods in the requested order; duplicates are allowed
func (s *Service) resolveFoods(ctx context.Context, ids []uuid.UUID) ([]nutrition.FoodProfile, error) {
	found, err := s.foods.FindFoods(ctx, ids)
	if err != nil {
		return nil, apperr.Map(err, "food", "find foods")
	}
	byID := make(map[uuid.UUID]nutrition.FoodProfile, len(found))
	for _, f := range found {
		byID[f.ID] = f
	}

	out := make([]nutrition.FoodProfile, len(ids))
	for i, id := range ids {
		f, ok := byID[id]
		if !ok {
			return nil, errors.NewNotFoundError("food").WithMetadata("food_id", id.String())
		}
		out[i] = f
	}
	return out, nil
}

func (s *Service) resolveItems(ctx context.Context, in []inbound.ItemInput) ([]nutrition.QuantityBinding, error) {
	if len(in) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, len(in))
	grams := make([]float64, len(in))
	for i, item := range in {
		ids[i] = item.FoodID
		grams[i] = item.Grams
	}
	foods, err := s.resolveFoods(ctx, ids)
	if err != nil {
		return nil, err
	}
	return nutrition.Bind(foods, grams), nil
}

func parseTargets(in map[string]float64) (nutrition.Targets, error) {
	out := nutrition.Targets{}
	for name, v := range in {
		n, err := nutrition.ParseNutrient(name)
		if err != nil {
			return nil, apperr.Map(err, "", "")
		}
		out[n] = v
	}
	if err := out.Validate(); err != nil {
		return nil, apperr.Map(err, "", "")
	}
	return out, nil
}

// resolveTargets prefers explicit targets over the plan's own
func resolveTargets(in map[string]float64, fallback nutrition.Targets) (nutrition.Targets, error) {
	targets, err := parseTargets(in)
	if err != nil {
		return nil, err
	}
	if len(targets.Tracked()) == 0 && fallback != nil {
		return fallback, nil
	}
	return targets, nil
}

func macroBounds(in *inbound.MacroRangeInput) optimization.MacroBounds {
	if in == nil {
		return optimization.MacroBounds{}
	}
	return optimization.MacroBounds{Min: in.Min, Max: in.Max}
}
