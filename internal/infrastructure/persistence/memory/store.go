package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/mealplan"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/nutriplan/engine/internal/domain/recipe"
	"github.com/nutriplan/engine/internal/ports/outbound"
)

// Store keeps foods, recipes, plans and meal options in process memory.
// It implements the storage ports directly or through the Recipes and
// Options views, and enforces the same
// (day, meal type, option number) uniqueness as the SQL schema.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	foods   map[uuid.UUID]nutrition.FoodProfile
	recipes map[uuid.UUID]*recipe.Recipe
	plans   map[uuid.UUID]*mealplan.PlanSnapshot // days carry no options
	days    map[uuid.UUID]uuid.UUID              // day id -> plan id
	options map[uuid.UUID]*mealplan.MealOption
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		foods:   make(map[uuid.UUID]nutrition.FoodProfile),
		recipes: make(map[uuid.UUID]*recipe.Recipe),
		plans:   make(map[uuid.UUID]*mealplan.PlanSnapshot),
		days:    make(map[uuid.UUID]uuid.UUID),
		options: make(map[uuid.UUID]*mealplan.MealOption),
	}
}

var (
	_ outbound.FoodCatalog          = (*Store)(nil)
	_ outbound.PlanRepository       = (*Store)(nil)
	_ outbound.AccessPolicy         = (*Store)(nil)
	_ outbound.RecipeRepository     = RecipeRepository{}
	_ outbound.MealOptionRepository = MealOptionRepository{}
)

// RecipeRepository is the recipe view of a Store
type RecipeRepository struct {
	s *Store
}

// Recipes returns the store's recipe repository
func (s *Store) Recipes() RecipeRepository {
	return RecipeRepository{s: s}
}

// MealOptionRepository is the meal option view of a Store
type MealOptionRepository struct {
	s *Store
}

// Options returns the store's meal option repository
func (s *Store) Options() MealOptionRepository {
	return MealOptionRepository{s: s}
}

// ListFoods returns every food ordered by name
func (s *Store) ListFoods(ctx context.Context) ([]nutrition.FoodProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]nutrition.FoodProfile, 0, len(s.foods))
	for _, f := range s.foods {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b nutrition.FoodProfile) int {
		if a.Name != b.Name {
			if a.Name < b.Name {
				return -1
			}
			return 1
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return out, nil
}

// FindFoods returns the known foods among ids
func (s *Store) FindFoods(ctx context.Context, ids []uuid.UUID) ([]nutrition.FoodProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]nutrition.FoodProfile, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if f, ok := s.foods[id]; ok && !seen[id] {
			out = append(out, f)
			seen[id] = true
		}
	}
	return out, nil
}

// UpsertFoods inserts or replaces foods by id
func (s *Store) UpsertFoods(ctx context.Context, foods []nutrition.FoodProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range foods {
		s.foods[f.ID] = f
	}
	return nil
}

// Count returns the number of foods
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.foods)), nil
}

// FindByID returns a recipe
func (r RecipeRepository) FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.recipes[id]
	if !ok {
		return nil, fmt.Errorf("recipe %s: %w", id, outbound.ErrNotFound)
	}
	return rec, nil
}

// Save stores a recipe
func (r RecipeRepository) Save(ctx context.Context, rec *recipe.Recipe) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recipes[rec.ID()] = rec
	return nil
}

// SavePlan stores a plan with its days and options
func (s *Store) SavePlan(ctx context.Context, plan *mealplan.PlanSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *plan
	stored.Days = make([]mealplan.DaySnapshot, len(plan.Days))
	for i, d := range plan.Days {
		d.PlanID = plan.ID
		for _, o := range d.Options {
			if err := s.insertLocked(o); err != nil {
				return err
			}
		}
		d.Options = nil
		stored.Days[i] = d
		s.days[d.ID] = plan.ID
	}
	s.plans[plan.ID] = &stored
	return nil
}

// LoadPlan assembles the plan snapshot
func (s *Store) LoadPlan(ctx context.Context, planID uuid.UUID) (*mealplan.PlanSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[planID]
	if !ok {
		return nil, fmt.Errorf("plan %s: %w", planID, outbound.ErrNotFound)
	}
	out := *p
	out.Targets = make(nutrition.Targets, len(p.Targets))
	for k, v := range p.Targets {
		out.Targets[k] = v
	}
	out.Days = make([]mealplan.DaySnapshot, len(p.Days))
	for i, d := range p.Days {
		out.Days[i] = s.dayLocked(d)
	}
	slices.SortFunc(out.Days, func(a, b mealplan.DaySnapshot) int { return a.Index - b.Index })
	return &out, nil
}

// LoadDay assembles one day with its options
func (s *Store) LoadDay(ctx context.Context, dayID uuid.UUID) (*mealplan.DaySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	planID, ok := s.days[dayID]
	if !ok {
		return nil, fmt.Errorf("day %s: %w", dayID, outbound.ErrNotFound)
	}
	for _, d := range s.plans[planID].Days {
		if d.ID == dayID {
			day := s.dayLocked(d)
			return &day, nil
		}
	}
	return nil, fmt.Errorf("day %s: %w", dayID, outbound.ErrNotFound)
}

// LoadMeal returns one option with its recipe resolved
func (s *Store) LoadMeal(ctx context.Context, optionID uuid.UUID) (*mealplan.MealOption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.options[optionID]
	if !ok {
		return nil, fmt.Errorf("meal option %s: %w", optionID, outbound.ErrNotFound)
	}
	return s.resolvedLocked(o), nil
}

// FindDay resolves the plan of a day
func (s *Store) FindDay(ctx context.Context, dayID uuid.UUID) (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	planID, ok := s.days[dayID]
	if !ok {
		return uuid.Nil, fmt.Errorf("day %s: %w", dayID, outbound.ErrNotFound)
	}
	return planID, nil
}

// CanAccessPlan allows the plan's patient and nutritionist
func (s *Store) CanAccessPlan(ctx context.Context, actorID, planID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[planID]
	if !ok {
		return false, nil
	}
	return actorID == p.PatientID || actorID == p.NutritionistID, nil
}

func (s *Store) dayLocked(d mealplan.DaySnapshot) mealplan.DaySnapshot {
	d.Options = nil
	for _, o := range s.options {
		if o.DayID == d.ID {
			d.Options = append(d.Options, s.resolvedLocked(o))
		}
	}
	sortOptions(d.Options)
	return d
}

func (s *Store) resolvedLocked(o *mealplan.MealOption) *mealplan.MealOption {
	c := cloneOption(o)
	if c.RecipeID != nil {
		c.Recipe = s.recipes[*c.RecipeID]
	}
	return c
}

func sortOptions(options []*mealplan.MealOption) {
	slices.SortFunc(options, func(a, b *mealplan.MealOption) int {
		if a.MealType != b.MealType {
			return a.MealType.Order() - b.MealType.Order()
		}
		return a.Number - b.Number
	})
}

func cloneOption(o *mealplan.MealOption) *mealplan.MealOption {
	c := *o
	c.Items = append([]nutrition.QuantityBinding(nil), o.Items...)
	if o.RecipeID != nil {
		id := *o.RecipeID
		c.RecipeID = &id
	}
	c.Recipe = nil
	return &c
}
