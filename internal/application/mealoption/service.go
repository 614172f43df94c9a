// Package mealoption provides the application layer for meal slot
// management. Every change runs inside one repository transaction.
package mealoption

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/application/apperr"
	"github.com/nutriplan/engine/internal/application/reportcache"
	"github.com/nutriplan/engine/internal/application/validation"
	"github.com/nutriplan/engine/internal/domain/mealplan"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/nutriplan/engine/internal/domain/shared"
	"github.com/nutriplan/engine/internal/ports/inbound"
	"github.com/nutriplan/engine/internal/ports/outbound"
	"github.com/nutriplan/engine/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Dependencies groups the outbound ports the service uses
type Dependencies struct {
	Options outbound.MealOptionRepository
	Plans   outbound.PlanRepository
	Foods   outbound.FoodCatalog
	Recipes outbound.RecipeRepository
	Access  outbound.AccessPolicy
	Cache   outbound.CacheRepository
	Metrics outbound.EngineMetrics
}

// Service implements inbound.MealOptionService
type Service struct {
	options outbound.MealOptionRepository
	plans   outbound.PlanRepository
	foods   outbound.FoodCatalog
	recipes outbound.RecipeRepository
	access  outbound.AccessPolicy
	metrics outbound.EngineMetrics
	reports *reportcache.Index

	validator *validation.Validator
	now       func() time.Time
	logger    *zap.Logger
}

// NewService creates the meal option service
func NewService(deps Dependencies, reportTTL time.Duration, logger *zap.Logger) *Service {
	return &Service{
		options:   deps.Options,
		plans:     deps.Plans,
		foods:     deps.Foods,
		recipes:   deps.Recipes,
		access:    deps.Access,
		metrics:   deps.Metrics,
		reports:   reportcache.New(deps.Cache, reportTTL, logger),
		validator: validation.New(),
		now:       time.Now,
		logger:    logger.Named("meal-option-service"),
	}
}

var _ inbound.MealOptionService = (*Service)(nil)

// authorizeDay resolves the day's plan and checks the actor may edit it
func (s *Service) authorizeDay(ctx context.Context, actorID, dayID uuid.UUID) (uuid.UUID, error) {
	planID, err := s.plans.FindDay(ctx, dayID)
	if err != nil {
		return uuid.Nil, apperr.Map(err, "plan day", "find plan day")
	}
	ok, err := s.access.CanAccessPlan(ctx, actorID, planID)
	if err != nil {
		return uuid.Nil, errors.NewDatabaseError("check plan access", err)
	}
	if !ok {
		s.logger.Warn("Plan access denied",
			zap.String("actor_id", actorID.String()),
			zap.String("plan_id", planID.String()),
		)
		return uuid.Nil, errors.NewPermissionError("plan", actorID.String())
	}
	return planID, nil
}

// AddMealOption fills the next free position of a slot
func (s *Service) AddMealOption(ctx context.Context, cmd inbound.AddMealOptionCommand) (*inbound.MealOptionDTO, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}
	mealType, err := mealplan.ParseMealType(cmd.MealType)
	if err != nil {
		return nil, apperr.Map(err, "", "")
	}
	planID, err := s.authorizeDay(ctx, cmd.ActorID, cmd.DayID)
	if err != nil {
		return nil, err
	}

	payload, err := s.payload(ctx, cmd)
	if err != nil {
		return nil, err
	}

	var (
		option *mealplan.MealOption
		events []shared.DomainEvent
	)
	err = s.options.WithinTx(ctx, func(tx outbound.MealOptionRepository) error {
		slot, err := s.loadSlot(ctx, tx, cmd.DayID, mealType)
		if err != nil {
			return err
		}
		option, err = slot.Add(payload, cmd.Label, s.now().UTC())
		if err != nil {
			return err
		}
		if err := tx.Insert(ctx, option); err != nil {
			return err
		}
		events = slot.Events()
		return nil
	})
	if err != nil {
		mapped := apperr.Map(err, "meal option", "add meal option")
		if errors.Is(mapped, errors.CodeLimitExceeded) {
			s.logger.Info("Meal slot is full",
				zap.String("day_id", cmd.DayID.String()),
				zap.String("meal_type", string(mealType)),
			)
		}
		return nil, mapped
	}

	s.afterChange(ctx, planID, "add", events)
	if cmd.RecipeID != nil {
		option.Recipe, _ = s.recipes.FindByID(ctx, *cmd.RecipeID)
	}
	dto := toDTO(option)
	return &dto, nil
}

// DeleteMealOption removes an option and renumbers the slot
func (s *Service) DeleteMealOption(ctx context.Context, cmd inbound.DeleteMealOptionCommand) ([]inbound.MealOptionDTO, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}

	target, err := s.options.FindByID(ctx, cmd.OptionID)
	if err != nil {
		return nil, apperr.Map(err, "meal option", "find meal option")
	}
	planID, err := s.authorizeDay(ctx, cmd.ActorID, target.DayID)
	if err != nil {
		return nil, err
	}

	var (
		remaining []*mealplan.MealOption
		events    []shared.DomainEvent
	)
	err = s.options.WithinTx(ctx, func(tx outbound.MealOptionRepository) error {
		slot, err := s.loadSlot(ctx, tx, target.DayID, target.MealType)
		if err != nil {
			return err
		}
		removed, changed, err := slot.Remove(cmd.OptionID, s.now().UTC())
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, removed.ID); err != nil {
			return err
		}
		if len(changed) > 0 {
			if err := tx.UpdateNumbers(ctx, changed); err != nil {
				return err
			}
		}
		remaining = slot.Options()
		events = slot.Events()
		return nil
	})
	if err != nil {
		return nil, apperr.Map(err, "meal option", "delete meal option")
	}

	s.afterChange(ctx, planID, "delete", events)
	return s.dtos(ctx, remaining), nil
}

// ReorderMealOptions assigns positions following the given id order
func (s *Service) ReorderMealOptions(ctx context.Context, cmd inbound.ReorderMealOptionsCommand) ([]inbound.MealOptionDTO, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}
	mealType, err := mealplan.ParseMealType(cmd.MealType)
	if err != nil {
		return nil, apperr.Map(err, "", "")
	}
	planID, err := s.authorizeDay(ctx, cmd.ActorID, cmd.DayID)
	if err != nil {
		return nil, err
	}

	var (
		ordered []*mealplan.MealOption
		events  []shared.DomainEvent
	)
	err = s.options.WithinTx(ctx, func(tx outbound.MealOptionRepository) error {
		slot, err := s.loadSlot(ctx, tx, cmd.DayID, mealType)
		if err != nil {
			return err
		}
		changed, err := slot.Reorder(cmd.OrderedIDs, s.now().UTC())
		if err != nil {
			return err
		}
		if len(changed) > 0 {
			if err := tx.UpdateNumbers(ctx, changed); err != nil {
				return err
			}
		}
		ordered = slot.Options()
		events = slot.Events()
		return nil
	})
	if err != nil {
		return nil, apperr.Map(err, "meal option", "reorder meal options")
	}

	s.afterChange(ctx, planID, "reorder", events)
	return s.dtos(ctx, ordered), nil
}

// ListMealOptions returns a slot's options in position order
func (s *Service) ListMealOptions(ctx context.Context, q inbound.ListMealOptionsQuery) ([]inbound.MealOptionDTO, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, err
	}
	mealType, err := mealplan.ParseMealType(q.MealType)
	if err != nil {
		return nil, apperr.Map(err, "", "")
	}
	if _, err := s.authorizeDay(ctx, q.ActorID, q.DayID); err != nil {
		return nil, err
	}

	slot, err := s.loadSlot(ctx, s.options, q.DayID, mealType)
	if err != nil {
		return nil, apperr.Map(err, "meal option", "list meal options")
	}
	return s.dtos(ctx, slot.Options()), nil
}

func (s *Service) loadSlot(ctx context.Context, repo outbound.MealOptionRepository, dayID uuid.UUID, mealType mealplan.MealType) (*mealplan.Slot, error) {
	current, err := repo.ListSlot(ctx, dayID, mealType)
	if err != nil {
		return nil, err
	}
	return mealplan.LoadSlot(dayID, mealType, current)
}

// payload resolves item foods or checks the recipe exists
func (s *Service) payload(ctx context.Context, cmd inbound.AddMealOptionCommand) (mealplan.OptionPayload, error) {
	p := mealplan.OptionPayload{RecipeID: cmd.RecipeID}
	if len(cmd.Items) > 0 {
		ids := make([]uuid.UUID, len(cmd.Items))
		for i, item := range cmd.Items {
			ids[i] = item.FoodID
		}
		found, err := s.foods.FindFoods(ctx, ids)
		if err != nil {
			return p, apperr.Map(err, "food", "find foods")
		}
		byID := make(map[uuid.UUID]nutrition.FoodProfile, len(found))
		for _, f := range found {
			byID[f.ID] = f
		}
		for _, item := range cmd.Items {
			food, ok := byID[item.FoodID]
			if !ok {
				return p, errors.NewNotFoundError("food").WithMetadata("food_id", item.FoodID.String())
			}
			p.Items = append(p.Items, nutrition.QuantityBinding{Food: food, Grams: item.Grams})
		}
	}
	if err := p.Validate(); err != nil {
		return p, apperr.Map(err, "", "")
	}
	if p.RecipeID != nil {
		if _, err := s.recipes.FindByID(ctx, *p.RecipeID); err != nil {
			return p, apperr.Map(err, "recipe", "load recipe")
		}
	}
	return p, nil
}

// afterChange drops cached reports of the plan and records the events
func (s *Service) afterChange(ctx context.Context, planID uuid.UUID, action string, events []shared.DomainEvent) {
	s.reports.Invalidate(ctx, planID)
	if s.metrics != nil {
		s.metrics.ObserveSlotChange(action)
	}
	for _, e := range events {
		s.logger.Info("Meal slot changed",
			zap.String("event", e.EventName()),
			zap.String("plan_id", planID.String()),
			zap.Time("occurred_at", e.OccurredAt()),
		)
	}
}

func (s *Service) dtos(ctx context.Context, options []*mealplan.MealOption) []inbound.MealOptionDTO {
	out := make([]inbound.MealOptionDTO, 0, len(options))
	for _, o := range options {
		if o.RecipeID != nil && o.Recipe == nil {
			r, err := s.recipes.FindByID(ctx, *o.RecipeID)
			if err != nil {
				s.logger.Warn("Recipe of meal option could not be loaded",
					zap.String("option_id", o.ID.String()),
					zap.Error(err),
				)
			}
			o.Recipe = r
		}
		out = append(out, toDTO(o))
	}
	return out
}

func toDTO(o *mealplan.MealOption) inbound.MealOptionDTO {
	dto := inbound.MealOptionDTO{
		ID:            o.ID,
		DayID:         o.DayID,
		MealType:      o.MealType,
		Number:        o.Number,
		IsAlternative: o.IsAlternative,
		Label:         o.Label,
		RecipeID:      o.RecipeID,
		Totals:        o.Totals().Rounded(),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	for _, b := range o.Items {
		dto.Items = append(dto.Items, inbound.ItemDTO{
			FoodID:   b.Food.ID,
			Name:     b.Food.Name,
			Category: b.Food.Category,
			Grams:    decimal.NewFromFloat(b.Grams).Round(1).InexactFloat64(),
		})
	}
	return dto
}
