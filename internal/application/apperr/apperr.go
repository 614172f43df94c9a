// Package apperr maps domain and repository errors onto pkg/errors codes
package apperr

import (
	stderrors "errors"

	"github.com/nutriplan/engine/internal/domain/mealplan"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/nutriplan/engine/internal/domain/optimization"
	"github.com/nutriplan/engine/internal/domain/recipe"
	"github.com/nutriplan/engine/internal/ports/outbound"
	"github.com/nutriplan/engine/pkg/errors"
)

var validationErrors = []error{
	nutrition.ErrInvalidGrams,
	nutrition.ErrUnknownCategory,
	nutrition.ErrUnknownNutrient,
	nutrition.ErrEmptyFoodName,
	nutrition.ErrNegativeNutrient,
	optimization.ErrInvalidCriteria,
	optimization.ErrInvalidBounds,
	optimization.ErrNoFoods,
	optimization.ErrNoTargets,
	optimization.ErrStartMismatch,
	optimization.ErrInvalidCount,
	mealplan.ErrUnknownMealType,
	mealplan.ErrInvalidPayload,
	mealplan.ErrNotAPermutation,
	mealplan.ErrLabelTooLong,
	recipe.ErrNameRequired,
	recipe.ErrNameTooLong,
	recipe.ErrNoItems,
	recipe.ErrInvalidServings,
	recipe.ErrInvalidTiming,
	recipe.ErrDuplicateFood,
}

// Map converts err into an AppError. resource names what was being
// looked up and op what was being attempted, for not-found and database
// failures respectively.
func Map(err error, resource, op string) error {
	if err == nil {
		return nil
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	for _, target := range validationErrors {
		if stderrors.Is(err, target) {
			return errors.NewValidationError(err.Error()).WithCause(err)
		}
	}

	switch {
	case stderrors.Is(err, mealplan.ErrLimitExceeded), stderrors.Is(err, outbound.ErrDuplicate):
		return errors.NewLimitExceededError("meal slot", mealplan.MaxOptionsPerSlot).WithCause(err)
	case stderrors.Is(err, mealplan.ErrOptionNotFound):
		return errors.NewNotFoundError("meal option").WithCause(err)
	case stderrors.Is(err, outbound.ErrNotFound):
		return errors.NewNotFoundError(resource).WithCause(err)
	case stderrors.Is(err, mealplan.ErrInconsistentSlot):
		return errors.NewInternalError("meal slot numbering is inconsistent").WithCause(err)
	default:
		return errors.NewDatabaseError(op, err)
	}
}
