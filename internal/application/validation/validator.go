// Package validation checks inbound commands before they reach the engine
package validation

import (
	stderrors "errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/nutriplan/engine/internal/domain/mealplan"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/nutriplan/engine/pkg/errors"
)

// Validator wraps go-playground/validator with the engine's enum rules
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the custom rules registered
func New() *Validator {
	v := validator.New()

	// Registration only fails for empty tags or nil funcs
	_ = v.RegisterValidation("meal_type", validateMealType)
	_ = v.RegisterValidation("nutrient", validateNutrient)
	_ = v.RegisterValidation("category", validateCategory)

	return &Validator{validate: v}
}

// Struct validates s and converts failures into a VALIDATION_FAILED AppError
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.NewValidationError(err.Error())
	}

	out := make([]errors.ValidationError, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, errors.ValidationError{
			Field:   e.Namespace(),
			Value:   e.Value(),
			Tag:     e.Tag(),
			Message: message(e),
		})
	}
	return errors.NewValidationErrors(out)
}

func message(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, e.Param())
	case "meal_type":
		return fmt.Sprintf("%s is not a known meal type", field)
	case "nutrient":
		return fmt.Sprintf("%q is not a known nutrient", e.Value())
	case "category":
		return fmt.Sprintf("%q is not a known food category", e.Value())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func validateMealType(fl validator.FieldLevel) bool {
	_, err := mealplan.ParseMealType(fl.Field().String())
	return err == nil
}

func validateNutrient(fl validator.FieldLevel) bool {
	_, err := nutrition.ParseNutrient(fl.Field().String())
	return err == nil
}

func validateCategory(fl validator.FieldLevel) bool {
	_, err := nutrition.ParseCategory(fl.Field().String())
	return err == nil
}
