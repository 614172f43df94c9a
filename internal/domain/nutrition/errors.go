package nutrition

import "errors"

var (
	ErrInvalidGrams     = errors.New("grams must be greater than 0")
	ErrUnknownCategory  = errors.New("unknown food category")
	ErrUnknownNutrient  = errors.New("unknown nutrient")
	ErrEmptyFoodName    = errors.New("food name is required")
	ErrNegativeNutrient = errors.New("nutrient values cannot be negative")
)
