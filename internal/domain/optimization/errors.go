package optimization

import "errors"

var (
	ErrInvalidCriteria    = errors.New("invalid search criteria")
	ErrInvalidBounds      = errors.New("quantity bounds must satisfy 0 < min < max")
	ErrNoFoods            = errors.New("at least one food is required")
	ErrNoTargets          = errors.New("at least one positive target is required")
	ErrStartMismatch      = errors.New("start quantities must match the food list")
	ErrInvalidCount       = errors.New("variation count must be positive")
	ErrUnresolvableTarget = errors.New("target could not be reached within tolerance")
)
