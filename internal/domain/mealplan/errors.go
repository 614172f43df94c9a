package mealplan

import "errors"

var (
	ErrUnknownMealType  = errors.New("unknown meal type")
	ErrLimitExceeded    = errors.New("meal slot already holds the maximum number of options")
	ErrOptionNotFound   = errors.New("meal option not found in slot")
	ErrInvalidPayload   = errors.New("meal option needs either items or a recipe")
	ErrNotAPermutation  = errors.New("ordered ids must be a permutation of the slot's options")
	ErrInconsistentSlot = errors.New("persisted meal slot violates numbering invariant")
	ErrLabelTooLong     = errors.New("option label must not exceed 100 characters")
)
