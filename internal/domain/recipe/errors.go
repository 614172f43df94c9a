package recipe

import "errors"

// Domain errors for recipe operations

var (
	ErrNameRequired    = errors.New("recipe name is required")
	ErrNameTooLong     = errors.New("recipe name must not exceed 200 characters")
	ErrNoItems         = errors.New("recipe must have at least one item")
	ErrInvalidServings = errors.New("servings cannot be negative")
	ErrInvalidTiming   = errors.New("preparation times cannot be negative")
	ErrDuplicateFood   = errors.New("food appears more than once in recipe")
)
