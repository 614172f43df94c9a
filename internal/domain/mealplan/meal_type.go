package mealplan

import (
	"fmt"
	"strings"
)

// MealType identifies a meal within a day
type MealType string

const (
	MealBreakfast      MealType = "DESAYUNO"
	MealMorningSnack   MealType = "COLACION_MATUTINA"
	MealLunch          MealType = "ALMUERZO"
	MealAfternoonSnack MealType = "COLACION_VESPERTINA"
	MealDinner         MealType = "CENA"
	MealNightSnack     MealType = "COLACION_NOCTURNA"
)

// MealTypes lists meal types in day order
var MealTypes = []MealType{
	MealBreakfast, MealMorningSnack, MealLunch, MealAfternoonSnack, MealDinner, MealNightSnack,
}

// ParseMealType validates a meal type name
func ParseMealType(s string) (MealType, error) {
	m := MealType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range MealTypes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMealType, s)
}

// Order is the position of the meal type within a day
func (m MealType) Order() int {
	for i, known := range MealTypes {
		if m == known {
			return i
		}
	}
	return len(MealTypes)
}
