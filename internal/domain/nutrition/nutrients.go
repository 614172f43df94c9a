// Package nutrition holds the food catalog value objects and the
// aggregation rules that turn gram quantities into nutrient totals.
package nutrition

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Nutrient identifies one tracked nutrient
type Nutrient string

const (
	Calories     Nutrient = "calories"
	Protein      Nutrient = "protein"
	Carbohydrate Nutrient = "carbohydrate"
	Fat          Nutrient = "fat"
	Fiber        Nutrient = "fiber"
	Sugar        Nutrient = "sugar"
	Sodium       Nutrient = "sodium"
	Potassium    Nutrient = "potassium"
	Calcium      Nutrient = "calcium"
	Iron         Nutrient = "iron"
	VitaminA     Nutrient = "vitamin_a"
	VitaminC     Nutrient = "vitamin_c"
)

// Macronutrients lists calories and the three energy-yielding macros
var Macronutrients = []Nutrient{Calories, Protein, Carbohydrate, Fat}

// AllNutrients lists every nutrient in presentation order
var AllNutrients = []Nutrient{
	Calories, Protein, Carbohydrate, Fat,
	Fiber, Sugar, Sodium, Potassium, Calcium, Iron, VitaminA, VitaminC,
}

// ParseNutrient converts a name into a Nutrient
func ParseNutrient(s string) (Nutrient, error) {
	for _, n := range AllNutrients {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownNutrient, s)
}

// NutrientTotals is a derived nutrient vector. Micronutrients a food does
// not declare are zero. Values are never rounded internally.
type NutrientTotals struct {
	Calories     float64 `json:"calories"`
	Protein      float64 `json:"protein"`
	Carbohydrate float64 `json:"carbohydrate"`
	Fat          float64 `json:"fat"`
	Fiber        float64 `json:"fiber"`
	Sugar        float64 `json:"sugar"`
	Sodium       float64 `json:"sodium"`
	Potassium    float64 `json:"potassium"`
	Calcium      float64 `json:"calcium"`
	Iron         float64 `json:"iron"`
	VitaminA     float64 `json:"vitamin_a"`
	VitaminC     float64 `json:"vitamin_c"`
}

// Get returns the value for a nutrient
func (t NutrientTotals) Get(n Nutrient) float64 {
	switch n {
	case Calories:
		return t.Calories
	case Protein:
		return t.Protein
	case Carbohydrate:
		return t.Carbohydrate
	case Fat:
		return t.Fat
	case Fiber:
		return t.Fiber
	case Sugar:
		return t.Sugar
	case Sodium:
		return t.Sodium
	case Potassium:
		return t.Potassium
	case Calcium:
		return t.Calcium
	case Iron:
		return t.Iron
	case VitaminA:
		return t.VitaminA
	case VitaminC:
		return t.VitaminC
	}
	return 0
}

// With returns a copy with one nutrient replaced
func (t NutrientTotals) With(n Nutrient, v float64) NutrientTotals {
	switch n {
	case Calories:
		t.Calories = v
	case Protein:
		t.Protein = v
	case Carbohydrate:
		t.Carbohydrate = v
	case Fat:
		t.Fat = v
	case Fiber:
		t.Fiber = v
	case Sugar:
		t.Sugar = v
	case Sodium:
		t.Sodium = v
	case Potassium:
		t.Potassium = v
	case Calcium:
		t.Calcium = v
	case Iron:
		t.Iron = v
	case VitaminA:
		t.VitaminA = v
	case VitaminC:
		t.VitaminC = v
	}
	return t
}

// Add returns the element-wise sum
func (t NutrientTotals) Add(o NutrientTotals) NutrientTotals {
	return t.combine(o, func(a, b float64) float64 { return a + b })
}

// Sub returns the element-wise difference
func (t NutrientTotals) Sub(o NutrientTotals) NutrientTotals {
	return t.combine(o, func(a, b float64) float64 { return a - b })
}

// Scale multiplies every nutrient by factor
func (t NutrientTotals) Scale(factor float64) NutrientTotals {
	return t.combine(NutrientTotals{}, func(a, _ float64) float64 { return a * factor })
}

func (t NutrientTotals) combine(o NutrientTotals, fn func(a, b float64) float64) NutrientTotals {
	var out NutrientTotals
	for _, n := range AllNutrients {
		out = out.With(n, fn(t.Get(n), o.Get(n)))
	}
	return out
}

// IsZero reports whether every nutrient is zero
func (t NutrientTotals) IsZero() bool {
	return t == NutrientTotals{}
}

// Map returns the vector keyed by nutrient
func (t NutrientTotals) Map() map[Nutrient]float64 {
	m := make(map[Nutrient]float64, len(AllNutrients))
	for _, n := range AllNutrients {
		m[n] = t.Get(n)
	}
	return m
}

// FromMap builds totals from a nutrient map; unknown keys are ignored
func FromMap(m map[Nutrient]float64) NutrientTotals {
	var t NutrientTotals
	for n, v := range m {
		t = t.With(n, v)
	}
	return t
}

// Rounded applies the presentation rounding policy: calories to the
// nearest integer, everything else to one decimal place.
func (t NutrientTotals) Rounded() NutrientTotals {
	var out NutrientTotals
	for _, n := range AllNutrients {
		out = out.With(n, RoundValue(n, t.Get(n)))
	}
	return out
}

// RoundValue rounds a single nutrient value for presentation
func RoundValue(n Nutrient, v float64) float64 {
	places := int32(1)
	if n == Calories {
		places = 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
