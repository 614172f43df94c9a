package nutrition

import "fmt"

// Targets holds optional daily objectives per nutrient. Only positive
// entries are tracked.
type Targets map[Nutrient]float64

// TargetsFrom builds targets from a nutrient vector, keeping positive values
func TargetsFrom(t NutrientTotals) Targets {
	out := Targets{}
	for _, n := range AllNutrients {
		if v := t.Get(n); v > 0 {
			out[n] = v
		}
	}
	return out
}

// Validate rejects unknown nutrients and negative objectives
func (t Targets) Validate() error {
	for n, v := range t {
		if _, err := ParseNutrient(string(n)); err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("%w: target for %s is %.2f", ErrNegativeNutrient, n, v)
		}
	}
	return nil
}

// Tracked returns the nutrients with a positive objective in canonical order
func (t Targets) Tracked() []Nutrient {
	var out []Nutrient
	for _, n := range AllNutrients {
		if t[n] > 0 {
			out = append(out, n)
		}
	}
	return out
}

// Totals converts the targets to a nutrient vector
func (t Targets) Totals() NutrientTotals {
	return FromMap(t)
}
