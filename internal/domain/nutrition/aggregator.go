package nutrition

import "fmt"

// QuantityBinding pairs a food with a gram quantity
type QuantityBinding struct {
	Food  FoodProfile `json:"food"`
	Grams float64     `json:"grams"`
}

// NewQuantityBinding enforces grams > 0
func NewQuantityBinding(food FoodProfile, grams float64) (QuantityBinding, error) {
	b := QuantityBinding{Food: food, Grams: grams}
	if err := b.Validate(); err != nil {
		return QuantityBinding{}, err
	}
	return b, nil
}

// Validate checks the binding invariant
func (b QuantityBinding) Validate() error {
	if !(b.Grams > 0) {
		return fmt.Errorf("%w: %s has %.2f g", ErrInvalidGrams, b.Food.Name, b.Grams)
	}
	return nil
}

// Contribution is the food's per-100g profile scaled to the bound grams
func (b QuantityBinding) Contribution() NutrientTotals {
	return b.Food.Per100g.Scale(b.Grams / 100)
}

// Totals sums the contributions of every binding. An empty list yields
// zero totals.
func Totals(items []QuantityBinding) NutrientTotals {
	var total NutrientTotals
	for _, item := range items {
		total = total.Add(item.Contribution())
	}
	return total
}

// Bind pairs foods with quantities positionally
func Bind(foods []FoodProfile, grams []float64) []QuantityBinding {
	items := make([]QuantityBinding, len(foods))
	for i, f := range foods {
		items[i] = QuantityBinding{Food: f, Grams: grams[i]}
	}
	return items
}

// ValidateAll validates each binding and returns the first failure
func ValidateAll(items []QuantityBinding) error {
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}
