package recipe

// Preparation holds the non-nutritional recipe metadata
type Preparation struct {
	Servings     int      `json:"servings"`
	PrepMinutes  int      `json:"prep_minutes"`
	CookMinutes  int      `json:"cook_minutes"`
	Instructions []string `json:"instructions,omitempty"`
}

// Validate validates the preparation metadata
func (p Preparation) Validate() error {
	if p.Servings < 0 {
		return ErrInvalidServings
	}
	if p.PrepMinutes < 0 || p.CookMinutes < 0 {
		return ErrInvalidTiming
	}
	return nil
}

// TotalMinutes returns prep plus cook time
func (p Preparation) TotalMinutes() int {
	return p.PrepMinutes + p.CookMinutes
}

func (p Preparation) clone() Preparation {
	p.Instructions = append([]string(nil), p.Instructions...)
	return p
}
