// Package analysis computes day and plan level statistics over meal plan
// snapshots and compares them with nutritional targets.
package analysis

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/mealplan"
	"github.com/nutriplan/engine/internal/domain/nutrition"
)

// kcal per gram of each energy-yielding macro
const (
	kcalPerGramProtein      = 4
	kcalPerGramCarbohydrate = 4
	kcalPerGramFat          = 9
)

// OptionBreakdown is one option's contribution inside a meal
type OptionBreakdown struct {
	OptionID uuid.UUID                `json:"option_id"`
	Number   int                      `json:"option_numero"`
	Label    string                   `json:"label,omitempty"`
	Totals   nutrition.NutrientTotals `json:"totals"`
}

// MealBreakdown is a meal's primary option plus its alternatives
type MealBreakdown struct {
	MealType     mealplan.MealType `json:"meal_type"`
	Primary      *OptionBreakdown  `json:"primary,omitempty"`
	Alternatives []OptionBreakdown `json:"alternatives,omitempty"`
	CaloriesPct  float64           `json:"porcentaje_calorias"`
}

// Distribution is the share of energy supplied by each macro
type Distribution struct {
	ProteinPct      float64 `json:"proteina_pct"`
	CarbohydratePct float64 `json:"carbohidratos_pct"`
	FatPct          float64 `json:"grasa_pct"`
}

// DayAnalysis aggregates a single plan day
type DayAnalysis struct {
	DayID        uuid.UUID                `json:"day_id"`
	Index        int                      `json:"dia"`
	Date         time.Time                `json:"fecha"`
	Totals       nutrition.NutrientTotals `json:"total_macros"`
	Meals        []MealBreakdown          `json:"comidas"`
	Distribution Distribution             `json:"distribucion_calorica"`
}

// Variability holds population statistics of one nutrient across days
type Variability struct {
	Mean  float64 `json:"media"`
	Stdev float64 `json:"desviacion_estandar"`
	CV    float64 `json:"coeficiente_variacion"`
}

// PlanAnalysis aggregates a whole plan
type PlanAnalysis struct {
	PlanID       uuid.UUID                          `json:"plan_id"`
	DayCount     int                                `json:"dias_totales"`
	DailyAverage nutrition.NutrientTotals           `json:"promedio_diario"`
	PlanTotal    nutrition.NutrientTotals           `json:"total_plan"`
	Days         []DayAnalysis                      `json:"dias"`
	Variability  map[nutrition.Nutrient]Variability `json:"variabilidad"`
}

// AnalyzeDay computes totals, per-meal breakdown and caloric distribution.
// Only primary options count toward the day totals.
func AnalyzeDay(day mealplan.DaySnapshot) DayAnalysis {
	out := DayAnalysis{
		DayID:  day.ID,
		Index:  day.Index,
		Date:   day.Date,
		Totals: mealplan.DayTotals(day),
		Meals:  []MealBreakdown{},
	}

	for _, m := range day.Meals() {
		mb := MealBreakdown{MealType: m.MealType}
		if m.Primary != nil {
			p := breakdown(m.Primary)
			mb.Primary = &p
			mb.CaloriesPct = percent(p.Totals.Calories, out.Totals.Calories)
		}
		for _, alt := range m.Alternatives {
			mb.Alternatives = append(mb.Alternatives, breakdown(alt))
		}
		out.Meals = append(out.Meals, mb)
	}

	out.Distribution = distribution(out.Totals)
	return out
}

// AnalyzePlan aggregates every day and computes per-nutrient variability.
// A plan without days yields zero totals.
func AnalyzePlan(plan mealplan.PlanSnapshot) PlanAnalysis {
	out := PlanAnalysis{
		PlanID:      plan.ID,
		DayCount:    len(plan.Days),
		Days:        make([]DayAnalysis, 0, len(plan.Days)),
		Variability: make(map[nutrition.Nutrient]Variability, len(nutrition.AllNutrients)),
	}

	for _, d := range plan.Days {
		day := AnalyzeDay(d)
		out.Days = append(out.Days, day)
		out.PlanTotal = out.PlanTotal.Add(day.Totals)
	}
	if out.DayCount > 0 {
		out.DailyAverage = out.PlanTotal.Scale(1 / float64(out.DayCount))
	}

	for _, n := range nutrition.AllNutrients {
		values := make([]float64, len(out.Days))
		for i, d := range out.Days {
			values[i] = d.Totals.Get(n)
		}
		out.Variability[n] = variability(values)
	}
	return out
}

func breakdown(o *mealplan.MealOption) OptionBreakdown {
	return OptionBreakdown{OptionID: o.ID, Number: o.Number, Label: o.Label, Totals: mealplan.MealTotals(o)}
}

func distribution(t nutrition.NutrientTotals) Distribution {
	p := t.Protein * kcalPerGramProtein
	c := t.Carbohydrate * kcalPerGramCarbohydrate
	f := t.Fat * kcalPerGramFat
	energy := p + c + f
	return Distribution{
		ProteinPct:      percent(p, energy),
		CarbohydratePct: percent(c, energy),
		FatPct:          percent(f, energy),
	}
}

func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

// variability uses population statistics. CV is zero when the mean is
// zero or every value is equal.
func variability(values []float64) Variability {
	if len(values) == 0 {
		return Variability{}
	}

	sum := 0.0
	allEqual := true
	for _, v := range values {
		sum += v
		if v != values[0] {
			allEqual = false
		}
	}
	mean := sum / float64(len(values))
	if allEqual {
		return Variability{Mean: values[0]}
	}

	sq := 0.0
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	stdev := math.Sqrt(sq / float64(len(values)))

	cv := 0.0
	if mean != 0 {
		cv = math.Abs(stdev / mean * 100)
	}
	return Variability{Mean: mean, Stdev: stdev, CV: cv}
}
