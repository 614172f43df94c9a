package nutrition

import (
	"github.com/nutriplan/engine/internal/domain/analysis"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/nutriplan/engine/internal/domain/optimization"
	"github.com/nutriplan/engine/internal/ports/inbound"
	"github.com/shopspring/decimal"
)

// Rounding happens only here, on the way out of the engine.

func round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

func round4(v float64) float64 {
	return decimal.NewFromFloat(v).Round(4).InexactFloat64()
}

func presentDay(d analysis.DayAnalysis) analysis.DayAnalysis {
	d.Totals = d.Totals.Rounded()
	meals := make([]analysis.MealBreakdown, len(d.Meals))
	for i, m := range d.Meals {
		if m.Primary != nil {
			p := *m.Primary
			p.Totals = p.Totals.Rounded()
			m.Primary = &p
		}
		alts := make([]analysis.OptionBreakdown, len(m.Alternatives))
		for j, a := range m.Alternatives {
			a.Totals = a.Totals.Rounded()
			alts[j] = a
		}
		if len(alts) == 0 {
			alts = nil
		}
		m.Alternatives = alts
		m.CaloriesPct = round1(m.CaloriesPct)
		meals[i] = m
	}
	d.Meals = meals
	d.Distribution = analysis.Distribution{
		ProteinPct:      round1(d.Distribution.ProteinPct),
		CarbohydratePct: round1(d.Distribution.CarbohydratePct),
		FatPct:          round1(d.Distribution.FatPct),
	}
	return d
}

func presentPlan(a analysis.PlanAnalysis) analysis.PlanAnalysis {
	a.DailyAverage = a.DailyAverage.Rounded()
	a.PlanTotal = a.PlanTotal.Rounded()
	days := make([]analysis.DayAnalysis, len(a.Days))
	for i, d := range a.Days {
		days[i] = presentDay(d)
	}
	a.Days = days
	variability := make(map[nutrition.Nutrient]analysis.Variability, len(a.Variability))
	for n, v := range a.Variability {
		variability[n] = analysis.Variability{Mean: round1(v.Mean), Stdev: round1(v.Stdev), CV: round1(v.CV)}
	}
	a.Variability = variability
	return a
}

func presentComparison(c analysis.Comparison) analysis.Comparison {
	compliance := make(map[nutrition.Nutrient]analysis.Compliance, len(c.Compliance))
	for n, v := range c.Compliance {
		v.Actual = nutrition.RoundValue(n, v.Actual)
		v.Percent = round1(v.Percent)
		compliance[n] = v
	}
	c.Compliance = compliance
	c.OverallScore = round1(c.OverallScore)
	return c
}

func items(foods []nutrition.FoodProfile, grams []float64) []inbound.ItemDTO {
	out := make([]inbound.ItemDTO, len(foods))
	for i, f := range foods {
		out[i] = inbound.ItemDTO{FoodID: f.ID, Name: f.Name, Category: f.Category, Grams: round1(grams[i])}
	}
	return out
}

func bindingItems(bindings []nutrition.QuantityBinding) []inbound.ItemDTO {
	out := make([]inbound.ItemDTO, len(bindings))
	for i, b := range bindings {
		out[i] = inbound.ItemDTO{FoodID: b.Food.ID, Name: b.Food.Name, Category: b.Food.Category, Grams: round1(b.Grams)}
	}
	return out
}

func candidateDTO(c optimization.Candidate) inbound.CandidateDTO {
	return inbound.CandidateDTO{
		Items:           items(c.Foods, c.Quantities),
		Totals:          c.Totals.Rounded(),
		Score:           round4(c.Score),
		Compatibility:   round4(c.Compatibility),
		Deviation:       round4(c.Deviation),
		Iterations:      c.Iterations,
		Converged:       c.Converged,
		WithinTolerance: c.WithinTolerance,
	}
}
