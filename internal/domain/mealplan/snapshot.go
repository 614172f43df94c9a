package mealplan

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/nutrition"
)

// PlanSnapshot is the materialized read model of a plan, fetched once by
// the persistence layer with every day, option, food and recipe resolved.
type PlanSnapshot struct {
	ID             uuid.UUID
	Name           string
	PatientID      uuid.UUID
	NutritionistID uuid.UUID
	StartDate      time.Time
	EndDate        time.Time
	Targets        nutrition.Targets
	Days           []DaySnapshot
}

// DaySnapshot is one plan day with its options
type DaySnapshot struct {
	ID      uuid.UUID
	PlanID  uuid.UUID
	Index   int
	Date    time.Time
	Options []*MealOption
}

// MealSummary groups the options of one meal type within a day
type MealSummary struct {
	MealType     MealType
	Primary      *MealOption
	Alternatives []*MealOption
}

// Meals groups the day's options by meal type in day order
func (d DaySnapshot) Meals() []MealSummary {
	byType := make(map[MealType]*MealSummary)
	var order []MealType
	for _, o := range d.Options {
		m, ok := byType[o.MealType]
		if !ok {
			m = &MealSummary{MealType: o.MealType}
			byType[o.MealType] = m
			order = append(order, o.MealType)
		}
		if o.Number <= 1 && m.Primary == nil {
			m.Primary = o
		} else {
			m.Alternatives = append(m.Alternatives, o)
		}
	}
	slices.SortStableFunc(order, func(a, b MealType) int { return a.Order() - b.Order() })

	out := make([]MealSummary, 0, len(order))
	for _, mt := range order {
		m := byType[mt]
		slices.SortFunc(m.Alternatives, func(a, b *MealOption) int { return a.Number - b.Number })
		out = append(out, *m)
	}
	return out
}

// MealTotals aggregates a single option
func MealTotals(option *MealOption) nutrition.NutrientTotals {
	if option == nil {
		return nutrition.NutrientTotals{}
	}
	return option.Totals()
}

// DayTotals sums the primary option of every meal. Alternatives are
// choices, not additional food, so they are not added.
func DayTotals(day DaySnapshot) nutrition.NutrientTotals {
	var total nutrition.NutrientTotals
	for _, m := range day.Meals() {
		total = total.Add(MealTotals(m.Primary))
	}
	return total
}

// PlanTotals sums every day of the plan
func PlanTotals(plan PlanSnapshot) nutrition.NutrientTotals {
	var total nutrition.NutrientTotals
	for _, d := range plan.Days {
		total = total.Add(DayTotals(d))
	}
	return total
}

// FindDay returns the day with the given id
func (p PlanSnapshot) FindDay(id uuid.UUID) (DaySnapshot, bool) {
	for _, d := range p.Days {
		if d.ID == id {
			return d, true
		}
	}
	return DaySnapshot{}, false
}
