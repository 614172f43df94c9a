package testutils

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/mealplan"
	"github.com/nutriplan/engine/internal/domain/nutrition"
)

// FoodFactory builds catalog foods with plausible macro profiles
type FoodFactory struct {
	faker *gofakeit.Faker
}

// NewFoodFactory creates a new food factory with seeded faker
func NewFoodFactory(seed int64) *FoodFactory {
	return &FoodFactory{faker: gofakeit.New(seed)}
}

// Food returns a food of the category whose calories follow 4/4/9 kcal per gram
func (f *FoodFactory) Food(category nutrition.Category, tags ...string) nutrition.FoodProfile {
	protein := f.faker.Float64Range(0, 30)
	carbs := f.faker.Float64Range(0, 70)
	fat := f.faker.Float64Range(0, 25)
	return f.FoodWith(category, nutrition.NutrientTotals{
		Calories:     4*protein + 4*carbs + 9*fat,
		Protein:      protein,
		Carbohydrate: carbs,
		Fat:          fat,
		Fiber:        f.faker.Float64Range(0, 10),
		Sodium:       f.faker.Float64Range(0, 500),
	}, tags...)
}

// FoodWith returns a food with an explicit per-100g profile
func (f *FoodFactory) FoodWith(category nutrition.Category, per100g nutrition.NutrientTotals, tags ...string) nutrition.FoodProfile {
	name := fmt.Sprintf("%s %s", f.faker.Noun(), f.faker.LetterN(6))
	food, err := nutrition.NewFoodProfile(uuid.New(), name, category, per100g, tags, true)
	if err != nil {
		panic(err)
	}
	return food
}

// Catalog returns perCategory foods for every category
func (f *FoodFactory) Catalog(perCategory int) []nutrition.FoodProfile {
	var out []nutrition.FoodProfile
	for _, c := range nutrition.Categories {
		for i := 0; i < perCategory; i++ {
			out = append(out, f.Food(c))
		}
	}
	return out
}

// Bind pairs foods with grams: Bind(food1, 100.0, food2, 50.0)
func Bind(pairs ...interface{}) []nutrition.QuantityBinding {
	out := make([]nutrition.QuantityBinding, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, nutrition.QuantityBinding{
			Food:  pairs[i].(nutrition.FoodProfile),
			Grams: pairs[i+1].(float64),
		})
	}
	return out
}

// PlanBuilder provides a fluent interface for building plan snapshots
type PlanBuilder struct {
	plan *mealplan.PlanSnapshot
	now  time.Time
}

// NewPlanBuilder starts a plan with days empty days owned by fresh ids
func NewPlanBuilder(days int) *PlanBuilder {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	plan := &mealplan.PlanSnapshot{
		ID:             uuid.New(),
		Name:           "Plan " + gofakeit.LastName(),
		PatientID:      uuid.New(),
		NutritionistID: uuid.New(),
		StartDate:      start,
		EndDate:        start.AddDate(0, 0, days-1),
		Targets:        nutrition.Targets{},
	}
	for i := 0; i < days; i++ {
		plan.Days = append(plan.Days, mealplan.DaySnapshot{
			ID:     uuid.New(),
			PlanID: plan.ID,
			Index:  i + 1,
			Date:   start.AddDate(0, 0, i),
		})
	}
	return &PlanBuilder{plan: plan, now: start}
}

// WithTargets sets the plan targets
func (b *PlanBuilder) WithTargets(targets nutrition.Targets) *PlanBuilder {
	b.plan.Targets = targets
	return b
}

// WithOwners sets the patient and nutritionist
func (b *PlanBuilder) WithOwners(patientID, nutritionistID uuid.UUID) *PlanBuilder {
	b.plan.PatientID = patientID
	b.plan.NutritionistID = nutritionistID
	return b
}

// WithOption places an item option at position number of the day's meal slot
func (b *PlanBuilder) WithOption(day int, mealType mealplan.MealType, number int, items []nutrition.QuantityBinding) *PlanBuilder {
	d := &b.plan.Days[day]
	d.Options = append(d.Options, &mealplan.MealOption{
		ID:            uuid.New(),
		DayID:         d.ID,
		MealType:      mealType,
		Number:        number,
		IsAlternative: number > 1,
		Label:         mealplan.AutoLabel(number),
		LabelAuto:     true,
		Items:         items,
		CreatedAt:     b.now,
		UpdatedAt:     b.now,
	})
	return b
}

// Build returns the plan
func (b *PlanBuilder) Build() *mealplan.PlanSnapshot {
	return b.plan
}

// ReferenceCatalog is a fixed catalog keyed by name with stable ids.
// "Pan integral" is unavailable.
func ReferenceCatalog() map[string]nutrition.FoodProfile {
	rows := []struct {
		name         string
		category     nutrition.Category
		cal, p, c, f float64
		tags         []string
	}{
		{"Pollo", nutrition.CategoryMeat, 165, 31, 0, 3.6, nil},
		{"Pavo", nutrition.CategoryMeat, 135, 30, 0, 1, nil},
		{"Cerdo", nutrition.CategoryMeat, 242, 27, 0, 14, []string{"cerdo"}},
		{"Arroz", nutrition.CategoryCereals, 130, 2.7, 28, 0.3, nil},
		{"Quinoa", nutrition.CategoryCereals, 120, 4.4, 21.3, 1.9, nil},
		{"Avena", nutrition.CategoryCereals, 389, 16.9, 66.3, 6.9, []string{"gluten"}},
		{"Aceite de oliva", nutrition.CategoryFats, 884, 0, 0, 100, nil},
		{"Leche", nutrition.CategoryDairy, 61, 3.2, 4.8, 3.3, []string{"lactosa"}},
		{"Yogur", nutrition.CategoryDairy, 59, 10, 3.6, 0.4, []string{"lactosa"}},
		{"Naranja", nutrition.CategoryFruit, 47, 0.9, 12, 0.1, []string{"citrico"}},
		{"Manzana", nutrition.CategoryFruit, 52, 0.3, 14, 0.2, nil},
		{"Brócoli", nutrition.CategoryVegetable, 34, 2.8, 7, 0.4, nil},
		{"Almendras", nutrition.CategoryNuts, 579, 21, 22, 50, []string{"frutos_secos"}},
		{"Lentejas", nutrition.CategoryLegumes, 116, 9, 20, 0.4, nil},
		{"Huevo", nutrition.CategoryEggs, 155, 13, 1.1, 11, []string{"huevo"}},
		{"Salmón", nutrition.CategoryFish, 208, 20, 0, 13, []string{"pescado"}},
		{"Pan integral", nutrition.CategoryCereals, 247, 13, 41, 3.4, []string{"gluten"}},
	}

	out := make(map[string]nutrition.FoodProfile, len(rows))
	for _, r := range rows {
		food, err := nutrition.NewFoodProfile(
			uuid.NewSHA1(uuid.NameSpaceOID, []byte(r.name)),
			r.name, r.category,
			nutrition.NutrientTotals{Calories: r.cal, Protein: r.p, Carbohydrate: r.c, Fat: r.f},
			r.tags, r.name != "Pan integral",
		)
		if err != nil {
			panic(err)
		}
		out[r.name] = food
	}
	return out
}

// Foods flattens a catalog map
func Foods(catalog map[string]nutrition.FoodProfile) []nutrition.FoodProfile {
	out := make([]nutrition.FoodProfile, 0, len(catalog))
	for _, f := range catalog {
		out = append(out, f)
	}
	return out
}
