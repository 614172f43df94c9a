package gorm

import (
	"slices"

	"github.com/nutriplan/engine/internal/domain/mealplan"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/nutriplan/engine/internal/domain/recipe"
)

// FoodToModel converts a food profile to a GORM model
func FoodToModel(f nutrition.FoodProfile) *FoodModel {
	p := f.Per100g
	return &FoodModel{
		ID:           f.ID,
		Name:         f.Name,
		Category:     string(f.Category),
		Calories:     p.Calories,
		Protein:      p.Protein,
		Carbohydrate: p.Carbohydrate,
		Fat:          p.Fat,
		Fiber:        p.Fiber,
		Sugar:        p.Sugar,
		Sodium:       p.Sodium,
		Potassium:    p.Potassium,
		Calcium:      p.Calcium,
		Iron:         p.Iron,
		VitaminA:     p.VitaminA,
		VitaminC:     p.VitaminC,
		Tags:         StringSlice(f.Tags),
		Available:    f.Available,
	}
}

// ModelToFood converts a GORM model to a food profile
func ModelToFood(m *FoodModel) nutrition.FoodProfile {
	return nutrition.FoodProfile{
		ID:       m.ID,
		Name:     m.Name,
		Category: nutrition.Category(m.Category),
		Per100g: nutrition.NutrientTotals{
			Calories:     m.Calories,
			Protein:      m.Protein,
			Carbohydrate: m.Carbohydrate,
			Fat:          m.Fat,
			Fiber:        m.Fiber,
			Sugar:        m.Sugar,
			Sodium:       m.Sodium,
			Potassium:    m.Potassium,
			Calcium:      m.Calcium,
			Iron:         m.Iron,
			VitaminA:     m.VitaminA,
			VitaminC:     m.VitaminC,
		},
		Tags:      nutrition.NormalizeTags(m.Tags),
		Available: m.Available,
	}
}

// RecipeToModel converts a domain recipe to a GORM model
func RecipeToModel(r *recipe.Recipe) *RecipeModel {
	prep := r.Preparation()
	model := &RecipeModel{
		ID:           r.ID(),
		Name:         r.Name(),
		VariantOf:    r.VariantOf(),
		Servings:     prep.Servings,
		PrepMinutes:  prep.PrepMinutes,
		CookMinutes:  prep.CookMinutes,
		Instructions: StringSlice(prep.Instructions),
	}
	for i, item := range r.Items() {
		model.Items = append(model.Items, RecipeItemModel{
			RecipeID: r.ID(),
			Position: i,
			FoodID:   item.Food.ID,
			Grams:    item.Grams,
		})
	}
	return model
}

// ModelToRecipe converts a GORM model with preloaded items to a domain recipe
func ModelToRecipe(m *RecipeModel) (*recipe.Recipe, error) {
	items := make([]nutrition.QuantityBinding, len(m.Items))
	for i, item := range m.Items {
		items[i] = nutrition.QuantityBinding{Food: ModelToFood(&item.Food), Grams: item.Grams}
	}
	return recipe.Restore(m.ID, m.Name, items, recipe.Preparation{
		Servings:     m.Servings,
		PrepMinutes:  m.PrepMinutes,
		CookMinutes:  m.CookMinutes,
		Instructions: []string(m.Instructions),
	}, m.VariantOf)
}

// OptionToModel converts a meal option to a GORM model
func OptionToModel(o *mealplan.MealOption) *MealOptionModel {
	model := &MealOptionModel{
		ID:            o.ID,
		DayID:         o.DayID,
		MealType:      string(o.MealType),
		OptionNumber:  o.Number,
		IsAlternative: o.IsAlternative,
		Label:         o.Label,
		LabelAuto:     o.LabelAuto,
		RecipeID:      o.RecipeID,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	for i, item := range o.Items {
		model.Items = append(model.Items, MealOptionItemModel{
			OptionID: o.ID,
			Position: i,
			FoodID:   item.Food.ID,
			Grams:    item.Grams,
		})
	}
	return model
}

// ModelToOption converts a GORM model with preloaded items to a meal option.
// The recipe is resolved when it was preloaded.
func ModelToOption(m *MealOptionModel) (*mealplan.MealOption, error) {
	o := &mealplan.MealOption{
		ID:            m.ID,
		DayID:         m.DayID,
		MealType:      mealplan.MealType(m.MealType),
		Number:        m.OptionNumber,
		IsAlternative: m.IsAlternative,
		Label:         m.Label,
		LabelAuto:     m.LabelAuto,
		RecipeID:      m.RecipeID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	for _, item := range m.Items {
		o.Items = append(o.Items, nutrition.QuantityBinding{Food: ModelToFood(&item.Food), Grams: item.Grams})
	}
	if m.Recipe != nil {
		r, err := ModelToRecipe(m.Recipe)
		if err != nil {
			return nil, err
		}
		o.Recipe = r
	}
	return o, nil
}

// ModelToDay converts a GORM day with preloaded options. Options follow
// the meal sequence of the day, not the alphabetical meal type order.
func ModelToDay(m *PlanDayModel) (mealplan.DaySnapshot, error) {
	day := mealplan.DaySnapshot{ID: m.ID, PlanID: m.PlanID, Index: m.DayIndex, Date: m.Date}
	for i := range m.Options {
		o, err := ModelToOption(&m.Options[i])
		if err != nil {
			return mealplan.DaySnapshot{}, err
		}
		day.Options = append(day.Options, o)
	}
	slices.SortStableFunc(day.Options, func(a, b *mealplan.MealOption) int {
		if a.MealType != b.MealType {
			return a.MealType.Order() - b.MealType.Order()
		}
		return a.Number - b.Number
	})
	return day, nil
}

// ModelToPlan converts a GORM plan with its full preloaded graph
func ModelToPlan(m *PlanModel) (*mealplan.PlanSnapshot, error) {
	targets := nutrition.Targets{}
	for name, v := range m.Targets {
		n, err := nutrition.ParseNutrient(name)
		if err != nil {
			return nil, err
		}
		targets[n] = v
	}

	plan := &mealplan.PlanSnapshot{
		ID:             m.ID,
		Name:           m.Name,
		PatientID:      m.PatientID,
		NutritionistID: m.NutritionistID,
		StartDate:      m.StartDate,
		EndDate:        m.EndDate,
		Targets:        targets,
	}
	for i := range m.Days {
		day, err := ModelToDay(&m.Days[i])
		if err != nil {
			return nil, err
		}
		plan.Days = append(plan.Days, day)
	}
	return plan, nil
}

// PlanToModel converts a plan snapshot, including days and options
func PlanToModel(p *mealplan.PlanSnapshot) *PlanModel {
	model := &PlanModel{
		ID:             p.ID,
		Name:           p.Name,
		PatientID:      p.PatientID,
		NutritionistID: p.NutritionistID,
		StartDate:      p.StartDate,
		EndDate:        p.EndDate,
		Targets:        NutrientMap{},
	}
	for n, v := range p.Targets {
		model.Targets[string(n)] = v
	}
	for _, d := range p.Days {
		day := PlanDayModel{ID: d.ID, PlanID: p.ID, DayIndex: d.Index, Date: d.Date}
		for _, o := range d.Options {
			day.Options = append(day.Options, *OptionToModel(o))
		}
		model.Days = append(model.Days, day)
	}
	return model
}
