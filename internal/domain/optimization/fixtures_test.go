package optimization

import (
	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/nutrition"
)

type catalogFixture map[string]nutrition.FoodProfile

func mkFood(name string, cat nutrition.Category, cal, p, c, f float64, tags ...string) nutrition.FoodProfile {
	return nutrition.FoodProfile{
		ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)),
		Name:      name,
		Category:  cat,
		Per100g:   nutrition.NutrientTotals{Calories: cal, Protein: p, Carbohydrate: c, Fat: f},
		Tags:      nutrition.NormalizeTags(tags),
		Available: true,
	}
}

func newCatalog() catalogFixture {
	foods := []nutrition.FoodProfile{
		mkFood("Pollo", nutrition.CategoryMeat, 165, 31, 0, 3.6),
		mkFood("Pavo", nutrition.CategoryMeat, 135, 30, 0, 1),
		mkFood("Cerdo", nutrition.CategoryMeat, 242, 27, 0, 14, "cerdo"),
		mkFood("Arroz", nutrition.CategoryCereals, 130, 2.7, 28, 0.3),
		mkFood("Quinoa", nutrition.CategoryCereals, 120, 4.4, 21.3, 1.9),
		mkFood("Avena", nutrition.CategoryCereals, 389, 16.9, 66.3, 6.9, "gluten"),
		mkFood("Aceite de oliva", nutrition.CategoryFats, 884, 0, 0, 100),
		mkFood("Leche", nutrition.CategoryDairy, 61, 3.2, 4.8, 3.3, "lactosa"),
		mkFood("Yogur", nutrition.CategoryDairy, 59, 10, 3.6, 0.4, "lactosa"),
		mkFood("Naranja", nutrition.CategoryFruit, 47, 0.9, 12, 0.1, "citrico"),
		mkFood("Manzana", nutrition.CategoryFruit, 52, 0.3, 14, 0.2),
		mkFood("Brócoli", nutrition.CategoryVegetable, 34, 2.8, 7, 0.4),
		mkFood("Almendras", nutrition.CategoryNuts, 579, 21, 22, 50, "frutos_secos"),
		mkFood("Lentejas", nutrition.CategoryLegumes, 116, 9, 20, 0.4),
		mkFood("Huevo", nutrition.CategoryEggs, 155, 13, 1.1, 11, "huevo"),
		mkFood("Salmón", nutrition.CategoryFish, 208, 20, 0, 13, "pescado"),
	}
	pan := mkFood("Pan integral", nutrition.CategoryCereals, 247, 13, 41, 3.4, "gluten")
	pan.Available = false
	foods = append(foods, pan)

	c := catalogFixture{}
	for _, f := range foods {
		c[f.Name] = f
	}
	return c
}

func (c catalogFixture) all() []nutrition.FoodProfile {
	out := make([]nutrition.FoodProfile, 0, len(c))
	for _, f := range c {
		out = append(out, f)
	}
	return out
}

func (c catalogFixture) pick(names ...string) []nutrition.FoodProfile {
	out := make([]nutrition.FoodProfile, len(names))
	for i, n := range names {
		out[i] = c[n]
	}
	return out
}
