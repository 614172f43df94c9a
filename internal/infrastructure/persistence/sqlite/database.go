// Package sqlite provides SQLite database setup and seed data
package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/mealplan"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	gormstore "github.com/nutriplan/engine/internal/infrastructure/persistence/gorm"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupDatabase opens the SQLite database and migrates the schema. An
// empty path opens a private in-memory database.
func SetupDatabase(dbPath string, gormLogger logger.Interface) (*gorm.DB, error) {
	dsn := dbPath
	if dsn == "" {
		dsn = "file::memory:"
	}
	dsn += "?_foreign_keys=on&_busy_timeout=5000"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// a single connection keeps an in-memory database alive and serializes writers
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(gormstore.AllModels()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// Demo identities created by SeedDatabase
var (
	DemoNutritionistID = uuid.MustParse("5f0c6a8e-2b1d-4c3e-9a7f-0d1e2f3a4b5c")
	DemoPatientID      = uuid.MustParse("7a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d")
	DemoPlanID         = uuid.MustParse("9c8b7a6d-5e4f-4d3c-a2b1-0f9e8d7c6b5a")
)

// SeedDatabase populates an empty database with a small catalog and a
// three day plan.
func SeedDatabase(ctx context.Context, db *gorm.DB) error {
	foods := gormstore.NewFoodCatalog(db)
	count, err := foods.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	catalog := demoFoods()
	if err := foods.UpsertFoods(ctx, catalog); err != nil {
		return fmt.Errorf("failed to seed foods: %w", err)
	}

	byName := make(map[string]nutrition.FoodProfile, len(catalog))
	for _, f := range catalog {
		byName[f.Name] = f
	}
	bind := func(pairs ...interface{}) []nutrition.QuantityBinding {
		var out []nutrition.QuantityBinding
		for i := 0; i < len(pairs); i += 2 {
			out = append(out, nutrition.QuantityBinding{Food: byName[pairs[i].(string)], Grams: pairs[i+1].(float64)})
		}
		return out
	}

	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	plan := &mealplan.PlanSnapshot{
		ID:             DemoPlanID,
		Name:           "Plan de mantenimiento",
		PatientID:      DemoPatientID,
		NutritionistID: DemoNutritionistID,
		StartDate:      start,
		EndDate:        start.AddDate(0, 0, 2),
		Targets: nutrition.Targets{
			nutrition.Calories:     2000,
			nutrition.Protein:      100,
			nutrition.Carbohydrate: 250,
			nutrition.Fat:          65,
		},
	}
	for i := 0; i < 3; i++ {
		dayID := uuid.New()
		option := func(mt mealplan.MealType, number int, items []nutrition.QuantityBinding) *mealplan.MealOption {
			return &mealplan.MealOption{
				ID: uuid.New(), DayID: dayID, MealType: mt, Number: number,
				IsAlternative: number > 1, Label: mealplan.AutoLabel(number), LabelAuto: true,
				Items: items, CreatedAt: start, UpdatedAt: start,
			}
		}
		grams := 120 + float64(i)*30
		plan.Days = append(plan.Days, mealplan.DaySnapshot{
			ID:     dayID,
			PlanID: DemoPlanID,
			Index:  i + 1,
			Date:   start.AddDate(0, 0, i),
			Options: []*mealplan.MealOption{
				option(mealplan.MealBreakfast, 1, bind("Avena", 60.0, "Leche", 250.0, "Manzana", 150.0)),
				option(mealplan.MealBreakfast, 2, bind("Pan integral", 80.0, "Huevo", 100.0)),
				option(mealplan.MealLunch, 1, bind("Pechuga de pollo", grams, "Arroz blanco", 200.0, "Brócoli", 150.0, "Aceite de oliva", 10.0)),
				option(mealplan.MealAfternoonSnack, 1, bind("Yogur natural", 200.0, "Almendras", 30.0)),
				option(mealplan.MealDinner, 1, bind("Salmón", 150.0, "Lentejas", 150.0, "Aceite de oliva", 10.0)),
			},
		})
	}

	if err := gormstore.NewPlanRepository(db).SavePlan(ctx, plan); err != nil {
		return fmt.Errorf("failed to seed plan: %w", err)
	}
	return nil
}

func demoFoods() []nutrition.FoodProfile {
	type row struct {
		name     string
		category nutrition.Category
		per100g  nutrition.NutrientTotals
		tags     []string
	}
	rows := []row{
		{"Avena", nutrition.CategoryCereals, nutrition.NutrientTotals{Calories: 389, Protein: 16.9, Carbohydrate: 66.3, Fat: 6.9, Fiber: 10.6, Iron: 4.7}, []string{"gluten"}},
		{"Arroz blanco", nutrition.CategoryCereals, nutrition.NutrientTotals{Calories: 130, Protein: 2.7, Carbohydrate: 28.2, Fat: 0.3, Fiber: 0.4}, nil},
		{"Pan integral", nutrition.CategoryCereals, nutrition.NutrientTotals{Calories: 247, Protein: 13, Carbohydrate: 41, Fat: 3.4, Fiber: 7, Sodium: 450}, []string{"gluten"}},
		{"Leche", nutrition.CategoryDairy, nutrition.NutrientTotals{Calories: 61, Protein: 3.2, Carbohydrate: 4.8, Fat: 3.3, Calcium: 113}, []string{"lactosa"}},
		{"Yogur natural", nutrition.CategoryDairy, nutrition.NutrientTotals{Calories: 59, Protein: 10, Carbohydrate: 3.6, Fat: 0.4, Calcium: 110}, []string{"lactosa"}},
		{"Pechuga de pollo", nutrition.CategoryMeat, nutrition.NutrientTotals{Calories: 165, Protein: 31, Fat: 3.6, Sodium: 74}, nil},
		{"Salmón", nutrition.CategoryFish, nutrition.NutrientTotals{Calories: 208, Protein: 20, Fat: 13}, []string{"pescado"}},
		{"Huevo", nutrition.CategoryEggs, nutrition.NutrientTotals{Calories: 155, Protein: 13, Carbohydrate: 1.1, Fat: 11}, []string{"huevo"}},
		{"Lentejas", nutrition.CategoryLegumes, nutrition.NutrientTotals{Calories: 116, Protein: 9, Carbohydrate: 20, Fat: 0.4, Fiber: 7.9, Iron: 3.3}, nil},
		{"Brócoli", nutrition.CategoryVegetable, nutrition.NutrientTotals{Calories: 34, Protein: 2.8, Carbohydrate: 6.6, Fat: 0.4, Fiber: 2.6, VitaminC: 89}, nil},
		{"Manzana", nutrition.CategoryFruit, nutrition.NutrientTotals{Calories: 52, Protein: 0.3, Carbohydrate: 14, Fat: 0.2, Fiber: 2.4}, nil},
		{"Naranja", nutrition.CategoryFruit, nutrition.NutrientTotals{Calories: 47, Protein: 0.9, Carbohydrate: 12, Fat: 0.1, VitaminC: 53}, []string{"citrico"}},
		{"Aceite de oliva", nutrition.CategoryFats, nutrition.NutrientTotals{Calories: 884, Fat: 100}, nil},
		{"Almendras", nutrition.CategoryNuts, nutrition.NutrientTotals{Calories: 579, Protein: 21, Carbohydrate: 22, Fat: 50, Fiber: 12.5}, []string{"frutos_secos"}},
	}

	out := make([]nutrition.FoodProfile, 0, len(rows))
	for _, r := range rows {
		id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("nutriplan:food:"+r.name))
		f, err := nutrition.NewFoodProfile(id, r.name, r.category, r.per100g, r.tags, true)
		if err != nil {
			panic(err)
		}
		out = append(out, f)
	}
	return out
}
