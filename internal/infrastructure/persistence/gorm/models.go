// Package gorm provides GORM model definitions and repositories for the engine
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FoodModel represents the GORM model for catalog foods. Nutrients are
// stored per 100 g.
type FoodModel struct {
	ID           uuid.UUID   `gorm:"type:char(36);primaryKey"`
	Name         string      `gorm:"type:varchar(255);not null;index"`
	Category     string      `gorm:"type:varchar(30);not null;index"`
	Calories     float64     `gorm:"not null;default:0"`
	Protein      float64     `gorm:"not null;default:0"`
	Carbohydrate float64     `gorm:"not null;default:0"`
	Fat          float64     `gorm:"not null;default:0"`
	Fiber        float64     `gorm:"not null;default:0"`
	Sugar        float64     `gorm:"not null;default:0"`
	Sodium       float64     `gorm:"not null;default:0"`
	Potassium    float64     `gorm:"not null;default:0"`
	Calcium      float64     `gorm:"not null;default:0"`
	Iron         float64     `gorm:"not null;default:0"`
	VitaminA     float64     `gorm:"column:vitamin_a;not null;default:0"`
	VitaminC     float64     `gorm:"column:vitamin_c;not null;default:0"`
	Tags         StringSlice `gorm:"type:json"`
	Available    bool        `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RecipeModel represents the GORM model for recipes
type RecipeModel struct {
	ID           uuid.UUID   `gorm:"type:char(36);primaryKey"`
	Name         string      `gorm:"type:varchar(200);not null;index"`
	VariantOf    *uuid.UUID  `gorm:"type:char(36);index"`
	Servings     int         `gorm:"not null;default:1"`
	PrepMinutes  int         `gorm:"not null;default:0"`
	CookMinutes  int         `gorm:"not null;default:0"`
	Instructions StringSlice `gorm:"type:json"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Items []RecipeItemModel `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// RecipeItemModel is one ordered food line of a recipe
type RecipeItemModel struct {
	RecipeID uuid.UUID `gorm:"type:char(36);primaryKey"`
	Position int       `gorm:"primaryKey"`
	FoodID   uuid.UUID `gorm:"type:char(36);not null;index"`
	Grams    float64   `gorm:"not null;check:grams > 0"`

	Food FoodModel `gorm:"foreignKey:FoodID"`
}

// PlanModel represents the GORM model for nutrition plans
type PlanModel struct {
	ID             uuid.UUID   `gorm:"type:char(36);primaryKey"`
	Name           string      `gorm:"type:varchar(255);not null"`
	PatientID      uuid.UUID   `gorm:"type:char(36);not null;index"`
	NutritionistID uuid.UUID   `gorm:"type:char(36);not null;index"`
	StartDate      time.Time   `gorm:"not null"`
	EndDate        time.Time   `gorm:"not null"`
	Targets        NutrientMap `gorm:"type:json"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Days []PlanDayModel `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE"`
}

// PlanDayModel is one day of a plan
type PlanDayModel struct {
	ID       uuid.UUID `gorm:"type:char(36);primaryKey"`
	PlanID   uuid.UUID `gorm:"type:char(36);not null;index"`
	DayIndex int       `gorm:"not null"`
	Date     time.Time `gorm:"not null"`

	Options []MealOptionModel `gorm:"foreignKey:DayID;constraint:OnDelete:CASCADE"`
}

// MealOptionModel is one option of a (day, meal type) slot. The unique
// index backs the two-options limit under concurrent writers. Rows are
// hard deleted so the index never sees stale numbers.
type MealOptionModel struct {
	ID            uuid.UUID  `gorm:"type:char(36);primaryKey"`
	DayID         uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:idx_meal_slot,priority:1"`
	MealType      string     `gorm:"type:varchar(30);not null;uniqueIndex:idx_meal_slot,priority:2"`
	OptionNumber  int        `gorm:"not null;uniqueIndex:idx_meal_slot,priority:3"`
	IsAlternative bool       `gorm:"not null"`
	Label         string     `gorm:"type:varchar(100)"`
	LabelAuto     bool       `gorm:"not null"`
	RecipeID      *uuid.UUID `gorm:"type:char(36);index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items  []MealOptionItemModel `gorm:"foreignKey:OptionID;constraint:OnDelete:CASCADE"`
	Recipe *RecipeModel          `gorm:"foreignKey:RecipeID"`
}

// MealOptionItemModel is one ordered food line of a meal option
type MealOptionItemModel struct {
	OptionID uuid.UUID `gorm:"type:char(36);primaryKey"`
	Position int       `gorm:"primaryKey"`
	FoodID   uuid.UUID `gorm:"type:char(36);not null;index"`
	Grams    float64   `gorm:"not null;check:grams > 0"`

	Food FoodModel `gorm:"foreignKey:FoodID"`
}

// StringSlice custom type for handling string slices in JSON
type StringSlice []string

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

// NutrientMap custom type for per-nutrient objectives stored as JSON
type NutrientMap map[string]float64

// Scan implements the sql.Scanner interface
func (m *NutrientMap) Scan(value interface{}) error {
	if value == nil {
		*m = NutrientMap{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into NutrientMap", value)
	}
}

// Value implements the driver.Valuer interface
func (m NutrientMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	return string(b), err
}

// BeforeCreate hook for FoodModel
func (f *FoodModel) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for RecipeModel
func (r *RecipeModel) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for PlanModel
func (p *PlanModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for PlanDayModel
func (d *PlanDayModel) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for MealOptionModel
func (o *MealOptionModel) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName methods for custom table names
func (FoodModel) TableName() string {
	return "foods"
}

func (RecipeModel) TableName() string {
	return "recipes"
}

func (RecipeItemModel) TableName() string {
	return "recipe_items"
}

func (PlanModel) TableName() string {
	return "plans"
}

func (PlanDayModel) TableName() string {
	return "plan_days"
}

func (MealOptionModel) TableName() string {
	return "meal_options"
}

func (MealOptionItemModel) TableName() string {
	return "meal_option_items"
}

// AllModels lists the models in dependency order for AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&FoodModel{},
		&RecipeModel{},
		&RecipeItemModel{},
		&PlanModel{},
		&PlanDayModel{},
		&MealOptionModel{},
		&MealOptionItemModel{},
	}
}
