package gorm

import (
	"context"

	"github.com/google/uuid"
	"github.com/nutriplan/engine/internal/domain/nutrition"
	"github.com/nutriplan/engine/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FoodCatalog implements the food catalog using GORM
type FoodCatalog struct {
	db *gorm.DB
}

// NewFoodCatalog creates a new food catalog
func NewFoodCatalog(db *gorm.DB) *FoodCatalog {
	return &FoodCatalog{db: db}
}

var _ outbound.FoodCatalog = (*FoodCatalog)(nil)

// ListFoods returns every food ordered by name
func (c *FoodCatalog) ListFoods(ctx context.Context) ([]nutrition.FoodProfile, error) {
	var models []FoodModel
	if err := c.db.WithContext(ctx).Order("name, id").Find(&models).Error; err != nil {
		return nil, translate(err)
	}
	return toFoods(models), nil
}

// FindFoods returns the foods with the given ids
func (c *FoodCatalog) FindFoods(ctx context.Context, ids []uuid.UUID) ([]nutrition.FoodProfile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []FoodModel
	if err := c.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, translate(err)
	}
	return toFoods(models), nil
}

// UpsertFoods inserts foods or replaces them by id
func (c *FoodCatalog) UpsertFoods(ctx context.Context, foods []nutrition.FoodProfile) error {
	if len(foods) == 0 {
		return nil
	}
	models := make([]*FoodModel, len(foods))
	for i, f := range foods {
		models[i] = FoodToModel(f)
	}
	err := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		CreateInBatches(models, 100).Error
	return translate(err)
}

// Count returns the number of foods in the catalog
func (c *FoodCatalog) Count(ctx context.Context) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).Model(&FoodModel{}).Count(&n).Error
	return n, translate(err)
}

func toFoods(models []FoodModel) []nutrition.FoodProfile {
	out := make([]nutrition.FoodProfile, len(models))
	for i := range models {
		out[i] = ModelToFood(&models[i])
	}
	return out
}
