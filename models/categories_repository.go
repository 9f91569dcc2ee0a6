package models

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type CategoriesRepository struct {
	db *gorm.DB
}

func NewCategoriesRepository(db *gorm.DB) *CategoriesRepository {
	return &CategoriesRepository{db: db}
}

// ListByOwner returns the owner's categories with their linked products, by name.
func (r *CategoriesRepository) ListByOwner(ctx context.Context, ownerID string) ([]Category, error) {
	var categories []Category
	if err := r.db.WithContext(ctx).
		Preload("ProductCategories.Product").
		Where("user_id = ?", ownerID).
		Order("name ASC").
		Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}
