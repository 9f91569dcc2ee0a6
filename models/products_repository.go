package models

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductsRepository struct {
	db *gorm.DB
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

func withProductAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC").Order("created_at ASC")
		}).
		Preload("ProductCategories.Category")
}

// ListByOwner returns every product of the owner with images and categories,
// most recently updated first.
func (r *ProductsRepository) ListByOwner(ctx context.Context, ownerID string) ([]Product, error) {
	var products []Product
	if err := r.db.WithContext(ctx).
		Scopes(withProductAssociations).
		Where("user_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetByID returns the product only when it belongs to ownerID. A product owned by
// someone else is reported exactly like a missing one.
func (r *ProductsRepository) GetByID(ctx context.Context, ownerID, id string) (*Product, error) {
	var product Product
	if err := r.db.WithContext(ctx).
		Scopes(withProductAssociations).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &product, nil
}

// Create inserts the product, its categories and its images in one transaction.
// Category names are normalized first so a repeated tag produces a single link.
func (r *ProductsRepository) Create(ctx context.Context, ownerID string, draft ProductDraft) (*Product, error) {
	product := draft.product(ownerID)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(product).Error; err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		for _, name := range NormalizeCategoryNames(draft.Categories) {
			category, err := findOrCreateCategory(tx, ownerID, name)
			if err != nil {
				return err
			}

			link := ProductCategory{ProductID: product.ID, CategoryID: category.ID}
			if err := tx.Omit(clause.Associations).Create(&link).Error; err != nil {
				return fmt.Errorf("failed to link category %q: %w", name, err)
			}
			link.Category = category
			product.ProductCategories = append(product.ProductCategories, link)
		}

		for i, url := range draft.ImageURLs {
			image := Image{
				URL:       url,
				FileKey:   FileKeyFromURL(url),
				ProductID: product.ID,
				IsPrimary: i == 0,
			}
			if err := tx.Omit(clause.Associations).Create(&image).Error; err != nil {
				return fmt.Errorf("failed to create image: %w", err)
			}
			product.Images = append(product.Images, image)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func findOrCreateCategory(tx *gorm.DB, ownerID, name string) (*Category, error) {
	var existing []Category
	if err := tx.Where("name = ? AND user_id = ?", name, ownerID).Limit(1).Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to look up category %q: %w", name, err)
	}
	if len(existing) > 0 {
		return &existing[0], nil
	}

	category := &Category{Name: name, UserID: ownerID}
	if err := tx.Omit(clause.Associations).Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category %q: %w", name, err)
	}
	return category, nil
}

// Delete removes the owner's product. Images and category links go with it
// through the foreign-key cascade.
func (r *ProductsRepository) Delete(ctx context.Context, ownerID, id string) error {
	result := r.db.WithContext(ctx).Delete(&Product{}, "id = ? AND user_id = ?", id, ownerID)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}
