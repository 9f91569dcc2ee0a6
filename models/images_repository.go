package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type ImagesRepository struct {
	db *gorm.DB
}

func NewImagesRepository(db *gorm.DB) *ImagesRepository {
	return &ImagesRepository{db: db}
}

// GetWithProduct loads an image and the product it belongs to.
func (r *ImagesRepository) GetWithProduct(ctx context.Context, id string) (*Image, error) {
	var image Image
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("id = ?", id).
		First(&image).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to find image: %w", err)
	}
	return &image, nil
}

// FindByFileKey returns every image stored under key, each with its product.
func (r *ImagesRepository) FindByFileKey(ctx context.Context, key string) ([]Image, error) {
	var images []Image
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("file_key = ?", key).
		Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to find images by file key: %w", err)
	}
	return images, nil
}

func (r *ImagesRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&Image{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrImageNotFound
	}
	return nil
}

// FileKeyFromURL returns the storage key of an uploaded image, which is the
// last path segment of its public URL.
func FileKeyFromURL(url string) string {
	return url[strings.LastIndex(url, "/")+1:]
}
