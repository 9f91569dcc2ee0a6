package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mytheresa/inventory/app/cache"
	"github.com/mytheresa/inventory/app/metrics"
	"github.com/mytheresa/inventory/app/storage"
	"github.com/mytheresa/inventory/models"
)

type ProductStore interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Product, error)
	GetByID(ctx context.Context, ownerID, id string) (*models.Product, error)
	Create(ctx context.Context, ownerID string, draft models.ProductDraft) (*models.Product, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type ImageStore interface {
	GetWithProduct(ctx context.Context, id string) (*models.Image, error)
	Delete(ctx context.Context, id string) error
}

type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProductDetail is a product with its categories flattened out of the
// junction rows.
type ProductDetail struct {
	models.Product
	Categories []CategoryRef `json:"categories"`
}

func newProductDetail(p models.Product) ProductDetail {
	categories := make([]CategoryRef, 0, len(p.ProductCategories))
	for _, c := range p.Categories() {
		categories = append(categories, CategoryRef{ID: c.ID, Name: c.Name})
	}
	if p.Images == nil {
		p.Images = []models.Image{}
	}
	return ProductDetail{Product: p, Categories: categories}
}

// DeleteResult reports storage cleanup that failed while the delete itself
// went through.
type DeleteResult struct {
	Warnings []string `json:"warnings"`
}

type Service struct {
	products ProductStore
	images   ImageStore
	files    storage.ObjectStore
	lists    cache.ProductLists
	log      *logrus.Logger
}

func NewService(products ProductStore, images ImageStore, files storage.ObjectStore, lists cache.ProductLists, log *logrus.Logger) *Service {
	if lists == nil {
		lists = cache.Disabled{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		products: products,
		images:   images,
		files:    files,
		lists:    lists,
		log:      log,
	}
}

// List returns the owner's products, most recently updated first.
func (s *Service) List(ctx context.Context, ownerID string) ([]ProductDetail, error) {
	var cached []ProductDetail
	hit, err := s.lists.Get(ctx, ownerID, &cached)
	if err != nil {
		s.log.WithError(err).WithField("owner_id", ownerID).Warn("product list cache read failed")
	}
	if hit {
		return cached, nil
	}

	products, err := s.products.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, s.dbFailure(err, "list products", logrus.Fields{"owner_id": ownerID})
	}

	details := make([]ProductDetail, len(products))
	for i, p := range products {
		details[i] = newProductDetail(p)
	}

	if err := s.lists.Set(ctx, ownerID, details); err != nil {
		s.log.WithError(err).WithField("owner_id", ownerID).Warn("product list cache write failed")
	}
	return details, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (*ProductDetail, error) {
	product, err := s.products.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, s.dbFailure(err, "get product", logrus.Fields{"owner_id": ownerID, "product_id": id})
	}
	detail := newProductDetail(*product)
	return &detail, nil
}

// Create validates the form and stores the product with its categories and
// images atomically.
func (s *Service) Create(ctx context.Context, ownerID string, form CreateProductForm) (*ProductDetail, error) {
	draft, errs := form.Validate()
	if len(errs) > 0 {
		return nil, errs
	}

	product, err := s.products.Create(ctx, ownerID, draft)
	if err != nil {
		return nil, s.dbFailure(err, "create product", logrus.Fields{"owner_id": ownerID, "sku": draft.SKU})
	}

	metrics.RecordProductCreated()
	s.refresh(ctx, ownerID)

	s.log.WithFields(logrus.Fields{"owner_id": ownerID, "product_id": product.ID}).Info("product created")
	detail := newProductDetail(*product)
	return &detail, nil
}

// Delete removes the owner's product. Stored image files are deleted first,
// one at a time; a file that cannot be deleted becomes a warning and does not
// stop the row from being removed.
func (s *Service) Delete(ctx context.Context, ownerID, id string) (DeleteResult, error) {
	fields := logrus.Fields{"owner_id": ownerID, "product_id": id}

	product, err := s.products.GetByID(ctx, ownerID, id)
	if err != nil {
		return DeleteResult{}, s.dbFailure(err, "load product for delete", fields)
	}

	result := DeleteResult{Warnings: []string{}}
	for _, img := range product.Images {
		if warning := s.removeFile(ctx, "delete_product", img.FileKey); warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
	}

	if err := s.products.Delete(ctx, ownerID, id); err != nil {
		return DeleteResult{}, s.dbFailure(err, "delete product", fields)
	}

	s.refresh(ctx, ownerID)
	s.log.WithFields(fields).WithField("warnings", len(result.Warnings)).Info("product deleted")
	return result, nil
}

// DeleteImage removes one image of a product the caller owns.
func (s *Service) DeleteImage(ctx context.Context, ownerID, imageID string) (DeleteResult, error) {
	fields := logrus.Fields{"owner_id": ownerID, "image_id": imageID}

	image, err := s.images.GetWithProduct(ctx, imageID)
	if err != nil {
		return DeleteResult{}, s.dbFailure(err, "load image for delete", fields)
	}
	if image.Product == nil || image.Product.UserID != ownerID {
		s.log.WithFields(fields).Warn("image delete rejected for non-owner")
		return DeleteResult{}, models.ErrUnauthorized
	}

	result := DeleteResult{Warnings: []string{}}
	if warning := s.removeFile(ctx, "delete_image", image.FileKey); warning != "" {
		result.Warnings = append(result.Warnings, warning)
	}

	if err := s.images.Delete(ctx, imageID); err != nil {
		return DeleteResult{}, s.dbFailure(err, "delete image", fields)
	}

	s.refresh(ctx, ownerID)
	return result, nil
}

func (s *Service) removeFile(ctx context.Context, operation, key string) string {
	if s.files == nil {
		return ""
	}
	if err := s.files.Delete(ctx, key); err != nil {
		metrics.RecordStorageCleanupFailure(operation)
		s.log.WithError(err).WithField("file_key", key).Warn("failed to delete image from storage")
		return fmt.Sprintf("Failed to delete image from storage: %s", key)
	}
	return ""
}

// refresh drops the owner's cached list so the next read reloads it.
func (s *Service) refresh(ctx context.Context, ownerID string) {
	if err := s.lists.Invalidate(ctx, ownerID); err != nil {
		s.log.WithError(err).WithField("owner_id", ownerID).Warn("product list cache invalidation failed")
	}
}

// dbFailure passes lookup sentinels through and classifies everything else.
// The raw driver error is only logged.
func (s *Service) dbFailure(err error, action string, fields logrus.Fields) error {
	if errors.Is(err, models.ErrProductNotFound) || errors.Is(err, models.ErrImageNotFound) {
		return err
	}

	dbErr := models.ClassifyDBError(err)
	entry := s.log.WithError(err).WithFields(fields)
	if dbErr.Constraint != "" {
		entry = entry.WithField("constraint", dbErr.Constraint)
	}
	entry.Errorf("failed to %s", action)
	return dbErr
}
