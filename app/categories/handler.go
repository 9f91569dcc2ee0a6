package categories

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/mytheresa/inventory/app/auth"
	"github.com/mytheresa/inventory/models"
)

type ProductSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	SKU  string `json:"sku"`
}

type CategoryResponse struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Products []ProductSummary `json:"products"`
}

type CategoryProvider interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Category, error)
}

type CategoryHandler struct {
	repo CategoryProvider
	log  *logrus.Logger
}

func NewCategoryHandler(r CategoryProvider, log *logrus.Logger) *CategoryHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CategoryHandler{repo: r, log: log}
}

// HandleGetAll lists the caller's categories by name with the products tagged
// with each.
func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())

	categories, err := h.repo.ListByOwner(r.Context(), ownerID)
	if err != nil {
		h.log.WithError(err).WithField("owner_id", ownerID).Error("failed to list categories")
		http.Error(w, models.ClassifyDBError(err).Message, http.StatusInternalServerError)
		return
	}

	response := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		products := make([]ProductSummary, 0, len(c.ProductCategories))
		for _, p := range c.Products() {
			products = append(products, ProductSummary{ID: p.ID, Name: p.Name, SKU: p.SKU})
		}
		response[i] = CategoryResponse{
			ID:       c.ID,
			Name:     c.Name,
			Products: products,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
