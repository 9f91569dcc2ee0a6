package products

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mytheresa/inventory/app/auth"
	"github.com/mytheresa/inventory/app/table"
	"github.com/mytheresa/inventory/models"
)

type ProductProvider interface {
	List(ctx context.Context, ownerID string) ([]ProductDetail, error)
	Get(ctx context.Context, ownerID, id string) (*ProductDetail, error)
	Create(ctx context.Context, ownerID string, form CreateProductForm) (*ProductDetail, error)
	Delete(ctx context.Context, ownerID, id string) (DeleteResult, error)
	DeleteImage(ctx context.Context, ownerID, imageID string) (DeleteResult, error)
}

type Response struct {
	Total    int             `json:"total"`
	Products []ProductDetail `json:"products"`
}

type ErrorBody struct {
	Message    string            `json:"message"`
	Constraint string            `json:"constraint,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
}

type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

type ProductsHandler struct {
	svc      ProductProvider
	locale   string
	currency string
	now      func() time.Time
	log      *logrus.Logger
}

func NewProductsHandler(svc ProductProvider, locale, currency string, log *logrus.Logger) *ProductsHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ProductsHandler{
		svc:      svc,
		locale:   locale,
		currency: currency,
		now:      time.Now,
		log:      log,
	}
}

func (h *ProductsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.List(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, Response{
		Total:    len(products),
		Products: products,
	})
}

// HandleTable renders the product grid, optionally sorted with
// ?sort=<column>&order=asc|desc.
func (h *ProductsHandler) HandleTable(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.List(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}

	columns := Columns(ColumnOptions{Locale: h.locale, Currency: h.currency, Now: h.now()})
	if sortBy := r.URL.Query().Get("sort"); sortBy != "" {
		desc := r.URL.Query().Get("order") == "desc"
		if err := table.Sort(columns, products, sortBy, desc); err != nil {
			h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorBody{Message: err.Error()}})
			return
		}
	}

	h.writeJSON(w, http.StatusOK, table.Render(columns, products, func(p ProductDetail) string { return p.ID }))
}

func (h *ProductsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	product, err := h.svc.Get(r.Context(), auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, product)
}

func (h *ProductsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	form, err := ParseCreateProductForm(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorBody{Message: "Invalid form body"}})
		return
	}

	product, err := h.svc.Create(r.Context(), auth.UserID(r.Context()), form)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, struct {
		Success bool           `json:"success"`
		Product *ProductDetail `json:"product"`
	}{
		Success: true,
		Product: product,
	})
}

func (h *ProductsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Delete(r.Context(), auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeDeleted(w, result)
}

func (h *ProductsHandler) HandleDeleteImage(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.DeleteImage(r.Context(), auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeDeleted(w, result)
}

func (h *ProductsHandler) writeDeleted(w http.ResponseWriter, result DeleteResult) {
	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	h.writeJSON(w, http.StatusOK, struct {
		Success  bool     `json:"success"`
		Warnings []string `json:"warnings"`
	}{
		Success:  true,
		Warnings: warnings,
	})
}

// writeError maps service errors onto status codes. Anything unrecognised is
// reported with a generic message.
func (h *ProductsHandler) writeError(w http.ResponseWriter, err error) {
	var (
		validation ValidationErrors
		dbErr      *models.DBError
	)

	switch {
	case errors.As(err, &validation):
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorBody{
			Message: "Invalid product data",
			Fields:  validation,
		}})
	case errors.Is(err, models.ErrProductNotFound):
		h.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: ErrorBody{Message: "Product not found"}})
	case errors.Is(err, models.ErrImageNotFound):
		h.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: ErrorBody{Message: "Image not found"}})
	case errors.Is(err, models.ErrUnauthorized):
		h.writeJSON(w, http.StatusForbidden, ErrorResponse{Error: ErrorBody{Message: "Unauthorized"}})
	case errors.As(err, &dbErr) && dbErr.IsConstraintViolation():
		h.writeJSON(w, http.StatusConflict, ErrorResponse{Error: ErrorBody{
			Message:    dbErr.Message,
			Constraint: dbErr.Constraint,
		}})
	default:
		if dbErr == nil {
			h.log.WithError(err).Error("unexpected error")
		}
		h.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorBody{Message: "Something went wrong"}})
	}
}

func (h *ProductsHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.WithError(err).Warn("failed to encode response")
	}
}
