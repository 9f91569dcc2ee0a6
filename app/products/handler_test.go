package products

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mytheresa/inventory/app/auth"
	"github.com/mytheresa/inventory/app/table"
	"github.com/mytheresa/inventory/models"
)

// --- Mock Provider ---

type MockProductProvider struct {
	Products []ProductDetail
	Result   DeleteResult
	Err      error

	// Fields to capture call arguments
	lastOwner string
	lastID    string
	lastForm  CreateProductForm
}

func (m *MockProductProvider) List(_ context.Context, ownerID string) ([]ProductDetail, error) {
	m.lastOwner = ownerID
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Products, nil
}

func (m *MockProductProvider) Get(_ context.Context, ownerID, id string) (*ProductDetail, error) {
	m.lastOwner, m.lastID = ownerID, id
	if m.Err != nil {
		return nil, m.Err
	}
	for _, p := range m.Products {
		if p.ID == id {
			product := p
			return &product, nil
		}
	}
	return nil, models.ErrProductNotFound
}

func (m *MockProductProvider) Create(_ context.Context, ownerID string, form CreateProductForm) (*ProductDetail, error) {
	m.lastOwner, m.lastForm = ownerID, form
	if m.Err != nil {
		return nil, m.Err
	}
	return &ProductDetail{Product: models.Product{ID: "new-id", Name: form.Name, SKU: form.SKU}}, nil
}

func (m *MockProductProvider) Delete(_ context.Context, ownerID, id string) (DeleteResult, error) {
	m.lastOwner, m.lastID = ownerID, id
	return m.Result, m.Err
}

func (m *MockProductProvider) DeleteImage(_ context.Context, ownerID, imageID string) (DeleteResult, error) {
	m.lastOwner, m.lastID = ownerID, imageID
	return m.Result, m.Err
}

// --- Helpers ---

func newTestHandler(p ProductProvider) *ProductsHandler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	h := NewProductsHandler(p, "en-US", "USD", log)
	h.now = func() time.Time { return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC) }
	return h
}

func newRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(auth.WithUserID(req.Context(), "user-1"))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Success)
	return resp
}

// --- Tests ---

func TestHandleList(t *testing.T) {
	testCases := []struct {
		name               string
		provider           *MockProductProvider
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name: "Success",
			provider: &MockProductProvider{Products: []ProductDetail{
				{Product: models.Product{ID: "p1", Name: "Drill"}},
				{Product: models.Product{ID: "p2", Name: "Saw"}},
			}},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Response
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, 2, resp.Total)
				assert.Equal(t, "Drill", resp.Products[0].Name)
			},
		},
		{
			name:               "Provider failure is reported generically",
			provider:           &MockProductProvider{Err: &models.DBError{Message: "Something went wrong", Err: errors.New("conn refused")}},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				resp := decodeError(t, rec)
				assert.Equal(t, "Something went wrong", resp.Error.Message)
				assert.NotContains(t, rec.Body.String(), "conn refused")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestHandler(tc.provider).HandleList(rec, newRequest(http.MethodGet, "/products", nil))

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			assert.Equal(t, "user-1", tc.provider.lastOwner)
			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}
		})
	}
}

func TestHandleTable(t *testing.T) {
	provider := &MockProductProvider{Products: []ProductDetail{
		{Product: models.Product{ID: "p1", Name: "Saw", Price: 500}},
		{Product: models.Product{ID: "p2", Name: "Drill", Price: 1500}},
	}}
	h := newTestHandler(provider)

	rec := httptest.NewRecorder()
	h.HandleTable(rec, newRequest(http.MethodGet, "/products/table?sort=price&order=desc", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var grid table.Grid
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&grid))
	require.Len(t, grid.Rows, 2)
	assert.Equal(t, "p2", grid.Rows[0].Key)
	assert.Equal(t, "$15.00", grid.Rows[0].Cells["price"].Text)

	rec = httptest.NewRecorder()
	h.HandleTable(rec, newRequest(http.MethodGet, "/products/table?sort=actions", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGet(t *testing.T) {
	provider := &MockProductProvider{Products: []ProductDetail{
		{
			Product:    models.Product{ID: "p1", Name: "Drill", SKU: "DR-1"},
			Categories: []CategoryRef{{ID: "c1", Name: "tools"}},
		},
	}}

	testCases := []struct {
		name               string
		id                 string
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name:               "Found",
			id:                 "p1",
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp ProductDetail
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, "DR-1", resp.SKU)
				assert.Equal(t, []CategoryRef{{ID: "c1", Name: "tools"}}, resp.Categories)
			},
		},
		{
			name:               "Not found",
			id:                 "missing",
			expectedStatusCode: http.StatusNotFound,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Product not found", decodeError(t, rec).Error.Message)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := newRequest(http.MethodGet, "/products/"+tc.id, nil)
			req.SetPathValue("id", tc.id)
			rec := httptest.NewRecorder()

			newTestHandler(provider).HandleGet(rec, req)

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			assert.Equal(t, tc.id, provider.lastID)
			tc.checkResponse(t, rec)
		})
	}
}

func TestHandleCreate(t *testing.T) {
	testCases := []struct {
		name               string
		provider           *MockProductProvider
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name:               "Created",
			provider:           &MockProductProvider{},
			expectedStatusCode: http.StatusCreated,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp struct {
					Success bool          `json:"success"`
					Product ProductDetail `json:"product"`
				}
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.True(t, resp.Success)
				assert.Equal(t, "new-id", resp.Product.ID)
			},
		},
		{
			name:               "Validation errors",
			provider:           &MockProductProvider{Err: ValidationErrors{"price": "Price must be 0 or greater"}},
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				resp := decodeError(t, rec)
				assert.Equal(t, map[string]string{"price": "Price must be 0 or greater"}, resp.Error.Fields)
			},
		},
		{
			name: "Duplicate SKU",
			provider: &MockProductProvider{Err: &models.DBError{
				Kind:       models.ConstraintUnique,
				Message:    "A product with this SKU already exists",
				Constraint: "product_sku_unique",
			}},
			expectedStatusCode: http.StatusConflict,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				resp := decodeError(t, rec)
				assert.Equal(t, "A product with this SKU already exists", resp.Error.Message)
				assert.Equal(t, "product_sku_unique", resp.Error.Constraint)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body := url.Values{"name": {"Drill"}, "sku": {"DR-1"}, "categories": {"tools"}}
			req := newRequest(http.MethodPost, "/products", strings.NewReader(body.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := httptest.NewRecorder()

			newTestHandler(tc.provider).HandleCreate(rec, req)

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			assert.Equal(t, "Drill", tc.provider.lastForm.Name)
			assert.Equal(t, []string{"tools"}, tc.provider.lastForm.Categories)
			tc.checkResponse(t, rec)
		})
	}
}

func TestHandleDelete(t *testing.T) {
	testCases := []struct {
		name               string
		provider           *MockProductProvider
		handle             func(h *ProductsHandler) http.HandlerFunc
		expectedStatusCode int
		expectedWarnings   []string
		expectedMessage    string
	}{
		{
			name:               "Product deleted with warnings",
			provider:           &MockProductProvider{Result: DeleteResult{Warnings: []string{"Failed to delete image from storage: a.jpg"}}},
			handle:             func(h *ProductsHandler) http.HandlerFunc { return h.HandleDelete },
			expectedStatusCode: http.StatusOK,
			expectedWarnings:   []string{"Failed to delete image from storage: a.jpg"},
		},
		{
			name:               "Product deleted cleanly",
			provider:           &MockProductProvider{},
			handle:             func(h *ProductsHandler) http.HandlerFunc { return h.HandleDelete },
			expectedStatusCode: http.StatusOK,
			expectedWarnings:   []string{},
		},
		{
			name:               "Product not found",
			provider:           &MockProductProvider{Err: models.ErrProductNotFound},
			handle:             func(h *ProductsHandler) http.HandlerFunc { return h.HandleDelete },
			expectedStatusCode: http.StatusNotFound,
			expectedMessage:    "Product not found",
		},
		{
			name:               "Image owned by someone else",
			provider:           &MockProductProvider{Err: models.ErrUnauthorized},
			handle:             func(h *ProductsHandler) http.HandlerFunc { return h.HandleDeleteImage },
			expectedStatusCode: http.StatusForbidden,
			expectedMessage:    "Unauthorized",
		},
		{
			name:               "Image not found",
			provider:           &MockProductProvider{Err: wrapped(models.ErrImageNotFound)},
			handle:             func(h *ProductsHandler) http.HandlerFunc { return h.HandleDeleteImage },
			expectedStatusCode: http.StatusNotFound,
			expectedMessage:    "Image not found",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := newRequest(http.MethodDelete, "/x/abc", nil)
			req.SetPathValue("id", "abc")
			rec := httptest.NewRecorder()

			tc.handle(newTestHandler(tc.provider))(rec, req)

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			assert.Equal(t, "abc", tc.provider.lastID)
			assert.Equal(t, "user-1", tc.provider.lastOwner)

			if tc.expectedMessage != "" {
				assert.Equal(t, tc.expectedMessage, decodeError(t, rec).Error.Message)
				return
			}
			var resp struct {
				Success  bool     `json:"success"`
				Warnings []string `json:"warnings"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.True(t, resp.Success)
			assert.Equal(t, tc.expectedWarnings, resp.Warnings)
		})
	}
}

func wrapped(err error) error {
	return errors.Join(errors.New("lookup failed"), err)
}

type brokenWriter struct{ *httptest.ResponseRecorder }

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection closed") }

func TestWriteJSON_LogsEncodeFailureOnHandlerLogger(t *testing.T) {
	log, hook := test.NewNullLogger()
	h := NewProductsHandler(&MockProductProvider{}, "en-US", "USD", log)

	h.writeJSON(brokenWriter{httptest.NewRecorder()}, http.StatusOK, Response{})

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "failed to encode response", hook.LastEntry().Message)
}
