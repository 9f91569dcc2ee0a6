package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mytheresa/inventory/app/auth"
	"github.com/mytheresa/inventory/app/cache"
	"github.com/mytheresa/inventory/app/categories"
	"github.com/mytheresa/inventory/app/database"
	"github.com/mytheresa/inventory/app/products"
	"github.com/mytheresa/inventory/app/upload"
	"github.com/mytheresa/inventory/models"
)

const testSecret = "test-secret"

type memoryFiles struct{ keys map[string]bool }

func (m *memoryFiles) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	m.keys[key] = true
	return key, nil
}

func (m *memoryFiles) Delete(_ context.Context, key string) error {
	delete(m.keys, key)
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *memoryFiles) {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := database.Open(database.Config{Driver: database.DriverSQLite, DSN: "file::memory:?_foreign_keys=on"}, log)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, models.Migrate(context.Background(), sqlDB))
	t.Cleanup(func() { sqlDB.Close() })

	files := &memoryFiles{keys: map[string]bool{}}
	verifier, err := auth.NewVerifier(testSecret)
	require.NoError(t, err)

	svc := products.NewService(models.NewProductsRepository(db), models.NewImagesRepository(db), files, cache.Disabled{}, log)
	handler := routes(handlers{
		products:   products.NewProductsHandler(svc, "en-US", "USD", log),
		categories: categories.NewCategoryHandler(models.NewCategoriesRepository(db), log),
		upload:     upload.NewUploadHandler(files, models.NewImagesRepository(db), "https://pub.example.com", 0, log),
	}, auth.Middleware(verifier, "/auth/sign-in", log), sqlDB, log)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, files
}

func sessionToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func do(t *testing.T, srv *httptest.Server, method, path, userID string, form url.Values) *http.Response {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, srv.URL+path, body)
	require.NoError(t, err)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+sessionToken(t, userID))
	}

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRoutes_RequireIdentity(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/products", "", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/auth/sign-in", resp.Header.Get("Location"))
}

func TestRoutes_PublicEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoutes_ProductLifecycle(t *testing.T) {
	srv, files := newTestServer(t)
	files.keys["1700000000000-front.jpg"] = true

	resp := do(t, srv, http.MethodPost, "/products", "user-1", url.Values{
		"name":       {"Drill"},
		"sku":        {"DR-1"},
		"price":      {"12999"},
		"categories": {"Tools, tools, ELECTRONICS"},
		"images":     {"https://pub.example.com/1700000000000-front.jpg"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Product products.ProductDetail `json:"product"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	id := created.Product.ID
	require.NotEmpty(t, id)

	// other owners cannot see it
	resp = do(t, srv, http.MethodGet, "/products/"+id, "user-2", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/categories", "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cats []categories.CategoryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cats))
	require.Len(t, cats, 2)
	assert.Equal(t, "electronics", cats[0].Name)
	assert.Equal(t, "tools", cats[1].Name)

	resp = do(t, srv, http.MethodGet, "/products/table", "user-1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, srv, http.MethodDelete, "/products/"+id, "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, files.keys)

	resp = do(t, srv, http.MethodGet, "/products", "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list products.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Zero(t, list.Total)
}

func TestRoutes_UploadDeleteIsOwnerScoped(t *testing.T) {
	srv, files := newTestServer(t)
	files.keys["1700000000000-front.jpg"] = true

	resp := do(t, srv, http.MethodPost, "/products", "alice", url.Values{
		"name":   {"Drill"},
		"sku":    {"DR-1"},
		"images": {"https://pub.example.com/1700000000000-front.jpg"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, srv, http.MethodDelete, "/upload", "mallory", url.Values{"filename": {"1700000000000-front.jpg"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.True(t, files.keys["1700000000000-front.jpg"])

	resp = do(t, srv, http.MethodDelete, "/upload", "alice", url.Values{"filename": {"1700000000000-front.jpg"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, files.keys["1700000000000-front.jpg"])
}
