package main

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/mytheresa/inventory/app/categories"
	"github.com/mytheresa/inventory/app/metrics"
	"github.com/mytheresa/inventory/app/products"
	"github.com/mytheresa/inventory/app/upload"
)

type handlers struct {
	products   *products.ProductsHandler
	categories *categories.CategoryHandler
	upload     *upload.UploadHandler
}

func routes(h handlers, requireUser func(http.Handler) http.Handler, db *sql.DB, log *logrus.Logger) http.Handler {
	mux := http.NewServeMux()

	private := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, requireUser(fn))
	}

	private("GET /products", h.products.HandleList)
	private("GET /products/table", h.products.HandleTable)
	private("GET /products/{id}", h.products.HandleGet)
	private("POST /products", h.products.HandleCreate)
	private("DELETE /products/{id}", h.products.HandleDelete)
	private("DELETE /images/{id}", h.products.HandleDeleteImage)
	private("GET /categories", h.categories.HandleGetAll)
	private("POST /upload", h.upload.HandleUpload)
	private("DELETE /upload", h.upload.HandleDelete)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if err := db.PingContext(r.Context()); err != nil {
			log.WithError(err).Warn("health check failed")
			status, code = "unavailable", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	})
	mux.Handle("GET /metrics", metrics.Handler())

	return metrics.InstrumentHandler(mux)
}
