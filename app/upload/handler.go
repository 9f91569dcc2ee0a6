package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mytheresa/inventory/app/auth"
	"github.com/mytheresa/inventory/app/storage"
	"github.com/mytheresa/inventory/models"
)

// DefaultMaxBytes caps an uploaded image at 5 MiB.
const DefaultMaxBytes = 5 << 20

// multipart framing allowance on top of the file itself
const formOverhead = 1 << 20

type UploadResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

type DeleteResponse struct {
	Deleted  bool   `json:"deleted"`
	Filename string `json:"filename"`
}

// ImageFinder reports which product images reference a stored file.
type ImageFinder interface {
	FindByFileKey(ctx context.Context, key string) ([]models.Image, error)
}

type UploadHandler struct {
	store     storage.ObjectStore
	images    ImageFinder
	publicURL string
	maxBytes  int64
	now       func() time.Time
	log       *logrus.Logger
}

func NewUploadHandler(store storage.ObjectStore, images ImageFinder, publicURL string, maxBytes int64, log *logrus.Logger) *UploadHandler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &UploadHandler{
		store:     store,
		images:    images,
		publicURL: publicURL,
		maxBytes:  maxBytes,
		now:       time.Now,
		log:       log,
	}
}

func (h *UploadHandler) tooLarge() string {
	return fmt.Sprintf("File size must be less than %dMB", h.maxBytes>>20)
}

// HandleUpload stores the multipart "image" field under "<unix-millis>-<name>".
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+formOverhead)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			fail(w, http.StatusBadRequest, h.tooLarge())
			return
		}
		fail(w, http.StatusBadRequest, "No file uploaded")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil || header.Size == 0 {
		fail(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		fail(w, http.StatusBadRequest, "File must be an image")
		return
	}
	if header.Size > h.maxBytes {
		fail(w, http.StatusBadRequest, h.tooLarge())
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.log.WithError(err).Error("failed to read uploaded file")
		fail(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	filename := fmt.Sprintf("%d-%s", h.now().UnixMilli(), header.Filename)
	if _, err := h.store.Put(r.Context(), filename, data, contentType); err != nil {
		h.log.WithError(err).WithField("file_key", filename).Error("upload error")
		fail(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	h.log.WithFields(logrus.Fields{"file_key": filename, "bytes": len(data)}).Info("image uploaded")
	writeJSON(w, http.StatusOK, UploadResponse{
		Success:  true,
		Filename: filename,
		URL:      storage.PublicURL(h.publicURL, filename),
	})
}

// HandleDelete removes a previously uploaded file named by the "filename" field.
// Files already attached to another user's product are refused.
func (h *UploadHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	filename := formValue(r, "filename")
	if filename == "" {
		fail(w, http.StatusBadRequest, "No filename provided")
		return
	}

	ownerID := auth.UserID(r.Context())
	images, err := h.images.FindByFileKey(r.Context(), filename)
	if err != nil {
		h.log.WithError(err).WithField("file_key", filename).Error("image lookup failed")
		fail(w, http.StatusInternalServerError, "Failed to delete file")
		return
	}
	for _, image := range images {
		if image.Product == nil || image.Product.UserID != ownerID {
			h.log.WithFields(logrus.Fields{
				"file_key": filename,
				"owner_id": ownerID,
			}).Warn("refused to delete another user's file")
			fail(w, http.StatusForbidden, "Unauthorized")
			return
		}
	}

	if err := h.store.Delete(r.Context(), filename); err != nil {
		h.log.WithError(err).WithField("file_key", filename).Error("delete error")
		fail(w, http.StatusInternalServerError, "Failed to delete file")
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{Deleted: true, Filename: filename})
}

// formValue also reads url-encoded DELETE bodies, which ParseForm skips.
func formValue(r *http.Request, key string) string {
	if v := r.FormValue(key); v != "" {
		return v
	}
	if r.Method != http.MethodDelete || !strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil {
		return ""
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return ""
	}
	return values.Get(key)
}

func fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
