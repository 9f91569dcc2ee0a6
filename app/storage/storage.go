// Package storage puts and deletes image files in an object-storage bucket.
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyKey is returned when an operation is attempted without a key.
var ErrEmptyKey = errors.New("storage: empty key")

// ObjectStore is the narrow gateway the inventory needs from a bucket.
type ObjectStore interface {
	// Put stores data under key and returns the key.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// PublicURL joins the bucket's public base URL and a key.
func PublicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
