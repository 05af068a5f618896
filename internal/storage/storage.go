// Package storage keeps uploaded media blobs addressed by opaque keys.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no blob exists for a key.
var ErrNotFound = errors.New("blob not found")

// ErrInvalidKey is returned for empty keys and keys that leave the storage root.
var ErrInvalidKey = errors.New("invalid blob key")

// Storage stores, retrieves and deletes blobs by key.
type Storage interface {
	// Save writes r under key and returns the number of bytes written.
	Save(ctx context.Context, key string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Size(ctx context.Context, key string) (int64, error)
}

// NewKey builds a date-partitioned key such as media/2024/05/01/<uuid>.png.
func NewKey(prefix string, now time.Time, ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	name := uuid.NewString()
	if ext != "" {
		name += "." + ext
	}
	return fmt.Sprintf("%s/%s/%s", strings.Trim(prefix, "/"), now.UTC().Format("2006/01/02"), name)
}
