// Package imagestore abstracts binary storage for dish photos.
package imagestore

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound means no image exists under the given storage key.
	ErrNotFound = errors.New("image not found")
	// ErrInvalidKey means the storage key does not name a stored image, for
	// example because it tries to escape the store's directory.
	ErrInvalidKey = errors.New("invalid storage key")
)

type ImageStore interface {
	Save(ctx context.Context, prefix, mimeType string, r io.Reader) (storageKey string, err error)
	Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, storageKey string) error
}
