package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned by Get when nothing is stored at the path.
var ErrNotExist = errors.New("stored object does not exist")

// Storage keeps uploaded binary objects (profile pictures and their thumbnails).
type Storage interface {
	// Save writes content at the relative path, replacing any existing object.
	Save(ctx context.Context, path string, content io.Reader) error

	// Get opens the object at the relative path. Callers must close it.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at the relative path. Missing objects are not an error.
	Delete(ctx context.Context, path string) error
}
