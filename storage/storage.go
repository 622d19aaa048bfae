// Package storage opens the raw data extracts by name.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a named object does not exist.
var ErrNotFound = errors.New("object not found")

// Storage opens named objects for reading.
type Storage interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}
