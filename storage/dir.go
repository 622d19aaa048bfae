package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Dir reads objects from a local directory. Names cannot escape it.
type Dir struct {
	root string
}

// NewDir returns a Dir rooted at path.
func NewDir(path string) *Dir {
	return &Dir{root: path}
}

// Open opens name relative to the directory.
func (d *Dir) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.OpenInRoot(d.root, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}
