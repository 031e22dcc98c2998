// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// Local is a filesystem data source that opens files from the local disk.
type Local struct {
	path  string
	stdin io.Reader
}

// NewLocal returns a new Local data source bound to the provided filesystem
// path. An empty path or "-" reads standard input.
func NewLocal(path string) *Local { return &Local{path: path, stdin: os.Stdin} }

// Open opens the configured path for reading and returns an io.ReadCloser.
//
// Behavior:
//   - If the context is already canceled, Open returns the context error
//     without touching the filesystem.
//   - Standard input is returned behind a no-op Close so the process keeps it.
//   - Any filesystem error is wrapped with the path, while still permitting
//     errors.Is checks (e.g., errors.Is(err, os.ErrNotExist)).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if l.path == "" || l.path == Stdin {
		return io.NopCloser(l.stdin), nil
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}
