// Package skiplog writes rejected input lines to a CSV file so they can be
// inspected or replayed after a run.
//
// Columns: source, line, field, reason, fingerprint. The fingerprint is the
// xxh3 hash of the raw line and lets repeated rejects across dumps be
// grouped without storing the line itself.
package skiplog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/zeebo/xxh3"
)

// Header is the first row of every reject log.
var Header = []string{"source", "line", "field", "reason", "fingerprint"}

// Entry is one rejected line.
type Entry struct {
	Source string
	Line   int
	Field  string // empty when the line failed before field decoding
	Reason string
	Raw    string
}

// Fingerprint returns the hex xxh3 hash of raw.
func Fingerprint(raw string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(raw))
}

// Writer appends entries to a CSV reject log. It is safe for concurrent
// use. A nil *Writer discards everything.
type Writer struct {
	mu sync.Mutex
	cw *csv.Writer
	c  io.Closer
	n  int64
}

// Create truncates path and returns a Writer with the header already written.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("skiplog: create %s: %w", path, err)
	}
	w, err := newWriter(f, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

// New wraps w. Close flushes but does not close w.
func New(w io.Writer) (*Writer, error) {
	return newWriter(w, nil)
}

func newWriter(w io.Writer, c io.Closer) (*Writer, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return nil, fmt.Errorf("skiplog: write header: %w", err)
	}
	return &Writer{cw: cw, c: c}, nil
}

// Add records e.
func (w *Writer) Add(e Entry) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.cw.Write([]string{
		e.Source,
		strconv.Itoa(e.Line),
		e.Field,
		e.Reason,
		Fingerprint(e.Raw),
	}); err != nil {
		return fmt.Errorf("skiplog: write line %d: %w", e.Line, err)
	}
	w.n++
	return nil
}

// Count returns the number of entries written.
func (w *Writer) Count() int64 {
	if w == nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

// Close flushes buffered rows and closes the underlying file, if any.
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.cw.Flush()
	err := w.cw.Error()
	if w.c != nil {
		if cerr := w.c.Close(); err == nil {
			err = cerr
		}
		w.c = nil
	}
	return err
}
