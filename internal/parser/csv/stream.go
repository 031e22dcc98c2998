// Package csv streams placement CSV files line by line.
//
// The first row names the fields; every following row is paired with those
// names in column order and handed on as a Line. Nothing is buffered beyond
// the current row.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"placeetl/internal/config"
	"placeetl/internal/placement"
)

// Line is one data row paired with the header names.
type Line struct {
	// Num is the 1-based physical line the row starts on. The header is
	// line 1.
	Num    int
	Fields []placement.Field
	// Raw is the row's cells re-joined with the separator. It identifies
	// the row in reject logs.
	Raw string
}

// StreamRecords reads r as CSV and sends one Line per data row into out.
//
// Behavior:
//   - The header row is required on non-empty input. Empty input yields no
//     lines and no error.
//   - Rows whose width differs from the header, and rows encoding/csv cannot
//     parse, are soft errors: they go to onErr(line, err) and the stream
//     continues.
//   - Options: comma (default ","), trim_space (default true), lazy_quotes
//     (default false).
//
// Returns nil on EOF, ctx.Err() on cancellation, or a fatal header or reader
// error. A failing reader (truncated download, reset connection) ends the
// stream; it is not reported per row.
// The caller closes out.
func StreamRecords(
	ctx context.Context,
	r io.Reader,
	opt config.Options,
	out chan<- Line,
	onErr func(line int, err error),
) error {
	comma := opt.Rune("comma", ',')
	cr := csv.NewReader(r)
	if comma != 0 {
		cr.Comma = comma
	}
	cr.LazyQuotes = opt.Bool("lazy_quotes", false)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	trim := opt.Bool("trim_space", true)

	h, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read csv header: %w", err)
	}
	headers := NormalizeHeaders(h)
	expected := len(headers)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			// Only malformed rows are recoverable; reader errors repeat forever.
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return fmt.Errorf("read csv: %w", err)
			}
			if onErr != nil {
				onErr(pe.StartLine, fmt.Errorf("csv read: %w", err))
			}
			continue
		}
		line, _ := cr.FieldPos(0)

		if len(rec) != expected {
			if onErr != nil {
				onErr(line, fmt.Errorf("incorrect number of fields: expected %d, got %d", expected, len(rec)))
			}
			continue
		}

		fields := make([]placement.Field, len(rec))
		for i, v := range rec {
			if trim {
				v = strings.TrimSpace(v)
			}
			fields[i] = placement.Field{Name: headers[i], Value: v}
		}

		select {
		case out <- Line{Num: line, Fields: fields, Raw: strings.Join(rec, string(cr.Comma))}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
