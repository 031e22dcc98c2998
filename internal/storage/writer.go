package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"placeetl/internal/ddl"
	"placeetl/internal/placement"
)

// Run-level write failures.
var (
	ErrUnknownYear   = errors.New("record has no schema year")
	ErrShapeMismatch = errors.New("record shape does not match batch")
	ErrTooManyParams = errors.New("batch exceeds statement parameter limit")
)

// Target describes where one shape kind is persisted.
type Target struct {
	Table   string
	Columns []string
}

// TargetFor returns the destination table and column order for kind.
func TargetFor(kind placement.Kind) Target {
	if kind == placement.KindRectangle {
		return Target{Table: ddl.ModerationTable, Columns: ddl.ModerationColumns}
	}
	return Target{Table: ddl.PlacementsTable, Columns: ddl.PlacementsColumns}
}

// RowWidth is the number of bind parameters one record of kind needs.
func RowWidth(kind placement.Kind) int { return len(TargetFor(kind).Columns) }

// Writer persists same-shape batches through a Repository, one multi-row
// INSERT per batch.
type Writer struct {
	repo Repository
}

// NewWriter returns a Writer bound to repo.
func NewWriter(repo Repository) *Writer { return &Writer{repo: repo} }

// Write inserts recs into the table for kind as a single atomic statement
// and returns the rows affected. An empty batch is a no-op.
func (w *Writer) Write(ctx context.Context, kind placement.Kind, recs []placement.Record) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	d := w.repo.Dialect()
	target := TargetFor(kind)

	width := len(target.Columns)
	if n := len(recs) * width; n > d.MaxParams() {
		return 0, fmt.Errorf("%w: %d rows x %d params = %d > %d (%s)",
			ErrTooManyParams, len(recs), width, n, d.MaxParams(), d.Name())
	}

	args := make([]any, 0, len(recs)*width)
	for i, rec := range recs {
		var err error
		if args, err = appendArgs(args, kind, rec); err != nil {
			return 0, fmt.Errorf("%s row %d: %w", target.Table, i, err)
		}
	}

	query := BuildInsertSQL(d, target, len(recs))
	n, err := w.repo.ExecInsert(ctx, query, args)
	if err != nil {
		return n, fmt.Errorf("insert %d rows into %s: %w", len(recs), target.Table, err)
	}
	return n, nil
}

// appendArgs appends the bind values of rec in the column order of its
// target table.
func appendArgs(args []any, kind placement.Kind, rec placement.Record) ([]any, error) {
	year, ok := rec.Year.Int()
	if !ok {
		return args, ErrUnknownYear
	}

	shape := rec.Shape
	if shape == nil {
		shape = placement.Tile{X: placement.NoCoordinate, Y: placement.NoCoordinate}
	}

	switch s := shape.(type) {
	case placement.Tile:
		if kind != placement.KindTile {
			return args, fmt.Errorf("%w: tile in %s batch", ErrShapeMismatch, kind)
		}
		return append(args,
			rec.Timestamp, rec.UserHash,
			int64(s.X), int64(s.Y),
			rec.Color, int64(year),
		), nil

	case placement.Rectangle:
		if kind != placement.KindRectangle {
			return args, fmt.Errorf("%w: rectangle in %s batch", ErrShapeMismatch, kind)
		}
		return append(args,
			rec.Timestamp, rec.UserHash,
			int64(s.Corner1.X), int64(s.Corner1.Y),
			int64(s.Corner2.X), int64(s.Corner2.Y),
			rec.Color, int64(year),
		), nil

	default:
		return args, fmt.Errorf("%w: shape %T", ErrShapeMismatch, shape)
	}
}

// BuildInsertSQL renders
//
//	INSERT INTO t (c1, ..., ck) VALUES (p1, ..., pk), (pk+1, ...), ...
//
// with rows parameter groups numbered consecutively.
func BuildInsertSQL(d Dialect, target Target, rows int) string {
	cols := make([]string, len(target.Columns))
	for i, c := range target.Columns {
		cols[i] = d.QuoteIdent(c)
	}

	var sb strings.Builder
	sb.Grow(64 + rows*len(cols)*6)
	sb.WriteString("INSERT INTO ")
	sb.WriteString(ddl.QuoteFQN(target.Table, d.QuoteIdent))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(") VALUES ")

	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c := range cols {
			if c > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.Placeholder(n))
			n++
		}
		sb.WriteByte(')')
	}
	return sb.String()
}
