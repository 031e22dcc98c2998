package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"placeetl/internal/placement"
)

// Default flush thresholds. A tile row binds 6 parameters and a rectangle row
// 8, so 5461 tiles fill exactly 32766 parameters, the SQLite limit.
const (
	DefaultTileThreshold      = 5461
	DefaultRectangleThreshold = 10
)

// Thresholds holds the per-shape buffer sizes that trigger a flush.
type Thresholds struct {
	Tile      int
	Rectangle int
}

// DefaultThresholds returns the built-in thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{Tile: DefaultTileThreshold, Rectangle: DefaultRectangleThreshold}
}

// For returns the threshold configured for kind.
func (t Thresholds) For(kind placement.Kind) int {
	if kind == placement.KindRectangle {
		return t.Rectangle
	}
	return t.Tile
}

// WithDefaults fills unset thresholds with the built-in defaults, lowered to
// the largest batch a statement of d can carry.
func (t Thresholds) WithDefaults(d Dialect) Thresholds {
	fill := func(v, def int, kind placement.Kind) int {
		if v > 0 {
			return v
		}
		if d != nil {
			if limit := d.MaxParams() / RowWidth(kind); limit < def {
				return limit
			}
		}
		return def
	}
	return Thresholds{
		Tile:      fill(t.Tile, DefaultTileThreshold, placement.KindTile),
		Rectangle: fill(t.Rectangle, DefaultRectangleThreshold, placement.KindRectangle),
	}
}

// Validate checks that both thresholds are positive and that a full batch of
// either shape fits into one statement for d.
func (t Thresholds) Validate(d Dialect) error {
	for _, k := range placement.Kinds {
		th := t.For(k)
		if th <= 0 {
			return fmt.Errorf("%s threshold must be > 0 (got %d)", k, th)
		}
		if d == nil {
			continue
		}
		if n := th * RowWidth(k); n > d.MaxParams() {
			return fmt.Errorf("%w: %s threshold %d x %d params = %d > %d (%s)",
				ErrTooManyParams, k, th, RowWidth(k), n, d.MaxParams(), d.Name())
		}
	}
	return nil
}

// BatchWriter persists one same-shape batch atomically. *Writer satisfies it.
type BatchWriter interface {
	Write(ctx context.Context, kind placement.Kind, recs []placement.Record) (int64, error)
}

// FlushStats are the running totals of an Accumulator.
type FlushStats struct {
	Batches       int64
	TileRows      int64
	RectangleRows int64
}

// Rows is the total number of rows written so far.
func (s FlushStats) Rows() int64 { return s.TileRows + s.RectangleRows }

// Accumulator buffers normalized records per shape and hands each buffer to
// a BatchWriter once it reaches its threshold. It is not safe for concurrent
// use; the ingest loop owns it.
type Accumulator struct {
	w      BatchWriter
	th     Thresholds
	logger *zap.Logger

	bufs [2][]placement.Record

	stats       FlushStats
	start       time.Time
	lastFlushTS time.Time
	lastTotal   int64

	// OnFlush, when set, observes every successful flush.
	OnFlush func(kind placement.Kind, rows int64, took time.Duration)
}

// NewAccumulator returns an Accumulator with empty buffers pre-sized to th.
func NewAccumulator(w BatchWriter, th Thresholds, logger *zap.Logger) *Accumulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	now := time.Now()
	a := &Accumulator{
		w:           w,
		th:          th,
		logger:      logger,
		start:       now,
		lastFlushTS: now,
	}
	for _, k := range placement.Kinds {
		a.bufs[k] = a.freshBuffer(k)
	}
	return a
}

func (a *Accumulator) freshBuffer(kind placement.Kind) []placement.Record {
	c := a.th.For(kind)
	if c < 0 {
		c = 0
	}
	return make([]placement.Record, 0, c)
}

// Len returns the number of records buffered for kind.
func (a *Accumulator) Len(kind placement.Kind) int { return len(a.bufs[kind]) }

// Stats returns the running flush totals.
func (a *Accumulator) Stats() FlushStats { return a.stats }

// Append adds rec to the buffer of its shape and flushes that buffer inline
// when it reaches its threshold. The record stays buffered if the flush
// fails.
func (a *Accumulator) Append(ctx context.Context, rec placement.Record) error {
	k := rec.Kind()
	a.bufs[k] = append(a.bufs[k], rec)
	if a.ShouldFlush(k) {
		return a.Flush(ctx, k)
	}
	return nil
}

// ShouldFlush reports whether the buffer for kind has reached its threshold.
func (a *Accumulator) ShouldFlush(kind placement.Kind) bool {
	return len(a.bufs[kind]) >= a.th.For(kind)
}

// Flush writes the buffer for kind. On success the buffer is replaced by a
// fresh empty one; on failure it is left untouched. An empty buffer is a
// no-op.
func (a *Accumulator) Flush(ctx context.Context, kind placement.Kind) error {
	buf := a.bufs[kind]
	if len(buf) == 0 {
		return nil
	}

	began := time.Now()
	n, err := a.w.Write(ctx, kind, buf)
	if err != nil {
		a.logger.Error("flush failed",
			zap.Stringer("kind", kind),
			zap.Int("buffered", len(buf)),
			zap.Int64("total_inserted", a.stats.Rows()),
			zap.Error(err),
		)
		return fmt.Errorf("flush %s batch: %w", kind, err)
	}
	a.bufs[kind] = a.freshBuffer(kind)

	a.stats.Batches++
	if kind == placement.KindRectangle {
		a.stats.RectangleRows += n
	} else {
		a.stats.TileRows += n
	}

	now := time.Now()
	sinceLast := now.Sub(a.lastFlushTS)
	total := a.stats.Rows()
	rps := float64(0)
	if sinceLast > 0 {
		rps = float64(total-a.lastTotal) / sinceLast.Seconds()
	}
	a.logger.Info(fmt.Sprintf("batch #%d", a.stats.Batches),
		zap.Stringer("kind", kind),
		zap.String("rps", humanize.Comma(int64(rps))),
		zap.Int64("inserted", n),
		zap.String("total_inserted", humanize.Comma(total)),
		zap.Duration("elapsed", now.Sub(a.start).Truncate(time.Millisecond)),
		zap.Duration("since_last", sinceLast.Truncate(time.Millisecond)),
	)
	a.lastFlushTS = now
	a.lastTotal = total

	if a.OnFlush != nil {
		a.OnFlush(kind, n, now.Sub(began))
	}
	return nil
}

// FlushAll flushes tiles, then rectangles. With force set every non-empty
// buffer is written; otherwise only buffers at or over their threshold.
func (a *Accumulator) FlushAll(ctx context.Context, force bool) error {
	for _, k := range placement.Kinds {
		if !force && !a.ShouldFlush(k) {
			continue
		}
		if err := a.Flush(ctx, k); err != nil {
			return err
		}
	}
	return nil
}
