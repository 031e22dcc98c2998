// Package ingest drives a placeetl run: it opens each input, streams CSV
// lines through the normalizer and feeds the shape buffers that batch rows
// into the store.
//
// Pipeline per input:
//
//	StreamRecords (1 goroutine)
//	     -> sequencer (assigns arrival order, bounds in-flight lines)
//	     -> N normalize workers
//	     -> consumer (re-orders by sequence, owns the Accumulator)
//
// Record-level failures are counted, sampled and written to the reject log;
// they never stop the run. Any other error aborts it without draining the
// buffers.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"placeetl/internal/config"
	"placeetl/internal/datasource"
	"placeetl/internal/metrics"
	csvparser "placeetl/internal/parser/csv"
	"placeetl/internal/placement"
	"placeetl/internal/skiplog"
	"placeetl/internal/storage"
)

// Deps are the collaborators of a run. Zero fields get production defaults.
type Deps struct {
	Logger *zap.Logger

	// Open opens one input location. Defaults to datasource.Open.
	Open func(ctx context.Context, location string) (io.ReadCloser, error)

	// NewRepository opens the store. Defaults to storage.New.
	NewRepository func(ctx context.Context, cfg storage.Config) (storage.Repository, error)

	// Echo receives one line per normalized record when cfg.Echo is set.
	// Defaults to os.Stdout.
	Echo io.Writer

	// Rejects overrides the reject log named by cfg.RejectLog.
	Rejects *skiplog.Writer

	// OnTransition observes every state change.
	OnTransition func(from, to State)
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Open == nil {
		d.Open = func(ctx context.Context, location string) (io.ReadCloser, error) {
			return datasource.Open(ctx, location, nil)
		}
	}
	if d.NewRepository == nil {
		d.NewRepository = storage.New
	}
	if d.Echo == nil {
		d.Echo = os.Stdout
	}
	return d
}

// Summary reports what a run did.
type Summary struct {
	Lines         int64 // data lines seen, good or bad
	Normalized    int64
	Rejected      int64 // lines dropped, parse errors included
	ParseErrors   int64
	TileRows      int64
	RectangleRows int64
	Batches       int64
	Samples       []string // first rejection messages
}

type runner struct {
	cfg     config.Pipeline
	deps    Deps
	logger  *zap.Logger
	m       machine
	acc     *storage.Accumulator
	th      storage.Thresholds
	rejects *skiplog.Writer
	errs    *errAgg
	tally   tally
}

// Run processes every input of cfg in order and returns the run summary.
// An empty input list reads stdin.
func Run(ctx context.Context, cfg config.Pipeline, deps Deps) (sum Summary, err error) {
	deps = deps.withDefaults()
	logger := deps.Logger.Named("ingest")

	samples := cfg.Runtime.MaxErrorSamples
	if samples < 0 {
		samples = 0
	}
	r := &runner{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		m:      machine{logger: logger, observe: deps.OnTransition},
		errs:   newErrAgg(samples),
	}

	repo, err := deps.NewRepository(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
	if err != nil {
		return sum, fmt.Errorf("init repo: %w", err)
	}
	defer func() {
		repo.Close()
		r.m.to(StateClosed)
	}()

	d := repo.Dialect()
	r.th = storage.Thresholds{
		Tile:      cfg.Runtime.TileThreshold,
		Rectangle: cfg.Runtime.RectangleThreshold,
	}.WithDefaults(d)
	if err := r.th.Validate(d); err != nil {
		return sum, fmt.Errorf("thresholds: %w", err)
	}
	logger.Info("runtime",
		zap.String("storage", d.Name()),
		zap.Int("tile_threshold", r.th.Tile),
		zap.Int("rectangle_threshold", r.th.Rectangle),
		zap.Int("workers", r.workers()),
		zap.Int("buffer", r.buffer()),
	)

	if cfg.Storage.Bootstrap {
		began := time.Now()
		err := storage.Bootstrap(ctx, cfg.Storage.Kind, repo)
		metrics.RecordStep(cfg.Job, "bootstrap", err, time.Since(began))
		if err != nil {
			return sum, fmt.Errorf("bootstrap: %w", err)
		}
	}

	r.rejects = deps.Rejects
	if r.rejects == nil && cfg.RejectLog != "" {
		if r.rejects, err = skiplog.Create(cfg.RejectLog); err != nil {
			return sum, err
		}
		defer func() {
			if cerr := r.rejects.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
	}

	r.acc = storage.NewAccumulator(storage.NewWriter(repo), r.th, deps.Logger.Named("accumulator"))
	r.acc.OnFlush = func(kind placement.Kind, rows int64, took time.Duration) {
		metrics.RecordFlush(cfg.Job, kind.String(), rows, took)
	}

	inputs := cfg.Inputs
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}
	for _, in := range inputs {
		began := time.Now()
		err := r.ingest(ctx, in)
		metrics.RecordStep(cfg.Job, "ingest", err, time.Since(began))
		if err != nil {
			return r.summary(), err
		}
	}

	r.m.to(StateDraining)
	began := time.Now()
	err = r.acc.FlushAll(ctx, true)
	metrics.RecordStep(cfg.Job, "drain", err, time.Since(began))
	if err != nil {
		return r.summary(), fmt.Errorf("drain: %w", err)
	}

	sum = r.summary()
	r.report(sum)
	return sum, nil
}

func (r *runner) workers() int {
	if n := r.cfg.Runtime.NormalizeWorkers; n > 0 {
		return n
	}
	return 1
}

func (r *runner) buffer() int {
	if n := r.cfg.Runtime.ChannelBuffer; n > 0 {
		return n
	}
	return 1024
}

type job struct {
	seq  int64
	line csvparser.Line
}

type result struct {
	job
	rec placement.Record
	err error
}

// ingest streams one input through the pipeline. Records reach the
// accumulator in the order their lines appear in the input.
func (r *runner) ingest(ctx context.Context, source string) error {
	rc, err := r.deps.Open(ctx, source)
	if err != nil {
		return fmt.Errorf("open input %s: %w", source, err)
	}
	defer rc.Close()

	r.m.to(StateReading)
	r.logger.Info("reading", zap.String("source", source))

	buf := r.buffer()
	g, gctx := errgroup.WithContext(ctx)
	lines := make(chan csvparser.Line, buf)
	jobs := make(chan job, buf)
	results := make(chan result, buf)
	window := make(chan struct{}, buf)

	g.Go(func() error {
		defer close(lines)
		err := csvparser.StreamRecords(gctx, rc, r.cfg.Parser.Options, lines, func(line int, err error) {
			r.parseError(source, line, err)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("%s: %w", source, err)
		}
		return err
	})

	g.Go(func() error {
		defer close(jobs)
		var seq int64
		for l := range lines {
			select {
			case window <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			select {
			case jobs <- job{seq: seq, line: l}:
			case <-gctx.Done():
				return gctx.Err()
			}
			seq++
		}
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < r.workers(); i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for j := range jobs {
				rec, err := placement.Normalize(j.line.Fields)
				select {
				case results <- result{job: j, rec: rec, err: err}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	g.Go(func() error {
		pending := make(map[int64]result)
		var next int64
		for res := range results {
			pending[res.seq] = res
			for {
				p, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++
				<-window
				if err := r.consume(gctx, source, p); err != nil {
					return err
				}
			}
		}
		return nil
	})

	return g.Wait()
}

// consume handles one normalized line in arrival order.
func (r *runner) consume(ctx context.Context, source string, res result) error {
	r.m.to(StateNormalizing)
	if res.err != nil {
		r.reject(source, res.line, res.err)
		return nil
	}
	r.tally.normalized.Add(1)

	if r.cfg.Echo {
		if _, err := fmt.Fprintln(r.deps.Echo, res.rec); err != nil {
			return fmt.Errorf("echo: %w", err)
		}
	}

	r.m.to(StateAccumulating)
	k := res.rec.Kind()
	if r.acc.Len(k)+1 >= r.th.For(k) {
		r.m.to(StateFlushing)
	}
	return r.acc.Append(ctx, res.rec)
}

func (r *runner) parseError(source string, line int, err error) {
	r.tally.parseErrors.Add(1)
	r.record(source, line, "", "", err)
}

func (r *runner) reject(source string, l csvparser.Line, err error) {
	r.tally.rejected.Add(1)
	field := ""
	var fe *placement.FieldError
	if errors.As(err, &fe) {
		field = fe.Field
	}
	r.record(source, l.Num, field, l.Raw, err)
}

func (r *runner) record(source string, line int, field, raw string, err error) {
	msg := fmt.Sprintf("%s:%d: %v", source, line, err)
	if r.errs.add(msg) {
		r.logger.Warn("line rejected", zap.String("source", source), zap.Int("line", line), zap.Error(err))
	} else {
		r.logger.Debug("line rejected", zap.String("source", source), zap.Int("line", line), zap.Error(err))
	}
	if werr := r.rejects.Add(skiplog.Entry{
		Source: source,
		Line:   line,
		Field:  field,
		Reason: err.Error(),
		Raw:    raw,
	}); werr != nil {
		r.logger.Error("reject log", zap.Error(werr))
	}
}

func (r *runner) summary() Summary {
	st := r.acc.Stats()
	parseErrs := r.tally.parseErrors.Load()
	rejected := r.tally.rejected.Load() + parseErrs
	normalized := r.tally.normalized.Load()
	return Summary{
		Lines:         normalized + rejected,
		Normalized:    normalized,
		Rejected:      rejected,
		ParseErrors:   parseErrs,
		TileRows:      st.TileRows,
		RectangleRows: st.RectangleRows,
		Batches:       st.Batches,
		Samples:       r.errs.samples(),
	}
}

func (r *runner) report(s Summary) {
	job := r.cfg.Job
	metrics.RecordRecords(job, metrics.KindLines, s.Lines)
	metrics.RecordRecords(job, metrics.KindNormalized, s.Normalized)
	metrics.RecordRecords(job, metrics.KindRejected, s.Rejected)
	metrics.RecordRecords(job, metrics.KindParseError, s.ParseErrors)

	if s.Rejected > 0 {
		r.logger.Info(fmt.Sprintf("rejects: %d (showing first %d)", s.Rejected, len(s.Samples)))
		for i, m := range s.Samples {
			r.logger.Info(fmt.Sprintf("  #%03d: %s", i+1, m))
		}
	}
	r.logger.Info("summary",
		zap.String("lines", humanize.Comma(s.Lines)),
		zap.String("normalized", humanize.Comma(s.Normalized)),
		zap.Int64("rejected", s.Rejected),
		zap.Int64("parse_errors", s.ParseErrors),
		zap.String("tile_rows", humanize.Comma(s.TileRows)),
		zap.String("rectangle_rows", humanize.Comma(s.RectangleRows)),
		zap.Int64("batches", s.Batches),
	)
}
