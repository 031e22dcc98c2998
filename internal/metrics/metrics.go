// Package metrics records operational metrics from an ingest run behind a
// small, backend-agnostic interface.
//
// A global backend defaults to a no-op, so instrumentation is always safe to
// call. Concrete systems live in subpackages (prompush, datadog) and are
// installed with SetBackend.
package metrics

import (
	"sync"
	"time"
)

// Metric names emitted by this package.
const (
	StepTotal     = "placeetl_step_total"
	StepDuration  = "placeetl_step_duration_seconds"
	RecordsTotal  = "placeetl_records_total"
	BatchesTotal  = "placeetl_batches_total"
	RowsTotal     = "placeetl_rows_written_total"
	FlushDuration = "placeetl_flush_duration_seconds"
)

// Record kinds reported through RecordRecords.
const (
	KindLines      = "lines"
	KindNormalized = "normalized"
	KindRejected   = "rejected"
	KindParseError = "parse_errors"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend and returns the previous one.
// Passing nil keeps the existing backend.
func SetBackend(b Backend) Backend {
	mu.Lock()
	defer mu.Unlock()
	prev := backend
	if b != nil {
		backend = b
	}
	return prev
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep records latency and success/failure of one run step
// (bootstrap, ingest, drain).
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}

	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRecords increments the record-level counter for kind. Non-positive
// deltas are ignored.
func RecordRecords(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RecordsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordFlush records one successful batch of the given shape.
func RecordFlush(job, shape string, rows int64, d time.Duration) {
	lbls := Labels{"job": job, "shape": shape}

	b := current()
	b.IncCounter(BatchesTotal, 1, lbls)
	if rows > 0 {
		b.IncCounter(RowsTotal, float64(rows), lbls)
	}
	b.ObserveHistogram(FlushDuration, d.Seconds(), lbls)
}
