package ingest

import (
	"sync"
	"sync/atomic"
)

// tally holds counters shared by the parser goroutine and the consumer.
type tally struct {
	parseErrors atomic.Int64
	rejected    atomic.Int64 // normalization failures
	normalized  atomic.Int64
}

// errAgg keeps the first limit messages.
type errAgg struct {
	mu    sync.Mutex
	limit int
	first []string
}

func newErrAgg(limit int) *errAgg {
	return &errAgg{limit: limit}
}

// add records msg and reports whether it was kept as a sample.
func (a *errAgg) add(msg string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.first) < a.limit {
		a.first = append(a.first, msg)
		return true
	}
	return false
}

func (a *errAgg) samples() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.first...)
}
