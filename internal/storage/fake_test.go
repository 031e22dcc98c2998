package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"placeetl/internal/ddl"
)

// fakeDialect renders Postgres-style placeholders with a configurable
// parameter limit.
type fakeDialect struct {
	maxParams int
}

func (fakeDialect) Name() string               { return "fake" }
func (fakeDialect) Placeholder(n int) string   { return fmt.Sprintf("$%d", n) }
func (fakeDialect) QuoteIdent(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` }
func (d fakeDialect) MaxParams() int {
	if d.maxParams == 0 {
		return 65535
	}
	return d.maxParams
}
func (fakeDialect) Types() ddl.TypeMap {
	return ddl.TypeMap{BigInt: "BIGINT", Int: "INT", SmallInt: "SMALLINT", Text: "TEXT", Color: "TEXT"}
}

type execCall struct {
	query string
	args  []any
}

// fakeRepo records every statement it is asked to run.
type fakeRepo struct {
	mu      sync.Mutex
	dialect Dialect
	inserts []execCall
	execs   []string
	failOn  int // 1-based index of the ExecInsert call that fails; 0 never
	closed  bool
}

func (f *fakeRepo) Dialect() Dialect {
	if f.dialect == nil {
		return fakeDialect{}
	}
	return f.dialect
}

func (f *fakeRepo) ExecInsert(ctx context.Context, query string, args []any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts = append(f.inserts, execCall{query: query, args: append([]any(nil), args...)})
	if f.failOn == len(f.inserts) {
		return 0, fmt.Errorf("fake: constraint violation")
	}
	// One parenthesized group per row after VALUES.
	return int64(strings.Count(query[strings.Index(query, "VALUES"):], "(")), nil
}

func (f *fakeRepo) Exec(ctx context.Context, query string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execs = append(f.execs, query)
	return nil
}

func (f *fakeRepo) Close() { f.closed = true }
