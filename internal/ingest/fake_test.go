package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing/iotest"

	"placeetl/internal/ddl"
	"placeetl/internal/storage"
)

type fakeDialect struct{ maxParams int }

func (fakeDialect) Name() string               { return "fake" }
func (fakeDialect) Placeholder(int) string     { return "?" }
func (fakeDialect) QuoteIdent(s string) string { return `"` + s + `"` }
func (d fakeDialect) MaxParams() int {
	if d.maxParams == 0 {
		return 65535
	}
	return d.maxParams
}
func (fakeDialect) Types() ddl.TypeMap { return ddl.TypeMap{} }

type insert struct {
	query string
	args  []any
}

type fakeRepo struct {
	mu      sync.Mutex
	dialect fakeDialect
	inserts []insert
	failOn  int // 1-based ExecInsert call that fails; 0 never
	closed  bool
}

func (f *fakeRepo) Dialect() storage.Dialect { return f.dialect }

func (f *fakeRepo) ExecInsert(ctx context.Context, query string, args []any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts = append(f.inserts, insert{query: query, args: append([]any(nil), args...)})
	if f.failOn == len(f.inserts) {
		return 0, errors.New("fake: constraint violation")
	}
	width := 6
	if strings.Contains(query, "placements_moderation") {
		width = 8
	}
	return int64(len(args) / width), nil
}

func (f *fakeRepo) Exec(ctx context.Context, query string) error { return nil }
func (f *fakeRepo) Close()                                       { f.closed = true }

func (f *fakeRepo) factory() func(context.Context, storage.Config) (storage.Repository, error) {
	return func(context.Context, storage.Config) (storage.Repository, error) { return f, nil }
}

// openStrings serves inputs from memory and records the order they were
// opened in.
type openStrings struct {
	mu     sync.Mutex
	files  map[string]string
	opened []string
}

func (o *openStrings) open(ctx context.Context, location string) (io.ReadCloser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, location)
	s, ok := o.files[location]
	if !ok {
		return nil, fmt.Errorf("open %s: no such file", location)
	}
	return io.NopCloser(strings.NewReader(s)), nil
}

const header2022 = "timestamp,user_id,pixel_color,coordinate\n"

func tileLine2022(i int) string {
	return fmt.Sprintf("2022-04-04 00:%02d:%02d.000 UTC,u%d,#FF4500,\"%d,%d\"\n", (i/60)%60, i%60, i, i%2000, (i/2000)%2000)
}

func rectLine2022(i int) string {
	return fmt.Sprintf("2022-04-04 01:00:00.000 UTC,mod,#000000,\"0,0,%d,%d\"\n", i, i)
}

// openFailing serves contents and then fails every further read with err,
// the way a truncated download or a reset connection does.
func openFailing(contents string, err error) func(context.Context, string) (io.ReadCloser, error) {
	return func(context.Context, string) (io.ReadCloser, error) {
		return io.NopCloser(io.MultiReader(strings.NewReader(contents), iotest.ErrReader(err))), nil
	}
}
