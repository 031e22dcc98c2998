// Package storage contains the storage-agnostic contracts (Repository,
// Dialect), the backend factory, and the batched persistence pipeline for
// normalized placements: the Accumulator buffers records per shape and the
// Writer turns each buffer into one multi-row INSERT.
//
// Concrete backends live in subpackages and register themselves in init; a
// binary enables them by blank-importing placeetl/internal/storage/all.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"placeetl/internal/ddl"
)

// Dialect captures the SQL differences the Writer and the schema bootstrap
// care about.
type Dialect interface {
	// Name is the storage kind, e.g. "sqlite".
	Name() string
	// Placeholder returns the bind marker for the n-th parameter (1-based).
	Placeholder(n int) string
	// QuoteIdent quotes a single identifier.
	QuoteIdent(ident string) string
	// MaxParams is the largest number of bind parameters one statement may carry.
	MaxParams() int
	// Types names the column types used by the placement tables.
	Types() ddl.TypeMap
}

// Repository is the minimal contract a backend offers the pipeline.
type Repository interface {
	Dialect() Dialect
	// ExecInsert runs a single INSERT statement with args inside its own
	// transaction and returns the number of rows affected. Either every row
	// lands or none does.
	ExecInsert(ctx context.Context, query string, args []any) (int64, error)
	// Exec runs a statement without arguments (typically DDL).
	Exec(ctx context.Context, query string) error
	Close()
}

// Config selects and configures a backend.
type Config struct {
	// Kind is the registered backend name ("sqlite", "postgres", "mssql", "mysql").
	Kind string
	// DSN is passed to the driver unchanged. For sqlite it may be a plain path.
	DSN string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
	dialects  = map[string]Dialect{}
)

// RegisterDialect records the Dialect of kind so configuration can be checked
// against it before any connection is opened.
func RegisterDialect(kind string, d Dialect) {
	regMu.Lock()
	defer regMu.Unlock()
	dialects[kind] = d
}

// DialectFor returns the Dialect registered for kind.
func DialectFor(kind string) (Dialect, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	d, ok := dialects[kind]
	return d, ok
}

// Register registers (or replaces) the factory for kind. Backends call it from
// init.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// ListKinds returns the registered backend kinds, sorted.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s (known: %v)", cfg.Kind, ListKinds())
	}
	return f(ctx, cfg)
}
