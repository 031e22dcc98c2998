package storage

import (
	"context"
	"fmt"
	"sync"

	"placeetl/internal/ddl"
)

// DDLBootstrapper prepares the destination schema on an open Repository.
// Backends register one per storage kind at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the DDLBootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// Bootstrap runs the DDLBootstrapper registered for kind.
func Bootstrap(ctx context.Context, kind string, repo Repository) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo)
}

// RecreatePlacementTables drops and recreates placements and
// placements_moderation using the repository's dialect. Each run owns its
// destination exclusively, so existing rows are discarded.
func RecreatePlacementTables(ctx context.Context, repo Repository) error {
	d := repo.Dialect()
	for _, td := range ddl.PlacementTables(d.Types()) {
		drop, err := ddl.BuildDropTableSQL(td.FQN, d.QuoteIdent)
		if err != nil {
			return err
		}
		if err := repo.Exec(ctx, drop); err != nil {
			return fmt.Errorf("drop %s: %w", td.FQN, err)
		}
		create, err := ddl.BuildCreateTableSQL(td, d.QuoteIdent)
		if err != nil {
			return err
		}
		if err := repo.Exec(ctx, create); err != nil {
			return fmt.Errorf("create %s: %w", td.FQN, err)
		}
	}
	return nil
}
