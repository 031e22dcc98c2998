// Package sqlite implements a SQLite-backed storage.Repository on
// modernc.org/sqlite, the default destination of the CLI.
package sqlite

import "strings"

// DefaultPath is the database file used when no DSN is configured.
const DefaultPath = "placements.db"

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "placements.db"
	//   "file:placements.db?_pragma=busy_timeout(5000)"
	//   ":memory:"
	DSN string

	// Pragmas are executed once after the connection is opened.
	Pragmas []string
}

// DefaultPragmas are applied when Config.Pragmas is nil.
var DefaultPragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
}

func (c Config) dsn() string {
	if d := strings.TrimSpace(c.DSN); d != "" {
		return d
	}
	return DefaultPath
}
