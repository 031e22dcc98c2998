package sqlite

import (
	"strings"

	"placeetl/internal/ddl"
	"placeetl/internal/storage"
)

// MaxParams is SQLITE_MAX_VARIABLE_NUMBER for SQLite >= 3.32.
const MaxParams = 32766

// Dialect renders SQLite SQL: "?" placeholders and double-quoted identifiers.
type Dialect struct{}

var _ storage.Dialect = Dialect{}

func (Dialect) Name() string           { return "sqlite" }
func (Dialect) Placeholder(int) string { return "?" }
func (Dialect) MaxParams() int         { return MaxParams }

// QuoteIdent wraps id in double quotes, doubling embedded quotes.
func (Dialect) QuoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// Types maps the placement columns onto SQLite storage classes.
func (Dialect) Types() ddl.TypeMap {
	return ddl.TypeMap{
		BigInt:   "INTEGER",
		Int:      "INTEGER",
		SmallInt: "INTEGER",
		Text:     "TEXT",
		Color:    "TEXT",
	}
}
