package mysql

import (
	"strings"

	"placeetl/internal/ddl"
	"placeetl/internal/storage"
)

// MaxParams is the prepared statement placeholder limit.
const MaxParams = 65535

// Dialect renders MySQL SQL: "?" placeholders and `backquoted` identifiers.
type Dialect struct{}

var _ storage.Dialect = Dialect{}

func (Dialect) Name() string           { return "mysql" }
func (Dialect) Placeholder(int) string { return "?" }
func (Dialect) MaxParams() int         { return MaxParams }

// QuoteIdent wraps id in backquotes, doubling embedded ones.
func (Dialect) QuoteIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

// Types maps the placement columns onto MySQL types.
func (Dialect) Types() ddl.TypeMap {
	return ddl.TypeMap{
		BigInt:   "BIGINT",
		Int:      "INT",
		SmallInt: "SMALLINT",
		Text:     "VARCHAR(255)",
		Color:    "VARCHAR(32)",
	}
}
