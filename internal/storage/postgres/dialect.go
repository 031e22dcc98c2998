package postgres

import (
	"strconv"
	"strings"

	"placeetl/internal/ddl"
	"placeetl/internal/storage"
)

// MaxParams is the protocol limit on bind parameters per statement.
const MaxParams = 65535

// Dialect renders Postgres SQL: "$n" placeholders and double-quoted identifiers.
type Dialect struct{}

var _ storage.Dialect = Dialect{}

func (Dialect) Name() string             { return "postgres" }
func (Dialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (Dialect) MaxParams() int           { return MaxParams }

// QuoteIdent safely quotes a single identifier segment for Postgres.
func (Dialect) QuoteIdent(id string) string { return pgIdent(id) }

// Types maps the placement columns onto Postgres types.
func (Dialect) Types() ddl.TypeMap {
	return ddl.TypeMap{
		BigInt:   "BIGINT",
		Int:      "INTEGER",
		SmallInt: "SMALLINT",
		Text:     "TEXT",
		Color:    "TEXT",
	}
}

func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
