package mssql

import (
	"strconv"
	"strings"

	"placeetl/internal/ddl"
	"placeetl/internal/storage"
)

// MaxParams is the RPC parameter limit of SQL Server. The tile threshold has
// to be lowered to 350 for this backend.
const MaxParams = 2100

// Dialect renders T-SQL: "@pN" placeholders and [bracketed] identifiers.
type Dialect struct{}

var _ storage.Dialect = Dialect{}

func (Dialect) Name() string             { return "mssql" }
func (Dialect) Placeholder(n int) string { return "@p" + strconv.Itoa(n) }
func (Dialect) MaxParams() int           { return MaxParams }

// QuoteIdent safely quotes a SQL Server identifier using [brackets], escaping ].
func (Dialect) QuoteIdent(id string) string { return msIdent(id) }

// Types maps the placement columns onto SQL Server types.
func (Dialect) Types() ddl.TypeMap {
	return ddl.TypeMap{
		BigInt:   "BIGINT",
		Int:      "INT",
		SmallInt: "SMALLINT",
		Text:     "NVARCHAR(256)",
		Color:    "NVARCHAR(32)",
	}
}

func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }
