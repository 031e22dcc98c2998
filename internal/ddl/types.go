package ddl

// ColumnDef describes a single column in a table definition. It uses simple,
// database-agnostic fields; quoting happens at render time.
//
// Fields:
//   - Name: logical column name (unquoted)
//   - SQLType: target SQL type (e.g., TEXT, BIGINT)
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the table name, its ordered columns and any CHECK
// constraints. Checks are raw SQL boolean expressions over unquoted column
// names and are emitted verbatim.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
	Checks  []string
}

// ColumnNames returns the column names in declaration order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// TypeMap names the dialect's SQL types for the handful of logical types the
// placement tables need.
type TypeMap struct {
	BigInt   string // epoch seconds
	Int      string // coordinates
	SmallInt string // year
	Text     string // user hash
	Color    string // "#RRGGBB"
}
