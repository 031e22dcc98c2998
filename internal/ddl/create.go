// Package ddl defines a small, backend-agnostic model for SQL DDL and helpers
// to render CREATE TABLE / DROP TABLE statements from that model.
//
// Identifier quoting is supplied by the caller (each storage backend passes
// its dialect's QuoteIdent), so the same TableDef renders correctly for
// SQLite, Postgres, SQL Server and MySQL:
//
//   - Column defaults and CHECK expressions are emitted as raw SQL.
//   - Columns with PrimaryKey set are collected into a trailing
//     PRIMARY KEY (...) clause.
package ddl

import (
	"fmt"
	"strings"
)

// Quoter quotes a single identifier for a SQL dialect.
type Quoter func(ident string) string

// BuildCreateTableSQL renders a CREATE TABLE statement from a TableDef.
//
// The resulting statement has the form:
//
//	CREATE TABLE <table> (
//	  <col1> <type> [NOT NULL] [DEFAULT <expr>],
//	  ...,
//	  [PRIMARY KEY (<pk-cols>),]
//	  [CHECK (<expr>), ...]
//	);
//
// A dotted FQN ("schema.table") has each segment quoted separately.
func BuildCreateTableSQL(t TableDef, quote Quoter) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}
	if quote == nil {
		quote = func(s string) string { return s }
	}

	defs := make([]string, 0, len(t.Columns)+len(t.Checks)+1)
	pks := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		defs = append(defs, sb.String())

		if c.PrimaryKey {
			pks = append(pks, quote(name))
		}
	}

	if len(pks) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}
	for _, chk := range t.Checks {
		if chk = strings.TrimSpace(chk); chk != "" {
			defs = append(defs, fmt.Sprintf("CHECK (%s)", chk))
		}
	}

	return fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n)",
		QuoteFQN(fqn, quote),
		strings.Join(defs, ",\n  "),
	), nil
}

// BuildDropTableSQL renders DROP TABLE IF EXISTS for the given table.
func BuildDropTableSQL(fqn string, quote Quoter) (string, error) {
	fqn = strings.TrimSpace(fqn)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if quote == nil {
		quote = func(s string) string { return s }
	}
	return "DROP TABLE IF EXISTS " + QuoteFQN(fqn, quote), nil
}

// QuoteFQN quotes each dot-separated segment of fqn, skipping empty ones.
func QuoteFQN(fqn string, quote Quoter) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, quote(p))
	}
	return strings.Join(out, ".")
}
