package catalog

import (
	"fmt"
	"strings"
)

// SQLServer renders T-SQL.
//
// Differences from Postgres:
//   - identifiers are bracket quoted and placeholders are @p1, @p2, ...;
//   - creation is guarded by OBJECT_ID instead of IF NOT EXISTS;
//   - text is NVARCHAR(MAX), the identity column NVARCHAR(450) so it can be
//     indexed, and params carries an ISJSON check;
//   - identity uniqueness is a filtered unique index (NULLs allowed, many);
//   - insert-or-update is a MERGE keyed on vendorcode. A row without
//     vendorcode cannot match anything and is written with a plain INSERT.
var SQLServer Dialect = sqlserverDialect{}

type sqlserverDialect struct{}

func (sqlserverDialect) Name() string { return "mssql" }

// mssqlIdent returns a bracket-quoted identifier, escaping ']' as ']]'.
func mssqlIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// mssqlString returns an N'...' literal.
func mssqlString(s string) string {
	return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func mssqlColumnDef(c Column) string {
	switch {
	case c.Unique:
		return mssqlIdent(c.Name) + " NVARCHAR(450) NULL"
	case c.Kind == KindJSON:
		return fmt.Sprintf("%s NVARCHAR(MAX) NULL CHECK (ISJSON(%s) = 1)", mssqlIdent(c.Name), mssqlIdent(c.Name))
	default:
		return mssqlIdent(c.Name) + " NVARCHAR(MAX) NULL"
	}
}

func mssqlUniqueIndex(table, column string) string {
	return fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s) WHERE %s IS NOT NULL",
		mssqlIdent("ux_"+table+"_"+column), mssqlIdent(table), mssqlIdent(column), mssqlIdent(column))
}

func (sqlserverDialect) CreateTable(s Schema) string {
	defs := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		defs[i] = mssqlColumnDef(c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "IF OBJECT_ID(%s, N'U') IS NULL BEGIN CREATE TABLE %s (%s);",
		mssqlString(s.Table), mssqlIdent(s.Table), strings.Join(defs, ", "))
	for _, c := range s.Columns {
		if c.Unique {
			// EXEC defers compilation until the table exists.
			fmt.Fprintf(&b, " EXEC(%s);", mssqlString(mssqlUniqueIndex(s.Table, c.Name)))
		}
	}
	b.WriteString(" END;")
	return b.String()
}

func (sqlserverDialect) AddColumn(table string, c Column) []string {
	out := []string{fmt.Sprintf("ALTER TABLE %s ADD %s", mssqlIdent(table), mssqlColumnDef(c))}
	if c.Unique {
		out = append(out, mssqlUniqueIndex(table, c.Name))
	}
	return out
}

func (sqlserverDialect) WriteRow(table string, row Row, identity bool) Statement {
	st := Statement{Bindings: bindings(row)}
	if !identity || !row.Has(IdentityColumn) {
		st.SQL = buildUpsertSQL(mssqlIdent, func(i int) string { return fmt.Sprintf("@p%d", i) }, table, row.keys, false)
		return st
	}

	var b strings.Builder
	b.WriteString("MERGE INTO ")
	b.WriteString(mssqlIdent(table))
	b.WriteString(" WITH (HOLDLOCK) AS tgt USING (SELECT ")
	for i, c := range row.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "@p%d AS %s", i+1, mssqlIdent(c))
	}
	b.WriteString(") AS src ON tgt.")
	b.WriteString(mssqlIdent(IdentityColumn))
	b.WriteString(" = src.")
	b.WriteString(mssqlIdent(IdentityColumn))

	n := 0
	for _, c := range row.keys {
		if c == IdentityColumn {
			continue
		}
		if n == 0 {
			b.WriteString(" WHEN MATCHED THEN UPDATE SET ")
		} else {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "tgt.%s = src.%s", mssqlIdent(c), mssqlIdent(c))
		n++
	}

	b.WriteString(" WHEN NOT MATCHED THEN INSERT (")
	for i, c := range row.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(mssqlIdent(c))
	}
	b.WriteString(") VALUES (")
	for i, c := range row.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("src.")
		b.WriteString(mssqlIdent(c))
	}
	b.WriteString(");")

	st.SQL = b.String()
	return st
}
