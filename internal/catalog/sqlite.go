package catalog

import (
	"fmt"
	"strings"
)

// SQLite follows the Postgres grammar with three differences:
//   - placeholders are "?";
//   - params is TEXT guarded by CHECK (json_valid(...)), SQLite has no JSONB;
//   - ALTER TABLE cannot add a UNIQUE column, so a late vendorcode column gets
//     its uniqueness from a separate unique index.
var SQLite Dialect = sqliteDialect{}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func sqliteColumnDef(c Column, inline bool) string {
	def := pgIdent(c.Name) + " TEXT"
	if c.Kind == KindJSON {
		def += fmt.Sprintf(" CHECK (json_valid(%s))", pgIdent(c.Name))
	}
	if c.Unique && inline {
		def += " UNIQUE"
	}
	return def
}

func (sqliteDialect) CreateTable(s Schema) string {
	defs := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		defs[i] = sqliteColumnDef(c, true)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", pgIdent(s.Table), strings.Join(defs, ", "))
}

func (sqliteDialect) AddColumn(table string, c Column) []string {
	out := []string{fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", pgIdent(table), sqliteColumnDef(c, false))}
	if c.Unique {
		out = append(out, fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s)",
			pgIdent(table+"_"+c.Name+"_key"), pgIdent(table), pgIdent(c.Name)))
	}
	return out
}

func (sqliteDialect) WriteRow(table string, row Row, identity bool) Statement {
	return Statement{
		SQL:      buildUpsertSQL(pgIdent, func(int) string { return "?" }, table, row.keys, identity),
		Bindings: bindings(row),
	}
}
