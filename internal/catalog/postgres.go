package catalog

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Postgres is the canonical dialect. Its output is the reference shape for
// the other dialects:
//
//	CREATE TABLE IF NOT EXISTS "offer" ("id" TEXT, "vendorcode" TEXT UNIQUE, "params" JSONB)
//	ALTER TABLE "offer" ADD COLUMN "price" TEXT
//	INSERT INTO "offer" ("id", "vendorcode") VALUES ($1, $2)
//	  ON CONFLICT ("vendorcode") DO UPDATE SET "id" = EXCLUDED."id"
var Postgres Dialect = postgresDialect{}

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

// pgIdent double-quotes an identifier, doubling embedded quotes.
func pgIdent(name string) string { return pq.QuoteIdentifier(name) }

func pgType(c Column) string {
	if c.Kind == KindJSON {
		return "JSONB"
	}
	return "TEXT"
}

func pgColumnDef(c Column) string {
	def := pgIdent(c.Name) + " " + pgType(c)
	if c.Unique {
		def += " UNIQUE"
	}
	return def
}

func (postgresDialect) CreateTable(s Schema) string {
	defs := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		defs[i] = pgColumnDef(c)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", pgIdent(s.Table), strings.Join(defs, ", "))
}

// AddColumn keeps UNIQUE on the identity column so a late-arriving vendorcode
// still gets a constraint matching the ON CONFLICT target.
func (postgresDialect) AddColumn(table string, c Column) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", pgIdent(table), pgColumnDef(c))}
}

func (postgresDialect) WriteRow(table string, row Row, identity bool) Statement {
	return Statement{
		SQL:      buildUpsertSQL(pgIdent, func(i int) string { return fmt.Sprintf("$%d", i) }, table, row.keys, identity),
		Bindings: bindings(row),
	}
}

// buildUpsertSQL renders INSERT ... [ON CONFLICT ("vendorcode") DO UPDATE SET ...]
// for dialects sharing the Postgres upsert grammar.
//
// The SET list holds every row column except the identity column. A row whose
// only column is the identity column falls back to DO NOTHING since an empty
// SET list is not valid SQL.
func buildUpsertSQL(ident func(string) string, placeholder func(int) string, table string, columns []string, identity bool) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(ident(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(ident(c))
	}
	b.WriteString(") VALUES (")
	for i := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(placeholder(i + 1))
	}
	b.WriteString(")")

	if !identity {
		return b.String()
	}

	b.WriteString(" ON CONFLICT (")
	b.WriteString(ident(IdentityColumn))
	b.WriteString(") DO ")

	n := 0
	for _, c := range columns {
		if c == IdentityColumn {
			continue
		}
		if n == 0 {
			b.WriteString("UPDATE SET ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(ident(c))
		b.WriteString(" = EXCLUDED.")
		b.WriteString(ident(c))
		n++
	}
	if n == 0 {
		b.WriteString("NOTHING")
	}
	return b.String()
}
