package catalog

import (
	"reflect"
	"strings"
	"testing"
)

func offerSchema() Schema {
	return InferSchema("offer", []Row{
		rowOf("id", "1", "vendorcode", "V1", "params", `{"a":"b"}`),
		rowOf("id", "2", "price", "10"),
	}, true)
}

func TestPostgres_CreateTable(t *testing.T) {
	t.Parallel()

	got := Postgres.CreateTable(offerSchema())
	want := `CREATE TABLE IF NOT EXISTS "offer" ("id" TEXT, "vendorcode" TEXT UNIQUE, "params" JSONB, "price" TEXT)`
	if got != want {
		t.Fatalf("CreateTable()\n got=%s\nwant=%s", got, want)
	}
}

// Scenario C: no param anywhere, so no params column in the DDL.
func TestPostgres_CreateTable_NoParams(t *testing.T) {
	t.Parallel()

	tbl := BuildTable("item", []Node{elem("item", "").with(elem("x", "1"))})
	got := Postgres.CreateTable(tbl.Schema())
	if got != `CREATE TABLE IF NOT EXISTS "item" ("x" TEXT)` {
		t.Fatalf("CreateTable()=%s", got)
	}
}

func TestPostgres_DeltaStatements(t *testing.T) {
	t.Parallel()

	s := offerSchema()
	got := DeltaStatements(Postgres, s, map[string]struct{}{"id": {}})
	want := []string{
		`ALTER TABLE "offer" ADD COLUMN "vendorcode" TEXT UNIQUE`,
		`ALTER TABLE "offer" ADD COLUMN "params" JSONB`,
		`ALTER TABLE "offer" ADD COLUMN "price" TEXT`,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("delta=\n%v\nwant\n%v", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestDeltaStatements_IdempotentAndAdditive(t *testing.T) {
	t.Parallel()

	s := offerSchema()
	live := map[string]struct{}{}
	for _, n := range s.Names() {
		live[n] = struct{}{}
	}
	// Columns the feed no longer mentions stay untouched.
	live["discontinued"] = struct{}{}

	for _, d := range []Dialect{Postgres, SQLite, SQLServer} {
		if got := DeltaStatements(d, s, live); len(got) != 0 {
			t.Fatalf("%s: delta against matching table=%v want none", d.Name(), got)
		}

		all := append([]string{d.CreateTable(s)}, DeltaStatements(d, s, map[string]struct{}{})...)
		for _, stmt := range all {
			up := strings.ToUpper(stmt)
			if strings.Contains(up, "DROP ") || strings.Contains(up, "ALTER COLUMN") || strings.Contains(up, " TYPE ") {
				t.Fatalf("%s: statement removes or retypes a column: %s", d.Name(), stmt)
			}
		}
	}
}

func TestPostgres_WriteRow(t *testing.T) {
	t.Parallel()

	row := rowOf("id", "1", "vendorcode", "V1", "params", `{"a":"b"}`)

	tests := []struct {
		name     string
		row      Row
		identity bool
		wantSQL  string
	}{
		{
			name:     "upsert",
			row:      row,
			identity: true,
			wantSQL: `INSERT INTO "offer" ("id", "vendorcode", "params") VALUES ($1, $2, $3)` +
				` ON CONFLICT ("vendorcode") DO UPDATE SET "id" = EXCLUDED."id", "params" = EXCLUDED."params"`,
		},
		{
			name:    "plain insert",
			row:     row,
			wantSQL: `INSERT INTO "offer" ("id", "vendorcode", "params") VALUES ($1, $2, $3)`,
		},
		{
			name:     "sparse row writes only its own columns",
			row:      rowOf("price", "10"),
			identity: true,
			wantSQL:  `INSERT INTO "offer" ("price") VALUES ($1) ON CONFLICT ("vendorcode") DO UPDATE SET "price" = EXCLUDED."price"`,
		},
		{
			name:     "identity only",
			row:      rowOf("vendorcode", "V9"),
			identity: true,
			wantSQL:  `INSERT INTO "offer" ("vendorcode") VALUES ($1) ON CONFLICT ("vendorcode") DO NOTHING`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Postgres.WriteRow("offer", tt.row, tt.identity)
			if st.SQL != tt.wantSQL {
				t.Fatalf("SQL\n got=%s\nwant=%s", st.SQL, tt.wantSQL)
			}
			if len(st.Bindings) != tt.row.Len() {
				t.Fatalf("bindings=%d want %d", len(st.Bindings), tt.row.Len())
			}
		})
	}
}

func TestWriteRow_SetClauseNeverUpdatesIdentity(t *testing.T) {
	t.Parallel()

	row := rowOf("vendorcode", "V1", "name", "n", "price", "1")
	for _, d := range []Dialect{Postgres, SQLite, SQLServer} {
		st := d.WriteRow("offer", row, true)
		idx := strings.Index(st.SQL, "SET ")
		if idx < 0 {
			t.Fatalf("%s: no SET clause in %s", d.Name(), st.SQL)
		}
		set := st.SQL[idx:]
		if end := strings.Index(set, " WHEN NOT MATCHED"); end >= 0 {
			set = set[:end]
		}
		if strings.Contains(set, "vendorcode") {
			t.Fatalf("%s: SET clause updates vendorcode: %s", d.Name(), set)
		}
	}
}

func TestWriteRow_Bindings(t *testing.T) {
	t.Parallel()

	st := Postgres.WriteRow("offer", rowOf("id", "1", "params", `{"k":"v"}`), false)
	want := []Binding{
		{Position: 1, Column: "id", Value: "1", Kind: BindText},
		{Position: 2, Column: "params", Value: `{"k":"v"}`, Kind: BindRaw},
	}
	if !reflect.DeepEqual(st.Bindings, want) {
		t.Fatalf("bindings=%+v want %+v", st.Bindings, want)
	}

	args := st.Args(func(s string) any { return []byte(s) })
	if _, ok := args[0].(string); !ok {
		t.Fatalf("text arg type=%T want string", args[0])
	}
	if b, ok := args[1].([]byte); !ok || string(b) != `{"k":"v"}` {
		t.Fatalf("raw arg=%#v want []byte passthrough", args[1])
	}
	if s, ok := st.Args(nil)[1].(string); !ok || s != `{"k":"v"}` {
		t.Fatalf("nil raw converter must pass strings")
	}
}

func TestSQLite_Statements(t *testing.T) {
	t.Parallel()

	s := offerSchema()
	create := SQLite.CreateTable(s)
	want := `CREATE TABLE IF NOT EXISTS "offer" ("id" TEXT, "vendorcode" TEXT UNIQUE, "params" TEXT CHECK (json_valid("params")), "price" TEXT)`
	if create != want {
		t.Fatalf("CreateTable()\n got=%s\nwant=%s", create, want)
	}

	delta := DeltaStatements(SQLite, s, map[string]struct{}{"id": {}, "params": {}, "price": {}})
	wantDelta := []string{
		`ALTER TABLE "offer" ADD COLUMN "vendorcode" TEXT`,
		`CREATE UNIQUE INDEX IF NOT EXISTS "offer_vendorcode_key" ON "offer" ("vendorcode")`,
	}
	if !reflect.DeepEqual(delta, wantDelta) {
		t.Fatalf("delta=%v want %v", delta, wantDelta)
	}

	st := SQLite.WriteRow("offer", rowOf("id", "1", "vendorcode", "V"), true)
	wantSQL := `INSERT INTO "offer" ("id", "vendorcode") VALUES (?, ?) ON CONFLICT ("vendorcode") DO UPDATE SET "id" = EXCLUDED."id"`
	if st.SQL != wantSQL {
		t.Fatalf("WriteRow()\n got=%s\nwant=%s", st.SQL, wantSQL)
	}
}

func TestSQLServer_Statements(t *testing.T) {
	t.Parallel()

	s := offerSchema()
	create := SQLServer.CreateTable(s)
	for _, part := range []string{
		"IF OBJECT_ID(N'offer', N'U') IS NULL BEGIN CREATE TABLE [offer] (",
		"[vendorcode] NVARCHAR(450) NULL",
		"[params] NVARCHAR(MAX) NULL CHECK (ISJSON([params]) = 1)",
		"EXEC(N'CREATE UNIQUE INDEX [ux_offer_vendorcode] ON [offer] ([vendorcode]) WHERE [vendorcode] IS NOT NULL');",
		" END;",
	} {
		if !strings.Contains(create, part) {
			t.Fatalf("CreateTable() missing %q in %s", part, create)
		}
	}

	merge := SQLServer.WriteRow("offer", rowOf("vendorcode", "V1", "name", "n"), true)
	wantMerge := "MERGE INTO [offer] WITH (HOLDLOCK) AS tgt USING (SELECT @p1 AS [vendorcode], @p2 AS [name]) AS src" +
		" ON tgt.[vendorcode] = src.[vendorcode]" +
		" WHEN MATCHED THEN UPDATE SET tgt.[name] = src.[name]" +
		" WHEN NOT MATCHED THEN INSERT ([vendorcode], [name]) VALUES (src.[vendorcode], src.[name]);"
	if merge.SQL != wantMerge {
		t.Fatalf("WriteRow()\n got=%s\nwant=%s", merge.SQL, wantMerge)
	}

	plain := SQLServer.WriteRow("offer", rowOf("name", "n"), true)
	if plain.SQL != "INSERT INTO [offer] ([name]) VALUES (@p1)" {
		t.Fatalf("row without identity must be a plain insert, got %s", plain.SQL)
	}
}

func TestDialectFor(t *testing.T) {
	t.Parallel()

	for _, kind := range []string{"postgres", "sqlite", "mssql"} {
		d, err := DialectFor(kind)
		if err != nil || d.Name() != kind {
			t.Fatalf("DialectFor(%q)=%v,%v", kind, d, err)
		}
	}
	if _, err := DialectFor("oracle"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
