package catalog

import (
	"reflect"
	"testing"
)

func rowOf(kv ...string) Row {
	var r Row
	for i := 0; i+1 < len(kv); i += 2 {
		r.set(kv[i], kv[i+1])
	}
	return r
}

func TestInferSchema_FirstSeenOrderNoDuplicates(t *testing.T) {
	t.Parallel()

	rows := []Row{
		rowOf("id", "1", "name", "a"),
		rowOf("price", "3", "id", "2"),
		rowOf("name", "c", "url", "u", "price", "4"),
	}

	s := InferSchema("offer", rows, false)

	if got, want := s.Names(), []string{"id", "name", "price", "url"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("columns=%v want %v", got, want)
	}
	if s.Table != "offer" {
		t.Fatalf("table=%q", s.Table)
	}
}

func TestInferSchema_ScenarioB(t *testing.T) {
	t.Parallel()

	s := InferSchema("t", []Row{rowOf("a", "1"), rowOf("a", "1", "b", "2")}, false)
	if got, want := s.Names(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("columns=%v want %v", got, want)
	}

	stmts := DeltaStatements(Postgres, s, map[string]struct{}{"a": {}})
	want := []string{`ALTER TABLE "t" ADD COLUMN "b" TEXT`}
	if !reflect.DeepEqual(stmts, want) {
		t.Fatalf("delta=%v want %v", stmts, want)
	}
}

func TestInferSchema_ParamsOnlyWithBag(t *testing.T) {
	t.Parallel()

	rows := []Row{rowOf("x", "1", "params", "organic")}

	without := InferSchema("t", rows, false)
	if hasColumn(without, ParamsColumn) {
		t.Fatalf("params must not appear without a param bag: %v", without.Names())
	}

	with := InferSchema("t", rows, true)
	if !hasColumn(with, ParamsColumn) {
		t.Fatalf("params must appear when has-params is set: %v", with.Names())
	}
	for _, c := range with.Columns {
		if c.Name == ParamsColumn && c.Kind != KindJSON {
			t.Fatalf("params kind=%s want json", c.Kind)
		}
	}
}

func TestColumnFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want Column
	}{
		{"price", Column{Name: "price", Kind: KindText}},
		{"params", Column{Name: "params", Kind: KindJSON}},
		{"vendorcode", Column{Name: "vendorcode", Kind: KindText, Unique: true}},
		{"vendorCode", Column{Name: "vendorCode", Kind: KindText}},
	}
	for _, tt := range tests {
		if got := ColumnFor(tt.name); got != tt.want {
			t.Errorf("ColumnFor(%q)=%+v want %+v", tt.name, got, tt.want)
		}
	}
}

func TestBuildTable(t *testing.T) {
	t.Parallel()

	nodes := []Node{
		elem("offer", "", "id", "1").with(elem("name", "a")),
		elem("offer", "", "id", "2").with(param("color", "red")),
		elem("offer", "", "id", "3").with(elem("vendorCode", "V3")),
	}

	tbl := BuildTable("Offer", nodes)

	if tbl.Name != "offer" {
		t.Fatalf("name=%q want lowercase", tbl.Name)
	}
	if !tbl.HasParams {
		t.Fatalf("HasParams=false want true")
	}
	if len(tbl.Rows) != 3 {
		t.Fatalf("rows=%d want 3", len(tbl.Rows))
	}
	if got, want := tbl.Schema().Names(), []string{"id", "name", "params", "vendorcode"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("schema=%v want %v", got, want)
	}
}

// An unnamed <param> produces no bag, so an organic "params" element in the
// same row stays out of the schema.
func TestBuildTable_UnnamedParamOnly(t *testing.T) {
	t.Parallel()

	tbl := BuildTable("offer", []Node{
		elem("offer", "").with(elem("x", "1"), elem(ParamTag, "orphan"), elem("params", "organic")),
	})
	if tbl.HasParams {
		t.Fatalf("HasParams=true want false")
	}
	if got, want := tbl.Schema().Names(), []string{"x"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("schema=%v want %v", got, want)
	}
}

func TestMissingColumns(t *testing.T) {
	t.Parallel()

	s := Schema{Table: "t", Columns: []Column{ColumnFor("a"), ColumnFor("b"), ColumnFor("c")}}
	got := MissingColumns(s, map[string]struct{}{"b": {}, "legacy": {}})
	if len(got) != 2 || got[0].Name != "a" || got[1].Name != "c" {
		t.Fatalf("missing=%+v", got)
	}
	if len(MissingColumns(s, map[string]struct{}{"a": {}, "b": {}, "c": {}})) != 0 {
		t.Fatalf("expected no missing columns for a matching live table")
	}
}

func hasColumn(s Schema, name string) bool {
	for _, n := range s.Names() {
		if n == name {
			return true
		}
	}
	return false
}
