package catalog

import "fmt"

// BindKind tells the gateway how to hand a value to the driver.
type BindKind int

const (
	// BindText binds the value as plain text.
	BindText BindKind = iota
	// BindRaw binds the value opaquely; the target column type validates it.
	BindRaw
)

// Binding is one positional statement argument.
type Binding struct {
	Position int // 1-based
	Column   string
	Value    string
	Kind     BindKind
}

// Statement is SQL text with positional placeholders and its bindings.
type Statement struct {
	SQL      string
	Bindings []Binding
}

// Args returns driver arguments in position order.
//
// raw converts BindRaw values; nil means raw values are passed as strings.
func (s Statement) Args(raw func(string) any) []any {
	args := make([]any, len(s.Bindings))
	for i, b := range s.Bindings {
		if b.Kind == BindRaw && raw != nil {
			args[i] = raw(b.Value)
			continue
		}
		args[i] = b.Value
	}
	return args
}

// Dialect renders the additive DDL and the write statements for one SQL
// flavor. Implementations are stateless and safe for concurrent use.
type Dialect interface {
	// Name is the storage kind the dialect belongs to ("postgres", ...).
	Name() string

	// CreateTable renders an idempotent create statement for the schema.
	// It must never alter an existing table.
	CreateTable(s Schema) string

	// AddColumn renders the statements adding one missing column.
	AddColumn(table string, c Column) []string

	// WriteRow renders the insert (identity == false) or insert-or-update
	// (identity == true) statement for one row, using the row's own keys.
	WriteRow(table string, row Row, identity bool) Statement
}

// DeltaStatements returns the statements adding every schema column that is
// missing from live, in schema order. Against a live table that already
// matches the schema it returns nil.
func DeltaStatements(d Dialect, s Schema, live map[string]struct{}) []string {
	var out []string
	for _, c := range MissingColumns(s, live) {
		out = append(out, d.AddColumn(s.Table, c)...)
	}
	return out
}

// bindings builds the positional bindings of a row in key order.
func bindings(row Row) []Binding {
	out := make([]Binding, 0, row.Len())
	for i, k := range row.keys {
		kind := BindText
		if k == ParamsColumn {
			kind = BindRaw
		}
		v, _ := row.Get(k)
		out = append(out, Binding{Position: i + 1, Column: k, Value: v, Kind: kind})
	}
	return out
}

// DialectFor returns the dialect registered under a storage kind.
func DialectFor(kind string) (Dialect, error) {
	for _, d := range []Dialect{Postgres, SQLite, SQLServer} {
		if d.Name() == kind {
			return d, nil
		}
	}
	return nil, fmt.Errorf("catalog: no dialect for storage kind %q", kind)
}
