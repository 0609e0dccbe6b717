package catalog

import "strings"

// Kind is the storage kind inferred for a column.
type Kind int

const (
	// KindText is the default kind for attributes and child elements.
	KindText Kind = iota
	// KindJSON is reserved for the synthetic params column.
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindJSON:
		return "json"
	default:
		return "text"
	}
}

// Column is one inferred column of a table.
type Column struct {
	Name string
	Kind Kind

	// Unique marks the identity column. It is the only constrained column.
	Unique bool
}

// ColumnFor returns the inferred column for a column name.
func ColumnFor(name string) Column {
	c := Column{Name: name, Kind: KindText}
	if name == ParamsColumn {
		c.Kind = KindJSON
	}
	if name == IdentityColumn {
		c.Unique = true
	}
	return c
}

// Schema is the ordered, deduplicated column set of one table.
type Schema struct {
	Table   string
	Columns []Column
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// InferSchema unions the key sets of rows in first-seen order.
//
// A row that appears later only contributes keys not seen before, appended at
// the end. When hasParams is false the params column is removed even if some
// row carries an organic "params" key: the column is reserved for the
// aggregated bag and is only typed JSON when a bag exists. Such rows still
// carry the key when written, so their write fails against the live table.
func InferSchema(table string, rows []Row, hasParams bool) Schema {
	seen := make(map[string]struct{})
	s := Schema{Table: table}
	for _, r := range rows {
		for _, k := range r.keys {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			if k == ParamsColumn && !hasParams {
				continue
			}
			s.Columns = append(s.Columns, ColumnFor(k))
		}
	}
	return s
}

// Table is one table candidate: its lowercase name and extracted rows.
type Table struct {
	Name      string
	Rows      []Row
	HasParams bool
}

// BuildTable extracts every row node of a table and detects params.
//
// HasParams is true when at least one row node has a <param> child carrying a
// name attribute, which is exactly when some row produced a bag.
func BuildTable(name string, rowNodes []Node) Table {
	t := Table{
		Name: strings.ToLower(name),
		Rows: make([]Row, 0, len(rowNodes)),
	}
	for _, n := range rowNodes {
		t.Rows = append(t.Rows, ExtractRow(n))
		if !t.HasParams && hasParamChild(n) {
			t.HasParams = true
		}
	}
	return t
}

// Schema infers the table's schema from its rows.
func (t Table) Schema() Schema {
	return InferSchema(t.Name, t.Rows, t.HasParams)
}

func hasParamChild(n Node) bool {
	for _, c := range n.Children() {
		if c.Tag() != ParamTag {
			continue
		}
		if _, ok := attrValue(c, ParamNameAttr); ok {
			return true
		}
	}
	return false
}

// MissingColumns returns the schema columns absent from the live column set,
// in schema order. It never reports columns for removal.
func MissingColumns(s Schema, live map[string]struct{}) []Column {
	var out []Column
	for _, c := range s.Columns {
		if _, ok := live[c.Name]; ok {
			continue
		}
		out = append(out, c)
	}
	return out
}
