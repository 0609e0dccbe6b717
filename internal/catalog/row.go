package catalog

import "strings"

// Row is an ordered column -> value mapping extracted from one row node.
//
// Keys are lowercase and unique. Overwriting a key keeps its original
// position, so the column order of a row is the order in which each key was
// first seen. Rows of the same table may carry different key sets.
//
// A Row is read-only once ExtractRow returns it.
type Row struct {
	keys []string
	vals map[string]string
}

func (r *Row) set(key, value string) {
	if r.vals == nil {
		r.vals = make(map[string]string)
	}
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = value
}

// Keys returns the row's column names in first-seen order.
func (r Row) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Get returns the value stored under key.
func (r Row) Get(key string) (string, bool) {
	v, ok := r.vals[key]
	return v, ok
}

// Has reports whether the row carries key.
func (r Row) Has(key string) bool {
	_, ok := r.vals[key]
	return ok
}

// Len returns the number of columns in the row.
func (r Row) Len() int { return len(r.keys) }

// ExtractRow flattens a row node into a Row.
//
// Semantics:
//   - Every attribute becomes a column (name lowercased, value verbatim).
//   - Every child element other than <param> becomes a column named after its
//     lowercased tag with the child's text as value. Later occurrences
//     overwrite earlier ones (attributes included) without error.
//   - <param name="..."> children are collected into a bag (name case kept,
//     duplicates last-write-wins). A <param> without a name is dropped.
//   - A non-empty bag is serialized with ParamsJSON and stored under
//     ParamsColumn, overwriting an organic "params" attribute or element.
//     That collision is silent.
func ExtractRow(node Node) Row {
	var row Row
	for _, a := range node.Attributes() {
		row.set(strings.ToLower(a.Name), a.Value)
	}

	var bag paramBag
	for _, child := range node.Children() {
		if child.Tag() == ParamTag {
			name, ok := attrValue(child, ParamNameAttr)
			if !ok {
				continue
			}
			bag.set(name, child.Text())
			continue
		}
		row.set(strings.ToLower(child.Tag()), child.Text())
	}

	if len(bag.params) > 0 {
		row.set(ParamsColumn, ParamsJSON(bag.params))
	}
	return row
}

func attrValue(n Node, name string) (string, bool) {
	for _, a := range n.Attributes() {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// paramBag keeps params in first-seen order with last-write-wins values.
type paramBag struct {
	params []Param
	index  map[string]int
}

func (b *paramBag) set(name, value string) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	if i, ok := b.index[name]; ok {
		b.params[i].Value = value
		return
	}
	b.index[name] = len(b.params)
	b.params = append(b.params, Param{Name: name, Value: value})
}
