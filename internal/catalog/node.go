// Package catalog turns a schema-less XML catalog into relational shapes.
//
// It is the pure half of the synchronizer:
//   - ExtractRow flattens one row node into an ordered Row.
//   - BuildTable / InferSchema derive the column set of a table.
//   - Dialect implementations render additive DDL and per-row write statements.
//
// Nothing in this package performs I/O. The database side lives behind
// storage.Gateway and the orchestration lives in internal/syncer.
package catalog

// Reserved names shared by extraction, inference and SQL generation.
const (
	// ParamTag is the child element folded into the params bag.
	ParamTag = "param"

	// ParamNameAttr is the attribute on <param> holding the bag key.
	ParamNameAttr = "name"

	// ParamsColumn is the synthetic JSON column holding the params bag.
	ParamsColumn = "params"

	// IdentityColumn is the natural key used as the upsert conflict target.
	IdentityColumn = "vendorcode"
)

// Attr is one XML attribute in document order.
type Attr struct {
	Name  string
	Value string
}

// Node is the fixed shape the core needs from a document tree.
//
// Implementations must return attributes and children in document order.
// Children contains element children only (no text or comment nodes).
// Text returns the concatenated character data of the node and all of its
// descendants.
type Node interface {
	Tag() string
	Attributes() []Attr
	Children() []Node
	Text() string
}
