package xmlsource

import (
	"bytes"
	"context"
	"strings"

	"catalogsync/internal/catalog"
)

// DefaultRootPath names the container element of a YML-style catalog.
const DefaultRootPath = "shop"

// Document is a decoded feed with its container element located.
//
// Children of the container that have at least one element child are tables;
// their element children are rows.
type Document struct {
	root      *Element
	container *Element
}

// NewDocument locates the container element under root.
//
// rootPath is a "/"-separated list of tags matched case-insensitively. The
// first segment matches the first element in document order (root
// included); later segments match direct children. An empty rootPath makes
// root itself the container.
//
// Errors:
//   - Returns a *SourceError wrapping ErrNoContainer when nothing matches.
func NewDocument(root *Element, rootPath string) (*Document, error) {
	if root == nil {
		return nil, &SourceError{Op: "root", Target: rootPath, Err: ErrNoContainer}
	}
	if strings.TrimSpace(rootPath) == "" {
		return &Document{root: root, container: root}, nil
	}

	segs := strings.Split(strings.Trim(rootPath, "/"), "/")
	cur := findFirst(root, segs[0])
	for _, seg := range segs[1:] {
		if cur == nil {
			break
		}
		cur = childByTag(cur, seg)
	}
	if cur == nil {
		return nil, &SourceError{Op: "root", Target: rootPath, Err: ErrNoContainer}
	}
	return &Document{root: root, container: cur}, nil
}

// findFirst does a pre-order search for tag, starting with e itself.
func findFirst(e *Element, tag string) *Element {
	if strings.EqualFold(e.name, tag) {
		return e
	}
	for _, c := range e.Elements() {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func childByTag(e *Element, tag string) *Element {
	for _, c := range e.Elements() {
		if strings.EqualFold(c.name, tag) {
			return c
		}
	}
	return nil
}

// Root returns the document element.
func (d *Document) Root() *Element { return d.root }

// TableNames returns the distinct lowercase tags of container children that
// have at least one element child, in first-seen order. Leaf children such
// as <name>Shop</name> are not tables.
func (d *Document) TableNames() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, c := range d.container.Elements() {
		if !c.hasElementChild() {
			continue
		}
		name := strings.ToLower(c.name)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// RowNodes returns the element children of every container child whose
// lowercase tag equals table, in document order. Unknown tables yield nil.
func (d *Document) RowNodes(table string) []catalog.Node {
	var out []catalog.Node
	for _, c := range d.container.Elements() {
		if strings.ToLower(c.name) != table {
			continue
		}
		out = append(out, c.Children()...)
	}
	return out
}

// Options controls Read.
type Options struct {
	Charset  string
	RootPath string
}

// Read loads, decodes and indexes a feed in one step.
func Read(ctx context.Context, l *Loader, in Input, opts Options) (*Document, error) {
	data, err := l.Load(ctx, in)
	if err != nil {
		return nil, err
	}
	root, err := Decode(bytes.NewReader(data), DecodeOptions{Charset: opts.Charset})
	if err != nil {
		return nil, &SourceError{Op: "decode", Target: in.Target(), Err: err}
	}
	return NewDocument(root, opts.RootPath)
}
