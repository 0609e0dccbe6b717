// Package xmlsource turns a catalog feed into a tree of catalog.Node values.
//
// The flow is Load (URL, file or stdin) -> Decode (charset-aware XML tree) ->
// NewDocument (locate the container element whose children are tables).
// Read chains all three.
package xmlsource

import (
	"strings"

	"catalogsync/internal/catalog"
)

// Element is a decoded XML element. It implements catalog.Node.
type Element struct {
	name    string
	attrs   []catalog.Attr
	content []content
}

// content is either character data or a child element, in document order.
type content struct {
	text  string
	child *Element
}

// Tag returns the element's local name, case preserved.
func (e *Element) Tag() string { return e.name }

// Attributes returns the element's attributes in document order. Namespace
// declarations are not included.
func (e *Element) Attributes() []catalog.Attr { return e.attrs }

// Children returns the element children in document order.
func (e *Element) Children() []catalog.Node {
	var out []catalog.Node
	for _, c := range e.content {
		if c.child != nil {
			out = append(out, c.child)
		}
	}
	return out
}

// Elements is Children with the concrete type.
func (e *Element) Elements() []*Element {
	var out []*Element
	for _, c := range e.content {
		if c.child != nil {
			out = append(out, c.child)
		}
	}
	return out
}

// Text concatenates the character data of the element and all descendants
// in document order.
func (e *Element) Text() string {
	var b strings.Builder
	e.writeText(&b)
	return b.String()
}

func (e *Element) writeText(b *strings.Builder) {
	for _, c := range e.content {
		if c.child != nil {
			c.child.writeText(b)
			continue
		}
		b.WriteString(c.text)
	}
}

func (e *Element) hasElementChild() bool {
	for _, c := range e.content {
		if c.child != nil {
			return true
		}
	}
	return false
}

var _ catalog.Node = (*Element)(nil)
