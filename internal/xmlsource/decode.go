package xmlsource

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"catalogsync/internal/catalog"
)

// DecodeOptions controls XML decoding.
type DecodeOptions struct {
	// Charset overrides the encoding declared in the XML prolog. Any label
	// known to the WHATWG encoding index works ("windows-1251", "koi8-r", ...).
	// Empty means: honor the prolog, default UTF-8.
	Charset string
}

// Decode parses an XML document into an element tree and returns the
// document element.
//
// Edge cases:
//   - Character data consisting only of whitespace is dropped; any other
//     character data is kept verbatim, including surrounding whitespace.
//   - CDATA sections are treated as character data.
//   - HTML named entities (&nbsp;, &laquo;, ...) are accepted.
//   - Comments, processing instructions and directives are ignored.
//   - Element and attribute names use their local part; xmlns declarations
//     are dropped.
func Decode(r io.Reader, opts DecodeOptions) (*Element, error) {
	dec, err := newDecoder(r, opts.Charset)
	if err != nil {
		return nil, err
	}

	var (
		root  *Element
		stack []*Element
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{name: t.Name.Local, attrs: attrsOf(t.Attr)}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple document elements: <%s> after <%s>", el.name, root.name)
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.content = append(parent.content, content{child: el})
			}
			stack = append(stack, el)

		case xml.EndElement:
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 || strings.TrimSpace(string(t)) == "" {
				continue
			}
			parent := stack[len(stack)-1]
			parent.content = append(parent.content, content{text: string(t)})
		}
	}

	if root == nil {
		return nil, errors.New("no document element")
	}
	return root, nil
}

func newDecoder(r io.Reader, charset string) (*xml.Decoder, error) {
	if charset != "" {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, fmt.Errorf("charset %q: %w", charset, err)
		}
		r = enc.NewDecoder().Reader(r)
	}

	dec := xml.NewDecoder(r)
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		if charset != "" {
			// Already transcoded; the prolog label is stale.
			return input, nil
		}
		enc, err := htmlindex.Get(label)
		if err != nil {
			return nil, fmt.Errorf("charset %q: %w", label, err)
		}
		return enc.NewDecoder().Reader(input), nil
	}
	return dec, nil
}

func attrsOf(in []xml.Attr) []catalog.Attr {
	out := make([]catalog.Attr, 0, len(in))
	for _, a := range in {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		out = append(out, catalog.Attr{Name: a.Name.Local, Value: a.Value})
	}
	return out
}
