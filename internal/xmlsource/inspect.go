package xmlsource

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Inspect prints either the outer markup or the text of every match of a CSS
// selector. It backs the "inspect" command and is meant for eyeballing a feed
// before syncing it.
//
// The feed is parsed by an HTML parser: tag names in selectors must be
// lowercase ("offer[available=true] > price"), and <param> is an HTML void
// element, so its text shows up as a sibling of the match rather than inside.
func Inspect(w io.Writer, data []byte, selector string, textOnly bool) (int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("parse feed: %w", err)
	}

	sel := doc.Find(selector)
	sel.Each(func(_ int, s *goquery.Selection) {
		if textOnly {
			fmt.Fprintln(w, strings.TrimSpace(s.Text()))
			fmt.Fprintln(w)
			return
		}
		out, err := goquery.OuterHtml(s)
		if err != nil {
			in, _ := s.Html()
			fmt.Fprintln(w, in)
			fmt.Fprintln(w)
			return
		}
		fmt.Fprintln(w, out)
		fmt.Fprintln(w)
	})
	return sel.Length(), nil
}
