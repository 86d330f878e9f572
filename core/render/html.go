package render

import (
	"strings"

	"github.com/suin/go-taml/core/encoding"
	"github.com/suin/go-taml/core/taml"
)

func init() {
	Register(htmlRenderer{})
}

// htmlRenderer mirrors the document tree as nested spans for the web
// playground. Tag names become CSS classes with a taml- prefix, and the
// whole document is wrapped in a pre element so the output is a single
// well-formed fragment.
type htmlRenderer struct{}

func (htmlRenderer) Name() string { return "html" }

func (htmlRenderer) Render(doc *taml.Document) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString(`<pre class="taml">`)
	writeHTML(&sb, doc.Nodes)
	sb.WriteString(`</pre>`)
	return []byte(sb.String()), nil
}

func writeHTML(sb *strings.Builder, nodes []taml.Node) {
	for _, node := range nodes {
		switch n := node.(type) {
		case *taml.Text:
			sb.WriteString(encoding.EscapeHTML(n.Content))
		case *taml.Element:
			sb.WriteString(`<span class="` + encoding.EscapeAttr("taml-"+n.TagName) + `">`)
			writeHTML(sb, n.Children)
			sb.WriteString(`</span>`)
		}
	}
}
