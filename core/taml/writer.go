package taml

import (
	"io"
	"strings"
)

// Serialize renders doc back to TAML source. Text content is re-escaped
// and elements are re-wrapped, so parsing the result yields a document
// Equal to doc. Byte identity with the original input is not promised:
// a literal '&' serializes as &amp; even when the input spelled it bare.
func Serialize(doc *Document) string {
	var sb strings.Builder
	writeNodes(&sb, doc.Nodes)
	return sb.String()
}

// WriteDocument streams the serialized form of doc to w.
func WriteDocument(w io.Writer, doc *Document) error {
	_, err := io.WriteString(w, Serialize(doc))
	return err
}

func writeNodes(sb *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *Text:
			sb.WriteString(Escape(n.Content))
		case *Element:
			sb.WriteByte('<')
			sb.WriteString(n.TagName)
			sb.WriteByte('>')
			writeNodes(sb, n.Children)
			sb.WriteString("</")
			sb.WriteString(n.TagName)
			sb.WriteByte('>')
		}
	}
}
