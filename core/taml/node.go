package taml

import "strings"

// Node is one unit of document structure: an *Element or a *Text. Nodes
// are built once during parsing and never mutated afterwards; treat every
// field as read-only.
type Node interface {
	// Bounds returns the source range the node covers.
	Bounds() Span

	isNode()
}

// Element is a matched tag pair and everything between. TagName is always
// one of the 37 registered names; the builder rejects anything else before
// an Element exists.
type Element struct {
	TagName  string `json:"tag"`
	Children []Node `json:"children,omitempty"`

	// Span runs from the '<' of the open tag through the '>' of the
	// close tag.
	Span Span `json:"span"`
}

// Bounds returns the source range the element covers.
func (e *Element) Bounds() Span { return e.Span }

func (e *Element) isNode() {}

// Text is a run of literal text with entities resolved. Content is never
// empty: empty runs are elided during scanning.
type Text struct {
	Content string `json:"text"`

	// Span covers the raw source of the run, entities un-decoded, so the
	// span is at least as long as Content.
	Span Span `json:"span"`
}

// Bounds returns the source range the text run covers.
func (t *Text) Bounds() Span { return t.Span }

func (t *Text) isNode() {}

// Document is the ordered top-level node sequence of one parsed input.
// Node order is source order, preserved exactly. The spans of the
// top-level nodes tile the input with no gaps or overlaps.
type Document struct {
	Nodes []Node `json:"nodes,omitempty"`
}

// Walk calls fn for every node in depth-first source order. Returning
// false skips the node's children.
func (d *Document) Walk(fn func(Node) bool) {
	walkNodes(d.Nodes, fn)
}

func walkNodes(nodes []Node, fn func(Node) bool) {
	for _, n := range nodes {
		if !fn(n) {
			continue
		}
		if el, ok := n.(*Element); ok {
			walkNodes(el.Children, fn)
		}
	}
}

// TextContent returns the document's text with all markup stripped: the
// in-order concatenation of every text leaf, entities already decoded.
func (d *Document) TextContent() string {
	var sb strings.Builder
	d.Walk(func(n Node) bool {
		if t, ok := n.(*Text); ok {
			sb.WriteString(t.Content)
		}
		return true
	})
	return sb.String()
}

// Equal reports whether two documents have the same structure, tag names,
// and text content. Source spans are ignored, so a document remains Equal
// to itself after a serialize and re-parse even when escaping shifts
// offsets.
func Equal(a, b *Document) bool {
	if a == nil || b == nil {
		return a == b
	}
	return equalNodes(a.Nodes, b.Nodes)
}

func equalNodes(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalNode(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalNode(a, b Node) bool {
	switch a := a.(type) {
	case *Text:
		bt, ok := b.(*Text)
		return ok && a.Content == bt.Content
	case *Element:
		be, ok := b.(*Element)
		return ok && a.TagName == be.TagName && equalNodes(a.Children, be.Children)
	}
	return false
}
