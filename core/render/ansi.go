package render

import (
	"strings"

	"github.com/suin/go-taml/core/errors"
	"github.com/suin/go-taml/core/sgr"
	"github.com/suin/go-taml/core/taml"
)

func init() {
	Register(ansiRenderer{})
}

// ansiRenderer is the normative output format: each element's enter
// sequence before its children, its exit sequence after. Exit parameters
// are category-scoped, so the exit of a nested tag can cancel an enclosing
// one (a color inside a color, dim inside bold); the re-enter sequences
// from sgr.RestoreAfter put the surviving ancestors back in force.
type ansiRenderer struct{}

func (ansiRenderer) Name() string { return "ansi" }

func (ansiRenderer) Render(doc *taml.Document) ([]byte, error) {
	var sb strings.Builder
	if err := writeANSI(&sb, doc.Nodes, nil); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

// writeANSI emits nodes; open lists the enclosing tag names, outermost
// first.
func writeANSI(sb *strings.Builder, nodes []taml.Node, open []string) error {
	for _, node := range nodes {
		switch n := node.(type) {
		case *taml.Text:
			sb.WriteString(n.Content)
		case *taml.Element:
			seq, ok := sgr.Lookup(n.TagName)
			if !ok {
				return errors.NewUnsupported("tag", "no escape sequence for "+n.TagName)
			}
			sb.WriteString(seq.Enter)
			if err := writeANSI(sb, n.Children, append(open, n.TagName)); err != nil {
				return err
			}
			sb.WriteString(seq.Exit)
			for _, enter := range sgr.RestoreAfter(n.TagName, open) {
				sb.WriteString(enter)
			}
		}
	}
	return nil
}
