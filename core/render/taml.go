package render

import "github.com/suin/go-taml/core/taml"

func init() {
	Register(tamlRenderer{})
}

// tamlRenderer re-serializes the tree as canonical markup. Parsing the
// output yields an equal tree.
type tamlRenderer struct{}

func (tamlRenderer) Name() string { return "taml" }

func (tamlRenderer) Render(doc *taml.Document) ([]byte, error) {
	return []byte(taml.Serialize(doc)), nil
}
