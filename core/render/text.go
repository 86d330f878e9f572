package render

import "github.com/suin/go-taml/core/taml"

func init() {
	Register(textRenderer{})
}

// textRenderer strips all styling and keeps the decoded text.
type textRenderer struct{}

func (textRenderer) Name() string { return "text" }

func (textRenderer) Render(doc *taml.Document) ([]byte, error) {
	return []byte(doc.TextContent()), nil
}
