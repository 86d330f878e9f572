// Package render turns parsed TAML documents into output formats.
//
// Renderers self-register in init and are looked up by name, so adding an
// output format is one file with one Register call. The registry is filled
// at init time and read-only afterwards, which keeps lookups safe for
// concurrent use.
package render

import (
	"sort"

	"github.com/suin/go-taml/core/errors"
	"github.com/suin/go-taml/core/taml"
)

// Renderer produces one output format from a parsed document.
type Renderer interface {
	// Name is the registry key, e.g. "ansi".
	Name() string

	// Render emits the document. The document is not modified. Documents
	// are expected to come from taml.Parse; the ansi renderer rejects tag
	// names outside the vocabulary because they have no escape sequences.
	Render(doc *taml.Document) ([]byte, error)
}

// registry holds all registered renderers by name.
var registry = make(map[string]Renderer)

// Register adds r to the registry, replacing any renderer with the same
// name. Built-in renderers register themselves in init.
func Register(r Renderer) {
	registry[r.Name()] = r
}

// Get returns the named renderer.
func Get(name string) (Renderer, error) {
	r, ok := registry[name]
	if !ok {
		return nil, errors.NewNotFound("renderer", name)
	}
	return r, nil
}

// Names returns the registered renderer names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render looks up the named renderer and applies it to doc.
func Render(name string, doc *taml.Document) ([]byte, error) {
	r, err := Get(name)
	if err != nil {
		return nil, err
	}
	return r.Render(doc)
}
