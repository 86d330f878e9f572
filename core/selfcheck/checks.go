package selfcheck

import (
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/suin/go-taml/core/errors"
	"github.com/suin/go-taml/core/render"
	"github.com/suin/go-taml/core/sgr"
	"github.com/suin/go-taml/core/taml"
	"github.com/suin/go-taml/core/xmlcheck"
)

// Checks returns the built-in checks in execution order.
func Checks() []Check {
	return []Check{
		{Name: "registry-complete", Run: checkRegistryComplete},
		{Name: "sgr-table-complete", Run: checkTableComplete},
		{Name: "roundtrip", Run: checkRoundTrip},
		{Name: "html-wellformed", Run: checkHTMLWellFormed},
		{Name: "depth-limit", Run: checkDepthLimit},
	}
}

// sampleDocuments exercise entities, nesting, styling restores, empty
// elements, and multi-line text. None nests a tag directly in itself,
// so they round-trip through the ansi renderer and the converter.
var sampleDocuments = []string{
	"plain text with no markup",
	"<red>danger</red>",
	"<bold>bold <red>and red</red> still bold</bold>",
	"<red>a<green>b</green>c</red>",
	"<bold>a<dim>b</dim>c</bold>",
	"entities: &lt;tag&gt; &amp; more",
	"<bgBlue><brightWhite>status line</brightWhite></bgBlue>",
	"<red></red>",
	"<underline>multi\nline</underline>",
}

func checkRegistryComplete() error {
	names := taml.TagNames()
	if len(names) != taml.TagCount {
		return fmt.Errorf("registry has %d names, want %d", len(names), taml.TagCount)
	}

	var fg, bright, bg, bgBright, style int
	styles := map[string]bool{"bold": true, "dim": true, "italic": true, "underline": true, "strikethrough": true}
	for _, name := range names {
		if !taml.IsValidTagName(name) {
			return fmt.Errorf("registry name %q does not validate", name)
		}
		switch {
		case strings.HasPrefix(name, "bgBright"):
			bgBright++
		case strings.HasPrefix(name, "bg"):
			bg++
		case strings.HasPrefix(name, "bright"):
			bright++
		case styles[name]:
			style++
		default:
			fg++
		}
	}
	if fg != 8 || bright != 8 || bg != 8 || bgBright != 8 || style != 5 {
		return fmt.Errorf("registry groups are %d/%d/%d/%d/%d, want 8/8/8/8/5", fg, bright, bg, bgBright, style)
	}

	// Matching is case-sensitive.
	if taml.IsValidTagName("Red") || taml.IsValidTagName("BOLD") {
		return errors.New("registry accepted a name with wrong case")
	}
	return nil
}

func checkTableComplete() error {
	for _, name := range taml.TagNames() {
		if _, ok := sgr.Lookup(name); !ok {
			return fmt.Errorf("no escape sequence for %q", name)
		}
		info, ok := sgr.InfoFor(name)
		if !ok {
			return fmt.Errorf("no SGR parameters for %q", name)
		}
		back, ok := sgr.TagForCode(info.Enter)
		if !ok || back != name {
			return fmt.Errorf("enter code %d of %q resolves to %q", info.Enter, name, back)
		}
	}
	return nil
}

func checkRoundTrip() error {
	for _, source := range sampleDocuments {
		doc, err := taml.Parse(source)
		if err != nil {
			return fmt.Errorf("sample %q does not parse: %w", source, err)
		}

		reparsed, err := taml.Parse(taml.Serialize(doc))
		if err != nil {
			return fmt.Errorf("serialization of %q does not parse: %w", source, err)
		}
		if !taml.Equal(doc, reparsed) {
			return fmt.Errorf("serialize round trip changed the tree of %q", source)
		}

		rendered, err := render.Render("ansi", doc)
		if err != nil {
			return fmt.Errorf("ansi render of %q: %w", source, err)
		}
		converted, err := sgr.Convert(string(rendered))
		if err != nil {
			return fmt.Errorf("convert of rendered %q: %w", source, err)
		}
		back, err := taml.Parse(converted)
		if err != nil {
			return fmt.Errorf("converted output of %q does not parse: %w", source, err)
		}
		if !taml.Equal(doc, back) {
			return fmt.Errorf("ansi/convert round trip changed the tree of %q", source)
		}
	}
	return nil
}

func checkHTMLWellFormed() error {
	for _, source := range sampleDocuments {
		doc, err := taml.Parse(source)
		if err != nil {
			return fmt.Errorf("sample %q does not parse: %w", source, err)
		}
		html, err := render.Render("html", doc)
		if err != nil {
			return fmt.Errorf("html render of %q: %w", source, err)
		}
		if err := xmlcheck.WellFormed(html); err != nil {
			return fmt.Errorf("html render of %q: %w", source, err)
		}
		parsed, err := xmlcheck.Parse(html)
		if err != nil {
			return fmt.Errorf("html render of %q: %w", source, err)
		}
		if got, want := parsed.InnerText(), doc.TextContent(); got != want {
			return fmt.Errorf("html render of %q lost text: %q != %q", source, got, want)
		}
	}
	return nil
}

func checkDepthLimit() error {
	atLimit := strings.Repeat("<red>", taml.MaxNestingDepth) + "x" + strings.Repeat("</red>", taml.MaxNestingDepth)
	if _, err := taml.Parse(atLimit); err != nil {
		return fmt.Errorf("document at the depth limit failed to parse: %w", err)
	}

	over := strings.Repeat("<red>", taml.MaxNestingDepth+1) + "x" + strings.Repeat("</red>", taml.MaxNestingDepth+1)
	_, err := taml.Parse(over)
	if err == nil {
		return errors.New("document over the depth limit parsed")
	}
	var perr *taml.ParseError
	if !apperrors.As(err, &perr) || perr.Kind != taml.DepthLimitExceeded {
		return fmt.Errorf("over-limit document failed with %v, want depth limit error", err)
	}
	return nil
}
