package taml

import (
	"strings"
	"testing"
)

// mustParse parses input and fails the test on error.
func mustParse(t *testing.T, input string) *Document {
	t.Helper()
	doc, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", input, err)
	}
	return doc
}

// parseErr parses input expecting failure and returns the typed error.
func parseErr(t *testing.T, input string) *ParseError {
	t.Helper()
	doc, err := Parse(input)
	if err == nil {
		t.Fatalf("Parse(%q) succeeded with %d top-level nodes, want error", input, len(doc.Nodes))
	}
	perr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("Parse(%q) error type = %T, want *ParseError", input, err)
	}
	return perr
}

func TestParseEmptyInput(t *testing.T) {
	doc := mustParse(t, "")
	if len(doc.Nodes) != 0 {
		t.Errorf("empty input parsed to %d nodes, want 0", len(doc.Nodes))
	}
}

func TestParsePlainText(t *testing.T) {
	doc := mustParse(t, "hello world")
	if len(doc.Nodes) != 1 {
		t.Fatalf("node count = %d, want 1", len(doc.Nodes))
	}
	text, ok := doc.Nodes[0].(*Text)
	if !ok {
		t.Fatalf("node type = %T, want *Text", doc.Nodes[0])
	}
	if text.Content != "hello world" {
		t.Errorf("content = %q, want %q", text.Content, "hello world")
	}
}

func TestParseSingleElement(t *testing.T) {
	doc := mustParse(t, "<red>alert</red>")
	if len(doc.Nodes) != 1 {
		t.Fatalf("node count = %d, want 1", len(doc.Nodes))
	}
	el, ok := doc.Nodes[0].(*Element)
	if !ok {
		t.Fatalf("node type = %T, want *Element", doc.Nodes[0])
	}
	if el.TagName != "red" {
		t.Errorf("tag = %q, want %q", el.TagName, "red")
	}
	if len(el.Children) != 1 {
		t.Fatalf("child count = %d, want 1", len(el.Children))
	}
	if text := el.Children[0].(*Text); text.Content != "alert" {
		t.Errorf("child content = %q, want %q", text.Content, "alert")
	}
}

func TestParseEmptyElement(t *testing.T) {
	doc := mustParse(t, "<red></red>")
	el, ok := doc.Nodes[0].(*Element)
	if !ok {
		t.Fatalf("node type = %T, want *Element", doc.Nodes[0])
	}
	if len(el.Children) != 0 {
		t.Errorf("child count = %d, want 0", len(el.Children))
	}
}

func TestParseMixedTopLevel(t *testing.T) {
	doc := mustParse(t, "a<red>b</red>c")
	if len(doc.Nodes) != 3 {
		t.Fatalf("node count = %d, want 3", len(doc.Nodes))
	}
	if text := doc.Nodes[0].(*Text); text.Content != "a" {
		t.Errorf("nodes[0] = %q, want %q", text.Content, "a")
	}
	if el := doc.Nodes[1].(*Element); el.TagName != "red" {
		t.Errorf("nodes[1] tag = %q, want %q", el.TagName, "red")
	}
	if text := doc.Nodes[2].(*Text); text.Content != "c" {
		t.Errorf("nodes[2] = %q, want %q", text.Content, "c")
	}
}

func TestParseNestedElements(t *testing.T) {
	doc := mustParse(t, "<red>a<bold>b</bold>c</red>")
	el := doc.Nodes[0].(*Element)
	if len(el.Children) != 3 {
		t.Fatalf("child count = %d, want 3", len(el.Children))
	}
	inner, ok := el.Children[1].(*Element)
	if !ok {
		t.Fatalf("children[1] type = %T, want *Element", el.Children[1])
	}
	if inner.TagName != "bold" {
		t.Errorf("inner tag = %q, want %q", inner.TagName, "bold")
	}
	if text := inner.Children[0].(*Text); text.Content != "b" {
		t.Errorf("inner content = %q, want %q", text.Content, "b")
	}
}

func TestParseEntities(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string // text content of the single element
	}{
		{"escaped less-than", "<blue>5 &lt; 10</blue>", "5 < 10"},
		{"escaped ampersand", "<blue>fish &amp; chips</blue>", "fish & chips"},
		{"literal ampersand", "<yellow>AT&T</yellow>", "AT&T"},
		{"incomplete entity", "<blue>&lt</blue>", "&lt"},
		{"unknown entity", "<blue>&xyz;</blue>", "&xyz;"},
		{"double escape", "<blue>&amp;lt;</blue>", "&lt;"},
		{"trailing ampersand", "<blue>done &</blue>", "done &"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, tt.input)
			el := doc.Nodes[0].(*Element)
			text := el.Children[0].(*Text)
			if text.Content != tt.want {
				t.Errorf("content = %q, want %q", text.Content, tt.want)
			}
		})
	}
}

func TestParseEscapedTagIsText(t *testing.T) {
	// &lt; prevents tag recognition entirely.
	doc := mustParse(t, "&lt;red>")
	if len(doc.Nodes) != 1 {
		t.Fatalf("node count = %d, want 1", len(doc.Nodes))
	}
	text, ok := doc.Nodes[0].(*Text)
	if !ok {
		t.Fatalf("node type = %T, want *Text", doc.Nodes[0])
	}
	if text.Content != "<red>" {
		t.Errorf("content = %q, want %q", text.Content, "<red>")
	}
}

func TestParseAllRegisteredTags(t *testing.T) {
	for _, name := range TagNames() {
		t.Run(name, func(t *testing.T) {
			doc := mustParse(t, "<"+name+">x</"+name+">")
			el := doc.Nodes[0].(*Element)
			if el.TagName != name {
				t.Errorf("tag = %q, want %q", el.TagName, name)
			}
		})
	}
}

func TestParseUnknownTagName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		found string
		pos   Position
	}{
		{"wrong case", "<Red>text</Red>", "Red", Position{Offset: 0, Line: 1, Column: 1}},
		{"upper case", "<BOLD>text</BOLD>", "BOLD", Position{Offset: 0, Line: 1, Column: 1}},
		{"unregistered word", "<orange>text</orange>", "orange", Position{Offset: 0, Line: 1, Column: 1}},
		{"after text", "ab<teal>", "teal", Position{Offset: 2, Line: 1, Column: 3}},
		{"second line", "line1\n<Red>x", "Red", Position{Offset: 6, Line: 2, Column: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perr := parseErr(t, tt.input)
			if perr.Kind != UnknownTagName {
				t.Fatalf("kind = %v, want UnknownTagName", perr.Kind)
			}
			if perr.Found != tt.found {
				t.Errorf("found = %q, want %q", perr.Found, tt.found)
			}
			if perr.Expected != "" {
				t.Errorf("expected = %q, want empty", perr.Expected)
			}
			if perr.Pos != tt.pos {
				t.Errorf("pos = %+v, want %+v", perr.Pos, tt.pos)
			}
		})
	}
}

func TestParseMismatchedClosingTag(t *testing.T) {
	input := "<red>Start<bold>middle</red>end</bold>"
	perr := parseErr(t, input)
	if perr.Kind != MismatchedClosingTag {
		t.Fatalf("kind = %v, want MismatchedClosingTag", perr.Kind)
	}
	if perr.Expected != "bold" || perr.Found != "red" {
		t.Errorf("expected/found = %q/%q, want bold/red", perr.Expected, perr.Found)
	}
	wantPos := Position{Offset: 22, Line: 1, Column: 23}
	if perr.Pos != wantPos {
		t.Errorf("pos = %+v, want %+v", perr.Pos, wantPos)
	}
}

func TestParseCloseWithoutOpen(t *testing.T) {
	perr := parseErr(t, "</red>")
	if perr.Kind != MismatchedClosingTag {
		t.Fatalf("kind = %v, want MismatchedClosingTag", perr.Kind)
	}
	if perr.Expected != "" {
		t.Errorf("expected = %q, want empty", perr.Expected)
	}
	if perr.Found != "red" {
		t.Errorf("found = %q, want %q", perr.Found, "red")
	}
}

func TestParseCloseTagNameNotRegistryChecked(t *testing.T) {
	// Close tags are matched against the open stack, never the registry,
	// so a bogus name surfaces as a mismatch.
	perr := parseErr(t, "<red>x</xyz>")
	if perr.Kind != MismatchedClosingTag {
		t.Fatalf("kind = %v, want MismatchedClosingTag", perr.Kind)
	}
	if perr.Expected != "red" || perr.Found != "xyz" {
		t.Errorf("expected/found = %q/%q, want red/xyz", perr.Expected, perr.Found)
	}
}

func TestParseUnclosedTag(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string // innermost open tag
		pos      Position
	}{
		{"single open", "<red>text", "red", Position{Offset: 9, Line: 1, Column: 10}},
		{"innermost reported", "<red><bold>x", "bold", Position{Offset: 12, Line: 1, Column: 13}},
		{"open at end", "<red>", "red", Position{Offset: 5, Line: 1, Column: 6}},
		{"across lines", "<red>a\nb", "red", Position{Offset: 8, Line: 2, Column: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perr := parseErr(t, tt.input)
			if perr.Kind != UnclosedTag {
				t.Fatalf("kind = %v, want UnclosedTag", perr.Kind)
			}
			if perr.Expected != tt.expected {
				t.Errorf("expected = %q, want %q", perr.Expected, tt.expected)
			}
			if perr.Found != "" {
				t.Errorf("found = %q, want empty", perr.Found)
			}
			if perr.Pos != tt.pos {
				t.Errorf("pos = %+v, want %+v", perr.Pos, tt.pos)
			}
		})
	}
}

func TestParseDepthLimit(t *testing.T) {
	open := strings.Repeat("<bold>", MaxNestingDepth)
	closing := strings.Repeat("</bold>", MaxNestingDepth)

	t.Run("at limit", func(t *testing.T) {
		doc := mustParse(t, open+"deep"+closing)
		depth := 0
		for n := doc.Nodes[0]; ; {
			el, ok := n.(*Element)
			if !ok {
				break
			}
			depth++
			if len(el.Children) == 0 {
				break
			}
			n = el.Children[0]
		}
		if depth != MaxNestingDepth {
			t.Errorf("tree depth = %d, want %d", depth, MaxNestingDepth)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		perr := parseErr(t, open+"<bold>deep")
		if perr.Kind != DepthLimitExceeded {
			t.Fatalf("kind = %v, want DepthLimitExceeded", perr.Kind)
		}
		wantPos := Position{Offset: MaxNestingDepth * 6, Line: 1, Column: MaxNestingDepth*6 + 1}
		if perr.Pos != wantPos {
			t.Errorf("pos = %+v, want %+v", perr.Pos, wantPos)
		}
	})

	t.Run("unknown name past limit", func(t *testing.T) {
		// The registry check outranks the depth check.
		perr := parseErr(t, open+"<Bold>")
		if perr.Kind != UnknownTagName {
			t.Errorf("kind = %v, want UnknownTagName", perr.Kind)
		}
	})

	t.Run("siblings do not accumulate depth", func(t *testing.T) {
		mustParse(t, strings.Repeat("<bold>x</bold>", MaxNestingDepth+10))
	})
}

func TestParseFirstErrorWins(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  ErrorKind
	}{
		// The unknown open tag precedes the lexical error.
		{"unknown before malformed", "<Red>oops <", UnknownTagName},
		// The mismatch precedes the unknown open tag.
		{"mismatch before unknown", "<red>x</bold><Red>", MismatchedClosingTag},
		// Lexical error comes first here.
		{"malformed before unknown", "< <Red>", MalformedTag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perr := parseErr(t, tt.input)
			if perr.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", perr.Kind, tt.kind)
			}
		})
	}
}

func TestParseSpansTileInput(t *testing.T) {
	inputs := []string{
		"a<red>b&lt;c</red>d",
		"<bold><red>x</red> and <blue>y</blue></bold>",
		"plain text only",
		"&amp; escaped &lt; run",
		"über <green>grün</green>\nzeile zwei",
		"",
	}

	for _, input := range inputs {
		doc := mustParse(t, input)
		var sb strings.Builder
		for _, n := range doc.Nodes {
			span := n.Bounds()
			sb.WriteString(input[span.Start.Offset:span.End.Offset])
		}
		if sb.String() != input {
			t.Errorf("top-level spans of %q concatenate to %q", input, sb.String())
		}
	}
}

func TestParseElementSpan(t *testing.T) {
	input := "a<red>b&lt;c</red>d"
	doc := mustParse(t, input)
	el := doc.Nodes[1].(*Element)
	if got := input[el.Span.Start.Offset:el.Span.End.Offset]; got != "<red>b&lt;c</red>" {
		t.Errorf("element span covers %q, want %q", got, "<red>b&lt;c</red>")
	}
	text := el.Children[0].(*Text)
	if got := input[text.Span.Start.Offset:text.Span.End.Offset]; got != "b&lt;c" {
		t.Errorf("text span covers %q, want %q", got, "b&lt;c")
	}
	if text.Content != "b<c" {
		t.Errorf("text content = %q, want %q", text.Content, "b<c")
	}
}

func TestParsePositionTracking(t *testing.T) {
	// Multi-byte runes advance the column by one and the offset by their
	// encoded size.
	perr := parseErr(t, "é<bad>")
	if perr.Kind != UnknownTagName {
		t.Fatalf("kind = %v, want UnknownTagName", perr.Kind)
	}
	wantPos := Position{Offset: 2, Line: 1, Column: 2}
	if perr.Pos != wantPos {
		t.Errorf("pos = %+v, want %+v", perr.Pos, wantPos)
	}
}

func TestTextContent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "just text", "just text"},
		{"tags stripped", "<red>a<bold>b</bold>c</red>d", "abcd"},
		{"entities decoded", "<blue>5 &lt; 10 &amp; 20</blue>", "5 < 10 & 20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, tt.input)
			if got := doc.TextContent(); got != tt.want {
				t.Errorf("TextContent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWalk(t *testing.T) {
	doc := mustParse(t, "<red>a<bold>b</bold></red><blue>c</blue>")

	t.Run("full traversal", func(t *testing.T) {
		var order []string
		doc.Walk(func(n Node) bool {
			switch n := n.(type) {
			case *Element:
				order = append(order, "<"+n.TagName+">")
			case *Text:
				order = append(order, n.Content)
			}
			return true
		})
		want := []string{"<red>", "a", "<bold>", "b", "<blue>", "c"}
		if len(order) != len(want) {
			t.Fatalf("visited %v, want %v", order, want)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("visited %v, want %v", order, want)
			}
		}
	})

	t.Run("skip children", func(t *testing.T) {
		var count int
		doc.Walk(func(n Node) bool {
			count++
			_, isElement := n.(*Element)
			return !isElement // never descend
		})
		if count != 2 {
			t.Errorf("visited %d nodes, want 2 top-level only", count)
		}
	})
}

func TestEqual(t *testing.T) {
	a := mustParse(t, "<red>a<bold>b</bold></red>")
	b := mustParse(t, "<red>a<bold>b</bold></red>")
	c := mustParse(t, "<red>a<bold>B</bold></red>")
	d := mustParse(t, "<red>a</red>")

	if !Equal(a, b) {
		t.Error("identical parses not Equal")
	}
	if Equal(a, c) {
		t.Error("different text content reported Equal")
	}
	if Equal(a, d) {
		t.Error("different structure reported Equal")
	}
	if !Equal(nil, nil) {
		t.Error("nil documents not Equal")
	}
	if Equal(a, nil) {
		t.Error("document Equal to nil")
	}
}
