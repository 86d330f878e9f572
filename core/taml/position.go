package taml

import "fmt"

// Position locates a single character in TAML source.
type Position struct {
	// Offset is the byte offset from the start of the input.
	Offset int `json:"offset"`

	// Line is the 1-based line number. A '\n' ends its line.
	Line int `json:"line"`

	// Column is the 1-based column number, counted in runes.
	Column int `json:"column"`
}

// startOfInput is the position before the first character.
var startOfInput = Position{Offset: 0, Line: 1, Column: 1}

// String renders the position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is a half-open source range: Start is the first character covered,
// End is the position just past the last one. Slicing the input between the
// two offsets yields the covered source text.
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// String renders the span as "start-end".
func (s Span) String() string {
	return fmt.Sprintf("%s-%s", s.Start, s.End)
}
