package taml

import (
	"fmt"
	"strings"

	"github.com/suin/go-taml/core/errors"
)

// ErrorKind classifies a parse failure.
type ErrorKind int

// Error kinds, in the order the pipeline can raise them.
const (
	// MalformedTag is a lexical problem inside angle brackets: an empty
	// name, an illegal character, or a missing '>'.
	MalformedTag ErrorKind = iota
	// UnknownTagName is an open tag whose name is not registered.
	// Case mismatches of known names land here too.
	UnknownTagName
	// UnclosedTag means the input ended while tags were still open.
	UnclosedTag
	// MismatchedClosingTag is a close tag that does not match the
	// innermost open tag, or a close tag with no open tag at all.
	MismatchedClosingTag
	// DepthLimitExceeded means an open tag would nest deeper than
	// MaxNestingDepth.
	DepthLimitExceeded
)

// String returns the kind's enumeration name.
func (k ErrorKind) String() string {
	switch k {
	case MalformedTag:
		return "MalformedTag"
	case UnknownTagName:
		return "UnknownTagName"
	case UnclosedTag:
		return "UnclosedTag"
	case MismatchedClosingTag:
		return "MismatchedClosingTag"
	case DepthLimitExceeded:
		return "DepthLimitExceeded"
	}
	return "Unknown"
}

// MarshalText encodes the kind as its enumeration name.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// description is the fixed human-readable phrase for the kind.
func (k ErrorKind) description() string {
	switch k {
	case MalformedTag:
		return "malformed tag"
	case UnknownTagName:
		return "unknown tag name"
	case UnclosedTag:
		return "unclosed tag"
	case MismatchedClosingTag:
		return "mismatched closing tag"
	case DepthLimitExceeded:
		return "nesting depth limit exceeded"
	}
	return "parse error"
}

// ParseError is the single structured failure a parse can produce. Exactly
// one is reported per call, for the first problem in source order.
type ParseError struct {
	// Kind classifies the failure.
	Kind ErrorKind `json:"kind"`

	// Pos is where the problem was detected.
	Pos Position `json:"position"`

	// Expected describes what would have been valid at Pos: a literal
	// such as ">", a category such as "tag name", or the tag name still
	// waiting to be closed. Empty when nothing specific was expected.
	Expected string `json:"expected,omitempty"`

	// Found is what was actually seen, when that adds information: the
	// offending character, an unknown tag name, or "end of input".
	Found string `json:"found,omitempty"`
}

// Error renders the failure for humans:
//
//	Error: <description> at line <L>, column <C>
//
// followed, when populated, by a second line of either
// "Expected: <expected>" or "Expected: '<expected>' but found '<found>'".
// A Found with no Expected is folded into the first line, quoted.
func (e *ParseError) Error() string {
	var sb strings.Builder
	sb.WriteString("Error: ")
	sb.WriteString(e.Kind.description())
	if e.Expected == "" && e.Found != "" {
		fmt.Fprintf(&sb, " '%s'", e.Found)
	}
	fmt.Fprintf(&sb, " at line %d, column %d", e.Pos.Line, e.Pos.Column)
	switch {
	case e.Expected != "" && e.Found != "":
		fmt.Fprintf(&sb, "\nExpected: '%s' but found '%s'", e.Expected, e.Found)
	case e.Expected != "":
		fmt.Fprintf(&sb, "\nExpected: %s", e.Expected)
	}
	return sb.String()
}

// Unwrap ties every parse failure to the generic invalid-input sentinel so
// callers can match with errors.Is without knowing the kind taxonomy.
func (e *ParseError) Unwrap() error {
	return errors.ErrInvalidInput
}
