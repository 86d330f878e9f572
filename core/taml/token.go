package taml

// TokenType identifies the kind of a scanned token.
type TokenType int

// Token type constants.
const (
	// TokenText is a run of literal text with entities already resolved.
	TokenText TokenType = iota
	// TokenOpenTag is "<name>". The name is not yet checked against the
	// registry; that happens during tree building.
	TokenOpenTag
	// TokenCloseTag is "</name>".
	TokenCloseTag
	// TokenEndOfInput marks input exhaustion. Its span is empty.
	TokenEndOfInput
)

// String returns the token type name.
func (t TokenType) String() string {
	switch t {
	case TokenText:
		return "Text"
	case TokenOpenTag:
		return "OpenTag"
	case TokenCloseTag:
		return "CloseTag"
	case TokenEndOfInput:
		return "EndOfInput"
	}
	return "Unknown"
}

// Token is one unit of scanned TAML source.
type Token struct {
	Type TokenType

	// Value is the decoded text content for TokenText, or the literal tag
	// name for TokenOpenTag and TokenCloseTag. Empty for TokenEndOfInput.
	Value string

	// Span covers the raw source the token was scanned from, entities and
	// angle brackets included.
	Span Span
}
