package taml

// Parse converts TAML source into its document tree. On failure it
// returns a *ParseError for the first problem in source order and no
// partial document.
//
// Tokens stream from the scanner straight into the builder, so an invalid
// tag name early in the input is reported even when a lexical error lurks
// later. Empty input parses to an empty document.
//
// Parse is pure and deterministic. Concurrent calls on separate inputs
// need no coordination.
func Parse(input string) (*Document, error) {
	tz := NewTokenizer(input)
	var b builder
	for {
		tok, err := tz.Next()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenText:
			b.text(tok)
		case TokenOpenTag:
			if perr := b.open(tok); perr != nil {
				return nil, perr
			}
		case TokenCloseTag:
			if perr := b.close(tok); perr != nil {
				return nil, perr
			}
		case TokenEndOfInput:
			doc, perr := b.finish(tok)
			if perr != nil {
				return nil, perr
			}
			return doc, nil
		}
	}
}

// Tokenize scans input into its complete token sequence, ending with a
// TokenEndOfInput. It fails only on MalformedTag; nesting and tag-name
// validity are not its concern. Most callers want Parse; Tokenize serves
// tooling that inspects the flat token stream.
func Tokenize(input string) ([]Token, error) {
	tz := NewTokenizer(input)
	var tokens []Token
	for {
		tok, err := tz.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEndOfInput {
			return tokens, nil
		}
	}
}
