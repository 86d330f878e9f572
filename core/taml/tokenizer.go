package taml

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Tokenizer scans TAML source into a flat token sequence. It validates
// lexical well-formedness of the angle-bracket syntax only; whether a tag
// name is registered, and whether tags nest, is the tree builder's job.
// The zero value is not usable; construct with NewTokenizer.
type Tokenizer struct {
	input string
	pos   Position // cursor at the next unconsumed character
	err   *ParseError
}

// NewTokenizer returns a tokenizer positioned at the start of input.
func NewTokenizer(input string) *Tokenizer {
	return &Tokenizer{input: input, pos: startOfInput}
}

// Next scans and returns the next token. After the input is exhausted it
// returns TokenEndOfInput on every call; after a scan error it returns the
// same error on every call.
func (t *Tokenizer) Next() (Token, error) {
	if t.err != nil {
		return Token{}, t.err
	}
	if t.eof() {
		return Token{Type: TokenEndOfInput, Span: Span{Start: t.pos, End: t.pos}}, nil
	}
	if r, _ := t.peek(); r == '<' {
		return t.scanTag()
	}
	return t.scanText(), nil
}

// eof reports whether the cursor is past the last character.
func (t *Tokenizer) eof() bool {
	return t.pos.Offset >= len(t.input)
}

// peek returns the rune under the cursor without consuming it.
func (t *Tokenizer) peek() (rune, bool) {
	if t.eof() {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(t.input[t.pos.Offset:])
	return r, true
}

// advance consumes the rune under the cursor. Newlines start a new line;
// every other rune moves the column.
func (t *Tokenizer) advance() rune {
	r, size := utf8.DecodeRuneInString(t.input[t.pos.Offset:])
	t.pos.Offset += size
	if r == '\n' {
		t.pos.Line++
		t.pos.Column = 1
	} else {
		t.pos.Column++
	}
	return r
}

// scanTag scans an open or close tag. The cursor is on '<'.
//
// A tag is '<', an optional '/', one or more ASCII letters, and '>'.
// Nothing else: no digits, no whitespace, no attributes. Any deviation is
// a MalformedTag positioned at the offending character; when the input
// ends mid-tag the error points at the '<' that started it.
func (t *Tokenizer) scanTag() (Token, error) {
	start := t.pos
	t.advance() // '<'

	typ := TokenOpenTag
	if r, ok := t.peek(); ok && r == '/' {
		typ = TokenCloseTag
		t.advance()
	}

	var name strings.Builder
	for {
		r, ok := t.peek()
		switch {
		case !ok:
			return Token{}, t.fail(start, expectedInTag(name.Len()), "end of input")
		case isTagNameChar(r):
			name.WriteRune(r)
			t.advance()
		case r == '>':
			if name.Len() == 0 {
				return Token{}, t.fail(t.pos, "tag name", ">")
			}
			t.advance()
			return Token{Type: typ, Value: name.String(), Span: Span{Start: start, End: t.pos}}, nil
		default:
			return Token{}, t.fail(t.pos, expectedInTag(name.Len()), foundString(r))
		}
	}
}

// scanText scans a maximal text run: everything up to the next '<' or end
// of input, with entities decoded as they are consumed. An '&' that starts
// no entity is literal text. The cursor starts on a non-'<' character, so
// the run is never empty.
func (t *Tokenizer) scanText() Token {
	start := t.pos
	var content strings.Builder
	for {
		r, ok := t.peek()
		if !ok || r == '<' {
			break
		}
		if r == '&' {
			if ch, n, ok := entityAt(t.input, t.pos.Offset); ok {
				content.WriteByte(ch)
				for i := 0; i < n; i++ {
					t.advance()
				}
				continue
			}
		}
		content.WriteRune(r)
		t.advance()
	}
	return Token{Type: TokenText, Value: content.String(), Span: Span{Start: start, End: t.pos}}
}

// fail records and returns a MalformedTag error. The tokenizer raises no
// other kind.
func (t *Tokenizer) fail(pos Position, expected, found string) *ParseError {
	t.err = &ParseError{Kind: MalformedTag, Pos: pos, Expected: expected, Found: found}
	return t.err
}

// isTagNameChar reports whether r may appear in a tag name. Names are
// ASCII letters only.
func isTagNameChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// expectedInTag describes what is valid at the current point of a tag:
// a name if none has started, otherwise its closing '>'.
func expectedInTag(nameLen int) string {
	if nameLen == 0 {
		return "tag name"
	}
	return ">"
}

// foundString renders a rune for an error message, escaping control
// characters the way Go source would.
func foundString(r rune) string {
	q := strconv.QuoteRune(r)
	return q[1 : len(q)-1]
}
