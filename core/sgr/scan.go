package sgr

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// segment is one piece of legacy terminal text: either a literal text run
// or one SGR escape sequence with its parsed parameters.
type segment struct {
	offset int    // byte offset of the segment start
	text   string // literal text; empty for sequences
	params []int  // SGR parameters; nil for text segments
	isSeq  bool
}

// sgrParams is the participle grammar for the parameter list between the
// CSI introducer and the final 'm': semicolon-separated decimal integers.
// An empty list is handled before parsing (it means reset).
type sgrParams struct {
	Params []int `parser:"@Int ( \";\" @Int )*"`
}

// sgrLexer defines the lexer for SGR parameter lists.
var sgrLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Semi", Pattern: `;`},
})

// sgrParser is the participle parser for SGR parameter lists.
var sgrParser = participle.MustBuild[sgrParams](
	participle.Lexer(sgrLexer),
)

// parseParams parses the raw parameter bytes of an SGR sequence. An empty
// list means reset, parameter 0.
func parseParams(raw string) ([]int, error) {
	if raw == "" {
		return []int{0}, nil
	}
	parsed, err := sgrParser.ParseString("", raw)
	if err != nil {
		return nil, err
	}
	return parsed.Params, nil
}

// scan splits legacy terminal text into text runs and SGR sequences. Only
// sequences of the form ESC '[' params 'm' are representable; any other
// use of ESC fails with a positioned ConvertError.
func scan(input string) ([]segment, error) {
	var segments []segment
	for i := 0; i < len(input); {
		esc := strings.IndexByte(input[i:], 0x1b)
		if esc < 0 {
			segments = append(segments, segment{offset: i, text: input[i:]})
			break
		}
		if esc > 0 {
			segments = append(segments, segment{offset: i, text: input[i : i+esc]})
			i += esc
		}

		// The escape sequence starts at i.
		seqStart := i
		if i+1 >= len(input) || input[i+1] != '[' {
			return nil, &ConvertError{Offset: seqStart, Reason: "unsupported escape sequence: not a CSI introducer"}
		}
		j := i + 2
		for j < len(input) && (input[j] == ';' || (input[j] >= '0' && input[j] <= '9')) {
			j++
		}
		if j >= len(input) {
			return nil, &ConvertError{Offset: seqStart, Reason: "unterminated escape sequence"}
		}
		if input[j] != 'm' {
			return nil, &ConvertError{Offset: seqStart, Reason: fmt.Sprintf("unsupported escape sequence with final byte %q", input[j])}
		}
		params, err := parseParams(input[i+2 : j])
		if err != nil {
			return nil, &ConvertError{Offset: seqStart, Reason: fmt.Sprintf("malformed SGR parameters %q", input[i+2:j])}
		}
		segments = append(segments, segment{offset: seqStart, params: params, isSeq: true})
		i = j + 1
	}
	return segments, nil
}
