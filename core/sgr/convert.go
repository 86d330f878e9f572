package sgr

import (
	"fmt"
	"strings"

	"github.com/suin/go-taml/core/errors"
	"github.com/suin/go-taml/core/taml"
)

// ConvertError reports legacy input that cannot be expressed as TAML.
type ConvertError struct {
	// Offset is the byte offset of the offending escape sequence.
	Offset int `json:"offset"`

	// Reason describes what could not be represented.
	Reason string `json:"reason"`
}

func (e *ConvertError) Error() string {
	return fmt.Sprintf("cannot convert escape sequence at offset %d: %s", e.Offset, e.Reason)
}

func (e *ConvertError) Unwrap() error {
	return errors.ErrUnsupported
}

// Convert translates legacy SGR-styled terminal text into TAML markup.
// Enter parameters open tags, exit parameters close them, and a reset
// closes everything that is open. Styling that overlaps without nesting
// is linearized by closing and reopening tags, so the output always
// parses cleanly. Styling still open at end of input is closed there.
//
// Parameters outside the tag table (256-color or truecolor selectors,
// blink, reverse) have no TAML form and fail with a *ConvertError; so
// does any escape sequence that is not an SGR sequence, or styling
// nested past the parser's depth limit. Text content is entity-escaped
// on output, so successful conversion always yields parseable markup.
func Convert(input string) (string, error) {
	segments, err := scan(input)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var stack []string
	for _, seg := range segments {
		if !seg.isSeq {
			sb.WriteString(taml.Escape(seg.text))
			continue
		}
		for _, p := range seg.params {
			switch {
			case p == 0:
				for i := len(stack) - 1; i >= 0; i-- {
					sb.WriteString("</" + stack[i] + ">")
				}
				stack = stack[:0]

			case isEnterParam(p):
				tag, _ := TagForCode(p)
				if redundantEnter(stack, tag) {
					continue
				}
				if len(stack) >= taml.MaxNestingDepth {
					return "", &ConvertError{Offset: seg.offset, Reason: "nesting depth limit exceeded"}
				}
				sb.WriteString("<" + tag + ">")
				stack = append(stack, tag)

			case isExitParam(p):
				idx := innermostClosedBy(stack, p)
				if idx < 0 {
					continue // nothing of that kind open; exiting is a no-op
				}
				stack = closeReopen(&sb, stack, idx)

			default:
				return "", &ConvertError{Offset: seg.offset, Reason: fmt.Sprintf("unsupported SGR parameter %d", p)}
			}
		}
	}

	for i := len(stack) - 1; i >= 0; i-- {
		sb.WriteString("</" + stack[i] + ">")
	}
	return sb.String(), nil
}

// isEnterParam reports whether p opens a tag.
func isEnterParam(p int) bool {
	_, ok := enterCodes[p]
	return ok
}

// isExitParam reports whether p is one of the known exit parameters.
func isExitParam(p int) bool {
	switch p {
	case exitForeground, exitBackground, exitIntensity, exitItalic, exitUnderline, exitStrikethrough:
		return true
	}
	return false
}

// redundantEnter reports whether entering tag changes nothing: the nearest
// open tag in the same state slot is the tag itself. Renderer output
// re-enters ancestors after nested styling ends; skipping those keeps the
// converted tree minimal.
func redundantEnter(stack []string, tag string) bool {
	for i := len(stack) - 1; i >= 0; i-- {
		if sameSlot(stack[i], tag) {
			return stack[i] == tag
		}
	}
	return false
}

// innermostClosedBy returns the index of the innermost open tag that
// parameter p terminates, or -1.
func innermostClosedBy(stack []string, p int) int {
	for i := len(stack) - 1; i >= 0; i-- {
		if closedBy(p, stack[i]) {
			return i
		}
	}
	return -1
}

// closeReopen closes the stack down to and including idx, then reopens
// the tags that were above it, preserving their order. This is how
// non-nested legacy styling becomes strictly nested markup.
func closeReopen(sb *strings.Builder, stack []string, idx int) []string {
	for i := len(stack) - 1; i >= idx; i-- {
		sb.WriteString("</" + stack[i] + ">")
	}
	reopened := stack[idx+1:]
	for _, tag := range reopened {
		sb.WriteString("<" + tag + ">")
	}
	out := make([]string, 0, len(stack)-1)
	out = append(out, stack[:idx]...)
	out = append(out, reopened...)
	return out
}
