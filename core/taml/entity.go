package taml

import "strings"

// The two recognized character entities. There are no others: TAML text
// needs an escape only for '<' (which would start a tag) and for '&'
// (which would start an entity).
const (
	entityLT  = "&lt;"
	entityAmp = "&amp;"
)

// entityAt matches an entity starting at s[i], which must be '&'. It
// returns the decoded character and the source length consumed. The match
// is greedy and does not backtrack; when neither entity matches, the '&'
// stands for itself and ok is false.
func entityAt(s string, i int) (ch byte, n int, ok bool) {
	rest := s[i:]
	if strings.HasPrefix(rest, entityLT) {
		return '<', len(entityLT), true
	}
	if strings.HasPrefix(rest, entityAmp) {
		return '&', len(entityAmp), true
	}
	return 0, 0, false
}

// Escape encodes s for inclusion as TAML text: '&' becomes &amp; and '<'
// becomes &lt;. Everything else, '>' included, passes through unchanged.
func Escape(s string) string {
	s = strings.ReplaceAll(s, "&", entityAmp)
	s = strings.ReplaceAll(s, "<", entityLT)
	return s
}

// Unescape resolves the two recognized entities in s, leftmost first. An
// ampersand that starts neither entity passes through literally, so
// Unescape never fails. The tokenizer decodes inline during scanning;
// this helper is for callers holding raw text outside a parse.
func Unescape(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == '&' {
			if ch, n, ok := entityAt(s, i); ok {
				sb.WriteByte(ch)
				i += n
				continue
			}
		}
		sb.WriteByte(s[i])
		i++
	}
	return sb.String()
}
