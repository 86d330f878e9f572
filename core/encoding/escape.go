// Package encoding provides shared text escaping utilities for renderers
// that emit markup.
package encoding

import "strings"

// EscapeHTML escapes special characters for HTML text content.
// Escapes: & < > "
func EscapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

// EscapeAttr escapes text for use in HTML attribute values.
// Includes single-quote escaping in addition to EscapeHTML's set.
func EscapeAttr(s string) string {
	s = EscapeHTML(s)
	s = strings.ReplaceAll(s, "'", "&#39;")
	return s
}
