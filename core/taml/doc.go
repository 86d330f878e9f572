// Package taml parses TAML (Terminal ANSI Markup Language) into a validated
// document tree.
//
// TAML wraps plain text in a fixed vocabulary of 37 case-sensitive tag names
// (colors, bright colors, backgrounds, bright backgrounds, and text styles).
// Two character entities are recognized: &lt; for a literal '<' and &amp; for
// a literal '&'. The grammar:
//
//	document  = { element | text } ;
//	element   = open_tag , { element | text } , close_tag ;
//	open_tag  = "<" , tag_name , ">" ;
//	close_tag = "</" , tag_name , ">" ;
//	tag_name  = one of the 37 registered literals, case-sensitive ;
//	text      = { unicode_char - "<" } ;
//
// Parse either returns a Document or a single *ParseError describing the
// first problem in source order, with a line and column position. There is
// no error recovery: tags must nest strictly, close in order, and stay
// within MaxNestingDepth levels.
//
// The package holds no mutable state. The tag registry is constant, so any
// number of goroutines may parse independent inputs concurrently.
package taml
