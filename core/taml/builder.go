package taml

// MaxNestingDepth is the maximum number of simultaneously open tags.
// Opening one more is a DepthLimitExceeded error, not a crash.
const MaxNestingDepth = 100

// frame is one still-open tag on the builder stack.
type frame struct {
	name     string
	start    Position
	children []Node
}

// builder consumes tokens and enforces strict nesting with an explicit
// stack, so the depth limit is a length check and an unclosed tag is
// whatever remains on the stack at end of input. One builder serves one
// parse and is discarded afterwards.
type builder struct {
	stack    []frame
	toplevel []Node
}

// open handles an OpenTag token. The registry check comes before the
// depth check: an unknown name is reported as such even past the limit.
func (b *builder) open(tok Token) *ParseError {
	if !IsValidTagName(tok.Value) {
		return &ParseError{Kind: UnknownTagName, Pos: tok.Span.Start, Found: tok.Value}
	}
	if len(b.stack) >= MaxNestingDepth {
		return &ParseError{Kind: DepthLimitExceeded, Pos: tok.Span.Start}
	}
	b.stack = append(b.stack, frame{name: tok.Value, start: tok.Span.Start})
	return nil
}

// text handles a Text token.
func (b *builder) text(tok Token) {
	b.append(&Text{Content: tok.Value, Span: tok.Span})
}

// close handles a CloseTag token. Only the innermost open tag may close;
// the name is compared exactly, and a close with nothing open carries no
// expected name.
func (b *builder) close(tok Token) *ParseError {
	if len(b.stack) == 0 {
		return &ParseError{Kind: MismatchedClosingTag, Pos: tok.Span.Start, Found: tok.Value}
	}
	top := b.stack[len(b.stack)-1]
	if top.name != tok.Value {
		return &ParseError{Kind: MismatchedClosingTag, Pos: tok.Span.Start, Expected: top.name, Found: tok.Value}
	}
	b.stack = b.stack[:len(b.stack)-1]
	b.append(&Element{
		TagName:  top.name,
		Children: top.children,
		Span:     Span{Start: top.start, End: tok.Span.End},
	})
	return nil
}

// finish handles EndOfInput, yielding the document. A non-empty stack is
// an UnclosedTag naming the innermost open tag, the most actionable one.
func (b *builder) finish(tok Token) (*Document, *ParseError) {
	if n := len(b.stack); n > 0 {
		return nil, &ParseError{Kind: UnclosedTag, Pos: tok.Span.Start, Expected: b.stack[n-1].name}
	}
	return &Document{Nodes: b.toplevel}, nil
}

// append attaches a completed node to the innermost open frame, or to the
// top level when nothing is open. Attachment happens exactly once per
// node; nothing is revisited later.
func (b *builder) append(n Node) {
	if len(b.stack) == 0 {
		b.toplevel = append(b.toplevel, n)
		return
	}
	top := &b.stack[len(b.stack)-1]
	top.children = append(top.children, n)
}
