package ast

import "github.com/oxhq/schemalang/internal/span"

// Identifier is a single bare name token.
type Identifier struct {
	Base
	Name string
}

func NewIdentifier(sp span.Span, path span.Path, name string) *Identifier {
	return &Identifier{Base: Base{NodeKind: KindIdentifier, NodeSpan: sp, NodePath: path}, Name: name}
}

// IdentifierPath is a dotted sequence of identifiers, e.g. `std.User.id`.
type IdentifierPath struct {
	Base
	Names []string
}

func NewIdentifierPath(sp span.Span, path span.Path, names []string) *IdentifierPath {
	return &IdentifierPath{Base: Base{NodeKind: KindIdentifierPath, NodeSpan: sp, NodePath: path}, Names: names}
}

// Punctuation is a single punctuation token inserted into a container's
// child map purely so the formatter can reproduce it.
type Punctuation struct {
	Base
	Text string
}

func NewPunctuation(sp span.Span, path span.Path, text string) *Punctuation {
	return &Punctuation{Base: Base{NodeKind: KindPunctuation, NodeSpan: sp, NodePath: path}, Text: text}
}

// Keyword is a single reserved-word token, inserted into the child map for
// the same reason as Punctuation.
type Keyword struct {
	Base
	Text string
}

func NewKeyword(sp span.Span, path span.Path, text string) *Keyword {
	return &Keyword{Base: Base{NodeKind: KindKeyword, NodeSpan: sp, NodePath: path}, Text: text}
}

// DocComment is a `///`-style documentation comment attached to the
// following declaration.
type DocComment struct {
	Base
	Text string
}

func NewDocComment(sp span.Span, path span.Path, text string) *DocComment {
	return &DocComment{Base: Base{NodeKind: KindDocComment, NodeSpan: sp, NodePath: path}, Text: text}
}

// AvailabilityFlagStart is the `#database`/`#mongo`/... leaf that pushes
// onto the parser's availability stack.
type AvailabilityFlagStart struct {
	Base
	FlagName string
	Pushed   bool // false when the flag name was unrecognized or unreachable
}

func NewAvailabilityFlagStart(sp span.Span, path span.Path, name string, pushed bool) *AvailabilityFlagStart {
	return &AvailabilityFlagStart{Base: Base{NodeKind: KindAvailabilityFlagStart, NodeSpan: sp, NodePath: path}, FlagName: name, Pushed: pushed}
}

// AvailabilityFlagEnd is the `#end` leaf that pops the availability stack.
type AvailabilityFlagEnd struct {
	Base
}

func NewAvailabilityFlagEnd(sp span.Span, path span.Path) *AvailabilityFlagEnd {
	return &AvailabilityFlagEnd{Base: Base{NodeKind: KindAvailabilityFlagEnd, NodeSpan: sp, NodePath: path}}
}

// NumericLiteral is an integer or floating-point literal token.
type NumericLiteral struct {
	Base
	Text       string
	HasDecimal bool
}

func NewNumericLiteral(sp span.Span, path span.Path, text string, hasDecimal bool) *NumericLiteral {
	return &NumericLiteral{Base: Base{NodeKind: KindNumericLiteral, NodeSpan: sp, NodePath: path}, Text: text, HasDecimal: hasDecimal}
}

// StringLiteral is a quoted string literal.
type StringLiteral struct {
	Base
	Value string
}

func NewStringLiteral(sp span.Span, path span.Path, value string) *StringLiteral {
	return &StringLiteral{Base: Base{NodeKind: KindStringLiteral, NodeSpan: sp, NodePath: path}, Value: value}
}

// BoolLiteral is `true`/`false`.
type BoolLiteral struct {
	Base
	Value bool
}

func NewBoolLiteral(sp span.Span, path span.Path, value bool) *BoolLiteral {
	return &BoolLiteral{Base: Base{NodeKind: KindBoolLiteral, NodeSpan: sp, NodePath: path}, Value: value}
}

// NullLiteral is the `null` literal.
type NullLiteral struct {
	Base
}

func NewNullLiteral(sp span.Span, path span.Path) *NullLiteral {
	return &NullLiteral{Base: Base{NodeKind: KindNullLiteral, NodeSpan: sp, NodePath: path}}
}

// RegExpLiteral is a `/pattern/` regular expression literal.
type RegExpLiteral struct {
	Base
	Pattern string
}

func NewRegExpLiteral(sp span.Span, path span.Path, pattern string) *RegExpLiteral {
	return &RegExpLiteral{Base: Base{NodeKind: KindRegExpLiteral, NodeSpan: sp, NodePath: path}, Pattern: pattern}
}
