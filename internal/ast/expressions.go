package ast

import (
	"github.com/oxhq/schemalang/internal/span"
	"github.com/oxhq/schemalang/internal/typesys"
)

// Slot is a single-assignment resolution cell: the resolver writes it
// at most once, and every later read observes the same value.
type Slot[T any] struct {
	set   bool
	value T
}

// Assign writes v if the slot is still empty. It reports whether the
// write took effect, so callers can detect (and ignore) a second write
// instead of silently clobbering an already-resolved value.
func (s *Slot[T]) Assign(v T) bool {
	if s.set {
		return false
	}
	s.value = v
	s.set = true
	return true
}

// Get returns the stored value and whether Assign has ever succeeded.
func (s *Slot[T]) Get() (T, bool) {
	return s.value, s.set
}

// MustGet panics if the slot was never assigned. Resolver passes that run
// after body resolution may rely on this once every expression is known
// to have been visited.
func (s *Slot[T]) MustGet() T {
	if !s.set {
		panic("ast: slot read before resolution")
	}
	return s.value
}

// Accessible is what an expression or identifier resolves to: a type,
// optionally tied back to the schema declaration it was reached through
// (a model field, an enum variant, a namespace member, ...). Expressions
// with no backing declaration (e.g. `1 + 2`) carry HasRef = false.
type Accessible struct {
	Type   typesys.Type
	Ref    typesys.Reference
	HasRef bool
}

// UnaryOperator is the closed set of prefix operators.
type UnaryOperator int

const (
	OpNegate UnaryOperator = iota
	OpBitwiseNegate
	OpLogicalNot
)

// BinaryOperator is the closed set of infix operators. The declaration
// order below is not the precedence order; precedence lives in the
// Pratt table in internal/parser.
type BinaryOperator int

const (
	OpNullishCoalescing BinaryOperator = iota
	OpOr
	OpAnd
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpBitOr
	OpBitXor
	OpBitAnd
	OpShl
	OpShr
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpRangeClosed
	OpRangeOpen
)

// Expression is the container every expression-shaped grammar production
// resolves into: it owns the token/child children for round-trip
// formatting plus the resolved Accessible and Type slots the resolver
// fills during body resolution.
type Expression struct {
	ContainerBase
	Kind_    Kind // one of the expression-container kinds below, or a leaf literal kind
	Inner    Node
	Resolved Slot[Accessible]
	Typed    Slot[typesys.Type]
}

func NewExpression(sp span.Span, path span.Path, innerKind Kind, inner Node) *Expression {
	e := &Expression{ContainerBase: newContainerBase(KindExpression, sp, path), Kind_: innerKind, Inner: inner}
	e.Children.Append(inner)
	return e
}

// EnumVariantLiteral is `.variantName` or `.variantName(args)`.
type EnumVariantLiteral struct {
	ContainerBase
	Name      *Identifier
	Arguments *ArgumentList // nil when bare
	Resolved  Slot[typesys.Reference]
}

func NewEnumVariantLiteral(sp span.Span, path span.Path, name *Identifier, args *ArgumentList) *EnumVariantLiteral {
	n := &EnumVariantLiteral{ContainerBase: newContainerBase(KindEnumVariantLiteral, sp, path), Name: name, Arguments: args}
	n.Children.Append(name)
	if args != nil {
		n.Children.Append(args)
	}
	return n
}

// RangeLiteral is `start..end` (open) or `start...end` (closed).
type RangeLiteral struct {
	ContainerBase
	Start  Node
	End    Node
	Closed bool
}

func NewRangeLiteral(sp span.Span, path span.Path, start, end Node, closed bool) *RangeLiteral {
	n := &RangeLiteral{ContainerBase: newContainerBase(KindRangeLiteral, sp, path), Start: start, End: end, Closed: closed}
	n.Children.Append(start)
	n.Children.Append(end)
	return n
}

// TupleLiteral is `(a, b, c)`.
type TupleLiteral struct {
	ContainerBase
	Elements []Node
}

func NewTupleLiteral(sp span.Span, path span.Path, elements []Node) *TupleLiteral {
	n := &TupleLiteral{ContainerBase: newContainerBase(KindTupleLiteral, sp, path), Elements: elements}
	for _, e := range elements {
		n.Children.Append(e)
	}
	return n
}

// ArrayLiteral is `[a, b, c]`.
type ArrayLiteral struct {
	ContainerBase
	Elements []Node
}

func NewArrayLiteral(sp span.Span, path span.Path, elements []Node) *ArrayLiteral {
	n := &ArrayLiteral{ContainerBase: newContainerBase(KindArrayLiteral, sp, path), Elements: elements}
	for _, e := range elements {
		n.Children.Append(e)
	}
	return n
}

// DictionaryEntry is one `key: value` pair inside a DictionaryLiteral.
type DictionaryEntry struct {
	ContainerBase
	Key   Node
	Value Node
}

func NewDictionaryEntry(sp span.Span, path span.Path, key, value Node) *DictionaryEntry {
	n := &DictionaryEntry{ContainerBase: newContainerBase(KindDictionaryEntry, sp, path), Key: key, Value: value}
	n.Children.Append(key)
	n.Children.Append(value)
	return n
}

// DictionaryLiteral is `{ key: value, ... }`.
type DictionaryLiteral struct {
	ContainerBase
	Entries []*DictionaryEntry
}

func NewDictionaryLiteral(sp span.Span, path span.Path, entries []*DictionaryEntry) *DictionaryLiteral {
	n := &DictionaryLiteral{ContainerBase: newContainerBase(KindDictionaryLiteral, sp, path), Entries: entries}
	for _, e := range entries {
		n.Children.Append(e)
	}
	return n
}

// Group is a parenthesized sub-expression kept only for round-trip
// formatting; it resolves to its inner expression's Accessible/Type.
type Group struct {
	ContainerBase
	Inner Node
}

func NewGroup(sp span.Span, path span.Path, inner Node) *Group {
	n := &Group{ContainerBase: newContainerBase(KindGroup, sp, path), Inner: inner}
	n.Children.Append(inner)
	return n
}

// UnaryOperation is a prefix operator applied to an operand, e.g. `-x`,
// `!x`.
type UnaryOperation struct {
	ContainerBase
	Operator UnaryOperator
	Operand  Node
}

func NewUnaryOperation(sp span.Span, path span.Path, op UnaryOperator, operand Node) *UnaryOperation {
	n := &UnaryOperation{ContainerBase: newContainerBase(KindUnaryOperation, sp, path), Operator: op, Operand: operand}
	n.Children.Append(operand)
	return n
}

// UnaryPostfixOperation is a postfix operator: the force-unwrap `!`
// (`x!`).
type UnaryPostfixOperation struct {
	ContainerBase
	Operand Node
}

func NewUnaryPostfixOperation(sp span.Span, path span.Path, operand Node) *UnaryPostfixOperation {
	n := &UnaryPostfixOperation{ContainerBase: newContainerBase(KindUnaryPostfixOperation, sp, path), Operand: operand}
	n.Children.Append(operand)
	return n
}

// BinaryOperation is an infix operator applied to two operands.
type BinaryOperation struct {
	ContainerBase
	Operator BinaryOperator
	Left     Node
	Right    Node
}

func NewBinaryOperation(sp span.Span, path span.Path, op BinaryOperator, left, right Node) *BinaryOperation {
	n := &BinaryOperation{ContainerBase: newContainerBase(KindBinaryOperation, sp, path), Operator: op, Left: left, Right: right}
	n.Children.Append(left)
	n.Children.Append(right)
	return n
}

// UnitStep is one `.identifier` or `.identifier(args)` step in a Unit
// chain.
type UnitStep struct {
	ContainerBase
	Name      *Identifier
	Arguments *ArgumentList // nil for a plain field/member access
}

func NewUnitStep(sp span.Span, path span.Path, name *Identifier, args *ArgumentList) *UnitStep {
	n := &UnitStep{ContainerBase: newContainerBase(KindUnitStep, sp, path), Name: name, Arguments: args}
	n.Children.Append(name)
	if args != nil {
		n.Children.Append(args)
	}
	return n
}

// Unit is an identifier followed by zero or more member-access steps,
// e.g. `self.posts.count()`.
type Unit struct {
	ContainerBase
	Base_ Node // the leading identifier/identifier-path/keyword expression
	Steps []*UnitStep
}

func NewUnit(sp span.Span, path span.Path, base Node, steps []*UnitStep) *Unit {
	n := &Unit{ContainerBase: newContainerBase(KindUnit, sp, path), Base_: base, Steps: steps}
	n.Children.Append(base)
	for _, s := range steps {
		n.Children.Append(s)
	}
	return n
}

// Subscript is `target[index]`.
type Subscript struct {
	ContainerBase
	Target Node
	Index  Node
}

func NewSubscript(sp span.Span, path span.Path, target, index Node) *Subscript {
	n := &Subscript{ContainerBase: newContainerBase(KindSubscript, sp, path), Target: target, Index: index}
	n.Children.Append(target)
	n.Children.Append(index)
	return n
}

// Argument is one `name: value` or bare `value` entry in an ArgumentList.
type Argument struct {
	ContainerBase
	Name  *Identifier // nil for a positional argument
	Value Node
}

func NewArgument(sp span.Span, path span.Path, name *Identifier, value Node) *Argument {
	n := &Argument{ContainerBase: newContainerBase(KindArgument, sp, path), Name: name, Value: value}
	if name != nil {
		n.Children.Append(name)
	}
	n.Children.Append(value)
	return n
}

// ArgumentList is the parenthesized `(...)` following a call-shaped
// construct: a decorator, a unit step, an enum variant literal.
type ArgumentList struct {
	ContainerBase
	Arguments []*Argument
}

func NewArgumentList(sp span.Span, path span.Path, args []*Argument) *ArgumentList {
	n := &ArgumentList{ContainerBase: newContainerBase(KindArgumentList, sp, path), Arguments: args}
	for _, a := range args {
		n.Children.Append(a)
	}
	return n
}

// Pipeline is a `|`-joined chain of `$` pipeline items, e.g.
// `$trim | $get.isNull()`.
// It resolves to Type(input, output), matching typesys.NewPipeline.
type Pipeline struct {
	ContainerBase
	Items []Node
}

func NewPipeline(sp span.Span, path span.Path, items []Node) *Pipeline {
	n := &Pipeline{ContainerBase: newContainerBase(KindPipeline, sp, path), Items: items}
	for _, it := range items {
		n.Children.Append(it)
	}
	return n
}
