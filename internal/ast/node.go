// Package ast implements the closed Node sum: leaf nodes (identifiers, literals, punctuation, keyword tokens, doc
// comments, availability flags) carry only a span and path; container
// nodes additionally own an ordered map of children plus typed selector
// fields for semantic access. Named container nodes carry a StringPath;
// availability-bearing nodes carry DefineAvailability/ActualAvailability.
package ast

import (
	"github.com/oxhq/schemalang/internal/availability"
	"github.com/oxhq/schemalang/internal/span"
)

// Kind tags every concrete node type in the closed Node sum.
type Kind int

const (
	KindInvalid Kind = iota

	// leaves
	KindIdentifier
	KindIdentifierPath
	KindPunctuation
	KindKeyword
	KindDocComment
	KindAvailabilityFlagStart
	KindAvailabilityFlagEnd
	KindNumericLiteral
	KindStringLiteral
	KindBoolLiteral
	KindNullLiteral
	KindRegExpLiteral

	// expression containers
	KindEnumVariantLiteral
	KindRangeLiteral
	KindTupleLiteral
	KindArrayLiteral
	KindDictionaryLiteral
	KindDictionaryEntry
	KindGroup
	KindUnaryOperation
	KindUnaryPostfixOperation
	KindBinaryOperation
	KindUnit
	KindUnitStep
	KindSubscript
	KindArgumentList
	KindArgument
	KindPipeline
	KindExpression

	// type-expr containers
	KindTypeItem
	KindTypeGroup
	KindTypeTuple
	KindTypeSubscript
	KindTypedShape
	KindTypedShapeField
	KindTypedEnum
	KindFieldNameReference
	KindTypeExpr

	// declarations / top-levels
	KindImport
	KindConstantDeclaration
	KindNamespace
	KindModel
	KindField
	KindEnum
	KindEnumMember
	KindInterface
	KindGenericsDeclaration
	KindGenericsConstraint
	KindConfigDeclaration
	KindConfig
	KindConfigItem
	KindDataSet
	KindDataSetGroup
	KindDataSetRecord
	KindDecorator
	KindDecoratorDeclaration
	KindPipelineItemDeclaration
	KindMiddlewareDeclaration
	KindStructDeclaration
	KindFunctionDeclaration
	KindArgumentDeclaration
	KindHandlerGroupDeclaration
	KindHandlerDeclaration

	KindSource
)

// Node is the interface implemented by every element of the AST.
type Node interface {
	Kind() Kind
	Span() span.Span
	Path() span.Path
}

// Base is embedded by every leaf node.
type Base struct {
	NodeKind Kind
	NodeSpan span.Span
	NodePath span.Path
}

func (b *Base) Kind() Kind        { return b.NodeKind }
func (b *Base) Span() span.Span   { return b.NodeSpan }
func (b *Base) Path() span.Path   { return b.NodePath }
func (b *Base) SetSpan(s span.Span) { b.NodeSpan = s }

// AvailabilityInfo is embedded by every availability-bearing node.
// DefineAvailability is written once at parse time;
// ActualAvailability is a single-assignment slot written by the resolver.
type AvailabilityInfo struct {
	DefineAvailability availability.Availability
	actualSet          bool
	actualAvailability availability.Availability
}

// SetActualAvailability writes the resolver-computed availability. It is a
// single-assignment slot: subsequent writes are ignored.
func (a *AvailabilityInfo) SetActualAvailability(v availability.Availability) {
	if a.actualSet {
		return
	}
	a.actualAvailability = v
	a.actualSet = true
}

// ActualAvailability returns the resolved availability, or
// availability.None plus false if the resolver has not yet run.
func (a *AvailabilityInfo) ActualAvailability() (availability.Availability, bool) {
	return a.actualAvailability, a.actualSet
}

// ChildID is the key type for a container's ordered child map.
type ChildID int

// ChildSet is an ordered map from child id to child node: insertion
// order is preserved (for round-trip formatting) while also supporting
// O(1) lookup by id.
type ChildSet struct {
	order []ChildID
	byID  map[ChildID]Node
}

// NewChildSet returns an empty, ready-to-use ChildSet.
func NewChildSet() *ChildSet {
	return &ChildSet{byID: make(map[ChildID]Node)}
}

// Append inserts a child under the next sequential id and returns that id.
func (c *ChildSet) Append(n Node) ChildID {
	id := ChildID(len(c.order))
	c.order = append(c.order, id)
	c.byID[id] = n
	return id
}

// Get looks up a child by id.
func (c *ChildSet) Get(id ChildID) (Node, bool) {
	n, ok := c.byID[id]
	return n, ok
}

// InOrder returns every child in lexical/insertion order, for the
// formatter and for round-trip reconstruction.
func (c *ChildSet) InOrder() []Node {
	out := make([]Node, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Len reports the number of children.
func (c *ChildSet) Len() int { return len(c.order) }

// ContainerBase is embedded by every container node: it adds the ordered
// child map on top of Base.
type ContainerBase struct {
	Base
	Children *ChildSet
}

func newContainerBase(kind Kind, sp span.Span, path span.Path) ContainerBase {
	return ContainerBase{
		Base:     Base{NodeKind: kind, NodeSpan: sp, NodePath: path},
		Children: NewChildSet(),
	}
}

// ChildNodes returns the container's children in insertion order, letting
// generic tree walkers (language services, the formatter) descend without
// a type switch over every container kind.
func (c ContainerBase) ChildNodes() []Node { return c.Children.InOrder() }

// WithChildren is implemented by every container node.
type WithChildren interface {
	Node
	ChildNodes() []Node
}

// Named is embedded by container nodes with a fully-qualified name
// (models, enums, namespaces, interfaces, data sets, middlewares, structs,
// config declarations, functions, constants, ...).
type Named struct {
	StringPath span.StringPath
	Identifier *Identifier
}
