package ast

import (
	"github.com/oxhq/schemalang/internal/span"
	"github.com/oxhq/schemalang/internal/typesys"
)

// TypeItem is a single named type reference with optional generics and a
// trailing `?`/`[]` arity, e.g. `Optional<String>`, `Array<User>`.
type TypeItem struct {
	ContainerBase
	Name      *IdentifierPath
	Generics  []Node // each a TypeExpr
	Arity     ArityMark
	Resolved  Slot[typesys.Type]
}

// ArityMark records the postfix markers a type expression attaches to a
// type item: none, optional (`?`), or array (`[]`); both can stack as
// `Type[]?`.
type ArityMark struct {
	Optional bool
	Array    bool
}

func NewTypeItem(sp span.Span, path span.Path, name *IdentifierPath, generics []Node, arity ArityMark) *TypeItem {
	n := &TypeItem{ContainerBase: newContainerBase(KindTypeItem, sp, path), Name: name, Generics: generics, Arity: arity}
	n.Children.Append(name)
	for _, g := range generics {
		n.Children.Append(g)
	}
	return n
}

// TypeGroup is a parenthesized type expression, kept for round-trip
// formatting only.
type TypeGroup struct {
	ContainerBase
	Inner Node
}

func NewTypeGroup(sp span.Span, path span.Path, inner Node) *TypeGroup {
	n := &TypeGroup{ContainerBase: newContainerBase(KindTypeGroup, sp, path), Inner: inner}
	n.Children.Append(inner)
	return n
}

// TypeTuple is `(T1, T2, T3)` in type position.
type TypeTuple struct {
	ContainerBase
	Elements []Node
	Resolved Slot[typesys.Type]
}

func NewTypeTuple(sp span.Span, path span.Path, elements []Node) *TypeTuple {
	n := &TypeTuple{ContainerBase: newContainerBase(KindTypeTuple, sp, path), Elements: elements}
	for _, e := range elements {
		n.Children.Append(e)
	}
	return n
}

// TypeSubscript is `Container[Index]`, used for field-name-indexed shape
// access (e.g. `ScalarFields[User]`).
type TypeSubscript struct {
	ContainerBase
	Target Node
	Index  Node
	Resolved Slot[typesys.Type]
}

func NewTypeSubscript(sp span.Span, path span.Path, target, index Node) *TypeSubscript {
	n := &TypeSubscript{ContainerBase: newContainerBase(KindTypeSubscript, sp, path), Target: target, Index: index}
	n.Children.Append(target)
	n.Children.Append(index)
	return n
}

// TypedShapeField is one `name: Type` entry inside an anonymous typed
// shape literal.
type TypedShapeField struct {
	ContainerBase
	Name *Identifier
	Type Node
}

func NewTypedShapeField(sp span.Span, path span.Path, name *Identifier, typ Node) *TypedShapeField {
	n := &TypedShapeField{ContainerBase: newContainerBase(KindTypedShapeField, sp, path), Name: name, Type: typ}
	n.Children.Append(name)
	n.Children.Append(typ)
	return n
}

// TypedShape is an anonymous `{ name: Type, ... }` structural type
// literal.
type TypedShape struct {
	ContainerBase
	Fields   []*TypedShapeField
	Resolved Slot[typesys.Type]
}

func NewTypedShape(sp span.Span, path span.Path, fields []*TypedShapeField) *TypedShape {
	n := &TypedShape{ContainerBase: newContainerBase(KindTypedShape, sp, path), Fields: fields}
	for _, f := range fields {
		n.Children.Append(f)
	}
	return n
}

// TypedEnum is an anonymous `.a | .b | .c` inline enum-variant union used
// in type position.
type TypedEnum struct {
	ContainerBase
	Variants []*Identifier
	Resolved Slot[typesys.Type]
}

func NewTypedEnum(sp span.Span, path span.Path, variants []*Identifier) *TypedEnum {
	n := &TypedEnum{ContainerBase: newContainerBase(KindTypedEnum, sp, path), Variants: variants}
	for _, v := range variants {
		n.Children.Append(v)
	}
	return n
}

// FieldNameReference is a bare `.fieldName` used in type position to name
// a field rather than select an enum variant.
type FieldNameReference struct {
	ContainerBase
	Name *Identifier
}

func NewFieldNameReference(sp span.Span, path span.Path, name *Identifier) *FieldNameReference {
	n := &FieldNameReference{ContainerBase: newContainerBase(KindFieldNameReference, sp, path), Name: name}
	n.Children.Append(name)
	return n
}

// TypeExpr is the container every type-position grammar production
// resolves into, mirroring Expression on the value side. Union types are
// represented as a TypeExpr whose Members has length > 1, joined by `|`
// tokens kept in Children for formatting.
type TypeExpr struct {
	ContainerBase
	Members  []Node // one or more of TypeItem/TypeGroup/TypeTuple/TypeSubscript/TypedShape/TypedEnum/FieldNameReference
	Resolved Slot[typesys.Type]
}

func NewTypeExpr(sp span.Span, path span.Path, members []Node) *TypeExpr {
	n := &TypeExpr{ContainerBase: newContainerBase(KindTypeExpr, sp, path), Members: members}
	for _, m := range members {
		n.Children.Append(m)
	}
	return n
}
