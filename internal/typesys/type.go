// Package typesys implements the Type algebra: a closed sum of scalar,
// parameterized, placeholder,
// schema-tied reference, and synthesized type forms, with the pure
// operations the resolver needs (test, substitution, flattening, and the
// "expect" family used to disambiguate literal contexts).
//
// Type is represented as a single tagged struct rather than one Go type
// per variant: with ~50 variants and heavy structural recursion (Array,
// Optional, Union, Tuple, ...), a flat struct keeps every recursive
// operation a single exhaustive switch instead of forty interface method
// implementations, at the cost of a few unused fields per value.
package typesys

import (
	"strconv"

	"github.com/oxhq/schemalang/internal/span"
)

// Tag identifies which variant of the Type sum a value holds.
type Tag int

const (
	Undetermined Tag = iota
	Ignored
	Any

	Union
	Enumerable
	Optional
	FieldType
	FieldName
	GenericItem
	KeywordType

	Null
	Bool
	Int
	Int64
	Float32
	Float
	Decimal
	String
	ObjectID
	Date
	DateTime
	File
	Regex

	Array
	Dictionary
	Tuple
	Range

	SynthesizedShapeT
	SynthesizedShapeReferenceT
	Enum
	EnumVariant
	SynthesizedEnumT
	SynthesizedEnumReferenceT
	SynthesizedEnumVariantReferenceT

	Config
	Model
	ModelField
	ModelObject
	Interface
	InterfaceField
	InterfaceObject
	Struct
	StructObject
	StructStaticFunction
	StructInstanceFunction
	Function
	Middleware
	MiddlewareReference
	DataSet
	DataSetReference
	DataSetGroup
	DataSetRecord
	Namespace
	NamespaceReference
	Pipeline
	DecoratorReference
	PipelineItemReference
)

// Keyword is the closed set of contextual placeholders substituted via
// ReplaceKeywords.
type Keyword int

const (
	KeywordSelf Keyword = iota
)

// Reference addresses a schema declaration by its stable node path and
// fully-qualified string path, used by every "object"/"reference" Type
// variant (ModelObject, EnumVariant, MiddlewareReference, ...).
type Reference struct {
	Path       span.Path
	StringPath span.StringPath
}

// Equal reports whether two references address the same declaration.
func (r Reference) Equal(other Reference) bool {
	return r.Path.Equal(other.Path)
}

// ShapeKind is the closed set of synthesized-shape projections a model
// produces: ScalarUpdateInput, WhereInput, etc.
type ShapeKind int

const (
	ShapeWhereInput ShapeKind = iota
	ShapeWhereUniqueInput
	ShapeScalarUpdateInput
	ShapeCreateInput
	ShapeUpdateInput
	ShapeOutput
	ShapeCreateNestedOneInput
	ShapeCreateNestedManyInput
	ShapeUpdateNestedOneInput
	ShapeUpdateNestedManyInput
)

// EnumKind is the closed set of synthesized enums a model produces.
type EnumKind int

const (
	EnumModelScalarFields EnumKind = iota
	EnumModelSerializableScalarFields
	EnumModelRelations
	EnumModelDirectRelations
	EnumModelIndirectRelations
)

// SynthesizedShape is a structural record type derived from a model: an
// unordered map of field name to field Type. No field ordering is
// guaranteed; consumers must not depend on one.
type SynthesizedShape struct {
	Owner  Reference
	Kind   ShapeKind
	Fields map[string]Type
	// GenericNames lists any generic parameter names the shape still
	// carries unsubstituted; ContainsGenerics reports len(GenericNames) > 0.
	GenericNames []string
}

// SynthesizedShapeReference points at a not-yet-materialized shape,
// keyed by (kind, owner).
type SynthesizedShapeReference struct {
	Kind  ShapeKind
	Owner Reference
}

// Equal reports whether two shape references address the same
// (kind, owner) pair.
func (r SynthesizedShapeReference) Equal(other SynthesizedShapeReference) bool {
	return r.Kind == other.Kind && r.Owner.Equal(other.Owner)
}

// Key renders the reference as a cache-map key.
func (r SynthesizedShapeReference) Key() string {
	return "s" + strconv.Itoa(int(r.Kind)) + ":" + r.Owner.StringPath.String()
}

// SynthesizedEnum is a structural enum derived from a model, e.g. its
// scalar field names.
type SynthesizedEnum struct {
	Owner   Reference
	Kind    EnumKind
	Members map[string]struct{}
}

// SynthesizedEnumReference points at a not-yet-materialized synthesized
// enum, keyed by (kind, owner).
type SynthesizedEnumReference struct {
	Kind  EnumKind
	Owner Reference
}

// Equal reports whether two enum references address the same
// (kind, owner) pair.
func (r SynthesizedEnumReference) Equal(other SynthesizedEnumReference) bool {
	return r.Kind == other.Kind && r.Owner.Equal(other.Owner)
}

// Key renders the reference as a cache-map key.
func (r SynthesizedEnumReference) Key() string {
	return "e" + strconv.Itoa(int(r.Kind)) + ":" + r.Owner.StringPath.String()
}

// Type is a value of the closed Type sum.
type Type struct {
	Tag Tag

	// Single-child recursive forms: Enumerable, Optional, Array,
	// Dictionary, Range, DataSetGroup.
	Elem *Type

	// Two-child recursive forms: FieldType(A,B), Pipeline(A,B) = (input,
	// output), DataSetRecord(A,B) = (key, value).
	A *Type
	B *Type

	// Variadic recursive forms: Union, Tuple.
	Elems []Type

	// Named placeholders: FieldName(Name), GenericItem(Name).
	Name string

	// Contextual placeholder: Keyword(Keyword).
	Keyword Keyword

	// Schema-tied object/reference forms.
	Ref Reference

	// Generic arguments for InterfaceObject/StructObject.
	Generics []Type

	// Namespace/DataSet reference paths (dotted declaration names, not
	// node paths, since these may be forward references).
	StringPathRef span.StringPath

	Shape            *SynthesizedShape
	ShapeRef         *SynthesizedShapeReference
	SynthEnum        *SynthesizedEnum
	SynthEnumRef     *SynthesizedEnumReference
}

// Simple constructors for the zero-payload variants, used pervasively by
// the resolver and tests.
func NewUndetermined() Type { return Type{Tag: Undetermined} }
func NewIgnored() Type      { return Type{Tag: Ignored} }
func NewAny() Type          { return Type{Tag: Any} }
func NewNull() Type         { return Type{Tag: Null} }
func NewBool() Type         { return Type{Tag: Bool} }
func NewInt() Type          { return Type{Tag: Int} }
func NewInt64() Type        { return Type{Tag: Int64} }
func NewFloat32() Type      { return Type{Tag: Float32} }
func NewFloat() Type        { return Type{Tag: Float} }
func NewDecimal() Type      { return Type{Tag: Decimal} }
func NewString() Type       { return Type{Tag: String} }
func NewObjectID() Type     { return Type{Tag: ObjectID} }
func NewDate() Type         { return Type{Tag: Date} }
func NewDateTime() Type     { return Type{Tag: DateTime} }
func NewFile() Type         { return Type{Tag: File} }
func NewRegex() Type        { return Type{Tag: Regex} }
func NewEnum() Type         { return Type{Tag: Enum} }

// NewEnumReference is the concrete sibling of NewEnum: a field or
// argument typed as a specific user-declared enum (as opposed to the
// bare Enum tag used for generic constraints like `<T: Enum>`). Test
// still only checks the tag — enum-identity equality is done by the
// resolver comparing Ref directly, not via Test — so this exists for
// callers that need to carry the reference
// through without widening the Type algebra with a separate EnumObject
// variant.
func NewEnumReference(ref Reference) Type { return Type{Tag: Enum, Ref: ref} }
func NewModel() Type        { return Type{Tag: Model} }
func NewInterface() Type    { return Type{Tag: Interface} }
func NewStruct() Type       { return Type{Tag: Struct} }
func NewConfig() Type       { return Type{Tag: Config} }
func NewNamespace() Type    { return Type{Tag: Namespace} }
func NewDataSet() Type      { return Type{Tag: DataSet} }
func NewMiddleware() Type   { return Type{Tag: Middleware} }
func NewFunction() Type     { return Type{Tag: Function} }
func NewModelField() Type     { return Type{Tag: ModelField} }
func NewInterfaceField() Type { return Type{Tag: InterfaceField} }
func NewStructStaticFunction() Type   { return Type{Tag: StructStaticFunction} }
func NewStructInstanceFunction() Type { return Type{Tag: StructInstanceFunction} }

func NewUnion(types []Type) Type      { return Type{Tag: Union, Elems: types} }
func NewEnumerable(inner Type) Type   { return Type{Tag: Enumerable, Elem: &inner} }
func NewOptional(inner Type) Type     { return Type{Tag: Optional, Elem: &inner} }
func NewArray(inner Type) Type        { return Type{Tag: Array, Elem: &inner} }
func NewDictionary(inner Type) Type   { return Type{Tag: Dictionary, Elem: &inner} }
func NewRange(inner Type) Type        { return Type{Tag: Range, Elem: &inner} }
func NewDataSetGroup(inner Type) Type { return Type{Tag: DataSetGroup, Elem: &inner} }
func NewTuple(types []Type) Type      { return Type{Tag: Tuple, Elems: types} }
func NewFieldType(container, field Type) Type {
	return Type{Tag: FieldType, A: &container, B: &field}
}
func NewFieldName(name string) Type     { return Type{Tag: FieldName, Name: name} }
func NewGenericItem(name string) Type   { return Type{Tag: GenericItem, Name: name} }
func NewKeyword(k Keyword) Type         { return Type{Tag: KeywordType, Keyword: k} }
func NewPipeline(input, output Type) Type {
	return Type{Tag: Pipeline, A: &input, B: &output}
}
func NewDataSetRecord(key, value Type) Type {
	return Type{Tag: DataSetRecord, A: &key, B: &value}
}
func NewEnumVariant(ref Reference) Type           { return Type{Tag: EnumVariant, Ref: ref} }
func NewModelObject(ref Reference) Type           { return Type{Tag: ModelObject, Ref: ref} }
func NewInterfaceObject(ref Reference, generics []Type) Type {
	return Type{Tag: InterfaceObject, Ref: ref, Generics: generics}
}
func NewStructObject(ref Reference, generics []Type) Type {
	return Type{Tag: StructObject, Ref: ref, Generics: generics}
}
func NewMiddlewareReference(ref Reference) Type      { return Type{Tag: MiddlewareReference, Ref: ref} }
func NewDecoratorReference(ref Reference) Type       { return Type{Tag: DecoratorReference, Ref: ref} }
func NewPipelineItemReference(ref Reference) Type    { return Type{Tag: PipelineItemReference, Ref: ref} }
func NewNamespaceReference(path span.StringPath) Type {
	return Type{Tag: NamespaceReference, StringPathRef: path}
}
func NewDataSetReference(path span.StringPath) Type {
	return Type{Tag: DataSetReference, StringPathRef: path}
}
func NewSynthesizedShape(s SynthesizedShape) Type { return Type{Tag: SynthesizedShapeT, Shape: &s} }
func NewSynthesizedShapeReference(r SynthesizedShapeReference) Type {
	return Type{Tag: SynthesizedShapeReferenceT, ShapeRef: &r}
}
func NewSynthesizedEnum(e SynthesizedEnum) Type { return Type{Tag: SynthesizedEnumT, SynthEnum: &e} }
func NewSynthesizedEnumReference(r SynthesizedEnumReference) Type {
	return Type{Tag: SynthesizedEnumReferenceT, SynthEnumRef: &r}
}
func NewSynthesizedEnumVariantReference(r SynthesizedEnumReference) Type {
	return Type{Tag: SynthesizedEnumVariantReferenceT, SynthEnumRef: &r}
}

// Is reports whether t has the given tag.
func (t Type) Is(tag Tag) bool { return t.Tag == tag }

func (t Type) IsOptional() bool   { return t.Tag == Optional }
func (t Type) IsEnumerable() bool { return t.Tag == Enumerable }
func (t Type) IsArray() bool      { return t.Tag == Array }
func (t Type) IsUnion() bool      { return t.Tag == Union }
func (t Type) IsModel() bool      { return t.Tag == Model }
func (t Type) IsModelObject() bool { return t.Tag == ModelObject }
func (t Type) IsEnumVariant() bool { return t.Tag == EnumVariant }
func (t Type) IsSynthesizedEnum() bool               { return t.Tag == SynthesizedEnumT }
func (t Type) IsSynthesizedEnumVariantReference() bool { return t.Tag == SynthesizedEnumVariantReferenceT }
