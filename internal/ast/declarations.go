package ast

import (
	"github.com/oxhq/schemalang/internal/span"
	"github.com/oxhq/schemalang/internal/typesys"
)

// Decorator is a single `@name(args)` or `@namespace.name(args)` applied
// to a declaration, field, or enum member.
type Decorator struct {
	ContainerBase
	NamePath  *IdentifierPath
	Arguments *ArgumentList // nil when the decorator takes no arguments
	Resolved  Slot[typesys.Reference]
}

func NewDecorator(sp span.Span, path span.Path, namePath *IdentifierPath, args *ArgumentList) *Decorator {
	n := &Decorator{ContainerBase: newContainerBase(KindDecorator, sp, path), NamePath: namePath, Arguments: args}
	n.Children.Append(namePath)
	if args != nil {
		n.Children.Append(args)
	}
	return n
}

// Import is a `import { a, b } from "./other.teo"` top-level statement.
type Import struct {
	ContainerBase
	AvailabilityInfo
	FromPath   string
	Identifiers []*Identifier
	// ResolvedSourceID is the schema-internal source id the FromPath
	// resolved to, written once by the indexing pass.
	ResolvedSourceID Slot[int]
}

func NewImport(sp span.Span, path span.Path, fromPath string, ids []*Identifier) *Import {
	n := &Import{ContainerBase: newContainerBase(KindImport, sp, path), FromPath: fromPath, Identifiers: ids}
	for _, id := range ids {
		n.Children.Append(id)
	}
	return n
}

// ConstantDeclaration is `const name: Type = expr`.
type ConstantDeclaration struct {
	ContainerBase
	Named
	AvailabilityInfo
	Type_   *TypeExpr
	Value   *Expression
	Comment *DocComment
}

func NewConstantDeclaration(sp span.Span, path span.Path, name *Identifier, stringPath span.StringPath, typ *TypeExpr, value *Expression, comment *DocComment) *ConstantDeclaration {
	n := &ConstantDeclaration{
		ContainerBase: newContainerBase(KindConstantDeclaration, sp, path),
		Named:         Named{StringPath: stringPath, Identifier: name},
		Type_:         typ,
		Value:         value,
		Comment:       comment,
	}
	if comment != nil {
		n.Children.Append(comment)
	}
	n.Children.Append(name)
	if typ != nil {
		n.Children.Append(typ)
	}
	n.Children.Append(value)
	return n
}

// GenericsConstraint is the `: Bound` part of a single generic parameter.
type GenericsConstraint struct {
	ContainerBase
	Name  *Identifier
	Bound *TypeExpr // nil when unconstrained
}

func NewGenericsConstraint(sp span.Span, path span.Path, name *Identifier, bound *TypeExpr) *GenericsConstraint {
	n := &GenericsConstraint{ContainerBase: newContainerBase(KindGenericsConstraint, sp, path), Name: name, Bound: bound}
	n.Children.Append(name)
	if bound != nil {
		n.Children.Append(bound)
	}
	return n
}

// GenericsDeclaration is the `<T, U: Bound>` clause following a model,
// interface, or struct name.
type GenericsDeclaration struct {
	ContainerBase
	Names       []*Identifier
	Constraints []*GenericsConstraint
}

func NewGenericsDeclaration(sp span.Span, path span.Path, names []*Identifier, constraints []*GenericsConstraint) *GenericsDeclaration {
	n := &GenericsDeclaration{ContainerBase: newContainerBase(KindGenericsDeclaration, sp, path), Names: names, Constraints: constraints}
	for _, nm := range names {
		n.Children.Append(nm)
	}
	for _, c := range constraints {
		n.Children.Append(c)
	}
	return n
}

// ArgumentDeclaration is one parameter in a decorator/pipeline-item/
// function/struct-method declaration's parameter list.
type ArgumentDeclaration struct {
	ContainerBase
	Name     *Identifier
	Type_    *TypeExpr
	Default  *Expression // nil when the argument is required
}

func NewArgumentDeclaration(sp span.Span, path span.Path, name *Identifier, typ *TypeExpr, def *Expression) *ArgumentDeclaration {
	n := &ArgumentDeclaration{ContainerBase: newContainerBase(KindArgumentDeclaration, sp, path), Name: name, Type_: typ, Default: def}
	n.Children.Append(name)
	if typ != nil {
		n.Children.Append(typ)
	}
	if def != nil {
		n.Children.Append(def)
	}
	return n
}

// Field is one member of a Model or Interface.
type Field struct {
	ContainerBase
	AvailabilityInfo
	Name       *Identifier
	Type_      *TypeExpr
	Decorators []*Decorator
	Comment    *DocComment // nil when undocumented
}

func NewField(sp span.Span, path span.Path, name *Identifier, typ *TypeExpr, decorators []*Decorator, comment *DocComment) *Field {
	n := &Field{ContainerBase: newContainerBase(KindField, sp, path), Name: name, Type_: typ, Decorators: decorators, Comment: comment}
	if comment != nil {
		n.Children.Append(comment)
	}
	n.Children.Append(name)
	n.Children.Append(typ)
	for _, d := range decorators {
		n.Children.Append(d)
	}
	return n
}

// Model is a `model Name { ... }` top-level declaration.
type Model struct {
	ContainerBase
	Named
	AvailabilityInfo
	Decorators []*Decorator
	Fields     []*Field
	Comment    *DocComment
}

func NewModel(sp span.Span, path span.Path, name *Identifier, stringPath span.StringPath, decorators []*Decorator, fields []*Field, comment *DocComment) *Model {
	n := &Model{
		ContainerBase: newContainerBase(KindModel, sp, path),
		Named:         Named{StringPath: stringPath, Identifier: name},
		Decorators:    decorators,
		Fields:        fields,
		Comment:       comment,
	}
	if comment != nil {
		n.Children.Append(comment)
	}
	n.Children.Append(name)
	for _, d := range decorators {
		n.Children.Append(d)
	}
	for _, f := range fields {
		n.Children.Append(f)
	}
	return n
}

// EnumMember is one `variantName` or `variantName(Type, Type)` case
// inside an Enum.
type EnumMember struct {
	ContainerBase
	Name       *Identifier
	ArgTypes   []*TypeExpr // empty for a bare variant
	Decorators []*Decorator
	Comment    *DocComment
}

func NewEnumMember(sp span.Span, path span.Path, name *Identifier, argTypes []*TypeExpr, decorators []*Decorator, comment *DocComment) *EnumMember {
	n := &EnumMember{ContainerBase: newContainerBase(KindEnumMember, sp, path), Name: name, ArgTypes: argTypes, Decorators: decorators, Comment: comment}
	if comment != nil {
		n.Children.Append(comment)
	}
	n.Children.Append(name)
	for _, t := range argTypes {
		n.Children.Append(t)
	}
	for _, d := range decorators {
		n.Children.Append(d)
	}
	return n
}

// Enum is an `enum Name { ... }` top-level declaration.
type Enum struct {
	ContainerBase
	Named
	AvailabilityInfo
	Decorators []*Decorator
	Members    []*EnumMember
	Comment    *DocComment
	// OptionStyle marks an `enum` declared with the `option` keyword
	// (`enum Name option { ... }`), whose members carry payload types
	// instead of plain values.
	OptionStyle bool
}

func NewEnum(sp span.Span, path span.Path, name *Identifier, stringPath span.StringPath, decorators []*Decorator, members []*EnumMember, comment *DocComment, optionStyle bool) *Enum {
	n := &Enum{
		ContainerBase: newContainerBase(KindEnum, sp, path),
		Named:         Named{StringPath: stringPath, Identifier: name},
		Decorators:    decorators,
		Members:       members,
		Comment:       comment,
		OptionStyle:   optionStyle,
	}
	if comment != nil {
		n.Children.Append(comment)
	}
	n.Children.Append(name)
	for _, d := range decorators {
		n.Children.Append(d)
	}
	for _, m := range members {
		n.Children.Append(m)
	}
	return n
}

// Interface is an `interface Name<Generics> { ... }` top-level
// declaration: a structural type made of Fields, with no storage
// semantics of its own.
type Interface struct {
	ContainerBase
	Named
	AvailabilityInfo
	Generics *GenericsDeclaration // nil when non-generic
	Extends  []*TypeExpr
	Fields   []*Field
	Comment  *DocComment
}

func NewInterface(sp span.Span, path span.Path, name *Identifier, stringPath span.StringPath, generics *GenericsDeclaration, extends []*TypeExpr, fields []*Field, comment *DocComment) *Interface {
	n := &Interface{
		ContainerBase: newContainerBase(KindInterface, sp, path),
		Named:         Named{StringPath: stringPath, Identifier: name},
		Generics:      generics,
		Extends:       extends,
		Fields:        fields,
		Comment:       comment,
	}
	if comment != nil {
		n.Children.Append(comment)
	}
	n.Children.Append(name)
	if generics != nil {
		n.Children.Append(generics)
	}
	for _, e := range extends {
		n.Children.Append(e)
	}
	for _, f := range fields {
		n.Children.Append(f)
	}
	return n
}

// ConfigItem is one `key: value` entry inside a Config block.
type ConfigItem struct {
	ContainerBase
	Name  *Identifier
	Value *Expression
}

func NewConfigItem(sp span.Span, path span.Path, name *Identifier, value *Expression) *ConfigItem {
	n := &ConfigItem{ContainerBase: newContainerBase(KindConfigItem, sp, path), Name: name, Value: value}
	n.Children.Append(name)
	n.Children.Append(value)
	return n
}

// Config is one named block (`server {}`, `connector {}`, ...) inside a
// ConfigDeclaration.
type Config struct {
	ContainerBase
	Keyword *Keyword
	Items   []*ConfigItem
}

func NewConfig(sp span.Span, path span.Path, keyword *Keyword, items []*ConfigItem) *Config {
	n := &Config{ContainerBase: newContainerBase(KindConfig, sp, path), Keyword: keyword, Items: items}
	n.Children.Append(keyword)
	for _, i := range items {
		n.Children.Append(i)
	}
	return n
}

// ConfigDeclaration is a `config name { server {...} connector {...} }`
// top-level declaration.
type ConfigDeclaration struct {
	ContainerBase
	Named
	AvailabilityInfo
	Configs []*Config
	Comment *DocComment
}

func NewConfigDeclaration(sp span.Span, path span.Path, name *Identifier, stringPath span.StringPath, configs []*Config, comment *DocComment) *ConfigDeclaration {
	n := &ConfigDeclaration{
		ContainerBase: newContainerBase(KindConfigDeclaration, sp, path),
		Named:         Named{StringPath: stringPath, Identifier: name},
		Configs:       configs,
		Comment:       comment,
	}
	if comment != nil {
		n.Children.Append(comment)
	}
	n.Children.Append(name)
	for _, c := range configs {
		n.Children.Append(c)
	}
	return n
}

// DataSetRecord is one `recordName { field: value, ... }` entry inside a
// DataSetGroup.
type DataSetRecord struct {
	ContainerBase
	Name    *Identifier
	Fields  []*ConfigItem // reuse name/value shape
	Comment *DocComment
}

func NewDataSetRecord(sp span.Span, path span.Path, name *Identifier, fields []*ConfigItem, comment *DocComment) *DataSetRecord {
	n := &DataSetRecord{ContainerBase: newContainerBase(KindDataSetRecord, sp, path), Name: name, Fields: fields, Comment: comment}
	if comment != nil {
		n.Children.Append(comment)
	}
	n.Children.Append(name)
	for _, f := range fields {
		n.Children.Append(f)
	}
	return n
}

// DataSetGroup is the `ModelName { record1 {...} record2 {...} }` block
// inside a DataSet, grouping fixture records by the model they seed.
type DataSetGroup struct {
	ContainerBase
	ModelPath *IdentifierPath
	Records   []*DataSetRecord
	Resolved  Slot[typesys.Reference]
}

func NewDataSetGroup(sp span.Span, path span.Path, modelPath *IdentifierPath, records []*DataSetRecord) *DataSetGroup {
	n := &DataSetGroup{ContainerBase: newContainerBase(KindDataSetGroup, sp, path), ModelPath: modelPath, Records: records}
	n.Children.Append(modelPath)
	for _, r := range records {
		n.Children.Append(r)
	}
	return n
}

// DataSet is a `dataset name { ModelName { ... } }` top-level
// declaration used to seed autotest/seed fixtures.
type DataSet struct {
	ContainerBase
	Named
	AvailabilityInfo
	AutoSeed bool
	Groups   []*DataSetGroup
	Comment  *DocComment
}

func NewDataSet(sp span.Span, path span.Path, name *Identifier, stringPath span.StringPath, autoSeed bool, groups []*DataSetGroup, comment *DocComment) *DataSet {
	n := &DataSet{
		ContainerBase: newContainerBase(KindDataSet, sp, path),
		Named:         Named{StringPath: stringPath, Identifier: name},
		AutoSeed:      autoSeed,
		Groups:        groups,
		Comment:       comment,
	}
	if comment != nil {
		n.Children.Append(comment)
	}
	n.Children.Append(name)
	for _, g := range groups {
		n.Children.Append(g)
	}
	return n
}

// DecoratorDeclaration is a `decorator name(args): Input -> Output`
// top-level declaration describing a decorator's own argument list and
// its optional callable variants.
type DecoratorDeclaration struct {
	ContainerBase
	Named
	AvailabilityInfo
	Arguments []*ArgumentDeclaration
	Variants  []*CallableVariant
	Comment   *DocComment
}

func NewDecoratorDeclaration(sp span.Span, path span.Path, name *Identifier, stringPath span.StringPath, args []*ArgumentDeclaration, variants []*CallableVariant, comment *DocComment) *DecoratorDeclaration {
	n := &DecoratorDeclaration{
		ContainerBase: newContainerBase(KindDecoratorDeclaration, sp, path),
		Named:         Named{StringPath: stringPath, Identifier: name},
		Arguments:     args,
		Variants:      variants,
		Comment:       comment,
	}
	if comment != nil {
		n.Children.Append(comment)
	}
	n.Children.Append(name)
	for _, a := range args {
		n.Children.Append(a)
	}
	return n
}

// CallableVariant is one overload signature shared by decorator/pipeline
// item/function declarations: a fixed input type plus an output type.
type CallableVariant struct {
	Input  *TypeExpr
	Output *TypeExpr
}

// PipelineItemDeclaration is a `pipelineitem name(args): Input -> Output`
// top-level declaration.
type PipelineItemDeclaration struct {
	ContainerBase
	Named
	AvailabilityInfo
	Arguments []*ArgumentDeclaration
	Variants  []*CallableVariant
	Comment   *DocComment
}

func NewPipelineItemDeclaration(sp span.Span, path span.Path, name *Identifier, stringPath span.StringPath, args []*ArgumentDeclaration, variants []*CallableVariant, comment *DocComment) *PipelineItemDeclaration {
	n := &PipelineItemDeclaration{
		ContainerBase: newContainerBase(KindPipelineItemDeclaration, sp, path),
		Named:         Named{StringPath: stringPath, Identifier: name},
		Arguments:     args,
		Variants:      variants,
		Comment:       comment,
	}
	if comment != nil {
		n.Children.Append(comment)
	}
	n.Children.Append(name)
	for _, a := range args {
		n.Children.Append(a)
	}
	return n
}

// MiddlewareDeclaration is a `middleware name(args) { ... }` top-level
// declaration used by handler groups.
type MiddlewareDeclaration struct {
	ContainerBase
	Named
	AvailabilityInfo
	Arguments []*ArgumentDeclaration
	Comment   *DocComment
}

func NewMiddlewareDeclaration(sp span.Span, path span.Path, name *Identifier, stringPath span.StringPath, args []*ArgumentDeclaration, comment *DocComment) *MiddlewareDeclaration {
	n := &MiddlewareDeclaration{
		ContainerBase: newContainerBase(KindMiddlewareDeclaration, sp, path),
		Named:         Named{StringPath: stringPath, Identifier: name},
		Arguments:     args,
		Comment:       comment,
	}
	if comment != nil {
		n.Children.Append(comment)
	}
	n.Children.Append(name)
	for _, a := range args {
		n.Children.Append(a)
	}
	return n
}

// FunctionDeclaration is a top-level or struct-member `function
// name(args): ReturnType`. Static (StructStaticFunction) vs instance
// (StructInstanceFunction) is distinguished by the IsStatic flag when
// owned by a StructDeclaration; top-level functions are always static.
type FunctionDeclaration struct {
	ContainerBase
	Named
	AvailabilityInfo
	Arguments  []*ArgumentDeclaration
	ReturnType *TypeExpr
	IsStatic   bool
	Comment    *DocComment
}

func NewFunctionDeclaration(sp span.Span, path span.Path, name *Identifier, stringPath span.StringPath, args []*ArgumentDeclaration, ret *TypeExpr, isStatic bool, comment *DocComment) *FunctionDeclaration {
	n := &FunctionDeclaration{
		ContainerBase: newContainerBase(KindFunctionDeclaration, sp, path),
		Named:         Named{StringPath: stringPath, Identifier: name},
		Arguments:     args,
		ReturnType:    ret,
		IsStatic:      isStatic,
		Comment:       comment,
	}
	if comment != nil {
		n.Children.Append(comment)
	}
	n.Children.Append(name)
	for _, a := range args {
		n.Children.Append(a)
	}
	if ret != nil {
		n.Children.Append(ret)
	}
	return n
}

// StructDeclaration is a `struct Name<Generics> { function ... }`
// top-level declaration grouping static/instance functions under a
// single synthesized type.
type StructDeclaration struct {
	ContainerBase
	Named
	AvailabilityInfo
	Generics  *GenericsDeclaration
	Functions []*FunctionDeclaration
	Comment   *DocComment
}

func NewStructDeclaration(sp span.Span, path span.Path, name *Identifier, stringPath span.StringPath, generics *GenericsDeclaration, functions []*FunctionDeclaration, comment *DocComment) *StructDeclaration {
	n := &StructDeclaration{
		ContainerBase: newContainerBase(KindStructDeclaration, sp, path),
		Named:         Named{StringPath: stringPath, Identifier: name},
		Generics:      generics,
		Functions:     functions,
		Comment:       comment,
	}
	if comment != nil {
		n.Children.Append(comment)
	}
	n.Children.Append(name)
	if generics != nil {
		n.Children.Append(generics)
	}
	for _, f := range functions {
		n.Children.Append(f)
	}
	return n
}

// HandlerDeclaration is one `handlerName(args): ReturnType` entry inside
// a HandlerGroupDeclaration.
type HandlerDeclaration struct {
	ContainerBase
	Named
	Arguments  []*ArgumentDeclaration
	ReturnType *TypeExpr
	Decorators []*Decorator
	Comment    *DocComment
}

func NewHandlerDeclaration(sp span.Span, path span.Path, name *Identifier, stringPath span.StringPath, args []*ArgumentDeclaration, ret *TypeExpr, decorators []*Decorator, comment *DocComment) *HandlerDeclaration {
	n := &HandlerDeclaration{
		ContainerBase: newContainerBase(KindHandlerDeclaration, sp, path),
		Named:         Named{StringPath: stringPath, Identifier: name},
		Arguments:     args,
		ReturnType:    ret,
		Decorators:    decorators,
		Comment:       comment,
	}
	if comment != nil {
		n.Children.Append(comment)
	}
	n.Children.Append(name)
	for _, a := range args {
		n.Children.Append(a)
	}
	if ret != nil {
		n.Children.Append(ret)
	}
	for _, d := range decorators {
		n.Children.Append(d)
	}
	return n
}

// HandlerGroupDeclaration is a `handlerGroup name { handler1() ... }`
// top-level declaration, the schema's HTTP surface.
type HandlerGroupDeclaration struct {
	ContainerBase
	Named
	AvailabilityInfo
	Middlewares []*IdentifierPath
	Handlers    []*HandlerDeclaration
	Comment     *DocComment
}

func NewHandlerGroupDeclaration(sp span.Span, path span.Path, name *Identifier, stringPath span.StringPath, middlewares []*IdentifierPath, handlers []*HandlerDeclaration, comment *DocComment) *HandlerGroupDeclaration {
	n := &HandlerGroupDeclaration{
		ContainerBase: newContainerBase(KindHandlerGroupDeclaration, sp, path),
		Named:         Named{StringPath: stringPath, Identifier: name},
		Middlewares:   middlewares,
		Handlers:      handlers,
		Comment:       comment,
	}
	if comment != nil {
		n.Children.Append(comment)
	}
	n.Children.Append(name)
	for _, m := range middlewares {
		n.Children.Append(m)
	}
	for _, h := range handlers {
		n.Children.Append(h)
	}
	return n
}

// Namespace is a `namespace name { ... }` top-level declaration grouping
// any number of nested top-level declarations, including nested
// namespaces.
type Namespace struct {
	ContainerBase
	Named
	AvailabilityInfo
	Tops    []Node
	Comment *DocComment
}

func NewNamespace(sp span.Span, path span.Path, name *Identifier, stringPath span.StringPath, tops []Node, comment *DocComment) *Namespace {
	n := &Namespace{
		ContainerBase: newContainerBase(KindNamespace, sp, path),
		Named:         Named{StringPath: stringPath, Identifier: name},
		Tops:          tops,
		Comment:       comment,
	}
	if comment != nil {
		n.Children.Append(comment)
	}
	n.Children.Append(name)
	for _, t := range tops {
		n.Children.Append(t)
	}
	return n
}

// Source is the root container for one parsed file: an id-addressed,
// ordered set of top-level declarations plus the file's own import
// table. A Schema owns many Sources; a Source owns its Tops.
type Source struct {
	ContainerBase
	ID      int
	Path    string
	Tops    []Node
	Imports []*Import
}

func NewSource(sp span.Span, id int, path string, tops []Node, imports []*Import) *Source {
	n := &Source{
		ContainerBase: newContainerBase(KindSource, sp, span.Path{id}),
		ID:            id,
		Path:          path,
		Tops:          tops,
		Imports:       imports,
	}
	for _, imp := range imports {
		n.Children.Append(imp)
	}
	for _, t := range tops {
		n.Children.Append(t)
	}
	return n
}
