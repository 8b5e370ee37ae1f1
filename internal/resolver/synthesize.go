package resolver

import (
	"github.com/oxhq/schemalang/internal/ast"
	"github.com/oxhq/schemalang/internal/schema"
	"github.com/oxhq/schemalang/internal/typesys"
)

// SynthesizeShape computes (or returns the cached) projection a model
// produces for kind. Relation fields are detected by
// their resolved field type carrying a ModelObject, Optional<ModelObject>,
// or Enumerable/Array<ModelObject> shape; everything else is scalar.
func SynthesizeShape(c *Context, ref typesys.SynthesizedShapeReference) *typesys.SynthesizedShape {
	if cached, ok := c.CachedShape(ref); ok {
		return cached
	}
	model := findModel(c.Schema, ref.Owner)
	if model == nil {
		empty := &typesys.SynthesizedShape{Owner: ref.Owner, Kind: ref.Kind, Fields: map[string]typesys.Type{}}
		c.StoreShape(ref, empty)
		return empty
	}

	fields := map[string]typesys.Type{}
	for _, f := range model.Fields {
		typ, ok := f.Type_.Resolved.Get()
		if !ok {
			continue
		}
		isRelation, single := relationShape(typ)
		switch ref.Kind {
		case typesys.ShapeWhereInput:
			if !isRelation {
				fields[f.Name.Name] = typ.UnwrapOptional().WrapInOptional()
			}
		case typesys.ShapeWhereUniqueInput:
			if !isRelation && hasDecorator(f, "unique", "id") {
				fields[f.Name.Name] = typ.UnwrapOptional().WrapInOptional()
			}
		case typesys.ShapeScalarUpdateInput:
			if !isRelation {
				fields[f.Name.Name] = typ.UnwrapOptional().WrapInOptional()
			}
		case typesys.ShapeCreateInput:
			if isRelation {
				nested := typesys.ShapeCreateNestedOneInput
				if !single {
					nested = typesys.ShapeCreateNestedManyInput
				}
				fields[f.Name.Name] = typesys.NewSynthesizedShapeReference(typesys.SynthesizedShapeReference{Kind: nested, Owner: relationOwner(typ)}).WrapInOptional()
			} else if !hasDecorator(f, "default", "autoIncrement") {
				fields[f.Name.Name] = typ
			}
		case typesys.ShapeUpdateInput:
			if isRelation {
				nested := typesys.ShapeUpdateNestedOneInput
				if !single {
					nested = typesys.ShapeUpdateNestedManyInput
				}
				fields[f.Name.Name] = typesys.NewSynthesizedShapeReference(typesys.SynthesizedShapeReference{Kind: nested, Owner: relationOwner(typ)}).WrapInOptional()
			} else {
				fields[f.Name.Name] = typ.UnwrapOptional().WrapInOptional()
			}
		case typesys.ShapeOutput:
			fields[f.Name.Name] = typ
		case typesys.ShapeCreateNestedOneInput, typesys.ShapeUpdateNestedOneInput:
			// handled below, outside the per-field loop
		case typesys.ShapeCreateNestedManyInput, typesys.ShapeUpdateNestedManyInput:
			// handled below, outside the per-field loop
		}
	}

	switch ref.Kind {
	case typesys.ShapeCreateNestedOneInput:
		fields = map[string]typesys.Type{
			"create":  typesys.NewSynthesizedShapeReference(typesys.SynthesizedShapeReference{Kind: typesys.ShapeCreateInput, Owner: ref.Owner}).WrapInOptional(),
			"connect": typesys.NewSynthesizedShapeReference(typesys.SynthesizedShapeReference{Kind: typesys.ShapeWhereUniqueInput, Owner: ref.Owner}).WrapInOptional(),
		}
	case typesys.ShapeCreateNestedManyInput:
		fields = map[string]typesys.Type{
			"create":  typesys.NewArray(typesys.NewSynthesizedShapeReference(typesys.SynthesizedShapeReference{Kind: typesys.ShapeCreateInput, Owner: ref.Owner})).WrapInOptional(),
			"connect": typesys.NewArray(typesys.NewSynthesizedShapeReference(typesys.SynthesizedShapeReference{Kind: typesys.ShapeWhereUniqueInput, Owner: ref.Owner})).WrapInOptional(),
		}
	case typesys.ShapeUpdateNestedOneInput:
		fields = map[string]typesys.Type{
			"create":  typesys.NewSynthesizedShapeReference(typesys.SynthesizedShapeReference{Kind: typesys.ShapeCreateInput, Owner: ref.Owner}).WrapInOptional(),
			"connect": typesys.NewSynthesizedShapeReference(typesys.SynthesizedShapeReference{Kind: typesys.ShapeWhereUniqueInput, Owner: ref.Owner}).WrapInOptional(),
			"update":  typesys.NewSynthesizedShapeReference(typesys.SynthesizedShapeReference{Kind: typesys.ShapeScalarUpdateInput, Owner: ref.Owner}).WrapInOptional(),
			"disconnect": typesys.NewBool().WrapInOptional(),
		}
	case typesys.ShapeUpdateNestedManyInput:
		fields = map[string]typesys.Type{
			"create":  typesys.NewArray(typesys.NewSynthesizedShapeReference(typesys.SynthesizedShapeReference{Kind: typesys.ShapeCreateInput, Owner: ref.Owner})).WrapInOptional(),
			"connect": typesys.NewArray(typesys.NewSynthesizedShapeReference(typesys.SynthesizedShapeReference{Kind: typesys.ShapeWhereUniqueInput, Owner: ref.Owner})).WrapInOptional(),
			"update":  typesys.NewArray(typesys.NewSynthesizedShapeReference(typesys.SynthesizedShapeReference{Kind: typesys.ShapeScalarUpdateInput, Owner: ref.Owner})).WrapInOptional(),
			"disconnect": typesys.NewArray(typesys.NewSynthesizedShapeReference(typesys.SynthesizedShapeReference{Kind: typesys.ShapeWhereUniqueInput, Owner: ref.Owner})).WrapInOptional(),
		}
	}

	shape := &typesys.SynthesizedShape{Owner: ref.Owner, Kind: ref.Kind, Fields: fields}
	c.StoreShape(ref, shape)
	return shape
}

// SynthesizeEnum computes (or returns the cached) structural enum a model
// produces for kind. Direct relations are singular
// (owning) model-reference fields; indirect relations are the array/
// enumerable (reverse) side.
func SynthesizeEnum(c *Context, ref typesys.SynthesizedEnumReference) *typesys.SynthesizedEnum {
	if cached, ok := c.CachedEnum(ref); ok {
		return cached
	}
	model := findModel(c.Schema, ref.Owner)
	members := map[string]struct{}{}
	if model != nil {
		for _, f := range model.Fields {
			typ, ok := f.Type_.Resolved.Get()
			if !ok {
				continue
			}
			isRelation, single := relationShape(typ)
			switch ref.Kind {
			case typesys.EnumModelScalarFields:
				if !isRelation {
					members[f.Name.Name] = struct{}{}
				}
			case typesys.EnumModelSerializableScalarFields:
				if !isRelation && !hasDecorator(f, "omit", "hidden") {
					members[f.Name.Name] = struct{}{}
				}
			case typesys.EnumModelRelations:
				if isRelation {
					members[f.Name.Name] = struct{}{}
				}
			case typesys.EnumModelDirectRelations:
				if isRelation && single {
					members[f.Name.Name] = struct{}{}
				}
			case typesys.EnumModelIndirectRelations:
				if isRelation && !single {
					members[f.Name.Name] = struct{}{}
				}
			}
		}
	}
	e := &typesys.SynthesizedEnum{Owner: ref.Owner, Kind: ref.Kind, Members: members}
	c.StoreEnum(ref, e)
	return e
}

// relationShape reports whether typ addresses another model, and if so
// whether it is the singular ("direct", FK-owning) side as opposed to the
// array/enumerable ("indirect", reverse) side.
func relationShape(typ typesys.Type) (isRelation bool, single bool) {
	inner := typ.UnwrapOptional()
	switch {
	case inner.Is(typesys.ModelObject):
		return true, true
	case inner.Is(typesys.Array), inner.Is(typesys.Enumerable):
		return inner.Elem.UnwrapOptional().Is(typesys.ModelObject), false
	default:
		return false, false
	}
}

func relationOwner(typ typesys.Type) typesys.Reference {
	inner := typ.UnwrapOptional()
	if inner.Is(typesys.Array) || inner.Is(typesys.Enumerable) {
		inner = inner.Elem.UnwrapOptional()
	}
	return inner.Ref
}

func hasDecorator(f *ast.Field, names ...string) bool {
	for _, d := range f.Decorators {
		last := ""
		if len(d.NamePath.Names) > 0 {
			last = d.NamePath.Names[len(d.NamePath.Names)-1]
		}
		for _, n := range names {
			if last == n {
				return true
			}
		}
	}
	return false
}

func findModel(sc *schema.Schema, ref typesys.Reference) *ast.Model {
	src, ok := sc.Source(sourceIDOf(ref.Path))
	if !ok {
		return nil
	}
	node := findNodeByPath(src, ref.Path)
	if m, ok := node.(*ast.Model); ok {
		return m
	}
	return nil
}
