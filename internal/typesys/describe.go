package typesys

import "strings"

// String renders a Type the way diagnostic messages display it:
// a bare name for scalars and references ("Int", "Perform"),
// a trailing `?` for Optional, `[]` for Array, and `<...>` for generic
// instantiations and synthesized-enum kinds ("SerializableScalarFields
// <Perform>"). It is display-only — Test/Equal never depend on it.
func (t Type) String() string {
	switch t.Tag {
	case Undetermined:
		return "Undetermined"
	case Ignored:
		return "Ignored"
	case Any:
		return "Any"
	case Null:
		return "Null"
	case Bool:
		return "Bool"
	case Int:
		return "Int"
	case Int64:
		return "Int64"
	case Float32:
		return "Float32"
	case Float:
		return "Float"
	case Decimal:
		return "Decimal"
	case String:
		return "String"
	case ObjectID:
		return "ObjectId"
	case Date:
		return "Date"
	case DateTime:
		return "DateTime"
	case File:
		return "File"
	case Regex:
		return "Regex"
	case Config:
		return "Config"
	case Model:
		return "Model"
	case Interface:
		return "Interface"
	case Struct:
		return "Struct"
	case Namespace:
		return "Namespace"
	case DataSet:
		return "DataSet"
	case Middleware:
		return "Middleware"
	case Function:
		return "Function"
	case ModelField:
		return "ModelField"
	case InterfaceField:
		return "InterfaceField"
	case StructStaticFunction:
		return "StructStaticFunction"
	case StructInstanceFunction:
		return "StructInstanceFunction"
	case Enum:
		if len(t.Ref.StringPath) > 0 {
			return lastSegment(t.Ref.StringPath.String())
		}
		return "Enum"
	case EnumVariant:
		return "EnumVariant(" + lastSegment(t.Ref.StringPath.String()) + ")"
	case GenericItem:
		return t.Name
	case FieldName:
		return "." + t.Name
	case KeywordType:
		return keywordName(t.Keyword)
	case Optional:
		return t.Elem.String() + "?"
	case Array:
		return t.Elem.String() + "[]"
	case Dictionary:
		return t.Elem.String() + "{}"
	case Enumerable:
		return "Enumerable<" + t.Elem.String() + ">"
	case Range:
		return "Range<" + t.Elem.String() + ">"
	case DataSetGroup:
		return "DataSetGroup<" + t.Elem.String() + ">"
	case Union:
		parts := make([]string, len(t.Elems))
		for i, m := range t.Elems {
			parts[i] = m.String()
		}
		return strings.Join(parts, " | ")
	case Tuple:
		parts := make([]string, len(t.Elems))
		for i, m := range t.Elems {
			parts[i] = m.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case FieldType:
		return t.A.String() + "." + t.B.String()
	case Pipeline:
		return "Pipeline<" + t.A.String() + ", " + t.B.String() + ">"
	case DataSetRecord:
		return "DataSetRecord<" + t.A.String() + ", " + t.B.String() + ">"
	case ModelObject:
		return lastSegment(t.Ref.StringPath.String())
	case InterfaceObject:
		return refWithGenerics(t.Ref, t.Generics)
	case StructObject:
		return refWithGenerics(t.Ref, t.Generics)
	case MiddlewareReference:
		return lastSegment(t.Ref.StringPath.String())
	case DecoratorReference:
		return lastSegment(t.Ref.StringPath.String())
	case PipelineItemReference:
		return lastSegment(t.Ref.StringPath.String())
	case NamespaceReference:
		return t.StringPathRef.String()
	case DataSetReference:
		return t.StringPathRef.String()
	case SynthesizedShapeT:
		if t.Shape != nil {
			return shapeKindName(t.Shape.Kind) + "<" + lastSegment(t.Shape.Owner.StringPath.String()) + ">"
		}
		return "Shape"
	case SynthesizedShapeReferenceT:
		if t.ShapeRef != nil {
			return shapeKindName(t.ShapeRef.Kind) + "<" + lastSegment(t.ShapeRef.Owner.StringPath.String()) + ">"
		}
		return "Shape"
	case SynthesizedEnumT:
		if t.SynthEnum != nil {
			return enumKindName(t.SynthEnum.Kind) + "<" + lastSegment(t.SynthEnum.Owner.StringPath.String()) + ">"
		}
		return "Enum"
	case SynthesizedEnumReferenceT, SynthesizedEnumVariantReferenceT:
		if t.SynthEnumRef != nil {
			return enumKindName(t.SynthEnumRef.Kind) + "<" + lastSegment(t.SynthEnumRef.Owner.StringPath.String()) + ">"
		}
		return "Enum"
	default:
		return "Undetermined"
	}
}

func lastSegment(dotted string) string {
	idx := strings.LastIndexByte(dotted, '.')
	if idx < 0 {
		return dotted
	}
	return dotted[idx+1:]
}

func refWithGenerics(ref Reference, generics []Type) string {
	name := lastSegment(ref.StringPath.String())
	if len(generics) == 0 {
		return name
	}
	parts := make([]string, len(generics))
	for i, g := range generics {
		parts[i] = g.String()
	}
	return name + "<" + strings.Join(parts, ", ") + ">"
}

func keywordName(k Keyword) string {
	switch k {
	case KeywordSelf:
		return "Self"
	default:
		return "Keyword"
	}
}

func shapeKindName(k ShapeKind) string {
	switch k {
	case ShapeWhereInput:
		return "WhereInput"
	case ShapeWhereUniqueInput:
		return "WhereUniqueInput"
	case ShapeScalarUpdateInput:
		return "ScalarUpdateInput"
	case ShapeCreateInput:
		return "CreateInput"
	case ShapeUpdateInput:
		return "UpdateInput"
	case ShapeOutput:
		return "Output"
	case ShapeCreateNestedOneInput:
		return "CreateNestedOneInput"
	case ShapeCreateNestedManyInput:
		return "CreateNestedManyInput"
	case ShapeUpdateNestedOneInput:
		return "UpdateNestedOneInput"
	case ShapeUpdateNestedManyInput:
		return "UpdateNestedManyInput"
	default:
		return "Shape"
	}
}

func enumKindName(k EnumKind) string {
	switch k {
	case EnumModelScalarFields:
		return "ScalarFields"
	case EnumModelSerializableScalarFields:
		return "SerializableScalarFields"
	case EnumModelRelations:
		return "Relations"
	case EnumModelDirectRelations:
		return "DirectRelations"
	case EnumModelIndirectRelations:
		return "IndirectRelations"
	default:
		return "Enum"
	}
}
