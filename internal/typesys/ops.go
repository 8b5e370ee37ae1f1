package typesys

// Test reports whether other satisfies self, i.e. "self accepts
// other", variant by variant, with a few deliberate relaxations: Union
// distributes as any-of, Optional<T> accepts T or Optional<T>,
// Enumerable<T> accepts T or Array<T>, Model/Enum/Namespace/Middleware
// also accept their "reference" forms, and GenericItem accepts anything.
func (t Type) Test(other Type) bool {
	switch t.Tag {
	case Undetermined:
		return false
	case Ignored, Any, GenericItem:
		return true
	case Union:
		for _, member := range t.Elems {
			if member.Test(other) {
				return true
			}
		}
		return false
	case Enumerable:
		if t.Elem.Test(other) {
			return true
		}
		return NewArray(*t.Elem).Test(other)
	case Optional:
		if t.Elem.Test(other) {
			return true
		}
		if other.Tag == Optional {
			return t.Elem.Test(*other.Elem)
		}
		return false
	case FieldType:
		return other.Tag == FieldType && t.A.Test(*other.A) && t.B.Test(*other.B)
	case FieldName:
		return other.Tag == FieldName && other.Name == t.Name
	case KeywordType:
		return other.Tag == KeywordType && other.Keyword == t.Keyword
	case Null:
		return other.Tag == Null
	case Bool:
		return other.Tag == Bool
	case Int:
		return other.Tag == Int
	case Int64:
		return other.Tag == Int64
	case Float32:
		return other.Tag == Float32
	case Float:
		return other.Tag == Float
	case Decimal:
		return other.Tag == Decimal
	case String:
		return other.Tag == String
	case ObjectID:
		return other.Tag == ObjectID
	case Date:
		return other.Tag == Date
	case DateTime:
		return other.Tag == DateTime
	case File:
		return other.Tag == File
	case Regex:
		return other.Tag == Regex
	case Array:
		return other.Tag == Array && t.Elem.Test(*other.Elem)
	case Dictionary:
		return other.Tag == Dictionary && t.Elem.Test(*other.Elem)
	case Tuple:
		if other.Tag != Tuple || len(other.Elems) != len(t.Elems) {
			return false
		}
		for i, member := range t.Elems {
			if !member.Test(other.Elems[i]) {
				return false
			}
		}
		return true
	case Range:
		return other.Tag == Range && t.Elem.Test(*other.Elem)
	case SynthesizedShapeT:
		return other.Tag == SynthesizedShapeT && t.Shape.test(other.Shape)
	case SynthesizedShapeReferenceT:
		return other.Tag == SynthesizedShapeReferenceT && t.ShapeRef.Equal(*other.ShapeRef)
	case Enum:
		return other.Tag == Enum
	case EnumVariant:
		return other.Tag == EnumVariant && t.Ref.Equal(other.Ref)
	case SynthesizedEnumT:
		return other.Tag == SynthesizedEnumT && sameKeys(t.SynthEnum.Members, other.SynthEnum.Members)
	case SynthesizedEnumReferenceT:
		return other.Tag == SynthesizedEnumReferenceT && t.SynthEnumRef.Equal(*other.SynthEnumRef)
	case SynthesizedEnumVariantReferenceT:
		return other.Tag == SynthesizedEnumVariantReferenceT && t.SynthEnumRef.Equal(*other.SynthEnumRef)
	case Model:
		return other.Tag == Model || other.Tag == ModelObject
	case ModelObject:
		return other.Tag == ModelObject && t.Ref.Equal(other.Ref)
	case InterfaceObject:
		if other.Tag != InterfaceObject || !t.Ref.Equal(other.Ref) || len(other.Generics) != len(t.Generics) {
			return false
		}
		for i, g := range t.Generics {
			if !g.Test(other.Generics[i]) {
				return false
			}
		}
		return true
	case StructObject:
		if other.Tag != StructObject || !t.Ref.Equal(other.Ref) || len(other.Generics) != len(t.Generics) {
			return false
		}
		for i, g := range t.Generics {
			if !g.Test(other.Generics[i]) {
				return false
			}
		}
		return true
	case Middleware:
		return other.Tag == Middleware || other.Tag == MiddlewareReference
	case MiddlewareReference:
		return other.Tag == MiddlewareReference && t.Ref.Equal(other.Ref)
	case DataSet:
		return other.Tag == DataSet
	case DataSetReference:
		return other.Tag == DataSetReference && t.StringPathRef.Equal(other.StringPathRef)
	case DataSetGroup:
		return other.Tag == DataSetGroup && t.Elem.Test(*other.Elem)
	case DataSetRecord:
		return other.Tag == DataSetRecord && t.A.Test(*other.A) && t.B.Test(*other.B)
	case Namespace:
		return other.Tag == Namespace || other.Tag == NamespaceReference
	case NamespaceReference:
		return other.Tag == NamespaceReference && t.StringPathRef.Equal(other.StringPathRef)
	case Pipeline:
		return other.Tag == Pipeline && t.A.Test(*other.A) && t.B.Test(*other.B)
	case DecoratorReference:
		return other.Tag == DecoratorReference && t.Ref.Equal(other.Ref)
	case PipelineItemReference:
		return other.Tag == PipelineItemReference && t.Ref.Equal(other.Ref)
	case Config:
		return other.Tag == Config
	case ModelField:
		return other.Tag == ModelField
	case Interface:
		return other.Tag == Interface
	case InterfaceField:
		return other.Tag == InterfaceField
	case Struct:
		return other.Tag == Struct
	case StructStaticFunction:
		return other.Tag == StructStaticFunction
	case StructInstanceFunction:
		return other.Tag == StructInstanceFunction
	case Function:
		return other.Tag == Function
	default:
		return false
	}
}

// ConstraintTest is the relaxed sibling of Test used for generics-bound
// checking: it additionally accepts a ModelObject where self is Model.
func (t Type) ConstraintTest(other Type) bool {
	if t.Tag == Model && other.Tag == ModelObject {
		return true
	}
	return t.Test(other)
}

func sameKeys(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// test is SynthesizedShape's structural equality check: same field-name
// set, each field pairwise satisfying Test.
func (s *SynthesizedShape) test(other *SynthesizedShape) bool {
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	for name, want := range s.Fields {
		got, ok := other.Fields[name]
		if !ok || !want.Test(got) {
			return false
		}
	}
	return true
}

// ContainsGenerics reports whether t (transitively) mentions a
// GenericItem placeholder, deciding whether ReplaceGenerics is needed.
func (t Type) ContainsGenerics() bool {
	switch t.Tag {
	case GenericItem:
		return true
	case Union, Tuple:
		for _, m := range t.Elems {
			if m.ContainsGenerics() {
				return true
			}
		}
		return false
	case Enumerable, Optional, Array, Dictionary, Range, DataSetGroup:
		return t.Elem.ContainsGenerics()
	case FieldType, Pipeline, DataSetRecord:
		return t.A.ContainsGenerics() || t.B.ContainsGenerics()
	case SynthesizedShapeT:
		return len(t.Shape.GenericNames) > 0
	case InterfaceObject, StructObject:
		for _, g := range t.Generics {
			if g.ContainsGenerics() {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// ContainsKeywords reports whether t (transitively) mentions a Keyword
// placeholder, deciding whether ReplaceKeywords is needed.
func (t Type) ContainsKeywords() bool {
	switch t.Tag {
	case KeywordType:
		return true
	case Union, Tuple:
		for _, m := range t.Elems {
			if m.ContainsKeywords() {
				return true
			}
		}
		return false
	case Enumerable, Optional, Array, Dictionary, Range, DataSetGroup:
		return t.Elem.ContainsKeywords()
	case FieldType, Pipeline, DataSetRecord:
		return t.A.ContainsKeywords() || t.B.ContainsKeywords()
	case InterfaceObject, StructObject:
		for _, g := range t.Generics {
			if g.ContainsKeywords() {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// ReplaceGenerics substitutes every GenericItem(name) present in map,
// recursively. Variants not listed are returned unchanged (identity),
// so ReplaceGenerics(nil or empty map) is the identity function.
func (t Type) ReplaceGenerics(m map[string]Type) Type {
	switch t.Tag {
	case GenericItem:
		if repl, ok := m[t.Name]; ok {
			return repl
		}
		return t
	case Union:
		return NewUnion(mapTypes(t.Elems, func(e Type) Type { return e.ReplaceGenerics(m) }))
	case Tuple:
		return NewTuple(mapTypes(t.Elems, func(e Type) Type { return e.ReplaceGenerics(m) }))
	case Enumerable:
		return NewEnumerable(t.Elem.ReplaceGenerics(m))
	case Optional:
		return NewOptional(t.Elem.ReplaceGenerics(m))
	case Array:
		return NewArray(t.Elem.ReplaceGenerics(m))
	case Dictionary:
		return NewDictionary(t.Elem.ReplaceGenerics(m))
	case Range:
		return NewRange(t.Elem.ReplaceGenerics(m))
	case DataSetGroup:
		return NewDataSetGroup(t.Elem.ReplaceGenerics(m))
	case FieldType:
		a, b := t.A.ReplaceGenerics(m), t.B.ReplaceGenerics(m)
		return NewFieldType(a, b)
	case Pipeline:
		a, b := t.A.ReplaceGenerics(m), t.B.ReplaceGenerics(m)
		return NewPipeline(a, b)
	case DataSetRecord:
		a, b := t.A.ReplaceGenerics(m), t.B.ReplaceGenerics(m)
		return NewDataSetRecord(a, b)
	case InterfaceObject:
		return NewInterfaceObject(t.Ref, mapTypes(t.Generics, func(e Type) Type { return e.ReplaceGenerics(m) }))
	case StructObject:
		return NewStructObject(t.Ref, mapTypes(t.Generics, func(e Type) Type { return e.ReplaceGenerics(m) }))
	default:
		return t
	}
}

// ReplaceKeywords substitutes every Keyword(k) present in map, recursively.
func (t Type) ReplaceKeywords(m map[Keyword]Type) Type {
	switch t.Tag {
	case KeywordType:
		if repl, ok := m[t.Keyword]; ok {
			return repl
		}
		return t
	case Union:
		return NewUnion(mapTypes(t.Elems, func(e Type) Type { return e.ReplaceKeywords(m) }))
	case Tuple:
		return NewTuple(mapTypes(t.Elems, func(e Type) Type { return e.ReplaceKeywords(m) }))
	case Enumerable:
		return NewEnumerable(t.Elem.ReplaceKeywords(m))
	case Optional:
		return NewOptional(t.Elem.ReplaceKeywords(m))
	case Array:
		return NewArray(t.Elem.ReplaceKeywords(m))
	case Dictionary:
		return NewDictionary(t.Elem.ReplaceKeywords(m))
	case Range:
		return NewRange(t.Elem.ReplaceKeywords(m))
	case DataSetGroup:
		return NewDataSetGroup(t.Elem.ReplaceKeywords(m))
	case FieldType:
		a, b := t.A.ReplaceKeywords(m), t.B.ReplaceKeywords(m)
		return NewFieldType(a, b)
	case Pipeline:
		a, b := t.A.ReplaceKeywords(m), t.B.ReplaceKeywords(m)
		return NewPipeline(a, b)
	case DataSetRecord:
		a, b := t.A.ReplaceKeywords(m), t.B.ReplaceKeywords(m)
		return NewDataSetRecord(a, b)
	case InterfaceObject:
		return NewInterfaceObject(t.Ref, mapTypes(t.Generics, func(e Type) Type { return e.ReplaceKeywords(m) }))
	case StructObject:
		return NewStructObject(t.Ref, mapTypes(t.Generics, func(e Type) Type { return e.ReplaceKeywords(m) }))
	default:
		return t
	}
}

func mapTypes(in []Type, f func(Type) Type) []Type {
	if in == nil {
		return nil
	}
	out := make([]Type, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}

// Flatten collapses Optional<Optional<T>> to Optional<T>, recursively.
func (t Type) Flatten() Type {
	if t.Tag == Optional && t.Elem.Tag == Optional {
		return t.Elem.Flatten()
	}
	return t
}

// WrapInOptional wraps t in Optional, unless it already is one.
func (t Type) WrapInOptional() Type {
	if t.Tag == Optional {
		return t
	}
	return NewOptional(t)
}

// UnwrapOptional returns the inner type if t is Optional, else t itself.
func (t Type) UnwrapOptional() Type {
	if t.Tag == Optional {
		return *t.Elem
	}
	return t
}

// WrapInEnumerable wraps t in Enumerable, unless it already is one.
func (t Type) WrapInEnumerable() Type {
	if t.Tag == Enumerable {
		return t
	}
	return NewEnumerable(t)
}

// UnwrapEnumerable returns the inner type if t is Enumerable, else t itself.
func (t Type) UnwrapEnumerable() Type {
	if t.Tag == Enumerable {
		return *t.Elem
	}
	return t
}

// ExpectForLiteral peels one Optional layer, the "expected" type used to
// disambiguate a bare literal.
func (t Type) ExpectForLiteral() Type {
	return t.UnwrapOptional()
}

// ExpectForEnumVariantLiteral peels Optional, then Enumerable, then
// Optional again, in that order, and returns
// Undetermined unless what remains is an enum-variant-shaped type.
func (t Type) ExpectForEnumVariantLiteral() Type {
	result := t
	if result.Tag == Optional {
		result = *result.Elem
	}
	if result.Tag == Enumerable {
		result = *result.Elem
	}
	if result.Tag == Optional {
		result = *result.Elem
	}
	if result.Tag == EnumVariant || result.Tag == SynthesizedEnumT || result.Tag == SynthesizedEnumVariantReferenceT {
		return result
	}
	return NewUndetermined()
}

// ExpectForArrayLiteral peels one Optional layer, then accepts either an
// Array directly or an Enumerable<T> rewritten as Array<T>.
func (t Type) ExpectForArrayLiteral() Type {
	result := t
	if result.Tag == Optional {
		result = *result.Elem
	}
	if result.Tag == Array {
		return result
	}
	if result.Tag == Enumerable {
		return NewArray(*result.Elem)
	}
	return NewUndetermined()
}
