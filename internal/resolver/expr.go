package resolver

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/oxhq/schemalang/internal/ast"
	"github.com/oxhq/schemalang/internal/diagnostics"
	"github.com/oxhq/schemalang/internal/schema"
	"github.com/oxhq/schemalang/internal/span"
	"github.com/oxhq/schemalang/internal/typesys"
)

// ResolveExpression computes expr's Type and Accessible against expected
// and writes both to expr's resolution slots. A second
// call against the same expr is a cache hit: Slot is
// single-assignment, written at most once per resolver run.
func ResolveExpression(c *Context, expr *ast.Expression, expected typesys.Type) typesys.Type {
	if cached, ok := expr.Typed.Get(); ok {
		return cached
	}
	acc, typ := resolveNode(c, expr.Inner, expected)
	expr.Resolved.Assign(acc)
	expr.Typed.Assign(typ)
	return typ
}

// resolveNode resolves any expression-shaped node, unwrapping a nested
// *ast.Expression through ResolveExpression so every sub-expression
// (array elements, argument values, binary operands, ...) goes through
// the same single-assignment slot discipline as the top-level call.
func resolveNode(c *Context, n ast.Node, expected typesys.Type) (ast.Accessible, typesys.Type) {
	switch v := n.(type) {
	case *ast.Expression:
		t := ResolveExpression(c, v, expected)
		acc, _ := v.Resolved.Get()
		return acc, t
	case *ast.NumericLiteral:
		return resolveNumericLiteral(v, expected)
	case *ast.StringLiteral:
		t := typesys.NewString()
		return ast.Accessible{Type: t}, t
	case *ast.BoolLiteral:
		t := typesys.NewBool()
		return ast.Accessible{Type: t}, t
	case *ast.NullLiteral:
		t := typesys.NewNull()
		return ast.Accessible{Type: t}, t
	case *ast.RegExpLiteral:
		return resolveRegExpLiteral(c, v)
	case *ast.EnumVariantLiteral:
		return resolveEnumVariantLiteral(c, v, expected)
	case *ast.ArrayLiteral:
		return resolveArrayLiteral(c, v, expected)
	case *ast.DictionaryLiteral:
		return resolveDictionaryLiteral(c, v, expected)
	case *ast.TupleLiteral:
		return resolveTupleLiteral(c, v, expected)
	case *ast.RangeLiteral:
		return resolveRangeLiteral(c, v, expected)
	case *ast.Group:
		return resolveNode(c, v.Inner, expected)
	case *ast.UnaryOperation:
		return resolveUnaryOperation(c, v, expected)
	case *ast.UnaryPostfixOperation:
		return resolveUnaryPostfix(c, v, expected)
	case *ast.BinaryOperation:
		return resolveBinaryOperation(c, v, expected)
	case *ast.Unit:
		return resolveUnit(c, v)
	case *ast.Subscript:
		return resolveSubscript(c, v)
	case *ast.Pipeline:
		return resolvePipeline(c, v)
	case *ast.IdentifierPath:
		return resolveIdentifierPath(c, v)
	case *ast.Identifier:
		return resolveIdentifierPath(c, &ast.IdentifierPath{Names: []string{v.Name}})
	default:
		return ast.Accessible{Type: typesys.NewUndetermined()}, typesys.NewUndetermined()
	}
}

func errAt(c *Context, code diagnostics.Code, message string, sp span.Span) {
	_, path, _ := c.Source()
	c.Diagnostics.AddError(diagnostics.Entry{Code: code, Message: message, SourcePath: path, Span: sp})
}

// CheckAssignable reports `expect X, found Y` when
// expected does not accept actual, the mismatch check every body-
// resolution call site (constants, config items, decorator/handler
// arguments, data-set record fields) runs once both sides are resolved.
func CheckAssignable(c *Context, expected, actual typesys.Type, sp span.Span) {
	if expected.Is(typesys.Undetermined) || expected.Is(typesys.Ignored) || expected.Is(typesys.Any) {
		return
	}
	if actual.Is(typesys.Undetermined) {
		return
	}
	if expected.Test(actual) {
		return
	}
	errAt(c, diagnostics.ErrTypeMismatch, fmt.Sprintf("expect %s, found %s", expected.String(), actual.String()), sp)
}

func resolveNumericLiteral(n *ast.NumericLiteral, expected typesys.Type) (ast.Accessible, typesys.Type) {
	if n.HasDecimal {
		t := typesys.NewFloat()
		return ast.Accessible{Type: t}, t
	}
	peeled := expected.ExpectForLiteral()
	switch peeled.Tag {
	case typesys.Int64:
		t := typesys.NewInt64()
		return ast.Accessible{Type: t}, t
	case typesys.Float, typesys.Float32, typesys.Decimal:
		return ast.Accessible{Type: peeled}, peeled
	}
	if fitsInt32(n.Text) {
		t := typesys.NewInt()
		return ast.Accessible{Type: t}, t
	}
	t := typesys.NewInt64()
	return ast.Accessible{Type: t}, t
}

func fitsInt32(text string) bool {
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return false
	}
	return v >= math.MinInt32 && v <= math.MaxInt32
}

func resolveRegExpLiteral(c *Context, n *ast.RegExpLiteral) (ast.Accessible, typesys.Type) {
	if _, err := regexp.Compile(n.Pattern); err != nil {
		errAt(c, diagnostics.ErrInvalidArgument, fmt.Sprintf("invalid regular expression: %s", err), n.Span())
	}
	t := typesys.NewRegex()
	return ast.Accessible{Type: t}, t
}

// resolveEnumVariantLiteral binds `.name(args?)` against
// expected.ExpectForEnumVariantLiteral(): a user enum
// reference looks the variant up among the enum's declared members, a
// synthesized enum (e.g. SerializableScalarFields<Model>) checks
// membership in its closed field-name set.
func resolveEnumVariantLiteral(c *Context, n *ast.EnumVariantLiteral, expected typesys.Type) (ast.Accessible, typesys.Type) {
	base := peelForEnumVariantLiteral(expected)
	resolveArgumentListLoosely(c, n.Arguments)

	switch base.Tag {
	case typesys.Enum:
		enumNode := NodeAt(c, base.Ref)
		en, ok := enumNode.(*ast.Enum)
		if !ok {
			errAt(c, diagnostics.ErrUnresolvedIdentifier, fmt.Sprintf("cannot find enum variant `.%s`", n.Name.Name), n.Span())
			return ast.Accessible{Type: typesys.NewUndetermined()}, typesys.NewUndetermined()
		}
		for _, m := range en.Members {
			if m.Name.Name == n.Name.Name {
				ref := typesys.Reference{Path: m.Path(), StringPath: en.StringPath.Child(m.Name.Name)}
				n.Resolved.Assign(ref)
				t := typesys.NewEnumVariant(ref)
				return ast.Accessible{Type: t, Ref: ref, HasRef: true}, t
			}
		}
		errAt(c, diagnostics.ErrUnresolvedIdentifier, fmt.Sprintf("enum `%s` has no variant `%s`", en.StringPath.String(), n.Name.Name), n.Span())
		return ast.Accessible{Type: typesys.NewUndetermined()}, typesys.NewUndetermined()
	case typesys.SynthesizedEnumT:
		if base.SynthEnum != nil {
			if _, ok := base.SynthEnum.Members[n.Name.Name]; !ok {
				errAt(c, diagnostics.ErrTypeMismatch, fmt.Sprintf("expect %s, found other fields", base.String()), n.Span())
			}
			t := typesys.NewSynthesizedEnumVariantReference(typesys.SynthesizedEnumReference{Kind: base.SynthEnum.Kind, Owner: base.SynthEnum.Owner})
			return ast.Accessible{Type: t}, t
		}
	}
	errAt(c, diagnostics.ErrTypeMismatch, fmt.Sprintf("cannot resolve enum variant literal `.%s` without an expected enum type", n.Name.Name), n.Span())
	return ast.Accessible{Type: typesys.NewUndetermined()}, typesys.NewUndetermined()
}

// peelForEnumVariantLiteral mirrors typesys.Type.ExpectForEnumVariantLiteral's
// Optional/Enumerable/Optional peel order, but additionally recognizes
// the bare Enum tag `resolver.resolveNamedType` produces for a field
// typed as a named enum (`status: Role`) — ExpectForEnumVariantLiteral
// only recognizes the EnumVariant/SynthesizedEnum shapes an already-
// resolved value carries, not a type-expression's enum reference.
func peelForEnumVariantLiteral(t typesys.Type) typesys.Type {
	result := t
	if result.Tag == typesys.Optional {
		result = *result.Elem
	}
	if result.Tag == typesys.Enumerable {
		result = *result.Elem
	}
	if result.Tag == typesys.Optional {
		result = *result.Elem
	}
	switch result.Tag {
	case typesys.EnumVariant, typesys.SynthesizedEnumT, typesys.SynthesizedEnumVariantReferenceT, typesys.Enum:
		return result
	default:
		return typesys.NewUndetermined()
	}
}

func resolveArrayLiteral(c *Context, n *ast.ArrayLiteral, expected typesys.Type) (ast.Accessible, typesys.Type) {
	elemExpected := expected.ExpectForArrayLiteral()
	var elemType typesys.Type
	for i, el := range n.Elements {
		t := resolveElemType(c, el, elemExpected)
		if i == 0 {
			elemType = t
		}
	}
	if len(n.Elements) == 0 {
		u := typesys.NewUndetermined()
		elemType = u
	}
	arr := typesys.NewArray(elemType)
	return ast.Accessible{Type: arr}, arr
}

func resolveDictionaryLiteral(c *Context, n *ast.DictionaryLiteral, expected typesys.Type) (ast.Accessible, typesys.Type) {
	valExpected := typesys.NewUndetermined()
	if expected.Is(typesys.Dictionary) {
		valExpected = *expected.Elem
	}
	var valType typesys.Type
	for i, entry := range n.Entries {
		resolveElemType(c, entry.Key, typesys.NewString())
		t := resolveElemType(c, entry.Value, valExpected)
		if i == 0 {
			valType = t
		}
	}
	if len(n.Entries) == 0 {
		valType = typesys.NewUndetermined()
	}
	dict := typesys.NewDictionary(valType)
	return ast.Accessible{Type: dict}, dict
}

func resolveTupleLiteral(c *Context, n *ast.TupleLiteral, expected typesys.Type) (ast.Accessible, typesys.Type) {
	elemExpectations := make([]typesys.Type, len(n.Elements))
	if expected.Is(typesys.Tuple) && len(expected.Elems) == len(n.Elements) {
		copy(elemExpectations, expected.Elems)
	}
	elems := make([]typesys.Type, len(n.Elements))
	for i, el := range n.Elements {
		want := typesys.NewUndetermined()
		if i < len(elemExpectations) {
			want = elemExpectations[i]
		}
		elems[i] = resolveElemType(c, el, want)
	}
	t := typesys.NewTuple(elems)
	return ast.Accessible{Type: t}, t
}

func resolveRangeLiteral(c *Context, n *ast.RangeLiteral, expected typesys.Type) (ast.Accessible, typesys.Type) {
	elemExpected := expected
	if expected.Is(typesys.Range) {
		elemExpected = *expected.Elem
	}
	st := resolveElemType(c, n.Start, elemExpected)
	resolveElemType(c, n.End, st)
	t := typesys.NewRange(st)
	return ast.Accessible{Type: t}, t
}

func resolveUnaryOperation(c *Context, n *ast.UnaryOperation, expected typesys.Type) (ast.Accessible, typesys.Type) {
	t := resolveElemType(c, n.Operand, expected)
	if n.Operator == ast.OpNegate || n.Operator == ast.OpBitwiseNegate {
		return ast.Accessible{Type: t}, t
	}
	b := typesys.NewBool()
	return ast.Accessible{Type: b}, b
}

// resolveUnaryPostfix implements the postfix `!` force-unwrap operator
//: the operand is resolved against `Optional<expected>`
// and the result is the operand's type with its Optional layer removed.
func resolveUnaryPostfix(c *Context, n *ast.UnaryPostfixOperation, expected typesys.Type) (ast.Accessible, typesys.Type) {
	t := resolveElemType(c, n.Operand, typesys.NewOptional(expected))
	u := t.UnwrapOptional()
	return ast.Accessible{Type: u}, u
}

var comparisonOps = map[ast.BinaryOperator]bool{
	ast.OpEq: true, ast.OpNeq: true, ast.OpLt: true, ast.OpLte: true,
	ast.OpGt: true, ast.OpGte: true, ast.OpOr: true, ast.OpAnd: true,
}

func resolveBinaryOperation(c *Context, n *ast.BinaryOperation, expected typesys.Type) (ast.Accessible, typesys.Type) {
	if comparisonOps[n.Operator] {
		resolveElemType(c, n.Left, typesys.NewUndetermined())
		resolveElemType(c, n.Right, typesys.NewUndetermined())
		b := typesys.NewBool()
		return ast.Accessible{Type: b}, b
	}
	if n.Operator == ast.OpNullishCoalescing {
		lt := resolveElemType(c, n.Left, typesys.NewOptional(expected))
		narrowed := lt
		if lt.Is(typesys.Optional) {
			narrowed = *lt.Elem
		}
		rt := resolveElemType(c, n.Right, narrowed)
		return ast.Accessible{Type: rt}, rt
	}
	lt := resolveElemType(c, n.Left, expected)
	rt := resolveElemType(c, n.Right, expected)
	result := widenNumeric(lt, rt)
	return ast.Accessible{Type: result}, result
}

var numericWidth = map[typesys.Tag]int{
	typesys.Int: 0, typesys.Int64: 1, typesys.Float32: 2, typesys.Float: 3, typesys.Decimal: 4,
}

func widenNumeric(a, b typesys.Type) typesys.Type {
	wa, aok := numericWidth[a.Tag]
	wb, bok := numericWidth[b.Tag]
	if !aok || !bok {
		return a
	}
	if wb > wa {
		return b
	}
	return a
}

func resolveElemType(c *Context, n ast.Node, expected typesys.Type) typesys.Type {
	_, t := resolveNode(c, n, expected)
	return t
}

func resolveArgumentListLoosely(c *Context, args *ast.ArgumentList) {
	if args == nil {
		return
	}
	for _, a := range args.Arguments {
		resolveElemType(c, a.Value, typesys.NewUndetermined())
	}
}

// resolveIdentifierPath handles the Unit/Identifier/IdentifierPath
// dispatch: a bare or dotted name resolved through the name-resolution
// search with no member-access steps following.
func resolveIdentifierPath(c *Context, ip *ast.IdentifierPath) (ast.Accessible, typesys.Type) {
	name := strings.Join(ip.Names, ".")
	if len(ip.Names) == 1 && c.IsGenericInScope(ip.Names[0]) {
		t := typesys.NewGenericItem(ip.Names[0])
		return ast.Accessible{Type: t}, t
	}
	node, path, ok := Search(c, name, schema.IsAny)
	if !ok {
		errAt(c, diagnostics.ErrUnresolvedIdentifier, fmt.Sprintf("cannot find `%s` in this scope", name), ip.Span())
		return ast.Accessible{Type: typesys.NewUndetermined()}, typesys.NewUndetermined()
	}
	return accessibleForNode(c, node, path)
}

// accessibleForNode converts a resolved top-level declaration node into
// the Accessible/Type pair a name reference to it denotes.
func accessibleForNode(c *Context, node ast.Node, path span.Path) (ast.Accessible, typesys.Type) {
	ref := typesys.Reference{Path: path, StringPath: topStringPath(node)}
	switch v := node.(type) {
	case *ast.Model:
		t := typesys.NewModelObject(ref)
		return ast.Accessible{Type: t, Ref: ref, HasRef: true}, t
	case *ast.Enum:
		t := typesys.NewEnumReference(ref)
		return ast.Accessible{Type: t, Ref: ref, HasRef: true}, t
	case *ast.Interface:
		t := typesys.NewInterfaceObject(ref, nil)
		return ast.Accessible{Type: t, Ref: ref, HasRef: true}, t
	case *ast.StructDeclaration:
		t := typesys.NewStructObject(ref, nil)
		return ast.Accessible{Type: t, Ref: ref, HasRef: true}, t
	case *ast.Namespace:
		t := typesys.NewNamespaceReference(v.StringPath)
		return ast.Accessible{Type: t, Ref: ref, HasRef: true}, t
	case *ast.ConfigDeclaration:
		t := typesys.NewConfig()
		return ast.Accessible{Type: t, Ref: ref, HasRef: true}, t
	case *ast.DataSet:
		t := typesys.NewDataSetReference(v.StringPath)
		return ast.Accessible{Type: t, Ref: ref, HasRef: true}, t
	case *ast.MiddlewareDeclaration:
		t := typesys.NewMiddlewareReference(ref)
		return ast.Accessible{Type: t, Ref: ref, HasRef: true}, t
	case *ast.DecoratorDeclaration:
		t := typesys.NewDecoratorReference(ref)
		return ast.Accessible{Type: t, Ref: ref, HasRef: true}, t
	case *ast.PipelineItemDeclaration:
		t := typesys.NewPipelineItemReference(ref)
		return ast.Accessible{Type: t, Ref: ref, HasRef: true}, t
	case *ast.FunctionDeclaration:
		t := typesys.NewFunction()
		return ast.Accessible{Type: t, Ref: ref, HasRef: true}, t
	case *ast.ConstantDeclaration:
		t := resolveConstantValue(c, v)
		return ast.Accessible{Type: t, Ref: ref, HasRef: true}, t
	default:
		t := typesys.NewUndetermined()
		return ast.Accessible{Type: t}, t
	}
}

// resolveConstantValue resolves a referenced constant's own Value
// expression on demand if body resolution hasn't reached it yet (a
// forward reference within the same pass), guarded by the circular-
// reference stack.
func resolveConstantValue(c *Context, cd *ast.ConstantDeclaration) typesys.Type {
	// A declared annotation is the constant's type; the initializer only
	// determines the type when the annotation is absent.
	if cd.Type_ != nil {
		if t, ok := cd.Type_.Resolved.Get(); ok {
			return t
		}
	}
	if t, ok := cd.Value.Typed.Get(); ok && cd.Type_ == nil {
		return t
	}
	if c.HasDependency(cd.Path()) {
		errAt(c, diagnostics.ErrCircularReference, fmt.Sprintf("circular reference involving `%s`", cd.StringPath.String()), cd.Value.Span())
		return typesys.NewUndetermined()
	}
	ResolveConstant(c, cd)
	if cd.Type_ != nil {
		if t, ok := cd.Type_.Resolved.Get(); ok {
			return t
		}
	}
	t, _ := cd.Value.Typed.Get()
	return t
}

// ResolveConstant resolves a `const name: Type = expr` declaration's
// value against its declared type (if any), pushing/popping the
// circular-reference guard around the whole call so a constant whose
// initializer transitively references itself is caught
// rather than recursing forever.
func ResolveConstant(c *Context, cd *ast.ConstantDeclaration) {
	if _, ok := cd.Value.Typed.Get(); ok {
		return
	}
	c.PushDependency(cd.Path())
	defer c.PopDependency()

	expected := typesys.NewUndetermined()
	if cd.Type_ != nil {
		expected = ResolveTypeExpr(c, cd.Type_)
	}
	actual := ResolveExpression(c, cd.Value, expected)
	if cd.Type_ != nil {
		CheckAssignable(c, expected, actual, cd.Value.Span())
		if redundantAnnotation(expected, cd.Value.Inner) {
			_, path, _ := c.Source()
			c.Diagnostics.AddWarning(diagnostics.Entry{
				Code:       diagnostics.WarnRedundantTypeAnnotation,
				Message:    "redundant type annotation",
				SourcePath: path,
				Span:       cd.Type_.Span(),
			})
		}
	}
}

// redundantAnnotation reports whether the declared type adds nothing
// over what the initializer would infer on its own. Only the literal
// forms with a fixed default inference are considered; anything whose
// inference the annotation actually steers (Int64 widths, enum variant
// literals, empty collections) is never redundant.
func redundantAnnotation(declared typesys.Type, inner ast.Node) bool {
	switch v := inner.(type) {
	case *ast.NumericLiteral:
		if v.HasDecimal {
			return declared.Is(typesys.Float)
		}
		return declared.Is(typesys.Int) && fitsInt32(v.Text)
	case *ast.StringLiteral:
		return declared.Is(typesys.String)
	case *ast.BoolLiteral:
		return declared.Is(typesys.Bool)
	default:
		return false
	}
}

// unitCursor tracks both the type and (when available) the underlying
// declaration node "currently" addressed while walking a Unit's member-
// access chain, since field/member lookup needs the declaration's field
// list, not just its Type.
type unitCursor struct {
	acc  ast.Accessible
	typ  typesys.Type
	node ast.Node
}

func resolveUnit(c *Context, u *ast.Unit) (ast.Accessible, typesys.Type) {
	cur, ok := resolveUnitBase(c, u.Base_)
	if !ok {
		return ast.Accessible{Type: typesys.NewUndetermined()}, typesys.NewUndetermined()
	}
	for _, step := range u.Steps {
		cur, ok = resolveUnitStep(c, cur, step)
		if !ok {
			return ast.Accessible{Type: typesys.NewUndetermined()}, typesys.NewUndetermined()
		}
	}
	return cur.acc, cur.typ
}

func resolveUnitBase(c *Context, base ast.Node) (unitCursor, bool) {
	switch b := base.(type) {
	case *ast.IdentifierPath:
		name := strings.Join(b.Names, ".")
		node, path, ok := Search(c, name, schema.IsAny)
		if !ok {
			errAt(c, diagnostics.ErrUnresolvedIdentifier, fmt.Sprintf("cannot find `%s` in this scope", name), b.Span())
			return unitCursor{}, false
		}
		acc, t := accessibleForNode(c, node, path)
		return unitCursor{acc: acc, typ: t, node: node}, true
	default:
		acc, t := resolveNode(c, base, typesys.NewUndetermined())
		return unitCursor{acc: acc, typ: t}, true
	}
}

// resolveUnitStep implements the per-current-kind member-access step:
// Model/Interface field lookup, Enum member lookup,
// Struct static/instance function lookup, Namespace nested lookup, and
// Config item lookup.
func resolveUnitStep(c *Context, cur unitCursor, step *ast.UnitStep) (unitCursor, bool) {
	node := cur.node
	if node == nil {
		node = underlyingNode(c, cur.typ)
	}
	name := step.Name.Name

	switch n := node.(type) {
	case *ast.Model:
		for _, f := range n.Fields {
			if f.Name.Name == name {
				ft := ResolveTypeExpr(c, f.Type_)
				ref := typesys.Reference{Path: f.Path(), StringPath: n.StringPath.Child(name)}
				resolveArgumentListLoosely(c, step.Arguments)
				return unitCursor{acc: ast.Accessible{Type: ft, Ref: ref, HasRef: true}, typ: ft}, true
			}
		}
		errAt(c, diagnostics.ErrUnresolvedIdentifier, fmt.Sprintf("model `%s` has no field `%s`", n.StringPath.String(), name), step.Span())
	case *ast.Interface:
		for _, f := range n.Fields {
			if f.Name.Name == name {
				ft := ResolveTypeExpr(c, f.Type_)
				ft = substituteDeclGenerics(ft, n.Generics, cur.typ.Generics)
				ft = substituteSelf(ft, cur.typ)
				ref := typesys.Reference{Path: f.Path(), StringPath: n.StringPath.Child(name)}
				resolveArgumentListLoosely(c, step.Arguments)
				return unitCursor{acc: ast.Accessible{Type: ft, Ref: ref, HasRef: true}, typ: ft}, true
			}
		}
		errAt(c, diagnostics.ErrUnresolvedIdentifier, fmt.Sprintf("interface `%s` has no field `%s`", n.StringPath.String(), name), step.Span())
	case *ast.Enum:
		for _, m := range n.Members {
			if m.Name.Name == name {
				ref := typesys.Reference{Path: m.Path(), StringPath: n.StringPath.Child(name)}
				resolveArgumentListLoosely(c, step.Arguments)
				t := typesys.NewEnumVariant(ref)
				return unitCursor{acc: ast.Accessible{Type: t, Ref: ref, HasRef: true}, typ: t}, true
			}
		}
		errAt(c, diagnostics.ErrUnresolvedIdentifier, fmt.Sprintf("enum `%s` has no variant `%s`", n.StringPath.String(), name), step.Span())
	case *ast.Namespace:
		filter := schema.IsAny
		if child, path, ok := searchTopsForName(n.Tops, name, filter); ok {
			return cursorForNode(c, child, path), true
		}
		errAt(c, diagnostics.ErrUnresolvedIdentifier, fmt.Sprintf("namespace `%s` has no member `%s`", n.StringPath.String(), name), step.Span())
	case *ast.StructDeclaration:
		for _, fn := range n.Functions {
			if fn.Identifier.Name != name {
				continue
			}
			resolveArgumentListLoosely(c, step.Arguments)
			rt := typesys.NewUndetermined()
			if fn.ReturnType != nil {
				rt = ResolveTypeExpr(c, fn.ReturnType)
				rt = substituteDeclGenerics(rt, n.Generics, cur.typ.Generics)
				rt = substituteSelf(rt, cur.typ)
			}
			ref := typesys.Reference{Path: fn.Path(), StringPath: n.StringPath.Child(name)}
			return unitCursor{acc: ast.Accessible{Type: rt, Ref: ref, HasRef: true}, typ: rt}, true
		}
		errAt(c, diagnostics.ErrUnresolvedIdentifier, fmt.Sprintf("struct `%s` has no function `%s`", n.StringPath.String(), name), step.Span())
	case *ast.ConfigDeclaration:
		for _, cfg := range n.Configs {
			for _, item := range cfg.Items {
				if item.Name.Name == name {
					resolveArgumentListLoosely(c, step.Arguments)
					t := resolveElemType(c, item.Value, typesys.NewUndetermined())
					return unitCursor{acc: ast.Accessible{Type: t}, typ: t}, true
				}
			}
		}
		errAt(c, diagnostics.ErrUnresolvedIdentifier, fmt.Sprintf("config `%s` has no item `%s`", n.StringPath.String(), name), step.Span())
	default:
		resolveArgumentListLoosely(c, step.Arguments)
		u := typesys.NewUndetermined()
		return unitCursor{acc: ast.Accessible{Type: u}, typ: u}, true
	}
	u := typesys.NewUndetermined()
	return unitCursor{acc: ast.Accessible{Type: u}, typ: u}, false
}

// substituteDeclGenerics maps a declaration's generic parameter names to
// the concrete arguments the current object value carries, then runs
// ReplaceGenerics over t. A bare (uninstantiated) reference leaves the
// GenericItem placeholders in place.
func substituteDeclGenerics(t typesys.Type, decl *ast.GenericsDeclaration, args []typesys.Type) typesys.Type {
	if decl == nil || len(args) == 0 || !t.ContainsGenerics() {
		return t
	}
	m := make(map[string]typesys.Type, len(decl.Names))
	for i, name := range decl.Names {
		if i < len(args) {
			m[name.Name] = args[i]
		}
	}
	return t.ReplaceGenerics(m)
}

// substituteSelf rewrites the Self placeholder to the object type the
// member was reached through.
func substituteSelf(t, self typesys.Type) typesys.Type {
	if !t.ContainsKeywords() {
		return t
	}
	return t.ReplaceKeywords(map[typesys.Keyword]typesys.Type{typesys.KeywordSelf: self})
}

func cursorForNode(c *Context, node ast.Node, path span.Path) unitCursor {
	acc, t := accessibleForNode(c, node, path)
	return unitCursor{acc: acc, typ: t, node: node}
}

// underlyingNode recovers the declaration node a reference-form Type
// addresses, for steps chained off an already-resolved object value
// (e.g. a field access result) rather than a fresh name lookup.
func underlyingNode(c *Context, t typesys.Type) ast.Node {
	switch t.Tag {
	case typesys.ModelObject, typesys.Model:
		return NodeAt(c, t.Ref)
	case typesys.InterfaceObject, typesys.Interface:
		return NodeAt(c, t.Ref)
	case typesys.StructObject, typesys.Struct:
		return NodeAt(c, t.Ref)
	case typesys.Enum:
		return NodeAt(c, t.Ref)
	default:
		return nil
	}
}

// NodeAt looks up the declaration node addressed by ref, through the
// source its node path's leading element identifies.
func NodeAt(c *Context, ref typesys.Reference) ast.Node {
	if len(ref.Path) == 0 {
		return nil
	}
	src, ok := c.Schema.Source(ref.Path[0])
	if !ok {
		return nil
	}
	return findNodeByPath(src, ref.Path)
}

func resolveSubscript(c *Context, n *ast.Subscript) (ast.Accessible, typesys.Type) {
	targetType := resolveElemType(c, n.Target, typesys.NewUndetermined())
	switch targetType.Tag {
	case typesys.Array:
		resolveElemType(c, n.Index, typesys.NewInt())
		t := *targetType.Elem
		return ast.Accessible{Type: t}, t
	case typesys.Dictionary:
		resolveElemType(c, n.Index, typesys.NewString())
		t := *targetType.Elem
		return ast.Accessible{Type: t}, t
	case typesys.Tuple:
		if lit, ok := indexLiteral(n.Index); ok && lit >= 0 && lit < len(targetType.Elems) {
			t := targetType.Elems[lit]
			return ast.Accessible{Type: t}, t
		}
		errAt(c, diagnostics.ErrInvalidArgument, "tuple subscript requires a numeric literal index", n.Span())
	default:
		resolveElemType(c, n.Index, typesys.NewUndetermined())
	}
	return ast.Accessible{Type: typesys.NewUndetermined()}, typesys.NewUndetermined()
}

// indexLiteral extracts a constant numeric-literal index. Tuple
// subscripting requires a literal at parse time; constant expressions
// are not accepted.
func indexLiteral(n ast.Node) (int, bool) {
	expr, ok := n.(*ast.Expression)
	if !ok {
		return 0, false
	}
	num, ok := expr.Inner.(*ast.NumericLiteral)
	if !ok || num.HasDecimal {
		return 0, false
	}
	v, err := strconv.Atoi(num.Text)
	if err != nil {
		return 0, false
	}
	return v, true
}

// resolvePipeline composes each `$stage` left-to-right: every stage
// resolves to a PipelineItemReference or nested
// Pipeline<I,O>, and each stage's input must satisfy the previous
// stage's declared output.
func resolvePipeline(c *Context, p *ast.Pipeline) (ast.Accessible, typesys.Type) {
	var firstInput, prevOutput typesys.Type
	first := true
	for _, item := range p.Items {
		input, output := resolvePipelineStage(c, item)
		if first {
			firstInput = input
		} else if !input.Is(typesys.Undetermined) && !prevOutput.Is(typesys.Undetermined) {
			CheckAssignable(c, input, prevOutput, item.Span())
		}
		prevOutput = output
		first = false
	}
	if len(p.Items) == 0 {
		u := typesys.NewUndetermined()
		return ast.Accessible{Type: u}, u
	}
	t := typesys.NewPipeline(firstInput, prevOutput)
	return ast.Accessible{Type: t}, t
}

func resolvePipelineStage(c *Context, n ast.Node) (input, output typesys.Type) {
	step, ok := n.(*ast.UnitStep)
	if !ok {
		if unit, ok := n.(*ast.Unit); ok {
			if base, ok := unit.Base_.(*ast.UnitStep); ok {
				return resolvePipelineStage(c, base)
			}
		}
		return typesys.NewUndetermined(), typesys.NewUndetermined()
	}
	node, _, ok := Search(c, step.Name.Name, isPipelineItem)
	if !ok {
		errAt(c, diagnostics.ErrUnresolvedIdentifier, fmt.Sprintf("cannot find pipeline item `%s`", step.Name.Name), step.Span())
		return typesys.NewUndetermined(), typesys.NewUndetermined()
	}
	resolveArgumentListLoosely(c, step.Arguments)
	decl := node.(*ast.PipelineItemDeclaration)
	if len(decl.Variants) == 0 {
		return typesys.NewUndetermined(), typesys.NewUndetermined()
	}
	v := decl.Variants[0]
	return ResolveTypeExpr(c, v.Input), ResolveTypeExpr(c, v.Output)
}

func isPipelineItem(n ast.Node) bool {
	_, ok := n.(*ast.PipelineItemDeclaration)
	return ok
}

func isDecorator(n ast.Node) bool {
	_, ok := n.(*ast.DecoratorDeclaration)
	return ok
}
