package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oxhq/schemalang/internal/ast"
	"github.com/oxhq/schemalang/internal/diagnostics"
	"github.com/oxhq/schemalang/internal/schema"
	"github.com/oxhq/schemalang/internal/typesys"
)

// builtinScalars is the closed set of primitive type-item names the
// grammar recognizes without a schema lookup.
var builtinScalars = map[string]func() typesys.Type{
	"Bool":     typesys.NewBool,
	"Int":      typesys.NewInt,
	"Int64":    typesys.NewInt64,
	"Float32":  typesys.NewFloat32,
	"Float":    typesys.NewFloat,
	"Decimal":  typesys.NewDecimal,
	"String":   typesys.NewString,
	"ObjectId": typesys.NewObjectID,
	"Date":     typesys.NewDate,
	"DateTime": typesys.NewDateTime,
	"File":     typesys.NewFile,
	"Regex":    typesys.NewRegex,
	"Any":      typesys.NewAny,
	"Ignored":  typesys.NewIgnored,
}

// BuiltinScalarNames lists the closed set of primitive type-item names
// recognized without a schema lookup, for language-services completion.
func BuiltinScalarNames() []string {
	names := make([]string, 0, len(builtinScalars))
	for name := range builtinScalars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveTypeExpr computes the typesys.Type a TypeExpr denotes and writes
// it to the expression's Resolved slot (idempotently — a second call
// with the same result is harmless since Slot.Assign only takes effect
// once). A union of more than one member produces typesys.Union; a
// single member resolves directly so `Optional<T>` doesn't get wrapped
// in a spurious one-element union.
func ResolveTypeExpr(c *Context, te *ast.TypeExpr) typesys.Type {
	if cached, ok := te.Resolved.Get(); ok {
		return cached
	}
	var result typesys.Type
	if len(te.Members) == 1 {
		result = resolveTypeMember(c, te.Members[0])
	} else {
		members := make([]typesys.Type, 0, len(te.Members))
		for _, m := range te.Members {
			members = append(members, resolveTypeMember(c, m))
		}
		result = typesys.NewUnion(members)
	}
	te.Resolved.Assign(result)
	return result
}

func resolveTypeMember(c *Context, n ast.Node) typesys.Type {
	switch v := n.(type) {
	case *ast.TypeExpr:
		return ResolveTypeExpr(c, v)
	case *ast.TypeItem:
		return resolveTypeItem(c, v)
	case *ast.TypeGroup:
		return resolveTypeMember(c, v.Inner)
	case *ast.TypeTuple:
		elems := make([]typesys.Type, 0, len(v.Elements))
		for _, e := range v.Elements {
			elems = append(elems, resolveTypeMember(c, e))
		}
		result := typesys.NewTuple(elems)
		v.Resolved.Assign(result)
		return result
	case *ast.TypeSubscript:
		result := typesys.NewUndetermined()
		v.Resolved.Assign(result)
		return result
	case *ast.TypedShape:
		fields := make(map[string]typesys.Type, len(v.Fields))
		for _, f := range v.Fields {
			fields[f.Name.Name] = resolveTypeMember(c, f.Type)
		}
		result := typesys.NewSynthesizedShape(typesys.SynthesizedShape{Fields: fields})
		v.Resolved.Assign(result)
		return result
	case *ast.TypedEnum:
		members := make(map[string]struct{}, len(v.Variants))
		for _, variant := range v.Variants {
			members[variant.Name] = struct{}{}
		}
		result := typesys.NewSynthesizedEnum(typesys.SynthesizedEnum{Members: members})
		v.Resolved.Assign(result)
		return result
	case *ast.FieldNameReference:
		result := typesys.NewFieldName(v.Name.Name)
		return result
	default:
		return typesys.NewUndetermined()
	}
}

func resolveTypeItem(c *Context, ti *ast.TypeItem) typesys.Type {
	name := strings.Join(ti.Name.Names, ".")

	var base typesys.Type
	switch {
	case name == "Enumerable" && len(ti.Generics) == 1:
		base = typesys.NewEnumerable(resolveTypeMember(c, ti.Generics[0]))
	case name == "Array" && len(ti.Generics) == 1:
		base = typesys.NewArray(resolveTypeMember(c, ti.Generics[0]))
	case name == "Dictionary" && len(ti.Generics) == 1:
		base = typesys.NewDictionary(resolveTypeMember(c, ti.Generics[0]))
	case name == "Optional" && len(ti.Generics) == 1:
		base = typesys.NewOptional(resolveTypeMember(c, ti.Generics[0]))
	default:
		base = resolveNamedType(c, name, ti)
	}

	if ti.Arity.Array {
		base = typesys.NewArray(base)
	}
	if ti.Arity.Optional {
		base = base.WrapInOptional()
	}
	ti.Resolved.Assign(base)
	return base
}

func resolveNamedType(c *Context, name string, ti *ast.TypeItem) typesys.Type {
	if ctor, ok := builtinScalars[name]; ok {
		return ctor()
	}
	if name == "Self" {
		return typesys.NewKeyword(typesys.KeywordSelf)
	}
	if c.IsGenericInScope(name) {
		return typesys.NewGenericItem(name)
	}

	node, path, ok := Search(c, name, schema.IsAny)
	if !ok {
		sourcePath := ""
		if _, p, ok := c.Source(); ok {
			sourcePath = p
		}
		c.Diagnostics.AddError(diagnostics.Entry{
			Code:       diagnostics.ErrUnresolvedIdentifier,
			Message:    fmt.Sprintf("cannot find type `%s` in this scope", name),
			SourcePath: sourcePath,
			Span:       ti.Span(),
		})
		return typesys.NewUndetermined()
	}

	ref := typesys.Reference{Path: path, StringPath: topStringPath(node)}
	generics := resolveGenericsArgs(c, ti)

	switch decl := node.(type) {
	case *ast.Model:
		return typesys.NewModelObject(ref)
	case *ast.Enum:
		return typesys.NewEnumReference(ref)
	case *ast.Interface:
		checkGenericsConstraints(c, decl.Generics, generics, ti)
		return typesys.NewInterfaceObject(ref, generics)
	case *ast.StructDeclaration:
		checkGenericsConstraints(c, decl.Generics, generics, ti)
		return typesys.NewStructObject(ref, generics)
	case *ast.ConfigDeclaration:
		return typesys.NewConfig()
	default:
		return typesys.NewUndetermined()
	}
}

// checkGenericsConstraints verifies each generic argument against its
// declared bound via ConstraintTest (the relaxed satisfaction check that
// also admits a ModelObject where the bound is Model).
func checkGenericsConstraints(c *Context, decl *ast.GenericsDeclaration, args []typesys.Type, site *ast.TypeItem) {
	if decl == nil || len(args) == 0 {
		return
	}
	for i, constraint := range decl.Constraints {
		if i >= len(args) || constraint.Bound == nil {
			continue
		}
		bound := ResolveTypeExpr(c, constraint.Bound)
		if bound.Is(typesys.Undetermined) || args[i].Is(typesys.Undetermined) {
			continue
		}
		if !bound.ConstraintTest(args[i]) {
			sourcePath := ""
			if _, p, ok := c.Source(); ok {
				sourcePath = p
			}
			c.Diagnostics.AddError(diagnostics.Entry{
				Code:       diagnostics.ErrTypeMismatch,
				Message:    fmt.Sprintf("expect %s, found %s", bound.String(), args[i].String()),
				SourcePath: sourcePath,
				Span:       site.Span(),
			})
		}
	}
}

func resolveGenericsArgs(c *Context, ti *ast.TypeItem) []typesys.Type {
	if len(ti.Generics) == 0 {
		return nil
	}
	out := make([]typesys.Type, 0, len(ti.Generics))
	for _, g := range ti.Generics {
		out = append(out, resolveTypeMember(c, g))
	}
	return out
}
