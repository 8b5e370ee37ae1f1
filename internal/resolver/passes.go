package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oxhq/schemalang/internal/ast"
	"github.com/oxhq/schemalang/internal/availability"
	"github.com/oxhq/schemalang/internal/diagnostics"
	"github.com/oxhq/schemalang/internal/fsimport"
	"github.com/oxhq/schemalang/internal/schema"
	"github.com/oxhq/schemalang/internal/span"
	"github.com/oxhq/schemalang/internal/typesys"
)

// Resolve runs the resolver's five passes over every source
// registered in sc, in source-id order for determinism, appending every
// diagnostic raised along the way to bag.
func Resolve(sc *schema.Schema, bag *diagnostics.Bag) *Context {
	c := NewContext(sc, bag)

	sources := sc.AllSources()
	sort.Slice(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })

	// Pass 1: indexing. AddSource/RegisterSource already populated the
	// cross-source StringPath index as each file was parsed; here we
	// additionally resolve each file's own import table against it and
	// detect identifiers declared more than once across the whole
	// schema.
	resolveImports(sc, sources)
	detectDuplicateIdentifiers(c, sources)

	// Pass 2: availability propagation.
	for _, src := range sources {
		c.StartSource(src.ID, src.Path)
		propagateAvailability(c, src.Tops)
	}

	// Pass 3: declaration resolution (field/argument/return types).
	for _, src := range sources {
		c.StartSource(src.ID, src.Path)
		resolveDeclarations(c, src.Tops)
	}

	// Pass 4: body resolution (decorator/config argument values, constant
	// initializers, data set record field values), guarded by the
	// circular-reference stack.
	for _, src := range sources {
		c.StartSource(src.ID, src.Path)
		resolveBodies(c, src.Tops)
	}

	// Synthesized shapes & enums: every model field type
	// is resolved by this point, so every (model, kind) pair can be
	// materialized and cached once.
	synthesizeAll(c, sources)

	// Pass 5: consistency checks.
	checkConsistency(c, sources)

	return c
}

var allShapeKinds = []typesys.ShapeKind{
	typesys.ShapeWhereInput, typesys.ShapeWhereUniqueInput, typesys.ShapeScalarUpdateInput,
	typesys.ShapeCreateInput, typesys.ShapeUpdateInput, typesys.ShapeOutput,
	typesys.ShapeCreateNestedOneInput, typesys.ShapeCreateNestedManyInput,
	typesys.ShapeUpdateNestedOneInput, typesys.ShapeUpdateNestedManyInput,
}

var allEnumKinds = []typesys.EnumKind{
	typesys.EnumModelScalarFields, typesys.EnumModelSerializableScalarFields,
	typesys.EnumModelRelations, typesys.EnumModelDirectRelations, typesys.EnumModelIndirectRelations,
}

func synthesizeAll(c *Context, sources []*ast.Source) {
	for _, src := range sources {
		synthesizeTops(c, src.Tops)
	}
}

func synthesizeTops(c *Context, tops []ast.Node) {
	for _, top := range tops {
		switch v := top.(type) {
		case *ast.Namespace:
			synthesizeTops(c, v.Tops)
		case *ast.Model:
			owner := typesys.Reference{Path: v.Path(), StringPath: v.StringPath}
			for _, kind := range allShapeKinds {
				SynthesizeShape(c, typesys.SynthesizedShapeReference{Kind: kind, Owner: owner})
			}
			for _, kind := range allEnumKinds {
				SynthesizeEnum(c, typesys.SynthesizedEnumReference{Kind: kind, Owner: owner})
			}
		}
	}
}

// detectDuplicateIdentifiers walks every source's declaration tree,
// recursing into namespaces the same way every other pass does, and
// reports ErrDuplicateIdentifier the second time a fully-qualified name
// is seen anywhere in the schema, at the colliding declaration's own
// span. Namespace tops
// are excluded: reopening `namespace foo {}` across files, or even
// within one, is handled by the narrower per-file ErrDuplicateNamespace
// check in Context.PushNamespace.
func detectDuplicateIdentifiers(c *Context, sources []*ast.Source) {
	seen := map[string]bool{}
	for _, src := range sources {
		c.StartSource(src.ID, src.Path)
		walkForDuplicateIdentifiers(c, src.Tops, seen)
	}
}

func walkForDuplicateIdentifiers(c *Context, tops []ast.Node, seen map[string]bool) {
	for _, top := range tops {
		if ns, ok := top.(*ast.Namespace); ok {
			walkForDuplicateIdentifiers(c, ns.Tops, seen)
			continue
		}
		named, ok := schema.NamedStringPath(top)
		if !ok {
			continue
		}
		key := named.String()
		if seen[key] {
			c.Diagnostics.AddError(diagnostics.Entry{
				Code:       diagnostics.ErrDuplicateIdentifier,
				Message:    "identifier `" + key + "` is duplicated",
				SourcePath: src(c),
				Span:       top.Span(),
			})
			continue
		}
		seen[key] = true
	}
}

// checkDuplicateDeclEntry reports ErrDuplicateIdentifier the second time
// name is seen within the same declaration (a model's fields or an
// enum's members), keyed on Context's examined-field set by the owner's
// node path, so two same-named declarations do not share entries.
func checkDuplicateDeclEntry(c *Context, label, ownerPath string, ownerNode span.Path, name string, sp span.Span) {
	key := fmt.Sprint(ownerNode) + ":" + ownerPath + "." + name
	if c.HasExaminedField(key) {
		c.Diagnostics.AddError(diagnostics.Entry{
			Code:       diagnostics.ErrDuplicateIdentifier,
			Message:    "duplicated " + label + " `" + name + "` in `" + ownerPath + "`",
			SourcePath: src(c),
			Span:       sp,
		})
		return
	}
	c.AddExaminedField(key)
}

// checkDuplicateDefault reports when field f carries more than one
// `@default` decorator under the same availability backend — a model
// can declare a different default per database backend (`#mysql` vs
// `#postgres`) but not two for the same one — using
// Context.AddExaminedDefaultPath, built for exactly this branching but
// never called before now.
func checkDuplicateDefault(c *Context, ownerPath string, f *ast.Field) {
	backend := c.CurrentAvailability()
	fieldKey := ownerPath + "." + f.Name.Name
	for _, d := range f.Decorators {
		last := ""
		if len(d.NamePath.Names) > 0 {
			last = d.NamePath.Names[len(d.NamePath.Names)-1]
		}
		if last != "default" {
			continue
		}
		if !c.AddExaminedDefaultPath(backend, fieldKey) {
			c.Diagnostics.AddError(diagnostics.Entry{
				Code:       diagnostics.ErrDuplicateIdentifier,
				Message:    "duplicated `@default` on field `" + fieldKey + "`",
				SourcePath: src(c),
				Span:       d.Span(),
			})
		}
	}
}

func resolveImports(sc *schema.Schema, sources []*ast.Source) {
	for _, src := range sources {
		for _, imp := range src.Imports {
			target := fsimport.ResolveImport(src.Path, imp.FromPath)
			if targetSrc, ok := sc.SourceAtPath(target); ok {
				imp.ResolvedSourceID.Assign(targetSrc.ID)
			}
		}
	}
}

func propagateAvailability(c *Context, tops []ast.Node) {
	for _, top := range tops {
		switch v := top.(type) {
		case *ast.AvailabilityFlagStart:
			flagName := strings.TrimPrefix(v.FlagName, "#")
			flag, known := availability.Lookup(flagName)
			if !known {
				flag = availability.None
				c.Diagnostics.AddError(diagnostics.Entry{
					Code:       diagnostics.ErrUnknownAvailabilityFlag,
					Message:    "unknown availability flag `#" + flagName + "`",
					SourcePath: src(c),
					Span:       v.Span(),
				})
			} else if top := c.CurrentAvailability(); !top.IsEmpty() && top.Intersect(flag).IsEmpty() {
				c.Diagnostics.AddError(diagnostics.Entry{
					Code:       diagnostics.ErrUnreachableAvailabilityFlag,
					Message:    "unreachable availability flag `#" + flagName + "`",
					SourcePath: src(c),
					Span:       v.Span(),
				})
			}
			// Push even when unknown or unreachable so the matching
			// `#end` stays balanced.
			c.PushAvailability(flag)
		case *ast.AvailabilityFlagEnd:
			c.PopAvailability()
		case *ast.Namespace:
			v.SetActualAvailability(c.CurrentAvailability())
			c.PushNamespace(v.StringPath, v.Span())
			propagateAvailability(c, v.Tops)
			c.PopNamespace()
		default:
			if withAvailability, ok := top.(interface {
				SetActualAvailability(availability.Availability)
			}); ok {
				withAvailability.SetActualAvailability(c.CurrentAvailability())
			}
		}
	}
}

func resolveDeclarations(c *Context, tops []ast.Node) {
	for _, top := range tops {
		switch v := top.(type) {
		case *ast.Namespace:
			c.EnterNamespace(v.StringPath)
			resolveDeclarations(c, v.Tops)
			c.PopNamespace()
		case *ast.Model:
			owner := v.StringPath.String()
			for _, f := range v.Fields {
				checkDuplicateDeclEntry(c, "model field", owner, v.Path(), f.Name.Name, f.Span())
				ResolveTypeExpr(c, f.Type_)
			}
		case *ast.Interface:
			if v.Generics != nil {
				c.PushGenericsScope(genericsNames(v.Generics))
			}
			for _, f := range v.Fields {
				ResolveTypeExpr(c, f.Type_)
			}
			if v.Generics != nil {
				c.PopGenericsScope()
			}
		case *ast.Enum:
			owner := v.StringPath.String()
			for _, m := range v.Members {
				checkDuplicateDeclEntry(c, "enum member", owner, v.Path(), m.Name.Name, m.Span())
			}
		case *ast.StructDeclaration:
			if v.Generics != nil {
				c.PushGenericsScope(genericsNames(v.Generics))
			}
			for _, fn := range v.Functions {
				resolveFunctionSignature(c, fn)
			}
			if v.Generics != nil {
				c.PopGenericsScope()
			}
		case *ast.FunctionDeclaration:
			resolveFunctionSignature(c, v)
		case *ast.ConstantDeclaration:
			if v.Type_ != nil {
				ResolveTypeExpr(c, v.Type_)
			}
		case *ast.HandlerGroupDeclaration:
			for _, h := range v.Handlers {
				for _, a := range h.Arguments {
					if a.Type_ != nil {
						ResolveTypeExpr(c, a.Type_)
					}
				}
				if h.ReturnType != nil {
					ResolveTypeExpr(c, h.ReturnType)
				}
			}
		}
	}
}

// resolveBodies walks every declaration that carries an expression body
// (decorator arguments, constant initializers, config item values, data
// set record field values) and resolves it against its expected type.
func resolveBodies(c *Context, tops []ast.Node) {
	for _, top := range tops {
		switch v := top.(type) {
		case *ast.AvailabilityFlagStart:
			// Track the flag stack again (diagnostics for unknown or
			// unreachable flags were already raised in pass 2) so
			// per-backend checks like checkDuplicateDefault see the
			// right availability.
			flag, ok := availability.Lookup(strings.TrimPrefix(v.FlagName, "#"))
			if !ok {
				flag = availability.None
			}
			c.PushAvailability(flag)
		case *ast.AvailabilityFlagEnd:
			c.PopAvailability()
		case *ast.Namespace:
			c.EnterNamespace(v.StringPath)
			resolveBodies(c, v.Tops)
			c.PopNamespace()
		case *ast.Model:
			resolveDecoratorList(c, v.Decorators)
			owner := v.StringPath.String()
			for _, f := range v.Fields {
				resolveDecoratorList(c, f.Decorators)
				checkDuplicateDefault(c, owner, f)
			}
		case *ast.Interface:
			for _, f := range v.Fields {
				resolveDecoratorList(c, f.Decorators)
			}
		case *ast.Enum:
			for _, m := range v.Members {
				resolveDecoratorList(c, m.Decorators)
			}
		case *ast.ConstantDeclaration:
			ResolveConstant(c, v)
		case *ast.ConfigDeclaration:
			for _, cfg := range v.Configs {
				for _, item := range cfg.Items {
					resolveElemType(c, item.Value, typesys.NewUndetermined())
				}
			}
		case *ast.DataSet:
			for _, group := range v.Groups {
				resolveDataSetGroup(c, group)
			}
		case *ast.HandlerGroupDeclaration:
			for _, h := range v.Handlers {
				resolveDecoratorList(c, h.Decorators)
			}
		}
	}
}

// resolveDecoratorList resolves each decorator's own reference and
// aligns its call-site arguments against the matched declaration's
// ArgumentDeclaration types, in source order (positional) falling back
// to name matching.
func resolveDecoratorList(c *Context, decorators []*ast.Decorator) {
	for _, dec := range decorators {
		resolveDecorator(c, dec)
	}
}

func resolveDecorator(c *Context, dec *ast.Decorator) {
	name := strings.Join(dec.NamePath.Names, ".")
	node, path, ok := Search(c, name, isDecorator)
	if !ok {
		errAt(c, diagnostics.ErrUnresolvedIdentifier, "cannot find decorator `"+name+"`", dec.Span())
		resolveArgumentListLoosely(c, dec.Arguments)
		return
	}
	decl := node.(*ast.DecoratorDeclaration)
	ref := typesys.Reference{Path: path, StringPath: decl.StringPath}
	dec.Resolved.Assign(ref)

	if dec.Arguments == nil {
		return
	}
	for i, arg := range dec.Arguments.Arguments {
		argDecl := matchArgumentDeclaration(decl.Arguments, arg, i)
		expected := typesys.NewUndetermined()
		if argDecl != nil && argDecl.Type_ != nil {
			expected = ResolveTypeExpr(c, argDecl.Type_)
		}
		actual := resolveElemType(c, arg.Value, expected)
		if argDecl != nil {
			CheckAssignable(c, expected, actual, arg.Value.Span())
		}
	}
}

func matchArgumentDeclaration(decls []*ast.ArgumentDeclaration, arg *ast.Argument, position int) *ast.ArgumentDeclaration {
	if arg.Name != nil {
		for _, d := range decls {
			if d.Name.Name == arg.Name.Name {
				return d
			}
		}
		return nil
	}
	if position < len(decls) {
		return decls[position]
	}
	return nil
}

// resolveDataSetGroup resolves a dataset group's target model reference
// and type-checks every record's field values against that model's
// declared field types.
func resolveDataSetGroup(c *Context, group *ast.DataSetGroup) {
	modelName := strings.Join(group.ModelPath.Names, ".")
	node, path, ok := Search(c, modelName, schema.IsModel)
	if !ok {
		errAt(c, diagnostics.ErrUnresolvedIdentifier, "cannot find model `"+modelName+"`", group.Span())
		for _, rec := range group.Records {
			for _, f := range rec.Fields {
				resolveElemType(c, f.Value, typesys.NewUndetermined())
			}
		}
		return
	}
	model := node.(*ast.Model)
	ref := typesys.Reference{Path: path, StringPath: model.StringPath}
	group.Resolved.Assign(ref)

	for _, rec := range group.Records {
		for _, f := range rec.Fields {
			fieldDecl := findModelField(model, f.Name.Name)
			expected := typesys.NewUndetermined()
			if fieldDecl != nil {
				expected = ResolveTypeExpr(c, fieldDecl.Type_)
			} else {
				errAt(c, diagnostics.ErrUnresolvedIdentifier, "model `"+model.StringPath.String()+"` has no field `"+f.Name.Name+"`", f.Span())
			}
			actual := resolveElemType(c, f.Value, expected)
			if fieldDecl != nil {
				CheckAssignable(c, expected, actual, f.Value.Span())
			}
		}
		checkRecordRequiredFields(c, model, rec)
	}
}

// checkRecordRequiredFields reports every required model field a record
// leaves unset. A field is required when its type is non-optional and no
// decorator supplies its value for it (`@default`, `@autoIncrement`,
// `@updatedAt`, `@relation`).
func checkRecordRequiredFields(c *Context, model *ast.Model, rec *ast.DataSetRecord) {
	for _, f := range model.Fields {
		if findRecordField(rec, f.Name.Name) != nil {
			continue
		}
		t, resolved := f.Type_.Resolved.Get()
		if resolved && t.Is(typesys.Optional) {
			continue
		}
		if hasValueSupplyingDecorator(f) {
			continue
		}
		errAt(c, diagnostics.ErrTypeMismatch, "missing required field `"+f.Name.Name+"`", rec.Span())
	}
}

func findRecordField(rec *ast.DataSetRecord, name string) *ast.ConfigItem {
	for _, f := range rec.Fields {
		if f.Name.Name == name {
			return f
		}
	}
	return nil
}

var valueSupplyingDecorators = map[string]bool{
	"default": true, "autoIncrement": true, "updatedAt": true, "relation": true,
}

func hasValueSupplyingDecorator(f *ast.Field) bool {
	for _, d := range f.Decorators {
		if len(d.NamePath.Names) == 0 {
			continue
		}
		if valueSupplyingDecorators[d.NamePath.Names[len(d.NamePath.Names)-1]] {
			return true
		}
	}
	return false
}

func findModelField(model *ast.Model, name string) *ast.Field {
	for _, f := range model.Fields {
		if f.Name.Name == name {
			return f
		}
	}
	return nil
}

func resolveFunctionSignature(c *Context, fn *ast.FunctionDeclaration) {
	for _, a := range fn.Arguments {
		if a.Type_ != nil {
			ResolveTypeExpr(c, a.Type_)
		}
	}
	if fn.ReturnType != nil {
		ResolveTypeExpr(c, fn.ReturnType)
	}
}

func genericsNames(g *ast.GenericsDeclaration) []string {
	out := make([]string, 0, len(g.Names))
	for _, n := range g.Names {
		out = append(out, n.Name)
	}
	return out
}

// checkConsistency performs the cross-cutting checks that need every
// declaration already resolved: duplicate dataset records and
// middleware-path resolution on handler groups.
func checkConsistency(c *Context, sources []*ast.Source) {
	for _, src := range sources {
		c.StartSource(src.ID, src.Path)
		checkDataSets(c, src.Tops)
		checkHandlerGroups(c, src.Tops)
		checkConfigs(c, src, src.Tops)
	}
}

// checkConfigs enforces the config rules: the declaration form of
// `config X { ... }` lives only in a builtin source under the `std`
// namespace; the same syntax anywhere else is a usage that must match a
// builtin declaration by name, with its items checked per block against
// the declared ones (a declared item with a null default is optional,
// everything else is required).
func checkConfigs(c *Context, source *ast.Source, tops []ast.Node) {
	for _, top := range tops {
		switch v := top.(type) {
		case *ast.Namespace:
			checkConfigs(c, source, v.Tops)
		case *ast.ConfigDeclaration:
			if source.Path == "" {
				if !IsStd(v.StringPath) {
					c.Diagnostics.AddError(diagnostics.Entry{
						Code:       diagnostics.ErrConfigNotAllowed,
						Message:    "config declaration `" + v.Identifier.Name + "` must live in the std namespace",
						SourcePath: src(c),
						Span:       v.Span(),
					})
				}
				continue
			}
			checkConfigUsage(c, v)
		}
	}
}

func checkConfigUsage(c *Context, usage *ast.ConfigDeclaration) {
	decl := findBuiltinConfig(c, usage.Identifier.Name)
	if decl == nil {
		c.Diagnostics.AddError(diagnostics.Entry{
			Code:       diagnostics.ErrUndefinedConfig,
			Message:    "configuration `" + usage.Identifier.Name + "` is undefined",
			SourcePath: src(c),
			Span:       usage.Span(),
		})
		return
	}
	for _, block := range usage.Configs {
		declBlock := findConfigBlock(decl, block.Keyword.Text)
		if declBlock == nil {
			c.Diagnostics.AddError(diagnostics.Entry{
				Code:       diagnostics.ErrUndefinedConfigItem,
				Message:    "undefined config item `" + block.Keyword.Text + "`",
				SourcePath: src(c),
				Span:       block.Span(),
			})
			continue
		}
		checkConfigBlock(c, block, declBlock)
	}
}

func checkConfigBlock(c *Context, block, declBlock *ast.Config) {
	for _, item := range block.Items {
		declItem := findConfigItem(declBlock, item.Name.Name)
		if declItem == nil {
			c.Diagnostics.AddError(diagnostics.Entry{
				Code:       diagnostics.ErrUndefinedConfigItem,
				Message:    "undefined config item `" + item.Name.Name + "`",
				SourcePath: src(c),
				Span:       item.Span(),
			})
			continue
		}
		expected := resolveElemType(c, declItem.Value, typesys.NewUndetermined())
		actual := resolveElemType(c, item.Value, expected)
		if !expected.Is(typesys.Null) {
			CheckAssignable(c, expected, actual, item.Value.Span())
		}
	}
	for _, declItem := range declBlock.Items {
		if isNullLiteral(declItem.Value) {
			continue
		}
		if findConfigItem(block, declItem.Name.Name) == nil {
			c.Diagnostics.AddError(diagnostics.Entry{
				Code:       diagnostics.ErrMissingConfigItem,
				Message:    "missing required config item `" + declItem.Name.Name + "`",
				SourcePath: src(c),
				Span:       block.Span(),
			})
		}
	}
}

// findBuiltinConfig scans the builtin sources for the std config
// declaration a usage site refers to by bare name.
func findBuiltinConfig(c *Context, name string) *ast.ConfigDeclaration {
	for _, b := range c.Schema.BuiltinSources() {
		if decl := findConfigDeclIn(b.Tops, name); decl != nil {
			return decl
		}
	}
	return nil
}

func findConfigDeclIn(tops []ast.Node, name string) *ast.ConfigDeclaration {
	for _, top := range tops {
		switch v := top.(type) {
		case *ast.Namespace:
			if decl := findConfigDeclIn(v.Tops, name); decl != nil {
				return decl
			}
		case *ast.ConfigDeclaration:
			if v.Identifier.Name == name && IsStd(v.StringPath) {
				return v
			}
		}
	}
	return nil
}

func findConfigBlock(decl *ast.ConfigDeclaration, keyword string) *ast.Config {
	for _, b := range decl.Configs {
		if b.Keyword.Text == keyword {
			return b
		}
	}
	return nil
}

func findConfigItem(block *ast.Config, name string) *ast.ConfigItem {
	for _, i := range block.Items {
		if i.Name.Name == name {
			return i
		}
	}
	return nil
}

func isNullLiteral(e *ast.Expression) bool {
	if e == nil {
		return true
	}
	_, ok := e.Inner.(*ast.NullLiteral)
	return ok
}

func checkDataSets(c *Context, tops []ast.Node) {
	for _, top := range tops {
		switch v := top.(type) {
		case *ast.Namespace:
			checkDataSets(c, v.Tops)
		case *ast.DataSet:
			datasetName := v.StringPath.String()
			if c.HasExaminedDataSet(datasetName) {
				c.Diagnostics.AddError(diagnostics.Entry{
					Code:       diagnostics.ErrDuplicateIdentifier,
					Message:    "duplicated dataset `" + datasetName + "`",
					SourcePath: src(c),
					Span:       v.Span(),
				})
			}
			c.AddExaminedDataSet(datasetName)
			for _, group := range v.Groups {
				modelName := strings.Join(group.ModelPath.Names, ".")
				for _, rec := range group.Records {
					if c.HasExaminedDataSetRecord(datasetName, modelName, rec.Name.Name) {
						c.Diagnostics.AddError(diagnostics.Entry{
							Code:       diagnostics.ErrDuplicateDataSetRecord,
							Message:    "duplicated record `" + rec.Name.Name + "` in dataset `" + datasetName + "`",
							SourcePath: src(c),
							Span:       rec.Span(),
						})
					}
					c.AddExaminedDataSetRecord(datasetName, modelName, rec.Name.Name)
				}
			}
		}
	}
}

func checkHandlerGroups(c *Context, tops []ast.Node) {
	for _, top := range tops {
		switch v := top.(type) {
		case *ast.Namespace:
			checkHandlerGroups(c, v.Tops)
		case *ast.HandlerGroupDeclaration:
			for _, mw := range v.Middlewares {
				path := strings.Join(mw.Names, ".")
				if c.HasExaminedMiddlewarePath(path) {
					continue
				}
				c.AddExaminedMiddlewarePath(path)
				if _, _, ok := Search(c, path, isMiddleware); !ok {
					c.Diagnostics.AddError(diagnostics.Entry{
						Code:       diagnostics.ErrUnresolvedIdentifier,
						Message:    "cannot find middleware `" + path + "`",
						SourcePath: src(c),
						Span:       mw.Span(),
					})
				}
			}
		}
	}
}

func isMiddleware(n ast.Node) bool {
	_, ok := n.(*ast.MiddlewareDeclaration)
	return ok
}

func src(c *Context) string {
	_, path, _ := c.Source()
	return path
}
