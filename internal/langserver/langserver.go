// Package langserver implements the completion and go-to-definition
// entry points: both descend through a source's tops using span
// containment to find the node under the cursor, then dispatch to a
// kind-specific finder.
package langserver

import (
	"sort"
	"strings"

	"github.com/oxhq/schemalang/internal/ast"
	"github.com/oxhq/schemalang/internal/resolver"
	"github.com/oxhq/schemalang/internal/schema"
	"github.com/oxhq/schemalang/internal/span"
)

// CompletionItem is one suggestion offered at a cursor position.
type CompletionItem struct {
	Label         string
	NamespacePath string
	Documentation string
	Detail        string
}

// Definition is one go-to-definition result.
type Definition struct {
	FilePath       string
	SelectionSpan  span.Span
	TargetSpan     span.Span
	IdentifierSpan span.Span
}

// TypeExprFilter restricts which names a type-expression position's
// completion offers.
type TypeExprFilter int

const (
	FilterNone TypeExprFilter = iota
	FilterModel
	FilterActionInput
)

// locate walks down from src's tops to the innermost node whose span
// contains line/col, returning the full ancestor chain (src.Tops'
// synthetic root omitted, deepest last).
func locate(tops []ast.Node, line, col int) []ast.Node {
	for _, top := range tops {
		if !top.Span().Contains(line, col) {
			continue
		}
		chain := []ast.Node{top}
		if wc, ok := top.(ast.WithChildren); ok {
			chain = append(chain, locate(wc.ChildNodes(), line, col)...)
		}
		return chain
	}
	return nil
}

// namespaceStack collects the StringPath of every *ast.Namespace ancestor
// in chain, outermost first.
func namespaceStack(chain []ast.Node) []span.StringPath {
	var out []span.StringPath
	for _, n := range chain {
		if ns, ok := n.(*ast.Namespace); ok {
			out = append(out, ns.StringPath)
		}
	}
	return out
}

// genericsInScope collects every generic parameter name bound by an
// enclosing Interface or StructDeclaration's generics clause in chain.
func genericsInScope(chain []ast.Node) []string {
	var out []string
	for _, n := range chain {
		var g *ast.GenericsDeclaration
		switch v := n.(type) {
		case *ast.Interface:
			g = v.Generics
		case *ast.StructDeclaration:
			g = v.Generics
		}
		if g == nil {
			continue
		}
		for _, name := range g.Names {
			out = append(out, name.Name)
		}
	}
	return out
}

// inTypeExprPosition reports whether the deepest node in chain sits
// inside a type expression, and if so which filter applies based on the
// nearest containing declaration kind.
func inTypeExprPosition(chain []ast.Node) (bool, TypeExprFilter) {
	filter := FilterNone
	found := false
	for _, n := range chain {
		switch n.(type) {
		case *ast.TypeExpr, *ast.TypeItem:
			found = true
		case *ast.ArgumentDeclaration:
			// decorator/pipeline-item/function arguments feed action input
			filter = FilterActionInput
		case *ast.Field:
			filter = FilterModel
		}
	}
	return found, filter
}

func topFilterFor(filter TypeExprFilter) schema.TopFilter {
	switch filter {
	case FilterModel:
		return func(n ast.Node) bool {
			switch n.(type) {
			case *ast.Model, *ast.Enum, *ast.Interface, *ast.StructDeclaration:
				return true
			}
			return false
		}
	case FilterActionInput:
		return func(n ast.Node) bool {
			switch n.(type) {
			case *ast.Model, *ast.Enum, *ast.Interface, *ast.StructDeclaration, *ast.ConfigDeclaration:
				return true
			}
			return false
		}
	default:
		return schema.IsAny
	}
}

// Complete implements the (schema, source, line_col) -> []CompletionItem
// entry point.
func Complete(sc *schema.Schema, filePath string, line, col int) []CompletionItem {
	src, ok := sc.SourceAtPath(filePath)
	if !ok {
		return nil
	}
	chain := locate(src.Tops, line, col)
	if len(chain) == 0 {
		return nil
	}

	isType, filter := inTypeExprPosition(chain)
	if !isType {
		return completeGeneral(sc)
	}

	var items []CompletionItem
	if filter != FilterActionInput {
		for _, name := range resolver.BuiltinScalarNames() {
			if filter == FilterModel && (name == "Any" || name == "Ignored") {
				continue
			}
			items = append(items, CompletionItem{Label: name, Detail: "builtin type"})
		}
	}
	for _, name := range genericsInScope(chain) {
		items = append(items, CompletionItem{Label: name, Detail: "generic parameter"})
	}
	items = append(items, referenceTypeItems(sc, topFilterFor(filter))...)
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

// completeGeneral offers every named declaration of every registered
// source, regardless of the cursor's namespace or imports, used outside
// type-expression contexts (config
// blocks, decorator invocations, middleware lists, handler-group bodies).
func completeGeneral(sc *schema.Schema) []CompletionItem {
	return referenceTypeItems(sc, schema.IsAny)
}

func referenceTypeItems(sc *schema.Schema, filter schema.TopFilter) []CompletionItem {
	seen := map[string]bool{}
	var items []CompletionItem
	add := func(node ast.Node, label string) {
		if seen[label] {
			return
		}
		seen[label] = true
		items = append(items, CompletionItem{Label: label, NamespacePath: declNamespace(node), Detail: detailFor(node)})
	}
	for _, src := range sc.AllSources() {
		walkTopsForCompletion(src.Tops, filter, add)
	}
	return items
}

func walkTopsForCompletion(tops []ast.Node, filter schema.TopFilter, add func(ast.Node, string)) {
	for _, top := range tops {
		if ns, ok := top.(*ast.Namespace); ok {
			walkTopsForCompletion(ns.Tops, filter, add)
			continue
		}
		if !filter(top) {
			continue
		}
		if name, ok := declName(top); ok {
			add(top, name)
		}
	}
}

func declName(n ast.Node) (string, bool) {
	switch v := n.(type) {
	case *ast.Model:
		return v.Identifier.Name, true
	case *ast.Enum:
		return v.Identifier.Name, true
	case *ast.Interface:
		return v.Identifier.Name, true
	case *ast.StructDeclaration:
		return v.Identifier.Name, true
	case *ast.ConfigDeclaration:
		return v.Identifier.Name, true
	case *ast.DataSet:
		return v.Identifier.Name, true
	case *ast.DecoratorDeclaration:
		return v.Identifier.Name, true
	case *ast.PipelineItemDeclaration:
		return v.Identifier.Name, true
	case *ast.MiddlewareDeclaration:
		return v.Identifier.Name, true
	case *ast.FunctionDeclaration:
		return v.Identifier.Name, true
	case *ast.HandlerGroupDeclaration:
		return v.Identifier.Name, true
	case *ast.ConstantDeclaration:
		return v.Identifier.Name, true
	default:
		return "", false
	}
}

func declNamespace(n ast.Node) string {
	switch v := n.(type) {
	case *ast.Model:
		return strings.Join(v.StringPath[:len(v.StringPath)-1], ".")
	case *ast.Enum:
		return strings.Join(v.StringPath[:len(v.StringPath)-1], ".")
	case *ast.Interface:
		return strings.Join(v.StringPath[:len(v.StringPath)-1], ".")
	default:
		return ""
	}
}

func detailFor(n ast.Node) string {
	switch n.(type) {
	case *ast.Model:
		return "model"
	case *ast.Enum:
		return "enum"
	case *ast.Interface:
		return "interface"
	case *ast.StructDeclaration:
		return "struct"
	case *ast.ConfigDeclaration:
		return "config"
	case *ast.DataSet:
		return "dataset"
	case *ast.DecoratorDeclaration:
		return "decorator"
	case *ast.PipelineItemDeclaration:
		return "pipelineitem"
	case *ast.MiddlewareDeclaration:
		return "middleware"
	case *ast.FunctionDeclaration:
		return "function"
	case *ast.HandlerGroupDeclaration:
		return "handlerGroup"
	case *ast.ConstantDeclaration:
		return "const"
	default:
		return ""
	}
}

// Define implements the (schema, source, line_col) -> []Definition entry
// point. At identifier leaves it runs name resolution and
// returns the resolved declaration's location; for type-item identifiers
// it checks enclosing generics before querying the schema.
func Define(sc *schema.Schema, filePath string, line, col int) []Definition {
	src, ok := sc.SourceAtPath(filePath)
	if !ok {
		return nil
	}
	chain := locate(src.Tops, line, col)
	if len(chain) == 0 {
		return nil
	}
	deepest := chain[len(chain)-1]

	name, identSpan, filter := targetName(chain, deepest)
	if name == "" {
		return nil
	}

	for _, g := range genericsInScope(chain) {
		if g == name {
			return nil
		}
	}

	node, nodePath, ok := resolver.SearchAt(sc, namespaceStack(chain), src.Path, name, filter)
	if !ok {
		return nil
	}
	targetFile := filePath
	if declSrc, ok := sc.Source(nodePath.SourceID()); ok {
		targetFile = declSrc.Path
	}
	return []Definition{{
		FilePath:       targetFile,
		SelectionSpan:  identSpan,
		TargetSpan:     node.Span(),
		IdentifierSpan: identSpan,
	}}
}

// targetName extracts the identifier text and span to resolve at the
// cursor, along with the TopFilter appropriate to its syntactic position.
func targetName(chain []ast.Node, deepest ast.Node) (string, span.Span, schema.TopFilter) {
	switch v := deepest.(type) {
	case *ast.Identifier:
		return v.Name, v.Span(), filterForContext(chain)
	case *ast.IdentifierPath:
		if len(v.Names) > 0 {
			return v.Names[len(v.Names)-1], v.Span(), filterForContext(chain)
		}
	}
	return "", span.Span{}, schema.IsAny
}

func filterForContext(chain []ast.Node) schema.TopFilter {
	for i := len(chain) - 1; i >= 0; i-- {
		switch chain[i].(type) {
		case *ast.TypeItem, *ast.TypeExpr:
			return func(n ast.Node) bool {
				switch n.(type) {
				case *ast.Model, *ast.Enum, *ast.Interface, *ast.StructDeclaration, *ast.ConfigDeclaration:
					return true
				}
				return false
			}
		case *ast.Decorator:
			return func(n ast.Node) bool { _, ok := n.(*ast.DecoratorDeclaration); return ok }
		case *ast.DataSetGroup:
			return schema.IsModel
		case *ast.HandlerGroupDeclaration:
			return func(n ast.Node) bool { _, ok := n.(*ast.MiddlewareDeclaration); return ok }
		}
	}
	return schema.IsAny
}
