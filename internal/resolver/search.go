package resolver

import (
	"strings"

	"github.com/oxhq/schemalang/internal/ast"
	"github.com/oxhq/schemalang/internal/schema"
	"github.com/oxhq/schemalang/internal/span"
)

// Search resolves a dotted identifier path to a top-level declaration
// by walking outward through the
// enclosing namespace stack first (innermost scope wins), then scan the
// current source's own top-level declarations, then follow import
// statements transitively, and finally fall back to the `std` builtin
// namespace. filter restricts which declaration kinds are acceptable
// (schema.IsAny to accept anything).
func Search(c *Context, name string, filter schema.TopFilter) (ast.Node, span.Path, bool) {
	stack := c.NamespaceStackSnapshot()
	for i := len(stack); i > 0; i-- {
		ns := stack[i-1]
		if n, p, ok := lookupQualified(c.Schema, ns.String()+"."+name, filter); ok {
			return n, p, ok
		}
	}

	if n, p, ok := lookupQualified(c.Schema, name, filter); ok {
		return n, p, ok
	}

	if id, path, ok := c.Source(); ok {
		_ = id
		if n, p, ok := searchCurrentSource(c.Schema, path, name, filter); ok {
			return n, p, ok
		}
		if n, p, ok := searchImports(c.Schema, path, name, filter, make(map[string]bool)); ok {
			return n, p, ok
		}
	}

	if n, p, ok := lookupQualified(c.Schema, "std."+name, filter); ok {
		return n, p, ok
	}

	return nil, nil, false
}

// SearchAt runs the same procedure as Search but against an explicit
// namespace stack and source path instead of a live Context's stateful
// stacks, for callers (language services) that query an arbitrary cursor
// position after resolution has already completed and every pass-scoped
// stack has unwound back to empty.
func SearchAt(sc *schema.Schema, namespaceStack []span.StringPath, sourcePath, name string, filter schema.TopFilter) (ast.Node, span.Path, bool) {
	for i := len(namespaceStack); i > 0; i-- {
		ns := namespaceStack[i-1]
		if n, p, ok := lookupQualified(sc, ns.String()+"."+name, filter); ok {
			return n, p, ok
		}
	}
	if n, p, ok := lookupQualified(sc, name, filter); ok {
		return n, p, ok
	}
	if n, p, ok := searchCurrentSource(sc, sourcePath, name, filter); ok {
		return n, p, ok
	}
	if n, p, ok := searchImports(sc, sourcePath, name, filter, make(map[string]bool)); ok {
		return n, p, ok
	}
	if n, p, ok := lookupQualified(sc, "std."+name, filter); ok {
		return n, p, ok
	}
	return nil, nil, false
}

func lookupQualified(sc *schema.Schema, dotted string, filter schema.TopFilter) (ast.Node, span.Path, bool) {
	path, ok := sc.FindTopByStringPath(dotted)
	if !ok {
		return nil, nil, false
	}
	src, ok := sc.Source(sourceIDOf(path))
	if !ok {
		return nil, nil, false
	}
	node := findNodeByPath(src, path)
	if node == nil || !filter(node) {
		return nil, nil, false
	}
	return node, path, true
}

func sourceIDOf(p span.Path) int {
	if len(p) == 0 {
		return 0
	}
	return p[0]
}

// findNodeByPath walks a Source's Tops to find the node addressed by
// path. Only top-level declarations are addressable this way; nested
// lookups (fields, enum members) are resolved structurally by their
// owning declaration instead.
func findNodeByPath(src *ast.Source, path span.Path) ast.Node {
	for _, top := range src.Tops {
		if top.Path().Equal(path) {
			return top
		}
		if ns, ok := top.(*ast.Namespace); ok {
			if found := findNodeByPathIn(ns.Tops, path); found != nil {
				return found
			}
		}
	}
	return nil
}

func findNodeByPathIn(tops []ast.Node, path span.Path) ast.Node {
	for _, top := range tops {
		if top.Path().Equal(path) {
			return top
		}
		if ns, ok := top.(*ast.Namespace); ok {
			if found := findNodeByPathIn(ns.Tops, path); found != nil {
				return found
			}
		}
	}
	return nil
}

// searchCurrentSource scans every top-level declaration visible in the
// file at sourcePath for a bare (undotted) name match.
func searchCurrentSource(sc *schema.Schema, sourcePath, name string, filter schema.TopFilter) (ast.Node, span.Path, bool) {
	src, ok := sc.SourceAtPath(sourcePath)
	if !ok {
		return nil, nil, false
	}
	return searchTopsForName(src.Tops, name, filter)
}

func searchTopsForName(tops []ast.Node, name string, filter schema.TopFilter) (ast.Node, span.Path, bool) {
	for _, top := range tops {
		if last := lastSegment(topStringPath(top)); last == name && filter(top) {
			return top, top.Path(), true
		}
		if ns, ok := top.(*ast.Namespace); ok {
			if n, p, ok := searchTopsForName(ns.Tops, name, filter); ok {
				return n, p, ok
			}
		}
	}
	return nil, nil, false
}

func topStringPath(n ast.Node) span.StringPath {
	switch v := n.(type) {
	case *ast.Model:
		return v.StringPath
	case *ast.Enum:
		return v.StringPath
	case *ast.Interface:
		return v.StringPath
	case *ast.ConfigDeclaration:
		return v.StringPath
	case *ast.DataSet:
		return v.StringPath
	case *ast.DecoratorDeclaration:
		return v.StringPath
	case *ast.PipelineItemDeclaration:
		return v.StringPath
	case *ast.MiddlewareDeclaration:
		return v.StringPath
	case *ast.StructDeclaration:
		return v.StringPath
	case *ast.FunctionDeclaration:
		return v.StringPath
	case *ast.HandlerGroupDeclaration:
		return v.StringPath
	case *ast.ConstantDeclaration:
		return v.StringPath
	case *ast.Namespace:
		return v.StringPath
	default:
		return nil
	}
}

func lastSegment(sp span.StringPath) string {
	if len(sp) == 0 {
		return ""
	}
	return sp[len(sp)-1]
}

// searchImports follows a source's import table transitively, guarding
// against import cycles with a visited set keyed by source path.
func searchImports(sc *schema.Schema, sourcePath, name string, filter schema.TopFilter, visited map[string]bool) (ast.Node, span.Path, bool) {
	if visited[sourcePath] {
		return nil, nil, false
	}
	visited[sourcePath] = true

	src, ok := sc.SourceAtPath(sourcePath)
	if !ok {
		return nil, nil, false
	}
	for _, imp := range src.Imports {
		resolvedID, isResolved := imp.ResolvedSourceID.Get()
		if !isResolved {
			continue
		}
		importedSrc, ok := sc.Source(resolvedID)
		if !ok {
			continue
		}
		if len(imp.Identifiers) == 0 {
			if n, p, ok := searchTopsForName(importedSrc.Tops, name, filter); ok {
				return n, p, ok
			}
			if n, p, ok := searchImports(sc, importedSrc.Path, name, filter, visited); ok {
				return n, p, ok
			}
			continue
		}
		for _, id := range imp.Identifiers {
			if id.Name != name {
				continue
			}
			if n, p, ok := searchTopsForName(importedSrc.Tops, name, filter); ok {
				return n, p, ok
			}
		}
	}
	return nil, nil, false
}

// IsStd reports whether a StringPath is rooted at the builtin `std`
// namespace, used by diagnostics that special-case builtin references.
func IsStd(sp span.StringPath) bool {
	return len(sp) > 0 && strings.EqualFold(sp[0], "std")
}
