// Package schema owns the whole parsed program: every ast.Source keyed
// by its schema-internal id, plus the cross-source indexes the resolver
// needs to look up a declaration by path without re-walking the tree.
package schema

import (
	"strings"

	"github.com/oxhq/schemalang/internal/ast"
	"github.com/oxhq/schemalang/internal/availability"
	"github.com/oxhq/schemalang/internal/span"
)

// Schema is the root container: one Source per parsed file (including
// builtin sources), addressed by a stable integer id matching
// span.Path's leading element.
type Schema struct {
	sources   map[int]*ast.Source
	byPath    map[string]*ast.Source // absolute file path -> Source, excluding builtins
	builtins  []*ast.Source
	nextID    int
	tops      map[string]span.Path // dotted StringPath -> node path, for every named top-level declaration
}

// New returns an empty Schema.
func New() *Schema {
	return &Schema{
		sources: make(map[int]*ast.Source),
		byPath:  make(map[string]*ast.Source),
		tops:    make(map[string]span.Path),
	}
}

// AddSource registers a parsed file under a freshly allocated id and
// indexes its top-level declarations. absPath is empty for builtin
// sources (they have no on-disk location).
func (s *Schema) AddSource(absPath string, tops []ast.Node) *ast.Source {
	id := s.nextID
	s.nextID++
	src := ast.NewSource(span.Span{}, id, absPath, tops, nil)
	s.sources[id] = src
	if absPath == "" {
		s.builtins = append(s.builtins, src)
	} else {
		s.byPath[absPath] = src
	}
	s.indexTops(src)
	return src
}

// ReserveSourceID allocates the next schema-internal source id without
// registering a Source yet, for callers (the parser) that need the id
// before parsing starts so node paths can be built as they go.
func (s *Schema) ReserveSourceID() int {
	id := s.nextID
	s.nextID++
	return id
}

// RegisterSource indexes a Source built externally (by the parser,
// already carrying the id ReserveSourceID handed out) under its own id
// and, when it has an on-disk path, under that path too.
func (s *Schema) RegisterSource(src *ast.Source) {
	s.sources[src.ID] = src
	if src.Path == "" {
		s.builtins = append(s.builtins, src)
	} else {
		s.byPath[src.Path] = src
	}
	s.indexTops(src)
}

func (s *Schema) indexTops(src *ast.Source) {
	s.indexTopList(src.Tops)
}

// indexTopList records every named declaration's fully-qualified name,
// recursing into namespaces so `std.id` and `app.models.User` resolve
// through the same flat index as root-level names.
func (s *Schema) indexTopList(tops []ast.Node) {
	for _, top := range tops {
		if named, ok := NamedStringPath(top); ok {
			s.tops[named.String()] = top.Path()
		}
		if ns, ok := top.(*ast.Namespace); ok {
			s.indexTopList(ns.Tops)
		}
	}
}

// NamedStringPath extracts the fully-qualified StringPath from any
// top-level declaration that carries one (every Named-embedding node).
// Exported so the resolver's cross-source duplicate-identifier check
// can walk the same declaration kinds this
// package's own indexing does, rather than re-enumerating them.
func NamedStringPath(n ast.Node) (span.StringPath, bool) {
	switch v := n.(type) {
	case *ast.Model:
		return v.StringPath, true
	case *ast.Enum:
		return v.StringPath, true
	case *ast.Interface:
		return v.StringPath, true
	case *ast.ConfigDeclaration:
		return v.StringPath, true
	case *ast.DataSet:
		return v.StringPath, true
	case *ast.DecoratorDeclaration:
		return v.StringPath, true
	case *ast.PipelineItemDeclaration:
		return v.StringPath, true
	case *ast.MiddlewareDeclaration:
		return v.StringPath, true
	case *ast.StructDeclaration:
		return v.StringPath, true
	case *ast.FunctionDeclaration:
		return v.StringPath, true
	case *ast.HandlerGroupDeclaration:
		return v.StringPath, true
	case *ast.ConstantDeclaration:
		return v.StringPath, true
	case *ast.Namespace:
		return v.StringPath, true
	default:
		return nil, false
	}
}

// DeclaredNames returns the fully-qualified names of src's own top-level
// declarations, in source order. A namespace contributes its own name;
// declarations nested inside it are not listed. Used by callers
// (the root facade's cache snapshot) that need a cheap per-file summary
// without re-walking the whole tree themselves.
func DeclaredNames(src *ast.Source) []string {
	names := make([]string, 0, len(src.Tops))
	for _, top := range src.Tops {
		if named, ok := NamedStringPath(top); ok {
			names = append(names, named.String())
		}
	}
	return names
}

// Source returns the source registered under id.
func (s *Schema) Source(id int) (*ast.Source, bool) {
	src, ok := s.sources[id]
	return src, ok
}

// SourceAtPath returns the source parsed from absPath.
func (s *Schema) SourceAtPath(absPath string) (*ast.Source, bool) {
	src, ok := s.byPath[absPath]
	return src, ok
}

// BuiltinSources returns every source registered with no on-disk path.
func (s *Schema) BuiltinSources() []*ast.Source { return s.builtins }

// AllSources returns every registered source, builtin and user, in no
// particular order; callers needing determinism should sort by ID.
func (s *Schema) AllSources() []*ast.Source {
	out := make([]*ast.Source, 0, len(s.sources))
	for _, src := range s.sources {
		out = append(out, src)
	}
	return out
}

// FindTopByStringPath looks up a top-level declaration's node path by its
// dotted fully-qualified name, e.g. "std.Role" or "app.User".
func (s *Schema) FindTopByStringPath(name string) (span.Path, bool) {
	p, ok := s.tops[name]
	return p, ok
}

// FindConfigDeclarationByName looks up a config block by name, scoped
// to the availabilities it was actually declared under: a `config db {}`
// inside `#mysql ... #end` only matches when want intersects MySQL.
func (s *Schema) FindConfigDeclarationByName(name string, want availability.Availability) (*ast.ConfigDeclaration, bool) {
	for _, src := range s.sources {
		if cfg, ok := findConfigIn(src.Tops, name, want); ok {
			return cfg, true
		}
	}
	return nil, false
}

func findConfigIn(tops []ast.Node, name string, want availability.Availability) (*ast.ConfigDeclaration, bool) {
	for _, top := range tops {
		if ns, ok := top.(*ast.Namespace); ok {
			if cfg, ok := findConfigIn(ns.Tops, name, want); ok {
				return cfg, true
			}
			continue
		}
		cfg, ok := top.(*ast.ConfigDeclaration)
		if !ok {
			continue
		}
		if cfg.StringPath.String() != name && cfg.Identifier.Name != name {
			continue
		}
		actual, resolved := cfg.ActualAvailability()
		if !resolved || actual.Intersect(want) != availability.None || want.IsEmpty() {
			return cfg, true
		}
	}
	return nil, false
}

// TopFilter is a predicate used by name resolution to
// restrict a scan to declarations of interest, e.g. "only Models" when
// resolving a dataset group's target.
type TopFilter func(ast.Node) bool

// IsModel, IsEnum, ... are the common TopFilter predicates callers
// compose when walking a namespace's top-level declarations.
func IsModel(n ast.Node) bool { _, ok := n.(*ast.Model); return ok }
func IsEnum(n ast.Node) bool  { _, ok := n.(*ast.Enum); return ok }
func IsInterface(n ast.Node) bool {
	_, ok := n.(*ast.Interface)
	return ok
}
func IsNamespace(n ast.Node) bool { _, ok := n.(*ast.Namespace); return ok }
func IsAny(ast.Node) bool         { return true }

// JoinStringPath concatenates a namespace StringPath with a bare
// identifier, the way the parser builds a declaration's fully-qualified
// name from the enclosing namespace stack.
func JoinStringPath(ns span.StringPath, name string) span.StringPath {
	if len(ns) == 0 {
		return span.StringPath{name}
	}
	out := make(span.StringPath, len(ns)+1)
	copy(out, ns)
	out[len(ns)] = name
	return out
}

// SplitDotted splits a dotted name string back into path segments, used
// when a parser-level IdentifierPath needs to be compared against a
// schema-level StringPath.
func SplitDotted(s string) []string { return strings.Split(s, ".") }
