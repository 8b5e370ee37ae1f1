// Package resolver implements the five-pass resolution pipeline:
// indexing, availability propagation,
// declaration resolution, body resolution, and consistency checks, all
// driven off a single ResolverContext carried through every pass.
package resolver

import (
	"fmt"
	"sync"

	"github.com/oxhq/schemalang/internal/availability"
	"github.com/oxhq/schemalang/internal/diagnostics"
	"github.com/oxhq/schemalang/internal/schema"
	"github.com/oxhq/schemalang/internal/span"
	"github.com/oxhq/schemalang/internal/typesys"
)

// examinedDataSetRecord keys the records-seen set: a dataset record
// is only allowed once per (dataset, model, record name) triple; a
// second definition is a diagnostic, not a panic.
type examinedDataSetRecord struct {
	dataSet string
	model   string
	record  string
}

// Context carries every piece of cross-cutting state the resolution
// passes need: examined-sets guard against duplicate work and duplicate declarations, the
// dependency stack guards against circular references,
// and the namespace/availability stacks track "where in the tree are we
// right now" without threading extra parameters through every visitor
// method.
//
// Context guards its sets and stacks with a single mutex so a future
// concurrent scheduler can share one Context across source visits;
// today Resolve walks sources sequentially, so the lock is never
// contended.
type Context struct {
	Schema      *schema.Schema
	Diagnostics *diagnostics.Bag

	mu sync.Mutex

	examinedNamespacesInFile map[string]bool
	examinedDataSetsInFile   map[string]bool
	examinedDataSetRecords   map[examinedDataSetRecord]bool
	examinedDefaultPaths     map[availability.Availability]map[string]bool
	examinedFields           map[string]bool
	examinedMiddlewarePaths  map[string]bool

	currentSource *sourceFrame

	dependencyStack [][]int
	namespaceStack  []span.StringPath
	availabilityStack []availability.Availability
	genericsStack   [][]string

	shapeCache map[string]*typesys.SynthesizedShape
	enumCache  map[string]*typesys.SynthesizedEnum
}

type sourceFrame struct {
	id   int
	path string
}

// NewContext returns a Context bound to sc, appending diagnostics to bag.
func NewContext(sc *schema.Schema, bag *diagnostics.Bag) *Context {
	return &Context{
		Schema:                   sc,
		Diagnostics:              bag,
		examinedNamespacesInFile: make(map[string]bool),
		examinedDataSetsInFile:   make(map[string]bool),
		examinedDataSetRecords:   make(map[examinedDataSetRecord]bool),
		examinedDefaultPaths:     make(map[availability.Availability]map[string]bool),
		examinedFields:           make(map[string]bool),
		examinedMiddlewarePaths:  make(map[string]bool),
		availabilityStack:        []availability.Availability{availability.All},
		shapeCache:               make(map[string]*typesys.SynthesizedShape),
		enumCache:                make(map[string]*typesys.SynthesizedEnum),
	}
}

// CachedShape returns a previously synthesized shape for ref, if any.
func (c *Context) CachedShape(ref typesys.SynthesizedShapeReference) (*typesys.SynthesizedShape, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.shapeCache[ref.Key()]
	return s, ok
}

// StoreShape records the synthesized shape computed for ref. Shapes
// are produced once per (model, kind); later lookups hit the cache.
func (c *Context) StoreShape(ref typesys.SynthesizedShapeReference, shape *typesys.SynthesizedShape) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shapeCache[ref.Key()] = shape
}

// CachedEnum returns a previously synthesized enum for ref, if any.
func (c *Context) CachedEnum(ref typesys.SynthesizedEnumReference) (*typesys.SynthesizedEnum, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.enumCache[ref.Key()]
	return e, ok
}

// StoreEnum records the synthesized enum computed for ref.
func (c *Context) StoreEnum(ref typesys.SynthesizedEnumReference, e *typesys.SynthesizedEnum) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enumCache[ref.Key()] = e
}

// StartSource resets the per-file examined-sets and records which source
// is now being visited; every pass calls this before walking a Source's
// Tops.
func (c *Context) StartSource(id int, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentSource = &sourceFrame{id: id, path: path}
	c.examinedNamespacesInFile = make(map[string]bool)
	c.examinedDataSetsInFile = make(map[string]bool)
	// A file that never balances its `#end`s must not leak availability
	// frames into the next source.
	c.availabilityStack = c.availabilityStack[:1]
}

// Source returns the id/path of the source currently being visited.
func (c *Context) Source() (id int, path string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentSource == nil {
		return 0, "", false
	}
	return c.currentSource.id, c.currentSource.path, true
}

// PushDependency records path as being in the middle of resolution, for
// the circular-reference guard: a constant whose value resolves back to
// a path already on the stack is circular.
func (c *Context) PushDependency(path span.Path) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dependencyStack = append(c.dependencyStack, append([]int(nil), path...))
}

// PopDependency removes the most recently pushed dependency.
func (c *Context) PopDependency() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.dependencyStack) == 0 {
		return
	}
	c.dependencyStack = c.dependencyStack[:len(c.dependencyStack)-1]
}

// HasDependency reports whether path is already on the dependency stack.
func (c *Context) HasDependency(path span.Path) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.dependencyStack {
		if span.Path(p).Equal(path) {
			return true
		}
	}
	return false
}

// HasExaminedDataSet reports (and, via AddExaminedDataSet, records)
// whether a dataset name has already been visited within the current
// file, guarding against the same dataset block appearing twice.
func (c *Context) HasExaminedDataSet(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.examinedDataSetsInFile[name]
}

// AddExaminedDataSet marks name as visited in the current file.
func (c *Context) AddExaminedDataSet(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.examinedDataSetsInFile[name] = true
}

// HasExaminedDataSetRecord reports whether (dataSet, model, record)
// has already been declared, catching duplicate data set records.
func (c *Context) HasExaminedDataSetRecord(dataSet, model, record string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.examinedDataSetRecords[examinedDataSetRecord{dataSet, model, record}]
}

// AddExaminedDataSetRecord records (dataSet, model, record) as declared.
func (c *Context) AddExaminedDataSetRecord(dataSet, model, record string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.examinedDataSetRecords[examinedDataSetRecord{dataSet, model, record}] = true
}

// AddExaminedDefaultPath records that a model field named fieldName
// already carries a default-value decorator under the given backend
// availability, branching per-database: a model can declare one
// `@default` per field per database backend (e.g. different defaults
// under `#mysql` vs `#postgres`), but not two for the same backend.
func (c *Context) AddExaminedDefaultPath(backend availability.Availability, fieldName string) (added bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.examinedDefaultPaths[backend]
	if !ok {
		set = make(map[string]bool)
		c.examinedDefaultPaths[backend] = set
	}
	if set[fieldName] {
		return false
	}
	set[fieldName] = true
	return true
}

// HasExaminedField reports whether a field or member key has already
// been recorded with AddExaminedField; checkDuplicateDeclEntry uses it
// to flag a model field or enum member name declared twice.
func (c *Context) HasExaminedField(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.examinedFields[path]
}

// AddExaminedField marks path as resolved.
func (c *Context) AddExaminedField(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.examinedFields[path] = true
}

// HasExaminedMiddlewarePath reports whether a handler group's middleware
// reference path has already been resolved.
func (c *Context) HasExaminedMiddlewarePath(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.examinedMiddlewarePaths[path]
}

// AddExaminedMiddlewarePath marks path as resolved.
func (c *Context) AddExaminedMiddlewarePath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.examinedMiddlewarePaths[path] = true
}

// PushNamespace enters a namespace scope, emitting ErrDuplicateNamespace
// if name is already open within the current file (two `namespace
// app {}` blocks with the same name in one source).
func (c *Context) PushNamespace(full span.StringPath, sp span.Span) {
	c.mu.Lock()
	key := full.String()
	duplicate := c.examinedNamespacesInFile[key]
	c.examinedNamespacesInFile[key] = true
	c.namespaceStack = append(c.namespaceStack, full)
	sourcePath := ""
	if c.currentSource != nil {
		sourcePath = c.currentSource.path
	}
	c.mu.Unlock()

	if duplicate {
		c.Diagnostics.AddError(diagnostics.Entry{
			Code:       diagnostics.ErrDuplicateNamespace,
			Message:    fmt.Sprintf("duplicated namespace `%s` in a file", key),
			SourcePath: sourcePath,
			Span:       sp,
		})
	}
}

// EnterNamespace re-opens a namespace scope without the duplicate
// check, for passes after the first tree walk has already reported any
// duplicates.
func (c *Context) EnterNamespace(full span.StringPath) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.namespaceStack = append(c.namespaceStack, full)
}

// PopNamespace exits the innermost open namespace scope.
func (c *Context) PopNamespace() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.namespaceStack) == 0 {
		return
	}
	c.namespaceStack = c.namespaceStack[:len(c.namespaceStack)-1]
}

// CurrentNamespace returns the innermost open namespace's StringPath, or
// nil at file scope.
func (c *Context) CurrentNamespace() span.StringPath {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.namespaceStack) == 0 {
		return nil
	}
	return c.namespaceStack[len(c.namespaceStack)-1]
}

// NamespaceStackSnapshot returns a copy of the open namespace scopes,
// outermost first, for callers (like Search) that need to walk the
// whole stack rather than just its top.
func (c *Context) NamespaceStackSnapshot() []span.StringPath {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]span.StringPath, len(c.namespaceStack))
	copy(out, c.namespaceStack)
	return out
}

// PushAvailability narrows the current availability by intersecting
// it with flag, mirroring the `#database`/`#mysql`/... flag stack. The
// caller (the availability-propagation pass) is responsible for
// diagnosing an unknown flag name before calling this.
func (c *Context) PushAvailability(flag availability.Availability) {
	c.mu.Lock()
	defer c.mu.Unlock()
	top := c.availabilityStack[len(c.availabilityStack)-1]
	c.availabilityStack = append(c.availabilityStack, top.Intersect(flag))
}

// PopAvailability restores the availability in effect before the most
// recent PushAvailability; it is a no-op (and never pops the initial
// All frame) when called with no matching push, so an unbalanced `#end`
// is ignored rather than diagnosed.
func (c *Context) PopAvailability() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.availabilityStack) <= 1 {
		return
	}
	c.availabilityStack = c.availabilityStack[:len(c.availabilityStack)-1]
}

// CurrentAvailability returns the availability in effect at the current
// point in the flag stack.
func (c *Context) CurrentAvailability() availability.Availability {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.availabilityStack[len(c.availabilityStack)-1]
}

// PushGenericsScope enters a model/interface/struct's `<T, U>` clause so
// bare references to T or U inside its body resolve to GenericItem
// rather than triggering an unresolved-identifier diagnostic.
func (c *Context) PushGenericsScope(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.genericsStack = append(c.genericsStack, names)
}

// PopGenericsScope exits the innermost generics scope.
func (c *Context) PopGenericsScope() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.genericsStack) == 0 {
		return
	}
	c.genericsStack = c.genericsStack[:len(c.genericsStack)-1]
}

// IsGenericInScope reports whether name is bound by any open generics
// scope.
func (c *Context) IsGenericInScope(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.genericsStack) - 1; i >= 0; i-- {
		for _, n := range c.genericsStack[i] {
			if n == name {
				return true
			}
		}
	}
	return false
}
