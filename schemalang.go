// Package schemalang parses a schema from a root file (following its
// imports and an optional extra schema tree), then serves completion,
// definition, and formatting against the resulting Schema. It is a thin
// composition layer: every real piece of work lives in an internal/
// package, this file only wires them together in load order.
package schemalang

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/oxhq/schemalang/internal/ast"
	"github.com/oxhq/schemalang/internal/builtin"
	"github.com/oxhq/schemalang/internal/cache"
	"github.com/oxhq/schemalang/internal/config"
	"github.com/oxhq/schemalang/internal/diagnostics"
	"github.com/oxhq/schemalang/internal/fsimport"
	"github.com/oxhq/schemalang/internal/langserver"
	"github.com/oxhq/schemalang/internal/parser"
	"github.com/oxhq/schemalang/internal/resolver"
	"github.com/oxhq/schemalang/internal/schema"
	"github.com/oxhq/schemalang/internal/writer"
)

// Re-exported so callers don't need to import the internal packages
// directly for the handful of types the public API surfaces.
type (
	Schema             = schema.Schema
	Diagnostics        = diagnostics.Bag
	CompletionItem     = langserver.CompletionItem
	DefinitionLocation = langserver.Definition
)

// ParseOptions carries Parse's optional parameters. The zero value of
// each field defers to the corresponding SCHEMALANG_* environment
// variable loaded through internal/config.
type ParseOptions struct {
	// BuiltinSources is the ordered list of builtin source texts loaded
	// before rootPath, each registered with no on-disk path. When nil,
	// the canonical standard library (internal/builtin.Std) is used.
	BuiltinSources []string

	// ExtraSchemaFS, when non-empty, names an additional directory whose
	// matching files (FSPattern, default "**/*.teo") are loaded and
	// registered by path before import resolution runs, so that files
	// under it are already available the moment something imports them,
	// even though nothing in rootPath's own import graph reaches them
	// directly.
	ExtraSchemaFS string
	FSPattern     string

	// StrictMode promotes every warning the run produces to an error,
	// for CI-style enforcement. Defaults from SCHEMALANG_STRICT_MODE.
	StrictMode bool

	// MaxImportDepth bounds how many import hops away from the root (or
	// the extra schema tree) a file may be before its own imports stop
	// being followed; zero means unlimited. Defaults from
	// SCHEMALANG_MAX_IMPORT_DEPTH.
	MaxImportDepth int

	// Cache holds per-file digests plus the diagnostics and declared
	// names of the last resolved run. When every loaded file's digest
	// still matches, Parse skips the resolver entirely and replays the
	// cached diagnostics; otherwise the run resolves normally and the
	// snapshot is refreshed. When nil and SCHEMALANG_CACHE_DSN is set,
	// Parse opens (and closes) a cache from that DSN itself.
	Cache *cache.Cache
}

// applyEnvDefaults fills the zero-valued knobs from the process
// environment. The returned cleanup closes a cache Parse opened itself
// (a caller-supplied Cache stays the caller's to close).
func (o *ParseOptions) applyEnvDefaults() func() {
	env := config.Load()
	if !o.StrictMode {
		o.StrictMode = env.StrictMode
	}
	if o.MaxImportDepth == 0 {
		o.MaxImportDepth = env.MaxImportDepth
	}
	if o.Cache == nil && env.CacheDSN != "" {
		if c, err := cache.Open(env.CacheDSN); err == nil {
			o.Cache = c
			return func() { _ = c.Close() }
		}
	}
	return func() {}
}

// Parse loads rootPath, follows its `import` statements (and, when
// configured, an extra_schema_fs tree) to a fixed point, then runs the
// resolver over the assembled Schema. It never panics: malformed input
// and missing files both surface as Diagnostics entries rather than
// errors.
func Parse(rootPath string, opts ParseOptions) (*Schema, *Diagnostics) {
	closeCache := opts.applyEnvDefaults()
	defer closeCache()

	bag := diagnostics.New()
	sc := schema.New()

	loadBuiltins(sc, bag, opts.BuiltinSources)

	loaded := map[string]*ast.Source{} // on-disk sources only; builtins have no path
	texts := map[string]string{}       // path -> raw text, for cache digests

	rootAbs, err := filepath.Abs(rootPath)
	if err != nil {
		rootAbs = rootPath
	}
	rootSrc, loadErr := loadFile(sc, bag, rootAbs, texts)
	if loadErr != nil {
		bag.AddError(diagnostics.Entry{
			Code:    diagnostics.ErrImportNotFound,
			Message: fmt.Sprintf("cannot read root schema %q: %v", rootAbs, loadErr),
		})
		return sc, bag
	}
	loaded[rootAbs] = rootSrc

	if opts.ExtraSchemaFS != "" {
		pattern := opts.FSPattern
		files, err := fsimport.FindSchemaFiles(opts.ExtraSchemaFS, pattern)
		if err != nil {
			bag.AddError(diagnostics.Entry{
				Code:    diagnostics.ErrImportNotFound,
				Message: fmt.Sprintf("cannot scan extra_schema_fs %q: %v", opts.ExtraSchemaFS, err),
			})
		}
		for _, f := range files {
			if _, ok := loaded[f]; ok {
				continue
			}
			src, err := loadFile(sc, bag, f, texts)
			if err != nil {
				bag.AddError(diagnostics.Entry{
					Code:    diagnostics.ErrImportNotFound,
					Message: fmt.Sprintf("cannot read extra_schema_fs file %q: %v", f, err),
				})
				continue
			}
			loaded[f] = src
		}
	}

	resolveImportsToFixedPoint(sc, bag, loaded, texts, opts.MaxImportDepth)

	// Resolve-stage diagnostics are what the cache stores and replays;
	// parse-stage ones regenerate naturally since the texts are fresh by
	// definition on a cache hit.
	if opts.Cache != nil && allFresh(opts.Cache, texts) {
		replayCachedDiagnostics(bag, opts.Cache, texts)
	} else {
		preErrs, preWarns := len(bag.Errors()), len(bag.Warnings())
		resolver.Resolve(sc, bag)
		if opts.Cache != nil {
			snapshotToCache(bag, opts.Cache, loaded, texts, preErrs, preWarns)
		}
	}

	if opts.StrictMode {
		bag.PromoteWarnings()
	}

	return sc, bag
}

func loadBuiltins(sc *schema.Schema, bag *diagnostics.Bag, texts []string) {
	if len(texts) == 0 {
		texts = []string{builtin.Std}
	}
	for _, text := range texts {
		id := sc.ReserveSourceID()
		src := parser.ParseSource(id, "", text, bag)
		sc.RegisterSource(src)
	}
}

func loadFile(sc *schema.Schema, bag *diagnostics.Bag, absPath string, texts map[string]string) (*ast.Source, error) {
	text, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}
	id := sc.ReserveSourceID()
	src := parser.ParseSource(id, absPath, string(text), bag)
	sc.RegisterSource(src)
	texts[absPath] = string(text)
	return src, nil
}

// resolveImportsToFixedPoint loads every file transitively reachable
// through `import` statements starting from the already-loaded set,
// reporting ErrImportNotFound for targets that don't exist on disk.
// resolver.Resolve's own import pass only matches an import against
// sources already registered here; this is the step that actually
// performs the file I/O. A file more than maxDepth hops from the
// initial set has its imports reported rather than followed; maxDepth
// zero means unlimited.
func resolveImportsToFixedPoint(sc *schema.Schema, bag *diagnostics.Bag, loaded map[string]*ast.Source, texts map[string]string, maxDepth int) {
	type queued struct {
		src   *ast.Source
		depth int
	}
	queue := make([]queued, 0, len(loaded))
	for _, src := range loaded {
		queue = append(queue, queued{src: src})
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, imp := range cur.src.Imports {
			target := fsimport.ResolveImport(cur.src.Path, imp.FromPath)
			if _, ok := loaded[target]; ok {
				continue
			}
			if maxDepth > 0 && cur.depth >= maxDepth {
				bag.AddError(diagnostics.Entry{
					Code:       diagnostics.ErrImportDepthExceeded,
					Message:    fmt.Sprintf("import depth %d exceeded: %q", maxDepth, imp.FromPath),
					SourcePath: cur.src.Path,
					Span:       imp.Span(),
				})
				continue
			}
			if !fsimport.Exists(target) {
				bag.AddError(diagnostics.Entry{
					Code:       diagnostics.ErrImportNotFound,
					Message:    fmt.Sprintf("import not found: %q", imp.FromPath),
					SourcePath: cur.src.Path,
					Span:       imp.Span(),
				})
				continue
			}
			newSrc, err := loadFile(sc, bag, target, texts)
			if err != nil {
				bag.AddError(diagnostics.Entry{
					Code:       diagnostics.ErrImportNotFound,
					Message:    fmt.Sprintf("import not found: %q (%v)", imp.FromPath, err),
					SourcePath: cur.src.Path,
					Span:       imp.Span(),
				})
				continue
			}
			loaded[target] = newSrc
			queue = append(queue, queued{src: newSrc, depth: cur.depth + 1})
		}
	}
}

// cachedDiagnostics is the JSON shape of a cache row's DiagnosticsJSON
// column: the resolve-stage entries of the last run, split by severity
// so replay restores them to the right list.
type cachedDiagnostics struct {
	Errors   []diagnostics.Entry `json:"errors"`
	Warnings []diagnostics.Entry `json:"warnings"`
}

// allFresh reports whether every loaded on-disk file still matches its
// cached digest, i.e. nothing that could change resolution has changed.
// Any cache error counts as stale, falling back to a full resolve.
func allFresh(c *cache.Cache, texts map[string]string) bool {
	if len(texts) == 0 {
		return false
	}
	for path, text := range texts {
		_, fresh, err := c.Fresh(path, text)
		if err != nil || !fresh {
			return false
		}
	}
	return true
}

// replayCachedDiagnostics appends every file's cached resolve-stage
// diagnostics to bag, in sorted path order for determinism. The schema
// itself stays unresolved on this path; language services read
// resolution slots as undetermined, which they tolerate.
func replayCachedDiagnostics(bag *diagnostics.Bag, c *cache.Cache, texts map[string]string) {
	paths := make([]string, 0, len(texts))
	for path := range texts {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		entry, ok, err := c.Get(path)
		if err != nil || !ok {
			continue
		}
		var cached cachedDiagnostics
		if err := json.Unmarshal(entry.DiagnosticsJSON, &cached); err != nil {
			continue
		}
		for _, e := range cached.Errors {
			bag.AddError(e)
		}
		for _, e := range cached.Warnings {
			bag.AddWarning(e)
		}
	}
}

// snapshotToCache stores each loaded file's digest, resolve-stage
// diagnostics (the entries appended after preErrs/preWarns), and
// declared names, so a later Parse over unchanged texts can skip the
// resolver and replay them.
func snapshotToCache(bag *diagnostics.Bag, c *cache.Cache, loaded map[string]*ast.Source, texts map[string]string, preErrs, preWarns int) {
	errsByPath := map[string][]diagnostics.Entry{}
	for _, e := range bag.Errors()[preErrs:] {
		errsByPath[e.SourcePath] = append(errsByPath[e.SourcePath], e)
	}
	warnsByPath := map[string][]diagnostics.Entry{}
	for _, e := range bag.Warnings()[preWarns:] {
		warnsByPath[e.SourcePath] = append(warnsByPath[e.SourcePath], e)
	}

	for path, src := range loaded {
		text, ok := texts[path]
		if !ok {
			continue
		}
		diagsJSON, err := json.Marshal(cachedDiagnostics{
			Errors:   errsByPath[path],
			Warnings: warnsByPath[path],
		})
		if err != nil {
			continue
		}
		refsJSON, err := json.Marshal(schema.DeclaredNames(src))
		if err != nil {
			continue
		}
		_ = c.Put(path, cache.Digest(text), diagsJSON, refsJSON)
	}
}

// Completion lists the completion items available at (line, col) in
// filePath, as already resolved in sc.
func Completion(sc *Schema, filePath string, line, col int) []CompletionItem {
	return langserver.Complete(sc, filePath, line, col)
}

// Definition resolves the identifier at (line, col) in filePath to its
// declaration site(s).
func Definition(sc *Schema, filePath string, line, col int) []DefinitionLocation {
	return langserver.Define(sc, filePath, line, col)
}

// Format pretty-prints the source registered at filePath.
func Format(sc *Schema, filePath string) (string, error) {
	return writer.Format(sc, filePath)
}

// SourcePaths returns every on-disk source path registered in sc,
// sorted, for callers that want to format or re-check a whole schema.
func SourcePaths(sc *Schema) []string {
	return writer.SortedSourcePaths(sc)
}
