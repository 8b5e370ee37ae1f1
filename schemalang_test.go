package schemalang_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxhq/schemalang"
	"github.com/oxhq/schemalang/internal/cache"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseFollowsImportsAndResolves(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "roles.teo", "enum Role {\n    admin\n    member\n}\n")
	root := writeFile(t, dir, "app.teo", `import { Role } from "./roles.teo"

model User {
    id: Int @id @autoIncrement()
    role: Role
}
`)

	sc, diags := schemalang.Parse(root, schemalang.ParseOptions{})
	require.False(t, diags.HasErrors(), "%+v", diags.Errors())

	paths := schemalang.SourcePaths(sc)
	require.Len(t, paths, 2)
}

func TestParseReportsMissingImport(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "app.teo", `import { Missing } from "./nope.teo"

model User {
    id: Int
}
`)

	_, diags := schemalang.Parse(root, schemalang.ParseOptions{})
	require.True(t, diags.HasErrors())
}

func TestParseMissingRootFileReportsDiagnostic(t *testing.T) {
	_, diags := schemalang.Parse("/does/not/exist.teo", schemalang.ParseOptions{})
	require.True(t, diags.HasErrors())
}

func TestFormatRoundTripsParsedSchema(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "app.teo", "model User {\n    id: Int @id\n}\n")

	sc, diags := schemalang.Parse(root, schemalang.ParseOptions{})
	require.False(t, diags.HasErrors(), "%+v", diags.Errors())

	out, err := schemalang.Format(sc, root)
	require.NoError(t, err)
	require.Contains(t, out, "model User")
}

func TestParseStrictModePromotesWarnings(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "app.teo", "const a: Int = 1\n")

	_, diags := schemalang.Parse(root, schemalang.ParseOptions{})
	require.False(t, diags.HasErrors(), "%+v", diags.Errors())
	require.True(t, diags.HasWarnings())

	_, strict := schemalang.Parse(root, schemalang.ParseOptions{StrictMode: true})
	require.True(t, strict.HasErrors())
	require.False(t, strict.HasWarnings())
}

func TestParseMaxImportDepthBoundsTraversal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "c.teo", "enum Deep {\n    one\n}\n")
	writeFile(t, dir, "b.teo", "import from \"./c.teo\"\n")
	root := writeFile(t, dir, "a.teo", "import from \"./b.teo\"\n")

	_, diags := schemalang.Parse(root, schemalang.ParseOptions{MaxImportDepth: 1})
	require.True(t, diags.HasErrors())
	require.Contains(t, diags.Errors()[0].Message, "import depth")
}

func TestParseCacheSkipsResolveAndReplaysDiagnostics(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "app.teo", "model User {\n    role: Missing\n}\n")

	c, err := cache.Open(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	defer c.Close()

	_, first := schemalang.Parse(root, schemalang.ParseOptions{Cache: c})
	require.True(t, first.HasErrors())

	// Unchanged text: the second run replays the cached resolve
	// diagnostics instead of resolving again.
	_, second := schemalang.Parse(root, schemalang.ParseOptions{Cache: c})
	require.Len(t, second.Errors(), len(first.Errors()))
	require.Equal(t, first.Errors()[0].Message, second.Errors()[0].Message)

	// Changed text: stale digest, full resolve, fresh diagnostics.
	root = writeFile(t, dir, "app.teo", "model User {\n    id: Int\n}\n")
	_, third := schemalang.Parse(root, schemalang.ParseOptions{Cache: c})
	require.False(t, third.HasErrors(), "%+v", third.Errors())
}

func TestCompletionAndDefinitionAreReachableFromParse(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "app.teo", `model User {
    id: Int
    role: Role
}

enum Role {
    admin
}
`)

	sc, diags := schemalang.Parse(root, schemalang.ParseOptions{})
	require.False(t, diags.HasErrors(), "%+v", diags.Errors())

	// Somewhere inside the file the cursor will sit on a token; the
	// facade must not panic regardless of where, even off the end.
	require.NotPanics(t, func() {
		schemalang.Completion(sc, root, 2, 5)
		schemalang.Definition(sc, root, 2, 5)
		schemalang.Completion(sc, root, 999, 999)
	})
}
