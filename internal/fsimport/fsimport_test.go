package fsimport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveImportJoinsRelativeToImportingFile(t *testing.T) {
	got := ResolveImport("/schema/app/main.teo", "../std/role.teo")
	assert.Equal(t, filepath.Clean("/schema/std/role.teo"), got)
}

func TestFindSchemaFilesAndFilter(t *testing.T) {
	dir := t.TempDir()
	must(t, os.WriteFile(filepath.Join(dir, "a.teo"), []byte(""), 0o644))
	must(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	must(t, os.WriteFile(filepath.Join(dir, "nested", "b.teo"), []byte(""), 0o644))
	must(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte(""), 0o644))

	files, err := FindSchemaFiles(dir, "")
	assert.NoError(t, err)
	assert.Len(t, files, 2)

	filtered := FilterFiles(files, []string{"**/nested/**"}, nil)
	assert.Len(t, filtered, 1)
	assert.Contains(t, filtered[0], "nested")
}

func TestMatchPatternBasenameFallback(t *testing.T) {
	assert.True(t, MatchPattern("/a/b/user.teo", "*.teo"))
	assert.False(t, MatchPattern("/a/b/user.teo", "*.md"))
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
