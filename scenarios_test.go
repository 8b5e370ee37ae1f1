package schemalang_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/schemalang"
)

// The canonical builtin source produces no diagnostics when loaded
// alongside an empty normal source.
func TestScenarioBuiltinSchemaHasNoDiagnostics(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "app.teo", "")

	_, diags := schemalang.Parse(root, schemalang.ParseOptions{})
	assert.False(t, diags.HasErrors(), "%+v", diags.Errors())
	assert.False(t, diags.HasWarnings(), "%+v", diags.Warnings())
}

// Assigning an Int64? value to a const declared Int produces exactly
// one `expect Int, found Int64?` error.
func TestScenarioOptionalToNonOptionalCoercionFails(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "app.teo", `const someInt64Optional: Int64? = 5000000000
const x: Int = someInt64Optional
`)

	_, diags := schemalang.Parse(root, schemalang.ParseOptions{})
	errs := diags.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "expect Int, found Int64?", errs[0].Message)
}

// Two `namespace foo { ... }` blocks in one source file produce one
// `duplicated namespace ... in a file` error.
func TestScenarioDuplicateNamespaceInFile(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "app.teo", `namespace foo {
    const a: Int = 1
}

namespace foo {
    const b: Int = 2
}
`)

	_, diags := schemalang.Parse(root, schemalang.ParseOptions{})
	errs := diags.Errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "duplicated namespace")
	assert.Contains(t, errs[0].Message, "in a file")
}
