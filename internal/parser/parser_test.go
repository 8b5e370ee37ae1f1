package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/schemalang/internal/ast"
	"github.com/oxhq/schemalang/internal/diagnostics"
	"github.com/oxhq/schemalang/internal/span"
)

func parse(t *testing.T, src string) (*ast.Source, *diagnostics.Bag) {
	t.Helper()
	bag := diagnostics.New()
	return ParseSource(0, "/virtual/app.teo", src, bag), bag
}

func TestParseModelWithFieldsAndDecorators(t *testing.T) {
	src := `model User {
    id: Int @id @autoIncrement()
    email: String @unique()
    role: Role?
    tags: String[]
}
`
	source, bag := parse(t, src)
	require.False(t, bag.HasErrors(), "%+v", bag.Errors())
	require.Len(t, source.Tops, 1)

	model, ok := source.Tops[0].(*ast.Model)
	require.True(t, ok)
	assert.Equal(t, "User", model.Identifier.Name)
	require.Len(t, model.Fields, 4)

	id := model.Fields[0]
	assert.Equal(t, "id", id.Name.Name)
	require.Len(t, id.Decorators, 2)
	names := id.Decorators[0].NamePath.Names
	assert.Equal(t, "id", names[len(names)-1])

	role := model.Fields[2]
	require.Len(t, role.Type_.Members, 1)
	item, ok := role.Type_.Members[0].(*ast.TypeItem)
	require.True(t, ok)
	assert.True(t, item.Arity.Optional)

	tags := model.Fields[3]
	tagItem, ok := tags.Type_.Members[0].(*ast.TypeItem)
	require.True(t, ok)
	assert.True(t, tagItem.Arity.Array)
}

func TestParseEnumWithOptionStyle(t *testing.T) {
	source, bag := parse(t, "enum Status option {\n    active()\n    archived()\n}\n")
	require.False(t, bag.HasErrors(), "%+v", bag.Errors())
	require.Len(t, source.Tops, 1)

	e, ok := source.Tops[0].(*ast.Enum)
	require.True(t, ok)
	assert.True(t, e.OptionStyle)
	require.Len(t, e.Members, 2)
	assert.Equal(t, "active", e.Members[0].Name.Name)
}

func TestParseImportCollectsFromPath(t *testing.T) {
	source, bag := parse(t, `import { Role } from "./roles.teo"

model User {
    role: Role
}
`)
	require.False(t, bag.HasErrors(), "%+v", bag.Errors())
	require.Len(t, source.Imports, 1)
	assert.Equal(t, "./roles.teo", source.Imports[0].FromPath)
	require.Len(t, source.Imports[0].Identifiers, 1)
	assert.Equal(t, "Role", source.Imports[0].Identifiers[0].Name)
}

func TestParseConstDeclaration(t *testing.T) {
	source, bag := parse(t, "const maxTags: Int = 10\n")
	require.False(t, bag.HasErrors(), "%+v", bag.Errors())
	require.Len(t, source.Tops, 1)

	c, ok := source.Tops[0].(*ast.ConstantDeclaration)
	require.True(t, ok)
	assert.Equal(t, "maxTags", c.Identifier.Name)
}

func TestParseNamespaceNestsTops(t *testing.T) {
	source, bag := parse(t, "namespace app {\n    model User {}\n}\n")
	require.False(t, bag.HasErrors(), "%+v", bag.Errors())
	require.Len(t, source.Tops, 1)

	ns, ok := source.Tops[0].(*ast.Namespace)
	require.True(t, ok)
	require.Len(t, ns.Tops, 1)
	model, ok := ns.Tops[0].(*ast.Model)
	require.True(t, ok)
	assert.Equal(t, "User", model.Identifier.Name)
	assert.Equal(t, span.StringPath{"app", "User"}, model.StringPath)
}

func TestParsePipelineItemAndMiddlewareDeclarations(t *testing.T) {
	source, bag := parse(t, "pipelineitem trim(): String -> String\n\nmiddleware auth(role: String)\n")
	require.False(t, bag.HasErrors(), "%+v", bag.Errors())
	require.Len(t, source.Tops, 2)

	pd, ok := source.Tops[0].(*ast.PipelineItemDeclaration)
	require.True(t, ok)
	require.Len(t, pd.Variants, 1)

	md, ok := source.Tops[1].(*ast.MiddlewareDeclaration)
	require.True(t, ok)
	require.Len(t, md.Arguments, 1)
	assert.Equal(t, "role", md.Arguments[0].Name.Name)
}

func TestParseIsTotalOnGarbageInput(t *testing.T) {
	inputs := []string{
		"",
		"}}}{{{",
		"model",
		"model User { id: }",
		"@@@ nonsense ### tokens",
		"import from",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			bag := diagnostics.New()
			ParseSource(0, "/virtual/garbage.teo", in, bag)
		}, "input: %q", in)
	}
}

func TestParseMalformedFieldRecordsDiagnosticNotPanic(t *testing.T) {
	_, bag := parse(t, "model User {\n    id: \n}\n")
	assert.True(t, bag.HasErrors())
}
