package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/schemalang/internal/builtin"
	"github.com/oxhq/schemalang/internal/diagnostics"
	"github.com/oxhq/schemalang/internal/parser"
	"github.com/oxhq/schemalang/internal/schema"
)

type sourceText struct {
	path string // "" registers the text as a builtin source
	text string
}

func resolveTexts(t *testing.T, sources ...sourceText) *diagnostics.Bag {
	t.Helper()
	sc := schema.New()
	bag := diagnostics.New()
	for _, s := range sources {
		id := sc.ReserveSourceID()
		src := parser.ParseSource(id, s.path, s.text, bag)
		sc.RegisterSource(src)
	}
	Resolve(sc, bag)
	return bag
}

func TestUnknownAvailabilityFlagDiagnostic(t *testing.T) {
	bag := resolveTexts(t, sourceText{path: "/virtual/app.teo", text: "#nope\nconst a: Int = 1\n#end\n"})
	errs := bag.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, diagnostics.ErrUnknownAvailabilityFlag, errs[0].Code)
	assert.Contains(t, errs[0].Message, "unknown availability flag")
}

func TestUnreachableAvailabilityFlagDiagnostic(t *testing.T) {
	bag := resolveTexts(t, sourceText{path: "/virtual/app.teo", text: "#mysql\n#postgres\nconst a: Int = 1\n#end\n#end\n"})
	errs := bag.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, diagnostics.ErrUnreachableAvailabilityFlag, errs[0].Code)
	assert.Contains(t, errs[0].Message, "unreachable availability flag")
}

func TestDuplicateTopLevelIdentifierDetected(t *testing.T) {
	bag := resolveTexts(t, sourceText{path: "/virtual/app.teo", text: "model A {\n    id: Int\n}\n\nmodel A {\n    id: Int\n}\n"})
	errs := bag.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, diagnostics.ErrDuplicateIdentifier, errs[0].Code)
	assert.Contains(t, errs[0].Message, "duplicated")
}

func TestDuplicateModelFieldDetected(t *testing.T) {
	bag := resolveTexts(t, sourceText{path: "/virtual/app.teo", text: "model User {\n    id: Int\n    id: Int\n}\n"})
	errs := bag.Errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "duplicated model field")
}

func TestConfigUsageWithoutDeclarationIsUndefined(t *testing.T) {
	bag := resolveTexts(t, sourceText{path: "/virtual/app.teo", text: "config whatever {\n}\n"})
	errs := bag.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, diagnostics.ErrUndefinedConfig, errs[0].Code)
	assert.Contains(t, errs[0].Message, "configuration `whatever` is undefined")
}

func TestConfigUsageChecksItemsAgainstBuiltinDeclaration(t *testing.T) {
	bag := resolveTexts(t,
		sourceText{path: "", text: builtin.Std},
		sourceText{path: "/virtual/app.teo", text: `config server {
    bind {
        host: "127.0.0.1",
        debug: true
    }
}
`})
	errs := bag.Errors()
	require.Len(t, errs, 2)
	codes := []diagnostics.Code{errs[0].Code, errs[1].Code}
	assert.Contains(t, codes, diagnostics.ErrUndefinedConfigItem)
	assert.Contains(t, codes, diagnostics.ErrMissingConfigItem)
}

func TestRedundantTypeAnnotationWarns(t *testing.T) {
	bag := resolveTexts(t, sourceText{path: "/virtual/app.teo", text: "const a: Int = 1\n"})
	require.False(t, bag.HasErrors(), "%+v", bag.Errors())
	warns := bag.Warnings()
	require.Len(t, warns, 1)
	assert.Equal(t, "redundant type annotation", warns[0].Message)
}

func TestGenericsConstraintViolationReported(t *testing.T) {
	bag := resolveTexts(t, sourceText{path: "/virtual/app.teo", text: `interface Pair<T: Int> {
    a: T
}

const x: Pair<String> = 1
`})
	var messages []string
	for _, e := range bag.Errors() {
		messages = append(messages, e.Message)
	}
	assert.Contains(t, messages, "expect Int, found String")
}

func TestDataSetRecordMissingRequiredField(t *testing.T) {
	bag := resolveTexts(t, sourceText{path: "/virtual/app.teo", text: `model User {
    id: Int
    name: String
    nickname: String?
}

dataset seed {
    User {
        first {
            id: 1,
            name: "a"
        }
        second {
            id: 2
        }
    }
}
`})
	errs := bag.Errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "missing required field `name`")
}
