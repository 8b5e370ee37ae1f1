package langserver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/schemalang/internal/diagnostics"
	"github.com/oxhq/schemalang/internal/parser"
	"github.com/oxhq/schemalang/internal/resolver"
	"github.com/oxhq/schemalang/internal/schema"
)

// posOf returns the 1-based (line, col) of needle's first byte in src,
// matching the lexer's own byte-offset line/col bookkeeping.
func posOf(t *testing.T, src, needle string) (int, int) {
	t.Helper()
	idx := strings.Index(src, needle)
	require.GreaterOrEqual(t, idx, 0, "needle %q not found", needle)
	line, col := 1, 1
	for _, b := range []byte(src[:idx]) {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

const sample = `namespace app {
    model User {
        id: Int @id
        role: Role
    }

    enum Role {
        admin
        member
    }
}
`

func buildSchema(t *testing.T) (*schema.Schema, string) {
	t.Helper()
	sc := schema.New()
	bag := diagnostics.New()
	const path = "/virtual/app.teo"
	id := sc.ReserveSourceID()
	src := parser.ParseSource(id, path, sample, bag)
	sc.RegisterSource(src)
	require.False(t, bag.HasErrors(), "%+v", bag.Errors())
	resolver.Resolve(sc, bag)
	return sc, path
}

func TestCompleteInsideFieldTypePositionOffersEnum(t *testing.T) {
	sc, path := buildSchema(t)
	line, col := posOf(t, sample, "Role\n    }")

	items := Complete(sc, path, line, col)
	labels := make([]string, 0, len(items))
	for _, it := range items {
		labels = append(labels, it.Label)
	}
	assert.Contains(t, labels, "Role")
}

func TestDefineOnFieldTypeResolvesToEnum(t *testing.T) {
	sc, path := buildSchema(t)
	line, col := posOf(t, sample, "Role\n    }")

	defs := Define(sc, path, line, col)
	require.NotEmpty(t, defs)
	assert.Equal(t, path, defs[0].FilePath)
}

func TestCompleteOnUnknownFileReturnsNil(t *testing.T) {
	sc, _ := buildSchema(t)
	items := Complete(sc, "/nope.teo", 1, 1)
	assert.Nil(t, items)
}

func TestDefineOnUnknownFileReturnsNil(t *testing.T) {
	sc, _ := buildSchema(t)
	defs := Define(sc, "/nope.teo", 1, 1)
	assert.Nil(t, defs)
}
