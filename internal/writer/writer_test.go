package writer_test

import (
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/schemalang/internal/diagnostics"
	"github.com/oxhq/schemalang/internal/parser"
	"github.com/oxhq/schemalang/internal/schema"
	"github.com/oxhq/schemalang/internal/writer"
)

const sampleSchema = `import { Role } from "./roles.teo"

namespace app {
    /// A user of the system.
    model User {
        id: Int @id @autoIncrement()
        email: String @unique()
        role: Role?
        tags: String[]
    }

    enum Role {
        admin
        member
    }

    config server {
        server {
            bind: "0.0.0.0:8080"
        }
    }

    const maxTags: Int = 10

    pipelineitem trim(): String -> String

    middleware auth(role: String)

    handlerGroup users use(auth) {
        list(): User[]
    }
}
`

// unifiedDiff renders a difflib unified diff between two texts, used
// to give a readable failure message when a round trip doesn't
// converge.
func unifiedDiff(t *testing.T, a, b string) string {
	t.Helper()
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: "first",
		ToFile:   "second",
		Context:  2,
	}
	out, err := difflib.GetUnifiedDiffString(diff)
	require.NoError(t, err)
	return out
}

func parseInto(t *testing.T, sc *schema.Schema, path, text string) *diagnostics.Bag {
	t.Helper()
	bag := diagnostics.New()
	id := sc.ReserveSourceID()
	src := parser.ParseSource(id, path, text, bag)
	sc.RegisterSource(src)
	return bag
}

func TestFormat_RoundTripsStructurally(t *testing.T) {
	sc := schema.New()
	bag := parseInto(t, sc, "/virtual/app.teo", sampleSchema)
	require.False(t, bag.HasErrors(), "parse errors: %+v", bag.Errors())

	out, err := writer.Format(sc, "/virtual/app.teo")
	require.NoError(t, err)
	require.NotEmpty(t, out)

	sc2 := schema.New()
	bag2 := parseInto(t, sc2, "/virtual/app2.teo", out)
	require.False(t, bag2.HasErrors(), "re-parse errors on formatted output: %+v\n%s", bag2.Errors(), unifiedDiff(t, sampleSchema, out))

	out2, err := writer.Format(sc2, "/virtual/app2.teo")
	require.NoError(t, err)
	require.Equal(t, out, out2, "formatting is not idempotent:\n%s", unifiedDiff(t, out, out2))
}

func TestFormat_UnknownFileReturnsError(t *testing.T) {
	sc := schema.New()
	_, err := writer.Format(sc, "/nope.teo")
	require.Error(t, err)
}
