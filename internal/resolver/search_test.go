package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oxhq/schemalang/internal/ast"
	"github.com/oxhq/schemalang/internal/diagnostics"
	"github.com/oxhq/schemalang/internal/schema"
	"github.com/oxhq/schemalang/internal/span"
)

func modelNode(name string, path span.Path, sp span.StringPath) *ast.Model {
	id := ast.NewIdentifier(span.Span{}, path, name)
	return ast.NewModel(span.Span{}, path, id, sp, nil, nil, nil)
}

func TestSearchFindsTopInCurrentSource(t *testing.T) {
	sc := schema.New()
	user := modelNode("User", span.Path{0, 0}, span.StringPath{"User"})
	src := sc.AddSource("/schema/app.teo", []ast.Node{user})

	c := NewContext(sc, diagnostics.New())
	c.StartSource(src.ID, src.Path)

	n, p, ok := Search(c, "User", schema.IsModel)
	assert.True(t, ok)
	assert.Equal(t, user.Path(), p)
	assert.Same(t, user, n)
}

func TestSearchFallsBackToStdNamespace(t *testing.T) {
	sc := schema.New()
	role := func() *ast.Enum {
		id := ast.NewIdentifier(span.Span{}, span.Path{0, 0}, "Role")
		return ast.NewEnum(span.Span{}, span.Path{0, 0}, id, span.StringPath{"std", "Role"}, nil, nil, nil, false)
	}()
	sc.AddSource("", []ast.Node{role})
	app := sc.AddSource("/schema/app.teo", nil)

	c := NewContext(sc, diagnostics.New())
	c.StartSource(app.ID, app.Path)

	n, _, ok := Search(c, "Role", schema.IsEnum)
	assert.True(t, ok)
	assert.Same(t, role, n)
}

func TestSearchPrefersInnerNamespace(t *testing.T) {
	sc := schema.New()
	inner := modelNode("User", span.Path{0, 1}, span.StringPath{"app", "models", "User"})
	outer := modelNode("User", span.Path{0, 2}, span.StringPath{"app", "User"})
	src := sc.AddSource("/schema/app.teo", []ast.Node{inner, outer})

	c := NewContext(sc, diagnostics.New())
	c.StartSource(src.ID, src.Path)
	c.PushNamespace(span.StringPath{"app"}, span.Span{})
	c.PushNamespace(span.StringPath{"app", "models"}, span.Span{})

	n, _, ok := Search(c, "User", schema.IsModel)
	assert.True(t, ok)
	assert.Same(t, inner, n)
}

func TestSearchMissReturnsFalse(t *testing.T) {
	sc := schema.New()
	src := sc.AddSource("/schema/app.teo", nil)
	c := NewContext(sc, diagnostics.New())
	c.StartSource(src.ID, src.Path)

	_, _, ok := Search(c, "Nonexistent", schema.IsAny)
	assert.False(t, ok)
}
