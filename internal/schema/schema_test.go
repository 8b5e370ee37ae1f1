package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oxhq/schemalang/internal/ast"
	"github.com/oxhq/schemalang/internal/span"
)

func TestAddSourceIndexesNamedTops(t *testing.T) {
	sc := New()
	name := ast.NewIdentifier(span.Span{}, span.Path{0, 0}, "User")
	model := ast.NewModel(span.Span{}, span.Path{0, 0}, name, span.StringPath{"User"}, nil, nil, nil)
	src := sc.AddSource("/schema/app.teo", []ast.Node{model})

	got, ok := sc.SourceAtPath("/schema/app.teo")
	assert.True(t, ok)
	assert.Same(t, src, got)

	path, ok := sc.FindTopByStringPath("User")
	assert.True(t, ok)
	assert.Equal(t, model.Path(), path)
}

func TestBuiltinSourcesHaveNoPath(t *testing.T) {
	sc := New()
	name := ast.NewIdentifier(span.Span{}, span.Path{0, 0}, "Role")
	e := ast.NewEnum(span.Span{}, span.Path{0, 0}, name, span.StringPath{"std", "Role"}, nil, nil, nil, false)
	sc.AddSource("", []ast.Node{e})

	assert.Len(t, sc.BuiltinSources(), 1)
	_, ok := sc.SourceAtPath("")
	assert.False(t, ok)
}

func TestJoinAndSplitStringPath(t *testing.T) {
	ns := span.StringPath{"app", "models"}
	full := JoinStringPath(ns, "User")
	assert.Equal(t, "app.models.User", full.String())
	assert.Equal(t, []string{"app", "models", "User"}, SplitDotted(full.String()))
}

func TestTopFilters(t *testing.T) {
	name := ast.NewIdentifier(span.Span{}, span.Path{0, 0}, "User")
	model := ast.NewModel(span.Span{}, span.Path{0, 0}, name, span.StringPath{"User"}, nil, nil, nil)
	assert.True(t, IsModel(model))
	assert.False(t, IsEnum(model))
	assert.True(t, IsAny(model))
}
