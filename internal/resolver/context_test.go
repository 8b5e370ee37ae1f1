package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oxhq/schemalang/internal/availability"
	"github.com/oxhq/schemalang/internal/diagnostics"
	"github.com/oxhq/schemalang/internal/schema"
	"github.com/oxhq/schemalang/internal/span"
)

func newTestContext() *Context {
	return NewContext(schema.New(), diagnostics.New())
}

func TestDependencyStack(t *testing.T) {
	c := newTestContext()
	p := span.Path{0, 1, 2}
	assert.False(t, c.HasDependency(p))
	c.PushDependency(p)
	assert.True(t, c.HasDependency(p))
	c.PopDependency()
	assert.False(t, c.HasDependency(p))
}

func TestExaminedDataSetGuardsDuplicates(t *testing.T) {
	c := newTestContext()
	assert.False(t, c.HasExaminedDataSet("seed"))
	c.AddExaminedDataSet("seed")
	assert.True(t, c.HasExaminedDataSet("seed"))
}

func TestStartSourceResetsPerFileSets(t *testing.T) {
	c := newTestContext()
	c.AddExaminedDataSet("seed")
	c.StartSource(1, "b.teo")
	assert.False(t, c.HasExaminedDataSet("seed"))
}

func TestPushNamespaceDetectsDuplicateInFile(t *testing.T) {
	c := newTestContext()
	c.StartSource(0, "a.teo")
	c.PushNamespace(span.StringPath{"app"}, span.Span{StartLine: 1})
	assert.False(t, c.Diagnostics.HasErrors())
	c.PopNamespace()
	c.PushNamespace(span.StringPath{"app"}, span.Span{StartLine: 5})
	assert.True(t, c.Diagnostics.HasErrors())
	assert.Equal(t, diagnostics.ErrDuplicateNamespace, c.Diagnostics.Errors()[0].Code)
}

func TestNamespaceStackNesting(t *testing.T) {
	c := newTestContext()
	assert.Nil(t, c.CurrentNamespace())
	c.PushNamespace(span.StringPath{"app"}, span.Span{})
	c.PushNamespace(span.StringPath{"app", "models"}, span.Span{})
	assert.Equal(t, span.StringPath{"app", "models"}, c.CurrentNamespace())
	c.PopNamespace()
	assert.Equal(t, span.StringPath{"app"}, c.CurrentNamespace())
}

func TestAvailabilityStack(t *testing.T) {
	c := newTestContext()
	assert.Equal(t, availability.All, c.CurrentAvailability())
	c.PushAvailability(availability.MySQL)
	assert.Equal(t, availability.MySQL, c.CurrentAvailability())
	c.PushAvailability(availability.Postgres)
	assert.True(t, c.CurrentAvailability().IsEmpty())
	c.PopAvailability()
	assert.Equal(t, availability.MySQL, c.CurrentAvailability())
	c.PopAvailability()
	assert.Equal(t, availability.All, c.CurrentAvailability())
}

func TestAddExaminedDefaultPathPerBackend(t *testing.T) {
	c := newTestContext()
	assert.True(t, c.AddExaminedDefaultPath(availability.MySQL, "User.id"))
	assert.False(t, c.AddExaminedDefaultPath(availability.MySQL, "User.id"))
	assert.True(t, c.AddExaminedDefaultPath(availability.Postgres, "User.id"))
}
