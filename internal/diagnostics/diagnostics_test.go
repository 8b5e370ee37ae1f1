package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oxhq/schemalang/internal/span"
)

func TestBagAccumulatesInOrder(t *testing.T) {
	b := New()
	assert.False(t, b.HasErrors())
	b.AddError(Entry{Code: ErrUnresolvedIdentifier, Message: "cannot find `Foo`", SourcePath: "a.teo"})
	b.AddError(Entry{Code: ErrTypeMismatch, Message: "expected Int, found String", SourcePath: "a.teo"})
	assert.True(t, b.HasErrors())
	assert.Len(t, b.Errors(), 2)
	assert.Equal(t, ErrUnresolvedIdentifier, b.Errors()[0].Code)
	assert.Equal(t, ErrTypeMismatch, b.Errors()[1].Code)
}

func TestBagWarnings(t *testing.T) {
	b := New()
	assert.False(t, b.HasWarnings())
	b.AddWarning(Entry{Code: ErrDuplicateNamespace, Message: "duplicated namespace in a file", Span: span.Span{StartLine: 3}})
	assert.True(t, b.HasWarnings())
	assert.Equal(t, 3, b.Warnings()[0].Span.StartLine)
}

func TestEntryErrorAndJSON(t *testing.T) {
	e := Entry{Code: ErrSyntax, Message: "unexpected token `}`"}
	assert.Equal(t, "unexpected token `}`", e.Error())
	assert.Contains(t, e.JSON(), "ERR_SYNTAX")
}

func TestMerge(t *testing.T) {
	a := New()
	a.AddError(Entry{Code: ErrSyntax, Message: "a"})
	b := New()
	b.AddError(Entry{Code: ErrTypeMismatch, Message: "b"})
	a.Merge(b)
	assert.Len(t, a.Errors(), 2)
}
