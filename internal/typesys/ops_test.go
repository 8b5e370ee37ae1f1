package typesys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTestReflexiveScalars(t *testing.T) {
	assert.True(t, NewString().Test(NewString()))
	assert.True(t, NewInt().Test(NewInt()))
	assert.False(t, NewInt().Test(NewString()))
}

func TestTestAnyAndUndetermined(t *testing.T) {
	assert.True(t, NewAny().Test(NewString()))
	assert.True(t, NewAny().Test(NewModel()))
	assert.False(t, NewUndetermined().Test(NewString()))
}

func TestTestOptionalAcceptsInnerOrOptional(t *testing.T) {
	opt := NewOptional(NewString())
	assert.True(t, opt.Test(NewString()))
	assert.True(t, opt.Test(NewOptional(NewString())))
	assert.False(t, opt.Test(NewInt()))
}

func TestTestEnumerableAcceptsArray(t *testing.T) {
	en := NewEnumerable(NewInt())
	assert.True(t, en.Test(NewInt()))
	assert.True(t, en.Test(NewArray(NewInt())))
	assert.False(t, en.Test(NewArray(NewString())))
}

func TestTestUnionIsAnyOf(t *testing.T) {
	u := NewUnion([]Type{NewString(), NewInt()})
	assert.True(t, u.Test(NewString()))
	assert.True(t, u.Test(NewInt()))
	assert.False(t, u.Test(NewBool()))
}

func TestTestModelAcceptsModelObject(t *testing.T) {
	ref := Reference{Path: []int{1, 2}, StringPath: []string{"User"}}
	assert.True(t, NewModel().Test(NewModelObject(ref)))
}

func TestConstraintTestAcceptsModelObject(t *testing.T) {
	ref := Reference{Path: []int{1, 2}, StringPath: []string{"User"}}
	assert.True(t, NewModel().ConstraintTest(NewModelObject(ref)))
}

func TestReplaceGenericsIdentityOnEmptyMap(t *testing.T) {
	ty := NewArray(NewGenericItem("T"))
	out := ty.ReplaceGenerics(nil)
	assert.Equal(t, ty, out)
}

func TestReplaceGenericsSubstitutes(t *testing.T) {
	ty := NewOptional(NewGenericItem("T"))
	out := ty.ReplaceGenerics(map[string]Type{"T": NewString()})
	assert.Equal(t, NewOptional(NewString()), out)
}

func TestReplaceGenericsIdempotent(t *testing.T) {
	ty := NewArray(NewGenericItem("T"))
	m := map[string]Type{"T": NewString()}
	once := ty.ReplaceGenerics(m)
	twice := once.ReplaceGenerics(m)
	assert.Equal(t, once, twice)
}

func TestContainsGenerics(t *testing.T) {
	assert.True(t, NewArray(NewGenericItem("T")).ContainsGenerics())
	assert.False(t, NewArray(NewString()).ContainsGenerics())
}

func TestReplaceKeywordsSubstitutes(t *testing.T) {
	ty := NewOptional(NewKeyword(KeywordSelf))
	ref := Reference{Path: []int{1}, StringPath: []string{"User"}}
	out := ty.ReplaceKeywords(map[Keyword]Type{KeywordSelf: NewModelObject(ref)})
	assert.Equal(t, NewOptional(NewModelObject(ref)), out)
}

func TestFlattenCollapsesNestedOptional(t *testing.T) {
	ty := NewOptional(NewOptional(NewString()))
	assert.Equal(t, NewOptional(NewString()), ty.Flatten())
}

func TestWrapUnwrapOptional(t *testing.T) {
	ty := NewString()
	wrapped := ty.WrapInOptional()
	assert.True(t, wrapped.IsOptional())
	assert.Equal(t, ty, wrapped.WrapInOptional().UnwrapOptional())
}

func TestExpectForLiteralPeelsOptional(t *testing.T) {
	assert.Equal(t, NewString(), NewOptional(NewString()).ExpectForLiteral())
}

func TestExpectForArrayLiteral(t *testing.T) {
	assert.Equal(t, NewArray(NewInt()), NewOptional(NewArray(NewInt())).ExpectForArrayLiteral())
	assert.Equal(t, NewArray(NewInt()), NewEnumerable(NewInt()).ExpectForArrayLiteral())
	assert.Equal(t, NewUndetermined(), NewString().ExpectForArrayLiteral())
}

func TestExpectForEnumVariantLiteral(t *testing.T) {
	ref := Reference{Path: []int{3}, StringPath: []string{"Role"}}
	ty := NewOptional(NewEnumerable(NewEnumVariant(ref)))
	assert.Equal(t, NewEnumVariant(ref), ty.ExpectForEnumVariantLiteral())
	assert.Equal(t, NewUndetermined(), NewString().ExpectForEnumVariantLiteral())
}
