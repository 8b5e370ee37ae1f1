package span

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanContains(t *testing.T) {
	s := Span{StartLine: 2, StartCol: 5, EndLine: 4, EndCol: 10}

	assert.True(t, s.Contains(3, 1))
	assert.True(t, s.Contains(2, 5))
	assert.True(t, s.Contains(4, 10))
	assert.False(t, s.Contains(2, 4))
	assert.False(t, s.Contains(4, 11))
	assert.False(t, s.Contains(1, 100))
	assert.False(t, s.Contains(5, 0))
}

func TestSpanJoin(t *testing.T) {
	a := Span{StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 5, StartOffset: 0, EndOffset: 5}
	b := Span{StartLine: 2, StartCol: 1, EndLine: 2, EndCol: 3, StartOffset: 10, EndOffset: 13}

	joined := Join(a, b)
	require.Equal(t, Span{StartLine: 1, StartCol: 1, EndLine: 2, EndCol: 3, StartOffset: 0, EndOffset: 13}, joined)
}

func TestPathEquality(t *testing.T) {
	p1 := Path{0, 1, 2}
	p2 := Path{0, 1, 2}
	p3 := p1.Child(3)

	assert.True(t, p1.Equal(p2))
	assert.False(t, p1.Equal(p3))
	assert.Equal(t, Path{0, 1, 2, 3}, p3)
	assert.Equal(t, 0, p1.SourceID())
}

func TestStringPath(t *testing.T) {
	root := StringPath{"std"}
	child := root.Child("User")

	assert.Equal(t, "std.User", child.String())
	assert.True(t, child.Equal(StringPath{"std", "User"}))
	assert.False(t, child.Equal(root))
}
