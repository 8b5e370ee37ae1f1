package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func collect(src string) []Token {
	l := New(src)
	var out []Token
	for {
		tok := l.Next()
		out = append(out, tok)
		if tok.Kind == TokEOF {
			return out
		}
	}
}

func TestIdentifiersAndKeywords(t *testing.T) {
	toks := collect("model User {}")
	assert.Equal(t, TokKeyword, toks[0].Kind)
	assert.Equal(t, "model", toks[0].Text)
	assert.Equal(t, TokIdentifier, toks[1].Kind)
	assert.Equal(t, "User", toks[1].Text)
	assert.Equal(t, TokPunctuation, toks[2].Kind)
	assert.Equal(t, "{", toks[2].Text)
}

func TestStringLiteralWithEscape(t *testing.T) {
	toks := collect(`"hello\nworld"`)
	assert.Equal(t, TokString, toks[0].Kind)
	assert.Equal(t, "hello\nworld", toks[0].Text)
}

func TestNumericLiteral(t *testing.T) {
	toks := collect("42 3.14")
	assert.Equal(t, "42", toks[0].Text)
	assert.Equal(t, "3.14", toks[1].Text)
}

func TestDocCommentSkipsLineComment(t *testing.T) {
	toks := collect("// plain comment\n/// doc comment\nmodel")
	assert.Equal(t, TokDocComment, toks[0].Kind)
	assert.Equal(t, "doc comment", toks[0].Text)
	assert.Equal(t, TokKeyword, toks[1].Kind)
}

func TestAvailabilityFlag(t *testing.T) {
	toks := collect("#mysql model User {} #end")
	assert.Equal(t, TokAvailabilityFlag, toks[0].Kind)
	assert.Equal(t, "#mysql", toks[0].Text)
}

func TestMultiCharPunctuation(t *testing.T) {
	toks := collect("a ?? b && c")
	assert.Equal(t, "??", toks[1].Text)
	assert.Equal(t, "&&", toks[3].Text)
}

func TestSpanTracksLineAndColumn(t *testing.T) {
	toks := collect("a\nb")
	assert.Equal(t, 1, toks[0].Span.StartLine)
	assert.Equal(t, 2, toks[1].Span.StartLine)
}
