// Package lexer hand-tokenizes schema source text with a
// character-at-a-time scanner; internal/parser builds the Pratt layer
// on top.
package lexer

import "github.com/oxhq/schemalang/internal/span"

// TokenKind is the closed set of lexical categories the scanner produces.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdentifier
	TokKeyword
	TokNumeric
	TokString
	TokRegex
	TokDocComment
	TokAvailabilityFlag // `#mysql`, `#end`, ...
	TokPunctuation
	TokInvalid
)

// reservedWords is the closed keyword set recognized by the grammar.
var reservedWords = map[string]bool{
	"model": true, "enum": true, "interface": true, "config": true,
	"dataset": true, "import": true, "from": true, "const": true,
	"decorator": true, "pipelineitem": true, "middleware": true,
	"struct": true, "function": true, "static": true, "handlerGroup": true,
	"namespace": true, "true": true, "false": true, "null": true,
	"self": true, "autoseed": true, "option": true, "group": true,
}

// Token is one lexical unit with its source span.
type Token struct {
	Kind  TokenKind
	Text  string
	Span  span.Span
}

// IsKeyword reports whether word is a reserved word.
func IsKeyword(word string) bool { return reservedWords[word] }
