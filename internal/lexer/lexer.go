package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/oxhq/schemalang/internal/span"
)

// Lexer scans one source file's text into a flat Token stream. It tracks
// line/column by hand (no regexp, no external scanner library) so every
// token carries an exact span for completion/go-to-definition
// hit-testing.
type Lexer struct {
	src   string
	pos   int
	line  int
	col   int
}

// New returns a Lexer positioned at the start of src.
func New(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

func (l *Lexer) eof() bool { return l.pos >= len(l.src) }

func (l *Lexer) peek() byte {
	if l.eof() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *Lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b
}

func (l *Lexer) here() (int, int, int) { return l.line, l.col, l.pos }

func (l *Lexer) spanFrom(startLine, startCol, startOffset int) span.Span {
	return span.Span{
		StartLine: startLine, StartCol: startCol, StartOffset: startOffset,
		EndLine: l.line, EndCol: l.col, EndOffset: l.pos,
	}
}

// Next scans and returns the next token, skipping whitespace and
// line-comments (`//`, but not `///` doc comments). TokEOF is returned
// once the input is exhausted, and every subsequent call keeps returning
// it.
func (l *Lexer) Next() Token {
	l.skipTrivia()
	if l.eof() {
		line, col, off := l.here()
		return Token{Kind: TokEOF, Span: l.spanFrom(line, col, off)}
	}

	line, col, off := l.here()
	c := l.peek()

	switch {
	case c == '#':
		return l.scanAvailabilityFlag(line, col, off)
	case c == '"':
		return l.scanString(line, col, off)
	case c == '/' && l.peekAt(1) == '/' && l.peekAt(2) == '/':
		return l.scanDocComment(line, col, off)
	case c == '/' && isRegexStart(l.peekAt(1)):
		return l.scanRegex(line, col, off)
	case isDigit(c):
		return l.scanNumeric(line, col, off)
	case isIdentStart(rune(c)):
		return l.scanIdentifierOrKeyword(line, col, off)
	default:
		return l.scanPunctuation(line, col, off)
	}
}

func (l *Lexer) skipTrivia() {
	for !l.eof() {
		c := l.peek()
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			l.advance()
			continue
		}
		if c == '/' && l.peekAt(1) == '/' && l.peekAt(2) != '/' {
			for !l.eof() && l.peek() != '\n' {
				l.advance()
			}
			continue
		}
		break
	}
}

func (l *Lexer) scanAvailabilityFlag(line, col, off int) Token {
	l.advance() // '#'
	start := l.pos
	for !l.eof() && isIdentPart(rune(l.peek())) {
		l.advance()
	}
	text := "#" + l.src[start:l.pos]
	return Token{Kind: TokAvailabilityFlag, Text: text, Span: l.spanFrom(line, col, off)}
}

func (l *Lexer) scanDocComment(line, col, off int) Token {
	l.advance()
	l.advance()
	l.advance()
	start := l.pos
	for !l.eof() && l.peek() != '\n' {
		l.advance()
	}
	return Token{Kind: TokDocComment, Text: strings.TrimSpace(l.src[start:l.pos]), Span: l.spanFrom(line, col, off)}
}

func (l *Lexer) scanString(line, col, off int) Token {
	l.advance() // opening quote
	var b strings.Builder
	for !l.eof() && l.peek() != '"' {
		c := l.advance()
		if c == '\\' && !l.eof() {
			esc := l.advance()
			b.WriteByte(decodeEscape(esc))
			continue
		}
		b.WriteByte(c)
	}
	if !l.eof() {
		l.advance() // closing quote
	}
	return Token{Kind: TokString, Text: b.String(), Span: l.spanFrom(line, col, off)}
}

func decodeEscape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return c
	}
}

func (l *Lexer) scanRegex(line, col, off int) Token {
	l.advance() // opening '/'
	start := l.pos
	for !l.eof() && l.peek() != '/' {
		if l.peek() == '\\' {
			l.advance()
		}
		if !l.eof() {
			l.advance()
		}
	}
	pattern := l.src[start:l.pos]
	if !l.eof() {
		l.advance() // closing '/'
	}
	return Token{Kind: TokRegex, Text: pattern, Span: l.spanFrom(line, col, off)}
}

// isRegexStart distinguishes a regex literal from the division
// operator: a `/` followed by whitespace (or another slash/star) is
// arithmetic, not the start of a pattern.
func isRegexStart(c byte) bool {
	switch c {
	case 0, '/', '*', ' ', '\t', '\r', '\n', '=':
		return false
	}
	return true
}

func (l *Lexer) scanNumeric(line, col, off int) Token {
	start := l.pos
	for !l.eof() && isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		l.advance()
		for !l.eof() && isDigit(l.peek()) {
			l.advance()
		}
	}
	return Token{Kind: TokNumeric, Text: l.src[start:l.pos], Span: l.spanFrom(line, col, off)}
}

func (l *Lexer) scanIdentifierOrKeyword(line, col, off int) Token {
	start := l.pos
	for !l.eof() && isIdentPart(decodeRune(l.src[l.pos:])) {
		l.advance()
	}
	text := l.src[start:l.pos]
	kind := TokIdentifier
	if IsKeyword(text) {
		kind = TokKeyword
	}
	return Token{Kind: kind, Text: text, Span: l.spanFrom(line, col, off)}
}

func decodeRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

var multiCharPunct = []string{
	"...", "??", "&&", "||", "==", "!=", "<=", ">=", "<<", ">>", "..", "->",
}

func (l *Lexer) scanPunctuation(line, col, off int) Token {
	rest := l.src[l.pos:]
	for _, op := range multiCharPunct {
		if strings.HasPrefix(rest, op) {
			for range op {
				l.advance()
			}
			return Token{Kind: TokPunctuation, Text: op, Span: l.spanFrom(line, col, off)}
		}
	}
	c := l.advance()
	return Token{Kind: TokPunctuation, Text: string(c), Span: l.spanFrom(line, col, off)}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func isIdentPart(r rune) bool { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }
