// Package parser implements the grammar-rule dispatch and Pratt
// expression/type parsers: it turns a flat lexer.Token stream into the
// ast package's Node tree, threading parser-local state (availability
// stack, path allocator, namespace string-path stack) through Parser.
//
// A grammar rule that cannot make sense of the tokens in front of it
// records the unparsed span as a diagnostic and skips forward rather
// than aborting the parse.
package parser

import (
	"strings"

	"github.com/oxhq/schemalang/internal/ast"
	"github.com/oxhq/schemalang/internal/availability"
	"github.com/oxhq/schemalang/internal/diagnostics"
	"github.com/oxhq/schemalang/internal/lexer"
	"github.com/oxhq/schemalang/internal/span"
)

// Parser holds every piece of state a single file's parse threads
// through its recursive-descent rules.
type Parser struct {
	toks     []lexer.Token
	pos      int
	sourceID int
	filePath string
	diags    *diagnostics.Bag

	pathCounter int

	availStack []availability.Availability
	nsPath     []string

	pendingDoc *ast.DocComment
}

// New tokenizes src in full (the lexer has no streaming mode worth
// preserving here; schema files are small) and returns a Parser ready to
// consume it.
func New(sourceID int, filePath, src string, diags *diagnostics.Bag) *Parser {
	lx := lexer.New(src)
	var toks []lexer.Token
	for {
		tok := lx.Next()
		toks = append(toks, tok)
		if tok.Kind == lexer.TokEOF {
			break
		}
	}
	return &Parser{
		toks:       toks,
		sourceID:   sourceID,
		filePath:   filePath,
		diags:      diags,
		availStack: []availability.Availability{availability.All},
	}
}

// ParseSource parses a whole file into an ast.Source. It never panics:
// every malformed top-level construct is recorded as a diagnostic and
// skipped.
func ParseSource(sourceID int, filePath, src string, diags *diagnostics.Bag) *ast.Source {
	p := New(sourceID, filePath, src, diags)
	var tops []ast.Node
	var imports []*ast.Import
	for !p.atEOF() {
		p.collectDocComment()
		top := p.parseTop()
		if top == nil {
			continue
		}
		if imp, ok := top.(*ast.Import); ok {
			imports = append(imports, imp)
		}
		tops = append(tops, top)
	}
	sp := span.Span{}
	if len(p.toks) > 0 {
		last := p.toks[len(p.toks)-1]
		sp = span.Span{EndLine: last.Span.EndLine, EndCol: last.Span.EndCol, EndOffset: last.Span.EndOffset, StartLine: 1, StartCol: 1}
	}
	return ast.NewSource(sp, sourceID, filePath, tops, imports)
}

// --- token stream helpers ---

func (p *Parser) atEOF() bool { return p.peek().Kind == lexer.TokEOF }

func (p *Parser) peek() lexer.Token { return p.peekAt(0) }

func (p *Parser) peekAt(n int) lexer.Token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) isPunct(text string) bool {
	t := p.peek()
	return t.Kind == lexer.TokPunctuation && t.Text == text
}

func (p *Parser) isKeyword(word string) bool {
	t := p.peek()
	return (t.Kind == lexer.TokKeyword || t.Kind == lexer.TokIdentifier) && t.Text == word
}

func (p *Parser) eatPunct(text string) bool {
	if p.isPunct(text) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) eatKeyword(word string) bool {
	if p.isKeyword(word) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) nextPath() span.Path {
	path := span.Path{p.sourceID, p.pathCounter}
	p.pathCounter++
	return path
}

func (p *Parser) errorAt(sp span.Span, code diagnostics.Code, msg string) {
	p.diags.AddError(diagnostics.Entry{Code: code, Message: msg, SourcePath: p.filePath, Span: sp})
}

// recoverToken records the current token's span as unparsed and advances
// past it, the generic fallback every grammar rule's catch-all arm uses.
func (p *Parser) recoverToken() {
	tok := p.peek()
	p.errorAt(tok.Span, diagnostics.ErrSyntax, "unparsed token `"+tok.Text+"`")
	if tok.Kind != lexer.TokEOF {
		p.advance()
	}
}

// skipBalanced consumes a `{ ... }` block without modeling its contents,
// used for grammar positions (function/middleware bodies) whose
// contents are opaque to the schema model.
func (p *Parser) skipBalanced(open, close string) span.Span {
	start := p.peek().Span
	if !p.eatPunct(open) {
		return start
	}
	depth := 1
	for depth > 0 && !p.atEOF() {
		switch {
		case p.isPunct(open):
			depth++
			p.advance()
		case p.isPunct(close):
			depth--
			p.advance()
		default:
			p.advance()
		}
	}
	return span.Join(start, p.toks[p.pos-1].Span)
}

func (p *Parser) collectDocComment() {
	if p.peek().Kind == lexer.TokDocComment {
		tok := p.advance()
		p.pendingDoc = ast.NewDocComment(tok.Span, p.nextPath(), tok.Text)
	}
}

func (p *Parser) takeDocComment() *ast.DocComment {
	d := p.pendingDoc
	p.pendingDoc = nil
	return d
}

// currentStringPath builds a declaration's fully-qualified name from the
// open namespace stack plus its own identifier.
func (p *Parser) currentStringPath(name string) span.StringPath {
	out := make(span.StringPath, 0, len(p.nsPath)+1)
	out = append(out, p.nsPath...)
	out = append(out, name)
	return out
}

// parseIdentifier consumes a single identifier token (or a reserved word
// used in a position where any bare name is legal, like a config block's
// key).
func (p *Parser) parseIdentifier() *ast.Identifier {
	tok := p.peek()
	if tok.Kind != lexer.TokIdentifier && tok.Kind != lexer.TokKeyword {
		p.errorAt(tok.Span, diagnostics.ErrSyntax, "expected identifier, found `"+tok.Text+"`")
		return ast.NewIdentifier(tok.Span, p.nextPath(), "")
	}
	p.advance()
	return ast.NewIdentifier(tok.Span, p.nextPath(), tok.Text)
}

// parseIdentifierPath consumes a dotted identifier chain: `a.b.c`.
func (p *Parser) parseIdentifierPath() *ast.IdentifierPath {
	start := p.peek().Span
	names := []string{p.parseIdentifier().Name}
	end := start
	for p.isPunct(".") && p.peekAt(1).Kind == lexer.TokIdentifier {
		p.advance()
		id := p.parseIdentifier()
		names = append(names, id.Name)
		end = id.Span()
	}
	return ast.NewIdentifierPath(span.Join(start, end), p.nextPath(), names)
}

func (p *Parser) parsePunctuationLeaf() *ast.Punctuation {
	tok := p.advance()
	return ast.NewPunctuation(tok.Span, p.nextPath(), tok.Text)
}

func (p *Parser) parseKeywordLeaf() *ast.Keyword {
	tok := p.advance()
	return ast.NewKeyword(tok.Span, p.nextPath(), tok.Text)
}

// parseAvailabilityFlagStart consumes a `#mysql`/`#database`/... token,
// pushing its resolved bit onto the availability stack.
// Unknown names push availability.None; an unreachable flag (one whose
// intersection with the current top is empty) still pushes a sentinel so
// a later `#end` stays balanced — the diagnostics themselves are raised
// again by the resolver's availability-propagation pass, which is the
// single source of truth for "is this flag reachable" once namespace
// nesting is known; the parser only needs to keep its own stack and the
// node's DefineAvailability consistent.
func (p *Parser) parseAvailabilityFlagStart() *ast.AvailabilityFlagStart {
	tok := p.advance()
	name := strings.TrimPrefix(tok.Text, "#")
	flag, ok := availability.Lookup(name)
	pushed := true
	if !ok {
		flag = availability.None
		pushed = false
	} else {
		top := p.availStack[len(p.availStack)-1]
		if top.Intersect(flag) == availability.None && !top.IsEmpty() {
			pushed = false
		}
	}
	p.availStack = append(p.availStack, p.availStack[len(p.availStack)-1].Intersect(flag))
	return ast.NewAvailabilityFlagStart(tok.Span, p.nextPath(), tok.Text, pushed)
}

func (p *Parser) parseAvailabilityFlagEnd() *ast.AvailabilityFlagEnd {
	tok := p.advance()
	if len(p.availStack) > 1 {
		p.availStack = p.availStack[:len(p.availStack)-1]
	}
	return ast.NewAvailabilityFlagEnd(tok.Span, p.nextPath())
}

func (p *Parser) currentDefineAvailability() availability.Availability {
	return p.availStack[len(p.availStack)-1]
}
