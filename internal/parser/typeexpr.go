package parser

import (
	"github.com/oxhq/schemalang/internal/ast"
	"github.com/oxhq/schemalang/internal/diagnostics"
	"github.com/oxhq/schemalang/internal/lexer"
	"github.com/oxhq/schemalang/internal/span"
)

// parseTypeExpr parses a type expression: a primary production (type item, group, tuple, subscript, typed shape,
// typed enum, field-name reference) followed by zero or more `|` union
// members, wrapped in the uniform TypeExpr container.
func (p *Parser) parseTypeExpr() *ast.TypeExpr {
	start := p.peek().Span
	members := []ast.Node{p.parseTypeMember()}
	for p.isPunct("|") {
		p.advance()
		members = append(members, p.parseTypeMember())
	}
	end := start
	if len(members) > 0 {
		end = members[len(members)-1].Span()
	}
	return ast.NewTypeExpr(span.Join(start, end), p.nextPath(), members)
}

func (p *Parser) parseTypeMember() ast.Node {
	var primary ast.Node
	switch {
	case p.isPunct("("):
		primary = p.parseTypeGroupOrTuple()
	case p.isPunct("{"):
		primary = p.parseTypedShape()
	case p.isPunct("."):
		primary = p.parseTypedEnumOrFieldRef()
	case p.peek().Kind == lexer.TokIdentifier || p.peek().Kind == lexer.TokKeyword:
		primary = p.parseTypeItem()
	default:
		tok := p.peek()
		p.recoverToken()
		return ast.NewTypeItem(tok.Span, p.nextPath(), ast.NewIdentifierPath(tok.Span, p.nextPath(), nil), nil, ast.ArityMark{})
	}
	return p.parseTypeSubscriptSuffix(primary)
}

// parseTypeSubscriptSuffix handles the `Container[Index]` form: a
// non-empty bracket immediately following a primary type
// production is a subscript, distinct from the empty `[]` array-arity
// suffix already consumed inside parseTypeItem.
func (p *Parser) parseTypeSubscriptSuffix(target ast.Node) ast.Node {
	for p.isPunct("[") && !(p.peekAt(1).Kind == lexer.TokPunctuation && p.peekAt(1).Text == "]") {
		start := target.Span()
		p.advance()
		index := p.parseTypeExpr()
		end := p.peek().Span
		if !p.eatPunct("]") {
			p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `]` to close type subscript")
		}
		sub := ast.NewTypeSubscript(span.Join(start, end), p.nextPath(), target, index)
		target = sub
	}
	return target
}

func (p *Parser) parseTypeGroupOrTuple() ast.Node {
	start := p.peek().Span
	p.advance() // '('
	var elems []ast.Node
	for !p.isPunct(")") && !p.atEOF() {
		elems = append(elems, p.parseTypeExpr())
		if !p.eatPunct(",") {
			break
		}
	}
	end := p.peek().Span
	if !p.eatPunct(")") {
		p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `)` to close type group")
	}
	sp := span.Join(start, end)
	if len(elems) == 1 {
		return ast.NewTypeGroup(sp, p.nextPath(), elems[0])
	}
	return ast.NewTypeTuple(sp, p.nextPath(), elems)
}

func (p *Parser) parseTypedShape() ast.Node {
	start := p.peek().Span
	p.advance() // '{'
	var fields []*ast.TypedShapeField
	for !p.isPunct("}") && !p.atEOF() {
		fstart := p.peek().Span
		name := p.parseIdentifier()
		if !p.eatPunct(":") {
			p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `:` in typed shape field")
		}
		typ := p.parseTypeExpr()
		fields = append(fields, ast.NewTypedShapeField(span.Join(fstart, typ.Span()), p.nextPath(), name, typ))
		if !p.eatPunct(",") {
			break
		}
	}
	end := p.peek().Span
	if !p.eatPunct("}") {
		p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `}` to close typed shape")
	}
	return ast.NewTypedShape(span.Join(start, end), p.nextPath(), fields)
}

// parseTypedEnumOrFieldRef distinguishes `.field` (a bare field-name
// reference) from `.a | .b` (a typed enum union) by looking past the
// general `|` union handling in parseTypeExpr: a typed enum's members
// are themselves dot-identifiers, so it greedily consumes every
// following `| .ident` pair itself and returns a single TypedEnum node,
// short-circuiting the caller's own union loop.
func (p *Parser) parseTypedEnumOrFieldRef() ast.Node {
	start := p.peek().Span
	p.advance() // '.'
	first := p.parseIdentifier()
	if !p.isPunct("|") || !(p.peekAt(1).Kind == lexer.TokPunctuation && p.peekAt(1).Text == ".") {
		return ast.NewFieldNameReference(span.Join(start, first.Span()), p.nextPath(), first)
	}
	variants := []*ast.Identifier{first}
	end := first.Span()
	for p.isPunct("|") && p.peekAt(1).Kind == lexer.TokPunctuation && p.peekAt(1).Text == "." {
		p.advance() // '|'
		p.advance() // '.'
		id := p.parseIdentifier()
		variants = append(variants, id)
		end = id.Span()
	}
	return ast.NewTypedEnum(span.Join(start, end), p.nextPath(), variants)
}

func (p *Parser) parseTypeItem() *ast.TypeItem {
	start := p.peek().Span
	name := p.parseIdentifierPath()
	end := name.Span()

	var generics []ast.Node
	if p.isPunct("<") {
		p.advance()
		for !p.isPunct(">") && !p.atEOF() {
			generics = append(generics, p.parseTypeExpr())
			if !p.eatPunct(",") {
				break
			}
		}
		end = p.peek().Span
		if !p.eatPunct(">") {
			p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `>` to close generics argument list")
		}
	}

	arity := ast.ArityMark{}
	for {
		if p.isPunct("[") && p.peekAt(1).Kind == lexer.TokPunctuation && p.peekAt(1).Text == "]" {
			p.advance()
			end = p.peek().Span
			p.advance()
			arity.Array = true
			continue
		}
		if p.isPunct("?") {
			end = p.peek().Span
			p.advance()
			arity.Optional = true
			continue
		}
		break
	}

	return ast.NewTypeItem(span.Join(start, end), p.nextPath(), name, generics, arity)
}
