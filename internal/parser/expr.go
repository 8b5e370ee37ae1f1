package parser

import (
	"strings"

	"github.com/oxhq/schemalang/internal/ast"
	"github.com/oxhq/schemalang/internal/diagnostics"
	"github.com/oxhq/schemalang/internal/lexer"
	"github.com/oxhq/schemalang/internal/span"
)

// binding power table for the infix/postfix operators, lowest to
// highest. Higher numbers bind tighter. `??` is handled
// separately as right-associative; every other infix operator is
// left-associative.
var infixPower = map[string]int{
	"..": 1, "...": 1,
	"||": 2, "&&": 3,
	"==": 4, "!=": 4,
	"<": 5, "<=": 5, ">": 5, ">=": 5,
	"|": 6, "^": 6, "&": 6,
	"<<": 7, ">>": 7,
	"+": 8, "-": 8,
	"*": 9, "/": 9, "%": 9,
	"??": 10,
}

const postfixForceUnwrapPower = 11

var binaryOperators = map[string]ast.BinaryOperator{
	"||": ast.OpOr, "&&": ast.OpAnd,
	"==": ast.OpEq, "!=": ast.OpNeq,
	"<": ast.OpLt, "<=": ast.OpLte, ">": ast.OpGt, ">=": ast.OpGte,
	"|": ast.OpBitOr, "^": ast.OpBitXor, "&": ast.OpBitAnd,
	"<<": ast.OpShl, ">>": ast.OpShr,
	"+": ast.OpAdd, "-": ast.OpSub,
	"*": ast.OpMul, "/": ast.OpDiv, "%": ast.OpMod,
	"??": ast.OpNullishCoalescing,
}

// parseExpression parses one value-position expression and wraps it in
// the uniform Expression container that carries the resolution slot.
func (p *Parser) parseExpression() *ast.Expression {
	inner := p.parseArithExpr(0)
	return ast.NewExpression(inner.Span(), p.nextPath(), inner.Kind(), inner)
}

// parseArithExpr is the Pratt loop over the arithmetic/logical
// operator table: prefix unary operators, then a primary, then
// infix operators climbing by binding power, then the postfix `!`.
func (p *Parser) parseArithExpr(minPower int) ast.Node {
	lhs := p.parseUnary()

	for {
		if p.isPunct("!") && minPower < postfixForceUnwrapPower {
			start := lhs.Span()
			tok := p.advance()
			lhs = ast.NewUnaryPostfixOperation(span.Join(start, tok.Span), p.nextPath(), lhs)
			continue
		}
		tok := p.peek()
		if tok.Kind != lexer.TokPunctuation {
			break
		}
		power, ok := infixPower[tok.Text]
		if !ok || power < minPower {
			break
		}
		nextMin := power + 1
		if tok.Text == "??" {
			nextMin = power // right-associative
		}
		p.advance()

		if tok.Text == ".." || tok.Text == "..." {
			rhs := p.parseArithExpr(power + 1)
			lhs = ast.NewRangeLiteral(span.Join(lhs.Span(), rhs.Span()), p.nextPath(), lhs, rhs, tok.Text == "...")
			continue
		}

		rhs := p.parseArithExpr(nextMin)
		op, ok := binaryOperators[tok.Text]
		if !ok {
			p.errorAt(tok.Span, diagnostics.ErrSyntax, "unknown binary operator `"+tok.Text+"`")
			continue
		}
		lhs = ast.NewBinaryOperation(span.Join(lhs.Span(), rhs.Span()), p.nextPath(), op, lhs, rhs)
	}
	return lhs
}

func (p *Parser) parseUnary() ast.Node {
	tok := p.peek()
	if tok.Kind == lexer.TokPunctuation {
		switch tok.Text {
		case "-":
			p.advance()
			operand := p.parseArithExpr(postfixForceUnwrapPower)
			return ast.NewUnaryOperation(span.Join(tok.Span, operand.Span()), p.nextPath(), ast.OpNegate, operand)
		case "~":
			p.advance()
			operand := p.parseArithExpr(postfixForceUnwrapPower)
			return ast.NewUnaryOperation(span.Join(tok.Span, operand.Span()), p.nextPath(), ast.OpBitwiseNegate, operand)
		case "!":
			p.advance()
			operand := p.parseArithExpr(postfixForceUnwrapPower)
			return ast.NewUnaryOperation(span.Join(tok.Span, operand.Span()), p.nextPath(), ast.OpLogicalNot, operand)
		}
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Node {
	tok := p.peek()
	switch {
	case tok.Kind == lexer.TokNumeric:
		p.advance()
		return ast.NewNumericLiteral(tok.Span, p.nextPath(), tok.Text, strings.Contains(tok.Text, "."))
	case tok.Kind == lexer.TokString:
		p.advance()
		return ast.NewStringLiteral(tok.Span, p.nextPath(), tok.Text)
	case tok.Kind == lexer.TokRegex:
		p.advance()
		return ast.NewRegExpLiteral(tok.Span, p.nextPath(), tok.Text)
	case tok.Text == "true" && tok.Kind == lexer.TokKeyword:
		p.advance()
		return ast.NewBoolLiteral(tok.Span, p.nextPath(), true)
	case tok.Text == "false" && tok.Kind == lexer.TokKeyword:
		p.advance()
		return ast.NewBoolLiteral(tok.Span, p.nextPath(), false)
	case tok.Text == "null" && tok.Kind == lexer.TokKeyword:
		p.advance()
		return ast.NewNullLiteral(tok.Span, p.nextPath())
	case p.isPunct("."):
		return p.parseEnumVariantLiteral()
	case p.isPunct("["):
		return p.parseArrayLiteral()
	case p.isPunct("{"):
		return p.parseDictionaryLiteral()
	case p.isPunct("("):
		return p.parseGroupOrTuple()
	case p.isPunct("$"):
		return p.parsePipeline()
	case tok.Kind == lexer.TokIdentifier || tok.Kind == lexer.TokKeyword:
		return p.parseUnit()
	default:
		p.recoverToken()
		return ast.NewNullLiteral(tok.Span, p.nextPath())
	}
}

func (p *Parser) parseEnumVariantLiteral() ast.Node {
	start := p.peek().Span
	p.advance() // '.'
	name := p.parseIdentifier()
	var args *ast.ArgumentList
	end := name.Span()
	if p.isPunct("(") {
		args = p.parseArgumentList()
		end = args.Span()
	}
	return ast.NewEnumVariantLiteral(span.Join(start, end), p.nextPath(), name, args)
}

func (p *Parser) parseArrayLiteral() ast.Node {
	start := p.peek().Span
	p.advance() // '['
	var elems []ast.Node
	for !p.isPunct("]") && !p.atEOF() {
		elems = append(elems, p.parseExpression())
		if !p.eatPunct(",") {
			break
		}
	}
	end := p.peek().Span
	if !p.eatPunct("]") {
		p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `]` to close array literal")
	}
	return ast.NewArrayLiteral(span.Join(start, end), p.nextPath(), elems)
}

func (p *Parser) parseDictionaryLiteral() ast.Node {
	start := p.peek().Span
	p.advance() // '{'
	var entries []*ast.DictionaryEntry
	for !p.isPunct("}") && !p.atEOF() {
		key := p.parseExpression()
		if !p.eatPunct(":") {
			p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `:` in dictionary literal")
		}
		value := p.parseExpression()
		entries = append(entries, ast.NewDictionaryEntry(span.Join(key.Span(), value.Span()), p.nextPath(), key, value))
		if !p.eatPunct(",") {
			break
		}
	}
	end := p.peek().Span
	if !p.eatPunct("}") {
		p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `}` to close dictionary literal")
	}
	return ast.NewDictionaryLiteral(span.Join(start, end), p.nextPath(), entries)
}

func (p *Parser) parseGroupOrTuple() ast.Node {
	start := p.peek().Span
	p.advance() // '('
	var elems []ast.Node
	for !p.isPunct(")") && !p.atEOF() {
		elems = append(elems, p.parseExpression())
		if !p.eatPunct(",") {
			break
		}
	}
	end := p.peek().Span
	if !p.eatPunct(")") {
		p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `)` to close group")
	}
	sp := span.Join(start, end)
	if len(elems) == 1 {
		return ast.NewGroup(sp, p.nextPath(), elems[0])
	}
	return ast.NewTupleLiteral(sp, p.nextPath(), elems)
}

// parseUnit implements the `root[.field_or_call]*` member-access chain
//: a leading identifier/path, then zero or more
// `.name` or `.name(args)` steps, with `[index]` subscripts grafted on
// at each point they occur.
func (p *Parser) parseUnit() ast.Node {
	start := p.peek().Span
	node := p.parseSubscriptChain(p.parseIdentifierPath())

	var steps []*ast.UnitStep
	flush := func() {
		if len(steps) == 0 {
			return
		}
		end := steps[len(steps)-1].Span()
		node = ast.NewUnit(span.Join(start, end), p.nextPath(), node, steps)
		steps = nil
	}
	for p.isPunct(".") {
		p.advance()
		name := p.parseIdentifier()
		var args *ast.ArgumentList
		stepEnd := name.Span()
		if p.isPunct("(") {
			args = p.parseArgumentList()
			stepEnd = args.Span()
		}
		steps = append(steps, ast.NewUnitStep(span.Join(name.Span(), stepEnd), p.nextPath(), name, args))
		if p.isPunct("[") {
			flush()
			node = p.parseSubscriptChain(node)
		}
	}
	flush()
	return node
}

func (p *Parser) parseSubscriptChain(target ast.Node) ast.Node {
	for p.isPunct("[") {
		start := target.Span()
		p.advance()
		index := p.parseExpression()
		end := p.peek().Span
		if !p.eatPunct("]") {
			p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `]` to close subscript")
		}
		target = ast.NewSubscript(span.Join(start, end), p.nextPath(), target, index)
	}
	return target
}

// parsePipeline parses a `$item.field | $item2 | ...` chain: each
// stage is a `$`-sigiled identifier (optionally called)
// followed by member-access steps, joined by `|`. This shares the `|`
// token with the bitwise-or infix operator and the type-union operator;
// the leading `$` is what disambiguates a pipeline stage from either.
func (p *Parser) parsePipeline() ast.Node {
	start := p.peek().Span
	var items []ast.Node
	items = append(items, p.parsePipelineStage())
	for p.isPunct("|") && p.peekAt(1).Kind == lexer.TokPunctuation && p.peekAt(1).Text == "$" {
		p.advance() // '|'
		items = append(items, p.parsePipelineStage())
	}
	end := start
	if len(items) > 0 {
		end = items[len(items)-1].Span()
	}
	if len(items) == 1 {
		return items[0]
	}
	return ast.NewPipeline(span.Join(start, end), p.nextPath(), items)
}

func (p *Parser) parsePipelineStage() ast.Node {
	start := p.peek().Span
	p.advance() // '$'
	name := p.parseIdentifier()
	var args *ast.ArgumentList
	end := name.Span()
	if p.isPunct("(") {
		args = p.parseArgumentList()
		end = args.Span()
	}
	node := ast.Node(ast.NewUnitStep(span.Join(start, end), p.nextPath(), name, args))
	var steps []*ast.UnitStep
	for p.isPunct(".") {
		p.advance()
		stepName := p.parseIdentifier()
		var stepArgs *ast.ArgumentList
		if p.isPunct("(") {
			stepArgs = p.parseArgumentList()
		}
		step := ast.NewUnitStep(stepName.Span(), p.nextPath(), stepName, stepArgs)
		steps = append(steps, step)
		end = step.Span()
	}
	if len(steps) == 0 {
		return node
	}
	return ast.NewUnit(span.Join(start, end), p.nextPath(), node, steps)
}

// parseArgumentList parses the parenthesized `(...)` call arguments
// shared by decorators, enum-variant literals, and unit-step calls.
// Each argument is either bare (`value`) or named (`name: value`); the
// two are disambiguated by a one-token lookahead for `identifier :`.
func (p *Parser) parseArgumentList() *ast.ArgumentList {
	start := p.peek().Span
	p.advance() // '('
	var args []*ast.Argument
	for !p.isPunct(")") && !p.atEOF() {
		args = append(args, p.parseArgument())
		if !p.eatPunct(",") {
			break
		}
	}
	end := p.peek().Span
	if !p.eatPunct(")") {
		p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `)` to close argument list")
	}
	return ast.NewArgumentList(span.Join(start, end), p.nextPath(), args)
}

func (p *Parser) parseArgument() *ast.Argument {
	start := p.peek().Span
	var name *ast.Identifier
	if (p.peek().Kind == lexer.TokIdentifier || p.peek().Kind == lexer.TokKeyword) &&
		p.peekAt(1).Kind == lexer.TokPunctuation && p.peekAt(1).Text == ":" {
		name = p.parseIdentifier()
		p.advance() // ':'
	}
	value := p.parseExpression()
	return ast.NewArgument(span.Join(start, value.Span()), p.nextPath(), name, value)
}
