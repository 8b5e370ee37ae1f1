package parser

import (
	"github.com/oxhq/schemalang/internal/ast"
	"github.com/oxhq/schemalang/internal/diagnostics"
	"github.com/oxhq/schemalang/internal/lexer"
	"github.com/oxhq/schemalang/internal/span"
)

// parseTop dispatches one top-level (or namespace-nested) construct. A
// construct this dispatch doesn't recognize is recovered token-by-token
// so one malformed declaration can't derail the rest of the file.
func (p *Parser) parseTop() ast.Node {
	switch {
	case p.peek().Kind == lexer.TokAvailabilityFlag:
		if p.peek().Text == "#end" {
			return p.parseAvailabilityFlagEnd()
		}
		return p.parseAvailabilityFlagStart()
	case p.isPunct("@"):
		return p.parseDecoratedTop()
	case p.isKeyword("import"):
		return p.parseImport()
	case p.isKeyword("namespace"):
		return p.parseNamespace()
	case p.isKeyword("model"):
		return p.parseModel(nil, p.takeDocComment())
	case p.isKeyword("enum"):
		return p.parseEnum(nil, p.takeDocComment())
	case p.isKeyword("interface"):
		return p.parseInterface(p.takeDocComment())
	case p.isKeyword("config"):
		return p.parseConfigDeclaration(p.takeDocComment())
	case p.isKeyword("dataset"):
		return p.parseDataSet(p.takeDocComment())
	case p.isKeyword("decorator"):
		return p.parseDecoratorDeclaration(p.takeDocComment())
	case p.isKeyword("pipelineitem"):
		return p.parsePipelineItemDeclaration(p.takeDocComment())
	case p.isKeyword("middleware"):
		return p.parseMiddlewareDeclaration(p.takeDocComment())
	case p.isKeyword("struct"):
		return p.parseStructDeclaration(p.takeDocComment())
	case p.isKeyword("function"):
		return p.parseFunctionDeclaration(false, p.takeDocComment())
	case p.isKeyword("handlerGroup"):
		return p.parseHandlerGroupDeclaration(p.takeDocComment())
	case p.isKeyword("const"):
		return p.parseConstantDeclaration(p.takeDocComment())
	default:
		p.recoverToken()
		return nil
	}
}

// parseDecoratedTop consumes one or more leading `@decorator` tokens and
// attaches them to whichever declaration kind follows (model or enum are
// the only top-level forms the grammar allows decorators on).
func (p *Parser) parseDecoratedTop() ast.Node {
	doc := p.takeDocComment()
	var decorators []*ast.Decorator
	for p.isPunct("@") {
		decorators = append(decorators, p.parseDecorator())
		p.collectDocComment()
	}
	switch {
	case p.isKeyword("model"):
		return p.parseModel(decorators, doc)
	case p.isKeyword("enum"):
		return p.parseEnum(decorators, doc)
	default:
		p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "decorators are only allowed before `model`/`enum`")
		return p.parseTop()
	}
}

func (p *Parser) parseDecorator() *ast.Decorator {
	start := p.peek().Span
	p.advance() // '@'
	namePath := p.parseIdentifierPath()
	var args *ast.ArgumentList
	end := namePath.Span()
	if p.isPunct("(") {
		args = p.parseArgumentList()
		end = args.Span()
	}
	return ast.NewDecorator(span.Join(start, end), p.nextPath(), namePath, args)
}

func (p *Parser) parseImport() *ast.Import {
	start := p.peek().Span
	p.advance() // 'import'
	var ids []*ast.Identifier
	if p.eatPunct("{") {
		for !p.isPunct("}") && !p.atEOF() {
			ids = append(ids, p.parseIdentifier())
			if !p.eatPunct(",") {
				break
			}
		}
		if !p.eatPunct("}") {
			p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `}` to close import list")
		}
	}
	if !p.eatKeyword("from") {
		p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `from` in import statement")
	}
	fromTok := p.peek()
	fromPath := fromTok.Text
	if fromTok.Kind == lexer.TokString {
		p.advance()
	} else {
		p.errorAt(fromTok.Span, diagnostics.ErrSyntax, "expected a string path in import statement")
	}
	return ast.NewImport(span.Join(start, fromTok.Span), p.nextPath(), fromPath, ids)
}

func (p *Parser) parseNamespace() *ast.Namespace {
	doc := p.takeDocComment()
	start := p.peek().Span
	p.advance() // 'namespace'
	name := p.parseIdentifier()
	stringPath := p.currentStringPath(name.Name)

	p.nsPath = append(p.nsPath, name.Name)
	defer func() { p.nsPath = p.nsPath[:len(p.nsPath)-1] }()

	var tops []ast.Node
	end := name.Span()
	if p.eatPunct("{") {
		for !p.isPunct("}") && !p.atEOF() {
			p.collectDocComment()
			if top := p.parseTop(); top != nil {
				tops = append(tops, top)
			}
		}
		end = p.peek().Span
		if !p.eatPunct("}") {
			p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `}` to close namespace")
		}
	}
	n := ast.NewNamespace(span.Join(start, end), p.nextPath(), name, stringPath, tops, doc)
	n.DefineAvailability = p.currentDefineAvailability()
	return n
}

func (p *Parser) parseGenericsDeclaration() *ast.GenericsDeclaration {
	start := p.peek().Span
	p.advance() // '<'
	var names []*ast.Identifier
	var constraints []*ast.GenericsConstraint
	for !p.isPunct(">") && !p.atEOF() {
		cstart := p.peek().Span
		name := p.parseIdentifier()
		names = append(names, name)
		var bound *ast.TypeExpr
		if p.eatPunct(":") {
			bound = p.parseTypeExpr()
		}
		end := name.Span()
		if bound != nil {
			end = bound.Span()
		}
		constraints = append(constraints, ast.NewGenericsConstraint(span.Join(cstart, end), p.nextPath(), name, bound))
		if !p.eatPunct(",") {
			break
		}
	}
	end := p.peek().Span
	if !p.eatPunct(">") {
		p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `>` to close generics declaration")
	}
	return ast.NewGenericsDeclaration(span.Join(start, end), p.nextPath(), names, constraints)
}

func (p *Parser) parseArgumentDeclarationList() []*ast.ArgumentDeclaration {
	if !p.eatPunct("(") {
		return nil
	}
	var args []*ast.ArgumentDeclaration
	for !p.isPunct(")") && !p.atEOF() {
		args = append(args, p.parseArgumentDeclaration())
		if !p.eatPunct(",") {
			break
		}
	}
	if !p.eatPunct(")") {
		p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `)` to close argument declaration list")
	}
	return args
}

func (p *Parser) parseArgumentDeclaration() *ast.ArgumentDeclaration {
	start := p.peek().Span
	name := p.parseIdentifier()
	var typ *ast.TypeExpr
	if p.eatPunct(":") {
		typ = p.parseTypeExpr()
	}
	var def *ast.Expression
	end := name.Span()
	if typ != nil {
		end = typ.Span()
	}
	if p.eatPunct("=") {
		def = p.parseExpression()
		end = def.Span()
	}
	return ast.NewArgumentDeclaration(span.Join(start, end), p.nextPath(), name, typ, def)
}

func (p *Parser) parseField() *ast.Field {
	doc := p.takeDocComment()
	start := p.peek().Span
	name := p.parseIdentifier()
	if !p.eatPunct(":") {
		p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `:` in field declaration")
	}
	typ := p.parseTypeExpr()
	var decorators []*ast.Decorator
	end := typ.Span()
	for p.isPunct("@") {
		d := p.parseDecorator()
		decorators = append(decorators, d)
		end = d.Span()
	}
	f := ast.NewField(span.Join(start, end), p.nextPath(), name, typ, decorators, doc)
	f.DefineAvailability = p.currentDefineAvailability()
	return f
}

func (p *Parser) parseModel(decorators []*ast.Decorator, doc *ast.DocComment) *ast.Model {
	start := p.peek().Span
	if len(decorators) > 0 {
		start = decorators[0].Span()
	}
	p.advance() // 'model'
	name := p.parseIdentifier()
	stringPath := p.currentStringPath(name.Name)

	var fields []*ast.Field
	end := name.Span()
	if p.eatPunct("{") {
		for !p.isPunct("}") && !p.atEOF() {
			p.collectDocComment()
			if p.isPunct("}") {
				break
			}
			fields = append(fields, p.parseField())
		}
		end = p.peek().Span
		if !p.eatPunct("}") {
			p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `}` to close model body")
		}
	}
	m := ast.NewModel(span.Join(start, end), p.nextPath(), name, stringPath, decorators, fields, doc)
	m.DefineAvailability = p.currentDefineAvailability()
	return m
}

func (p *Parser) parseEnum(decorators []*ast.Decorator, doc *ast.DocComment) *ast.Enum {
	start := p.peek().Span
	if len(decorators) > 0 {
		start = decorators[0].Span()
	}
	p.advance() // 'enum'
	name := p.parseIdentifier()
	stringPath := p.currentStringPath(name.Name)
	optionStyle := p.eatKeyword("option")

	var members []*ast.EnumMember
	end := name.Span()
	if p.eatPunct("{") {
		for !p.isPunct("}") && !p.atEOF() {
			p.collectDocComment()
			if p.isPunct("}") {
				break
			}
			members = append(members, p.parseEnumMember())
		}
		end = p.peek().Span
		if !p.eatPunct("}") {
			p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `}` to close enum body")
		}
	}
	e := ast.NewEnum(span.Join(start, end), p.nextPath(), name, stringPath, decorators, members, doc, optionStyle)
	e.DefineAvailability = p.currentDefineAvailability()
	return e
}

func (p *Parser) parseEnumMember() *ast.EnumMember {
	doc := p.takeDocComment()
	start := p.peek().Span
	name := p.parseIdentifier()
	var argTypes []*ast.TypeExpr
	end := name.Span()
	if p.eatPunct("(") {
		for !p.isPunct(")") && !p.atEOF() {
			argTypes = append(argTypes, p.parseTypeExpr())
			if !p.eatPunct(",") {
				break
			}
		}
		end = p.peek().Span
		if !p.eatPunct(")") {
			p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `)` to close enum member payload")
		}
	}
	var decorators []*ast.Decorator
	for p.isPunct("@") {
		d := p.parseDecorator()
		decorators = append(decorators, d)
		end = d.Span()
	}
	return ast.NewEnumMember(span.Join(start, end), p.nextPath(), name, argTypes, decorators, doc)
}

func (p *Parser) parseInterface(doc *ast.DocComment) *ast.Interface {
	start := p.peek().Span
	p.advance() // 'interface'
	name := p.parseIdentifier()
	stringPath := p.currentStringPath(name.Name)

	var generics *ast.GenericsDeclaration
	if p.isPunct("<") {
		generics = p.parseGenericsDeclaration()
	}

	var extends []*ast.TypeExpr
	if p.eatPunct(":") {
		for {
			extends = append(extends, p.parseTypeExpr())
			if !p.eatPunct(",") {
				break
			}
		}
	}

	var fields []*ast.Field
	end := name.Span()
	if p.eatPunct("{") {
		for !p.isPunct("}") && !p.atEOF() {
			p.collectDocComment()
			if p.isPunct("}") {
				break
			}
			fields = append(fields, p.parseField())
		}
		end = p.peek().Span
		if !p.eatPunct("}") {
			p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `}` to close interface body")
		}
	}
	it := ast.NewInterface(span.Join(start, end), p.nextPath(), name, stringPath, generics, extends, fields, doc)
	it.DefineAvailability = p.currentDefineAvailability()
	return it
}

func (p *Parser) parseConfigDeclaration(doc *ast.DocComment) *ast.ConfigDeclaration {
	start := p.peek().Span
	p.advance() // 'config'
	name := p.parseIdentifier()
	stringPath := p.currentStringPath(name.Name)

	var configs []*ast.Config
	end := name.Span()
	if p.eatPunct("{") {
		for !p.isPunct("}") && !p.atEOF() {
			configs = append(configs, p.parseConfig())
		}
		end = p.peek().Span
		if !p.eatPunct("}") {
			p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `}` to close config declaration")
		}
	}
	cd := ast.NewConfigDeclaration(span.Join(start, end), p.nextPath(), name, stringPath, configs, doc)
	cd.DefineAvailability = p.currentDefineAvailability()
	return cd
}

func (p *Parser) parseConfig() *ast.Config {
	start := p.peek().Span
	keyword := p.parseKeywordLeaf()
	var items []*ast.ConfigItem
	end := keyword.Span()
	if p.eatPunct("{") {
		for !p.isPunct("}") && !p.atEOF() {
			items = append(items, p.parseConfigItem())
			p.eatPunct(",")
		}
		end = p.peek().Span
		if !p.eatPunct("}") {
			p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `}` to close config block")
		}
	}
	return ast.NewConfig(span.Join(start, end), p.nextPath(), keyword, items)
}

func (p *Parser) parseConfigItem() *ast.ConfigItem {
	start := p.peek().Span
	name := p.parseIdentifier()
	if !p.eatPunct(":") {
		p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `:` in config item")
	}
	value := p.parseExpression()
	return ast.NewConfigItem(span.Join(start, value.Span()), p.nextPath(), name, value)
}

func (p *Parser) parseDataSet(doc *ast.DocComment) *ast.DataSet {
	start := p.peek().Span
	p.advance() // 'dataset'
	autoSeed := p.eatKeyword("autoseed")
	name := p.parseIdentifier()
	stringPath := p.currentStringPath(name.Name)

	var groups []*ast.DataSetGroup
	end := name.Span()
	if p.eatPunct("{") {
		for !p.isPunct("}") && !p.atEOF() {
			groups = append(groups, p.parseDataSetGroup())
		}
		end = p.peek().Span
		if !p.eatPunct("}") {
			p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `}` to close dataset")
		}
	}
	ds := ast.NewDataSet(span.Join(start, end), p.nextPath(), name, stringPath, autoSeed, groups, doc)
	ds.DefineAvailability = p.currentDefineAvailability()
	return ds
}

func (p *Parser) parseDataSetGroup() *ast.DataSetGroup {
	start := p.peek().Span
	modelPath := p.parseIdentifierPath()
	var records []*ast.DataSetRecord
	end := modelPath.Span()
	if p.eatPunct("{") {
		for !p.isPunct("}") && !p.atEOF() {
			records = append(records, p.parseDataSetRecord())
		}
		end = p.peek().Span
		if !p.eatPunct("}") {
			p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `}` to close dataset group")
		}
	}
	return ast.NewDataSetGroup(span.Join(start, end), p.nextPath(), modelPath, records)
}

func (p *Parser) parseDataSetRecord() *ast.DataSetRecord {
	doc := p.takeDocComment()
	start := p.peek().Span
	name := p.parseIdentifier()
	var fields []*ast.ConfigItem
	end := name.Span()
	if p.eatPunct("{") {
		for !p.isPunct("}") && !p.atEOF() {
			fields = append(fields, p.parseConfigItem())
			if !p.eatPunct(",") {
				break
			}
		}
		end = p.peek().Span
		if !p.eatPunct("}") {
			p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `}` to close dataset record")
		}
	}
	return ast.NewDataSetRecord(span.Join(start, end), p.nextPath(), name, fields, doc)
}

// parseCallableVariants parses the `: Input -> Output (| Input -> Output)*`
// clause shared by decorator and pipeline-item declarations, each arrow
// pair becoming one CallableVariant overload. Each Output is a single
// type member, since a bare `|` after it starts the next variant; a
// union output is written in parentheses.
func (p *Parser) parseCallableVariants() []*ast.CallableVariant {
	if !p.eatPunct(":") {
		return nil
	}
	var variants []*ast.CallableVariant
	for {
		input := p.parseTypeExpr()
		var output *ast.TypeExpr
		if !p.eatPunct("->") {
			p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `->` in callable signature")
		} else {
			outStart := p.peek().Span
			member := p.parseTypeMember()
			output = ast.NewTypeExpr(span.Join(outStart, member.Span()), p.nextPath(), []ast.Node{member})
		}
		variants = append(variants, &ast.CallableVariant{Input: input, Output: output})
		if !p.eatPunct("|") {
			break
		}
	}
	return variants
}

func (p *Parser) parseDecoratorDeclaration(doc *ast.DocComment) *ast.DecoratorDeclaration {
	start := p.peek().Span
	p.advance() // 'decorator'
	name := p.parseIdentifier()
	stringPath := p.currentStringPath(name.Name)
	args := p.parseArgumentDeclarationList()
	variants := p.parseCallableVariants()
	end := name.Span()
	if len(variants) > 0 && variants[len(variants)-1].Output != nil {
		end = variants[len(variants)-1].Output.Span()
	}
	dd := ast.NewDecoratorDeclaration(span.Join(start, end), p.nextPath(), name, stringPath, args, variants, doc)
	dd.DefineAvailability = p.currentDefineAvailability()
	return dd
}

func (p *Parser) parsePipelineItemDeclaration(doc *ast.DocComment) *ast.PipelineItemDeclaration {
	start := p.peek().Span
	p.advance() // 'pipelineitem'
	name := p.parseIdentifier()
	stringPath := p.currentStringPath(name.Name)
	args := p.parseArgumentDeclarationList()
	variants := p.parseCallableVariants()
	end := name.Span()
	if len(variants) > 0 && variants[len(variants)-1].Output != nil {
		end = variants[len(variants)-1].Output.Span()
	}
	pd := ast.NewPipelineItemDeclaration(span.Join(start, end), p.nextPath(), name, stringPath, args, variants, doc)
	pd.DefineAvailability = p.currentDefineAvailability()
	return pd
}

func (p *Parser) parseMiddlewareDeclaration(doc *ast.DocComment) *ast.MiddlewareDeclaration {
	start := p.peek().Span
	p.advance() // 'middleware'
	name := p.parseIdentifier()
	stringPath := p.currentStringPath(name.Name)
	args := p.parseArgumentDeclarationList()
	end := name.Span()
	if p.isPunct("{") {
		end = p.skipBalanced("{", "}")
	}
	md := ast.NewMiddlewareDeclaration(span.Join(start, end), p.nextPath(), name, stringPath, args, doc)
	md.DefineAvailability = p.currentDefineAvailability()
	return md
}

func (p *Parser) parseStructDeclaration(doc *ast.DocComment) *ast.StructDeclaration {
	start := p.peek().Span
	p.advance() // 'struct'
	name := p.parseIdentifier()
	stringPath := p.currentStringPath(name.Name)

	var generics *ast.GenericsDeclaration
	if p.isPunct("<") {
		generics = p.parseGenericsDeclaration()
	}

	var functions []*ast.FunctionDeclaration
	end := name.Span()
	if p.eatPunct("{") {
		for !p.isPunct("}") && !p.atEOF() {
			isStatic := p.eatKeyword("static")
			if !p.isKeyword("function") {
				p.recoverToken()
				continue
			}
			functions = append(functions, p.parseFunctionDeclaration(isStatic, p.takeDocComment()))
		}
		end = p.peek().Span
		if !p.eatPunct("}") {
			p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `}` to close struct body")
		}
	}
	sd := ast.NewStructDeclaration(span.Join(start, end), p.nextPath(), name, stringPath, generics, functions, doc)
	sd.DefineAvailability = p.currentDefineAvailability()
	return sd
}

func (p *Parser) parseFunctionDeclaration(isStatic bool, doc *ast.DocComment) *ast.FunctionDeclaration {
	start := p.peek().Span
	p.advance() // 'function'
	name := p.parseIdentifier()
	stringPath := p.currentStringPath(name.Name)
	args := p.parseArgumentDeclarationList()
	var ret *ast.TypeExpr
	if p.eatPunct(":") {
		ret = p.parseTypeExpr()
	}
	end := name.Span()
	if ret != nil {
		end = ret.Span()
	}
	if p.isPunct("{") {
		end = p.skipBalanced("{", "}")
	}
	fd := ast.NewFunctionDeclaration(span.Join(start, end), p.nextPath(), name, stringPath, args, ret, isStatic, doc)
	fd.DefineAvailability = p.currentDefineAvailability()
	return fd
}

func (p *Parser) parseHandlerGroupDeclaration(doc *ast.DocComment) *ast.HandlerGroupDeclaration {
	start := p.peek().Span
	p.advance() // 'handlerGroup'
	name := p.parseIdentifier()
	stringPath := p.currentStringPath(name.Name)

	var middlewares []*ast.IdentifierPath
	if p.eatKeyword("use") {
		if p.eatPunct("(") {
			for !p.isPunct(")") && !p.atEOF() {
				middlewares = append(middlewares, p.parseIdentifierPath())
				if !p.eatPunct(",") {
					break
				}
			}
			if !p.eatPunct(")") {
				p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `)` to close middleware list")
			}
		}
	}

	var handlers []*ast.HandlerDeclaration
	end := name.Span()
	if p.eatPunct("{") {
		for !p.isPunct("}") && !p.atEOF() {
			p.collectDocComment()
			if p.isPunct("}") {
				break
			}
			handlers = append(handlers, p.parseHandlerDeclaration())
		}
		end = p.peek().Span
		if !p.eatPunct("}") {
			p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `}` to close handler group")
		}
	}
	hg := ast.NewHandlerGroupDeclaration(span.Join(start, end), p.nextPath(), name, stringPath, middlewares, handlers, doc)
	hg.DefineAvailability = p.currentDefineAvailability()
	return hg
}

func (p *Parser) parseHandlerDeclaration() *ast.HandlerDeclaration {
	doc := p.takeDocComment()
	start := p.peek().Span
	name := p.parseIdentifier()
	stringPath := p.currentStringPath(name.Name)
	args := p.parseArgumentDeclarationList()
	var ret *ast.TypeExpr
	if p.eatPunct(":") {
		ret = p.parseTypeExpr()
	}
	var decorators []*ast.Decorator
	end := name.Span()
	if ret != nil {
		end = ret.Span()
	}
	for p.isPunct("@") {
		d := p.parseDecorator()
		decorators = append(decorators, d)
		end = d.Span()
	}
	return ast.NewHandlerDeclaration(span.Join(start, end), p.nextPath(), name, stringPath, args, ret, decorators, doc)
}

func (p *Parser) parseConstantDeclaration(doc *ast.DocComment) *ast.ConstantDeclaration {
	start := p.peek().Span
	p.advance() // 'const'
	name := p.parseIdentifier()
	stringPath := p.currentStringPath(name.Name)
	var typ *ast.TypeExpr
	if p.eatPunct(":") {
		typ = p.parseTypeExpr()
	}
	if !p.eatPunct("=") {
		p.errorAt(p.peek().Span, diagnostics.ErrSyntax, "expected `=` in constant declaration")
	}
	value := p.parseExpression()
	cd := ast.NewConstantDeclaration(span.Join(start, value.Span()), p.nextPath(), name, stringPath, typ, value, doc)
	cd.DefineAvailability = p.currentDefineAvailability()
	return cd
}
