// Package writer implements the formatter/pretty-printer: it walks
// the same Node tree the parser built and emits Schema DSL text, one
// declaration per line, four-space indent, a blank line between
// top-level blocks.
//
// Note on fidelity: several of the parser's container nodes (Model,
// Enum, Config, ...) record only their semantic children (name,
// decorators, fields) rather than every literal punctuation/keyword
// token. This writer therefore re-derives punctuation (braces, colons,
// commas) from each node's Kind rather than replaying Children in
// lexical order; formatting then re-parsing still yields a structurally
// identical AST, since no semantic information is lost — only the exact
// original whitespace.
package writer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oxhq/schemalang/internal/ast"
	"github.com/oxhq/schemalang/internal/schema"
)

const indentUnit = "    "

// Writer accumulates formatted output for a single source file.
type Writer struct {
	b      strings.Builder
	indent int
}

func (w *Writer) writeIndent() {
	for i := 0; i < w.indent; i++ {
		w.b.WriteString(indentUnit)
	}
}

func (w *Writer) line(format string, args ...any) {
	w.writeIndent()
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteByte('\n')
}

func (w *Writer) raw(s string) { w.b.WriteString(s) }

// Format renders the source registered at filePath back to Schema DSL
// text.
func Format(sc *schema.Schema, filePath string) (string, error) {
	src, ok := sc.SourceAtPath(filePath)
	if !ok {
		return "", fmt.Errorf("writer: no source registered at %q", filePath)
	}
	w := &Writer{}
	w.writeTops(src.Tops)
	return w.b.String(), nil
}

// FormatSource is the same as Format but over an already-parsed Source,
// for callers formatting a file that was never registered under a
// Schema (e.g. a single-file editor preview).
func FormatSource(src *ast.Source) string {
	w := &Writer{}
	w.writeTops(src.Tops)
	return w.b.String()
}

func (w *Writer) writeTops(tops []ast.Node) {
	for i, top := range tops {
		if i > 0 {
			w.b.WriteByte('\n')
		}
		w.writeTop(top)
	}
}

func (w *Writer) writeTop(n ast.Node) {
	switch v := n.(type) {
	case *ast.Import:
		w.writeImport(v)
	case *ast.Namespace:
		w.writeNamespace(v)
	case *ast.Model:
		w.writeModel(v)
	case *ast.Enum:
		w.writeEnum(v)
	case *ast.Interface:
		w.writeInterface(v)
	case *ast.ConfigDeclaration:
		w.writeConfigDeclaration(v)
	case *ast.DataSet:
		w.writeDataSet(v)
	case *ast.DecoratorDeclaration:
		w.writeDecoratorDeclaration(v)
	case *ast.PipelineItemDeclaration:
		w.writePipelineItemDeclaration(v)
	case *ast.MiddlewareDeclaration:
		w.writeMiddlewareDeclaration(v)
	case *ast.StructDeclaration:
		w.writeStructDeclaration(v)
	case *ast.FunctionDeclaration:
		w.writeFunctionDeclaration(v, false)
	case *ast.HandlerGroupDeclaration:
		w.writeHandlerGroupDeclaration(v)
	case *ast.ConstantDeclaration:
		w.writeConstantDeclaration(v)
	case *ast.AvailabilityFlagStart:
		w.line("#%s", strings.TrimPrefix(v.FlagName, "#"))
	case *ast.AvailabilityFlagEnd:
		w.line("#end")
	default:
		w.line("/* unformattable node kind %d */", n.Kind())
	}
}

func (w *Writer) writeDocComment(d *ast.DocComment) {
	if d == nil {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(d.Text, "\n"), "\n") {
		w.line("/// %s", strings.TrimPrefix(line, "/// "))
	}
}

func (w *Writer) writeImport(imp *ast.Import) {
	if len(imp.Identifiers) == 0 {
		w.line("import from %q", imp.FromPath)
		return
	}
	names := make([]string, len(imp.Identifiers))
	for i, id := range imp.Identifiers {
		names[i] = id.Name
	}
	w.line("import { %s } from %q", strings.Join(names, ", "), imp.FromPath)
}

func (w *Writer) writeNamespace(n *ast.Namespace) {
	w.writeDocComment(n.Comment)
	w.line("namespace %s {", n.Identifier.Name)
	w.indent++
	w.writeTops(n.Tops)
	w.indent--
	w.line("}")
}

func (w *Writer) writeDecoratorList(decorators []*ast.Decorator, inline bool) {
	for _, d := range decorators {
		text := w.decoratorText(d)
		if inline {
			w.raw(" " + text)
		} else {
			w.line("%s", text)
		}
	}
}

func (w *Writer) decoratorText(d *ast.Decorator) string {
	var b strings.Builder
	b.WriteByte('@')
	b.WriteString(strings.Join(d.NamePath.Names, "."))
	if d.Arguments != nil {
		b.WriteString(w.argumentListText(d.Arguments))
	}
	return b.String()
}

func (w *Writer) writeModel(m *ast.Model) {
	w.writeDocComment(m.Comment)
	for _, d := range m.Decorators {
		w.line("%s", w.decoratorText(d))
	}
	w.line("model %s {", m.Identifier.Name)
	w.indent++
	for _, f := range m.Fields {
		w.writeField(f)
	}
	w.indent--
	w.line("}")
}

func (w *Writer) writeField(f *ast.Field) {
	w.writeDocComment(f.Comment)
	w.writeIndent()
	fmt.Fprintf(&w.b, "%s: %s", f.Name.Name, w.typeExprText(f.Type_))
	for _, d := range f.Decorators {
		w.raw(" " + w.decoratorText(d))
	}
	w.b.WriteByte('\n')
}

func (w *Writer) writeEnum(e *ast.Enum) {
	w.writeDocComment(e.Comment)
	for _, d := range e.Decorators {
		w.line("%s", w.decoratorText(d))
	}
	opt := ""
	if e.OptionStyle {
		opt = " option"
	}
	w.line("enum %s%s {", e.Identifier.Name, opt)
	w.indent++
	for _, m := range e.Members {
		w.writeEnumMember(m)
	}
	w.indent--
	w.line("}")
}

func (w *Writer) writeEnumMember(m *ast.EnumMember) {
	w.writeDocComment(m.Comment)
	w.writeIndent()
	w.raw(m.Name.Name)
	if len(m.ArgTypes) > 0 {
		parts := make([]string, len(m.ArgTypes))
		for i, t := range m.ArgTypes {
			parts[i] = w.typeExprText(t)
		}
		fmt.Fprintf(&w.b, "(%s)", strings.Join(parts, ", "))
	}
	for _, d := range m.Decorators {
		w.raw(" " + w.decoratorText(d))
	}
	w.b.WriteByte('\n')
}

func (w *Writer) writeInterface(it *ast.Interface) {
	w.writeDocComment(it.Comment)
	w.writeIndent()
	w.raw("interface " + it.Identifier.Name)
	if it.Generics != nil {
		w.raw(w.genericsDeclText(it.Generics))
	}
	if len(it.Extends) > 0 {
		parts := make([]string, len(it.Extends))
		for i, e := range it.Extends {
			parts[i] = w.typeExprText(e)
		}
		w.raw(": " + strings.Join(parts, ", "))
	}
	w.raw(" {\n")
	w.indent++
	for _, f := range it.Fields {
		w.writeField(f)
	}
	w.indent--
	w.line("}")
}

func (w *Writer) genericsDeclText(g *ast.GenericsDeclaration) string {
	parts := make([]string, len(g.Constraints))
	for i, c := range g.Constraints {
		if c.Bound != nil {
			parts[i] = c.Name.Name + ": " + w.typeExprText(c.Bound)
		} else {
			parts[i] = c.Name.Name
		}
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

func (w *Writer) writeConfigDeclaration(cd *ast.ConfigDeclaration) {
	w.writeDocComment(cd.Comment)
	w.line("config %s {", cd.Identifier.Name)
	w.indent++
	for _, cfg := range cd.Configs {
		w.writeConfig(cfg)
	}
	w.indent--
	w.line("}")
}

func (w *Writer) writeConfig(cfg *ast.Config) {
	w.line("%s {", cfg.Keyword.Text)
	w.indent++
	for _, item := range cfg.Items {
		w.line("%s: %s", item.Name.Name, w.exprText(item.Value))
	}
	w.indent--
	w.line("}")
}

func (w *Writer) writeDataSet(ds *ast.DataSet) {
	w.writeDocComment(ds.Comment)
	auto := ""
	if ds.AutoSeed {
		auto = "autoseed "
	}
	w.line("dataset %s%s {", auto, ds.Identifier.Name)
	w.indent++
	for _, g := range ds.Groups {
		w.writeDataSetGroup(g)
	}
	w.indent--
	w.line("}")
}

func (w *Writer) writeDataSetGroup(g *ast.DataSetGroup) {
	w.line("%s {", strings.Join(g.ModelPath.Names, "."))
	w.indent++
	for _, r := range g.Records {
		w.writeDataSetRecord(r)
	}
	w.indent--
	w.line("}")
}

func (w *Writer) writeDataSetRecord(r *ast.DataSetRecord) {
	w.writeDocComment(r.Comment)
	w.line("%s {", r.Name.Name)
	w.indent++
	for _, f := range r.Fields {
		w.line("%s: %s,", f.Name.Name, w.exprText(f.Value))
	}
	w.indent--
	w.line("}")
}

func (w *Writer) writeCallableVariants(variants []*ast.CallableVariant) string {
	parts := make([]string, len(variants))
	for i, v := range variants {
		out := "?"
		if v.Output != nil {
			out = w.typeExprText(v.Output)
		}
		parts[i] = fmt.Sprintf("%s -> %s", w.typeExprText(v.Input), out)
	}
	return strings.Join(parts, " | ")
}

func (w *Writer) writeDecoratorDeclaration(dd *ast.DecoratorDeclaration) {
	w.writeDocComment(dd.Comment)
	w.writeIndent()
	w.raw("decorator " + dd.Identifier.Name + w.argumentDeclListText(dd.Arguments))
	if len(dd.Variants) > 0 {
		w.raw(": " + w.writeCallableVariants(dd.Variants))
	}
	w.b.WriteByte('\n')
}

func (w *Writer) writePipelineItemDeclaration(pd *ast.PipelineItemDeclaration) {
	w.writeDocComment(pd.Comment)
	w.writeIndent()
	w.raw("pipelineitem " + pd.Identifier.Name + w.argumentDeclListText(pd.Arguments))
	if len(pd.Variants) > 0 {
		w.raw(": " + w.writeCallableVariants(pd.Variants))
	}
	w.b.WriteByte('\n')
}

func (w *Writer) writeMiddlewareDeclaration(md *ast.MiddlewareDeclaration) {
	w.writeDocComment(md.Comment)
	w.line("middleware %s%s", md.Identifier.Name, w.argumentDeclListText(md.Arguments))
}

func (w *Writer) writeStructDeclaration(sd *ast.StructDeclaration) {
	w.writeDocComment(sd.Comment)
	w.writeIndent()
	w.raw("struct " + sd.Identifier.Name)
	if sd.Generics != nil {
		w.raw(w.genericsDeclText(sd.Generics))
	}
	w.raw(" {\n")
	w.indent++
	for _, fn := range sd.Functions {
		w.writeFunctionDeclaration(fn, true)
	}
	w.indent--
	w.line("}")
}

func (w *Writer) writeFunctionDeclaration(fn *ast.FunctionDeclaration, inStruct bool) {
	w.writeDocComment(fn.Comment)
	w.writeIndent()
	if inStruct && fn.IsStatic {
		w.raw("static ")
	}
	w.raw("function " + fn.Identifier.Name + w.argumentDeclListText(fn.Arguments))
	if fn.ReturnType != nil {
		w.raw(": " + w.typeExprText(fn.ReturnType))
	}
	w.b.WriteByte('\n')
}

func (w *Writer) writeHandlerGroupDeclaration(hg *ast.HandlerGroupDeclaration) {
	w.writeDocComment(hg.Comment)
	w.writeIndent()
	w.raw("handlerGroup " + hg.Identifier.Name)
	if len(hg.Middlewares) > 0 {
		parts := make([]string, len(hg.Middlewares))
		for i, m := range hg.Middlewares {
			parts[i] = strings.Join(m.Names, ".")
		}
		w.raw(" use(" + strings.Join(parts, ", ") + ")")
	}
	w.raw(" {\n")
	w.indent++
	for _, h := range hg.Handlers {
		w.writeHandlerDeclaration(h)
	}
	w.indent--
	w.line("}")
}

func (w *Writer) writeHandlerDeclaration(h *ast.HandlerDeclaration) {
	w.writeDocComment(h.Comment)
	w.writeIndent()
	w.raw(h.Identifier.Name + w.argumentDeclListText(h.Arguments))
	if h.ReturnType != nil {
		w.raw(": " + w.typeExprText(h.ReturnType))
	}
	for _, d := range h.Decorators {
		w.raw(" " + w.decoratorText(d))
	}
	w.b.WriteByte('\n')
}

func (w *Writer) writeConstantDeclaration(cd *ast.ConstantDeclaration) {
	w.writeDocComment(cd.Comment)
	w.writeIndent()
	w.raw("const " + cd.Identifier.Name)
	if cd.Type_ != nil {
		w.raw(": " + w.typeExprText(cd.Type_))
	}
	w.raw(" = " + w.exprText(cd.Value))
	w.b.WriteByte('\n')
}

func (w *Writer) argumentDeclListText(args []*ast.ArgumentDeclaration) string {
	if args == nil {
		return ""
	}
	parts := make([]string, len(args))
	for i, a := range args {
		s := a.Name.Name
		if a.Type_ != nil {
			s += ": " + w.typeExprText(a.Type_)
		}
		if a.Default != nil {
			s += " = " + w.exprText(a.Default)
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (w *Writer) argumentListText(args *ast.ArgumentList) string {
	if args == nil {
		return ""
	}
	parts := make([]string, len(args.Arguments))
	for i, a := range args.Arguments {
		if a.Name != nil {
			parts[i] = a.Name.Name + ": " + w.nodeText(a.Value)
		} else {
			parts[i] = w.nodeText(a.Value)
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// --- type expressions ---

func (w *Writer) typeExprText(t *ast.TypeExpr) string {
	if t == nil {
		return ""
	}
	parts := make([]string, len(t.Members))
	for i, m := range t.Members {
		parts[i] = w.typeNodeText(m)
	}
	return strings.Join(parts, " | ")
}

func (w *Writer) typeNodeText(n ast.Node) string {
	switch v := n.(type) {
	case *ast.TypeItem:
		s := strings.Join(v.Name.Names, ".")
		if len(v.Generics) > 0 {
			parts := make([]string, len(v.Generics))
			for i, g := range v.Generics {
				parts[i] = w.typeNodeText(g)
			}
			s += "<" + strings.Join(parts, ", ") + ">"
		}
		if v.Arity.Array {
			s += "[]"
		}
		if v.Arity.Optional {
			s += "?"
		}
		return s
	case *ast.TypeExpr:
		return w.typeExprText(v)
	case *ast.TypeGroup:
		return "(" + w.typeNodeText(v.Inner) + ")"
	case *ast.TypeTuple:
		parts := make([]string, len(v.Elements))
		for i, e := range v.Elements {
			parts[i] = w.typeNodeText(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *ast.TypeSubscript:
		return w.typeNodeText(v.Target) + "[" + w.typeNodeText(v.Index) + "]"
	case *ast.TypedShape:
		parts := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			parts[i] = f.Name.Name + ": " + w.typeNodeText(f.Type)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case *ast.TypedEnum:
		parts := make([]string, len(v.Variants))
		for i, variant := range v.Variants {
			parts[i] = "." + variant.Name
		}
		return strings.Join(parts, " | ")
	case *ast.FieldNameReference:
		return "." + v.Name.Name
	default:
		return ""
	}
}

// --- expressions ---

func (w *Writer) exprText(e *ast.Expression) string {
	if e == nil {
		return ""
	}
	return w.nodeText(e.Inner)
}

func (w *Writer) nodeText(n ast.Node) string {
	switch v := n.(type) {
	case *ast.Expression:
		return w.nodeText(v.Inner)
	case *ast.NumericLiteral:
		return v.Text
	case *ast.StringLiteral:
		return fmt.Sprintf("%q", v.Value)
	case *ast.BoolLiteral:
		if v.Value {
			return "true"
		}
		return "false"
	case *ast.NullLiteral:
		return "null"
	case *ast.RegExpLiteral:
		return "/" + v.Pattern + "/"
	case *ast.Identifier:
		return v.Name
	case *ast.IdentifierPath:
		return strings.Join(v.Names, ".")
	case *ast.EnumVariantLiteral:
		s := "." + v.Name.Name
		if v.Arguments != nil {
			s += w.argumentListText(v.Arguments)
		}
		return s
	case *ast.RangeLiteral:
		op := ".."
		if v.Closed {
			op = "..."
		}
		return w.nodeText(v.Start) + op + w.nodeText(v.End)
	case *ast.TupleLiteral:
		parts := make([]string, len(v.Elements))
		for i, e := range v.Elements {
			parts[i] = w.nodeText(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *ast.ArrayLiteral:
		parts := make([]string, len(v.Elements))
		for i, e := range v.Elements {
			parts[i] = w.nodeText(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *ast.DictionaryLiteral:
		parts := make([]string, len(v.Entries))
		for i, e := range v.Entries {
			parts[i] = w.nodeText(e.Key) + ": " + w.nodeText(e.Value)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case *ast.Group:
		return "(" + w.nodeText(v.Inner) + ")"
	case *ast.UnaryOperation:
		return unaryOpText(v.Operator) + w.nodeText(v.Operand)
	case *ast.UnaryPostfixOperation:
		return w.nodeText(v.Operand) + "!"
	case *ast.BinaryOperation:
		return w.nodeText(v.Left) + " " + binaryOpText(v.Operator) + " " + w.nodeText(v.Right)
	case *ast.Unit:
		s := w.nodeText(v.Base_)
		for _, step := range v.Steps {
			s += "." + step.Name.Name
			if step.Arguments != nil {
				s += w.argumentListText(step.Arguments)
			}
		}
		return s
	case *ast.UnitStep:
		s := "$" + v.Name.Name
		if v.Arguments != nil {
			s += w.argumentListText(v.Arguments)
		}
		return s
	case *ast.Subscript:
		return w.nodeText(v.Target) + "[" + w.nodeText(v.Index) + "]"
	case *ast.Pipeline:
		parts := make([]string, len(v.Items))
		for i, it := range v.Items {
			parts[i] = w.nodeText(it)
		}
		return strings.Join(parts, " | ")
	default:
		return ""
	}
}

func unaryOpText(op ast.UnaryOperator) string {
	switch op {
	case ast.OpNegate:
		return "-"
	case ast.OpBitwiseNegate:
		return "~"
	case ast.OpLogicalNot:
		return "!"
	default:
		return ""
	}
}

func binaryOpText(op ast.BinaryOperator) string {
	switch op {
	case ast.OpNullishCoalescing:
		return "??"
	case ast.OpOr:
		return "||"
	case ast.OpAnd:
		return "&&"
	case ast.OpEq:
		return "=="
	case ast.OpNeq:
		return "!="
	case ast.OpLt:
		return "<"
	case ast.OpLte:
		return "<="
	case ast.OpGt:
		return ">"
	case ast.OpGte:
		return ">="
	case ast.OpBitOr:
		return "|"
	case ast.OpBitXor:
		return "^"
	case ast.OpBitAnd:
		return "&"
	case ast.OpShl:
		return "<<"
	case ast.OpShr:
		return ">>"
	case ast.OpAdd:
		return "+"
	case ast.OpSub:
		return "-"
	case ast.OpMul:
		return "*"
	case ast.OpDiv:
		return "/"
	case ast.OpMod:
		return "%"
	default:
		return "?"
	}
}

// SortedSourcePaths returns every on-disk source path registered in sc,
// sorted for deterministic multi-file format runs (e.g. a "format whole
// project" CLI command layered on top of this package).
func SortedSourcePaths(sc *schema.Schema) []string {
	var paths []string
	for _, src := range sc.AllSources() {
		if src.Path != "" {
			paths = append(paths, src.Path)
		}
	}
	sort.Strings(paths)
	return paths
}
