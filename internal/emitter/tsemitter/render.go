package tsemitter

import (
	"fmt"
	"strings"

	"github.com/mark3labs/swagger2ts/internal/ir"
)

// Header opens every generated TypeScript file.
const Header = "// Code generated by swagger2ts. DO NOT EDIT.\n"

// RenderTypes renders the shared type module.
func RenderTypes(unit ir.TypeUnit) string {
	var b strings.Builder
	b.WriteString(Header)
	if len(unit.Interfaces) == 0 {
		b.WriteString("\nexport {};\n")
		return b.String()
	}
	for _, iface := range unit.Interfaces {
		b.WriteString("\n")
		writeInterface(&b, iface)
	}
	return b.String()
}

func writeInterface(b *strings.Builder, iface ir.Interface) {
	b.WriteString(jsDoc("", iface.Doc))
	if iface.Alias != nil {
		fmt.Fprintf(b, "export type %s = %s;\n", iface.Name, iface.Alias)
		return
	}
	if len(iface.Fields) == 0 {
		fmt.Fprintf(b, "export interface %s {}\n", iface.Name)
		return
	}
	fmt.Fprintf(b, "export interface %s {\n", iface.Name)
	for _, f := range iface.Fields {
		b.WriteString(jsDoc("  ", f.Doc))
		opt := ""
		if f.Optional {
			opt = "?"
		}
		fmt.Fprintf(b, "  %s%s: %s;\n", propertyKey(f.Name), opt, f.Type)
	}
	b.WriteString("}\n")
}

// RenderService renders one service module.
func RenderService(unit ir.ServiceUnit) string {
	var b strings.Builder
	b.WriteString(Header)
	if len(unit.Imports) > 0 {
		b.WriteString("\n")
	}
	for _, imp := range unit.Imports {
		writeImport(&b, unit.Module, imp)
	}
	for _, fn := range unit.Functions {
		b.WriteString("\n")
		writeFunction(&b, fn)
	}
	return b.String()
}

func writeImport(b *strings.Builder, from string, imp ir.Import) {
	var clause []string
	if imp.Default != "" {
		clause = append(clause, imp.Default)
	}
	if len(imp.Names) > 0 {
		clause = append(clause, "{ "+strings.Join(imp.Names, ", ")+" }")
	}
	if len(clause) == 0 {
		return
	}
	fmt.Fprintf(b, "import %s from %s;\n", strings.Join(clause, ", "), singleQuote(ir.RelativeModule(from, imp.Module)))
}

func writeFunction(b *strings.Builder, fn ir.Function) {
	b.WriteString(functionDoc(fn))

	params := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		opt := ""
		if !p.Required {
			opt = "?"
		}
		params = append(params, fmt.Sprintf("%s%s: %s", p.Name, opt, p.Type))
	}
	ret := ""
	if fn.Returns != nil {
		ret = fmt.Sprintf(": Promise<%s>", fn.Returns)
	}
	fmt.Fprintf(b, "export function %s(%s)%s {\n", fn.Name, strings.Join(params, ", "), ret)

	call := fn.Call
	var opts []string
	if len(call.Query) > 0 {
		fmt.Fprintf(b, "  const params = %s;\n", objectLiteral(call.Query))
		opts = append(opts, "params")
	}
	if len(call.Headers) > 0 {
		fmt.Fprintf(b, "  const headers = %s;\n", objectLiteral(call.Headers))
		opts = append(opts, "headers")
	}

	args := []string{pathExpr(call.Path)}
	if call.Body != "" {
		args = append(args, call.Body)
	}
	if len(opts) > 0 {
		args = append(args, "{ "+strings.Join(opts, ", ")+" }")
	}
	typeArg := ""
	if call.TypeArg != nil {
		typeArg = "<" + call.TypeArg.String() + ">"
	}
	fmt.Fprintf(b, "  return request.%s%s(%s)", call.Method, typeArg, strings.Join(args, ", "))
	if call.Unwrap {
		b.WriteString(".then(res => res.data)")
	}
	b.WriteString(";\n}\n")
}

func functionDoc(fn ir.Function) string {
	var lines []string
	if fn.Doc != "" {
		lines = append(lines, strings.Split(strings.TrimSpace(fn.Doc), "\n")...)
	}
	var tags []string
	for _, p := range fn.Params {
		if p.Doc != "" {
			tags = append(tags, "@param "+p.Name+" "+firstLine(p.Doc))
		}
	}
	if fn.Deprecated {
		tags = append(tags, "@deprecated")
	}
	if len(lines) > 0 && len(tags) > 0 {
		lines = append(lines, "")
	}
	lines = append(lines, tags...)
	return docBlock("", lines)
}

// objectLiteral renders { a, 'x-b': xB } binding wire names to identifiers.
func objectLiteral(params []ir.Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		if p.Wire == p.Name {
			parts = append(parts, p.Name)
			continue
		}
		parts = append(parts, objectKey(p.Wire)+": "+p.Name)
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// pathExpr renders a path as a quoted string, or as a template literal when
// it interpolates parameters.
func pathExpr(segs []ir.PathSegment) string {
	if !ir.Interpolated(segs) {
		var lit strings.Builder
		for _, s := range segs {
			lit.WriteString(s.Literal)
		}
		return singleQuote(lit.String())
	}
	var b strings.Builder
	b.WriteByte('`')
	for _, s := range segs {
		if s.IsParam() {
			b.WriteString("${" + s.Param + "}")
			continue
		}
		b.WriteString(templateEscaper.Replace(s.Literal))
	}
	b.WriteByte('`')
	return b.String()
}

var (
	templateEscaper = strings.NewReplacer("\\", "\\\\", "`", "\\`", "${", "\\${")
	quoteEscaper    = strings.NewReplacer("\\", "\\\\", "'", "\\'", "\n", "\\n", "\r", "\\r")
	docEscaper      = strings.NewReplacer("*/", "*\\/")
)

func singleQuote(s string) string { return "'" + quoteEscaper.Replace(s) + "'" }

// propertyKey returns an interface member name, quoted unless it is a plain
// identifier.
func propertyKey(name string) string {
	if isPlainIdentifier(name) {
		return name
	}
	return singleQuote(name)
}

// objectKey is propertyKey for object literal keys.
func objectKey(name string) string { return propertyKey(name) }

func isPlainIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == '$':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func jsDoc(indent, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return docBlock(indent, strings.Split(text, "\n"))
}

// docBlock renders a JSDoc comment; a single line stays on one line.
func docBlock(indent string, lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	if len(lines) == 1 {
		return indent + "/** " + docEscaper.Replace(strings.TrimSpace(lines[0])) + " */\n"
	}
	var b strings.Builder
	b.WriteString(indent + "/**\n")
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			b.WriteString(indent + " *\n")
			continue
		}
		b.WriteString(indent + " * " + docEscaper.Replace(line) + "\n")
	}
	b.WriteString(indent + " */\n")
	return b.String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
