package gen

import (
	"strings"

	"github.com/mark3labs/swagger2ts/internal/ir"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

// PathPlaceholders returns the names of the {placeholders} of a path
// template in order of appearance, without duplicates.
func PathPlaceholders(tmpl string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, seg := range scanPath(tmpl) {
		if !seg.placeholder {
			continue
		}
		if _, dup := seen[seg.text]; dup {
			continue
		}
		seen[seg.text] = struct{}{}
		out = append(out, seg.text)
	}
	return out
}

type rawSegment struct {
	text        string
	placeholder bool
}

// scanPath splits a template on {name} placeholders. An unterminated or
// empty placeholder is kept as literal text with its braces removed.
func scanPath(tmpl string) []rawSegment {
	var out []rawSegment
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			out = append(out, rawSegment{text: lit.String()})
			lit.Reset()
		}
	}
	for rest := tmpl; rest != ""; {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			lit.WriteString(stripBraces(rest))
			break
		}
		lit.WriteString(stripBraces(rest[:open]))
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			lit.WriteString(stripBraces(rest[open:]))
			break
		}
		name := strings.TrimSpace(rest[open+1 : open+end])
		rest = rest[open+end+1:]
		if name == "" || strings.ContainsRune(name, '{') {
			lit.WriteString(stripBraces(name))
			continue
		}
		flush()
		out = append(out, rawSegment{text: name, placeholder: true})
	}
	flush()
	return out
}

func stripBraces(s string) string {
	return strings.NewReplacer("{", "", "}", "").Replace(s)
}

// PathSegments rewrites a path template into literal and interpolated
// segments. identOf maps a placeholder to the parameter identifier bound to
// it.
func PathSegments(tmpl string, identOf func(wire string) string) []ir.PathSegment {
	var out []ir.PathSegment
	for _, seg := range scanPath(tmpl) {
		if !seg.placeholder {
			out = append(out, ir.PathSegment{Literal: seg.text})
			continue
		}
		id := identOf(seg.text)
		if id == "" {
			out = append(out, ir.PathSegment{Literal: seg.text})
			continue
		}
		out = append(out, ir.PathSegment{Param: id})
	}
	return out
}

// synthesizeFunction builds the IR function and its transport call.
func (r *run) synthesizeFunction(x *extracted) ir.Function {
	pathIdents := map[string]string{}
	call := ir.CallExpr{Method: string(x.op.Method)}
	for _, p := range x.params {
		switch p.In {
		case spec.InPath:
			pathIdents[p.Wire] = p.Name
		case spec.InQuery:
			call.Query = append(call.Query, p)
		case spec.InHeader:
			call.Headers = append(call.Headers, p)
		}
	}
	call.Path = PathSegments(x.path, func(wire string) string { return pathIdents[wire] })
	if x.body != "" && x.op.Method.HasBody() {
		call.Body = x.body
	}
	if x.returns != nil {
		call.TypeArg = x.returns
		call.Unwrap = true
	}

	return ir.Function{
		Name:       x.name,
		Doc:        functionDoc(x.op),
		Deprecated: x.op.Deprecated,
		Method:     string(x.op.Method),
		Path:       x.path,
		Params:     x.params,
		Returns:    x.returns,
		Call:       call,
	}
}

func functionDoc(op *spec.Operation) string {
	switch {
	case op.Summary == "":
		return op.Description
	case op.Description == "" || op.Description == op.Summary:
		return op.Summary
	default:
		return op.Summary + "\n\n" + op.Description
	}
}
