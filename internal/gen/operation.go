package gen

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mark3labs/swagger2ts/internal/ir"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

// successStatus is the only response inspected for a return type.
const successStatus = "200"

var jsonMime = regexp.MustCompile(`(?i)application/.*json`)

// IsJSONMime reports whether a media type belongs to the JSON family.
func IsJSONMime(mime string) bool { return jsonMime.MatchString(mime) }

// PickJSON returns the JSON-family media entry of content: exactly
// "application/json" when present, else the lexicographically first match.
func PickJSON(content []spec.Media) *spec.Media {
	var first *spec.Media
	for i := range content {
		m := &content[i]
		if strings.EqualFold(m.Mime, "application/json") {
			return m
		}
		if IsJSONMime(m.Mime) && (first == nil || m.Mime < first.Mime) {
			first = m
		}
	}
	return first
}

// extracted is one operation ready for function synthesis.
type extracted struct {
	path    string
	op      *spec.Operation
	name    string
	params  []ir.Param
	body    string
	returns *ir.TypeExpr
}

// extractOperation resolves the name, parameters, body and return type of
// one operation. It reports false when the operation must be skipped.
func (r *run) extractOperation(path string, op *spec.Operation) (*extracted, bool) {
	at := site{path: path, method: string(op.Method)}

	name, ok := r.functionName(op.ID, at)
	if !ok {
		return nil, false
	}
	x := &extracted{path: path, op: op, name: name}
	x.returns = r.returnType(op, at)

	// The function body declares these locals for the options bag.
	used := map[string]struct{}{"params": {}, "headers": {}}
	claim := func(id string) string {
		base, n := id, 2
		for {
			if _, taken := used[id]; !taken {
				used[id] = struct{}{}
				return id
			}
			id = base + strconv.Itoa(n)
			n++
		}
	}

	declaredPath := map[string]struct{}{}
	var params []ir.Param
	for _, p := range op.Parameters {
		if p.Ref != "" {
			r.report(at.diag(SeverityInfo, CodeParameterReference, "parameter "+quote(p.Ref)+" is a reference and is skipped"))
			continue
		}
		switch p.In {
		case spec.InQuery, spec.InPath, spec.InHeader, spec.InCookie:
		default:
			r.report(at.diag(SeverityWarning, CodeUnsupportedParameter, "parameter "+quote(p.Name)+" in "+quote(p.In)+" is skipped"))
			continue
		}
		id := r.names.identifier(p.Name)
		if id == "" {
			r.report(at.diag(SeverityWarning, CodeUnsupportedParameter, "parameter "+quote(p.Name)+" yields no identifier"))
			continue
		}
		required := p.Required
		if p.In == spec.InPath {
			declaredPath[p.Name] = struct{}{}
			required = true
		}
		params = append(params, ir.Param{
			Name:     claim(id),
			Wire:     p.Name,
			In:       p.In,
			Required: required,
			Type:     r.schemaType(p.Schema, at),
			Doc:      p.Description,
		})
	}

	var synthesized []ir.Param
	for _, ph := range PathPlaceholders(path) {
		if _, ok := declaredPath[ph]; ok {
			continue
		}
		declaredPath[ph] = struct{}{}
		id := r.names.identifier(ph)
		if id == "" {
			id = "param"
		}
		r.report(at.diag(SeverityWarning, CodeUndeclaredPathParameter, "path parameter "+quote(ph)+" is not declared; typed as any"))
		synthesized = append(synthesized, ir.Param{
			Name:     claim(id),
			Wire:     ph,
			In:       spec.InPath,
			Required: true,
			Type:     ir.Any(ir.ReasonNoSchema),
		})
	}
	params = append(synthesized, params...)

	if bp, ok := r.bodyParam(op, at); ok {
		if _, taken := used[bp.Name]; taken {
			bp.Name += "Body"
		}
		bp.Name = claim(bp.Name)
		x.body = bp.Name
		params = append(params, bp)
	}

	x.params = OrderParams(params)
	return x, true
}

// functionName validates an operation id as a function name. A name equal
// to a declared interface would clash with the type import, so it is
// prefixed with "_" until it is free.
func (r *run) functionName(id string, at site) (string, bool) {
	if id == "" {
		r.report(at.diag(SeverityError, CodeMissingOperationID, "operation has no operationId; skipped"))
		return "", false
	}
	var name string
	if IsIdentifier(id) {
		name = EscapeReserved(id)
	} else {
		name = r.names.identifier(id)
		if name == "" {
			r.report(at.diag(SeverityError, CodeInvalidOperationID, "operationId "+quote(id)+" yields no identifier; skipped"))
			return "", false
		}
		r.report(at.diag(SeverityWarning, CodeInvalidOperationID, "operationId "+quote(id)+" renamed to "+name))
	}
	if _, clash := r.declared[name]; clash {
		orig := name
		for clash {
			name = "_" + name
			_, clash = r.declared[name]
		}
		r.report(at.diag(SeverityWarning, CodeInvalidOperationID, "operationId "+quote(id)+" clashes with interface "+orig+"; renamed to "+name))
	}
	return name, true
}

// returnType resolves the payload type of the 200 response. Shapes other
// than references, primitives and arrays of those yield no return type.
func (r *run) returnType(op *spec.Operation, at site) *ir.TypeExpr {
	resp := op.Response(successStatus)
	if resp == nil {
		return nil
	}
	if resp.Ref != "" {
		r.report(at.diag(SeverityInfo, CodeUnsupportedResponse, "response "+quote(resp.Ref)+" is a reference; no return type"))
		return nil
	}
	if len(resp.Content) == 0 {
		return nil
	}
	media := PickJSON(resp.Content)
	if media == nil {
		r.report(at.diag(SeverityInfo, CodeUnsupportedResponse, "response has no JSON content; no return type"))
		return nil
	}

	switch s := media.Schema.(type) {
	case *spec.Reference:
		return r.refType(s.Ref, at).Ptr()
	case *spec.Primitive:
		return MapKind(s.Type).Ptr()
	case *spec.Array:
		switch item := s.Items.(type) {
		case *spec.Reference:
			return ir.ArrayOf(r.refType(item.Ref, at)).Ptr()
		case *spec.Primitive:
			return ir.ArrayOf(MapKind(item.Type)).Ptr()
		}
	}
	r.report(at.diag(SeverityInfo, CodeUnsupportedResponse, "response schema in "+media.Mime+" is not a reference or primitive; no return type"))
	return nil
}

// bodyParam synthesizes the body parameter of an operation whose request
// body references a schema, directly or through JSON content.
func (r *run) bodyParam(op *spec.Operation, at site) (ir.Param, bool) {
	rb := op.RequestBody
	if rb == nil {
		return ir.Param{}, false
	}
	ref := rb.Ref
	if ref == "" {
		media := PickJSON(rb.Content)
		if media == nil {
			r.report(at.diag(SeverityWarning, CodeUnsupportedRequestBody, "request body has no JSON content; not bound"))
			return ir.Param{}, false
		}
		s, ok := media.Schema.(*spec.Reference)
		if !ok {
			r.report(at.diag(SeverityWarning, CodeUnsupportedRequestBody, "request body schema in "+media.Mime+" is not a reference; not bound"))
			return ir.Param{}, false
		}
		ref = s.Ref
	}
	if !op.Method.HasBody() {
		r.report(at.diag(SeverityWarning, CodeUnsupportedRequestBody, "request body on "+string(op.Method)+" is not sent"))
	}

	typ := r.refType(ref, at)
	name := r.names.identifier(r.names.camel(RefName(ref)))
	if name == "" {
		name = "body"
	}
	return ir.Param{
		Name:     name,
		Wire:     name,
		In:       spec.InBody,
		Required: true,
		Type:     typ,
	}, true
}

// OrderParams moves required parameters ahead of optional ones, keeping the
// relative order inside each partition.
func OrderParams(params []ir.Param) []ir.Param {
	out := append([]ir.Param(nil), params...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Required && !out[j].Required
	})
	return out
}
