package gen

import (
	"github.com/mark3labs/swagger2ts/internal/ir"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

// MapKind maps a declared OpenAPI type keyword to a target type. Unknown or
// absent kinds degrade to an untyped value.
func MapKind(kind string) ir.TypeExpr {
	switch kind {
	case "array":
		return ir.ArrayOf(ir.Any(ir.ReasonUntypedArrayMember))
	case "boolean":
		return ir.Primitive("boolean")
	case "integer", "number":
		return ir.Primitive("number")
	case "object":
		return ir.Any(ir.ReasonUntypedObject)
	case "string":
		return ir.Primitive("string")
	default:
		return ir.Any(ir.ReasonNoKind)
	}
}

// site locates the element being typed, for diagnostics.
type site struct {
	path, method, schema string
}

func (s site) diag(sev Severity, code, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Path: s.path, Method: s.method, Schema: s.schema, Message: msg}
}

// refType resolves a reference to a declared interface. References without a
// name, or naming nothing in the type unit, degrade to an untyped value.
func (r *run) refType(ref string, at site) ir.TypeExpr {
	name := RefName(ref)
	if name == "" {
		r.report(at.diag(SeverityWarning, CodeUnresolvedReference, "reference "+quote(ref)+" has no type name"))
		return ir.Any(ir.ReasonUnresolvedRef)
	}
	if _, ok := r.declared[name]; !ok {
		r.report(at.diag(SeverityWarning, CodeUnresolvedReference, "reference "+quote(ref)+" does not name a generated interface"))
		return ir.Any(ir.ReasonUnresolvedRef)
	}
	return ir.Named(name)
}

// schemaType resolves any schema variant to a type expression.
func (r *run) schemaType(s spec.Schema, at site) ir.TypeExpr {
	switch v := s.(type) {
	case nil:
		return ir.Any(ir.ReasonNoSchema)
	case *spec.Reference:
		return r.refType(v.Ref, at)
	case *spec.Array:
		if v.Items == nil {
			return MapKind("array")
		}
		return ir.ArrayOf(r.schemaType(v.Items, at))
	case *spec.Primitive:
		return MapKind(v.Type)
	case *spec.Object:
		return MapKind("object")
	default:
		return ir.Any(ir.ReasonNoKind)
	}
}

func quote(s string) string { return "\"" + s + "\"" }
