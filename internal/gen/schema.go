package gen

import (
	"github.com/mark3labs/swagger2ts/internal/ir"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

// declareSchemas registers the interface name of every schema so references
// can be checked while converting. The first schema claiming a name wins.
func (r *run) declareSchemas(schemas []spec.NamedSchema) []spec.NamedSchema {
	owner := map[string]string{}
	kept := make([]spec.NamedSchema, 0, len(schemas))
	for _, ns := range schemas {
		name := NormalizeName(ns.Name)
		at := site{schema: ns.Name}
		if name == "" {
			r.report(at.diag(SeverityWarning, CodeSkippedSchema, "schema name yields no identifier"))
			continue
		}
		if prev, dup := owner[name]; dup {
			r.report(at.diag(SeverityWarning, CodeDuplicateInterface,
				"interface "+name+" already declared by schema "+quote(prev)+"; schema dropped"))
			continue
		}
		owner[name] = ns.Name
		r.declared[name] = struct{}{}
		kept = append(kept, ns)
	}
	return kept
}

// convertSchemas turns the named schemas of a document into interfaces.
func (r *run) convertSchemas(schemas []spec.NamedSchema) []ir.Interface {
	kept := r.declareSchemas(schemas)
	out := make([]ir.Interface, 0, len(kept))
	for _, ns := range kept {
		out = append(out, r.convertSchema(ns))
	}
	return out
}

// convertSchema builds the interface for one named schema. Objects produce
// fields; any other shape becomes an alias.
func (r *run) convertSchema(ns spec.NamedSchema) ir.Interface {
	at := site{schema: ns.Name}
	iface := ir.Interface{Name: NormalizeName(ns.Name), Source: ns.Name}
	if ns.Schema != nil {
		iface.Doc = ns.Schema.Doc()
	}

	obj, ok := ns.Schema.(*spec.Object)
	if !ok {
		alias := r.schemaType(ns.Schema, at)
		iface.Alias = &alias
		return iface
	}
	for _, p := range obj.Properties {
		f, ok := r.convertProperty(p, at)
		if !ok {
			continue
		}
		iface.Fields = append(iface.Fields, f)
	}
	return iface
}

// convertProperty maps one property. Properties with a declared kind or a
// reference are kept; compositions and kind-less schemas are omitted.
func (r *run) convertProperty(p spec.Property, at site) (ir.Field, bool) {
	f := ir.Field{Name: p.Name, Optional: !p.Required}
	switch v := p.Schema.(type) {
	case *spec.Primitive, *spec.Array, *spec.Object:
		f.Type = r.schemaType(v, at)
		f.Doc = v.Doc()
	case *spec.Reference:
		f.Type = r.refType(v.Ref, at)
	default:
		reason := "no type"
		if o, ok := v.(*spec.Opaque); ok {
			reason = o.Reason
		}
		r.report(at.diag(SeverityInfo, CodeOmittedProperty, "property "+quote(p.Name)+" omitted: "+reason+" is not modeled"))
		return ir.Field{}, false
	}
	return f, true
}
