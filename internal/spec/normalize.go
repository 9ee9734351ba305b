package spec

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// BuildOption configures how the Document is built from an OpenAPI doc.
type BuildOption func(*buildConfig)

type buildConfig struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	methods     map[HttpMethod]struct{}
	pathRes     []*regexp.Regexp
	err         error
}

// WithIncludeTags keeps only operations that have at least one of the given tags.
func WithIncludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		c.includeTags = addTags(c.includeTags, tags)
	}
}

// WithExcludeTags removes operations that have any of the given tags.
func WithExcludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		c.excludeTags = addTags(c.excludeTags, tags)
	}
}

func addTags(set map[string]struct{}, tags []string) map[string]struct{} {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(tags))
		}
		set[t] = struct{}{}
	}
	return set
}

// WithMethods keeps only operations using one of the provided HTTP methods.
func WithMethods(methods []HttpMethod) BuildOption {
	return func(c *buildConfig) {
		for _, m := range methods {
			if c.methods == nil {
				c.methods = make(map[HttpMethod]struct{}, len(methods))
			}
			c.methods[HttpMethod(strings.ToLower(string(m)))] = struct{}{}
		}
	}
}

// WithPathPatterns keeps only paths matching at least one of the provided
// regular expressions. An invalid pattern makes BuildDocument fail.
func WithPathPatterns(patterns []string) BuildOption {
	return func(c *buildConfig) {
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			re, err := regexp.Compile(p)
			if err != nil {
				if c.err == nil {
					c.err = fmt.Errorf("invalid path pattern %q: %w", p, err)
				}
				continue
			}
			c.pathRes = append(c.pathRes, re)
		}
	}
}

func (c *buildConfig) allowPath(p string) bool {
	if len(c.pathRes) == 0 {
		return true
	}
	for _, re := range c.pathRes {
		if re.MatchString(p) {
			return true
		}
	}
	return false
}

func (c *buildConfig) allowMethod(m HttpMethod) bool {
	if len(c.methods) == 0 {
		return true
	}
	_, ok := c.methods[m]
	return ok
}

func (c *buildConfig) allowTags(tags []string) bool {
	if len(c.includeTags) > 0 {
		ok := false
		for _, t := range tags {
			if _, yes := c.includeTags[t]; yes {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, t := range tags {
		if _, blocked := c.excludeTags[t]; blocked {
			return false
		}
	}
	return true
}

// BuildDocument converts a loaded OpenAPI v3 document into the immutable
// Document the generator consumes. Every schema shape is decided here, once.
// Schemas, paths, responses and media types come out sorted; operations follow
// the order of Methods.
func BuildDocument(ctx context.Context, doc *openapi3.T, opts ...BuildOption) (*Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := &buildConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.err != nil {
		return nil, cfg.err
	}

	out := &Document{}
	if doc.Info != nil {
		out.Title = safeStr(doc.Info.Title)
		out.Version = safeStr(doc.Info.Version)
		out.Description = safeStr(doc.Info.Description)
	}

	if doc.Components != nil {
		for _, name := range sortedKeys(doc.Components.Schemas) {
			s := convertSchema(doc.Components.Schemas[name])
			if s == nil {
				continue
			}
			out.Schemas = append(out.Schemas, NamedSchema{Name: name, Schema: s})
		}
	}

	tagSet := map[string]struct{}{}
	for _, p := range sortedKeys(doc.Paths) {
		item := doc.Paths[p]
		if item == nil || !cfg.allowPath(p) {
			continue
		}
		pi := PathItem{Path: p, Parameters: convertParameters(item.Parameters)}

		for _, m := range Methods {
			op := operationFor(item, m)
			if op == nil || !cfg.allowMethod(m) {
				continue
			}
			tags := make([]string, 0, len(op.Tags))
			for _, t := range op.Tags {
				if t = strings.TrimSpace(t); t != "" {
					tags = append(tags, t)
				}
			}
			if !cfg.allowTags(tags) {
				continue
			}
			for _, t := range tags {
				tagSet[t] = struct{}{}
			}
			pi.Operations = append(pi.Operations, Operation{
				Method:      m,
				ID:          strings.TrimSpace(op.OperationID),
				Summary:     safeStr(op.Summary),
				Description: safeStr(op.Description),
				Deprecated:  op.Deprecated,
				Tags:        tags,
				Parameters:  mergeParameters(pi.Parameters, convertParameters(op.Parameters)),
				RequestBody: convertRequestBody(op.RequestBody),
				Responses:   convertResponses(op.Responses),
			})
		}
		if len(pi.Operations) == 0 {
			continue
		}
		out.Paths = append(out.Paths, pi)
	}

	for t := range tagSet {
		out.Tags = append(out.Tags, t)
	}
	sort.Strings(out.Tags)
	return out, nil
}

func operationFor(item *openapi3.PathItem, m HttpMethod) *openapi3.Operation {
	switch m {
	case GET:
		return item.Get
	case DELETE:
		return item.Delete
	case OPTIONS:
		return item.Options
	case HEAD:
		return item.Head
	case POST:
		return item.Post
	case PUT:
		return item.Put
	case PATCH:
		return item.Patch
	}
	return nil
}

// mergeParameters returns the path-level parameters not overridden by an
// operation-level parameter with the same location and name, followed by the
// operation-level ones in declaration order.
func mergeParameters(pathLevel, opLevel []Parameter) []Parameter {
	if len(pathLevel) == 0 {
		return opLevel
	}
	overridden := make(map[string]struct{}, len(opLevel))
	for _, p := range opLevel {
		overridden[paramKey(p.In, p.Name)] = struct{}{}
	}
	out := make([]Parameter, 0, len(pathLevel)+len(opLevel))
	for _, p := range pathLevel {
		if _, ok := overridden[paramKey(p.In, p.Name)]; ok {
			continue
		}
		out = append(out, p)
	}
	return append(out, opLevel...)
}

func paramKey(in, name string) string { return in + ":" + name }

func safeStr(s string) string { return strings.TrimSpace(s) }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func convertParameters(refs openapi3.Parameters) []Parameter {
	var out []Parameter
	for _, pref := range refs {
		if pref == nil {
			continue
		}
		if pref.Ref != "" {
			p := Parameter{Ref: pref.Ref}
			if pref.Value != nil {
				p.Name = safeStr(pref.Value.Name)
				p.In = safeStr(pref.Value.In)
			}
			out = append(out, p)
			continue
		}
		if pref.Value == nil {
			continue
		}
		v := pref.Value
		out = append(out, Parameter{
			Name:        safeStr(v.Name),
			In:          strings.ToLower(safeStr(v.In)),
			Description: safeStr(v.Description),
			Required:    v.Required,
			Schema:      convertSchema(v.Schema),
		})
	}
	return out
}

func convertRequestBody(ref *openapi3.RequestBodyRef) *RequestBody {
	if ref == nil {
		return nil
	}
	if ref.Ref != "" {
		return &RequestBody{Ref: ref.Ref, Required: ref.Value != nil && ref.Value.Required}
	}
	if ref.Value == nil {
		return nil
	}
	return &RequestBody{Required: ref.Value.Required, Content: convertContent(ref.Value.Content)}
}

func convertResponses(responses openapi3.Responses) []Response {
	var out []Response
	for _, code := range sortedKeys(responses) {
		rref := responses[code]
		if rref == nil {
			continue
		}
		r := Response{Status: code, Ref: rref.Ref}
		if rref.Value != nil {
			if rref.Value.Description != nil {
				r.Description = safeStr(*rref.Value.Description)
			}
			r.Content = convertContent(rref.Value.Content)
		}
		out = append(out, r)
	}
	return out
}

func convertContent(content openapi3.Content) []Media {
	var out []Media
	for _, mime := range sortedKeys(content) {
		mt := content[mime]
		if mt == nil {
			continue
		}
		out = append(out, Media{Mime: mime, Schema: convertSchema(mt.Schema)})
	}
	return out
}

// convertSchema decides the variant of a schema reference. A $ref is never
// followed, so cyclic component graphs terminate.
func convertSchema(ref *openapi3.SchemaRef) Schema {
	if ref == nil {
		return nil
	}
	if ref.Ref != "" {
		return &Reference{Ref: ref.Ref}
	}
	v := ref.Value
	if v == nil {
		return nil
	}
	desc := safeStr(v.Description)

	switch {
	case len(v.OneOf) > 0:
		return &Opaque{Reason: "oneOf", Description: desc}
	case len(v.AnyOf) > 0:
		return &Opaque{Reason: "anyOf", Description: desc}
	case len(v.AllOf) > 0:
		return &Opaque{Reason: "allOf", Description: desc}
	case v.Not != nil:
		return &Opaque{Reason: "not", Description: desc}
	}

	switch typ := safeStr(v.Type); {
	case typ == "array" || (typ == "" && v.Items != nil):
		return &Array{Items: convertSchema(v.Items), Description: desc}
	case typ == "object" || (typ == "" && len(v.Properties) > 0):
		return convertObject(v, desc)
	case typ != "":
		p := &Primitive{Type: typ, Format: safeStr(v.Format), Description: desc}
		if len(v.Enum) > 0 {
			p.Enum = append([]any(nil), v.Enum...)
		}
		return p
	default:
		return &Opaque{Reason: "no-type", Description: desc}
	}
}

// convertObject sorts properties by name; kin-openapi does not keep their
// declaration order.
func convertObject(v *openapi3.Schema, desc string) *Object {
	required := make(map[string]struct{}, len(v.Required))
	for _, r := range v.Required {
		required[r] = struct{}{}
	}
	obj := &Object{Description: desc}
	for _, name := range sortedKeys(v.Properties) {
		_, req := required[name]
		obj.Properties = append(obj.Properties, Property{
			Name:     name,
			Required: req,
			Schema:   convertSchema(v.Properties[name]),
		})
	}
	return obj
}
