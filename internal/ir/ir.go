// Package ir holds the language-neutral description of a generated client:
// interfaces grouped in one type unit, and functions grouped in service units.
// Values are built once per generation run and rendered by an emitter.
package ir

import "strings"

// Program is everything one generation run produces.
type Program struct {
	Title     string        `json:"title,omitempty"`
	Version   string        `json:"version,omitempty"`
	Types     TypeUnit      `json:"types"`
	Transport string        `json:"transport"`
	Services  []ServiceUnit `json:"services"`
}

// TypeUnit is the shared module declaring every interface.
type TypeUnit struct {
	Module     string      `json:"module"`
	Interfaces []Interface `json:"interfaces"`
}

// Lookup returns the interface declared under name.
func (u *TypeUnit) Lookup(name string) (*Interface, bool) {
	for i := range u.Interfaces {
		if u.Interfaces[i].Name == name {
			return &u.Interfaces[i], true
		}
	}
	return nil, false
}

// ServiceUnit is one output module per service group.
type ServiceUnit struct {
	Group     string     `json:"group"`
	Module    string     `json:"module"`
	Imports   []Import   `json:"imports"`
	Functions []Function `json:"functions"`
}

// Function returns the function named name.
func (u *ServiceUnit) Function(name string) (*Function, bool) {
	for i := range u.Functions {
		if u.Functions[i].Name == name {
			return &u.Functions[i], true
		}
	}
	return nil, false
}

// Interface is a named object shape. When Alias is set the declaration is a
// type alias and Fields is empty.
type Interface struct {
	Name   string    `json:"name"`
	Doc    string    `json:"doc,omitempty"`
	Fields []Field   `json:"fields,omitempty"`
	Alias  *TypeExpr `json:"alias,omitempty"`
	Source string    `json:"source"` // schema name in the document
}

// Field is one interface property. Fields keep the order of
// Document.Schemas properties, which is sorted by name.
type Field struct {
	Name     string   `json:"name"`
	Type     TypeExpr `json:"type"`
	Optional bool     `json:"optional,omitzero"`
	Doc      string   `json:"doc,omitempty"`
}

// Function is a callable client function bound to one operation.
type Function struct {
	Name       string    `json:"name"`
	Doc        string    `json:"doc,omitempty"`
	Deprecated bool      `json:"deprecated,omitzero"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Params     []Param   `json:"params"`
	Returns    *TypeExpr `json:"returns,omitempty"`
	Call       CallExpr  `json:"call"`
}

// Param is a function parameter. Name is the identifier used in generated
// code; Wire is the name sent over HTTP.
type Param struct {
	Name     string   `json:"name"`
	Wire     string   `json:"wire"`
	In       string   `json:"in"`
	Required bool     `json:"required"`
	Type     TypeExpr `json:"type"`
	Doc      string   `json:"doc,omitempty"`
}

// CallExpr describes the transport invocation inside a function body.
type CallExpr struct {
	Method  string        `json:"method"`
	TypeArg *TypeExpr     `json:"typeArg,omitempty"`
	Path    []PathSegment `json:"path"`
	Body    string        `json:"body,omitempty"`
	Query   []Param       `json:"query,omitempty"`
	Headers []Param       `json:"headers,omitempty"`
	// Unwrap returns the payload instead of the transport envelope.
	Unwrap bool `json:"unwrap"`
}

// HasOptions reports whether the call passes a request-options bag.
func (c CallExpr) HasOptions() bool { return len(c.Query) > 0 || len(c.Headers) > 0 }

// PathSegment is either literal text or an interpolation of the parameter
// identifier Param.
type PathSegment struct {
	Literal string `json:"literal,omitempty"`
	Param   string `json:"param,omitempty"`
}

// IsParam reports whether the segment is an interpolation.
func (s PathSegment) IsParam() bool { return s.Param != "" }

// Interpolated reports whether any segment is an interpolation.
func Interpolated(segs []PathSegment) bool {
	for _, s := range segs {
		if s.IsParam() {
			return true
		}
	}
	return false
}

// Import is one import declaration of a unit.
type Import struct {
	Module  string   `json:"module"`
	Default string   `json:"default,omitempty"`
	Names   []string `json:"names,omitempty"`
}

// TypeKind selects which TypeExpr fields are meaningful.
type TypeKind string

const (
	KindPrimitive TypeKind = "primitive"
	KindNamed     TypeKind = "named"
	KindArray     TypeKind = "array"
	KindAny       TypeKind = "any"
)

// Reasons carried by Any type expressions.
const (
	ReasonUntypedObject      = "untyped-object"
	ReasonNoKind             = "no-kind"
	ReasonUnresolvedRef      = "unresolved-reference"
	ReasonNoSchema           = "no-schema"
	ReasonUntypedArrayMember = "untyped-array-member"
)

// TypeExpr is a target type expression.
type TypeExpr struct {
	Kind   TypeKind  `json:"kind"`
	Name   string    `json:"name,omitempty"`
	Elem   *TypeExpr `json:"elem,omitempty"`
	Reason string    `json:"reason,omitempty"`
}

// Primitive returns a built-in type such as string or number.
func Primitive(name string) TypeExpr { return TypeExpr{Kind: KindPrimitive, Name: name} }

// Named returns a reference to a generated interface.
func Named(name string) TypeExpr { return TypeExpr{Kind: KindNamed, Name: name} }

// Any returns the untyped expression. reason is one of the Reason constants.
func Any(reason string) TypeExpr { return TypeExpr{Kind: KindAny, Reason: reason} }

// ArrayOf returns an array of elem.
func ArrayOf(elem TypeExpr) TypeExpr {
	return TypeExpr{Kind: KindArray, Elem: &elem}
}

func (t TypeExpr) IsAny() bool { return t.Kind == KindAny }

// String renders the expression in TypeScript notation.
func (t TypeExpr) String() string {
	switch t.Kind {
	case KindPrimitive, KindNamed:
		return t.Name
	case KindArray:
		if t.Elem == nil {
			return "any[]"
		}
		return t.Elem.String() + "[]"
	default:
		return "any"
	}
}

// Names returns the named types the expression references, outermost first.
func (t TypeExpr) Names() []string {
	var out []string
	for cur := &t; cur != nil; cur = cur.Elem {
		if cur.Kind == KindNamed {
			out = append(out, cur.Name)
		}
	}
	return out
}

// Ptr returns a pointer to a copy of t.
func (t TypeExpr) Ptr() *TypeExpr { return &t }

// RelativeModule returns the import specifier for target as seen from the
// unit module from. Modules are slash separated and extensionless.
func RelativeModule(from, target string) string {
	fromDir := strings.Split(from, "/")
	fromDir = fromDir[:len(fromDir)-1]
	to := strings.Split(target, "/")

	common := 0
	for common < len(fromDir) && common < len(to)-1 && fromDir[common] == to[common] {
		common++
	}
	var b strings.Builder
	if common == len(fromDir) {
		b.WriteString("./")
	} else {
		for i := common; i < len(fromDir); i++ {
			b.WriteString("../")
		}
	}
	b.WriteString(strings.Join(to[common:], "/"))
	return b.String()
}
