package spec

// Document model consumed by the generator. Everything here is built once from
// a loaded OpenAPI document and never mutated afterwards.

type HttpMethod string

const (
	GET     HttpMethod = "get"
	PUT     HttpMethod = "put"
	POST    HttpMethod = "post"
	DELETE  HttpMethod = "delete"
	OPTIONS HttpMethod = "options"
	HEAD    HttpMethod = "head"
	PATCH   HttpMethod = "patch"
)

// Methods lists the supported methods in processing order: methods without a
// request body first, then the body-bearing ones.
var Methods = []HttpMethod{GET, DELETE, OPTIONS, HEAD, POST, PUT, PATCH}

// HasBody reports whether requests with this method carry a payload.
func (m HttpMethod) HasBody() bool {
	switch m {
	case POST, PUT, PATCH:
		return true
	}
	return false
}

// Parameter locations. Body is never read from a document; the generator
// synthesizes it from the request body.
const (
	InQuery  = "query"
	InPath   = "path"
	InHeader = "header"
	InCookie = "cookie"
	InBody   = "body"
)

type Document struct {
	Title       string
	Version     string
	Description string
	Tags        []string
	Schemas     []NamedSchema // sorted by name
	Paths       []PathItem    // sorted by path template
}

type NamedSchema struct {
	Name   string
	Schema Schema
}

type PathItem struct {
	Path       string
	Parameters []Parameter
	Operations []Operation // present methods only, in Methods order
}

// Operation returns the operation bound to method, or nil when the path item
// has none.
func (p *PathItem) Operation(method HttpMethod) *Operation {
	for i := range p.Operations {
		if p.Operations[i].Method == method {
			return &p.Operations[i]
		}
	}
	return nil
}

type Operation struct {
	Method      HttpMethod
	ID          string
	Summary     string
	Description string
	Deprecated  bool
	Tags        []string
	Parameters  []Parameter
	RequestBody *RequestBody
	Responses   []Response // sorted by status
}

// Response returns the response declared for status, or nil.
func (o *Operation) Response(status string) *Response {
	for i := range o.Responses {
		if o.Responses[i].Status == status {
			return &o.Responses[i]
		}
	}
	return nil
}

type Parameter struct {
	Ref         string // set when the parameter is only a $ref
	Name        string
	In          string
	Description string
	Required    bool
	Schema      Schema
}

type RequestBody struct {
	Ref      string
	Required bool
	Content  []Media // sorted by media type
}

type Response struct {
	Status      string
	Ref         string
	Description string
	Content     []Media // sorted by media type
}

type Media struct {
	Mime   string
	Schema Schema
}

// Schema is one of *Primitive, *Array, *Object, *Reference or *Opaque.
type Schema interface {
	// Kind returns the declared OpenAPI type keyword, or "" for references
	// and opaque schemas.
	Kind() string
	Doc() string
	schema()
}

// Primitive is a string, integer, number or boolean schema.
type Primitive struct {
	Type        string
	Format      string
	Description string
	Enum        []any
}

type Array struct {
	Items       Schema // nil when the array declares no items
	Description string
}

type Object struct {
	Properties  []Property // sorted by name
	Description string
}

type Property struct {
	Name     string
	Required bool
	Schema   Schema
}

// Reference points at a named schema or response elsewhere in the document.
type Reference struct {
	Ref string
}

// Opaque is a schema whose shape the generator does not model: compositions
// (oneOf/anyOf/allOf/not) or schemas without a type keyword.
type Opaque struct {
	Reason      string
	Description string
}

func (s *Primitive) Kind() string { return s.Type }
func (s *Array) Kind() string     { return "array" }
func (s *Object) Kind() string    { return "object" }
func (s *Reference) Kind() string { return "" }
func (s *Opaque) Kind() string    { return "" }

func (s *Primitive) Doc() string { return s.Description }
func (s *Array) Doc() string     { return s.Description }
func (s *Object) Doc() string    { return s.Description }
func (s *Reference) Doc() string { return "" }
func (s *Opaque) Doc() string    { return s.Description }

func (*Primitive) schema() {}
func (*Array) schema()     {}
func (*Object) schema()    {}
func (*Reference) schema() {}
func (*Opaque) schema()    {}
