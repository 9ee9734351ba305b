package gen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/swagger2ts/internal/ir"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

func runWithTypes(names ...string) *run {
	r := testRun()
	for _, n := range names {
		r.declared[n] = struct{}{}
	}
	return r
}

func jsonRef(name string) []spec.Media {
	return []spec.Media{{Mime: "application/json", Schema: &spec.Reference{Ref: "#/components/schemas/" + name}}}
}

func paramNames(params []ir.Param) []string {
	out := make([]string, 0, len(params))
	for _, p := range params {
		out = append(out, p.Name)
	}
	return out
}

func TestOrderParams_Stable(t *testing.T) {
	t.Parallel()
	in := []ir.Param{
		{Name: "a", Required: false},
		{Name: "b", Required: true},
		{Name: "c", Required: false},
	}
	assert.Equal(t, []string{"b", "a", "c"}, paramNames(OrderParams(in)))
	assert.Equal(t, "a", in[0].Name, "input is not reordered")
}

func TestPickJSON(t *testing.T) {
	t.Parallel()
	content := []spec.Media{
		{Mime: "application/hal+json"},
		{Mime: "application/json"},
		{Mime: "text/plain"},
	}
	assert.Equal(t, "application/json", PickJSON(content).Mime)
	assert.Equal(t, "application/hal+json", PickJSON(content[:1]).Mime)
	assert.Equal(t, "application/a+json", PickJSON([]spec.Media{{Mime: "application/vnd+json"}, {Mime: "application/a+json"}}).Mime)
	assert.Nil(t, PickJSON(content[2:]))
}

func TestExtractOperation_ReturnTypes(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		resp    spec.Response
		want    string
		diagged bool
	}{
		{"ref", spec.Response{Status: "200", Content: jsonRef("Pet")}, "Pet", false},
		{"array of ref", spec.Response{Status: "200", Content: []spec.Media{{Mime: "application/json", Schema: &spec.Array{Items: &spec.Reference{Ref: "#/components/schemas/Pet"}}}}}, "Pet[]", false},
		{"primitive", spec.Response{Status: "200", Content: []spec.Media{{Mime: "application/json", Schema: &spec.Primitive{Type: "integer"}}}}, "number", false},
		{"array of primitive", spec.Response{Status: "200", Content: []spec.Media{{Mime: "application/json", Schema: &spec.Array{Items: &spec.Primitive{Type: "string"}}}}}, "string[]", false},
		{"inline object", spec.Response{Status: "200", Content: []spec.Media{{Mime: "application/json", Schema: &spec.Object{}}}}, "", true},
		{"response ref", spec.Response{Status: "200", Ref: "#/components/responses/Ok"}, "", true},
		{"non json", spec.Response{Status: "200", Content: []spec.Media{{Mime: "text/plain", Schema: &spec.Primitive{Type: "string"}}}}, "", true},
		{"no content", spec.Response{Status: "200"}, "", false},
		{"201 only", spec.Response{Status: "201", Content: jsonRef("Pet")}, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := runWithTypes("Pet")
			op := &spec.Operation{Method: spec.GET, ID: "getPet", Responses: []spec.Response{tc.resp}}
			x, ok := r.extractOperation("/pet", op)
			require.True(t, ok)
			if tc.want == "" {
				assert.Nil(t, x.returns)
			} else {
				require.NotNil(t, x.returns)
				assert.Equal(t, tc.want, x.returns.String())
			}
			assert.Equal(t, tc.diagged, len(r.diags.ByCode(CodeUnsupportedResponse)) > 0)
		})
	}
}

func TestExtractOperation_Parameters(t *testing.T) {
	t.Parallel()
	r := runWithTypes()
	op := &spec.Operation{
		Method: spec.GET,
		ID:     "listPets",
		Parameters: []spec.Parameter{
			{Name: "limit", In: spec.InQuery, Schema: &spec.Primitive{Type: "integer"}},
			{Name: "X-Trace-ID", In: spec.InHeader, Required: true, Schema: &spec.Primitive{Type: "string"}},
			{Ref: "#/components/parameters/Page"},
			{Name: "tags", In: spec.InQuery, Schema: &spec.Array{Items: &spec.Primitive{Type: "string"}}},
			{Name: "session", In: spec.InCookie},
			{Name: "delete", In: spec.InQuery, Schema: &spec.Primitive{Type: "boolean"}},
		},
	}
	x, ok := r.extractOperation("/pets", op)
	require.True(t, ok)

	assert.Equal(t, []string{"xTraceId", "limit", "tags", "session", "_delete"}, paramNames(x.params))
	byName := map[string]ir.Param{}
	for _, p := range x.params {
		byName[p.Name] = p
	}
	assert.Equal(t, "X-Trace-ID", byName["xTraceId"].Wire)
	assert.Equal(t, "number", byName["limit"].Type.String())
	assert.Equal(t, "string[]", byName["tags"].Type.String())
	assert.Equal(t, "any", byName["session"].Type.String())
	assert.Equal(t, ir.ReasonNoSchema, byName["session"].Type.Reason)
	assert.Equal(t, "delete", byName["_delete"].Wire)

	assert.Len(t, r.diags.ByCode(CodeParameterReference), 1)
}

func TestExtractOperation_UndeclaredPathParameter(t *testing.T) {
	t.Parallel()
	r := runWithTypes()
	op := &spec.Operation{Method: spec.GET, ID: "getPhoto", Parameters: []spec.Parameter{
		{Name: "petId", In: spec.InPath, Required: true, Schema: &spec.Primitive{Type: "integer"}},
	}}
	x, ok := r.extractOperation("/pets/{petId}/photos/{photo_id}", op)
	require.True(t, ok)
	require.Len(t, x.params, 2)
	assert.Equal(t, "photo_id", x.params[0].Name)
	assert.Equal(t, spec.InPath, x.params[0].In)
	assert.True(t, x.params[0].Required)
	assert.True(t, x.params[0].Type.IsAny())
	assert.Len(t, r.diags.ByCode(CodeUndeclaredPathParameter), 1)
}

func TestExtractOperation_RequestBody(t *testing.T) {
	t.Parallel()
	r := runWithTypes("CreatePetRequest", "Pet")
	op := &spec.Operation{
		Method: spec.POST,
		ID:     "createPet",
		Parameters: []spec.Parameter{
			{Name: "dryRun", In: spec.InQuery, Schema: &spec.Primitive{Type: "boolean"}},
		},
		RequestBody: &spec.RequestBody{Content: []spec.Media{
			{Mime: "application/json", Schema: &spec.Reference{Ref: "#/components/schemas/CreatePetRequest"}},
			{Mime: "application/xml", Schema: &spec.Reference{Ref: "#/components/schemas/Pet"}},
		}},
		Responses: []spec.Response{{Status: "200", Content: jsonRef("Pet")}},
	}
	x, ok := r.extractOperation("/pets", op)
	require.True(t, ok)
	assert.Equal(t, "createPetRequest", x.body)
	assert.Equal(t, []string{"createPetRequest", "dryRun"}, paramNames(x.params))

	body := x.params[0]
	assert.Equal(t, spec.InBody, body.In)
	assert.True(t, body.Required)
	assert.Equal(t, "CreatePetRequest", body.Type.String())

	var bodies int
	for _, p := range x.params {
		if p.In == spec.InBody {
			bodies++
		}
	}
	assert.Equal(t, 1, bodies)
}

func TestExtractOperation_RequestBodyVariants(t *testing.T) {
	t.Parallel()

	t.Run("direct reference", func(t *testing.T) {
		r := runWithTypes("Pet")
		op := &spec.Operation{Method: spec.PUT, ID: "updatePet", RequestBody: &spec.RequestBody{Ref: "#/components/schemas/Pet"}}
		x, ok := r.extractOperation("/pets", op)
		require.True(t, ok)
		assert.Equal(t, "pet", x.body)
	})

	t.Run("collision appends Body", func(t *testing.T) {
		r := runWithTypes("Pet")
		op := &spec.Operation{
			Method:      spec.PUT,
			ID:          "updatePet",
			Parameters:  []spec.Parameter{{Name: "pet", In: spec.InQuery}},
			RequestBody: &spec.RequestBody{Content: jsonRef("Pet")},
		}
		x, ok := r.extractOperation("/pets", op)
		require.True(t, ok)
		assert.Equal(t, "petBody", x.body)
	})

	t.Run("inline schema unsupported", func(t *testing.T) {
		r := runWithTypes()
		op := &spec.Operation{Method: spec.POST, ID: "upload", RequestBody: &spec.RequestBody{Content: []spec.Media{
			{Mime: "application/json", Schema: &spec.Object{}},
		}}}
		x, ok := r.extractOperation("/upload", op)
		require.True(t, ok)
		assert.Empty(t, x.body)
		assert.Len(t, r.diags.ByCode(CodeUnsupportedRequestBody), 1)
	})

	t.Run("multipart unsupported", func(t *testing.T) {
		r := runWithTypes("Pet")
		op := &spec.Operation{Method: spec.POST, ID: "upload", RequestBody: &spec.RequestBody{Content: []spec.Media{
			{Mime: "multipart/form-data", Schema: &spec.Reference{Ref: "#/components/schemas/Pet"}},
		}}}
		x, ok := r.extractOperation("/upload", op)
		require.True(t, ok)
		assert.Empty(t, x.body)
	})
}

func TestExtractOperation_Names(t *testing.T) {
	t.Parallel()
	cases := []struct {
		id   string
		want string
		ok   bool
		code string
	}{
		{"getPetById", "getPetById", true, ""},
		{"delete", "_delete", true, ""},
		{"get-pet-by-id", "getPetById", true, CodeInvalidOperationID},
		{"", "", false, CodeMissingOperationID},
		{"---", "", false, CodeInvalidOperationID},
	}
	for _, tc := range cases {
		r := runWithTypes()
		x, ok := r.extractOperation("/p", &spec.Operation{Method: spec.GET, ID: tc.id})
		require.Equal(t, tc.ok, ok, "id %q", tc.id)
		if ok {
			assert.Equal(t, tc.want, x.name)
		}
		if tc.code != "" {
			assert.Len(t, r.diags.ByCode(tc.code), 1, "id %q", tc.id)
		} else {
			assert.Empty(t, r.diags)
		}
	}
}

func TestPathSegments(t *testing.T) {
	t.Parallel()
	idents := map[string]string{"id": "id", "pet_id": "petId"}
	lookup := func(w string) string { return idents[w] }

	segs := PathSegments("/pets/{id}/owners/{pet_id}", lookup)
	assert.Equal(t, []ir.PathSegment{
		{Literal: "/pets/"}, {Param: "id"}, {Literal: "/owners/"}, {Param: "petId"},
	}, segs)

	for _, tmpl := range []string{"/a/{id}", "/a/{id}/b/{", "/a/{}/c", "/x{y", "/{id}.json", "/a/}b"} {
		for _, s := range PathSegments(tmpl, lookup) {
			assert.False(t, strings.ContainsAny(s.Literal, "{}"), "template %q leaked braces in %q", tmpl, s.Literal)
		}
	}
	assert.Equal(t, []string{"id", "pet_id"}, PathPlaceholders("/a/{id}/{pet_id}/{id}"))
}

func TestSynthesizeFunction_Call(t *testing.T) {
	t.Parallel()
	r := runWithTypes("Pet", "CreatePetRequest")
	op := &spec.Operation{
		Method:  spec.POST,
		ID:      "createPet",
		Summary: "Create a pet",
		Parameters: []spec.Parameter{
			{Name: "storeId", In: spec.InPath, Required: true, Schema: &spec.Primitive{Type: "string"}},
			{Name: "notify", In: spec.InQuery, Schema: &spec.Primitive{Type: "boolean"}},
			{Name: "X-Tenant", In: spec.InHeader, Schema: &spec.Primitive{Type: "string"}},
		},
		RequestBody: &spec.RequestBody{Content: jsonRef("CreatePetRequest")},
		Responses:   []spec.Response{{Status: "200", Content: jsonRef("Pet")}},
	}
	x, ok := r.extractOperation("/stores/{storeId}/pets", op)
	require.True(t, ok)
	fn := r.synthesizeFunction(x)

	assert.Equal(t, "createPet", fn.Name)
	assert.Equal(t, "Create a pet", fn.Doc)
	assert.Equal(t, "post", fn.Call.Method)
	assert.Equal(t, "createPetRequest", fn.Call.Body)
	assert.Equal(t, []string{"notify"}, paramNames(fn.Call.Query))
	assert.Equal(t, []string{"xTenant"}, paramNames(fn.Call.Headers))
	assert.True(t, fn.Call.Unwrap)
	require.NotNil(t, fn.Call.TypeArg)
	assert.Equal(t, "Pet", fn.Call.TypeArg.String())
	assert.Equal(t, []ir.PathSegment{{Literal: "/stores/"}, {Param: "storeId"}, {Literal: "/pets"}}, fn.Call.Path)
}

func TestSynthesizeFunction_OptionLocalsAreNotShadowed(t *testing.T) {
	t.Parallel()
	r := runWithTypes()
	op := &spec.Operation{
		Method: spec.GET,
		ID:     "search",
		Parameters: []spec.Parameter{
			{Name: "params", In: spec.InQuery, Schema: &spec.Primitive{Type: "string"}},
			{Name: "headers", In: spec.InHeader, Schema: &spec.Primitive{Type: "string"}},
		},
	}
	x, ok := r.extractOperation("/search", op)
	require.True(t, ok)
	fn := r.synthesizeFunction(x)

	assert.Equal(t, []string{"params2", "headers2"}, paramNames(fn.Params))
	require.Len(t, fn.Call.Query, 1)
	assert.Equal(t, "params", fn.Call.Query[0].Wire)
	assert.Equal(t, "params2", fn.Call.Query[0].Name)
	require.Len(t, fn.Call.Headers, 1)
	assert.Equal(t, "headers", fn.Call.Headers[0].Wire)
	assert.Equal(t, "headers2", fn.Call.Headers[0].Name)
}

func TestExtractOperation_NameClashesWithInterface(t *testing.T) {
	t.Parallel()
	r := runWithTypes("Pet", "_Pet")
	op := &spec.Operation{Method: spec.GET, ID: "Pet", Responses: []spec.Response{{Status: "200", Content: jsonRef("Pet")}}}
	x, ok := r.extractOperation("/pet", op)
	require.True(t, ok)
	assert.Equal(t, "__Pet", x.name)
	assert.Len(t, r.diags.ByCode(CodeInvalidOperationID), 1)
	require.NotNil(t, x.returns)
	assert.Equal(t, "Pet", x.returns.String())
}

func TestSynthesizeFunction_BodyOnlyForBodyMethods(t *testing.T) {
	t.Parallel()
	r := runWithTypes("Filter")
	op := &spec.Operation{Method: spec.GET, ID: "search", RequestBody: &spec.RequestBody{Content: jsonRef("Filter")}}
	x, ok := r.extractOperation("/search", op)
	require.True(t, ok)
	fn := r.synthesizeFunction(x)

	assert.Empty(t, fn.Call.Body)
	assert.False(t, fn.Call.Unwrap)
	assert.Nil(t, fn.Call.TypeArg)
	assert.Len(t, r.diags.ByCode(CodeUnsupportedRequestBody), 1)
}
