package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/swagger2ts/internal/ir"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

func testRun() *run { return newRun(defaultConfig()) }

func TestMapKind(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"array":   "any[]",
		"boolean": "boolean",
		"integer": "number",
		"number":  "number",
		"object":  "any",
		"string":  "string",
		"":        "any",
		"file":    "any",
	}
	for kind, want := range cases {
		assert.Equal(t, want, MapKind(kind).String(), "kind %q", kind)
	}
	assert.Equal(t, ir.ReasonUntypedObject, MapKind("object").Reason)
	assert.Equal(t, ir.ReasonNoKind, MapKind("").Reason)
}

// Primitive-only schemas reproduce the type table field by field.
func TestConvertSchema_PrimitiveFieldsFollowTypeTable(t *testing.T) {
	t.Parallel()
	kinds := []string{"boolean", "integer", "number", "object", "string"}
	obj := &spec.Object{}
	for _, k := range kinds {
		obj.Properties = append(obj.Properties, spec.Property{Name: k + "Field", Schema: &spec.Primitive{Type: k}})
	}
	// Objects arrive as their own variant.
	obj.Properties[3].Schema = &spec.Object{}

	r := testRun()
	ifaces := r.convertSchemas([]spec.NamedSchema{{Name: "Flat", Schema: obj}})
	require.Len(t, ifaces, 1)
	require.Len(t, ifaces[0].Fields, len(kinds))
	for i, k := range kinds {
		assert.Equal(t, MapKind(k).String(), ifaces[0].Fields[i].Type.String(), "kind %s", k)
	}
}

func TestConvertSchema_Fields(t *testing.T) {
	t.Parallel()
	r := testRun()
	ifaces := r.convertSchemas([]spec.NamedSchema{
		{Name: "Owner", Schema: &spec.Object{}},
		{Name: "Pet", Schema: &spec.Object{
			Description: "A pet",
			Properties: []spec.Property{
				{Name: "id", Required: true, Schema: &spec.Primitive{Type: "integer", Description: "identifier"}},
				{Name: "kind", Schema: &spec.Opaque{Reason: "oneOf"}},
				{Name: "owner", Schema: &spec.Reference{Ref: "#/components/schemas/Owner"}},
				{Name: "owners", Schema: &spec.Array{Items: &spec.Reference{Ref: "#/components/schemas/Owner"}}},
				{Name: "tags", Schema: &spec.Array{Items: &spec.Primitive{Type: "string"}}},
				{Name: "extra", Schema: &spec.Array{}},
			},
		}},
	})
	require.Len(t, ifaces, 2)
	pet := ifaces[1]
	assert.Equal(t, "Pet", pet.Name)
	assert.Equal(t, "A pet", pet.Doc)
	assert.Nil(t, pet.Alias)

	got := map[string]ir.Field{}
	for _, f := range pet.Fields {
		got[f.Name] = f
	}
	require.Len(t, got, 5, "kind is omitted")
	assert.Equal(t, "number", got["id"].Type.String())
	assert.False(t, got["id"].Optional)
	assert.Equal(t, "identifier", got["id"].Doc)
	assert.Equal(t, "Owner", got["owner"].Type.String())
	assert.True(t, got["owner"].Optional)
	assert.Equal(t, "Owner[]", got["owners"].Type.String())
	assert.Equal(t, "string[]", got["tags"].Type.String())
	assert.Equal(t, "any[]", got["extra"].Type.String())

	require.Len(t, r.diags.ByCode(CodeOmittedProperty), 1)
}

func TestConvertSchema_AliasesAndUnresolved(t *testing.T) {
	t.Parallel()
	r := testRun()
	ifaces := r.convertSchemas([]spec.NamedSchema{
		{Name: "Pet", Schema: &spec.Object{}},
		{Name: "PetList", Schema: &spec.Array{Items: &spec.Reference{Ref: "#/components/schemas/Pet"}}},
		{Name: "Status", Schema: &spec.Primitive{Type: "string", Enum: []any{"a"}}},
		{Name: "Broken", Schema: &spec.Object{Properties: []spec.Property{
			{Name: "ghost", Schema: &spec.Reference{Ref: "#/components/schemas/Ghost"}},
			{Name: "empty", Schema: &spec.Reference{Ref: ""}},
		}}},
	})
	require.Len(t, ifaces, 4)

	list := ifaces[1]
	require.NotNil(t, list.Alias)
	assert.Equal(t, "Pet[]", list.Alias.String())
	assert.Equal(t, "string", ifaces[2].Alias.String())

	broken := ifaces[3]
	require.Len(t, broken.Fields, 2)
	for _, f := range broken.Fields {
		assert.True(t, f.Type.IsAny())
		assert.Equal(t, ir.ReasonUnresolvedRef, f.Type.Reason)
	}
	assert.Len(t, r.diags.ByCode(CodeUnresolvedReference), 2)
}

func TestConvertSchema_DuplicateNamesKeepFirst(t *testing.T) {
	t.Parallel()
	r := testRun()
	ifaces := r.convertSchemas([]spec.NamedSchema{
		{Name: "Pet.Detail", Schema: &spec.Object{Description: "first"}},
		{Name: "Pet_Detail", Schema: &spec.Object{Description: "second"}},
	})
	require.Len(t, ifaces, 1)
	assert.Equal(t, "PetDetail", ifaces[0].Name)
	assert.Equal(t, "first", ifaces[0].Doc)
	assert.Equal(t, "Pet.Detail", ifaces[0].Source)

	dups := r.diags.ByCode(CodeDuplicateInterface)
	require.Len(t, dups, 1)
	assert.Equal(t, "Pet_Detail", dups[0].Schema)
	assert.Equal(t, SeverityWarning, dups[0].Severity)
}
