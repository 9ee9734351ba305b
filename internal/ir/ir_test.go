package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeExprString(t *testing.T) {
	t.Parallel()
	cases := []struct {
		expr TypeExpr
		want string
	}{
		{Primitive("number"), "number"},
		{Named("Pet"), "Pet"},
		{ArrayOf(Named("Pet")), "Pet[]"},
		{ArrayOf(ArrayOf(Primitive("string"))), "string[][]"},
		{ArrayOf(Any(ReasonUntypedArrayMember)), "any[]"},
		{Any(ReasonNoSchema), "any"},
		{TypeExpr{Kind: KindArray}, "any[]"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.expr.String())
	}
}

func TestTypeExprNames(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"Pet"}, ArrayOf(Named("Pet")).Names())
	assert.Empty(t, Primitive("string").Names())
	assert.Empty(t, Any(ReasonNoKind).Names())
}

func TestRelativeModule(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "../types/common", RelativeModule("services/pets", "types/common"))
	assert.Equal(t, "./request", RelativeModule("services/pets", "services/request"))
	assert.Equal(t, "./types/common", RelativeModule("index", "types/common"))
	assert.Equal(t, "../../types/common", RelativeModule("services/v1/pets", "types/common"))
}

func TestInterpolated(t *testing.T) {
	t.Parallel()
	assert.False(t, Interpolated([]PathSegment{{Literal: "/pets"}}))
	assert.True(t, Interpolated([]PathSegment{{Literal: "/pets/"}, {Param: "id"}}))
}
