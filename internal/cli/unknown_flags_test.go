package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownFlag_ShowsHelpAndUsageError(t *testing.T) {
	t.Parallel()
	for _, args := range [][]string{
		{"generate", "--unknown-flag"},
		{"init", "--unknown-flag"},
		{"--unknown-flag"},
	} {
		err := newTestRoot(args...).Execute()
		require.Error(t, err, args)
		assert.IsType(t, usageError{}, err)
		assert.ErrorIs(t, err, ErrUsage)
		assert.Contains(t, err.Error(), "unknown flag")
		assert.Contains(t, err.Error(), "Usage:")
	}
}
