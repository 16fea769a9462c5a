package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionKind(t *testing.T) {
	for _, k := range AllActionKinds() {
		got, err := ParseActionKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	got, err := ParseActionKind("  KeyPress ")
	require.NoError(t, err)
	assert.Equal(t, ActionKeypress, got)

	_, err = ParseActionKind("drag")
	assert.ErrorContains(t, err, `unknown action kind "drag"`)
}

func TestIsSafe(t *testing.T) {
	var safe []ActionKind
	for _, k := range AllActionKinds() {
		if k.IsSafe() {
			safe = append(safe, k)
		}
	}
	assert.Equal(t, []ActionKind{ActionScroll, ActionHover, ActionKeypress}, safe)
	assert.False(t, ActionKind("drag").IsSafe())
}
