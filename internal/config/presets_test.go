package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupMode(t *testing.T) {
	tests := []struct {
		name    string
		actions int
		min     time.Duration
		max     time.Duration
	}{
		{"lightning", 2, 100 * time.Millisecond, 200 * time.Millisecond},
		{"quick", 5, 200 * time.Millisecond, 400 * time.Millisecond},
		{" Standard ", 8, 300 * time.Millisecond, 600 * time.Millisecond},
		{"extended", 12, 500 * time.Millisecond, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := LookupMode(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.actions, m.ActionsPerPage)
			assert.Equal(t, tt.min, m.MinDelay)
			assert.Equal(t, tt.max, m.MaxDelay)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := LookupMode("ludicrous")
		assert.ErrorContains(t, err, "extended, lightning, quick, standard")
	})
}

func TestProfileURLs(t *testing.T) {
	quick, err := ProfileURLs("quick")
	require.NoError(t, err)
	assert.Len(t, quick, 3)
	assert.Equal(t, "https://example.com", quick[0])

	full, err := ProfileURLs("comprehensive")
	require.NoError(t, err)
	assert.Len(t, full, 6)

	quick[0] = "mutated"
	again, _ := ProfileURLs("quick")
	assert.Equal(t, "https://example.com", again[0])

	_, err = ProfileURLs("nope")
	assert.Error(t, err)
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://example.com", NormalizeURL(" example.com "))
	assert.Equal(t, "http://localhost:8080", NormalizeURL("http://localhost:8080"))
	assert.Equal(t, "https://a.b/c", NormalizeURL("https://a.b/c"))
	assert.Equal(t, "", NormalizeURL("  "))
}
