// File: internal/config/config_test.go
package config

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "monkey-cli", cfg.Logger.ServiceName)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 30*time.Second, cfg.Network.NavigationTimeout)
	assert.Equal(t, 3*time.Second, cfg.Discovery.Timeout)
	assert.Equal(t, 2, cfg.Cascade.ForceAfter)
	assert.Equal(t, 0.92, cfg.Monkey.TargetRate)
	assert.Equal(t, 0.05, cfg.Monkey.Margin)
	assert.Equal(t, 0.9, cfg.Monkey.SafeCap)
	assert.Equal(t, 10, cfg.Monkey.MinSamples)
	assert.InDelta(t, 0.35, cfg.Monkey.Weights["scroll"], 1e-9)
	assert.InDelta(t, 0.05, cfg.Monkey.Weights["input"], 1e-9)
	assert.ElementsMatch(t, []string{"json", "csv"}, cfg.Report.Formats)

	require.NoError(t, cfg.Validate(), "defaults must always validate")
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Core Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		assert.NoError(t, cfg.Validate())

		invalidNav := *cfg
		invalidNav.Network.NavigationTimeout = 0
		err := invalidNav.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "network.navigation_timeout must be positive")

		invalidForce := *cfg
		invalidForce.Cascade.ForceAfter = 0
		err = invalidForce.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cascade.force_after must be a positive integer")

		invalidFormat := *cfg
		invalidFormat.Report.Formats = []string{"html"}
		err = invalidFormat.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unsupported format "html"`)
	})

	t.Run("Monkey Validation", func(t *testing.T) {
		valid := NewDefaultConfig().Monkey
		assert.NoError(t, valid.Validate())

		negative := valid
		negative.Weights = map[string]float64{"click": -0.1, "scroll": 1.1}
		err := negative.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `weight for "click" must not be negative`)

		zero := valid
		zero.Weights = map[string]float64{"click": 0}
		err = zero.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "weights must have a positive sum")

		badTarget := valid
		badTarget.TargetRate = 92
		err = badTarget.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "target_rate must be between 0.0 and 1.0")

		badCap := valid
		badCap.SafeCap = 1.5
		err = badCap.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "safe_cap must be in (0.0, 1.0]")

		badDelays := valid
		badDelays.MinDelay = time.Second
		badDelays.MaxDelay = time.Millisecond
		err = badDelays.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "min_delay <= max_delay")
	})
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlBytes := []byte(`
monkey:
  target_rate: 0.85
  actions_per_page: 12
  weights:
    click: 0.4
    scroll: 0.3
    input: 0.2
    hover: 0.1
cascade:
  sweep_every: 3
targets:
  urls:
    - https://example.com
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlBytes)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, 0.85, cfg.Monkey.TargetRate)
		assert.Equal(t, 12, cfg.Monkey.ActionsPerPage)
		assert.Equal(t, 3, cfg.Cascade.SweepEvery)
		assert.InDelta(t, 0.4, cfg.Monkey.Weights["click"], 1e-9)
		assert.Equal(t, []string{"https://example.com"}, cfg.Targets.URLs)
		// Defaults survive alongside file values.
		assert.Equal(t, "info", cfg.Logger.Level)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("monkey.actions_per_page", 0)

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "actions_per_page must be at least 1")
	})

	t.Run("Home Directory Expansion", func(t *testing.T) {
		home, err := homedir.Dir()
		if err != nil {
			t.Skipf("no home directory available: %v", err)
		}

		v := viper.New()
		SetDefaults(v)
		v.Set("report.dir", "~/monkey-reports")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "monkey-reports"), cfg.Report.Dir)
	})
}
