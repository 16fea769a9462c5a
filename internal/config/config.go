// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	Browser     BrowserConfig     `mapstructure:"browser" yaml:"browser"`
	Network     NetworkConfig     `mapstructure:"network" yaml:"network"`
	Discovery   DiscoveryConfig   `mapstructure:"discovery" yaml:"discovery"`
	Cascade     CascadeConfig     `mapstructure:"cascade" yaml:"cascade"`
	Monkey      MonkeyConfig      `mapstructure:"monkey" yaml:"monkey"`
	Screenshots ScreenshotsConfig `mapstructure:"screenshots" yaml:"screenshots"`
	Report      ReportConfig      `mapstructure:"report" yaml:"report"`
	Targets     TargetsConfig     `mapstructure:"targets" yaml:"targets"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig controls how the Chrome instance is launched.
type BrowserConfig struct {
	Headless        bool     `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors bool     `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	BinaryPath      string   `mapstructure:"binary_path" yaml:"binary_path"`
	Args            []string `mapstructure:"args" yaml:"args"`
	WindowWidth     int      `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight    int      `mapstructure:"window_height" yaml:"window_height"`
	Debug           bool     `mapstructure:"debug" yaml:"debug"`
}

// NetworkConfig holds page load timing.
type NetworkConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
}

// DiscoveryConfig bounds element discovery.
type DiscoveryConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// CascadeConfig controls the obstruction dismissal sweeps.
type CascadeConfig struct {
	StageTimeout time.Duration `mapstructure:"stage_timeout" yaml:"stage_timeout"`
	// SweepEvery runs a sweep before every Nth action. Zero disables periodic sweeps.
	SweepEvery int `mapstructure:"sweep_every" yaml:"sweep_every"`
	// ForceAfter is the number of consecutive failed sweeps on one page load
	// before the forced cleanup is invoked.
	ForceAfter int `mapstructure:"force_after" yaml:"force_after"`
}

// MonkeyConfig drives action selection, adaptation and pacing.
type MonkeyConfig struct {
	Weights             map[string]float64 `mapstructure:"weights" yaml:"weights"`
	TargetRate          float64            `mapstructure:"target_rate" yaml:"target_rate"`
	Margin              float64            `mapstructure:"margin" yaml:"margin"`
	SafeIncrement       float64            `mapstructure:"safe_increment" yaml:"safe_increment"`
	SafeCap             float64            `mapstructure:"safe_cap" yaml:"safe_cap"`
	MinSamples          int                `mapstructure:"min_samples" yaml:"min_samples"`
	AdaptEvery          int                `mapstructure:"adapt_every" yaml:"adapt_every"`
	ActionsPerPage      int                `mapstructure:"actions_per_page" yaml:"actions_per_page"`
	ActionTimeout       time.Duration      `mapstructure:"action_timeout" yaml:"action_timeout"`
	Settle              time.Duration      `mapstructure:"settle" yaml:"settle"`
	MinDelay            time.Duration      `mapstructure:"min_delay" yaml:"min_delay"`
	MaxDelay            time.Duration      `mapstructure:"max_delay" yaml:"max_delay"`
	MaxActionsPerSecond float64            `mapstructure:"max_actions_per_second" yaml:"max_actions_per_second"`
	Seed                int64              `mapstructure:"seed" yaml:"seed"`
}

// ScreenshotsConfig controls screenshot capture.
type ScreenshotsConfig struct {
	Enabled   bool     `mapstructure:"enabled" yaml:"enabled"`
	Dir       string   `mapstructure:"dir" yaml:"dir"`
	OnSuccess []string `mapstructure:"on_success" yaml:"on_success"`
}

// ReportConfig controls end-of-session output.
type ReportConfig struct {
	Dir         string   `mapstructure:"dir" yaml:"dir"`
	Formats     []string `mapstructure:"formats" yaml:"formats"`
	MetricsAddr string   `mapstructure:"metrics_addr" yaml:"metrics_addr"`
}

// TargetsConfig lists the pages to exercise when none are given on the command line.
type TargetsConfig struct {
	URLs    []string `mapstructure:"urls" yaml:"urls"`
	Profile string   `mapstructure:"profile" yaml:"profile"`
}

// NewDefaultConfig creates a configuration populated with the application defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Unmarshal of pure defaults cannot fail.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// SetDefaults registers every default value on the given viper instance.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "monkey-cli")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.window_width", 1366)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.debug", false)

	// -- Network --
	v.SetDefault("network.navigation_timeout", "30s")
	v.SetDefault("network.post_load_wait", "2s")

	// -- Discovery --
	v.SetDefault("discovery.timeout", "3s")

	// -- Cascade --
	v.SetDefault("cascade.stage_timeout", "2s")
	v.SetDefault("cascade.sweep_every", 2)
	v.SetDefault("cascade.force_after", 2)

	// -- Monkey --
	v.SetDefault("monkey.weights", map[string]float64{
		"scroll":   0.35,
		"hover":    0.25,
		"keypress": 0.20,
		"click":    0.15,
		"input":    0.05,
	})
	v.SetDefault("monkey.target_rate", 0.92)
	v.SetDefault("monkey.margin", 0.05)
	v.SetDefault("monkey.safe_increment", 0.1)
	v.SetDefault("monkey.safe_cap", 0.9)
	v.SetDefault("monkey.min_samples", 10)
	v.SetDefault("monkey.adapt_every", 1)
	v.SetDefault("monkey.actions_per_page", 8)
	v.SetDefault("monkey.action_timeout", "10s")
	v.SetDefault("monkey.settle", "150ms")
	v.SetDefault("monkey.min_delay", "300ms")
	v.SetDefault("monkey.max_delay", "600ms")
	v.SetDefault("monkey.max_actions_per_second", 4.0)
	v.SetDefault("monkey.seed", 0)

	// -- Screenshots --
	v.SetDefault("screenshots.enabled", true)
	v.SetDefault("screenshots.dir", "screenshots")
	v.SetDefault("screenshots.on_success", []string{"click", "input"})

	// -- Report --
	v.SetDefault("report.dir", "reports")
	v.SetDefault("report.formats", []string{"json", "csv"})
	v.SetDefault("report.metrics_addr", "")

	// -- Targets --
	v.SetDefault("targets.profile", "quick")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves a leading "~" in every filesystem path setting.
func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Logger.LogFile, &c.Screenshots.Dir, &c.Report.Dir} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Network.NavigationTimeout <= 0 {
		return fmt.Errorf("network.navigation_timeout must be positive")
	}
	if c.Discovery.Timeout <= 0 {
		return fmt.Errorf("discovery.timeout must be positive")
	}
	if c.Cascade.StageTimeout <= 0 {
		return fmt.Errorf("cascade.stage_timeout must be positive")
	}
	if c.Cascade.SweepEvery < 0 {
		return fmt.Errorf("cascade.sweep_every must not be negative")
	}
	if c.Cascade.ForceAfter <= 0 {
		return fmt.Errorf("cascade.force_after must be a positive integer")
	}
	if err := c.Monkey.Validate(); err != nil {
		return fmt.Errorf("monkey configuration invalid: %w", err)
	}
	for _, f := range c.Report.Formats {
		switch strings.ToLower(f) {
		case "json", "csv":
		default:
			return fmt.Errorf("report.formats: unsupported format %q", f)
		}
	}
	return nil
}

// Validate checks the controller and pacing settings.
func (m *MonkeyConfig) Validate() error {
	if len(m.Weights) == 0 {
		return fmt.Errorf("weights must not be empty")
	}
	var sum float64
	for kind, w := range m.Weights {
		if w < 0 {
			return fmt.Errorf("weight for %q must not be negative", kind)
		}
		sum += w
	}
	if sum <= 0 {
		return fmt.Errorf("weights must have a positive sum")
	}
	if m.TargetRate < 0 || m.TargetRate > 1 {
		return fmt.Errorf("target_rate must be between 0.0 and 1.0")
	}
	if m.Margin < 0 || m.Margin > 1 {
		return fmt.Errorf("margin must be between 0.0 and 1.0")
	}
	if m.SafeIncrement <= 0 {
		return fmt.Errorf("safe_increment must be positive")
	}
	if m.SafeCap <= 0 || m.SafeCap > 1 {
		return fmt.Errorf("safe_cap must be in (0.0, 1.0]")
	}
	if m.MinSamples < 1 {
		return fmt.Errorf("min_samples must be at least 1")
	}
	if m.AdaptEvery < 1 {
		return fmt.Errorf("adapt_every must be at least 1")
	}
	if m.ActionsPerPage < 1 {
		return fmt.Errorf("actions_per_page must be at least 1")
	}
	if m.ActionTimeout <= 0 {
		return fmt.Errorf("action_timeout must be positive")
	}
	if m.MinDelay < 0 || m.MaxDelay < m.MinDelay {
		return fmt.Errorf("delays must satisfy 0 <= min_delay <= max_delay")
	}
	if m.MaxActionsPerSecond < 0 {
		return fmt.Errorf("max_actions_per_second must not be negative")
	}
	return nil
}
