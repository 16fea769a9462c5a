// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/monkey-cli/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// -- Test Helper Functions --

// initBuffered initializes the global logger against an in-memory writer.
func initBuffered(t *testing.T, cfg config.LoggerConfig) *bytes.Buffer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)
	var buf bytes.Buffer
	Initialize(cfg, zapcore.AddSync(&buf))
	return &buf
}

// -- Test Cases --

func TestInitialize(t *testing.T) {
	t.Run("should initialize console logger with colors", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "TestService",
			Colors:      config.ColorConfig{Info: "green"},
		})

		GetLogger().Named("cascade").Info("Sweep finished.")
		Sync()

		output := buf.String()
		assert.Contains(t, output, "INFO")
		assert.Contains(t, output, "Sweep finished.")
		assert.Contains(t, output, levelColors["green"], "Info level should be colorized green")
		assert.Contains(t, output, colorReset)
		assert.Contains(t, output, "TestService.cascade.", "component name should carry the dot suffix")
	})

	t.Run("should initialize json logger", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "JSONTest",
		})

		GetLogger().Warn("Discovery budget exhausted.", zap.String("intent", "clickable"))
		Sync()

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "Log output should be valid JSON")
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "JSONTest", entry["logger"])
		assert.Equal(t, "Discovery budget exhausted.", entry["msg"])
		assert.Equal(t, "clickable", entry["intent"])
	})

	t.Run("should respect the configured level", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{Level: "warn", Format: "json"})

		GetLogger().Info("hidden")
		GetLogger().Warn("visible")
		Sync()

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "visible")
	})

	t.Run("should write to a log file if configured", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "monkey.log")
		initBuffered(t, config.LoggerConfig{
			Level:   "debug",
			Format:  "json",
			LogFile: path,
			MaxSize: 1,
		})

		GetLogger().Error("This should go to the file.")
		Sync()

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "This should go to the file.")
	})

	t.Run("should only initialize once", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{Level: "info", ServiceName: "First"})
		logger1 := GetLogger()

		var other bytes.Buffer
		Initialize(config.LoggerConfig{Level: "debug", ServiceName: "Second"}, zapcore.AddSync(&other))
		logger2 := GetLogger()

		assert.Equal(t, logger1, logger2)
		logger2.Info("test")
		Sync()

		assert.True(t, strings.Contains(buf.String(), "First"))
		assert.False(t, strings.Contains(buf.String(), "Second"))
		assert.Empty(t, other.String())
	})
}

func TestGetLogger(t *testing.T) {
	t.Run("should return a fallback logger if not initialized", func(t *testing.T) {
		ResetForTest()
		logger := GetLogger()
		require.NotNil(t, logger)
	})

	t.Run("should return the global logger after initialization", func(t *testing.T) {
		initBuffered(t, config.LoggerConfig{Level: "info", ServiceName: "GlobalTest"})
		assert.Equal(t, globalLogger.Load(), GetLogger())
	})
}

func TestActionLogger(t *testing.T) {
	t.Run("writes one JSON line per action", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session", "actions.log")
		al, err := NewActionLogger(path, config.LoggerConfig{MaxSize: 1}, nil)
		require.NoError(t, err)

		now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		al.LogAction(ActionRecord{Timestamp: now, Kind: "click", URL: "https://example.com", Element: "button#go", Succeeded: true})
		al.LogAction(ActionRecord{Timestamp: now, Kind: "input", URL: "https://example.com", Succeeded: false, Error: "no eligible elements"})
		require.NoError(t, al.Close())

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(content)), "\n")
		require.Len(t, lines, 2)

		var first, second map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
		require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

		assert.Equal(t, "PASS", first["msg"])
		assert.Equal(t, "button#go", first["element"])
		assert.Equal(t, "FAIL", second["msg"])
		assert.Equal(t, "no eligible elements", second["error"])
		_, hasElement := second["element"]
		assert.False(t, hasElement, "empty fields are omitted")
	})

	t.Run("empty path only mirrors", func(t *testing.T) {
		var buf bytes.Buffer
		mirror := zap.New(zapcore.NewCore(newEncoder(config.LoggerConfig{Format: "json"}), zapcore.AddSync(&buf), zap.DebugLevel))

		al, err := NewActionLogger("", config.LoggerConfig{}, mirror)
		require.NoError(t, err)
		al.LogAction(ActionRecord{Kind: "scroll", Succeeded: true})
		require.NoError(t, al.Close())

		assert.Contains(t, buf.String(), "Action passed.")
		assert.Contains(t, buf.String(), `"logger":"actions"`)
	})
}
