package observability

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xkilldash9x/monkey-cli/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ActionRecord is one attempted action as seen by the action log.
type ActionRecord struct {
	Timestamp  time.Time
	Kind       string
	URL        string
	Element    string
	Succeeded  bool
	Error      string
	Screenshot string
}

// ActionLogger writes one structured line per attempted action to a dedicated,
// rotated file, and mirrors a short summary to the application logger.
type ActionLogger struct {
	file   *zap.Logger
	sink   *lumberjack.Logger
	mirror *zap.Logger
}

// NewActionLogger creates the action log at path. An empty path disables the
// file sink and only the mirror is written.
func NewActionLogger(path string, cfg config.LoggerConfig, mirror *zap.Logger) (*ActionLogger, error) {
	if mirror == nil {
		mirror = zap.NewNop()
	}
	al := &ActionLogger{file: zap.NewNop(), mirror: mirror.Named("actions")}
	if path == "" {
		return al, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create action log directory: %w", err)
	}
	al.sink = newRotatingWriter(path, cfg)
	core := zapcore.NewCore(newEncoder(config.LoggerConfig{Format: "json"}), zapcore.AddSync(al.sink), zap.InfoLevel)
	al.file = zap.New(core)
	return al, nil
}

// LogAction records a single action.
func (a *ActionLogger) LogAction(rec ActionRecord) {
	fields := []zap.Field{
		zap.Time("at", rec.Timestamp),
		zap.String("kind", rec.Kind),
		zap.String("url", rec.URL),
		zap.Bool("succeeded", rec.Succeeded),
	}
	if rec.Element != "" {
		fields = append(fields, zap.String("element", rec.Element))
	}
	if rec.Error != "" {
		fields = append(fields, zap.String("error", rec.Error))
	}
	if rec.Screenshot != "" {
		fields = append(fields, zap.String("screenshot", rec.Screenshot))
	}

	if rec.Succeeded {
		a.file.Info("PASS", fields...)
		a.mirror.Info("Action passed.", fields...)
		return
	}
	a.file.Warn("FAIL", fields...)
	a.mirror.Warn("Action failed.", fields...)
}

// Close flushes and closes the file sink.
func (a *ActionLogger) Close() error {
	_ = a.file.Sync()
	if a.sink == nil {
		return nil
	}
	return a.sink.Close()
}
