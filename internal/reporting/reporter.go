// Package reporting writes the end-of-session reports.
package reporting

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xkilldash9x/monkey-cli/internal/controller"
	"github.com/xkilldash9x/monkey-cli/internal/outcome"
)

// Session is everything a report describes.
type Session struct {
	ID           string                 `json:"session_id"`
	GeneratedAt  time.Time              `json:"generated_at"`
	TargetRate   float64                `json:"target_rate_percent"`
	Mode         string                 `json:"mode,omitempty"`
	BaseWeights  controller.WeightTable `json:"base_weights"`
	FinalWeights controller.WeightTable `json:"final_weights"`
	SafeMass     float64                `json:"safe_mass"`
	Adaptations  int                    `json:"adaptations"`
	Screenshots  int                    `json:"screenshots"`
	Summary      outcome.Summary        `json:"summary"`
	// SetupError is set when the browser could not be started and no page ran.
	SetupError string `json:"setup_error,omitempty"`
}

// MetTarget reports whether the session success rate reached the target.
func (s *Session) MetTarget() bool {
	return s.Summary.SuccessRate >= s.TargetRate
}

// Reporter defines the interface for writing a session report to an output.
type Reporter interface {
	Write(s *Session) error
	// Close finalizes the report and closes any underlying resources.
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a new reporter based on the specified format and output path.
func New(format, outputPath string) (Reporter, error) {
	format = strings.ToLower(format)
	switch format {
	case "json", "csv":
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	var writer io.WriteCloser
	if outputPath == "" || outputPath == "stdout" {
		// Wrap Stdout so Close() is a no-op.
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}

	if format == "csv" {
		return NewCSVReporter(writer), nil
	}
	return NewJSONReporter(writer), nil
}

// FileName returns the report file name used for format.
func FileName(format string) string {
	if strings.ToLower(format) == "csv" {
		return "actions.csv"
	}
	return "summary.json"
}

// WriteAll writes one report per format into dir and returns the paths
// written. Every format is attempted even when an earlier one fails.
func WriteAll(dir string, formats []string, s *Session) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	var (
		paths []string
		errs  []string
	)
	for _, format := range formats {
		path := filepath.Join(dir, FileName(format))
		if err := writeOne(format, path, s); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		paths = append(paths, path)
	}
	if len(errs) > 0 {
		return paths, fmt.Errorf("report generation failed: %s", strings.Join(errs, "; "))
	}
	return paths, nil
}

func writeOne(format, path string, s *Session) error {
	r, err := New(format, path)
	if err != nil {
		return err
	}
	if err := r.Write(s); err != nil {
		r.Close()
		return fmt.Errorf("%s report: %w", format, err)
	}
	return r.Close()
}
