package reporting

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONReporter writes the full session summary as one indented document.
type JSONReporter struct {
	writer io.WriteCloser
}

// NewJSONReporter takes ownership of w.
func NewJSONReporter(w io.WriteCloser) *JSONReporter {
	return &JSONReporter{writer: w}
}

func (r *JSONReporter) Write(s *Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if _, err := r.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (r *JSONReporter) Close() error {
	return r.writer.Close()
}
