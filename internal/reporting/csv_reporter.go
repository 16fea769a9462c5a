package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{"timestamp", "url", "kind", "element", "succeeded", "error_kind", "error", "screenshot"}

// CSVReporter writes one row per attempted action.
type CSVReporter struct {
	writer io.WriteCloser
}

// NewCSVReporter takes ownership of w.
func NewCSVReporter(w io.WriteCloser) *CSVReporter {
	return &CSVReporter{writer: w}
}

func (r *CSVReporter) Write(s *Session) error {
	cw := csv.NewWriter(r.writer)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, o := range s.Summary.Outcomes {
		row := []string{
			o.Timestamp.Format(time.RFC3339Nano),
			o.URL,
			string(o.Kind),
			o.Element,
			strconv.FormatBool(o.Succeeded),
			string(o.ErrorKind),
			o.Error,
			o.Screenshot,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (r *CSVReporter) Close() error {
	return r.writer.Close()
}
