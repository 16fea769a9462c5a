package reporting_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/monkey-cli/api/schemas"
	"github.com/xkilldash9x/monkey-cli/internal/controller"
	"github.com/xkilldash9x/monkey-cli/internal/outcome"
	"github.com/xkilldash9x/monkey-cli/internal/reporting"
)

func sampleSession() *reporting.Session {
	agg := outcome.NewAggregator()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	agg.Record(schemas.ActionOutcome{Timestamp: at, Kind: schemas.ActionScroll, URL: "https://example.com", Succeeded: true, Element: "scroll down"})
	agg.Record(schemas.ActionOutcome{
		Timestamp:  at.Add(time.Second),
		Kind:       schemas.ActionClick,
		URL:        "https://example.com",
		Error:      "no eligible elements, \"quoted\"",
		ErrorKind:  schemas.ErrorNotFound,
		Screenshot: "errors/a.png",
	})
	agg.RecordPage(schemas.PageOutcome{URL: "https://example.com", Loaded: true, Actions: 2, Succeeded: 1})

	return &reporting.Session{
		ID:           "session-1",
		TargetRate:   92,
		BaseWeights:  controller.WeightTable{schemas.ActionScroll: 0.5, schemas.ActionClick: 0.5},
		FinalWeights: controller.WeightTable{schemas.ActionScroll: 0.6, schemas.ActionClick: 0.4},
		Summary:      agg.Summary(),
	}
}

func TestNew(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		for _, path := range []string{"", "stdout"} {
			r, err := reporting.New("json", path)
			require.NoError(t, err)
			assert.NoError(t, r.Close())
		}
	})

	t.Run("unsupported format creates no file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.html")
		r, err := reporting.New("html", path)
		assert.Nil(t, r)
		assert.EqualError(t, err, "unsupported output format: html")
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("uncreatable path", func(t *testing.T) {
		_, err := reporting.New("csv", filepath.Join(t.TempDir(), "missing", "dir", "a.csv"))
		assert.ErrorContains(t, err, "failed to create output file")
	})
}

func TestJSONReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	r, err := reporting.New("JSON", path)
	require.NoError(t, err)
	require.NoError(t, r.Write(sampleSession()))
	require.NoError(t, r.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, jsoniter.Unmarshal(data, &doc))
	assert.Equal(t, "session-1", doc["session_id"])
	summary := doc["summary"].(map[string]interface{})
	assert.Equal(t, 50.0, summary["success_rate_percent"])
	assert.Len(t, summary["outcomes"], 2)
	assert.Len(t, summary["pages"], 1)
	weights := doc["final_weights"].(map[string]interface{})
	assert.Equal(t, 0.6, weights["scroll"])
}

func TestCSVReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.csv")
	r, err := reporting.New("csv", path)
	require.NoError(t, err)
	require.NoError(t, r.Write(sampleSession()))
	require.NoError(t, r.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "timestamp", rows[0][0])
	assert.Equal(t, []string{"2026-01-02T03:04:05Z", "https://example.com", "scroll", "scroll down", "true", "", "", ""}, rows[1])
	assert.Equal(t, "click", rows[2][2])
	assert.Equal(t, "not_found", rows[2][5])
	assert.Equal(t, "no eligible elements, \"quoted\"", rows[2][6])
	assert.Equal(t, "errors/a.png", rows[2][7])
}

func TestWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports", "session-1")

	paths, err := reporting.WriteAll(dir, []string{"json", "csv"}, sampleSession())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "summary.json"), filepath.Join(dir, "actions.csv")}, paths)
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	t.Run("bad format is reported after good ones", func(t *testing.T) {
		paths, err := reporting.WriteAll(t.TempDir(), []string{"xml", "csv"}, sampleSession())
		assert.ErrorContains(t, err, "unsupported output format: xml")
		assert.Len(t, paths, 1)
	})
}

func TestMetTarget(t *testing.T) {
	s := sampleSession()
	assert.False(t, s.MetTarget())
	s.TargetRate = 50
	assert.True(t, s.MetTarget())
}
