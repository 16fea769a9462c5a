package outcome

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/xkilldash9x/monkey-cli/api/schemas"
)

func outcomeOf(kind schemas.ActionKind, ok bool) schemas.ActionOutcome {
	return schemas.ActionOutcome{Kind: kind, Succeeded: ok, URL: "https://example.com"}
}

func TestStats(t *testing.T) {
	t.Run("zero actions is zero percent", func(t *testing.T) {
		var s Stats
		assert.Zero(t, s.SuccessRate())
		assert.Zero(t, s.Percent())
	})

	t.Run("percent is rounded to one decimal", func(t *testing.T) {
		s := Stats{Total: 3, Succeeded: 2, Failed: 1}
		assert.InDelta(t, 2.0/3.0, s.SuccessRate(), 1e-12)
		assert.Equal(t, 66.7, s.Percent())
	})
}

func TestAggregator(t *testing.T) {
	t.Run("records in execution order with running totals", func(t *testing.T) {
		a := NewAggregator()
		a.Record(outcomeOf(schemas.ActionClick, true))
		a.Record(outcomeOf(schemas.ActionInput, false))
		a.Record(outcomeOf(schemas.ActionClick, false))

		assert.Equal(t, Stats{Total: 3, Succeeded: 1, Failed: 2}, a.Stats())

		log := a.Outcomes()
		require.Len(t, log, 3)
		assert.Equal(t, schemas.ActionClick, log[0].Kind)
		assert.Equal(t, schemas.ActionInput, log[1].Kind)
		assert.False(t, log[0].Timestamp.IsZero(), "timestamps are filled in")

		byKind := a.ByKind()
		assert.Equal(t, Stats{Total: 2, Succeeded: 1, Failed: 1}, byKind[schemas.ActionClick])
		assert.Equal(t, Stats{Total: 1, Failed: 1}, byKind[schemas.ActionInput])
	})

	t.Run("returned log is a copy", func(t *testing.T) {
		a := NewAggregator()
		a.Record(outcomeOf(schemas.ActionScroll, true))
		log := a.Outcomes()
		log[0].Succeeded = false
		assert.True(t, a.Outcomes()[0].Succeeded)
	})

	t.Run("summary counts failed pages", func(t *testing.T) {
		a := NewAggregator()
		a.RecordPage(schemas.PageOutcome{URL: "https://a.example", Loaded: true, Actions: 2, Succeeded: 2})
		a.RecordPage(schemas.PageOutcome{URL: "https://b.example", Loaded: false, Error: "timeout"})
		a.Record(outcomeOf(schemas.ActionHover, true))
		a.Record(outcomeOf(schemas.ActionHover, true))

		s := a.Summary()
		assert.Equal(t, 2, s.PagesTested)
		assert.Equal(t, 1, s.PagesFailed)
		assert.Equal(t, 100.0, s.SuccessRate)
		assert.Len(t, s.Outcomes, 2)
		assert.False(t, s.FinishedAt.Before(s.StartedAt))
	})

	t.Run("exports prometheus metrics", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		a := NewAggregator(WithRegisterer(reg))
		a.Record(outcomeOf(schemas.ActionClick, true))
		a.Record(outcomeOf(schemas.ActionClick, false))
		a.Record(outcomeOf(schemas.ActionScroll, true))
		a.RecordPage(schemas.PageOutcome{Loaded: false})

		assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.actions.WithLabelValues("click", "true")))
		assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.actions.WithLabelValues("click", "false")))
		assert.InDelta(t, 2.0/3.0, testutil.ToFloat64(a.metrics.successRate), 1e-12)
		assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.pages.WithLabelValues("false")))

		count, err := testutil.GatherAndCount(reg, "monkey_actions_total")
		require.NoError(t, err)
		assert.Equal(t, 3, count, "three label combinations were observed")
	})
}

// TestIncrementalMatchesRecompute checks that the running totals always agree
// with a full recount of the log.
func TestIncrementalMatchesRecompute(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		kinds := schemas.AllActionKinds()
		a := NewAggregator()
		n := rapid.IntRange(0, 200).Draw(rt, "n")
		for i := 0; i < n; i++ {
			kind := kinds[rapid.IntRange(0, len(kinds)-1).Draw(rt, "kind")]
			a.Record(outcomeOf(kind, rapid.Bool().Draw(rt, "ok")))
		}

		incremental := a.Stats()
		if recount := Recompute(a.Outcomes()); recount != incremental {
			rt.Fatalf("incremental %+v != recomputed %+v", incremental, recount)
		}
		if incremental.Succeeded+incremental.Failed != incremental.Total {
			rt.Fatalf("succeeded + failed != total: %+v", incremental)
		}
		if r := incremental.SuccessRate(); r < 0 || r > 1 {
			rt.Fatalf("success rate out of range: %v", r)
		}

		var perKind int
		for _, s := range a.ByKind() {
			perKind += s.Total
		}
		if perKind != incremental.Total {
			rt.Fatalf("per-kind totals %d != total %d", perKind, incremental.Total)
		}
	})
}
