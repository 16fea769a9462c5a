// Package outcome keeps the append-only log of attempted actions and derives
// the running success statistics from it.
package outcome

import (
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xkilldash9x/monkey-cli/api/schemas"
)

// Stats are running totals over a set of outcomes.
type Stats struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// SuccessRate returns succeeded/total in [0, 1], or 0 when nothing ran.
func (s Stats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Total)
}

// Percent returns the success rate as a percentage rounded to one decimal.
func (s Stats) Percent() float64 {
	return math.Round(s.SuccessRate()*1000) / 10
}

func (s *Stats) add(succeeded bool) {
	s.Total++
	if succeeded {
		s.Succeeded++
	} else {
		s.Failed++
	}
}

// Recompute derives Stats from a log. It must always agree with the
// incrementally maintained totals of the Aggregator that produced the log.
func Recompute(log []schemas.ActionOutcome) Stats {
	var s Stats
	for _, o := range log {
		s.add(o.Succeeded)
	}
	return s
}

// Aggregator records outcomes for one session. It is owned by the single
// control loop and is not safe for concurrent mutation.
type Aggregator struct {
	startedAt time.Time
	log       []schemas.ActionOutcome
	stats     Stats
	byKind    map[schemas.ActionKind]Stats
	pages     []schemas.PageOutcome
	metrics   *metrics
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithRegisterer exports counters and the success-rate gauge to reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(a *Aggregator) { a.metrics = newMetrics(reg) }
}

// NewAggregator creates an empty aggregator.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		startedAt: time.Now(),
		byKind:    make(map[schemas.ActionKind]Stats),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Record appends an outcome and updates the totals.
func (a *Aggregator) Record(o schemas.ActionOutcome) {
	if o.Timestamp.IsZero() {
		o.Timestamp = time.Now()
	}
	a.log = append(a.log, o)
	a.stats.add(o.Succeeded)

	k := a.byKind[o.Kind]
	k.add(o.Succeeded)
	a.byKind[o.Kind] = k

	if a.metrics != nil {
		a.metrics.observeAction(o, a.stats)
	}
}

// Stats returns the running totals.
func (a *Aggregator) Stats() Stats {
	return a.stats
}

// Outcomes returns a copy of the log in execution order.
func (a *Aggregator) Outcomes() []schemas.ActionOutcome {
	return append([]schemas.ActionOutcome(nil), a.log...)
}

// ByKind returns the totals for each action kind that has been attempted.
func (a *Aggregator) ByKind() map[schemas.ActionKind]Stats {
	out := make(map[schemas.ActionKind]Stats, len(a.byKind))
	for k, v := range a.byKind {
		out[k] = v
	}
	return out
}

// RecordPage records the result of one target page.
func (a *Aggregator) RecordPage(p schemas.PageOutcome) {
	a.pages = append(a.pages, p)
	if a.metrics != nil {
		a.metrics.observePage(p)
	}
}

// Pages returns a copy of the page results.
func (a *Aggregator) Pages() []schemas.PageOutcome {
	return append([]schemas.PageOutcome(nil), a.pages...)
}

// Summary is an end-of-session snapshot.
type Summary struct {
	StartedAt   time.Time                    `json:"started_at"`
	FinishedAt  time.Time                    `json:"finished_at"`
	Stats       Stats                        `json:"stats"`
	SuccessRate float64                      `json:"success_rate_percent"`
	ByKind      map[schemas.ActionKind]Stats `json:"by_kind"`
	PagesTested int                          `json:"pages_tested"`
	PagesFailed int                          `json:"pages_failed"`
	Pages       []schemas.PageOutcome        `json:"pages"`
	Outcomes    []schemas.ActionOutcome      `json:"outcomes"`
}

// Summary returns the session snapshot.
func (a *Aggregator) Summary() Summary {
	s := Summary{
		StartedAt:   a.startedAt,
		FinishedAt:  time.Now(),
		Stats:       a.stats,
		SuccessRate: a.stats.Percent(),
		ByKind:      a.ByKind(),
		PagesTested: len(a.pages),
		Pages:       a.Pages(),
		Outcomes:    a.Outcomes(),
	}
	for _, p := range a.pages {
		if !p.Loaded {
			s.PagesFailed++
		}
	}
	return s
}
