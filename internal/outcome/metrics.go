package outcome

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xkilldash9x/monkey-cli/api/schemas"
)

type metrics struct {
	actions     *prometheus.CounterVec
	pages       *prometheus.CounterVec
	successRate prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		actions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "monkey",
				Name:      "actions_total",
				Help:      "Attempted monkey actions by kind and result.",
			},
			[]string{"kind", "succeeded"},
		),
		pages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "monkey",
				Name:      "pages_total",
				Help:      "Target pages visited, by whether they loaded.",
			},
			[]string{"loaded"},
		),
		successRate: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "monkey",
			Name:      "success_rate",
			Help:      "Rolling action success rate in [0, 1].",
		}),
	}
}

func (m *metrics) observeAction(o schemas.ActionOutcome, running Stats) {
	m.actions.WithLabelValues(string(o.Kind), strconv.FormatBool(o.Succeeded)).Inc()
	m.successRate.Set(running.SuccessRate())
}

func (m *metrics) observePage(p schemas.PageOutcome) {
	m.pages.WithLabelValues(strconv.FormatBool(p.Loaded)).Inc()
}
