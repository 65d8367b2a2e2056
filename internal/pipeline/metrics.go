package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the run counters exported at /metrics.
type Metrics struct {
	runs          *prometheus.CounterVec
	stageFailures *prometheus.CounterVec
	quotes        *prometheus.GaugeVec
	duration      prometheus.Histogram
}

// NewMetrics creates the run metrics and registers them on reg.
// A nil registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketradar",
			Name:      "runs_total",
			Help:      "Aggregation runs by result.",
		}, []string{"result"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketradar",
			Name:      "stage_failures_total",
			Help:      "Failed or degraded pipeline stages.",
		}, []string{"stage"}),
		quotes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "marketradar",
			Name:      "quotes_fetched",
			Help:      "Quotes in the most recent snapshot by asset class.",
		}, []string{"class"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "marketradar",
			Name:      "run_duration_seconds",
			Help:      "Wall time of one aggregation run.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.stageFailures, m.quotes, m.duration)
	}
	return m
}

func (m *Metrics) observeRun(res RunResult, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failed"
	}
	m.runs.WithLabelValues(result).Inc()
	m.duration.Observe(elapsed.Seconds())
	if err == nil || res.Crypto+res.Equity > 0 {
		m.quotes.WithLabelValues("crypto").Set(float64(res.Crypto))
		m.quotes.WithLabelValues("stock").Set(float64(res.Equity))
	}
}

func (m *Metrics) stageFailed(stage Stage) {
	if m == nil {
		return
	}
	m.stageFailures.WithLabelValues(string(stage)).Inc()
}
