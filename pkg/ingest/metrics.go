package ingest

import "github.com/prometheus/client_golang/prometheus"

// Line outcomes recorded in the lines counter.
const (
	outcomeKept      = "kept"
	outcomeFiltered  = "filtered"
	outcomeMalformed = "malformed"
)

// Metrics counts ingestion work. Counters are safe to update from every
// worker at once. A nil *Metrics records nothing.
type Metrics struct {
	lines    *prometheus.CounterVec
	sources  *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates the ingestion metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weblogviz_ingest_lines_total",
			Help: "Counter of log lines read, by outcome.",
		}, []string{"outcome"}),
		sources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weblogviz_ingest_sources_total",
			Help: "Counter of sources ingested, by status.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "weblogviz_ingest_source_duration_seconds",
			Help:    "Time taken to parse one source into a partial index.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
	reg.MustRegister(m.lines, m.sources, m.duration)
	return m
}

func (m *Metrics) observeSource(st SourceStats, err error) {
	if m == nil {
		return
	}
	m.duration.Observe(st.Duration.Seconds())
	if err != nil {
		// Lines of a failed source never reach the merged index.
		m.sources.WithLabelValues("failed").Inc()
		return
	}
	m.lines.WithLabelValues(outcomeKept).Add(float64(st.Kept))
	m.lines.WithLabelValues(outcomeFiltered).Add(float64(st.Filtered))
	m.lines.WithLabelValues(outcomeMalformed).Add(float64(st.Malformed))
	m.sources.WithLabelValues("ok").Inc()
}
