package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	FixesRecorded prometheus.Counter
	FixesRejected prometheus.Counter
	QualityFaults *prometheus.CounterVec // kind label

	ActiveSessions prometheus.Gauge

	RecordDuration prometheus.Histogram

	IngestMessages *prometheus.CounterVec // result label: recorded|decode_error|rejected
	Surveys        prometheus.Counter
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		FixesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "travlysis_fixes_recorded_total",
			Help: "Total position fixes recorded into trips.",
		}),
		FixesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "travlysis_fixes_rejected_total",
			Help: "Total position fixes rejected for invalid coordinates.",
		}),
		QualityFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "travlysis_quality_faults_total",
			Help: "Data-quality faults flagged on recorded fixes.",
		}, []string{"kind"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "travlysis_active_sessions",
			Help: "Number of trips currently being tracked.",
		}),
		RecordDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "travlysis_record_fix_duration_seconds",
			Help:    "Time spent recording a fix and refreshing the trip summary.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 15),
		}),
		IngestMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "travlysis_ingest_messages_total",
			Help: "Fix messages consumed from the broker, by outcome.",
		}, []string{"result"}),
		Surveys: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "travlysis_surveys_submitted_total",
			Help: "Total post-trip surveys accepted.",
		}),
	}

	reg.MustRegister(
		c.FixesRecorded, c.FixesRejected, c.QualityFaults,
		c.ActiveSessions, c.RecordDuration,
		c.IngestMessages, c.Surveys,
	)
	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Tracking hooks. All methods are safe on a nil collector.

func (c *Collector) FixRecorded(d time.Duration) {
	if c == nil {
		return
	}
	c.FixesRecorded.Inc()
	c.RecordDuration.Observe(d.Seconds())
}

func (c *Collector) FixRejected() {
	if c == nil {
		return
	}
	c.FixesRejected.Inc()
}

func (c *Collector) QualityFault(kind string) {
	if c == nil {
		return
	}
	c.QualityFaults.WithLabelValues(kind).Inc()
}

func (c *Collector) SetActiveSessions(n int) {
	if c == nil {
		return
	}
	c.ActiveSessions.Set(float64(n))
}

func (c *Collector) IngestResult(result string) {
	if c == nil {
		return
	}
	c.IngestMessages.WithLabelValues(result).Inc()
}

func (c *Collector) SurveySubmitted() {
	if c == nil {
		return
	}
	c.Surveys.Inc()
}
