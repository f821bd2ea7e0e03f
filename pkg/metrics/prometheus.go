package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus instruments for the compliance engine.
// It uses a private registry so only our own metrics are exported.
type Collector struct {
	registry            *prometheus.Registry
	evaluationsTotal    *prometheus.CounterVec
	checksFailedTotal   *prometheus.CounterVec
	evaluationDuration  prometheus.Histogram
	recordStatus        *prometheus.GaugeVec
	overdueRecheckTotal prometheus.Counter
}

// NewCollector creates a collector with a fresh registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		evaluationsTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "compliance_evaluations_total",
			Help: "Total number of record evaluations, by record type",
		}, []string{"record_type"}),
		checksFailedTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "compliance_checks_failed_total",
			Help: "Total number of failed rule checks, by rule code",
		}, []string{"rule_code"}),
		evaluationDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "compliance_evaluation_duration_seconds",
			Help:    "Time taken to evaluate all rules against one record",
			Buckets: prometheus.DefBuckets,
		}),
		recordStatus: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "compliance_records_by_status",
			Help: "Number of records currently at each compliance status",
		}, []string{"status"}),
		overdueRecheckTotal: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "compliance_overdue_rechecks_total",
			Help: "Total number of records re-evaluated by the overdue recheck loop",
		}),
	}
}

// RecordEvaluation records one completed record evaluation.
func (c *Collector) RecordEvaluation(recordType string, duration time.Duration) {
	c.evaluationsTotal.WithLabelValues(recordType).Inc()
	c.evaluationDuration.Observe(duration.Seconds())
}

// RecordCheckFailure records one failed rule check.
func (c *Collector) RecordCheckFailure(ruleCode string) {
	c.checksFailedTotal.WithLabelValues(ruleCode).Inc()
}

// SetRecordStatusCounts updates the per-status record gauges.
func (c *Collector) SetRecordStatusCounts(green, yellow, red int) {
	c.recordStatus.WithLabelValues("green").Set(float64(green))
	c.recordStatus.WithLabelValues("yellow").Set(float64(yellow))
	c.recordStatus.WithLabelValues("red").Set(float64(red))
}

// RecordOverdueRecheck counts records re-evaluated by the recheck loop.
func (c *Collector) RecordOverdueRecheck(count int) {
	c.overdueRecheckTotal.Add(float64(count))
}

// Handler returns the HTTP handler exposing the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
