// Package metrics provides Prometheus-based metrics recording for feed
// validation operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"feedcheck/pkg/validate"
)

// Recorder records validation metrics. Exposed via the /metrics endpoint.
type Recorder struct {
	validationsTotal   *prometheus.CounterVec
	issuesTotal        *prometheus.CounterVec
	rowsTotal          *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
}

// NewRecorder creates a Prometheus recorder with all collectors registered
// on the default registry.
func NewRecorder() *Recorder {
	return NewRecorderWith(prometheus.DefaultRegisterer)
}

// NewRecorderWith registers all collectors on the given registerer. Tests use
// this with a fresh registry to avoid duplicate registration.
func NewRecorderWith(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		validationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedcheck_validations_total",
				Help: "Total number of feed validation requests by profile, format, and status",
			},
			[]string{"profile", "format", "status"},
		),
		issuesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedcheck_issues_total",
				Help: "Total number of issues emitted by profile and severity",
			},
			[]string{"profile", "severity"},
		),
		rowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedcheck_feed_rows_total",
				Help: "Total number of feed rows validated by profile and format",
			},
			[]string{"profile", "format"},
		),
		validationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "feedcheck_validation_duration_seconds",
				Help:    "Duration of parse-and-validate passes in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"profile", "format"},
		),
	}
}

// ObserveValidation records metrics for one completed validation pass.
func (r *Recorder) ObserveValidation(profile, format string, report *validate.Report, duration time.Duration) {
	r.validationsTotal.WithLabelValues(profile, format, "success").Inc()
	r.rowsTotal.WithLabelValues(profile, format).Add(float64(report.Summary.Rows))
	r.issuesTotal.WithLabelValues(profile, string(validate.SeverityError)).Add(float64(report.Summary.ErrorCount))
	r.issuesTotal.WithLabelValues(profile, string(validate.SeverityWarning)).Add(float64(report.Summary.WarningCount))
	r.issuesTotal.WithLabelValues(profile, string(validate.SeverityOpportunity)).Add(float64(report.Summary.OpportunityCount))
	r.validationDuration.WithLabelValues(profile, format).Observe(duration.Seconds())
}

// ObserveRejectedUpload records an upload that failed to parse.
func (r *Recorder) ObserveRejectedUpload(profile, format string) {
	r.validationsTotal.WithLabelValues(profile, format, "rejected").Inc()
}
