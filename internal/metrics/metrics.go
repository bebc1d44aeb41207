// Package metrics exposes the Prometheus collectors recorded by the
// detection and redaction pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "shroud"

var (
	DetectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Adapted detection results by language, entity type, and detector",
		},
		[]string{"language", "entity", "source"},
	)

	FindingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_total",
			Help:      "Findings resolved to at least one bounding box",
		},
		[]string{"language"},
	)

	DetectorErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detector_errors_total",
			Help:      "Detector invocations that returned an error",
		},
		[]string{"detector"},
	)

	ZonesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zones_total",
			Help:      "Redaction zones processed by result",
		},
		[]string{"result"}, // "applied" / "skipped"
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"}, // "open" / "detect" / "resolve" / "apply" / "serialize"
	)
)

func init() {
	prometheus.MustRegister(DetectionsTotal)
	prometheus.MustRegister(FindingsTotal)
	prometheus.MustRegister(DetectorErrorsTotal)
	prometheus.MustRegister(ZonesTotal)
	prometheus.MustRegister(StageDuration)
}
