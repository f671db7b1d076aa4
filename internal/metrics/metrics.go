// Package metrics holds the Prometheus collectors for pass, page and rule
// activity. Collectors register on Registry rather than the global default
// so a run can be exported to a textfile without Go runtime noise.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry collects every tallyocr metric.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	PassesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tallyocr_passes_total",
			Help: "Recognition passes by outcome",
		},
		[]string{"pass", "status"}, // status: ok, empty, failed, timeout
	)

	PassDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tallyocr_pass_duration_seconds",
			Help:    "Transform plus recognition time per pass",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		},
		[]string{"pass"},
	)

	PagesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tallyocr_pages_total",
			Help: "Pages processed by result",
		},
		[]string{"status"}, // status: text, empty
	)

	PageAgreement = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tallyocr_page_agreement_ratio",
			Help:    "Mean share of passes backing each merged word",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	RuleHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tallyocr_correction_rule_hits_total",
			Help: "Correction rule applications that changed the text",
		},
		[]string{"rule", "category"},
	)

	RuleFailures = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tallyocr_correction_rule_failures_total",
			Help: "Correction rules skipped after a panic",
		},
		[]string{"rule"},
	)
)

// WriteTextfile writes the registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
