// Package metrics holds the Prometheus instruments shared across the service.
// All collectors register on the default registry and are served by the
// /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalysesTotal counts finished analyses by analyzer name and outcome
	// ("completed" or "failed").
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptlens_analyses_total",
		Help: "Total number of image analyses by analyzer and outcome",
	}, []string{"analyzer", "outcome"})

	// AnalysisDuration observes end-to-end processing time per analyzer,
	// including image acquisition and the vision API call.
	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "promptlens_analysis_duration_seconds",
		Help:    "Time taken to process an analysis request",
		Buckets: prometheus.DefBuckets,
	}, []string{"analyzer"})

	// PromptLength observes the character length of cleaned prompts.
	PromptLength = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "promptlens_prompt_length_chars",
		Help:    "Character length of generated prompts after cleaning",
		Buckets: []float64{50, 100, 200, 400, 680, 800, 1200, 2000},
	})

	// QueueDepth tracks the number of work items waiting in the async queue.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "promptlens_queue_depth",
		Help: "Current number of queued analysis work items",
	})

	// VisionRetries counts retryable vision API failures per provider.
	// Each increment corresponds to one failed attempt that will be retried.
	VisionRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptlens_vision_api_retries_total",
		Help: "Total number of retryable vision API failures",
	}, []string{"provider"})

	// CallbackDeliveries counts callback POST attempts by outcome
	// ("delivered" or "failed").
	CallbackDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptlens_callback_deliveries_total",
		Help: "Total number of callback delivery outcomes",
	}, []string{"outcome"})
)
