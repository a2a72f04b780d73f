// Package metrics records batch and API metrics with prometheus collectors.
//
// A Recorder owns its registry so each invocation starts from zero. The
// collected series can be written to a node_exporter textfile at exit.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "herd"

// Recorder holds the collectors for one invocation.
type Recorder struct {
	registry *prometheus.Registry

	targetsTotal      *prometheus.CounterVec
	pipelineDuration  *prometheus.HistogramVec
	pipelinesInflight prometheus.Gauge
	apiRequestsTotal  *prometheus.CounterVec
	apiLatency        *prometheus.HistogramVec
}

// New creates a Recorder with a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		targetsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "targets_total",
				Help:      "Total number of targets processed by operation and result",
			},
			[]string{"operation", "result"},
		),

		pipelineDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "pipeline_duration_seconds",
				Help:      "Duration of a target pipeline in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12), // 500ms to ~17min
			},
			[]string{"operation"},
		),

		pipelinesInflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "pipelines_inflight",
				Help:      "Number of pipelines currently running",
			},
		),

		apiRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Total number of Proxmox API requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		),

		apiLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "Latency of Proxmox API requests in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~10s
			},
			[]string{"route"},
		),
	}

	r.registry.MustRegister(
		r.targetsTotal,
		r.pipelineDuration,
		r.pipelinesInflight,
		r.apiRequestsTotal,
		r.apiLatency,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveRequest records one API round trip. A status of 0 means the request
// never got a response.
func (r *Recorder) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	if status == 0 {
		code = "error"
	}
	r.apiRequestsTotal.WithLabelValues(route, method, code).Inc()
	r.apiLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}

// PipelineStarted marks one pipeline as in flight.
func (r *Recorder) PipelineStarted(operation string) {
	r.pipelinesInflight.Inc()
}

// PipelineFinished records the result of one pipeline.
func (r *Recorder) PipelineFinished(operation, result string, elapsed time.Duration) {
	r.pipelinesInflight.Dec()
	r.targetsTotal.WithLabelValues(operation, result).Inc()
	r.pipelineDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// TargetSkipped records a target that never ran.
func (r *Recorder) TargetSkipped(operation string) {
	r.targetsTotal.WithLabelValues(operation, "skipped").Inc()
}

// WriteTextfile writes all series in the text exposition format. The file is
// written atomically so a collector never reads a partial file.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
