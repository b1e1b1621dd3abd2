// Package stats exposes Prometheus counters/gauges shared by the scaler,
// converter, capture, and encoder components, so a process can serve
// /metrics without each component hand-rolling its own registry wiring.
package stats

import "github.com/prometheus/client_golang/prometheus"

// ComponentStats is the Prometheus vector set for one pipeline component
// (identified by the "component" label value passed to New).
type ComponentStats struct {
	FramesProcessed prometheus.Counter
	FramesDropped   prometheus.Counter
	ProcessingTime  prometheus.Histogram
}

// New registers a fresh ComponentStats under reg, labeled by component.
// reg is typically prometheus.DefaultRegisterer in production and a
// throwaway prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer, component string) *ComponentStats {
	cs := &ComponentStats{
		FramesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "remote_desk",
			Name:        "frames_processed_total",
			Help:        "Frames successfully processed by this component.",
			ConstLabels: prometheus.Labels{"component": component},
		}),
		FramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "remote_desk",
			Name:        "frames_dropped_total",
			Help:        "Frames dropped by this component (invalid input, full queue, unsupported conversion).",
			ConstLabels: prometheus.Labels{"component": component},
		}),
		ProcessingTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "remote_desk",
			Name:        "frame_processing_seconds",
			Help:        "Per-frame processing latency.",
			ConstLabels: prometheus.Labels{"component": component},
			Buckets:     prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(cs.FramesProcessed, cs.FramesDropped, cs.ProcessingTime)
	return cs
}
