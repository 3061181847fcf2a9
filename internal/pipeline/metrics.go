package pipeline

import "github.com/prometheus/client_golang/prometheus"

var (
	framesLoaded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "aquariumd",
		Subsystem: "pipeline",
		Name:      "frames_loaded_total",
		Help:      "Frames successfully loaded and published by the producer",
	})

	loadFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "aquariumd",
		Subsystem: "pipeline",
		Name:      "load_failures_total",
		Help:      "Frame load attempts that failed",
	})

	requestsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aquariumd",
		Subsystem: "pipeline",
		Name:      "requests_dropped_total",
		Help:      "Frame requests dropped before loading",
	}, []string{"reason"})

	staleDiscards = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "aquariumd",
		Subsystem: "pipeline",
		Name:      "stale_discards_total",
		Help:      "Loads or publishes discarded because the generation changed",
	})
)

func init() {
	prometheus.MustRegister(framesLoaded, loadFailures, requestsDropped, staleDiscards)
}
