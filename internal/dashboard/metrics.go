package dashboard

import "github.com/prometheus/client_golang/prometheus"

var moodEvaluations = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "aquariumd",
	Subsystem: "mood",
	Name:      "evaluations_total",
	Help:      "Mood evaluations by resulting category",
}, []string{"category"})

func init() {
	prometheus.MustRegister(moodEvaluations)
}
