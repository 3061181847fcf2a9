package advice

import "github.com/prometheus/client_golang/prometheus"

var adviceRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "aquariumd",
		Subsystem: "advice",
		Name:      "requests_total",
		Help:      "Upstream advice requests by outcome",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(adviceRequests)
}
