package bridge

import "github.com/prometheus/client_golang/prometheus"

var bridgeUpdates = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "aquariumd",
		Subsystem: "bridge",
		Name:      "pin_writes_total",
		Help:      "Cloud pin writes by result",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(bridgeUpdates)
}
