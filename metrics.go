package xrdmon

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StartMetrics starts the prometheus /metrics HTTP endpoint on port. Every
// subsystem (wire, correlate, mapper, transport) registers its own counters
// against the default registry, so a single handler here serves all of them.
func StartMetrics(port int) {
	go func() {
		listenAddress := ":" + strconv.Itoa(port)
		log.Debugln("Starting metrics at " + listenAddress + "/metrics")
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(listenAddress, nil); err != nil {
			log.Errorln("Failed to listen and serve metrics:", err)
		}
	}()
}
