package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "xrdmon_transport_queue_depth",
	Help: "The current number of messages buffered ahead of the broker sink",
})

var brokerReconnects = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "xrdmon_transport_reconnects_total",
	Help: "The total number of broker reconnect attempts, by sink",
}, []string{"sink"})
