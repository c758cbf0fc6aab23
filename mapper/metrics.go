package mapper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var recordsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "xrdmon_records_dropped_total",
	Help: "The total number of records dropped for a missing correlation dependency, by family",
}, []string{"family"})
