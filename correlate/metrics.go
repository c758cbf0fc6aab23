package correlate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var tableSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "xrdmon_correlation_table_size",
	Help: "The current number of entries in a correlation store table",
}, []string{"table"})

func (s *Store) reportSizes() {
	servers, users, accesses := s.Sizes()
	tableSize.WithLabelValues("servers").Set(float64(servers))
	tableSize.WithLabelValues("users").Set(float64(users))
	tableSize.WithLabelValues("accesses").Set(float64(accesses))
}
