package wire

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var packetsDecoded = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "xrdmon_packets_decoded_total",
	Help: "The total number of packets successfully decoded, by family",
}, []string{"family"})

func familyName(code byte) string {
	switch code {
	case CodeMap, CodeDictID, CodeInfo, CodePurge, CodeUser, CodeXFR:
		return "map"
	case CodeRedir:
		return "redir"
	case CodeFstat:
		return "fstat"
	case CodeTrace:
		return "trace"
	case CodeGStream:
		return "plugin"
	default:
		return "unknown"
	}
}
