package xrdmon

import "github.com/sirupsen/logrus"

var log logrus.FieldLogger

func init() {
	// Give a default logger at the start to avoid null pointer error
	log = logrus.New()
}

// SetLogger overrides the package-level logger used by StartMetrics and
// StartProfile. FileWriter takes its own logger, and the wire, correlate,
// mapper and transport packages keep their own package-level loggers.
func SetLogger(logger logrus.FieldLogger) {
	log = logger
}
