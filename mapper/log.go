package mapper

import "github.com/sirupsen/logrus"

var log logrus.FieldLogger = logrus.New()

// SetLogger overrides the package-level logger used for correlation-miss
// diagnostics.
func SetLogger(l logrus.FieldLogger) {
	log = l
}
