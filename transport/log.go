package transport

import "github.com/sirupsen/logrus"

var log logrus.FieldLogger = logrus.StandardLogger()

// SetLogger overrides the logger used by this package.
func SetLogger(logger logrus.FieldLogger) {
	log = logger
}
