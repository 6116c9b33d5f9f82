// Package logging configures a single process-wide structured logger:
// level and output format, written to stderr. No rotation, no
// syslog/journald sinks, no async queue — just what a compiler+matcher
// service actually needs.
package logging

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a *logrus.Logger from a level name ("debug", "info", "warn",
// "error") and a format name ("json" or "text"). An unrecognized level
// falls back to info; an unrecognized format falls back to text.
func New(level, format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return log
}

// WithRequestID returns an entry pre-tagged with a request correlation
// ID, the field every Detector call logs under (pkg/magicforest).
func WithRequestID(log *logrus.Logger, requestID string) *logrus.Entry {
	return log.WithField("request_id", requestID)
}

// WrapCompileDiagnostics formats a count of discarded rule lines for a
// single log line, without dumping every diagnostic at info level.
func WrapCompileDiagnostics(source string, count int) string {
	if count == 0 {
		return fmt.Sprintf("compiled %s cleanly", source)
	}
	return fmt.Sprintf("compiled %s with %d discarded line(s)", source, count)
}
