// Package logging configures the process-wide logrus logger and hands out
// component-scoped entries.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var root = logrus.New()

// Setup configures the root logger.  Production uses JSON lines; other
// environments use the text formatter with full timestamps.  LOG_LEVEL
// overrides the default info level.
func Setup(env string, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stdout
	}
	root.SetOutput(out)
	switch env {
	case "production", "prod":
		root.SetFormatter(&logrus.JSONFormatter{})
	default:
		root.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level := logrus.InfoLevel
	if lv, err := logrus.ParseLevel(strings.TrimSpace(os.Getenv("LOG_LEVEL"))); err == nil {
		level = lv
	}
	root.SetLevel(level)
	return root
}

// NewDefault returns an entry tagged with the component name.
func NewDefault(component string) *logrus.Entry {
	return root.WithField("component", component)
}

// Discard returns an entry that writes nowhere.  Tests use it to keep output
// quiet.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
