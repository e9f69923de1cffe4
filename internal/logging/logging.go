package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds the process logger.  Production environments get JSON lines
// for log shippers; everything else gets the human readable text format.
func New(env, level string) *logrus.Logger {
	return NewWithOutput(os.Stdout, env, level)
}

func NewWithOutput(w io.Writer, env, level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(Level(level))
	if strings.EqualFold(env, "prod") || strings.EqualFold(env, "production") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// Level maps LOG_LEVEL values onto logrus levels.  Unknown values fall
// back to info.
func Level(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "debug":
		return logrus.DebugLevel
	case "trace":
		return logrus.TraceLevel
	default:
		return logrus.InfoLevel
	}
}

// Discard returns a logger that drops everything, for tests and tools
// that do not want output.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
