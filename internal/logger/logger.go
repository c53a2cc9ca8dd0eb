package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide structured logger.
var Log = logrus.New()

const tokenPrefixLen = 10

// Init configures level and output format. Unknown levels fall back to info.
func Init(level, format string) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
	Log.SetOutput(os.Stdout)

	if strings.EqualFold(format, "text") {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return
	}
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetOutput redirects log output, mostly useful in tests.
func SetOutput(w io.Writer) {
	Log.SetOutput(w)
}

// TokenPrefix returns a loggable prefix of a bearer token.
func TokenPrefix(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= tokenPrefixLen {
		return strings.Repeat("*", len(token))
	}
	return token[:tokenPrefixLen] + "…"
}
