package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. It exists from package init with logrus
// defaults; Init only reconfigures it, so the pointer never changes.
var Log = logrus.New()

// Init configures Log from the environment. Call it once from main (or
// TestMain) before anything logs.
//
//	LOG_LEVEL  - logrus level name, default "info"
//	LOG_FORMAT - "json" for collectors, anything else for coloured text
func Init() {
	InitWithOutput(os.Stdout)
}

// InitWithOutput is Init writing to out instead of stdout.
func InitWithOutput(out io.Writer) {
	logLevel, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		logLevel = "info"
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	Log.SetOutput(out)
}

// Component returns an entry tagged with the subsystem name.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
