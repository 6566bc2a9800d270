package core

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportCaller:    true,
	ReportTimestamp: true,
	TimeFormat:      time.TimeOnly,
	Prefix:          "vetro",
	Level:           log.InfoLevel,
})

// LogSetLevel applies the host-configured verbosity ("debug", "info",
// "warn", "error"). An unknown name leaves the level untouched.
func LogSetLevel(name string) {
	level, err := log.ParseLevel(name)
	if err != nil {
		logger.Warnf("unknown log level %q, keeping %s", name, logger.GetLevel())
		return
	}
	logger.SetLevel(level)
}

// LogObject returns a logger annotated with a GPU object's debug name (see
// DebugName) so backend messages trace back to the allocation site.
func LogObject(name string) *log.Logger {
	return logger.With("object", name)
}

func LogDebug(msg string, args ...interface{}) {
	logger.Debugf(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	logger.Infof(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	logger.Warnf(msg, args...)
}

func LogError(msg string, args ...interface{}) {
	logger.Errorf(msg, args...)
}

func LogFatal(msg string, args ...interface{}) {
	logger.Fatalf(msg, args...)
}
