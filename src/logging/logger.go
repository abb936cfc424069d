// Package logging is a thin leveled-logging facade shared by the CLI and
// libraries. Analysis code never logs on its own hot paths; logging is for
// ingestion and reporting progress/warnings.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Level:           log.InfoLevel,
})

// SetLogLevel parses and applies a global log level ("debug", "info",
// "warn", "error"). Unrecognized values fall back to info.
func SetLogLevel(s string) {
	logger.SetLevel(log.ParseLevel(s))
}

func Debugf(format string, args ...interface{}) { logger.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { logger.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { logger.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { logger.Errorf(format, args...) }
