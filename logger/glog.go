package logger

import (
	"fmt"

	"github.com/golang/glog"
)

const debugVerbosity glog.Level = 2

// GlogLogger implements the Logger interface for logging using the glog library with configurable call depth.
type GlogLogger struct {
	depth int
}

func NewGlogLogger() Logger {
	return &GlogLogger{
		depth: 1,
	}
}

// Debugf logs a debug-level message with the specified format and arguments.
func (logger *GlogLogger) Debugf(msg string, args ...interface{}) {
	if glog.V(debugVerbosity) {
		glog.InfoDepth(logger.depth, fmt.Sprintf(msg, args...))
	}
}

// Infof logs an informational-level message with the specified format and optional arguments.
func (logger *GlogLogger) Infof(msg string, args ...interface{}) {
	glog.InfoDepth(logger.depth, fmt.Sprintf(msg, args...))
}

// Warnf logs a warning-level message with the specified format and arguments.
func (logger *GlogLogger) Warnf(msg string, args ...interface{}) {
	glog.WarningDepth(logger.depth, fmt.Sprintf(msg, args...))
}

// Errorf logs an error-level message with the specified format and arguments.
func (logger *GlogLogger) Errorf(msg string, args ...interface{}) {
	glog.ErrorDepth(logger.depth, fmt.Sprintf(msg, args...))
}
