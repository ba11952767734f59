package logger

// Logger is the logging surface handed to adapters. Every message is a printf-style format.
type Logger interface {
	// Debug level logging. Only emitted when glog verbosity is at least 2.
	Debugf(msg string, args ...interface{})

	// Info level logging
	Infof(msg string, args ...interface{})

	// Warn level logging
	Warnf(msg string, args ...interface{})

	// Error level logging
	Errorf(msg string, args ...interface{})
}
