// Package rag provides the supporting infrastructure for the ragmark
// library: leveled logging, embedding services, and the dense and sparse
// indexes the retrieval layer is built on.
package rag

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// LogLevel represents the severity level of a log message. Higher values
// indicate more verbose logging.
type LogLevel int

const (
	// LogLevelOff disables all logging
	LogLevelOff LogLevel = iota
	// LogLevelError enables only error messages
	LogLevelError
	// LogLevelWarn enables error and warning messages
	LogLevelWarn
	// LogLevelInfo enables error, warning, and info messages
	LogLevelInfo
	// LogLevelDebug enables all messages including debug
	LogLevelDebug
)

// Logger defines the interface for logging operations. Implementations must
// support multiple severity levels and structured key-value pairs.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	// SetLevel changes the current logging level
	SetLevel(level LogLevel)
}

// DefaultLogger implements Logger on top of the standard library's log
// package, writing to os.Stderr with the standard timestamp format.
type DefaultLogger struct {
	logger *log.Logger
	level  LogLevel
}

// NewLogger creates a new DefaultLogger instance with the specified log level.
func NewLogger(level LogLevel) Logger {
	return &DefaultLogger{
		logger: log.New(os.Stderr, "", log.LstdFlags),
		level:  level,
	}
}

// SetLevel updates the logging level. Messages below this level are dropped.
func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.level = level
}

func (l *DefaultLogger) log(level LogLevel, msg string, keysAndValues ...interface{}) {
	if level <= l.level {
		l.logger.Printf("%s: %s %v", level, msg, keysAndValues)
	}
}

// Debug logs detailed information useful while debugging.
func (l *DefaultLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(LogLevelDebug, msg, keysAndValues...)
}

// Info logs general operational information.
func (l *DefaultLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log(LogLevelInfo, msg, keysAndValues...)
}

// Warn logs potentially harmful situations that don't prevent operation.
func (l *DefaultLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(LogLevelWarn, msg, keysAndValues...)
}

// Error logs error conditions that affect normal operation.
func (l *DefaultLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log(LogLevelError, msg, keysAndValues...)
}

// String returns the string representation of a LogLevel.
func (l LogLevel) String() string {
	return [...]string{"OFF", "ERROR", "WARN", "INFO", "DEBUG"}[l]
}

// UnmarshalText implements encoding.TextUnmarshaler so LogLevel can be set
// from configuration files or environment variables.
func (l *LogLevel) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "OFF":
		*l = LogLevelOff
	case "ERROR":
		*l = LogLevelError
	case "WARN":
		*l = LogLevelWarn
	case "INFO":
		*l = LogLevelInfo
	case "DEBUG":
		*l = LogLevelDebug
	default:
		return fmt.Errorf("invalid log level: %s", string(text))
	}
	return nil
}

// GlobalLogger is the package-level logger instance used by default.
var GlobalLogger Logger

func init() {
	GlobalLogger = NewLogger(LogLevelInfo)
}

// SetGlobalLogLevel sets the log level for the global logger instance.
func SetGlobalLogLevel(level LogLevel) {
	GlobalLogger.SetLevel(level)
}
