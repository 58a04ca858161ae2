package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = [...]string{
	DEBUG: "DEBUG",
	INFO:  "INFO ",
	WARN:  "WARN ",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

type Logger struct {
	level           Level
	componentLevels map[string]Level
	logger          *log.Logger
}

// Global logger instance
var defaultLogger *Logger

func init() {
	defaultLogger = New(INFO)
}

// New creates a new logger with the specified level
func New(level Level) *Logger {
	return &Logger{
		level:           level,
		componentLevels: map[string]Level{},
		logger:          log.New(os.Stderr, "", log.LstdFlags),
	}
}

// SetLevel sets the global logger level
func SetLevel(level Level) {
	defaultLogger.level = level
}

// SetPackageLevels sets per-component level overrides.
// Keys match the [component] prefix used in log messages
// (e.g. "mpris", "clock", "api", "sse", "discovery").
func SetPackageLevels(levels map[string]Level) {
	defaultLogger.componentLevels = levels
}

// SetOutput redirects the global logger, mainly for tests.
func SetOutput(w io.Writer) {
	defaultLogger.logger.SetOutput(w)
}

// extractComponent returns the component name from a "[component] ..." message, or "".
func extractComponent(msg string) string {
	if len(msg) < 3 || msg[0] != '[' {
		return ""
	}
	end := strings.IndexByte(msg[1:], ']')
	if end < 0 {
		return ""
	}
	return msg[1 : end+1]
}

// shouldLog checks if a message at this level should be logged,
// applying a component-specific override when the message carries a [component] prefix.
func (l *Logger) shouldLog(level Level, msg string) bool {
	if comp := extractComponent(msg); comp != "" {
		if compLevel, ok := l.componentLevels[comp]; ok {
			return level >= compLevel
		}
	}
	return level >= l.level
}

func (l *Logger) logAt(level Level, msg string, args ...interface{}) {
	if !l.shouldLog(level, msg) {
		return
	}
	l.logger.Printf("[%s] %s", levelNames[level], fmt.Sprintf(msg, args...))
}

// Debug logs a debug message
func Debug(msg string, args ...interface{}) {
	defaultLogger.logAt(DEBUG, msg, args...)
}

// Info logs an info message
func Info(msg string, args ...interface{}) {
	defaultLogger.logAt(INFO, msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...interface{}) {
	defaultLogger.logAt(WARN, msg, args...)
}

// Error logs an error message
func Error(msg string, args ...interface{}) {
	defaultLogger.logAt(ERROR, msg, args...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, args ...interface{}) {
	defaultLogger.logger.Fatalf("[%s] %s", levelNames[FATAL], fmt.Sprintf(msg, args...))
}
