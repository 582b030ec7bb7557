// Package logger provides logging for refactoring runs.
//
// Loggers are thread-safe, prefix lines with [HH:MM:SS] timestamps, filter
// by level, and colorize output when writing to a terminal.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// Logger is the logging surface the agent loop and plan runner write to.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogTaskStart(taskType, description string)
	LogTaskComplete(taskType string, success bool, duration time.Duration)
}

// ConsoleLogger writes timestamped, optionally colorized log lines to a
// writer. A nil writer silently discards everything.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger writing to w at the given level.
// Valid levels: trace, debug, info, warn, error (case-insensitive); empty or
// invalid levels default to info. Color is enabled only for TTY stdout/stderr.
func NewConsoleLogger(w io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      w,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(w),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || (f != os.Stdout && f != os.Stderr) {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel lowercases and validates a level, defaulting to info.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

// logLevelToInt converts a level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// shouldLog returns true if messageLevel >= the configured level.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LogTrace logs a trace-level message.
// Format: "[HH:MM:SS] [TRACE] <message>"
func (cl *ConsoleLogger) LogTrace(message string) { cl.logWithLevel("TRACE", message) }

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) { cl.logWithLevel("DEBUG", message) }

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) { cl.logWithLevel("INFO", message) }

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) { cl.logWithLevel("WARN", message) }

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) { cl.logWithLevel("ERROR", message) }

// LogTaskStart logs the start of a refactoring task at INFO level.
// Format: "[HH:MM:SS] Starting <type>: <description>"
func (cl *ConsoleLogger) LogTaskStart(taskType, description string) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	name := taskType
	if cl.colorOutput {
		name = color.New(color.Bold).Sprint(taskType)
	}
	fmt.Fprintf(cl.writer, "[%s] Starting %s: %s\n", timestamp(), name, description)
}

// LogTaskComplete logs the outcome of a refactoring task at INFO level.
// Format: "[HH:MM:SS] <type> completed|failed (<duration>)"
func (cl *ConsoleLogger) LogTaskComplete(taskType string, success bool, duration time.Duration) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	verdict := "completed"
	if !success {
		verdict = "failed"
	}
	if cl.colorOutput {
		if success {
			verdict = color.New(color.FgGreen).Sprint(verdict)
		} else {
			verdict = color.New(color.FgRed).Sprint(verdict)
		}
		taskType = color.New(color.Bold).Sprint(taskType)
	}
	fmt.Fprintf(cl.writer, "[%s] %s %s (%s)\n", timestamp(), taskType, verdict, formatDuration(duration))
}

// logWithLevel writes one leveled line if filtering allows it.
func (cl *ConsoleLogger) logWithLevel(level, message string) {
	if cl.writer == nil || !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	label := level
	if cl.colorOutput {
		label = colorizeLevel(level)
	}
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", timestamp(), label, message)
}

// colorizeLevel wraps a level label in its ANSI color.
func colorizeLevel(level string) string {
	switch level {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	}
	return level
}

// timestamp returns the current time as HH:MM:SS.
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration renders a duration compactly (1.2s, 3m45s, 1h02m).
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// NoOpLogger discards all log output. Useful as a default and in tests.
type NoOpLogger struct{}

// LogTrace implements Logger.
func (NoOpLogger) LogTrace(string) {}

// LogDebug implements Logger.
func (NoOpLogger) LogDebug(string) {}

// LogInfo implements Logger.
func (NoOpLogger) LogInfo(string) {}

// LogWarn implements Logger.
func (NoOpLogger) LogWarn(string) {}

// LogError implements Logger.
func (NoOpLogger) LogError(string) {}

// LogTaskStart implements Logger.
func (NoOpLogger) LogTaskStart(string, string) {}

// LogTaskComplete implements Logger.
func (NoOpLogger) LogTaskComplete(string, bool, time.Duration) {}
