package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	"github.com/evanschultz/taskdeck/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// runtimeLogger fans log events to a styled console sink and an optional rotating file sink.
type runtimeLogger struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
	filePath       string
}

// newRuntimeLogger configures runtime log sinks from CLI/config state.
func newRuntimeLogger(stderr io.Writer, appName string, cfg config.LoggingConfig, defaultDir string) (*runtimeLogger, error) {
	level, err := charmLog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}
	if stderr == nil {
		stderr = io.Discard
	}

	consoleLogger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})

	logger := &runtimeLogger{
		sinks:          []*charmLog.Logger{consoleLogger},
		consoleSink:    consoleLogger,
		consoleEnabled: true,
	}
	if !cfg.File.Enabled {
		return logger, nil
	}

	dir := strings.TrimSpace(cfg.File.Dir)
	if dir == "" {
		dir = defaultDir
	}
	if dir == "" {
		return nil, fmt.Errorf("logging.file.dir is required when file logging is enabled")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(dir, sanitizeLogFileStem(appName)+".log")
	rotating := &lumberjack.Logger{
		Filename: path,
		MaxSize:  cfg.File.MaxSizeMB,
		MaxAge:   cfg.File.MaxAgeDays,
		Compress: false,
	}

	// File output stays unstyled logfmt.
	fileLogger := charmLog.NewWithOptions(rotating, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.sinks = append(logger.sinks, fileLogger)
	logger.closeFile = rotating.Close
	logger.filePath = path
	return logger, nil
}

// FilePath returns the active log file path.
func (l *runtimeLogger) FilePath() string {
	if l == nil {
		return ""
	}
	return l.filePath
}

// Close closes the optional file sink.
func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	return l.closeFile()
}

// SetConsoleEnabled toggles whether the console sink receives runtime events.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.consoleEnabled = enabled
}

// shouldLogToSink reports whether one sink should receive runtime output.
func (l *runtimeLogger) shouldLogToSink(sink *charmLog.Logger) bool {
	if l == nil || sink == nil {
		return false
	}
	return sink != l.consoleSink || l.consoleEnabled
}

// Debug logs a debug event to all configured sinks.
func (l *runtimeLogger) Debug(msg string, keyvals ...any) {
	l.each(func(sink *charmLog.Logger) { sink.Debug(msg, keyvals...) })
}

// Info logs an informational event to all configured sinks.
func (l *runtimeLogger) Info(msg string, keyvals ...any) {
	l.each(func(sink *charmLog.Logger) { sink.Info(msg, keyvals...) })
}

// Warn logs a warning event to all configured sinks.
func (l *runtimeLogger) Warn(msg string, keyvals ...any) {
	l.each(func(sink *charmLog.Logger) { sink.Warn(msg, keyvals...) })
}

// Error logs an error event to all configured sinks.
func (l *runtimeLogger) Error(msg string, keyvals ...any) {
	l.each(func(sink *charmLog.Logger) { sink.Error(msg, keyvals...) })
}

func (l *runtimeLogger) each(fn func(*charmLog.Logger)) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if l.shouldLogToSink(sink) {
			fn(sink)
		}
	}
}

// sanitizeLogFileStem normalizes app names into safe file-name segments.
func sanitizeLogFileStem(appName string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "-")
	stem := strings.Trim(replacer.Replace(strings.TrimSpace(appName)), "-")
	if stem == "" {
		return "taskdeck"
	}
	return stem
}
