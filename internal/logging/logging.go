// Package logging configures the process-wide structured logger. The daemon
// writes to a log file inside the data directory; before Initialize is
// called the logger is a no-op so library code can log unconditionally.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.SugaredLogger = zap.NewNop().Sugar()

// Initialize sets up the global logger writing to logPath at the given
// level (debug, info, warn, or error).
func Initialize(logPath, level string) error {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	cfg.OutputPaths = []string{logPath}
	cfg.ErrorOutputPaths = []string{logPath}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	log = logger.Sugar()
	return nil
}

// InitializeConsole routes logs to stderr, for foreground runs and tests.
func InitializeConsole(level string) error {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	log = logger.Sugar()
	return nil
}

// Sync flushes buffered log records. Safe to call on shutdown.
func Sync() {
	_ = log.Sync()
}

// Debugw logs a debug message with key-value pairs.
func Debugw(msg string, keysAndValues ...any) { log.Debugw(msg, keysAndValues...) }

// Infow logs an info message with key-value pairs.
func Infow(msg string, keysAndValues ...any) { log.Infow(msg, keysAndValues...) }

// Warnw logs a warning with key-value pairs.
func Warnw(msg string, keysAndValues ...any) { log.Warnw(msg, keysAndValues...) }

// Errorw logs an error with key-value pairs.
func Errorw(msg string, keysAndValues ...any) { log.Errorw(msg, keysAndValues...) }
