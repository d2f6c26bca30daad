// Package logger provides the process-wide structured logger.
//
// It is a thin shim over log/slog. New code should prefer injecting a
// *slog.Logger; use Get to obtain the underlying logger for injection.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// singleton is the package-level logger created by Init.
// Accessed atomically so it is safe to swap from tests.
var singleton atomic.Pointer[slog.Logger]

func init() {
	// Default logger so callers that skip Init() don't panic.
	singleton.Store(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
}

// Init configures the singleton from the LOG_LEVEL environment variable
// (debug, info, warn, error; default info).
func Init() {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	singleton.Store(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))
}

func get() *slog.Logger {
	return singleton.Load()
}

// Get returns the underlying *slog.Logger for injection into structs.
func Get() *slog.Logger {
	return get()
}

// Set replaces the singleton logger. Intended for tests that capture output.
func Set(l *slog.Logger) {
	singleton.Store(l)
}

// Debugw logs at debug level with additional key-value pairs.
func Debugw(msg string, keysAndValues ...any) {
	get().Debug(msg, keysAndValues...)
}

// Info logs a message at info level.
func Info(msg string) {
	get().Info(msg)
}

// Infow logs at info level with additional key-value pairs.
func Infow(msg string, keysAndValues ...any) {
	get().Info(msg, keysAndValues...)
}

// Warnw logs at warning level with additional key-value pairs.
func Warnw(msg string, keysAndValues ...any) {
	get().Warn(msg, keysAndValues...)
}

// Errorw logs at error level with additional key-value pairs.
func Errorw(msg string, keysAndValues ...any) {
	get().Error(msg, keysAndValues...)
}

// Fatalw logs at error level and exits the process.
func Fatalw(msg string, keysAndValues ...any) {
	get().Error(msg, keysAndValues...)
	os.Exit(1)
}

// Infof logs a formatted message at info level.
func Infof(msg string, args ...any) {
	get().Info(fmt.Sprintf(msg, args...))
}
