// Package logging wraps log/slog with the domain-specific helpers the
// geofence engine, trip coordinator, and ingress dispatcher log through.
// Structure and convenience-function shape follow
// internal/common/logging/logger.go.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel is the configured minimum severity.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Config configures a Logger.
type Config struct {
	Level     LogLevel
	Format    string // "json" or "text"
	Output    io.Writer
	AddSource bool
}

// DefaultConfig returns the production default: info level, JSON, stdout.
func DefaultConfig() *Config {
	return &Config{
		Level:     LevelInfo,
		Format:    "json",
		Output:    os.Stdout,
		AddSource: true,
	}
}

// Logger wraps slog.Logger with domain-specific log helpers.
type Logger struct {
	*slog.Logger
}

// New creates a structured logger from cfg (DefaultConfig() if nil).
func New(cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var level slog.Level
	switch cfg.Level {
	case LevelDebug:
		level = slog.LevelDebug
	case LevelWarn:
		level = slog.LevelWarn
	case LevelError:
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithFields returns a logger with additional persistent fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.Logger.With(args...)}
}

// LogGeofenceEvent logs a single audit-log-worthy geofence evaluation
// outcome: the event kind, the trip/vehicle it belongs to, and position.
func (l *Logger) LogGeofenceEvent(eventType, tripID, vehicleID string, lat, lon float64) {
	l.Info("geofence event",
		"event_type", eventType,
		"trip_id", tripID,
		"vehicle_id", vehicleID,
		"lat", lat,
		"lon", lon,
	)
}

// LogTripTransition logs a trip status change.
func (l *Logger) LogTripTransition(tripID, from, to string) {
	l.Info("trip transition",
		"trip_id", tripID,
		"from_status", from,
		"to_status", to,
	)
}

// LogIngressBatch logs the outcome of one batch ingestion call.
func (l *Logger) LogIngressBatch(batchSize, accepted, rejected int, duration time.Duration) {
	l.Info("ingress batch processed",
		"batch_size", batchSize,
		"accepted", accepted,
		"rejected", rejected,
		"duration", duration,
	)
}

// LogError logs an error alongside free-form fields.
func (l *Logger) LogError(err error, message string, fields map[string]interface{}) {
	args := []interface{}{"error", err}
	for k, v := range fields {
		args = append(args, k, v)
	}
	l.Error(message, args...)
}

// Global logger instance, mirroring the teacher's package-level convenience
// functions so packages that don't carry their own *Logger reference can
// still log consistently.
var defaultLogger *Logger

// Init installs the global logger.
func Init(cfg *Config) {
	defaultLogger = New(cfg)
}

// Default returns the global logger, lazily creating one on first use.
func Default() *Logger {
	if defaultLogger == nil {
		defaultLogger = New(DefaultConfig())
	}
	return defaultLogger
}
