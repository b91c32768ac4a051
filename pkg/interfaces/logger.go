// Package interfaces holds the contracts host applications implement to plug
// their own infrastructure into the delivery runtime.
package interfaces

import "context"

// Logger is the leveled logger used across the delivery pipeline. Its method
// set matches github.com/goliatone/go-logger.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// LoggerProvider hands out loggers named after a delivery module such as
// "delivery.source".
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// FieldsLogger is implemented by loggers that can carry structured fields.
type FieldsLogger interface {
	WithFields(fields map[string]any) Logger
}

// Flusher is implemented by providers that buffer entries and need flushing
// on shutdown.
type Flusher interface {
	Sync() error
}
