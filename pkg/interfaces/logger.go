package interfaces

import "context"

// Logger is the leveled, structured logger every bulk component writes to.
// Arguments after msg are alternating key/value pairs.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	// WithFields returns a child logger that attaches fields to every entry.
	WithFields(fields map[string]any) Logger
	WithContext(ctx context.Context) Logger
}

// LoggerProvider hands out loggers by dotted module name, e.g. "bulk.executor".
type LoggerProvider interface {
	GetLogger(name string) Logger
}
