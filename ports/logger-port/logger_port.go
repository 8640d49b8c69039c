package loggerport

// Logger is a structured logger for diagnostics. Arguments after msg are
// alternating keys and values.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// With returns a logger that adds the given key-value pairs to every
	// entry.
	With(args ...interface{}) Logger
}
