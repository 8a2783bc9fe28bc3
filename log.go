package goshape

// Logger receives debug output from registries and caches: schema
// registration, shape synthesis and synthesis failures.
type Logger interface {
	Debugf(format string, args ...any)
}

// LoggerFunc adapts a printf-style function to Logger.
type LoggerFunc func(format string, args ...any)

func (f LoggerFunc) Debugf(format string, args ...any) { f(format, args...) }

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
