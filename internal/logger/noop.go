package logger

// NoopLogger discards all log output. Used in tests.
type NoopLogger struct{}

// NewNoop returns a logger that does nothing.
func NewNoop() Interface {
	return &NoopLogger{}
}

// Debug does nothing.
func (l *NoopLogger) Debug(_ string, _ ...any) {}

// Info does nothing.
func (l *NoopLogger) Info(_ string, _ ...any) {}

// Warn does nothing.
func (l *NoopLogger) Warn(_ string, _ ...any) {}

// Error does nothing.
func (l *NoopLogger) Error(_ string, _ ...any) {}

// Fatal does nothing.
func (l *NoopLogger) Fatal(_ string, _ ...any) {}

// With returns the same noop logger.
func (l *NoopLogger) With(_ ...any) Interface { return l }
