// Package logger provides the structured logging facade used across the
// service layer, backed by zap.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a sugared zap logger with the component field pre-applied.
type Logger struct {
	s *zap.SugaredLogger
}

// New creates a logger for the given component at the given level.
func New(component string, level zapcore.Level) *Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	base, err := cfg.Build()
	if err != nil {
		base = zap.NewNop()
	}
	return &Logger{s: base.Sugar().With("component", component)}
}

// NewDefault creates an info-level logger for the given component.
func NewDefault(component string) *Logger {
	return New(component, zapcore.InfoLevel)
}

// NewNop returns a logger that discards everything. Useful in tests.
func NewNop() *Logger {
	return &Logger{s: zap.NewNop().Sugar()}
}

// WithField returns a logger with an extra structured field.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{s: l.s.With(key, value)}
}

// WithError returns a logger with the error attached under "err".
func (l *Logger) WithError(err error) *Logger {
	return &Logger{s: l.s.With("err", err)}
}

func (l *Logger) Debug(msg string) { l.s.Debug(msg) }
func (l *Logger) Info(msg string)  { l.s.Info(msg) }
func (l *Logger) Warn(msg string)  { l.s.Warn(msg) }
func (l *Logger) Error(msg string) { l.s.Error(msg) }

// Sync flushes buffered log entries.
func (l *Logger) Sync() { _ = l.s.Sync() }
