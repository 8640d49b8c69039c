package zaploggeradapter

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	loggerport "github.com/chitacloud/droidflash/ports/logger-port"
)

var _ loggerport.Logger = (*ZapLogger)(nil)

// ZapLogger implements loggerport.Logger using a zap SugaredLogger.
type ZapLogger struct {
	logger *zap.SugaredLogger
}

// New builds a logger at the given level. format is "console" or "json".
func New(level, format string) (*ZapLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console", "":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return &ZapLogger{logger: logger.Sugar()}, nil
}

// Wrap adapts an existing zap logger.
func Wrap(l *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: l.Sugar()}
}

// NewNop returns a logger that discards everything.
func NewNop() *ZapLogger {
	return Wrap(zap.NewNop())
}

// OrNop returns l, or a no-op logger if l is nil.
func OrNop(l loggerport.Logger) loggerport.Logger {
	if l == nil {
		return NewNop()
	}
	return l
}

// Debug implements Logger.Debug
func (l *ZapLogger) Debug(msg string, args ...interface{}) {
	l.logger.Debugw(msg, args...)
}

// Info implements Logger.Info
func (l *ZapLogger) Info(msg string, args ...interface{}) {
	l.logger.Infow(msg, args...)
}

// Warn implements Logger.Warn
func (l *ZapLogger) Warn(msg string, args ...interface{}) {
	l.logger.Warnw(msg, args...)
}

// Error implements Logger.Error
func (l *ZapLogger) Error(msg string, args ...interface{}) {
	l.logger.Errorw(msg, args...)
}

// With implements Logger.With
func (l *ZapLogger) With(args ...interface{}) loggerport.Logger {
	return &ZapLogger{logger: l.logger.With(args...)}
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}
