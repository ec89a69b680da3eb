// Package logger - Structured logging for the subject locator on top of zap.
package logger

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger writes leveled entries with alternating key/value context.
type Logger struct {
	sugar *zap.SugaredLogger
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn or error.
	Level string `json:"level" yaml:"level"`
	// Format is console or json.
	Format string `json:"format" yaml:"format"`
	// Output is stderr, stdout or a file path.
	Output string `json:"output" yaml:"output"`
}

// Formats lists the accepted LogConfig.Format values.
var Formats = []string{"console", "json"}

// New creates a logger from cfg.
//
// An unparsable level falls back to info. Output defaults to stderr so that stdout only
// carries rendered results.
//
// Arguments:
//   - cfg: The logging configuration.
//
// Returns:
//   - *Logger: The logger.
//   - error: An error if the output cannot be opened.
func New(cfg LogConfig) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewDevelopmentConfig()
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	}
	zc.Development = false
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	output := cfg.Output
	if output == "" {
		output = "stderr"
	}
	zc.OutputPaths = []string{output}
	zc.ErrorOutputPaths = []string{output}

	zl, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build logger for output %q", output)
	}
	return Wrap(zl), nil
}

// Wrap adapts an existing zap logger, such as an observer core in tests.
func Wrap(l *zap.Logger) *Logger {
	return &Logger{sugar: l.Sugar()}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	return Wrap(zap.NewNop())
}

// Sync flushes buffered entries. Sync errors on terminals are ignored.
func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}

// WithFields returns a child logger that adds keysAndValues to every entry.
func (l *Logger) WithFields(keysAndValues ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}
