package commands

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/diogo/techsolve/internal/config"
)

// newLogger builds a console-encoded zap logger writing to the given sinks.
func newLogger(level zapcore.Level, sinks ...string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	cfg.Sampling = nil
	cfg.OutputPaths = sinks
	cfg.ErrorOutputPaths = sinks
	cfg.Level = zap.NewAtomicLevelAt(level)

	return cfg.Build()
}

// newStderrLogger is used by one-shot commands. Without verbose only
// warnings and errors reach the terminal.
func newStderrLogger(verbose bool) (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	return newLogger(level, "stderr")
}

// newFileLogger logs to the configuration directory so the chat TUI's
// alternate screen is left untouched.
func newFileLogger(verbose bool) (*zap.Logger, error) {
	path, err := config.GetLogPath()
	if err != nil {
		return nil, err
	}
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	return newLogger(level, path)
}
