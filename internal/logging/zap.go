// Package logging builds the process logger. Diagnostics go to stderr so
// transcript output and progress rendering on stdout stay machine-readable.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects verbosity and encoding for the process logger.
type Options struct {
	Verbose bool
	JSON    bool
}

// New builds a stderr logger. The default console encoding drops timestamps
// and caller sites because operators read it interleaved with pipeline
// output; JSON keeps the full production encoding for log collectors.
func New(opts Options) (*zap.Logger, error) {
	cfg := consoleConfig()
	if opts.JSON {
		cfg = zap.NewProductionConfig()
	}

	cfg.Level = zap.NewAtomicLevelAt(levelFor(opts))
	cfg.DisableStacktrace = !opts.Verbose
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func consoleConfig() zap.Config {
	cfg := zap.NewDevelopmentConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = ""
	cfg.EncoderConfig.EncodeCaller = nil
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg
}

func levelFor(opts Options) zapcore.Level {
	if opts.Verbose {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}
