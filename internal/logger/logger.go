package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/KyungWonPark/Connectome/internal/errors"
)

// New builds a production zap logger writing to stderr at the given level
// (debug, info, warn or error). Extra output paths (files) are appended.
func New(level string, outputPaths ...string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.Wrap(err, errors.Config, "logger", "unknown log level %q", level)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level.SetLevel(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = append([]string{"stderr"}, outputPaths...)

	return cfg.Build()
}
