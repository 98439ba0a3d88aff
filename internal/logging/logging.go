// Package logging builds the application logger. The TUI owns stdout
// and stderr while running, so all logs are written to a file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nhle/tasktracker/internal/config"
)

// New creates a sugared zap logger writing to the configured file.
func New(cfg config.LogConfig) (*zap.SugaredLogger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	if dir := filepath.Dir(cfg.File); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory %s: %w", dir, err)
		}
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.OutputPaths = []string{cfg.File}
	zapConfig.ErrorOutputPaths = []string{cfg.File}
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	return logger.Sugar(), nil
}

// Nop returns a logger that discards everything. Used by tests and by
// commands that have no log file configured.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
