package config

import (
	"io"

	"github.com/ausocean/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig configures NewLogger's lumberjack file rotation, mirroring the
// teacher's cmd/rv invocation.
type LogConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Level      int8
	Suppress   bool
}

// DefaultLogConfig returns the rotation settings the teacher's cmd/rv uses.
func DefaultLogConfig(path string) LogConfig {
	return LogConfig{
		Path:       path,
		MaxSizeMB:  500,
		MaxBackups: 10,
		MaxAgeDays: 28,
		Level:      logging.Info,
		Suppress:   true,
	}
}

// NewLogger builds a logging.Logger backed by a rotating lumberjack file,
// the same pattern the teacher's command-line entry points use to wire
// logging.New.
func NewLogger(cfg LogConfig) logging.Logger {
	fileLog := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
	return logging.New(cfg.Level, io.Writer(fileLog), cfg.Suppress)
}
