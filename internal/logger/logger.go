package logger

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kozaktomas/capture-kit/internal/config"
)

// New returns a zap logger for cfg. Development mode uses the human-readable
// console encoder; otherwise JSON production output is used. The level applies
// to both.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level := cfg.Level
	if level == "" {
		level = "info"
	}
	atomic, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = atomic

	return zcfg.Build()
}
