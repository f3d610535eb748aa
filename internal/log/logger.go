// Package log builds the zap loggers used by the server & CLI.
package log

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/qri-io/deepdiff-mcp/internal/config"
)

// New creates a logger writing to stderr. stdout is left alone because the
// stdio MCP transport owns it. when cfg.File is set, a rotating JSON log file
// receives a copy of every entry
func New(cfg config.Log) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var logCfg zap.Config
	if cfg.Format == "json" {
		logCfg = zap.NewProductionConfig()
	} else {
		logCfg = zap.NewDevelopmentConfig()
		logCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	logCfg.Level = zap.NewAtomicLevelAt(level)
	logCfg.OutputPaths = []string{"stderr"}
	logCfg.ErrorOutputPaths = []string{"stderr"}
	logCfg.DisableStacktrace = level != zapcore.DebugLevel
	if level != zapcore.DebugLevel {
		logCfg.EncoderConfig.EncodeCaller = nil
	}

	logger, err := logCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build config for logger: %w", err)
	}
	if cfg.File == "" {
		return logger, nil
	}

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			LocalTime:  true,
		}),
		logCfg.Level,
	)
	return logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	})), nil
}

// LogError logs err at error level, unless it's a cancellation. errors are
// logged once, where they leave the program
func LogError(logger *zap.Logger, err error, msg string, fields ...zap.Field) {
	if errors.Is(err, context.Canceled) {
		return
	}
	logger.Error(msg, append(fields, zap.Error(err))...)
}
