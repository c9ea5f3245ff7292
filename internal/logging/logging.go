// Package logging builds the zap loggers used by the CLI and the API server.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iwvelando/depreciation-forecast/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for file output.
const (
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 3
	defaultMaxAgeDays = 28
)

// NewLogger creates a zap logger based on configuration and an optional level override.
func NewLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// CLI override takes precedence
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	zapLevel, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
	case "json":
		zapConfig = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)

	if loggingConfig.OutputFile == "" {
		return zapConfig.Build()
	}

	if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
		}
	}

	// Test if we can create/write to the file
	file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
	}
	_ = file.Close()

	rotator := &lumberjack.Logger{
		Filename:   loggingConfig.OutputFile,
		MaxSize:    valueOr(loggingConfig.MaxSizeMB, defaultMaxSizeMB),
		MaxBackups: valueOr(loggingConfig.MaxBackups, defaultMaxBackups),
		MaxAge:     valueOr(loggingConfig.MaxAgeDays, defaultMaxAgeDays),
	}

	var encoder zapcore.Encoder
	if format == "console" {
		encoder = zapcore.NewConsoleEncoder(zapConfig.EncoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(zapConfig.EncoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(rotator), zapConfig.Level)
	return zap.New(core, zap.AddCaller(), zap.ErrorOutput(zapcore.AddSync(rotator))), nil
}

func parseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s", level)
}

func valueOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
