package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/depreciation-forecast/internal/config"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		config    config.LoggingConfig
		override  string
		wantLevel zapcore.Level
		wantError bool
	}{
		{"defaults", config.LoggingConfig{}, "", zapcore.InfoLevel, false},
		{"console debug", config.LoggingConfig{Level: "debug", Format: "console"}, "", zapcore.DebugLevel, false},
		{"override wins", config.LoggingConfig{Level: "debug"}, "error", zapcore.ErrorLevel, false},
		{"warning alias", config.LoggingConfig{Level: "warning"}, "", zapcore.WarnLevel, false},
		{"invalid level", config.LoggingConfig{Level: "loud"}, "", zapcore.InfoLevel, true},
		{"invalid format", config.LoggingConfig{Format: "xml"}, "", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.config, tt.override)
			if tt.wantError {
				if err == nil {
					t.Errorf("NewLogger() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewLogger() error = %v", err)
			}
			if !logger.Core().Enabled(tt.wantLevel) {
				t.Errorf("expected level %s to be enabled", tt.wantLevel)
			}
			if tt.wantLevel > zapcore.DebugLevel && logger.Core().Enabled(tt.wantLevel-1) {
				t.Errorf("expected level %s to be disabled", tt.wantLevel-1)
			}
		})
	}
}

func TestNewLoggerOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "forecast.log")

	logger, err := NewLogger(config.LoggingConfig{Level: "info", OutputFile: path}, "")
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	logger.Info("projection complete")
	_ = logger.Sync()

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(contents), "projection complete") {
		t.Errorf("expected log file to contain the message, got %q", contents)
	}
}

func TestNewLoggerRotatedConsoleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	logger, err := NewLogger(config.LoggingConfig{
		Level:      "warn",
		Format:     "console",
		OutputFile: path,
		MaxSizeMB:  1,
		MaxBackups: 1,
	}, "")
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	logger.Info("hidden")
	logger.Warn("cache unavailable")
	_ = logger.Sync()

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if strings.Contains(string(contents), "hidden") {
		t.Errorf("expected info messages to be filtered, got %q", contents)
	}
	if !strings.Contains(string(contents), "cache unavailable") {
		t.Errorf("expected the warning in the log file, got %q", contents)
	}
}

func TestNewLoggerUnwritableFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0600); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	if _, err := NewLogger(config.LoggingConfig{OutputFile: filepath.Join(blocker, "app.log")}, ""); err == nil {
		t.Errorf("expected an error when the log directory is a file")
	}
}
