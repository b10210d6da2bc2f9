package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
		wantErr  bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"DEBUG", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"dpanic", zapcore.DPanicLevel, false},
		{"panic", zapcore.PanicLevel, false},
		{"fatal", zapcore.FatalLevel, false},
		{"invalid", zapcore.InfoLevel, true},
		{"", zapcore.InfoLevel, true},
		{"  info  ", zapcore.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if !tt.wantErr && level != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, level, tt.expected)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != "info" {
		t.Errorf("expected Level = info, got %s", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("expected Format = json, got %s", cfg.Format)
	}
	if cfg.Environment != "development" {
		t.Errorf("expected Environment = development, got %s", cfg.Environment)
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("nil config uses defaults", func(t *testing.T) {
		logger, err := New(nil)
		if err != nil {
			t.Fatalf("New(nil) error = %v", err)
		}
		if logger == nil {
			t.Fatal("expected logger to be non-nil")
		}
		if logger.AtomicLevel().Level() != zapcore.InfoLevel {
			t.Errorf("expected info level, got %s", logger.AtomicLevel().Level())
		}
	})

	t.Run("custom config", func(t *testing.T) {
		cfg := &Config{
			Level:       "debug",
			Format:      "console",
			Environment: "production",
		}
		logger, err := New(cfg)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if logger.AtomicLevel().Level() != zapcore.DebugLevel {
			t.Errorf("expected debug level, got %s", logger.AtomicLevel().Level())
		}
	})

	t.Run("invalid level returns error", func(t *testing.T) {
		cfg := &Config{
			Level: "invalid",
		}
		_, err := New(cfg)
		if err == nil {
			t.Error("expected error for invalid level")
		}
	})
}

func TestLogger_Zap(t *testing.T) {
	logger, _ := New(&Config{Level: "info"})
	if logger.Zap() == nil {
		t.Error("expected Zap() to return non-nil")
	}
}

func TestLogger_AtomicLevel(t *testing.T) {
	logger, _ := New(&Config{Level: "info"})
	level := logger.AtomicLevel()

	// The admin log-level endpoint flips this at runtime; a raised level
	// must take effect on the shared logger.
	level.SetLevel(zapcore.DebugLevel)
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug to be enabled after atomic level change")
	}
}
