package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/b0bbywan/go-mpris-hub/logger"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected logger.Level
	}{
		{"debug", logger.DEBUG},
		{"DEBUG", logger.DEBUG},
		{"Debug", logger.DEBUG},
		{"info", logger.INFO},
		{"INFO", logger.INFO},
		{"warn", logger.WARN},
		{"WARN", logger.WARN},
		{"error", logger.ERROR},
		{"ERROR", logger.ERROR},
		{"fatal", logger.FATAL},
		{"FATAL", logger.FATAL},
		{"unknown", logger.WARN}, // default
		{"", logger.WARN},        // default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseLogLevel(tt.input)
			if result != tt.expected {
				t.Errorf("parseLogLevel(%q) = %d, want %d", tt.input, result, tt.expected)
			}
		})
	}
}

func TestConfigStructFields(t *testing.T) {
	cfg := &Config{
		Api:      &ApiConfig{Enabled: true, Port: 8080},
		MPRIS:    &MPRISConfig{Enabled: true},
		Zeroconf: &ZeroConfig{},
		LogLevel: logger.INFO,
	}

	if cfg.Api.Port != 8080 {
		t.Errorf("Api.Port = %d, want 8080", cfg.Api.Port)
	}
	if cfg.LogLevel != logger.INFO {
		t.Errorf("LogLevel = %d, want %d", cfg.LogLevel, logger.INFO)
	}
	if !cfg.MPRIS.Enabled {
		t.Error("MPRIS.Enabled should be true")
	}
}

func TestMPRISConfigClockDefaults(t *testing.T) {
	cfg := MPRISConfig{
		DriftThreshold:    2 * time.Second,
		ResyncInterval:    2 * time.Second,
		ResumeGuard:       100 * time.Millisecond,
		SeekSuppression:   500 * time.Millisecond,
		HeartbeatInterval: 2 * time.Second,
	}
	if cfg.DriftThreshold != 2*time.Second {
		t.Errorf("DriftThreshold = %v, want 2s", cfg.DriftThreshold)
	}
	if cfg.SeekSuppression != 500*time.Millisecond {
		t.Errorf("SeekSuppression = %v, want 500ms", cfg.SeekSuppression)
	}
}

func TestPackageLevels(t *testing.T) {
	viper.Set("log_levels", map[string]string{
		"clock": "debug",
		"sse":   "ERROR",
	})
	defer viper.Set("log_levels", nil)

	levels := packageLevels()
	if levels["clock"] != logger.DEBUG {
		t.Errorf("levels[clock] = %d, want DEBUG", levels["clock"])
	}
	if levels["sse"] != logger.ERROR {
		t.Errorf("levels[sse] = %d, want ERROR", levels["sse"])
	}
}

func TestPackageLevelsEmpty(t *testing.T) {
	viper.Set("log_levels", nil)
	if levels := packageLevels(); levels != nil {
		t.Errorf("packageLevels() = %v, want nil when unset", levels)
	}
}

func BenchmarkParseLogLevel(b *testing.B) {
	for i := 0; i < b.N; i++ {
		parseLogLevel("DEBUG")
	}
}
