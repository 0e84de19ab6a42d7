package config

import (
	"testing"
	"time"
)

func TestLoad_CustomEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ENV", "production")
	t.Setenv("DATA_DIR", "/var/showcore/data")
	t.Setenv("DMX_REFRESH_RATE", "30")
	t.Setenv("MIDI_CLOCK_PPQN", "48")
	t.Setenv("MIDI_INPUT_CHANNEL", "3")
	t.Setenv("DEFAULT_MIDI_PORT", "USB MIDI")
	t.Setenv("LYRICS_READ_AHEAD_MS", "1500")
	t.Setenv("VIDEO_DRIFT_THRESHOLD_MS", "60")
	t.Setenv("NON_INTERACTIVE", "true")
	t.Setenv("CORS_ORIGIN", "http://example.com")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Errorf("Env = %q, want production", cfg.Env)
	}
	if cfg.DataDir != "/var/showcore/data" {
		t.Errorf("DataDir = %q, want /var/showcore/data", cfg.DataDir)
	}
	if cfg.DMXRefreshRate != 30 {
		t.Errorf("DMXRefreshRate = %d, want 30", cfg.DMXRefreshRate)
	}
	if cfg.MidiClockPPQN != 48 {
		t.Errorf("MidiClockPPQN = %d, want 48", cfg.MidiClockPPQN)
	}
	if cfg.MidiInputChannel != 3 {
		t.Errorf("MidiInputChannel = %d, want 3", cfg.MidiInputChannel)
	}
	if cfg.DefaultMidiPortName != "USB MIDI" {
		t.Errorf("DefaultMidiPortName = %q, want USB MIDI", cfg.DefaultMidiPortName)
	}
	if cfg.LyricsReadAhead != 1500*time.Millisecond {
		t.Errorf("LyricsReadAhead = %v, want 1500ms", cfg.LyricsReadAhead)
	}
	if cfg.VideoDriftThreshold != 60*time.Millisecond {
		t.Errorf("VideoDriftThreshold = %v, want 60ms", cfg.VideoDriftThreshold)
	}
	if !cfg.NonInteractive {
		t.Errorf("NonInteractive = false, want true")
	}
	if cfg.CORSOrigin != "http://example.com" {
		t.Errorf("CORSOrigin = %q, want http://example.com", cfg.CORSOrigin)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	if cfg.Port == "" {
		t.Error("expected a non-empty default Port")
	}
	if cfg.DMXRefreshRate != 40 {
		t.Errorf("default DMXRefreshRate = %d, want 40", cfg.DMXRefreshRate)
	}
	if cfg.MidiClockPPQN != 24 {
		t.Errorf("default MidiClockPPQN = %d, want 24", cfg.MidiClockPPQN)
	}
	if cfg.LyricsReadAhead != time.Second {
		t.Errorf("default LyricsReadAhead = %v, want 1s", cfg.LyricsReadAhead)
	}
	if cfg.VideoDriftThreshold != 40*time.Millisecond {
		t.Errorf("default VideoDriftThreshold = %v, want 40ms", cfg.VideoDriftThreshold)
	}
}

func TestIsDevelopment(t *testing.T) {
	tests := []struct {
		env      string
		expected bool
	}{
		{"development", true},
		{"production", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := &Config{Env: tt.env}
			if got := cfg.IsDevelopment(); got != tt.expected {
				t.Errorf("IsDevelopment() = %v, want %v for env '%s'", got, tt.expected, tt.env)
			}
		})
	}
}

func TestIsProduction(t *testing.T) {
	tests := []struct {
		env      string
		expected bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := &Config{Env: tt.env}
			if got := cfg.IsProduction(); got != tt.expected {
				t.Errorf("IsProduction() = %v, want %v for env '%s'", got, tt.expected, tt.env)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_GET_ENV", "custom_value")
	if result := getEnv("TEST_GET_ENV", "default"); result != "custom_value" {
		t.Errorf("getEnv() = %q, want custom_value", result)
	}
	if result := getEnv("NON_EXISTING_VAR_12345_UNIQUE", "default_value"); result != "default_value" {
		t.Errorf("getEnv() = %q, want default_value", result)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT_VAR", "42")
	if result := getEnvInt("TEST_INT_VAR", 10); result != 42 {
		t.Errorf("getEnvInt() = %d, want 42", result)
	}

	t.Setenv("TEST_INVALID_INT", "not_a_number")
	if result := getEnvInt("TEST_INVALID_INT", 10); result != 10 {
		t.Errorf("getEnvInt() with invalid value = %d, want default 10", result)
	}

	if result := getEnvInt("NON_EXISTING_INT_VAR_12345_UNIQUE", 100); result != 100 {
		t.Errorf("getEnvInt() = %d, want default 100", result)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		expected     bool
		setEnv       bool
	}{
		{"true_string", "true", false, true, true},
		{"false_string", "false", true, false, true},
		{"1_string", "1", false, true, true},
		{"0_string", "0", true, false, true},
		{"invalid_string_returns_default", "invalid", true, true, true},
		{"non_existing_returns_default_true", "", true, true, false},
		{"non_existing_returns_default_false", "", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envKey := "TEST_BOOL_VAR_" + tt.name + "_UNIQUE"
			if tt.setEnv {
				t.Setenv(envKey, tt.envValue)
			}
			if result := getEnvBool(envKey, tt.defaultValue); result != tt.expected {
				t.Errorf("getEnvBool(%s, %v) = %v, want %v", envKey, tt.defaultValue, result, tt.expected)
			}
		})
	}
}
