package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.MaxImages != 5 {
		t.Errorf("Expected MaxImages=5, got %d", cfg.MaxImages)
	}
	if cfg.TransitionDuration != 500*time.Millisecond {
		t.Errorf("Expected 500ms transition, got %s", cfg.TransitionDuration)
	}
	if cfg.AutoAdvanceInterval != 5*time.Second {
		t.Errorf("Expected 5s auto-advance, got %s", cfg.AutoAdvanceInterval)
	}

	v := cfg.Validator()
	if v.MaxImages != 5 || v.MaxSizeBytes != 2*1024*1024 {
		t.Errorf("Unexpected validator %+v", v)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KEEPSAKE_MAX_IMAGES", "8")
	t.Setenv("KEEPSAKE_MAX_SIZE_MB", "0.5")
	t.Setenv("KEEPSAKE_AUTO_ADVANCE", "3s")
	t.Setenv("KEEPSAKE_REDUCE_MOTION", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxImages != 8 || !cfg.ReduceMotion {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if got := cfg.Validator().MaxSizeBytes; got != 512*1024 {
		t.Errorf("Expected 512KiB, got %d", got)
	}
	if got := cfg.CarouselOptions().AutoAdvanceInterval; got != 3*time.Second {
		t.Errorf("Expected 3s, got %s", got)
	}
	if l, _ := ParseLevel(cfg.LogLevel); l != slog.LevelDebug {
		t.Errorf("Expected debug level, got %v", l)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero images", mutate: func(c *Config) { c.MaxImages = 0 }},
		{name: "negative size", mutate: func(c *Config) { c.MaxSizeMB = -1 }},
		{name: "transition longer than interval", mutate: func(c *Config) { c.TransitionDuration = 10 * time.Second }},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }},
		{name: "bare handle prefix", mutate: func(c *Config) { c.HandlePrefix = "blob" }},
		{name: "unknown provider", mutate: func(c *Config) { c.CaptionProvider = "magic" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
