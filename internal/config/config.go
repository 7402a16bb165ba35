// Package config reads keepsake settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/keepsake-app/keepsake/internal/carousel"
	"github.com/keepsake-app/keepsake/internal/ingest"
	"github.com/keepsake-app/keepsake/internal/motion"
)

type Config struct {
	MaxImages int     `env:"KEEPSAKE_MAX_IMAGES" envDefault:"5"`
	MaxSizeMB float64 `env:"KEEPSAKE_MAX_SIZE_MB" envDefault:"2"`

	TransitionDuration  time.Duration `env:"KEEPSAKE_TRANSITION" envDefault:"500ms"`
	AutoAdvanceInterval time.Duration `env:"KEEPSAKE_AUTO_ADVANCE" envDefault:"5s"`
	MotionDelay         time.Duration `env:"KEEPSAKE_MOTION_DELAY" envDefault:"100ms"`
	ReduceMotion        bool          `env:"KEEPSAKE_REDUCE_MOTION"`

	HandlePrefix string `env:"KEEPSAKE_HANDLE_PREFIX" envDefault:"/blob/"`

	CaptionProvider string `env:"CAPTION_PROVIDER"`
	CaptionModel    string `env:"CAPTION_MODEL"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.MaxImages < 1 {
		return fmt.Errorf("KEEPSAKE_MAX_IMAGES must be at least 1, got %d", c.MaxImages)
	}
	if c.MaxSizeMB <= 0 {
		return fmt.Errorf("KEEPSAKE_MAX_SIZE_MB must be positive, got %g", c.MaxSizeMB)
	}
	if c.TransitionDuration <= 0 || c.AutoAdvanceInterval <= 0 || c.MotionDelay <= 0 {
		return fmt.Errorf("carousel durations must be positive")
	}
	if c.TransitionDuration >= c.AutoAdvanceInterval {
		return fmt.Errorf("KEEPSAKE_TRANSITION (%s) must be shorter than KEEPSAKE_AUTO_ADVANCE (%s)", c.TransitionDuration, c.AutoAdvanceInterval)
	}
	if !strings.HasPrefix(c.HandlePrefix, "/") || !strings.HasSuffix(c.HandlePrefix, "/") || len(c.HandlePrefix) < 3 {
		return fmt.Errorf("KEEPSAKE_HANDLE_PREFIX must look like /blob/, got %q", c.HandlePrefix)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.CaptionProvider {
	case "", "ollama", "openai", "gemini":
	default:
		return fmt.Errorf("unsupported CAPTION_PROVIDER %q", c.CaptionProvider)
	}
	return nil
}

// Validator returns the ingestion limits.
func (c *Config) Validator() ingest.Validator {
	return ingest.Validator{
		MaxImages:    c.MaxImages,
		MaxSizeBytes: int64(c.MaxSizeMB * ingest.MiB),
	}
}

// CarouselOptions returns controller timings. Clock and Rand are left to the
// caller.
func (c *Config) CarouselOptions() carousel.Options {
	return carousel.Options{
		TransitionDuration:  c.TransitionDuration,
		AutoAdvanceInterval: c.AutoAdvanceInterval,
		MotionDelay:         c.MotionDelay,
		Rand:                motion.DefaultRand(),
	}
}

func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	return l, nil
}
