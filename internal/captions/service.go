// Package captions asks a vision model for short alt text describing an
// uploaded photo.
package captions

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/keepsake-app/keepsake/internal/gemini"
	"github.com/keepsake-app/keepsake/internal/ollama"
	"github.com/keepsake-app/keepsake/internal/openai"
	"github.com/keepsake-app/keepsake/internal/providers"
)

// MaxAltTextLength keeps descriptions short enough for screen readers.
const MaxAltTextLength = 125

const prompt = `Describe this photo in one short sentence for use as alt text on a birthday wish page.
Mention the people, setting and mood if visible. Do not start with "Image of" or "Photo of".
Respond with the sentence only.`

type Service struct {
	provider providers.Provider
	name     string
	model    string
	timeout  time.Duration
}

// NewService returns a caption service for the named provider. An empty name
// returns nil, meaning captions are disabled.
func NewService(provider, model string) (*Service, error) {
	var p providers.Provider
	switch provider {
	case "":
		return nil, nil
	case "ollama":
		p = ollama.New()
	case "openai":
		p = openai.New()
	case "gemini":
		p = gemini.New()
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
	return newService(p, provider, model), nil
}

func newService(p providers.Provider, name, model string) *Service {
	if model == "" {
		model = defaultModel(name)
	}
	return &Service{provider: p, name: name, model: model, timeout: 30 * time.Second}
}

// Provider returns the configured provider name.
func (s *Service) Provider() string {
	return s.name
}

// AltText describes one image.
func (s *Service) AltText(ctx context.Context, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	response, err := s.provider.Describe(ctx, providers.Request{
		Model:       s.model,
		Temperature: 0.2,
		Prompt:      prompt,
		Image:       data,
		MIMEType:    contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe image with %s: %w", s.name, err)
	}

	alt := cleanAltText(response)
	if alt == "" {
		return "", fmt.Errorf("%s returned an empty description", s.name)
	}
	slog.Debug("Generated alt text", "provider", s.name, "model", s.model, "duration", time.Since(start), "alt", alt)
	return alt, nil
}

func defaultModel(provider string) string {
	switch provider {
	case "openai":
		model := os.Getenv("OPENAI_MODEL")
		if model == "" {
			return "gpt-4o-mini"
		}
		return model
	case "ollama":
		model := os.Getenv("OLLAMA_MODEL")
		if model == "" {
			return "llava:7b"
		}
		return model
	case "gemini":
		model := os.Getenv("GEMINI_MODEL")
		if model == "" {
			return "gemini-1.5-flash"
		}
		return model
	default:
		return ""
	}
}

// cleanAltText keeps the first line, drops wrapping quotes and clamps length.
func cleanAltText(response string) string {
	response = strings.TrimSpace(response)
	if i := strings.IndexByte(response, '\n'); i != -1 {
		response = strings.TrimSpace(response[:i])
	}
	response = strings.Trim(response, "\"'`")
	response = strings.TrimSpace(response)

	runes := []rune(response)
	if len(runes) > MaxAltTextLength {
		cut := string(runes[:MaxAltTextLength])
		if i := strings.LastIndexByte(cut, ' '); i > MaxAltTextLength/2 {
			cut = cut[:i]
		}
		response = strings.TrimRight(cut, " ,;:") + "…"
	}
	return response
}
