package providers

import (
	"context"
)

// Request is one image description request sent to a vision model
type Request struct {
	Model       string
	Temperature float64
	Prompt      string
	Image       []byte
	MIMEType    string
}

// Provider defines the interface for a vision-capable LLM provider
type Provider interface {
	Describe(ctx context.Context, req Request) (string, error)
}
