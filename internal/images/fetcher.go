package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/keepsake-app/keepsake/internal/ingest"
)

// Fetcher turns remote image URLs into ingestion candidates
type Fetcher struct {
	HTTPClient *http.Client
	// MaxBytes is the largest payload read; anything bigger becomes a
	// candidate one byte over the limit so the validator rejects it by size.
	MaxBytes int64
}

// NewFetcher creates a new image fetcher
func NewFetcher(maxBytes int64) *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		MaxBytes: maxBytes,
	}
}

// Fetch downloads one URL. The content type is sniffed from the bytes, not
// taken from the response header.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (ingest.Candidate, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ingest.Candidate{}, fmt.Errorf("invalid image URL %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return ingest.Candidate{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return ingest.Candidate{}, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ingest.Candidate{}, fmt.Errorf("image URL returned status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(io.LimitReader(resp.Body, f.MaxBytes+1))
	if err != nil {
		return ingest.Candidate{}, fmt.Errorf("failed to read image data: %w", err)
	}

	contentType := mimetype.Detect(imageData).String()
	if i := strings.IndexByte(contentType, ';'); i != -1 {
		contentType = contentType[:i]
	}

	name := path.Base(u.Path)
	if name == "/" || name == "." {
		name = u.Host
	}

	slog.Debug("Fetched remote image", "url", rawURL, "content_type", contentType, "bytes", len(imageData))
	return ingest.NewCandidate(name, contentType, imageData), nil
}

// FetchAll downloads urls in order. The first failure stops the batch.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) ([]ingest.Candidate, error) {
	candidates := make([]ingest.Candidate, 0, len(urls))
	for _, u := range urls {
		c, err := f.Fetch(ctx, u)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}
