package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/keepsake-app/keepsake/internal/captions"
	"github.com/keepsake-app/keepsake/internal/config"
	"github.com/keepsake-app/keepsake/internal/handles"
	"github.com/keepsake-app/keepsake/internal/images"
	"github.com/keepsake-app/keepsake/internal/ingest"
	"github.com/keepsake-app/keepsake/internal/preference"
	"github.com/keepsake-app/keepsake/internal/storage"
	"github.com/spf13/cobra"
)

// limitFlags are shared by every command that ingests images.
type limitFlags struct {
	maxImages int
	maxSizeMB float64
}

func (f *limitFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.maxImages, "max-images", ingest.DefaultMaxImages, "Maximum number of images per wish")
	cmd.Flags().Float64Var(&f.maxSizeMB, "max-size-mb", 2, "Maximum size of one image in MB")
}

// apply copies explicitly set flags over cfg and revalidates it.
func (f *limitFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("max-images") {
		cfg.MaxImages = f.maxImages
	}
	if cmd.Flags().Changed("max-size-mb") {
		cfg.MaxSizeMB = f.maxSizeMB
	}
	return cfg.Validate()
}

// newCaptioner returns nil when no caption provider is configured.
func newCaptioner(cfg *config.Config) (storage.Captioner, error) {
	svc, err := captions.NewService(cfg.CaptionProvider, cfg.CaptionModel)
	if err != nil || svc == nil {
		return nil, err
	}
	return svc, nil
}

// ingestPaths builds a wish from files on disk or http(s) URLs and reports
// any rejection on stderr.
func ingestPaths(ctx context.Context, cfg *config.Config, registry *handles.Registry, source preference.Source, paths []string) (*storage.Wish, error) {
	captioner, err := newCaptioner(cfg)
	if err != nil {
		return nil, err
	}

	fetcher := images.NewFetcher(cfg.Validator().MaxSizeBytes)
	candidates := make([]ingest.Candidate, 0, len(paths))
	for _, path := range paths {
		var c ingest.Candidate
		if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
			c, err = fetcher.Fetch(ctx, path)
		} else {
			c, err = ingest.FromPath(path)
		}
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}

	wish, err := storage.NewWish(storage.WishOptions{
		Registry:     registry,
		Validator:    cfg.Validator(),
		Carousel:     cfg.CarouselOptions(),
		Source:       source,
		ReduceMotion: cfg.ReduceMotion,
		Captioner:    captioner,
	})
	if err != nil {
		return nil, err
	}

	decision, err := wish.Ingest(ctx, candidates)
	if err != nil {
		wish.Discard()
		return nil, err
	}
	if decision.Reason != "" {
		fmt.Fprintln(os.Stderr, decision.Reason)
	}
	return wish, nil
}
