package cmd

import (
	"fmt"
	"time"

	"github.com/keepsake-app/keepsake/internal/config"
	"github.com/keepsake-app/keepsake/internal/handles"
	"github.com/keepsake-app/keepsake/internal/manifest"
	"github.com/spf13/cobra"
)

func newManifestCmd(cfg *config.Config) *cobra.Command {
	var (
		limits limitFlags
		out    string
		format string
	)

	cmd := &cobra.Command{
		Use:   "manifest [images...]",
		Short: "Write a manifest of the images a wish would accept",
		Long: `Runs the given images through the wish limits and writes one row per
accepted image (ordinal, name, content type, size, dimensions, md5 and alt
text) as Parquet or YAML.

The format follows the --out extension unless --format is given.`,
		Example: `  # Parquet manifest
  keepsake manifest --out wish.parquet photos/*.jpg

  # YAML manifest with alt text from OpenAI
  CAPTION_PROVIDER=openai keepsake manifest --out wish.yaml photos/*`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := limits.apply(cmd, cfg); err != nil {
				return err
			}

			var f manifest.Format
			var err error
			if format != "" {
				f, err = manifest.ParseFormat(format)
			} else {
				f, err = manifest.DetectFormat(out)
			}
			if err != nil {
				return err
			}

			registry := handles.NewRegistry(cfg.HandlePrefix)
			wish, err := ingestPaths(cmd.Context(), cfg, registry, nil, args)
			if err != nil {
				return err
			}
			defer wish.Discard()

			snap := wish.Snapshot()
			m := manifest.Manifest{
				GeneratedAt: time.Now().UTC(),
				Limits:      snap.Limits,
				Message:     snap.Message,
				Images:      manifest.Rows(snap.Images),
			}
			if err := manifest.Write(out, f, m); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d of %d images to %s\n", len(m.Images), len(args), out)
			return nil
		},
	}

	limits.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path (.parquet, .yaml or .yml)")
	cmd.Flags().StringVar(&format, "format", "", "Output format (parquet or yaml)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
