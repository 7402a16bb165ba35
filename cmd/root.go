package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/keepsake-app/keepsake/internal/config"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var logLevel string
	cfg := &config.Config{}

	cmd := &cobra.Command{
		Use:   "keepsake",
		Short: "Collect photos for a birthday wish and show them as a slideshow",
		Long: `Keepsake collects up to a handful of photos for a birthday wish and
presents them as an auto-advancing carousel with a fullscreen lightbox.

It respects the reduced motion preference: when set, the slideshow stops
auto-advancing and the slow zoom and pan effect is switched off.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			loaded, err := config.Load()
			if err != nil {
				return err
			}
			*cfg = *loaded

			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			level, err := config.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	// Add subcommands
	cmd.AddCommand(newServeCmd(cfg))
	cmd.AddCommand(newPlayCmd(cfg))
	cmd.AddCommand(newManifestCmd(cfg))

	return cmd
}
