package cmd

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/keepsake-app/keepsake/internal/config"
	"github.com/keepsake-app/keepsake/internal/handles"
	"github.com/keepsake-app/keepsake/internal/player"
	"github.com/keepsake-app/keepsake/internal/preference"
	"github.com/spf13/cobra"
)

func newPlayCmd(cfg *config.Config) *cobra.Command {
	var (
		limits       limitFlags
		reduceMotion bool
		motionFile   string
		logFile      string
	)

	cmd := &cobra.Command{
		Use:   "play [images...]",
		Short: "Show images as a carousel in the terminal",
		Long: `Ingests the given images with the same limits as the web interface and
shows them as a terminal carousel.

The reduced motion preference comes from --reduce-motion, or from a YAML file
with a reduce_motion key that is watched for changes while playing.`,
		Example: `  # Play a few photos
  keepsake play cake.jpg party.png friends.webp

  # Follow a preference file another tool updates
  keepsake play --motion-file ~/.config/keepsake/motion.yaml *.jpg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := limits.apply(cmd, cfg); err != nil {
				return err
			}
			if cmd.Flags().Changed("reduce-motion") {
				cfg.ReduceMotion = reduceMotion
			}

			// Logs would tear the terminal UI, so they go to a file.
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			defer f.Close()
			level, _ := config.ParseLevel(cfg.LogLevel)
			slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})))

			var source preference.Source
			if motionFile != "" {
				source = preference.NewFile(motionFile, cfg.ReduceMotion)
			}

			registry := handles.NewRegistry(cfg.HandlePrefix)
			wish, err := ingestPaths(cmd.Context(), cfg, registry, source, args)
			if err != nil {
				return err
			}
			defer func() {
				wish.Discard()
				if err := registry.Close(); err != nil {
					slog.Warn("Display handles leaked", "err", err)
				}
			}()

			model := player.New(wish)
			defer model.Stop()

			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil && cmd.Context().Err() == nil {
				return fmt.Errorf("player failed: %w", err)
			}
			return nil
		},
	}

	limits.register(cmd)
	cmd.Flags().BoolVar(&reduceMotion, "reduce-motion", false, "Disable auto-advance and the zoom and pan effect")
	cmd.Flags().StringVar(&motionFile, "motion-file", "", "YAML file whose reduce_motion key is watched")
	cmd.Flags().StringVar(&logFile, "log-file", "keepsake-play.log", "Where to write logs while playing")

	return cmd
}
