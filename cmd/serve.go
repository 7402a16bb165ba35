package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/keepsake-app/keepsake/internal/config"
	"github.com/keepsake-app/keepsake/internal/handlers"
	"github.com/keepsake-app/keepsake/internal/handles"
	"github.com/spf13/cobra"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	var port string
	var limits limitFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for building birthday wishes",
		Long: `Starts the Keepsake web interface on the specified port.

Each visitor gets a wish session. Photos are uploaded to the session, checked
against the image limits and shown in a carousel whose state is streamed to
the browser over a WebSocket.`,
		Example: `  # Start server on default port 8888
  keepsake serve

  # Allow eight photos of up to 5MB each
  keepsake serve --max-images 8 --max-size-mb 5

  # Describe uploads with a local vision model
  CAPTION_PROVIDER=ollama keepsake serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := limits.apply(cmd, cfg); err != nil {
				return err
			}
			captioner, err := newCaptioner(cfg)
			if err != nil {
				return err
			}

			handler := handlers.New(handlers.Options{
				Registry:  handles.NewRegistry(cfg.HandlePrefix),
				Validator: cfg.Validator(),
				Carousel:  cfg.CarouselOptions(),
				Captioner: captioner,
			})

			// Set up routes
			mux := http.NewServeMux()
			handler.Routes(mux)

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Keepsake interface available", "addr", addr, "url", "http://localhost"+addr, "limits", cfg.Validator().Limits(), "captions", cfg.CaptionProvider)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				if err := handler.Shutdown(); err != nil {
					slog.Warn("Display handles leaked at shutdown", "err", err)
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				_ = handler.Shutdown()
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	limits.register(cmd)

	return cmd
}
