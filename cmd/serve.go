package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/nanophoto/nanophoto/internal/analysis"
	"github.com/nanophoto/nanophoto/internal/handlers"
	"github.com/nanophoto/nanophoto/internal/judgement"
	"github.com/nanophoto/nanophoto/internal/settings"
	"github.com/nanophoto/nanophoto/internal/sketch"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	var settingsDir string
	var judgeModel string
	var sketchModel string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the photo critique API server",
		Long: `Starts the Nanophoto API on the specified port.

The API accepts photo submissions, critiques them with a vision LLM,
generates one annotated sketch per actionable issue, and serves each
user's analysis history and capture settings.`,
		Example: `  # Start server on default port 8888
  nanophoto serve

  # Start server on custom port
  nanophoto serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			judge, err := judgement.NewClient(ctx, os.Getenv("GEMINI_API_KEY"), judgeModel)
			if err != nil {
				return err
			}
			defer judge.Close()

			sketcher, err := sketch.NewGenerator(ctx, os.Getenv("GEMINI_API_KEY"), sketchModel)
			if err != nil {
				return err
			}
			defer sketcher.Close()

			store, cleanup, err := newAnalysisStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			service := analysis.NewService(judge, sketcher, store)
			handler := handlers.New(service, settings.NewManager(settingsDir))

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
				slog.Info("Nanophoto API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-ctx.Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&settingsDir, "settings-dir", "settings", "Directory for per-user settings files")
	cmd.Flags().StringVar(&judgeModel, "judge-model", judgement.DefaultModel, "Model used for critiques")
	cmd.Flags().StringVar(&sketchModel, "sketch-model", sketch.DefaultModel, "Model used for sketch overlays")

	return cmd
}
