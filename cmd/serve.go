package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/capture-kit/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web API",
	Long: `Start the HTTP API over the face data directory. The directory is
watched, so faces enrolled by a running 'faces watch' show up immediately.

Endpoints:
  GET  /api/v1/health
  GET  /api/v1/faces
  GET  /api/v1/faces/{id}
  PUT  /api/v1/faces/{id}/label
  POST /api/v1/faces/match
  GET  /api/v1/stats`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	matcher, idx, err := newMatcher(cfg, store, logger)
	if err != nil {
		return err
	}

	server := web.NewServer(cfg, store, matcher, logger.Named("web"))

	ctx, stop := signalContext()
	defer stop()

	go func() {
		if err := store.Watch(ctx); err != nil && !isInterrupted(err) {
			logger.Error("face data watcher stopped", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		saveIndex(cfg, idx, logger)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("error during shutdown", zap.Error(err))
		}
	}()

	fmt.Printf("Serving face API on http://%s\n", cfg.Web.Addr())
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
