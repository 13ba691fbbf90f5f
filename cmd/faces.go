package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/capture-kit/internal/config"
	"github.com/kozaktomas/capture-kit/internal/database"
	"github.com/kozaktomas/capture-kit/internal/facematch"
)

var facesCmd = &cobra.Command{
	Use:   "faces",
	Short: "Identify faces and manage stored identities",
}

func init() {
	rootCmd.AddCommand(facesCmd)
}

// openStore opens the identity directory and reports skipped files.
func openStore(cfg *config.Config, logger *zap.Logger) (*database.FileStore, error) {
	store, err := database.OpenFileStore(cfg.Faces.DataDir, cfg.Faces.Dim, logger.Named("store"))
	if err != nil {
		return nil, fmt.Errorf("opening face data: %w", err)
	}
	logger.Info("face data loaded",
		zap.String("dir", store.Dir()),
		zap.Int("identities", store.Count()),
		zap.Int("skipped", len(store.Warnings())))
	return store, nil
}

// attachIndex loads the persisted HNSW index when it matches the store,
// otherwise builds it, and keeps it in sync with the store.
func attachIndex(cfg *config.Config, store *database.FileStore, logger *zap.Logger) *database.HNSWIndex {
	idx := database.NewHNSWIndex()
	if path := cfg.Database.HNSWIndexPath; path != "" {
		loaded, err := idx.LoadIfFresh(path, store.List())
		switch {
		case err != nil:
			logger.Warn("failed to load HNSW index, rebuilding", zap.String("path", path), zap.Error(err))
		case loaded:
			logger.Info("HNSW index loaded", zap.String("path", path), zap.Int("count", idx.Count()))
		default:
			logger.Info("HNSW index is stale, rebuilding", zap.String("path", path))
		}
	}
	store.AttachIndex(idx)
	return idx
}

// saveIndex persists idx when an index path is configured.
func saveIndex(cfg *config.Config, idx *database.HNSWIndex, logger *zap.Logger) {
	path := cfg.Database.HNSWIndexPath
	if path == "" || idx == nil {
		return
	}
	if err := idx.Save(path); err != nil {
		logger.Warn("failed to save HNSW index", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Info("HNSW index saved", zap.String("path", path), zap.Int("count", idx.Count()))
}

// newMatcher builds the matcher for the configured strategy. Nearest matching
// goes through the HNSW index.
func newMatcher(cfg *config.Config, store *database.FileStore, logger *zap.Logger) (*facematch.Matcher, *database.HNSWIndex, error) {
	strategy, err := facematch.ParseStrategy(cfg.Faces.Match)
	if err != nil {
		return nil, nil, err
	}
	matcher := facematch.NewMatcher(store, cfg.Faces.Tolerance, strategy, logger.Named("matcher"))
	if strategy != facematch.StrategyNearest {
		return matcher, nil, nil
	}
	idx := attachIndex(cfg, store, logger)
	return matcher.WithIndex(idx), idx, nil
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// isInterrupted reports whether err only says the run was cancelled.
func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}

// outputJSON writes data to stdout as indented JSON.
func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
