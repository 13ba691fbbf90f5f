package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/capture-kit/internal/database/postgres"
)

var facesPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Mirror stored identities into PostgreSQL",
	Long: `Copy every identity from the face data directory into the
face_identities table (pgvector). Existing rows are updated, so the command
can be re-run after new faces were enrolled.

Requires DATABASE_URL to be set.

Examples:
  capture-kit faces push
  capture-kit faces push --json`,
	Args: cobra.NoArgs,
	RunE: runFacesPush,
}

func init() {
	facesCmd.AddCommand(facesPushCmd)

	facesPushCmd.Flags().Bool("json", false, "Output as JSON")
}

// PushResult represents the result of a push operation
type PushResult struct {
	Success       bool   `json:"success"`
	Pushed        int    `json:"pushed"`
	RowsInTable   int    `json:"rows_in_table"`
	SchemaVersion string `json:"schema_version"`
	DurationMs    int64  `json:"duration_ms"`
	DurationHuman string `json:"duration_human,omitempty"`
}

func runFacesPush(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	startTime := time.Now()
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	identities := store.List()

	ctx, stop := signalContext()
	defer stop()

	pool, err := postgres.Open(ctx, &cfg.Database, logger.Named("postgres"))
	if err != nil {
		return err
	}
	defer pool.Close()
	repo := postgres.NewIdentityRepository(pool)

	progress := func() {}
	if !jsonOutput {
		bar := progressbar.NewOptions(len(identities),
			progressbar.OptionSetDescription("Pushing identities"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("faces"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
		)
		progress = func() { _ = bar.Add(1) }
	}

	if err := repo.UpsertBatch(ctx, identities, progress); err != nil {
		return fmt.Errorf("pushing identities: %w", err)
	}
	count, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	versions, err := pool.AppliedMigrations(ctx)
	if err != nil {
		return err
	}

	elapsed := time.Since(startTime)
	result := PushResult{
		Success:       true,
		Pushed:        len(identities),
		RowsInTable:   count,
		SchemaVersion: schemaVersion(versions),
		DurationMs:    elapsed.Milliseconds(),
		DurationHuman: elapsed.Round(time.Millisecond).String(),
	}
	if jsonOutput {
		return outputJSON(result)
	}
	fmt.Printf("\nPushed %d identities (%d rows in table) in %s\n", result.Pushed, result.RowsInTable, result.DurationHuman)
	return nil
}

// schemaVersion is the newest applied migration without its extension.
func schemaVersion(versions []string) string {
	if len(versions) == 0 {
		return ""
	}
	return strings.TrimSuffix(versions[len(versions)-1], ".sql")
}

// nearestFromDB queries pgvector for the identities closest to vec.
func nearestFromDB(ctx context.Context, pool *postgres.Pool, vec []float32, limit int) ([]SimilarIdentity, error) {
	neighbors, err := postgres.NewIdentityRepository(pool).Nearest(ctx, vec, limit)
	if err != nil {
		return nil, err
	}
	out := make([]SimilarIdentity, 0, len(neighbors))
	for _, n := range neighbors {
		out = append(out, SimilarIdentity{ID: n.ID, Label: n.Label, Distance: n.Distance})
	}
	return out, nil
}
