package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/capture-kit/internal/database"
	"github.com/kozaktomas/capture-kit/internal/database/postgres"
)

var facesSimilarCmd = &cobra.Command{
	Use:   "similar <id>",
	Short: "Find the identities closest to a stored identity",
	Long: `List the stored identities nearest to the given one by Euclidean
distance. Identities within the match tolerance are likely the same person
enrolled twice.

The search uses the in-memory HNSW index, or the PostgreSQL mirror with --db
(run 'faces push' first). With --db an ID missing from the local data
directory is looked up in the mirror.

Examples:
  capture-kit faces similar 4
  capture-kit faces similar 4 --limit 3 --db`,
	Args: cobra.ExactArgs(1),
	RunE: runFacesSimilar,
}

func init() {
	facesCmd.AddCommand(facesSimilarCmd)

	facesSimilarCmd.Flags().Int("limit", 10, "Maximum number of results")
	facesSimilarCmd.Flags().Bool("db", false, "Search the PostgreSQL mirror instead of the local index")
	facesSimilarCmd.Flags().Bool("json", false, "Output as JSON")
}

// SimilarIdentity is one result of `faces similar`.
type SimilarIdentity struct {
	ID              int     `json:"id"`
	Label           string  `json:"label,omitempty"`
	Distance        float64 `json:"distance"`
	WithinTolerance bool    `json:"within_tolerance"`
}

// SimilarOutput represents the JSON output of `faces similar`.
type SimilarOutput struct {
	SourceID  int               `json:"source_id"`
	Tolerance float64           `json:"tolerance"`
	Source    string            `json:"source"`
	Results   []SimilarIdentity `json:"results"`
	Count     int               `json:"count"`
}

func runFacesSimilar(cmd *cobra.Command, args []string) error {
	limit := mustGetInt(cmd, "limit")
	useDB := mustGetBool(cmd, "db")
	jsonOutput := mustGetBool(cmd, "json")

	id, err := strconv.Atoi(args[0])
	if err != nil || id < 0 {
		return fmt.Errorf("invalid identity id %q", args[0])
	}
	if limit <= 0 {
		return errors.New("--limit must be positive")
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	// The source identity is its own nearest neighbour; ask for one more.
	var results []SimilarIdentity
	sourceName := "hnsw"
	if useDB {
		if cfg.Database.URL == "" {
			return errors.New("DATABASE_URL environment variable is required for --db")
		}
		sourceName = "postgres"
		pool, err := postgres.NewPool(&cfg.Database, logger.Named("postgres"))
		if err != nil {
			return err
		}
		defer pool.Close()
		source, err := resolveSource(ctx, store, postgres.NewIdentityRepository(pool).Get, id)
		if err != nil {
			return err
		}
		results, err = nearestFromDB(ctx, pool, source.Vector, limit+1)
		if err != nil {
			return err
		}
	} else {
		source, err := resolveSource(ctx, store, nil, id)
		if err != nil {
			return err
		}
		results, err = nearestFromIndex(store, attachIndex(cfg, store, logger), source.Vector, limit+1)
		if err != nil {
			return err
		}
	}

	out := SimilarOutput{SourceID: id, Tolerance: cfg.Faces.Tolerance, Source: sourceName, Results: []SimilarIdentity{}}
	for _, r := range results {
		if r.ID == id {
			continue
		}
		if len(out.Results) == limit {
			break
		}
		r.WithinTolerance = r.Distance <= cfg.Faces.Tolerance
		out.Results = append(out.Results, r)
	}
	out.Count = len(out.Results)

	if jsonOutput {
		return outputJSON(out)
	}

	if out.Count == 0 {
		fmt.Printf("No other identities found for ID %d\n", id)
		return nil
	}
	fmt.Printf("Identities closest to ID %d (%s, tolerance %.2f):\n\n", id, out.Source, out.Tolerance)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tDISTANCE\tMATCH")
	fmt.Fprintln(w, "--\t-----\t--------\t-----")
	for _, r := range out.Results {
		match := ""
		if r.WithinTolerance {
			match = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%.4f\t%s\n", r.ID, r.Label, r.Distance, match)
	}
	w.Flush()
	return nil
}

// identityLookup fetches one identity from a secondary source.
type identityLookup func(ctx context.Context, id int) (database.Identity, error)

// resolveSource returns identity id from the local store, falling back to
// remote when the store does not know it. remote may be nil.
func resolveSource(ctx context.Context, local database.IdentityReader, remote identityLookup, id int) (database.Identity, error) {
	ident, err := local.Get(id)
	if err == nil || remote == nil || !errors.Is(err, database.ErrNotFound) {
		return ident, err
	}
	return remote(ctx, id)
}

// nearestFromIndex searches the HNSW index and resolves labels from the store.
func nearestFromIndex(store *database.FileStore, idx *database.HNSWIndex, vec []float32, limit int) ([]SimilarIdentity, error) {
	ids, distances, err := idx.Search(vec, limit)
	if err != nil {
		return nil, err
	}
	out := make([]SimilarIdentity, 0, len(ids))
	for i, id := range ids {
		out = append(out, SimilarIdentity{ID: id, Label: store.Label(id), Distance: distances[i]})
	}
	return out, nil
}
