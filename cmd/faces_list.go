package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/capture-kit/internal/database"
	"github.com/kozaktomas/capture-kit/internal/facematch"
)

var facesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored identities",
	Args:  cobra.NoArgs,
	RunE:  runFacesList,
}

var facesLabelCmd = &cobra.Command{
	Use:   "label <id> [name]",
	Short: "Name a stored identity",
	Long: `Assign a display name to a stored identity. The name is shown next to
the ID in the preview window. Omit the name to remove it.

Examples:
  capture-kit faces label 3 "Tomáš"
  capture-kit faces label 3`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runFacesLabel,
}

func init() {
	facesCmd.AddCommand(facesListCmd)
	facesCmd.AddCommand(facesLabelCmd)

	facesListCmd.Flags().Bool("json", false, "Output as JSON")
}

// IdentityOutput is one row of `faces list`.
type IdentityOutput struct {
	ID    int    `json:"id"`
	Label string `json:"label,omitempty"`
	File  string `json:"file"`
}

// SkippedOutput is a vector file that could not be loaded.
type SkippedOutput struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ListOutput is the JSON shape of `faces list`.
type ListOutput struct {
	Dir        string           `json:"dir"`
	Dim        int              `json:"dim"`
	NextID     int              `json:"next_id"`
	Identities []IdentityOutput `json:"identities"`
	Skipped    []SkippedOutput  `json:"skipped,omitempty"`
}

func runFacesList(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}

	out := ListOutput{
		Dir:        store.Dir(),
		Dim:        store.Dim(),
		NextID:     store.NextID(),
		Identities: []IdentityOutput{},
	}
	for _, ident := range store.List() {
		out.Identities = append(out.Identities, IdentityOutput{
			ID:    ident.ID,
			Label: ident.Label,
			File:  database.VectorFileName(ident.ID),
		})
	}
	for _, w := range store.Warnings() {
		out.Skipped = append(out.Skipped, SkippedOutput{Path: w.Path, Reason: w.Reason})
	}

	if jsonOutput {
		return outputJSON(out)
	}

	fmt.Printf("Face data: %s (%d-d vectors, next ID %d)\n\n", out.Dir, out.Dim, out.NextID)
	if len(out.Identities) == 0 {
		fmt.Println("No identities stored.")
	} else {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLABEL\tFILE")
		fmt.Fprintln(w, "--\t-----\t----")
		for _, ident := range out.Identities {
			fmt.Fprintf(w, "%d\t%s\t%s\n", ident.ID, ident.Label, ident.File)
		}
		w.Flush()
	}

	if len(out.Skipped) > 0 {
		fmt.Printf("\nSkipped %d file(s):\n", len(out.Skipped))
		for _, s := range out.Skipped {
			fmt.Printf("  %s: %s\n", s.Path, s.Reason)
		}
	}
	return nil
}

func runFacesLabel(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil || id < 0 {
		return fmt.Errorf("invalid identity id %q", args[0])
	}
	name := ""
	if len(args) == 2 {
		name = args[1]
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
	if err := store.SetLabel(id, name); err != nil {
		return err
	}

	ident, err := store.Get(id)
	if err != nil {
		return err
	}
	fmt.Println(facematch.DisplayLabel(facematch.Result{
		Match: facematch.Match{ID: ident.ID, Label: ident.Label},
		Known: true,
	}))
	return nil
}
