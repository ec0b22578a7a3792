package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mdmirror/mdmirror/internal/config"
	"github.com/mdmirror/mdmirror/internal/database"
)

// defaultHistoryLimit bounds the run listing when no --limit is given.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [root]",
		Short: "Show past mirror runs",
		Long: `History lists the mirror runs recorded in the local database, newest
first. With a root URL argument, only runs for that root are shown.

Examples:
  # Recent runs across all sites
  mdmirror history

  # Runs for one site
  mdmirror history https://docs.example.com/guide/

  # Pages of a specific run
  mdmirror history --pages 42

  # Every root ever mirrored
  mdmirror history --roots`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of runs to list")
	cmd.Flags().Int64("pages", 0, "Show the pages of the run with this ID")
	cmd.Flags().Bool("roots", false, "List every mirrored root instead of runs")
	cmd.Flags().BoolP("json", "j", false, "Output as JSON")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetInt64("pages")
	if err != nil {
		return err
	}
	listRoots, err := cmd.Flags().GetBool("roots")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	root := ""
	if len(args) > 0 {
		root = ensureScheme(args[0])
	}

	// Never create an empty database just to report that it is empty.
	db, err := database.Open(config.XDGDataDir(), database.Options{CreateIfNotExists: false})
	if err != nil {
		return fmt.Errorf("no mirror history found (run 'mdmirror mirror' first): %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case runID != 0:
		return showRunPages(ctx, db, runID, asJSON, out)
	case listRoots:
		return showRoots(ctx, db, asJSON, out)
	default:
		return showRuns(ctx, db, root, limit, asJSON, out)
	}
}

// showRuns lists recorded runs, newest first.
func showRuns(ctx context.Context, db *database.MirrorDB, root string, limit int, asJSON bool, out io.Writer) error {
	runs, err := db.ListRuns(ctx, root, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if asJSON {
		return writeHistoryJSON(out, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No mirror runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tROOT\tDEPTH\tPAGES\tWRITTEN\tFAILED")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Root,
			r.Depth,
			r.PageCount,
			r.WrittenCount,
			r.FailedCount,
		)
	}
	return w.Flush()
}

// showRunPages lists the pages of one recorded run.
func showRunPages(ctx context.Context, db *database.MirrorDB, runID int64, asJSON bool, out io.Writer) error {
	run, err := db.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run %d: %w", runID, err)
	}
	if run == nil {
		return fmt.Errorf("run %d not found", runID)
	}

	pages, err := db.RunPages(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load pages for run %d: %w", runID, err)
	}

	if asJSON {
		return writeHistoryJSON(out, struct {
			Run   *database.RunRecord   `json:"run"`
			Pages []database.PageRecord `json:"pages"`
		}{Run: run, Pages: pages})
	}

	fmt.Fprintf(out, "Run %d: %s (started %s)\n\n",
		run.ID, run.Root, run.StartedAt.Local().Format(time.DateTime))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tURL\tFILE\tBYTES")
	for _, p := range pages {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", p.Status, p.URL, p.LocalPath, p.Bytes)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, p := range pages {
		if p.Error != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", p.URL, p.Error)
		}
	}
	return nil
}

// showRoots lists every root that has at least one recorded run.
func showRoots(ctx context.Context, db *database.MirrorDB, asJSON bool, out io.Writer) error {
	roots, err := db.MirroredRoots(ctx)
	if err != nil {
		return fmt.Errorf("failed to list roots: %w", err)
	}

	if asJSON {
		return writeHistoryJSON(out, roots)
	}

	if len(roots) == 0 {
		fmt.Fprintln(out, "No mirror runs recorded.")
		return nil
	}
	for _, r := range roots {
		fmt.Fprintln(out, r)
	}
	return nil
}

// writeHistoryJSON encodes v as indented JSON.
func writeHistoryJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
