package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCAN/pkg/rundb"
)

var runsDB string

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List tracking runs saved with --save",
	Long: `List the runs recorded in the run database, newest first. With a run id,
show that run's parameters and its candidate message ids instead.

Examples:
  # All saved runs
  cansig runs

  # One run's candidates
  cansig runs 3

  # A database somewhere else
  cansig runs --db ./team-runs.db`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().StringVar(&runsDB, "db", "",
		"Run database path (default $XDG_STATE_HOME/cansig/runs.db)")
}

func runRuns(cmd *cobra.Command, args []string) error {
	path := cfg.DBPath
	if runsDB != "" {
		path = runsDB
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("No runs recorded yet. Save one with: cansig track ... --save")
		return nil
	}

	store, err := rundb.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("run id %q is not a number", args[0])
		}
		return printRunDetail(store, id)
	}

	runs, err := store.ListRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet. Save one with: cansig track ... --save")
		return nil
	}

	fmt.Printf("%-4s %-20s %-24s %-10s %-5s %-17s %s\n",
		"ID", "CREATED", "LOG", "REFERENCE", "BUS", "WINDOW", "GROUPS")
	for _, r := range runs {
		window := fmt.Sprintf("%.1f-%.1f", r.Start, r.End)
		fmt.Printf("%-4d %-20s %-24s %-10s %-5s %-17s %d\n",
			r.ID, r.CreatedAt, r.LogPath, r.ReferenceID, r.Bus, window, r.GroupCount)
	}
	return nil
}

// printRunDetail shows one run's parameters and candidates.
func printRunDetail(store *rundb.Store, id int64) error {
	runs, err := store.ListRuns()
	if err != nil {
		return err
	}
	var run *rundb.Run
	for _, r := range runs {
		if r.ID == id {
			run = r
			break
		}
	}
	if run == nil {
		return fmt.Errorf("no run with id %d", id)
	}

	fmt.Printf("Run %d (%s)\n", run.ID, run.CreatedAt)
	fmt.Printf("  Log:       %s\n", run.LogPath)
	fmt.Printf("  Reference: %s (bus %s)\n", run.ReferenceID, run.Bus)
	fmt.Printf("  Window:    %.3f - %.3f\n", run.Start, run.End)
	fmt.Printf("  Width:     %d bits, threshold %d\n", run.Width, run.Threshold)
	fmt.Printf("  Groups:    %d\n", run.GroupCount)

	cands, err := store.Candidates(run.ID)
	if err != nil {
		return err
	}
	if len(cands) == 0 {
		fmt.Println("\nNo candidates were found in this run.")
		return nil
	}

	fmt.Printf("\nCandidates (%d):\n", len(cands))
	for _, c := range cands {
		fmt.Printf("  %-14s groups %-4d mask %s\n", c.MessageID, c.GroupCount, c.Mask)
	}
	return nil
}
