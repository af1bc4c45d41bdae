package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCAN/pkg/canlog"
	"github.com/OpenTraceLab/OpenTraceCAN/pkg/report"
	"github.com/OpenTraceLab/OpenTraceCAN/pkg/rundb"
	"github.com/OpenTraceLab/OpenTraceCAN/pkg/track"
)

var (
	// Flags for track command
	trackThreshold int
	trackWidth     int
	trackKeepTail  bool
	trackNoPager   bool
	trackOutput    string
	trackOutputDBC string
	trackSave      bool
	trackDB        string
)

var trackCmd = &cobra.Command{
	Use:   "track <log> <ref-id> <bus> <start-end>",
	Short: "Find payload bits that toggle alongside a reference message",
	Long: `Correlate payload bit changes against sightings of a reference message.

The reference message is one you can produce on demand: a steering wheel
button, a door switch, a blinker stalk. Trigger it a handful of times while
logging, then point track at the capture.

The algorithm:
  1. Split the window into groups, one per reference sighting
  2. Deduplicate each id's payloads within a group
  3. XOR consecutive payloads and count per-bit toggles
  4. Report ids that appear and change in every group

Each candidate prints one table: a row per group (the first group is the
baseline and is skipped) with the per-bit toggle count, most significant
bit first. Counts at or above the noise threshold are masked out as --,
leaving only bits that changed a few deliberate times.

Examples:
  # Track against message 0x2d1 on bus 0 between t=120s and t=300s
  cansig track drive.csv 2d1 0 120-300

  # Raise the noise threshold and skip the per-id pager
  cansig track drive.csv 2d1 0 120-300 --threshold 6 --no-pager

  # Save machine-readable results
  cansig track drive.csv 2d1 0 120-300 --output cand.json --output-dbc cand.dbc

  # Record the run in the local database for later comparison
  cansig track drive.csv 2d1 0 120-300 --save`,
	Args: cobra.ExactArgs(4),
	RunE: runTrack,
}

func init() {
	rootCmd.AddCommand(trackCmd)

	trackCmd.Flags().IntVarP(&trackThreshold, "threshold", "t", report.DefaultThreshold,
		"Hide bits with this many or more toggles per group (noise)")
	trackCmd.Flags().IntVarP(&trackWidth, "width", "w", 64,
		"Payload width in bits (1-64)")
	trackCmd.Flags().BoolVar(&trackKeepTail, "keep-tail", false,
		"Keep the unterminated group after the last reference sighting")
	trackCmd.Flags().BoolVar(&trackNoPager, "no-pager", false,
		"Print all candidates without pausing between them")
	trackCmd.Flags().StringVarP(&trackOutput, "output", "o", "",
		"Save report as JSON to this file")
	trackCmd.Flags().StringVar(&trackOutputDBC, "output-dbc", "",
		"Save candidate signals as a DBC skeleton to this file")
	trackCmd.Flags().BoolVar(&trackSave, "save", false,
		"Record this run in the run database")
	trackCmd.Flags().StringVar(&trackDB, "db", "",
		"Run database path (default $XDG_STATE_HOME/cansig/runs.db)")
}

func runTrack(cmd *cobra.Command, args []string) error {
	logPath := args[0]
	bus := args[2]

	start, end, err := parseRange(args[3])
	if err != nil {
		return err
	}

	hexID, err := canlog.NormalizeHexID(args[1])
	if err != nil {
		return err
	}
	refID := canlog.CanonicalID(bus, hexID)

	// Flags win over the config file, which wins over built-in defaults.
	width := cfg.Width
	if cmd.Flags().Changed("width") {
		width = trackWidth
	}
	if width < 1 || width > 64 {
		return fmt.Errorf("width must be between 1 and 64, got %d", width)
	}
	threshold := cfg.Threshold
	if cmd.Flags().Changed("threshold") {
		threshold = trackThreshold
	}
	if threshold < 1 {
		return fmt.Errorf("threshold must be at least 1, got %d", threshold)
	}

	t0 := time.Now()
	msgs, stats, err := canlog.ReadFile(logPath, canlog.Filter{
		Bus:   bus,
		Start: start,
		End:   end,
		Width: width,
	})
	if err != nil {
		return err
	}
	slog.Debug("log ingested",
		"rows", stats.Rows, "kept", stats.Kept,
		"filtered", stats.Filtered, "elapsed", time.Since(t0))
	if stats.Skipped > 0 {
		slog.Warn("skipped rows without a usable payload", "count", stats.Skipped)
	}

	an, err := track.Analyze(msgs, &track.Config{
		ReferenceID:       refID,
		Width:             width,
		KeepTrailingGroup: trackKeepTail,
	})
	if err != nil {
		return err
	}
	if an.Sequence.Count() == 0 {
		return fmt.Errorf("no complete groups: reference id %s needs at least two sightings on bus %s between %.3f and %.3f",
			refID, bus, start, end)
	}

	fmt.Printf("✓ Found %d group(s) anchored by %s\n", an.Sequence.Count(), refID)

	candidates := an.Candidates()
	rep := report.New(os.Stdout, width, threshold)
	if !trackNoPager && cfg.Pager && stdinIsTerminal() {
		rep.Pager = report.NewPager(os.Stdin, os.Stdout)
	}
	for _, tr := range candidates {
		if err := rep.Report(tr.ID, tr.ChangeRecords(width)); err != nil {
			return err
		}
	}
	if len(candidates) == 0 {
		fmt.Println("\nNo message id is present and changing in every group.")
		fmt.Println("Try a wider time window or trigger the reference more often.")
	}

	if trackOutput == "" && trackOutputDBC == "" && !trackSave {
		return nil
	}

	exp := report.BuildExport(an, report.RunInfo{
		Log:         logPath,
		ReferenceID: refID,
		Bus:         bus,
		Start:       start,
		End:         end,
		Width:       width,
		Threshold:   threshold,
	})

	if trackOutput != "" {
		if err := exportReportJSON(exp, trackOutput); err != nil {
			return err
		}
		fmt.Printf("\n✓ JSON report saved to: %s\n", trackOutput)
	}

	if trackOutputDBC != "" {
		if err := exportReportDBC(exp, trackOutputDBC); err != nil {
			return err
		}
		fmt.Printf("✓ DBC skeleton saved to: %s\n", trackOutputDBC)
	}

	if trackSave {
		dbPath := cfg.DBPath
		if trackDB != "" {
			dbPath = trackDB
		}
		if err := saveRun(exp, dbPath); err != nil {
			return err
		}
		fmt.Printf("✓ Run saved to: %s\n", dbPath)
	}

	return nil
}

// parseRange splits a "start-end" time window into its two bounds.
func parseRange(s string) (float64, float64, error) {
	startStr, endStr, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("time range %q must be start-end, e.g. 120-300", s)
	}
	start, err := strconv.ParseFloat(startStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad range start %q: %w", startStr, err)
	}
	end, err := strconv.ParseFloat(endStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad range end %q: %w", endStr, err)
	}
	if end < start {
		return 0, 0, fmt.Errorf("time range %q ends before it starts", s)
	}
	return start, end, nil
}

// stdinIsTerminal reports whether stdin is an interactive terminal. The
// pager only makes sense there; piped input must never block on a prompt.
func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func exportReportJSON(exp *report.Export, path string) error {
	data, err := exp.ExportJSON()
	if err != nil {
		return fmt.Errorf("failed to export JSON: %w", err)
	}
	return writeOutput(path, data)
}

func exportReportDBC(exp *report.Export, path string) error {
	dbc, err := exp.ExportDBC()
	if err != nil {
		return fmt.Errorf("failed to export DBC: %w", err)
	}
	return writeOutput(path, []byte(dbc))
}

func writeOutput(path string, data []byte) error {
	// Create directory if needed
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// saveRun records the run and its candidates in the SQLite run database.
func saveRun(exp *report.Export, path string) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	store, err := rundb.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	run := &rundb.Run{
		LogPath:     exp.Run.Log,
		ReferenceID: exp.Run.ReferenceID,
		Bus:         exp.Run.Bus,
		Start:       exp.Run.Start,
		End:         exp.Run.End,
		Width:       exp.Run.Width,
		Threshold:   exp.Run.Threshold,
		GroupCount:  exp.GroupCount,
	}
	cands := make([]*rundb.Candidate, 0, len(exp.Candidates))
	for _, ide := range exp.Candidates {
		cands = append(cands, &rundb.Candidate{
			MessageID:  ide.ID,
			GroupCount: ide.GroupCount,
			Mask:       ide.CandidateMask,
		})
	}
	if _, err := store.SaveRun(run, cands); err != nil {
		return err
	}
	return nil
}
