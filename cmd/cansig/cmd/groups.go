package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCAN/pkg/canlog"
	"github.com/OpenTraceLab/OpenTraceCAN/pkg/track"
)

var (
	groupsID       string
	groupsKeepTail bool
)

var groupsCmd = &cobra.Command{
	Use:   "groups <log> <ref-id> <bus> <start-end>",
	Short: "Dump the group structure a reference message produces",
	Long: `Segment a capture at every sighting of the reference message and print
each group: its anchor timestamp, the reference payload that opened it and
the per-id occurrence counts inside it.

Use it to sanity-check a tracking run before reading its report: groups
with hardly any traffic mean the reference fires too often, a single huge
group means it never fired inside the window.

Examples:
  # Show every group between t=120s and t=300s
  cansig groups drive.csv 2d1 0 120-300

  # Show only id 0x111's occurrences, message by message
  cansig groups drive.csv 2d1 0 120-300 --id 111`,
	Args: cobra.ExactArgs(4),
	RunE: runGroups,
}

func init() {
	rootCmd.AddCommand(groupsCmd)

	groupsCmd.Flags().StringVar(&groupsID, "id", "",
		"Show one message id's occurrences instead of per-id counts")
	groupsCmd.Flags().BoolVar(&groupsKeepTail, "keep-tail", false,
		"Keep the unterminated group after the last reference sighting")
}

func runGroups(cmd *cobra.Command, args []string) error {
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

	msgs, stats, err := canlog.ReadFile(logPath, canlog.Filter{
		Bus:   bus,
		Start: start,
		End:   end,
		Width: cfg.Width,
	})
	if err != nil {
		return err
	}
	if stats.Skipped > 0 {
		slog.Warn("skipped rows without a usable payload", "count", stats.Skipped)
	}

	an, err := track.Analyze(msgs, &track.Config{
		ReferenceID:       refID,
		Width:             cfg.Width,
		KeepTrailingGroup: groupsKeepTail,
	})
	if err != nil {
		return err
	}
	if an.Sequence.Count() == 0 {
		return fmt.Errorf("no complete groups: reference id %s needs at least two sightings on bus %s between %.3f and %.3f",
			refID, bus, start, end)
	}

	var filterID string
	if groupsID != "" {
		narrowed, err := canlog.NormalizeHexID(groupsID)
		if err != nil {
			return err
		}
		filterID = canlog.CanonicalID(bus, narrowed)
	}

	for i, g := range an.Sequence.Groups {
		fmt.Printf("\n****** Group %d: TS %.3f - Reference %s - Message Types: %d\n",
			i+1, g.Anchor, g.Reference.Data, len(g.IDs()))

		if filterID != "" {
			printGroupID(g, filterID)
			continue
		}
		for _, id := range g.IDs() {
			col := g.Collection(id)
			fmt.Printf("  %-14s Count: %d (%d after dedup)\n",
				id, col.Count(), len(col.Deduplicate()))
		}
	}

	fmt.Printf("\n✓ Found %d group(s) anchored by %s\n", an.Sequence.Count(), refID)
	return nil
}

// printGroupID lists one id's occurrences inside a group, message by message.
func printGroupID(g *track.Group, id string) {
	col := g.Collection(id)
	if col == nil {
		fmt.Println("  (no occurrences)")
		return
	}
	for _, m := range col.Messages {
		fmt.Printf("  %s\n", m.ShortDesc())
	}
}
