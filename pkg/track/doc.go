// Package track implements the signal-discovery engine: it correlates
// per-bit payload changes of unknown CAN messages against the cadence of a
// chosen reference message, surfacing the ids most likely to carry real
// signals.
//
// # Overview
//
// The analysis pipeline, in dependency order:
//  1. Segment the time-ordered stream into Groups, each anchored at one
//     sighting of the reference message
//  2. Deduplicate consecutive repeats of each id's payload inside a group
//  3. Track each id's deduplicated occurrences across all groups
//  4. Accumulate per-bit toggle counts by XOR-diffing adjacent occurrences,
//     chaining the baseline across group boundaries
//  5. Filter to ids present in every group whose payload changes in every
//     group
//
// # Usage
//
// Basic usage:
//
//	// 1. Ingest a filtered capture (see package canlog)
//	msgs, _, err := canlog.ReadFile("drive.csv", canlog.Filter{
//		Bus: "0", Start: 112, End: 290,
//	})
//
//	// 2. Configure the run
//	cfg := track.DefaultConfig()
//	cfg.ReferenceID = canlog.CanonicalID("0", "2d1")
//
//	// 3. Analyze
//	an, err := track.Analyze(msgs, cfg)
//
//	// 4. Walk the candidates
//	for _, tr := range an.Candidates() {
//		records := tr.ChangeRecords(cfg.Width)
//		...
//	}
//
// # Algorithm Details
//
// A Group is the span of traffic between two consecutive reference
// sightings. Traffic before the first sighting is not analyzable and is
// dropped; the group left open at end of stream is discarded unless
// Config.KeepTrailingGroup is set.
//
// Within a group, consecutive occurrences of an id carrying an identical
// payload collapse to their first member. Retransmissions are noise; only
// transitions matter.
//
// Toggle accumulation walks each id's occurrences as one linear sequence
// spanning group boundaries. Each occurrence is XORed against the previous
// one, and every set bit of the delta increments that bit's count in the
// current group's ChangeRecord. The first occurrence of a group diffs
// against the last occurrence of the previous group; the very first
// occurrence overall has no baseline and yields an all-zero delta.
//
// An id is a candidate when it occurs in every group (presence) and its
// payload changes at least once within every group (universal change).
// Constant fields fail the second check, sporadic ids fail the first.
//
// # Reporting
//
// Candidate toggle counts feed package report, which renders one row per
// group. A bit whose count is nonzero but below the noise threshold is a
// candidate signal bit; bits that never flip or flip on nearly every
// transition are hidden as noise or counters.
//
// # See Also
//
// For log ingestion and filtering, see package canlog.
// For rendering and exports, see package report.
package track
