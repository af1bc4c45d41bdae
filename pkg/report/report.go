// Package report renders bit-change analyses as aligned terminal tables and
// exports them to JSON and DBC skeletons.
//
// The table layout mirrors the established tracker output: one header line
// with two-digit bit labels from the most significant bit down to 00, then
// one row per group showing either the toggle count of a bit (when it falls
// inside the noise window) or a "--" placeholder.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/OpenTraceLab/OpenTraceCAN/pkg/track"
)

// DefaultThreshold is the noise cutoff: a bit is a candidate when its
// per-group toggle count is positive and strictly below this value.
const DefaultThreshold = 4

// Header returns the column header for a width-bit report. The timestamp
// and reference columns are placeholder X runs sized to match the rows.
func Header(width int) string {
	labels := make([]string, width)
	for i := range labels {
		labels[i] = fmt.Sprintf("%02d", width-1-i)
	}
	return "XXX.XXX - " + strings.Repeat("X", (width+3)/4) + " - " + strings.Join(labels, "|")
}

// FormatRow renders one group's toggle counts, most significant bit first.
// Counts inside the open interval (0, threshold) print as two digits;
// everything else prints as "--".
func FormatRow(rec *track.ChangeRecord, threshold int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%.3f - %s - ", rec.Anchor, rec.Reference.Data)
	for b := len(rec.Counts) - 1; b >= 0; b-- {
		if n := rec.Counts[b]; n > 0 && n < threshold {
			fmt.Fprintf(&sb, "%02d|", n)
		} else {
			sb.WriteString("--|")
		}
	}
	return sb.String()
}

// Reporter writes per-id change tables to Out. A non-nil Pager pauses after
// every table.
type Reporter struct {
	Out       io.Writer
	Width     int
	Threshold int
	Pager     *Pager
}

// New returns a Reporter without a pager attached.
func New(out io.Writer, width, threshold int) *Reporter {
	return &Reporter{Out: out, Width: width, Threshold: threshold}
}

// Report prints the banner, header and rows for one message id. The first
// record is omitted: its counts accumulate against no baseline and would
// understate the group's activity.
func (r *Reporter) Report(id string, records []*track.ChangeRecord) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n**** Tracker: %s\n\n", id)
	sb.WriteString(Header(r.Width))
	sb.WriteByte('\n')
	if len(records) > 1 {
		for _, rec := range records[1:] {
			sb.WriteString(FormatRow(rec, r.Threshold))
			sb.WriteByte('\n')
		}
	}
	sb.WriteByte('\n')

	if _, err := io.WriteString(r.Out, sb.String()); err != nil {
		return fmt.Errorf("report: write: %w", err)
	}
	if r.Pager != nil {
		return r.Pager.Wait()
	}
	return nil
}

// CandidateMask returns the bits that pass the noise cutoff in at least one
// reported row, as a bitmask. The first record is skipped, matching Report.
func CandidateMask(records []*track.ChangeRecord, threshold int) uint64 {
	var mask uint64
	if len(records) < 2 {
		return 0
	}
	for _, rec := range records[1:] {
		for b, n := range rec.Counts {
			if n > 0 && n < threshold {
				mask |= 1 << uint(b)
			}
		}
	}
	return mask
}

// CandidateBits returns the candidate bit positions, most significant first.
func CandidateBits(records []*track.ChangeRecord, threshold int) []int {
	mask := CandidateMask(records, threshold)
	var bits []int
	for b := 63; b >= 0; b-- {
		if mask&(1<<uint(b)) != 0 {
			bits = append(bits, b)
		}
	}
	return bits
}

// FormatMask renders a candidate mask as zero-padded hex sized for width bits.
func FormatMask(mask uint64, width int) string {
	return fmt.Sprintf("%0*x", (width+3)/4, mask)
}
