package report

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceCAN/pkg/track"
)

// RunInfo captures the parameters a report was produced with.
type RunInfo struct {
	Log         string  `json:"log"`
	ReferenceID string  `json:"reference_id"`
	Bus         string  `json:"bus"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Width       int     `json:"width"`
	Threshold   int     `json:"threshold"`
}

// Row is one reported group: the anchor timestamp, the reference payload
// and the toggle counts from the most significant bit down to bit 0.
type Row struct {
	Anchor    float64 `json:"anchor"`
	Reference string  `json:"reference"`
	Counts    []int   `json:"counts"`
}

// IDExport is the exported result for one candidate message id.
type IDExport struct {
	ID            string `json:"id"`
	GroupCount    int    `json:"group_count"`
	CandidateBits []int  `json:"candidate_bits"`
	CandidateMask string `json:"candidate_mask"`
	Rows          []Row  `json:"rows"`
}

// Export is the machine-readable form of one tracking run.
type Export struct {
	Version     string      `json:"version"`
	Run         RunInfo     `json:"run"`
	GroupCount  int         `json:"group_count"`
	Candidates  []*IDExport `json:"candidates"`
	GeneratedBy string      `json:"generated_by"`
}

// BuildExport collects every candidate of the analysis into an Export.
func BuildExport(an *track.Analysis, run RunInfo) *Export {
	ex := &Export{
		Version:     "1.0",
		Run:         run,
		GroupCount:  an.Sequence.Count(),
		GeneratedBy: "cansig signal tracking",
	}
	for _, tr := range an.Candidates() {
		records := tr.ChangeRecords(an.Width)
		ide := &IDExport{
			ID:            tr.ID,
			GroupCount:    tr.Count(),
			CandidateBits: CandidateBits(records, run.Threshold),
			CandidateMask: FormatMask(CandidateMask(records, run.Threshold), an.Width),
		}
		if len(records) > 1 {
			for _, rec := range records[1:] {
				ide.Rows = append(ide.Rows, Row{
					Anchor:    rec.Anchor,
					Reference: rec.Reference.Data,
					Counts:    reverseCounts(rec.Counts),
				})
			}
		}
		ex.Candidates = append(ex.Candidates, ide)
	}
	return ex
}

// reverseCounts reorders toggle counts from bit-indexed to MSB-first.
func reverseCounts(counts []int) []int {
	out := make([]int, len(counts))
	for i, n := range counts {
		out[len(counts)-1-i] = n
	}
	return out
}

// ExportJSON exports the run to indented JSON.
func (e *Export) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}

// ExportDBC exports the run as a DBC skeleton: one message stub per
// candidate id with an unsigned big-endian signal per contiguous candidate
// bit range. Names are placeholders for the analyst to rename once the
// signal's meaning is known.
func (e *Export) ExportDBC() (string, error) {
	var output string
	output += "VERSION \"\"\n\n"
	output += "NS_ :\n\n"
	output += "BS_:\n\n"
	output += "BU_: Vector__XXX\n\n"

	byteCount := (e.Run.Width + 7) / 8
	for _, cand := range e.Candidates {
		_, hexID, ok := strings.Cut(cand.ID, ":")
		if !ok {
			return "", fmt.Errorf("report: dbc: message id %q is not bus-qualified", cand.ID)
		}
		decID, err := strconv.ParseUint(hexID, 16, 32)
		if err != nil {
			return "", fmt.Errorf("report: dbc: message id %q: %w", cand.ID, err)
		}

		output += fmt.Sprintf("BO_ %d CAND_%s: %d Vector__XXX\n", decID, strings.ToUpper(hexID), byteCount)
		for _, run := range bitRuns(cand.CandidateBits) {
			name := fmt.Sprintf("CAND_%02d_%02d", run.msb, run.lsb)
			start := dbcStartBit(run.msb, e.Run.Width)
			length := run.msb - run.lsb + 1
			output += fmt.Sprintf(" SG_ %s : %d|%d@0+ (1,0) [0|0] \"\" Vector__XXX\n", name, start, length)
		}
		output += "\n"
	}
	return output, nil
}

type bitRun struct {
	msb, lsb int
}

// bitRuns groups an MSB-first bit list into contiguous descending ranges.
func bitRuns(bits []int) []bitRun {
	var runs []bitRun
	for _, b := range bits {
		if n := len(runs); n > 0 && runs[n-1].lsb == b+1 {
			runs[n-1].lsb = b
			continue
		}
		runs = append(runs, bitRun{msb: b, lsb: b})
	}
	return runs
}

// dbcStartBit converts a payload bit position (bit value 1<<bit over the
// width-bit payload) to DBC numbering, where frame byte k carries DBC bits
// 8k+7 down to 8k and byte 0 is transmitted first.
func dbcStartBit(bit, width int) int {
	return ((width-1-bit)/8)*8 + bit%8
}
