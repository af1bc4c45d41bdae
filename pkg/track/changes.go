package track

import (
	"github.com/OpenTraceLab/OpenTraceCAN/pkg/canlog"
)

// ChangeRecord accumulates per-bit toggle counts for one message id within
// one group. Counts[b] is the number of observed transitions where bit b
// (bit value 1<<b) flipped between two temporally adjacent occurrences.
type ChangeRecord struct {
	Anchor    float64
	ID        string
	Reference *canlog.Message
	Counts    []int

	// baseline is the last occurrence folded in. It seeds from the prior
	// group's final occurrence, or nil for the id's first group.
	baseline *canlog.Message
}

func newChangeRecord(anchor float64, id string, ref, baseline *canlog.Message, width int) *ChangeRecord {
	return &ChangeRecord{
		Anchor:    anchor,
		ID:        id,
		Reference: ref,
		Counts:    make([]int, width),
		baseline:  baseline,
	}
}

// observe folds one occurrence into the counts: every bit set in the XOR
// against the baseline increments, then the baseline advances. A nil
// baseline yields a zero delta, not an error.
func (r *ChangeRecord) observe(m *canlog.Message) {
	delta := m.BitChangesFrom(r.baseline)
	for b := range r.Counts {
		if delta&(1<<uint(b)) != 0 {
			r.Counts[b]++
		}
	}
	r.baseline = m
}

// ChangeRecords builds one ChangeRecord per group the id appears in, in
// group-insertion order, with toggle counts of width bits. The baseline
// chains across group boundaries: a group's first diff runs against the
// last occurrence of the previous group, and the very first occurrence
// overall diffs against nothing, contributing no toggles.
func (t *Tracker) ChangeRecords(width int) []*ChangeRecord {
	var (
		records []*ChangeRecord
		index   = make(map[float64]*ChangeRecord)
		prior   *canlog.Message
	)
	for _, p := range t.Flattened() {
		rec, ok := index[p.Anchor]
		if !ok {
			rec = newChangeRecord(p.Anchor, t.ID, t.references[p.Anchor], prior, width)
			index[p.Anchor] = rec
			records = append(records, rec)
		}
		rec.observe(p.Message)
		prior = p.Message
	}
	return records
}
