package track

import (
	"github.com/OpenTraceLab/OpenTraceCAN/pkg/canlog"
)

// Tracker aggregates one message id's deduplicated occurrences across the
// whole group sequence, preserving both group membership and global order.
// Group keys are kept in insertion order; reporting and accumulation depend
// on that order, never on map iteration.
type Tracker struct {
	ID string

	keys        []float64
	occurrences map[float64][]*canlog.Message
	references  map[float64]*canlog.Message
}

// NewTracker returns an empty tracker for id.
func NewTracker(id string) *Tracker {
	return &Tracker{
		ID:          id,
		occurrences: make(map[float64][]*canlog.Message),
		references:  make(map[float64]*canlog.Message),
	}
}

// Add records the deduplicated occurrences of the tracker's id in g. The
// group's anchor and reference message are remembered the first time the
// group is seen; a group without occurrences of the id contributes an empty
// entry.
func (t *Tracker) Add(g *Group) {
	key := g.Anchor
	if _, ok := t.references[key]; !ok {
		t.keys = append(t.keys, key)
		t.references[key] = g.Reference
	}
	col := g.Collection(t.ID)
	if col == nil {
		return
	}
	t.occurrences[key] = append(t.occurrences[key], col.Deduplicate()...)
}

// Count returns the number of distinct groups with at least one occurrence.
func (t *Tracker) Count() int {
	n := 0
	for _, key := range t.keys {
		if len(t.occurrences[key]) > 0 {
			n++
		}
	}
	return n
}

// InAllGroups reports whether the id appeared in every one of total groups.
func (t *Tracker) InAllGroups(total int) bool {
	return t.Count() >= total
}

// GroupMessage pairs an occurrence with the anchor of the group it belongs
// to.
type GroupMessage struct {
	Anchor  float64
	Message *canlog.Message
}

// Flattened returns every occurrence as one linear sequence: groups in
// insertion order, then per-group arrival order. The last occurrence of one
// group immediately precedes the first occurrence of the next.
func (t *Tracker) Flattened() []GroupMessage {
	var out []GroupMessage
	for _, key := range t.keys {
		for _, m := range t.occurrences[key] {
			out = append(out, GroupMessage{Anchor: key, Message: m})
		}
	}
	return out
}

// FlattenedWithBitChanges walks Flattened once, attaching each message's
// BitChanges field: the XOR against the immediately preceding occurrence,
// or 0 for the very first occurrence overall.
func (t *Tracker) FlattenedWithBitChanges() []GroupMessage {
	pairs := t.Flattened()
	var prev *canlog.Message
	for _, p := range pairs {
		p.Message.BitChanges = p.Message.BitChangesFrom(prev)
		prev = p.Message
	}
	return pairs
}

// InAllGroupsWithChange reports whether the id passes both candidacy
// checks: it occurs in every one of total groups, and within every group it
// appears in, at least one occurrence's payload differs from its
// predecessor in the flattened sequence.
func (t *Tracker) InAllGroupsWithChange(total int) bool {
	if !t.InAllGroups(total) {
		return false
	}
	pairs := t.FlattenedWithBitChanges()
	if len(pairs) == 0 {
		return false
	}

	runAnchor := pairs[0].Anchor
	var runOR uint64
	for _, p := range pairs {
		if p.Anchor != runAnchor {
			if runOR == 0 {
				return false
			}
			runAnchor = p.Anchor
			runOR = 0
		}
		runOR |= p.Message.BitChanges
	}
	return runOR != 0
}
