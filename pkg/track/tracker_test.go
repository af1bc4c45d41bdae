package track

import "testing"

// buildGroups seals one group per entry, anchored at 1.0, 2.0, ... with the
// given per-group occurrences of a single tracked id.
func buildGroups(id string, perGroup [][]string) []*Group {
	groups := make([]*Group, len(perGroup))
	for i, payloads := range perGroup {
		anchor := float64(i + 1)
		g := NewGroup(mkMsg(refID, anchor, "aa"))
		for j, data := range payloads {
			g.Add(mkMsg(id, anchor+float64(j+1)/10, data))
		}
		groups[i] = g
	}
	return groups
}

func addAll(tr *Tracker, groups []*Group) {
	for _, g := range groups {
		if g.Collection(tr.ID) != nil {
			tr.Add(g)
		}
	}
}

func TestTrackerPresence(t *testing.T) {
	// Present in groups 1 and 3 of a 3-group sequence, absent from group 2
	sparse := NewTracker("0:111")
	addAll(sparse, buildGroups("0:111", [][]string{{"01"}, {}, {"02"}}))

	if sparse.Count() != 2 {
		t.Errorf("Count = %d, want 2", sparse.Count())
	}
	if sparse.InAllGroups(3) {
		t.Errorf("sparse id must not count as present in all 3 groups")
	}

	full := NewTracker("0:222")
	addAll(full, buildGroups("0:222", [][]string{{"01"}, {"02"}, {"03"}}))

	if full.Count() != 3 {
		t.Errorf("Count = %d, want 3", full.Count())
	}
	if !full.InAllGroups(3) {
		t.Errorf("id occurring in all 3 groups must pass the presence check")
	}
}

func TestTrackerCountPerGroupOnce(t *testing.T) {
	// Multiple occurrences inside one group still count that group once
	tr := NewTracker("0:111")
	addAll(tr, buildGroups("0:111", [][]string{{"01", "02", "03"}}))

	if tr.Count() != 1 {
		t.Errorf("Count = %d, want 1", tr.Count())
	}
}

func TestTrackerFlattenedOrder(t *testing.T) {
	tr := NewTracker("0:111")
	addAll(tr, buildGroups("0:111", [][]string{{"01", "02"}, {"03"}}))

	pairs := tr.Flattened()
	if len(pairs) != 3 {
		t.Fatalf("expected 3 flattened pairs, got %d", len(pairs))
	}

	wantAnchors := []float64{1, 1, 2}
	wantData := []string{"01", "02", "03"}
	for i, p := range pairs {
		if p.Anchor != wantAnchors[i] {
			t.Errorf("pairs[%d].Anchor = %v, want %v", i, p.Anchor, wantAnchors[i])
		}
		if p.Message.Data != wantData[i] {
			t.Errorf("pairs[%d].Data = %q, want %q", i, p.Message.Data, wantData[i])
		}
	}
}

func TestFlattenedWithBitChanges(t *testing.T) {
	tr := NewTracker("0:111")
	addAll(tr, buildGroups("0:111", [][]string{{"01", "03"}, {"02"}}))

	pairs := tr.FlattenedWithBitChanges()
	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(pairs))
	}

	// Very first occurrence has no predecessor
	if pairs[0].Message.BitChanges != 0 {
		t.Errorf("first BitChanges = %#x, want 0", pairs[0].Message.BitChanges)
	}
	if pairs[1].Message.BitChanges != 0x01^0x03 {
		t.Errorf("second BitChanges = %#x, want %#x", pairs[1].Message.BitChanges, 0x01^0x03)
	}
	// The last message of group 1 is the predecessor of group 2's first
	if pairs[2].Message.BitChanges != 0x03^0x02 {
		t.Errorf("cross-boundary BitChanges = %#x, want %#x", pairs[2].Message.BitChanges, 0x03^0x02)
	}
}

func TestInAllGroupsWithChange(t *testing.T) {
	tests := []struct {
		name     string
		perGroup [][]string
		total    int
		want     bool
	}{
		{
			// Identical payload everywhere: presence passes, change fails
			name:     "static payload",
			perGroup: [][]string{{"11", "11"}, {"11"}},
			total:    2,
			want:     false,
		},
		{
			name:     "changes in every group",
			perGroup: [][]string{{"11", "22"}, {"22", "33"}},
			total:    2,
			want:     true,
		},
		{
			// Group 2 repeats group 1's final payload and never moves
			name:     "static second group",
			perGroup: [][]string{{"11", "22"}, {"22"}},
			total:    2,
			want:     false,
		},
		{
			// A cross-boundary change counts for the group it lands in
			name:     "boundary change only",
			perGroup: [][]string{{"11", "22"}, {"33"}},
			total:    2,
			want:     true,
		},
		{
			// The very first occurrence has a zero diff, so a single
			// occurrence in group 1 cannot satisfy the change check there
			name:     "first group single occurrence",
			perGroup: [][]string{{"11"}, {"22"}},
			total:    2,
			want:     false,
		},
		{
			name:     "absent from one group",
			perGroup: [][]string{{"11", "22"}, {}, {"33", "44"}},
			total:    3,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker("0:111")
			addAll(tr, buildGroups("0:111", tt.perGroup))
			if got := tr.InAllGroupsWithChange(tt.total); got != tt.want {
				t.Errorf("InAllGroupsWithChange = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrackerEmpty(t *testing.T) {
	tr := NewTracker("0:111")
	if tr.Count() != 0 {
		t.Errorf("Count = %d, want 0", tr.Count())
	}
	if len(tr.Flattened()) != 0 {
		t.Errorf("Flattened not empty for unseen id")
	}
	if tr.InAllGroupsWithChange(0) {
		t.Errorf("empty tracker must not pass the change check")
	}
}

func TestTrackerAddAbsentGroup(t *testing.T) {
	// Adding a group the id never appeared in records the group key with an
	// empty occurrence list and must not inflate the presence count.
	g := NewGroup(mkMsg(refID, 1.0, "aa"))
	g.Add(mkMsg("0:other", 1.1, "01"))

	tr := NewTracker("0:111")
	tr.Add(g)

	if tr.Count() != 0 {
		t.Errorf("Count = %d, want 0 for a group without occurrences", tr.Count())
	}
	if pairs := tr.Flattened(); len(pairs) != 0 {
		t.Errorf("Flattened = %d pairs, want 0", len(pairs))
	}
}
