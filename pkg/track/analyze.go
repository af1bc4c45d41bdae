package track

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceCAN/pkg/canlog"
)

// Config controls an analysis run.
type Config struct {
	// ReferenceID is the canonical "bus:hex-id" of the reference message
	// whose sightings delimit groups.
	ReferenceID string

	// Width is the payload width in bits. Toggle counts and report rows
	// cover bit positions 0..Width-1.
	Width int

	// KeepTrailingGroup seals the group left open at end of stream instead
	// of discarding it.
	KeepTrailingGroup bool
}

// DefaultConfig returns a Config with the defaults the cansig CLI uses.
func DefaultConfig() *Config {
	return &Config{
		Width: 64,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.ReferenceID == "" {
		return fmt.Errorf("track: reference id is required")
	}
	if c.Width < 1 || c.Width > 64 {
		return fmt.Errorf("track: width must be between 1 and 64, got %d", c.Width)
	}
	return nil
}

// Analysis is the outcome of one tracking run over a message stream.
type Analysis struct {
	// Sequence is the sealed group sequence the run produced.
	Sequence *Sequence

	// Trackers holds one entry per distinct id observed inside the sealed
	// groups, in first-sighting order.
	Trackers []*Tracker

	// Width is the payload width the run was configured with.
	Width int

	byID map[string]*Tracker
}

// Analyze segments msgs at every sighting of cfg.ReferenceID and aggregates
// per-id occurrences across the resulting groups. The input must already be
// filtered to one bus and one time window, in time order.
func Analyze(msgs []*canlog.Message, cfg *Config) (*Analysis, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("track: invalid config: %w", err)
	}

	seg := NewSegmenter(cfg.ReferenceID, cfg.KeepTrailingGroup)
	for _, m := range msgs {
		if err := seg.Feed(m); err != nil {
			return nil, err
		}
	}
	seq := seg.Finish()

	an := &Analysis{
		Sequence: seq,
		Width:    cfg.Width,
		byID:     make(map[string]*Tracker),
	}
	for _, g := range seq.Groups {
		for _, id := range g.IDs() {
			tr, ok := an.byID[id]
			if !ok {
				tr = NewTracker(id)
				an.byID[id] = tr
				an.Trackers = append(an.Trackers, tr)
			}
			tr.Add(g)
		}
	}
	return an, nil
}

// Tracker returns the tracker for id. An id never seen inside a sealed
// group yields an empty tracker, not an error.
func (a *Analysis) Tracker(id string) *Tracker {
	if tr, ok := a.byID[id]; ok {
		return tr
	}
	return NewTracker(id)
}

// Candidates returns the trackers passing both the presence and the
// universal-change checks, in first-sighting order.
func (a *Analysis) Candidates() []*Tracker {
	total := a.Sequence.Count()
	var out []*Tracker
	for _, tr := range a.Trackers {
		if tr.InAllGroupsWithChange(total) {
			out = append(out, tr)
		}
	}
	return out
}
