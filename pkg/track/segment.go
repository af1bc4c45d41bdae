package track

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/OpenTraceCAN/pkg/canlog"
)

// ErrAnchorOrder reports reference sightings whose timestamps are not
// strictly increasing. Groups are keyed by their anchor timestamp, so a
// repeated or backwards anchor means the capture is corrupt upstream.
var ErrAnchorOrder = errors.New("track: reference timestamps must be strictly increasing")

// segState is the segmenter's position in the stream.
type segState int

const (
	stateNoGroup segState = iota
	stateGroupOpen
)

func (s segState) String() string {
	switch s {
	case stateNoGroup:
		return "NoGroup"
	case stateGroupOpen:
		return "GroupOpen"
	default:
		return fmt.Sprintf("segState(%d)", int(s))
	}
}

// Segmenter splits a time-ordered message stream into Groups, opening a new
// one at every sighting of the reference id. Traffic seen before the first
// sighting is dropped.
type Segmenter struct {
	refID        string
	keepTrailing bool

	state      segState
	current    *Group
	groups     []*Group
	lastAnchor float64
}

// NewSegmenter returns a Segmenter keyed to refID (a canonical "bus:hex-id"
// string). When keepTrailing is set, Finish seals the group left open at end
// of stream instead of discarding it.
func NewSegmenter(refID string, keepTrailing bool) *Segmenter {
	return &Segmenter{
		refID:        refID,
		keepTrailing: keepTrailing,
		state:        stateNoGroup,
	}
}

// Feed advances the segmenter by one message. A reference sighting seals the
// open group (if any) and opens a new one anchored at the sighting; any
// other message joins the open group's collection for its id, or is dropped
// when no group is open yet.
func (s *Segmenter) Feed(m *canlog.Message) error {
	if m.ID == s.refID {
		if s.state == stateGroupOpen {
			if m.Time <= s.lastAnchor {
				return fmt.Errorf("%w: anchor %.6f after %.6f", ErrAnchorOrder, m.Time, s.lastAnchor)
			}
			s.groups = append(s.groups, s.current)
		}
		s.current = NewGroup(m)
		s.lastAnchor = m.Time
		s.state = stateGroupOpen
		return nil
	}

	if s.state == stateGroupOpen {
		s.current.Add(m)
	}
	return nil
}

// Finish ends the stream and returns the sealed group sequence. The group
// still open (bounded by only one reference sighting) is discarded unless
// the segmenter keeps trailing groups.
func (s *Segmenter) Finish() *Sequence {
	seq := &Sequence{Groups: s.groups}
	if s.keepTrailing && s.state == stateGroupOpen {
		seq.Groups = append(seq.Groups, s.current)
	}
	s.state = stateNoGroup
	s.current = nil
	s.groups = nil
	return seq
}
