package track

import (
	"github.com/OpenTraceLab/OpenTraceCAN/pkg/canlog"
)

// Collection is the ordered occurrences of one message id within a Group.
// Insertion order is arrival order in the source stream.
type Collection struct {
	ID       string
	Messages []*canlog.Message
}

// Add appends one occurrence.
func (c *Collection) Add(m *canlog.Message) {
	c.Messages = append(c.Messages, m)
}

// Count returns the number of occurrences, including consecutive repeats.
func (c *Collection) Count() int {
	return len(c.Messages)
}

// Deduplicate returns the ordered subsequence where a message is kept iff
// it is the first, or its payload differs from the previously kept one.
// Runs of identical payloads collapse to their first member.
func (c *Collection) Deduplicate() []*canlog.Message {
	var kept []*canlog.Message
	for _, m := range c.Messages {
		if len(kept) == 0 || m.Payload != kept[len(kept)-1].Payload {
			kept = append(kept, m)
		}
	}
	return kept
}

// Group is the span of traffic between two consecutive sightings of the
// reference message. A group accumulates non-reference traffic while open
// and is sealed when the next reference sighting arrives.
type Group struct {
	Anchor    float64         // timestamp of the opening reference sighting
	Reference *canlog.Message // the opening reference message itself

	collections map[string]*Collection
	order       []string // ids in first-sighting order
}

// NewGroup opens a group anchored at the reference message ref.
func NewGroup(ref *canlog.Message) *Group {
	return &Group{
		Anchor:      ref.Time,
		Reference:   ref,
		collections: make(map[string]*Collection),
	}
}

// Add appends a message to the collection for its id, creating the
// collection on first sight.
func (g *Group) Add(m *canlog.Message) {
	col, ok := g.collections[m.ID]
	if !ok {
		col = &Collection{ID: m.ID}
		g.collections[m.ID] = col
		g.order = append(g.order, m.ID)
	}
	col.Add(m)
}

// Collection returns the occurrences of id within the group, or nil if the
// id never appeared.
func (g *Group) Collection(id string) *Collection {
	return g.collections[id]
}

// IDs returns the distinct message ids seen in the group, in first-sighting
// order.
func (g *Group) IDs() []string {
	return g.order
}

// Sequence is the ordered list of sealed Groups produced by a Segmenter.
type Sequence struct {
	Groups []*Group
}

// Count returns the number of sealed groups.
func (s *Sequence) Count() int {
	return len(s.Groups)
}
