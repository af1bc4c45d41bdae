package canlog

import (
	"sort"
	"strings"
)

// Census summarizes an ingested log: totals, the covered time span and
// per-bus / per-id row counts.
type Census struct {
	Messages int            `json:"messages"`
	Start    float64        `json:"start"`
	End      float64        `json:"end"`
	Buses    map[string]int `json:"buses"`
	IDs      map[string]int `json:"ids"`
}

// IDCount is one id's row count, used for sorted views of a census.
type IDCount struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// TakeCensus tallies an ingested message slice.
func TakeCensus(msgs []*Message) *Census {
	c := &Census{
		Buses: make(map[string]int),
		IDs:   make(map[string]int),
	}
	for i, m := range msgs {
		if i == 0 || m.Time < c.Start {
			c.Start = m.Time
		}
		if m.Time > c.End {
			c.End = m.Time
		}
		if bus, _, ok := strings.Cut(m.ID, ":"); ok {
			c.Buses[bus]++
		}
		c.IDs[m.ID]++
	}
	c.Messages = len(msgs)
	return c
}

// TopIDs returns the n most frequent ids, most frequent first. Ties break
// by id so the order is stable.
func (c *Census) TopIDs(n int) []IDCount {
	counts := make([]IDCount, 0, len(c.IDs))
	for id, count := range c.IDs {
		counts = append(counts, IDCount{ID: id, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].ID < counts[j].ID
	})
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
