// Package canlog reads recorded CAN bus traffic from Cabana CSV exports and
// candump log captures, normalizing frames into the Message form the tracking
// engine consumes. Readers apply bus and time-window filters and skip rows
// that cannot contribute a payload, so downstream analysis never sees
// malformed input.
package canlog

import (
	"fmt"
	"strconv"
	"strings"
)

// Message is a single CAN frame lifted from a recorded log.
type Message struct {
	ID      string  // canonical "bus:hex-id" key, e.g. "0:2d1"
	Time    float64 // capture timestamp in seconds
	Data    string  // payload hex as logged, without a 0x prefix
	Payload uint64  // payload value parsed from Data

	// BitChanges is the XOR against the previous occurrence of the same id,
	// attached during analysis. Zero until then.
	BitChanges uint64
}

// BitChangesFrom returns the XOR of m's payload against prev's.
// A nil prev means there is no earlier occurrence and the result is 0.
func (m *Message) BitChangesFrom(prev *Message) uint64 {
	if prev == nil {
		return 0
	}
	return m.Payload ^ prev.Payload
}

// ShortDesc returns a one-line summary of the message.
func (m *Message) ShortDesc() string {
	return fmt.Sprintf("%.4f - %s - %s", m.Time, m.ID, m.Data)
}

// CanonicalID builds the composite key distinguishing message types:
// the bus field as logged, a colon, and the normalized hex id.
func CanonicalID(bus, hexID string) string {
	return bus + ":" + hexID
}

// NormalizeHexID canonicalizes a hex message id: an optional 0x prefix is
// removed, leading zeros are dropped and the result is lowercased, so
// "0x2D1" and "000002d1" both map to "2d1".
func NormalizeHexID(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	if s == "" {
		return "", fmt.Errorf("canlog: empty message id")
	}
	n, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return "", fmt.Errorf("canlog: message id %q is not hex: %w", raw, err)
	}
	return strconv.FormatUint(n, 16), nil
}

// ParsePayload parses a hex payload string into its unsigned value, bounded
// by the configured bit width. Empty payloads and payloads wider than width
// bits are rejected; the readers skip such rows.
func ParsePayload(data string, width int) (uint64, error) {
	s := strings.TrimPrefix(data, "0x")
	if s == "" {
		return 0, fmt.Errorf("canlog: empty payload")
	}
	v, err := strconv.ParseUint(s, 16, width)
	if err != nil {
		return 0, fmt.Errorf("canlog: payload %q: %w", data, err)
	}
	return v, nil
}
