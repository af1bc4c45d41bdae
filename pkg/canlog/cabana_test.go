package canlog

import (
	"errors"
	"strings"
	"testing"
)

const cabanaSample = `time,addr,bus,data
2.000000,0x2D1,0,0x11223344556677AA
2.100000,0x123,0,0xFF00
2.200000,0x123,1,0xAA
0.500000,0x123,0,0xAA
9.500000,0x123,0,0xAA
2.300000,801,0,0x22
2.400000,0x123,x,0x11
2.500000,0x123,0,
2.600000,0x123,0,0x11223344556677AABB
garbage
`

func TestReadCabana(t *testing.T) {
	f := Filter{Bus: "0", Start: 1, End: 5}
	msgs, stats, err := ReadCabana(strings.NewReader(cabanaSample), f)
	if err != nil {
		t.Fatalf("ReadCabana failed: %v", err)
	}

	if stats.Rows != 10 {
		t.Errorf("stats.Rows = %d, want 10", stats.Rows)
	}
	if stats.Kept != 3 {
		t.Errorf("stats.Kept = %d, want 3", stats.Kept)
	}
	if stats.Filtered != 3 {
		t.Errorf("stats.Filtered = %d, want 3", stats.Filtered)
	}
	if stats.Skipped != 4 {
		t.Errorf("stats.Skipped = %d, want 4", stats.Skipped)
	}

	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}

	first := msgs[0]
	if first.ID != "0:2d1" {
		t.Errorf("first.ID = %q, want %q", first.ID, "0:2d1")
	}
	if first.Time != 2.0 {
		t.Errorf("first.Time = %v, want 2.0", first.Time)
	}
	// Raw hex keeps the logged case; only the 0x prefix is stripped
	if first.Data != "11223344556677AA" {
		t.Errorf("first.Data = %q, want %q", first.Data, "11223344556677AA")
	}
	if first.Payload != 0x11223344556677AA {
		t.Errorf("first.Payload = %#x, want 0x11223344556677AA", first.Payload)
	}

	// Decimal ids from legacy exports convert to hex: 801 == 0x321
	legacy := msgs[2]
	if legacy.ID != "0:321" {
		t.Errorf("legacy.ID = %q, want %q", legacy.ID, "0:321")
	}
	if legacy.Payload != 0x22 {
		t.Errorf("legacy.Payload = %#x, want 0x22", legacy.Payload)
	}
}

func TestReadCabanaWindowInclusive(t *testing.T) {
	sample := `time,addr,bus,data
1.000000,0x123,0,0x01
2.000000,0x123,0,0x02
3.000000,0x123,0,0x03
`
	msgs, _, err := ReadCabana(strings.NewReader(sample), Filter{Bus: "0", Start: 1, End: 3})
	if err != nil {
		t.Fatalf("ReadCabana failed: %v", err)
	}
	// Window bounds are inclusive on both ends
	if len(msgs) != 3 {
		t.Errorf("expected 3 messages inside [1,3], got %d", len(msgs))
	}
}

func TestReadCabanaAllBuses(t *testing.T) {
	sample := `time,addr,bus,data
1.000000,0x123,0,0x01
1.100000,0x123,1,0x02
`
	msgs, _, err := ReadCabana(strings.NewReader(sample), Filter{})
	if err != nil {
		t.Fatalf("ReadCabana failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages with no bus filter, got %d", len(msgs))
	}
	if msgs[0].ID != "0:123" || msgs[1].ID != "1:123" {
		t.Errorf("ids = %q, %q; want 0:123, 1:123", msgs[0].ID, msgs[1].ID)
	}
}

func TestReadCabanaRejectsForeignHeader(t *testing.T) {
	_, _, err := ReadCabana(strings.NewReader("timestamp,id,data\n1,2,3\n"), Filter{})
	if !errors.Is(err, ErrNotCabana) {
		t.Errorf("expected ErrNotCabana, got %v", err)
	}
}
