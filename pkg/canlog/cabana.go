package canlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrNotCabana reports a CSV source whose header does not look like a
// Cabana export.
var ErrNotCabana = errors.New("canlog: source file must be a Cabana log file")

// Filter bounds which rows of a log are surfaced to the caller.
//
// Bus selects a single bus; the empty string keeps every bus. For Cabana
// logs the bus is the numeric bus column, for candump logs it is the
// interface name (e.g. "can0"). Start and End bound an inclusive time
// window; a zero End means no upper bound. Width is the payload width in
// bits, defaulting to 64.
type Filter struct {
	Bus   string
	Start float64
	End   float64
	Width int
}

// normalized widens zero fields to their match-all defaults.
func (f Filter) normalized() Filter {
	if f.End == 0 {
		f.End = math.Inf(1)
	}
	if f.Width == 0 {
		f.Width = 64
	}
	return f
}

// keeps reports whether a row with the given time and bus passes the filter.
func (f Filter) keeps(time float64, bus string) bool {
	if time < f.Start || time > f.End {
		return false
	}
	return f.Bus == "" || bus == f.Bus
}

// ReadStats counts how ingestion disposed of each data row.
type ReadStats struct {
	Rows     int // data rows seen
	Kept     int // rows converted into Messages
	Filtered int // rows outside the time window or on another bus
	Skipped  int // rows with no usable payload (malformed, empty, RTR)
}

// ReadCabana reads a Cabana CSV export (columns: time, message id, bus,
// data) and returns the messages passing the filter, in file order.
//
// Message ids carry a 0x prefix in current exports; bare ids are legacy
// decimal and are converted to hex. Rows whose bus column is not numeric,
// or whose payload cannot be parsed, are skipped and counted.
func ReadCabana(r io.Reader, f Filter) ([]*Message, ReadStats, error) {
	f = f.normalized()

	var stats ReadStats
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("canlog: read cabana header: %w", err)
	}
	if len(header) == 0 || header[0] != "time" {
		return nil, stats, ErrNotCabana
	}

	var msgs []*Message
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("canlog: read cabana row: %w", err)
		}
		stats.Rows++

		if len(row) < 4 {
			stats.Skipped++
			continue
		}
		time, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			stats.Skipped++
			continue
		}

		// Cabana exports end with summary lines whose bus column is not
		// numeric; those are not frames.
		bus := row[2]
		if _, err := strconv.Atoi(bus); err != nil {
			stats.Skipped++
			continue
		}

		if !f.keeps(time, bus) {
			stats.Filtered++
			continue
		}

		id, err := cabanaID(row[1])
		if err != nil {
			stats.Skipped++
			continue
		}
		data := strings.TrimPrefix(row[3], "0x")
		payload, err := ParsePayload(data, f.Width)
		if err != nil {
			stats.Skipped++
			continue
		}

		msgs = append(msgs, &Message{
			ID:      CanonicalID(bus, id),
			Time:    time,
			Data:    data,
			Payload: payload,
		})
		stats.Kept++
	}

	return msgs, stats, nil
}

// cabanaID converts the message id column into normalized hex. Ids with a
// 0x prefix are hex; bare ids come from older exports and are decimal.
func cabanaID(field string) (string, error) {
	if strings.HasPrefix(field, "0x") || strings.HasPrefix(field, "0X") {
		return NormalizeHexID(field)
	}
	n, err := strconv.ParseUint(field, 10, 64)
	if err != nil {
		return "", fmt.Errorf("canlog: message id %q: %w", field, err)
	}
	return strconv.FormatUint(n, 16), nil
}
