package canlog

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// candumpLexer defines the lexical structure of candump -L log lines.
// Hex runs starting with a digit and identifier-shaped runs are separate
// token types; fields that may be either (ids, payloads) accept both.
var candumpLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r]+`},

	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},

	// ## introduces a CAN FD frame and must win over #
	{Name: "FDSep", Pattern: `##`},
	{Name: "Sep", Pattern: `#`},

	// Timestamps carry a mandatory fraction, so Float must precede Hex
	{Name: "Float", Pattern: `[0-9]+\.[0-9]+`},
	{Name: "Hex", Pattern: `[0-9][0-9A-Fa-f]*`},
	{Name: "Ident", Pattern: `[A-Za-z][A-Za-z0-9_]*`},
})

// candumpFrame is the AST for one candump log line, e.g.
//
//	(1621000.904334) can0 2D1#1122AABB
//	(1621000.904911) can0 123##31122AABB   (CAN FD, flags nibble then data)
//	(1621000.905421) can0 456#R            (remote request, no payload)
type candumpFrame struct {
	Time  string  `LParen @Float RParen`
	Iface string  `@Ident`
	ID    string  `@(Hex | Ident)`
	FD    *string `( FDSep @(Hex | Ident)`
	Data  *string `| Sep @(Hex | Ident)? )`
}

var candumpParser = participle.MustBuild[candumpFrame](
	participle.Lexer(candumpLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// ReadCandump reads a candump -L capture line by line and returns the
// messages passing the filter, in file order. The bus filter matches the
// interface name verbatim. Remote requests, zero-length frames and lines
// that do not parse are skipped and counted; CAN FD frames contribute
// their payload with the flags nibble stripped.
func ReadCandump(r io.Reader, f Filter) ([]*Message, ReadStats, error) {
	f = f.normalized()

	var (
		stats ReadStats
		msgs  []*Message
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		stats.Rows++

		frame, err := candumpParser.ParseString("", line)
		if err != nil {
			stats.Skipped++
			continue
		}

		data, ok := frame.payload()
		if !ok {
			stats.Skipped++
			continue
		}

		time, err := strconv.ParseFloat(frame.Time, 64)
		if err != nil {
			stats.Skipped++
			continue
		}
		if !f.keeps(time, frame.Iface) {
			stats.Filtered++
			continue
		}

		id, err := NormalizeHexID(frame.ID)
		if err != nil {
			stats.Skipped++
			continue
		}
		payload, err := ParsePayload(data, f.Width)
		if err != nil {
			stats.Skipped++
			continue
		}

		msgs = append(msgs, &Message{
			ID:      CanonicalID(frame.Iface, id),
			Time:    time,
			Data:    data,
			Payload: payload,
		})
		stats.Kept++
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("canlog: read candump log: %w", err)
	}

	return msgs, stats, nil
}

// payload extracts the data hex of a parsed frame. The second return is
// false for frames without one: remote requests, zero-length frames and
// FD frames carrying only the flags nibble.
func (fr *candumpFrame) payload() (string, bool) {
	if fr.FD != nil {
		// First character is the FD flags nibble
		if len(*fr.FD) < 2 {
			return "", false
		}
		return (*fr.FD)[1:], true
	}
	if fr.Data == nil || *fr.Data == "" || strings.HasPrefix(*fr.Data, "R") {
		return "", false
	}
	return *fr.Data, true
}
