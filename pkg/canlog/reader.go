package canlog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Format identifies a supported log layout.
type Format string

const (
	FormatCabana  Format = "cabana"
	FormatCandump Format = "candump"
)

// DetectFormat inspects the buffered start of a log and decides its layout:
// candump lines open with a parenthesized timestamp, anything else is
// treated as a Cabana CSV (whose header is validated by the reader).
func DetectFormat(br *bufio.Reader) (Format, error) {
	peek, err := br.Peek(64)
	if len(peek) == 0 {
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("canlog: detect log format: %w", err)
		}
		return "", fmt.Errorf("canlog: empty log")
	}
	for _, b := range peek {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '(':
			return FormatCandump, nil
		default:
			return FormatCabana, nil
		}
	}
	return "", fmt.Errorf("canlog: cannot detect log format")
}

// Read detects the format on r and dispatches to the matching reader.
func Read(r io.Reader, f Filter) ([]*Message, ReadStats, error) {
	br := bufio.NewReader(r)
	format, err := DetectFormat(br)
	if err != nil {
		return nil, ReadStats{}, err
	}
	switch format {
	case FormatCandump:
		return ReadCandump(br, f)
	default:
		return ReadCabana(br, f)
	}
}

// ReadFile opens a log file, transparently decompressing .gz, .zst and
// .lz4 captures, and reads it with the filter applied.
func ReadFile(path string, f Filter) ([]*Message, ReadStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, ReadStats{}, fmt.Errorf("canlog: open log: %w", err)
	}
	defer file.Close()

	r, closer, err := decompress(path, file)
	if err != nil {
		return nil, ReadStats{}, err
	}
	defer closer()

	return Read(r, f)
}

// decompress wraps file in the decoder matching the path's extension.
// Unrecognized extensions pass through unchanged.
func decompress(path string, file io.Reader) (io.Reader, func(), error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(file)
		if err != nil {
			return nil, nil, fmt.Errorf("canlog: open gzip log: %w", err)
		}
		return zr, func() { zr.Close() }, nil
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(file)
		if err != nil {
			return nil, nil, fmt.Errorf("canlog: open zstd log: %w", err)
		}
		return zr, zr.Close, nil
	case strings.HasSuffix(path, ".lz4"):
		return lz4.NewReader(file), func() {}, nil
	}
	return file, func() {}, nil
}
