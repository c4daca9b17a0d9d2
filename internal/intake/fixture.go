// Package intake acquires capture buffers for decoding: dump files, hex
// fixtures, live UDP, serial ports, and (behind the pcap build tag) packet
// captures. The decode and scan engines only ever see plain byte slices;
// everything here is plumbing.
package intake

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseByteDump parses a human-readable byte dump into a buffer. Accepted
// tokens are decimal or 0x-prefixed bytes separated by commas or
// whitespace, with optional surrounding brackets; this covers the list
// format that debugger consoles and probe scripts print, e.g.
// "[1, 0, 36, 0, 53, ...]".
func ParseByteDump(s string) ([]byte, error) {
	s = strings.NewReplacer("[", " ", "]", " ", "(", " ", ")", " ", ",", " ").Replace(s)
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, fmt.Errorf("intake: byte dump is empty")
	}
	buf := make([]byte, 0, len(fields))
	for i, tok := range fields {
		v, err := strconv.ParseUint(tok, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("intake: bad byte token %q at position %d: %w", tok, i, err)
		}
		buf = append(buf, byte(v))
	}
	return buf, nil
}

// ParseHexDump parses a contiguous or whitespace-separated hex string.
func ParseHexDump(s string) ([]byte, error) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ' ' || r == '\n' || r == '\t' || r == '\r':
		default:
			b.WriteRune(r)
		}
	}
	buf, err := hex.DecodeString(b.String())
	if err != nil {
		return nil, fmt.Errorf("intake: bad hex dump: %w", err)
	}
	return buf, nil
}

// ReadBufferFile loads a capture buffer from a file. Files ending in .txt
// or .list are parsed as byte dumps, .hex files as hex dumps; anything else
// is read as raw bytes.
func ReadBufferFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("intake: read %s: %w", path, err)
	}
	switch {
	case strings.HasSuffix(path, ".txt"), strings.HasSuffix(path, ".list"):
		return ParseByteDump(string(data))
	case strings.HasSuffix(path, ".hex"):
		return ParseHexDump(string(data))
	default:
		return data, nil
	}
}
