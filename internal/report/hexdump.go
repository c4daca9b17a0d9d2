// Package report renders decode and scan results for humans. Nothing here
// feeds back into the engines; it is presentation only.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/banshee-data/framesift/internal/scan"
	"github.com/banshee-data/framesift/internal/wire"
)

const bytesPerRow = 16

// Annotate renders buf as a hex dump with the header region and candidate
// window starts marked. header may be nil when no layout is known.
func Annotate(buf []byte, header *wire.DecodedHeader, candidates []scan.Candidate) string {
	payloadStart := 0
	if header != nil {
		payloadStart = header.PayloadStart
	}

	// Candidate start offsets, deduplicated across byte orders.
	starts := make(map[int]bool, len(candidates))
	for _, c := range candidates {
		starts[c.Offset] = true
	}

	var b strings.Builder
	for row := 0; row < len(buf); row += bytesPerRow {
		end := row + bytesPerRow
		if end > len(buf) {
			end = len(buf)
		}

		fmt.Fprintf(&b, "%08x  ", row)
		for i := row; i < row+bytesPerRow; i++ {
			if i >= len(buf) {
				b.WriteString("   ")
				continue
			}
			fmt.Fprintf(&b, "%02x ", buf[i])
		}

		b.WriteString(" |")
		for i := row; i < end; i++ {
			if buf[i] >= 32 && buf[i] < 127 {
				b.WriteByte(buf[i])
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteString("|")

		// Marker line: H under header bytes, ^ under candidate starts.
		marks := markerRow(row, end, payloadStart, starts)
		if marks != "" {
			b.WriteString("\n          ")
			b.WriteString(marks)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func markerRow(row, end, payloadStart int, starts map[int]bool) string {
	var marks []byte
	used := false
	for i := row; i < end; i++ {
		var m byte = ' '
		if i < payloadStart {
			m = 'H'
			used = true
		}
		if starts[i] {
			m = '^'
			used = true
		}
		marks = append(marks, m, m, ' ')
	}
	if !used {
		return ""
	}
	return strings.TrimRight(string(marks), " ")
}

// Candidates renders a candidate list, one line per candidate, ascending by
// offset with big-endian readings first at equal offsets.
func Candidates(candidates []scan.Candidate) string {
	sorted := make([]scan.Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Offset != sorted[j].Offset {
			return sorted[i].Offset < sorted[j].Offset
		}
		return sorted[i].ByteOrder < sorted[j].ByteOrder
	})

	var b strings.Builder
	for _, c := range sorted {
		fmt.Fprintf(&b, "offset %4d  %s  %+.6f\n", c.Offset, c.ByteOrder, c.Value)
	}
	return b.String()
}

// HeaderFields renders decoded header fields in layout order.
func HeaderFields(layout wire.HeaderLayout, h *wire.DecodedHeader) string {
	var b strings.Builder
	for _, f := range layout {
		v, ok := h.Field(f.Name)
		if !ok {
			continue
		}
		switch val := v.(type) {
		case uint64:
			fmt.Fprintf(&b, "%-16s %d (0x%X)\n", f.Name, val, val)
		case string:
			fmt.Fprintf(&b, "%-16s %q\n", f.Name, val)
		case []byte:
			fmt.Fprintf(&b, "%-16s % X\n", f.Name, val)
		}
	}
	fmt.Fprintf(&b, "%-16s %d\n", "payloadStart", h.PayloadStart)
	return b.String()
}
