// Package scan brute-forces plausible float32 encodings out of unknown
// payload bytes.
//
// When a capture's header is decoded but the payload structure is still
// unknown, the fastest way to find footholds is to slide a 4-byte window
// across every offset and keep the interpretations that look like sane
// measurements. Alignment is unknown, so windows overlap on purpose.
package scan

import (
	"encoding/binary"
	"iter"
	"math"

	"github.com/banshee-data/framesift/internal/wire"
)

// WindowSize is the width of the sliding window: 4 bytes for IEEE-754
// single-precision floats.
const WindowSize = 4

// Candidate is one byte offset/interpretation pair that passed the
// plausibility predicate. It is a lead for human review, not a confirmed
// field.
type Candidate struct {
	Offset    int            `json:"offset"`
	ByteOrder wire.ByteOrder `json:"byte_order"`
	Value     float32        `json:"value"`
}

// Predicate decides whether a decoded float is plausible for the protocol
// under investigation.
type Predicate func(float32) bool

// InRange returns a predicate accepting values with
// minAbs <= |v| <= maxAbs. NaN fails every magnitude comparison, so NaN
// decodes are rejected without special casing; infinities only pass when
// maxAbs is itself +Inf.
func InRange(minAbs, maxAbs float64) Predicate {
	return func(v float32) bool {
		a := math.Abs(float64(v))
		return a >= minAbs && a <= maxAbs
	}
}

// DefaultPredicate matches normalised telemetry channels (weights,
// ratios) in [0, 1]. It is a starting guess, not a law of the format:
// callers decoding raw sensor units should supply their own range.
var DefaultPredicate = InRange(0, 1)

// Scan slides a 4-byte window from start to the end of buf, decoding each
// window as a big-endian and a little-endian float32, and yields every
// interpretation pred accepts. An offset can yield zero, one or two
// candidates; big-endian is yielded first.
//
// The sequence is lazy and restartable: each range over it performs a fresh
// scan, and breaking out early stops the work. A start beyond the last full
// window yields an empty sequence rather than an error. buf is only read,
// so concurrent scans over the same buffer are safe.
func Scan(buf []byte, start int, pred Predicate) iter.Seq[Candidate] {
	if pred == nil {
		pred = DefaultPredicate
	}
	if start < 0 {
		start = 0
	}
	return func(yield func(Candidate) bool) {
		scanSpan(buf, start, len(buf)-WindowSize+1, pred, yield)
	}
}

// scanSpan examines window starts in [lo, hi) in ascending order, calling
// emit for each passing candidate. It stops early when emit returns false.
func scanSpan(buf []byte, lo, hi int, pred Predicate, emit func(Candidate) bool) {
	for i := lo; i < hi; i++ {
		bits := binary.BigEndian.Uint32(buf[i : i+WindowSize])
		if v := math.Float32frombits(bits); pred(v) {
			if !emit(Candidate{Offset: i, ByteOrder: wire.BigEndian, Value: v}) {
				return
			}
		}
		bits = binary.LittleEndian.Uint32(buf[i : i+WindowSize])
		if v := math.Float32frombits(bits); pred(v) {
			if !emit(Candidate{Offset: i, ByteOrder: wire.LittleEndian, Value: v}) {
				return
			}
		}
	}
}

// ScanAll runs Scan to completion and collects the candidates.
func ScanAll(buf []byte, start int, pred Predicate) []Candidate {
	var out []Candidate
	for c := range Scan(buf, start, pred) {
		out = append(out, c)
	}
	return out
}

// Windows reports how many 4-byte windows a scan over buf from start will
// examine.
func Windows(buf []byte, start int) int {
	if start < 0 {
		start = 0
	}
	n := len(buf) - start - (WindowSize - 1)
	if n < 0 {
		return 0
	}
	return n
}
