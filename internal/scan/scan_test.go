package scan

import (
	"encoding/binary"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/framesift/internal/wire"
)

func TestScanFindsLittleEndianOne(t *testing.T) {
	// [0,0,128,63] is 1.0 little-endian. Big-endian the same bytes decode
	// to a ~4.6e-41 denormal, so a range with a non-zero floor isolates
	// the little-endian reading.
	buf := []byte{0, 0, 128, 63}

	got := ScanAll(buf, 0, InRange(0.5, 1.5))
	want := []Candidate{{Offset: 0, ByteOrder: wire.LittleEndian, Value: 1.0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestScanDefaultPredicateExample(t *testing.T) {
	// First blendshape bytes from the original LiveLink capture:
	// LE 0.0116, BE ~ -2.7e-8. Both magnitudes sit in [0,1], so the
	// default predicate keeps both interpretations for human review.
	buf := []byte{178, 233, 61, 60}
	got := ScanAll(buf, 0, nil)
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(got), got)
	}
	if got[0].ByteOrder != wire.BigEndian || got[1].ByteOrder != wire.LittleEndian {
		t.Errorf("byte order sequence wrong: %+v", got)
	}
	if le := got[1].Value; math.Abs(float64(le)-0.0116) > 0.0001 {
		t.Errorf("LE value = %v, want ~0.0116", le)
	}
}

func TestScanWindowCount(t *testing.T) {
	tests := []struct {
		length, start, want int
	}{
		{0, 0, 0},
		{3, 0, 0},
		{4, 0, 1},
		{100, 0, 97},
		{100, 39, 58},
		{100, 96, 1},
		{100, 97, 0},
		{100, 200, 0},
		{100, -5, 97},
	}
	for _, tc := range tests {
		buf := make([]byte, tc.length)
		if got := Windows(buf, tc.start); got != tc.want {
			t.Errorf("Windows(len=%d, start=%d) = %d, want %d", tc.length, tc.start, got, tc.want)
		}

		// Accept-everything predicate yields exactly two candidates per
		// window, one per byte order.
		all := ScanAll(buf, tc.start, func(float32) bool { return true })
		if len(all) != 2*tc.want {
			t.Errorf("accept-all scan(len=%d, start=%d) yielded %d, want %d",
				tc.length, tc.start, len(all), 2*tc.want)
		}
	}
}

func TestScanPredicateGating(t *testing.T) {
	buf := make([]byte, 64)
	rand.New(rand.NewSource(1)).Read(buf)

	if got := ScanAll(buf, 0, func(float32) bool { return false }); len(got) != 0 {
		t.Errorf("reject-all predicate yielded %d candidates", len(got))
	}
	if got := ScanAll(buf, 0, func(float32) bool { return true }); len(got) != 2*Windows(buf, 0) {
		t.Errorf("accept-all predicate yielded %d candidates, want %d", len(got), 2*Windows(buf, 0))
	}
}

func TestScanDeterministicAndRestartable(t *testing.T) {
	buf := make([]byte, 256)
	rand.New(rand.NewSource(7)).Read(buf)

	seq := Scan(buf, 10, nil)

	var first, second []Candidate
	for c := range seq {
		first = append(first, c)
	}
	for c := range seq {
		second = append(second, c)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("two passes over the same sequence differ (-first +second):\n%s", diff)
	}

	// Offsets must be non-decreasing, and strictly increasing between
	// candidates of the same byte order.
	for i := 1; i < len(first); i++ {
		if first[i].Offset < first[i-1].Offset {
			t.Fatalf("offsets out of order at %d: %+v then %+v", i, first[i-1], first[i])
		}
	}
}

func TestScanEarlyBreak(t *testing.T) {
	buf := make([]byte, 1024)
	// Fill with LE 0.5 everywhere so every aligned window passes.
	for i := 0; i+4 <= len(buf); i += 4 {
		binary.LittleEndian.PutUint32(buf[i:], math.Float32bits(0.5))
	}

	count := 0
	for range Scan(buf, 0, nil) {
		count++
		if count == 3 {
			break
		}
	}
	if count != 3 {
		t.Errorf("consumed %d candidates, want 3", count)
	}
}

func TestScanRejectsNaNAndInf(t *testing.T) {
	var buf []byte
	buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(float32(math.NaN())))
	buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(float32(math.Inf(1))))

	for _, c := range ScanAll(buf, 0, nil) {
		if math.IsNaN(float64(c.Value)) {
			t.Errorf("NaN candidate leaked through default predicate: %+v", c)
		}
		if math.IsInf(float64(c.Value), 0) {
			t.Errorf("Inf candidate leaked through default predicate: %+v", c)
		}
	}

	// An explicitly unbounded predicate may keep infinities.
	got := ScanAll(buf, 0, InRange(0, math.Inf(1)))
	foundInf := false
	for _, c := range got {
		if math.IsInf(float64(c.Value), 1) {
			foundInf = true
		}
	}
	if !foundInf {
		t.Error("unbounded predicate should admit +Inf")
	}
}

func TestScanParallelMatchesSequential(t *testing.T) {
	buf := make([]byte, 4096)
	rand.New(rand.NewSource(42)).Read(buf)

	want := ScanAll(buf, 17, nil)
	for _, workers := range []int{1, 2, 3, 8, 64, 0} {
		got := ScanParallel(buf, 17, nil, workers)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("workers=%d: parallel scan differs from sequential (-want +got):\n%s", workers, diff)
		}
	}
}

func TestScanParallelEmptyRange(t *testing.T) {
	if got := ScanParallel([]byte{1, 2, 3}, 0, nil, 4); got != nil {
		t.Errorf("expected nil for short buffer, got %+v", got)
	}
	if got := ScanParallel(make([]byte, 100), 99, nil, 4); got != nil {
		t.Errorf("expected nil for out-of-range start, got %+v", got)
	}
}
