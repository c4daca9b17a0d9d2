package report

import (
	"strings"
	"testing"

	"github.com/banshee-data/framesift/internal/scan"
	"github.com/banshee-data/framesift/internal/wire"
)

func TestAnnotateMarksHeaderAndCandidates(t *testing.T) {
	buf := append([]byte{1, 0, 36}, []byte("ABCDEFGHIJKLM")...)
	layout := wire.HeaderLayout{
		{Name: "version", Width: 1, Interp: wire.UnsignedInt},
		{Name: "length", Width: 2, ByteOrder: wire.BigEndian, Interp: wire.UnsignedInt},
	}
	h, err := wire.DecodeHeader(buf, layout)
	if err != nil {
		t.Fatal(err)
	}

	out := Annotate(buf, h, []scan.Candidate{{Offset: 5, ByteOrder: wire.LittleEndian, Value: 0.5}})

	if !strings.Contains(out, "00000000") {
		t.Error("missing offset column")
	}
	if !strings.Contains(out, "ABCDEFGHIJKLM") {
		t.Error("missing ASCII panel")
	}
	if !strings.Contains(out, "H") {
		t.Error("missing header marker")
	}
	if !strings.Contains(out, "^") {
		t.Error("missing candidate marker")
	}
}

func TestAnnotateNoHeader(t *testing.T) {
	out := Annotate([]byte{0, 1, 2}, nil, nil)
	if strings.Contains(out, "H") {
		t.Errorf("unexpected header marker in %q", out)
	}
}

func TestCandidatesOrdering(t *testing.T) {
	out := Candidates([]scan.Candidate{
		{Offset: 9, ByteOrder: wire.LittleEndian, Value: 0.25},
		{Offset: 2, ByteOrder: wire.LittleEndian, Value: 1.0},
		{Offset: 2, ByteOrder: wire.BigEndian, Value: 0.5},
	})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "be") || !strings.Contains(lines[1], "le") {
		t.Errorf("equal offsets not ordered be-first:\n%s", out)
	}
	if !strings.Contains(lines[2], "offset    9") {
		t.Errorf("candidates not sorted by offset:\n%s", out)
	}
}

func TestHeaderFields(t *testing.T) {
	layout := wire.HeaderLayout{
		{Name: "version", Width: 1, Interp: wire.UnsignedInt},
		{Name: "tag", Width: 2, Interp: wire.UTF8Text},
		{Name: "magic", Width: 2, Interp: wire.Raw},
	}
	h, err := wire.DecodeHeader([]byte{7, 'h', 'i', 0xCA, 0xFE}, layout)
	if err != nil {
		t.Fatal(err)
	}
	out := HeaderFields(layout, h)
	for _, want := range []string{"version", "7", `"hi"`, "CA FE", "payloadStart", "5"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
