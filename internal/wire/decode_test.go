package wire

import (
	"bytes"
	"errors"
	"testing"
)

// liveLinkV1Header is the known prefix of a LiveLink Face v1 packet:
// version byte, big-endian u16 length, then a 36-character device ID.
func liveLinkV1Header() HeaderLayout {
	return HeaderLayout{
		{Name: "version", Width: 1, Interp: UnsignedInt},
		{Name: "length", Width: 2, ByteOrder: BigEndian, Interp: UnsignedInt},
		{Name: "deviceId", Width: 36, Interp: UTF8Text},
	}
}

func TestDecodeHeaderLiveLinkPrefix(t *testing.T) {
	deviceID := "597FCDCE-5154-44F2-B378-BCCDF34D5FDC"
	buf := append([]byte{1, 0, 36}, []byte(deviceID)...)
	buf = append(buf, 0xDE, 0xAD) // trailing payload bytes must be ignored

	h, err := DecodeHeader(buf, liveLinkV1Header())
	if err != nil {
		t.Fatalf("DecodeHeader failed: %v", err)
	}

	if v, _ := h.Uint("version"); v != 1 {
		t.Errorf("version = %d, want 1", v)
	}
	if l, _ := h.Uint("length"); l != 36 {
		t.Errorf("length = %d, want 36", l)
	}
	if id, _ := h.Text("deviceId"); id != deviceID {
		t.Errorf("deviceId = %q, want %q", id, deviceID)
	}
	if h.PayloadStart != 39 {
		t.Errorf("PayloadStart = %d, want 39", h.PayloadStart)
	}
}

func TestDecodeHeaderPayloadStartInvariant(t *testing.T) {
	layouts := []HeaderLayout{
		{{Name: "a", Width: 1, Interp: UnsignedInt}},
		{{Name: "a", Width: 4, Interp: UnsignedInt}, {Name: "b", Width: 3, Interp: Raw}},
		{{Name: "a", Width: 2, Interp: UnsignedInt}, {Name: "b", Width: 8, Interp: UTF8Text}, {Name: "c", Width: 5, Interp: Raw}},
	}
	buf := make([]byte, 64)
	for _, layout := range layouts {
		h, err := DecodeHeader(buf, layout)
		if err != nil {
			t.Fatalf("DecodeHeader failed for layout size %d: %v", layout.Size(), err)
		}
		if h.PayloadStart != layout.Size() {
			t.Errorf("PayloadStart = %d, want layout size %d", h.PayloadStart, layout.Size())
		}
	}
}

func TestDecodeHeaderTruncation(t *testing.T) {
	layout := liveLinkV1Header()
	need := layout.Size()

	// One byte short must fail with a TruncatedError naming the field.
	_, err := DecodeHeader(make([]byte, need-1), layout)
	var trunc *TruncatedError
	if !errors.As(err, &trunc) {
		t.Fatalf("expected TruncatedError, got %v", err)
	}
	if trunc.Field != "deviceId" {
		t.Errorf("truncated field = %q, want deviceId", trunc.Field)
	}
	if trunc.Offset != 3 || trunc.Needed != 36 || trunc.Available != need-1-3 {
		t.Errorf("truncation context = %+v", trunc)
	}

	// Exactly enough bytes must succeed.
	if _, err := DecodeHeader(make([]byte, need), layout); err != nil {
		t.Errorf("decode of exact-length buffer failed: %v", err)
	}
}

func TestDecodeHeaderByteOrders(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04}
	tests := []struct {
		name  string
		order ByteOrder
		want  uint64
	}{
		{"big-endian", BigEndian, 0x01020304},
		{"little-endian", LittleEndian, 0x04030201},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			layout := HeaderLayout{{Name: "v", Width: 4, ByteOrder: tc.order, Interp: UnsignedInt}}
			h, err := DecodeHeader(buf, layout)
			if err != nil {
				t.Fatalf("DecodeHeader failed: %v", err)
			}
			if v, _ := h.Uint("v"); v != tc.want {
				t.Errorf("value = 0x%X, want 0x%X", v, tc.want)
			}
		})
	}
}

func TestDecodeHeaderOddWidthUint(t *testing.T) {
	// 3-byte and 5-byte integers show up in real telemetry formats.
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	layout := HeaderLayout{{Name: "v", Width: 3, ByteOrder: LittleEndian, Interp: UnsignedInt}}
	h, err := DecodeHeader(buf, layout)
	if err != nil {
		t.Fatalf("DecodeHeader failed: %v", err)
	}
	if v, _ := h.Uint("v"); v != 0x030201 {
		t.Errorf("value = 0x%X, want 0x030201", v)
	}
}

func TestDecodeHeaderLossyText(t *testing.T) {
	// Invalid UTF-8 must not fail the decode; bytes are replaced instead.
	buf := []byte{'o', 'k', 0xFF, 0xFE, '!'}
	layout := HeaderLayout{{Name: "label", Width: 5, Interp: UTF8Text}}
	h, err := DecodeHeader(buf, layout)
	if err != nil {
		t.Fatalf("DecodeHeader failed on invalid UTF-8: %v", err)
	}
	s, _ := h.Text("label")
	if s == "" {
		t.Fatal("expected a lossy string, got empty")
	}
	for _, r := range s {
		if r == 0xFF || r == 0xFE {
			t.Errorf("invalid bytes leaked through: %q", s)
		}
	}
}

func TestDecodeHeaderRawCopies(t *testing.T) {
	buf := []byte{9, 8, 7}
	layout := HeaderLayout{{Name: "raw", Width: 3, ByteOrder: RawBytes, Interp: Raw}}
	h, err := DecodeHeader(buf, layout)
	if err != nil {
		t.Fatalf("DecodeHeader failed: %v", err)
	}
	raw, _ := h.Bytes("raw")
	if !bytes.Equal(raw, []byte{9, 8, 7}) {
		t.Fatalf("raw = %v, want [9 8 7]", raw)
	}

	// Mutating the input buffer after decoding must not alias the result.
	buf[0] = 0
	if raw[0] != 9 {
		t.Error("raw field aliases the input buffer")
	}
}

func TestLayoutValidate(t *testing.T) {
	tests := []struct {
		name   string
		layout HeaderLayout
	}{
		{"empty", HeaderLayout{}},
		{"zero width", HeaderLayout{{Name: "a", Width: 0, Interp: Raw}}},
		{"negative width", HeaderLayout{{Name: "a", Width: -1, Interp: Raw}}},
		{"unnamed", HeaderLayout{{Width: 2, Interp: Raw}}},
		{"duplicate", HeaderLayout{{Name: "a", Width: 1, Interp: Raw}, {Name: "a", Width: 1, Interp: Raw}}},
		{"wide uint", HeaderLayout{{Name: "a", Width: 9, Interp: UnsignedInt}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.layout.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
			if _, err := DecodeHeader(make([]byte, 16), tc.layout); err == nil {
				t.Error("DecodeHeader accepted invalid layout")
			}
		})
	}
}
