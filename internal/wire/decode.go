package wire

import (
	"fmt"
	"strings"
)

// TruncatedError reports a buffer too short for the declared layout. It
// carries enough context to diagnose a layout/version mismatch: which field
// overran the buffer, where it started, and how many bytes were needed
// versus available.
type TruncatedError struct {
	Field     string
	Offset    int
	Needed    int
	Available int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("wire: buffer truncated at field %q: need %d bytes at offset %d, %d available",
		e.Field, e.Needed, e.Offset, e.Available)
}

// DecodedHeader holds the decoded header fields and the offset at which the
// unknown payload begins.
type DecodedHeader struct {
	// PayloadStart is the offset immediately after the last header field,
	// always equal to the layout's Size.
	PayloadStart int

	fields map[string]any
}

// Uint returns the named field as an unsigned integer. The second return is
// false when the field is absent or not an integer field.
func (h *DecodedHeader) Uint(name string) (uint64, bool) {
	v, ok := h.fields[name].(uint64)
	return v, ok
}

// Text returns the named field as a string.
func (h *DecodedHeader) Text(name string) (string, bool) {
	v, ok := h.fields[name].(string)
	return v, ok
}

// Bytes returns the named field's raw bytes.
func (h *DecodedHeader) Bytes(name string) ([]byte, bool) {
	v, ok := h.fields[name].([]byte)
	return v, ok
}

// Field returns the decoded value of the named field regardless of type.
func (h *DecodedHeader) Field(name string) (any, bool) {
	v, ok := h.fields[name]
	return v, ok
}

// DecodeHeader walks layout over buf from offset 0 and returns the decoded
// fields plus the payload start offset.
//
// The only failure modes are an invalid layout and a buffer shorter than the
// layout requires (*TruncatedError). Malformed content never fails: integer
// fields always produce a value, text fields decode lossily, raw fields copy
// bytes through.
//
// buf is never mutated; raw field values are copies.
func DecodeHeader(buf []byte, layout HeaderLayout) (*DecodedHeader, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	h := &DecodedHeader{fields: make(map[string]any, len(layout))}
	offset := 0
	for _, f := range layout {
		if offset+f.Width > len(buf) {
			return nil, &TruncatedError{
				Field:     f.Name,
				Offset:    offset,
				Needed:    f.Width,
				Available: len(buf) - offset,
			}
		}
		window := buf[offset : offset+f.Width]

		switch f.Interp {
		case UnsignedInt:
			h.fields[f.Name] = decodeUint(window, f.ByteOrder)
		case UTF8Text:
			// Invalid sequences become U+FFFD.
			h.fields[f.Name] = strings.ToValidUTF8(string(window), "�")
		case Raw:
			raw := make([]byte, f.Width)
			copy(raw, window)
			h.fields[f.Name] = raw
		default:
			return nil, fmt.Errorf("wire: field %q has unknown interpretation %d", f.Name, int(f.Interp))
		}

		offset += f.Width
	}

	h.PayloadStart = offset
	return h, nil
}

// decodeUint assembles an unsigned integer of 1..8 bytes in either byte
// order. RawBytes order falls back to big-endian, which matches how header
// dumps are usually read by eye.
func decodeUint(window []byte, order ByteOrder) uint64 {
	var v uint64
	if order == LittleEndian {
		for i := len(window) - 1; i >= 0; i-- {
			v = v<<8 | uint64(window[i])
		}
		return v
	}
	for _, b := range window {
		v = v<<8 | uint64(b)
	}
	return v
}
