// Package wire decodes partially-known binary wire formats.
//
// The package is built for reverse engineering: a HeaderLayout describes the
// fields of a packet prefix that are already understood, and DecodeHeader
// walks that layout over a captured buffer. Everything after the header is
// treated as opaque payload for the scan package to search.
package wire

import "fmt"

// ByteOrder selects how multi-byte fields are interpreted.
type ByteOrder int

const (
	BigEndian ByteOrder = iota
	LittleEndian
	// RawBytes marks fields whose bytes pass through without numeric
	// interpretation.
	RawBytes
)

// String returns the conventional short name for the byte order.
func (o ByteOrder) String() string {
	switch o {
	case BigEndian:
		return "be"
	case LittleEndian:
		return "le"
	case RawBytes:
		return "raw"
	default:
		return fmt.Sprintf("ByteOrder(%d)", int(o))
	}
}

// Interp selects how a field's bytes are decoded into a value.
type Interp int

const (
	// UnsignedInt decodes the field as an unsigned integer of its width.
	UnsignedInt Interp = iota
	// UTF8Text decodes the field as text. Invalid byte sequences are
	// replaced with U+FFFD rather than rejected.
	UTF8Text
	// Raw passes the field's bytes through unchanged.
	Raw
)

// FieldSpec describes a single header field: its name, byte width, byte
// order and interpretation.
type FieldSpec struct {
	Name      string
	Width     int
	ByteOrder ByteOrder
	Interp    Interp
}

// HeaderLayout is an ordered sequence of fields decoded from offset 0 of a
// buffer. Field offsets are implicit: each field starts where the previous
// one ended.
type HeaderLayout []FieldSpec

// Size returns the total number of bytes the layout occupies.
func (l HeaderLayout) Size() int {
	total := 0
	for _, f := range l {
		total += f.Width
	}
	return total
}

// Validate checks the layout for definition errors. A layout that fails
// validation can never decode any buffer, so this is reported separately
// from truncation.
func (l HeaderLayout) Validate() error {
	if len(l) == 0 {
		return fmt.Errorf("wire: layout has no fields")
	}
	seen := make(map[string]bool, len(l))
	for i, f := range l {
		if f.Name == "" {
			return fmt.Errorf("wire: field %d has no name", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("wire: duplicate field name %q", f.Name)
		}
		seen[f.Name] = true
		if f.Width <= 0 {
			return fmt.Errorf("wire: field %q has invalid width %d", f.Name, f.Width)
		}
		if f.Interp == UnsignedInt && f.Width > 8 {
			return fmt.Errorf("wire: field %q: unsigned integers wider than 8 bytes are not supported (width %d)", f.Name, f.Width)
		}
	}
	return nil
}
