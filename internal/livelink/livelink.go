// Package livelink decodes Unreal LiveLink Face packets, the proprietary
// telemetry format whose payload layout was recovered with the wire and scan
// packages.
//
// Two wire versions are handled. Version 1 carries a fixed-width header and
// little-endian blendshape floats; version 6 carries length-prefixed device
// and subject strings, frame timing, and big-endian floats.
package livelink

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/banshee-data/framesift/internal/wire"
)

// UnsupportedVersionError reports a packet whose version byte names a wire
// format this package does not understand.
type UnsupportedVersionError struct {
	Version uint8
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("livelink: unsupported packet version %d (want 1 or 6)", e.Version)
}

// Frame is one decoded LiveLink Face frame.
type Frame struct {
	Version  uint8
	DeviceID string
	// DeviceUUID is set when DeviceID parses as a UUID, which it does for
	// every iOS capture observed so far. HasUUID reports validity rather
	// than failing the decode: the ID is display metadata, not structure.
	DeviceUUID uuid.UUID
	HasUUID    bool

	// v6-only metadata. Zero for v1 packets.
	Subject     string
	FrameNumber uint32
	SubFrame    uint32
	FPS         uint32
	Denominator uint32

	// Weights maps blendshape name to its decoded weight.
	Weights map[string]float32
}

// Weight returns the named blendshape weight, or 0 when absent. Mirrors the
// lenient lookup the downstream consumers use.
func (f *Frame) Weight(name string) float32 {
	return f.Weights[name]
}

// V1PrefixLayout describes the fixed-width prefix of a version 1 packet:
// version byte, big-endian device ID length, one padding byte. The device
// ID itself is sized by the length field and decoded separately.
func V1PrefixLayout() wire.HeaderLayout {
	return wire.HeaderLayout{
		{Name: "version", Width: 1, Interp: wire.UnsignedInt},
		{Name: "deviceIdLen", Width: 2, ByteOrder: wire.BigEndian, Interp: wire.UnsignedInt},
		{Name: "pad", Width: 1, Interp: wire.Raw},
	}
}

// V1HeaderLayout describes the full version 1 header as observed in
// captures: the fixed prefix, a 36-character device ID, and the 5
// unidentified bytes before the float block. Useful for scanning tools that
// want the payload start without a full frame decode; real v1 parsing sizes
// the device ID from the length field instead.
func V1HeaderLayout() wire.HeaderLayout {
	return wire.HeaderLayout{
		{Name: "version", Width: 1, Interp: wire.UnsignedInt},
		{Name: "deviceIdLen", Width: 2, ByteOrder: wire.BigEndian, Interp: wire.UnsignedInt},
		{Name: "pad", Width: 1, Interp: wire.Raw},
		{Name: "deviceId", Width: 36, Interp: wire.UTF8Text},
		{Name: "unknown", Width: 5, Interp: wire.Raw},
	}
}

// ParsePacket decodes a LiveLink packet of either supported version.
func ParsePacket(buf []byte) (*Frame, error) {
	if len(buf) == 0 {
		return nil, &wire.TruncatedError{Field: "version", Offset: 0, Needed: 1, Available: 0}
	}
	switch buf[0] {
	case 1:
		return parseV1(buf)
	case 6:
		return parseV6(buf)
	default:
		return nil, &UnsupportedVersionError{Version: buf[0]}
	}
}

// parseV1 decodes the fixed-prefix format: after the 4-byte prefix comes the
// device ID, 5 bytes of unidentified metadata, then 61 little-endian floats.
func parseV1(buf []byte) (*Frame, error) {
	h, err := wire.DecodeHeader(buf, V1PrefixLayout())
	if err != nil {
		return nil, err
	}
	version, _ := h.Uint("version")
	didLen, _ := h.Uint("deviceIdLen")

	offset := h.PayloadStart
	if offset+int(didLen) > len(buf) {
		return nil, &wire.TruncatedError{Field: "deviceId", Offset: offset, Needed: int(didLen), Available: len(buf) - offset}
	}
	deviceID := string(buf[offset : offset+int(didLen)])
	offset += int(didLen)

	// Five bytes between the device ID and the float block that have never
	// been identified in captures ("$s+\0\0" in the reference dump).
	offset += 5

	weights, err := parseWeights(buf, offset, binary.LittleEndian)
	if err != nil {
		return nil, err
	}

	f := &Frame{
		Version:  uint8(version),
		DeviceID: deviceID,
		Weights:  weights,
	}
	if u, err := uuid.Parse(deviceID); err == nil {
		f.DeviceUUID = u
		f.HasUUID = true
	}
	return f, nil
}

// parseV6 decodes the self-describing format: length-prefixed device ID and
// subject name, four 32-bit frame-time words, a blendshape count, then 61
// big-endian floats.
func parseV6(buf []byte) (*Frame, error) {
	offset := 1 // version byte already checked

	deviceID, offset, err := readPrefixedString(buf, offset, "deviceId")
	if err != nil {
		return nil, err
	}
	subject, offset, err := readPrefixedString(buf, offset, "subjectName")
	if err != nil {
		return nil, err
	}

	if offset+16 > len(buf) {
		return nil, &wire.TruncatedError{Field: "frameTime", Offset: offset, Needed: 16, Available: len(buf) - offset}
	}
	frameNumber := binary.BigEndian.Uint32(buf[offset : offset+4])
	subFrame := binary.BigEndian.Uint32(buf[offset+4 : offset+8])
	fps := binary.BigEndian.Uint32(buf[offset+8 : offset+12])
	denominator := binary.BigEndian.Uint32(buf[offset+12 : offset+16])
	offset += 16

	if offset+1 > len(buf) {
		return nil, &wire.TruncatedError{Field: "blendshapeCount", Offset: offset, Needed: 1, Available: len(buf) - offset}
	}
	count := buf[offset]
	offset++
	if count != BlendshapeCount {
		return nil, fmt.Errorf("livelink: unexpected blendshape count %d, want %d", count, BlendshapeCount)
	}

	weights, err := parseWeights(buf, offset, binary.BigEndian)
	if err != nil {
		return nil, err
	}

	f := &Frame{
		Version:     6,
		DeviceID:    deviceID,
		Subject:     subject,
		FrameNumber: frameNumber,
		SubFrame:    subFrame,
		FPS:         fps,
		Denominator: denominator,
		Weights:     weights,
	}
	if u, err := uuid.Parse(deviceID); err == nil {
		f.DeviceUUID = u
		f.HasUUID = true
	}
	return f, nil
}

// readPrefixedString reads a big-endian u32 length followed by that many
// bytes of text.
func readPrefixedString(buf []byte, offset int, field string) (string, int, error) {
	if offset+4 > len(buf) {
		return "", 0, &wire.TruncatedError{Field: field + "Len", Offset: offset, Needed: 4, Available: len(buf) - offset}
	}
	n := int(binary.BigEndian.Uint32(buf[offset : offset+4]))
	offset += 4
	if n < 0 || offset+n > len(buf) {
		return "", 0, &wire.TruncatedError{Field: field, Offset: offset, Needed: n, Available: len(buf) - offset}
	}
	s := string(buf[offset : offset+n])
	return s, offset + n, nil
}

// parseWeights decodes the 61-float blendshape block starting at offset.
func parseWeights(buf []byte, offset int, order binary.ByteOrder) (map[string]float32, error) {
	need := BlendshapeCount * 4
	if offset+need > len(buf) {
		return nil, &wire.TruncatedError{Field: "blendshapes", Offset: offset, Needed: need, Available: len(buf) - offset}
	}
	weights := make(map[string]float32, BlendshapeCount)
	for i := 0; i < BlendshapeCount; i++ {
		bits := order.Uint32(buf[offset+i*4 : offset+(i+1)*4])
		weights[BlendshapeNames[i]] = math.Float32frombits(bits)
	}
	return weights, nil
}
