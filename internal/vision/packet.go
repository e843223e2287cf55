package vision

import (
	"encoding/binary"
	"math"
)

// Sentinel values marking "no detection" on the wire, matching
// np.iinfo(np.int16/uint16).max in the reference serial writer.
const (
	sentinelI16 int16  = math.MaxInt16
	sentinelU16 uint16 = math.MaxUint16

	maxDistanceCm = 400.0
)

// EncodePacket builds the fixed 14-byte little-endian payload (new-data
// flag, then angle/distance pairs for ball, blue goal, yellow goal) and
// COBS-frames it with a trailing 0x00 delimiter, ready to write to the
// serial link.
//
// Presence is read from each Detection's explicit Present flag rather than
// truthiness of Bearing/Distance, fixing the reference implementation's
// conflation of "angle or distance is exactly zero" with "not detected"
// (SPEC_FULL.md §9).
func EncodePacket(ball, blueGoal, yellowGoal Detection) []byte {
	buf := make([]byte, 14)
	binary.LittleEndian.PutUint16(buf[0:2], 1) // new_data flag, always true

	angle, dist := encodeDetection(ball)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(angle))
	binary.LittleEndian.PutUint16(buf[4:6], dist)

	angle, dist = encodeDetection(blueGoal)
	binary.LittleEndian.PutUint16(buf[6:8], uint16(angle))
	binary.LittleEndian.PutUint16(buf[8:10], dist)

	angle, dist = encodeDetection(yellowGoal)
	binary.LittleEndian.PutUint16(buf[10:12], uint16(angle))
	binary.LittleEndian.PutUint16(buf[12:14], dist)

	frame := COBSEncode(buf)
	frame = append(frame, 0x00)
	return frame
}

func encodeDetection(d Detection) (angle int16, distance uint16) {
	if !d.Present {
		return sentinelI16, sentinelU16
	}
	angle = int16(math.Round(d.Bearing * 100))
	dist := math.Round(d.Distance * 100)
	if dist > maxDistanceCm*100 {
		dist = maxDistanceCm * 100
	}
	if dist < 0 {
		dist = 0
	}
	distance = uint16(dist)
	return angle, distance
}

// DecodedPacket mirrors the fields packed by EncodePacket, used by tests
// that need to verify a round trip without a real microcontroller.
type DecodedPacket struct {
	Ball, BlueGoal, YellowGoal Detection
}

// DecodePacket reverses EncodePacket's 14-byte payload (after COBS
// decoding and delimiter removal).
func DecodePacket(buf []byte) (DecodedPacket, bool) {
	if len(buf) != 14 {
		return DecodedPacket{}, false
	}
	return DecodedPacket{
		Ball:       decodeDetection(buf[2:6]),
		BlueGoal:   decodeDetection(buf[6:10]),
		YellowGoal: decodeDetection(buf[10:14]),
	}, true
}

func decodeDetection(b []byte) Detection {
	angle := int16(binary.LittleEndian.Uint16(b[0:2]))
	distance := binary.LittleEndian.Uint16(b[2:4])
	if angle == sentinelI16 && distance == sentinelU16 {
		return Detection{}
	}
	return Detection{Present: true, Bearing: float64(angle) / 100, Distance: float64(distance) / 100}
}
