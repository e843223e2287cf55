package vision

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestEncodeDecodePacketRoundTrip(t *testing.T) {
	ball := Detection{Present: true, Bearing: 12.34, Distance: 56.78}
	blue := Detection{Present: false}
	yellow := Detection{Present: true, Bearing: -179.99, Distance: 0}

	frame := EncodePacket(ball, blue, yellow)
	if len(frame) == 0 || frame[len(frame)-1] != 0x00 {
		t.Fatalf("expected frame to end with 0x00 delimiter, got %v", frame)
	}

	raw, err := COBSDecode(frame[:len(frame)-1])
	if err != nil {
		t.Fatalf("cobs decode failed: %v", err)
	}

	decoded, ok := DecodePacket(raw)
	if !ok {
		t.Fatalf("DecodePacket rejected a valid payload of length %d", len(raw))
	}

	if !decoded.Ball.Present || math.Abs(decoded.Ball.Bearing-ball.Bearing) > 0.01 || math.Abs(decoded.Ball.Distance-ball.Distance) > 0.01 {
		t.Errorf("ball mismatch: got %+v want %+v", decoded.Ball, ball)
	}
	if decoded.BlueGoal.Present {
		t.Errorf("blue goal should decode as absent, got %+v", decoded.BlueGoal)
	}
	if !decoded.YellowGoal.Present || math.Abs(decoded.YellowGoal.Bearing-yellow.Bearing) > 0.01 {
		t.Errorf("yellow goal mismatch: got %+v want %+v", decoded.YellowGoal, yellow)
	}
}

func TestEncodePacketZeroValuedDetectionIsNotAbsent(t *testing.T) {
	// A real detection at bearing=0, distance=0 must still be transmitted as
	// present: this is the truthy-zero bug the explicit Present flag fixes.
	zero := Detection{Present: true, Bearing: 0, Distance: 0}
	frame := EncodePacket(zero, Detection{}, Detection{})
	raw, err := COBSDecode(frame[:len(frame)-1])
	if err != nil {
		t.Fatalf("cobs decode failed: %v", err)
	}
	decoded, ok := DecodePacket(raw)
	if !ok {
		t.Fatal("DecodePacket rejected payload")
	}
	if !decoded.Ball.Present {
		t.Error("a zero-valued but present detection must round-trip as present")
	}
}

func TestEncodeDetectionClampsDistance(t *testing.T) {
	d := Detection{Present: true, Bearing: 0, Distance: 10000}
	_, dist := encodeDetection(d)
	if dist != uint16(maxDistanceCm*100) {
		t.Errorf("expected distance clamped to %v, got %v", maxDistanceCm*100, dist)
	}
}

func TestEncodeDecodePacketStructuralDiff(t *testing.T) {
	want := DecodedPacket{
		Ball:       Detection{Present: true, Bearing: 45, Distance: 120},
		BlueGoal:   Detection{},
		YellowGoal: Detection{Present: true, Bearing: -90, Distance: 10},
	}

	frame := EncodePacket(want.Ball, want.BlueGoal, want.YellowGoal)
	raw, err := COBSDecode(frame[:len(frame)-1])
	if err != nil {
		t.Fatalf("cobs decode failed: %v", err)
	}
	got, ok := DecodePacket(raw)
	if !ok {
		t.Fatal("DecodePacket rejected payload")
	}

	// Angle/distance are quantized at encode time (int16/uint16 fixed point),
	// so compare with a tolerance rather than exact equality.
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 0.01)); diff != "" {
		t.Errorf("decoded packet mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodePacketRejectsWrongLength(t *testing.T) {
	if _, ok := DecodePacket(make([]byte, 10)); ok {
		t.Error("expected DecodePacket to reject a non-14-byte buffer")
	}
}
