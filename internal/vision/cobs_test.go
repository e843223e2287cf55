package vision

import (
	"bytes"
	"testing"
)

func TestCOBSRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0x01},
		{0x00},
		{0x00, 0x00},
		{0x11, 0x22, 0x00, 0x33},
		bytes.Repeat([]byte{0x01}, 300), // exercises the 0xFF block-length wrap
		{0x00, 0x01, 0x02, 0x00, 0x00, 0x03},
	}
	for _, c := range cases {
		encoded := COBSEncode(c)
		for _, b := range encoded {
			if b == 0x00 {
				t.Fatalf("encoded frame for %v must contain no zero bytes, got %v", c, encoded)
			}
		}
		decoded, err := COBSDecode(encoded)
		if err != nil {
			t.Fatalf("decode failed for %v: %v", c, err)
		}
		if !bytes.Equal(decoded, c) {
			t.Errorf("round trip mismatch: in=%v decoded=%v", c, decoded)
		}
	}
}

func TestCOBSDecodeRejectsZeroCodeByte(t *testing.T) {
	_, err := COBSDecode([]byte{0x00, 0x01})
	if err == nil {
		t.Fatal("expected error for a zero code byte")
	}
}

func TestCOBSDecodeRejectsOverrun(t *testing.T) {
	_, err := COBSDecode([]byte{0x05, 0x01, 0x02})
	if err == nil {
		t.Fatal("expected error for an overrunning code byte")
	}
}
