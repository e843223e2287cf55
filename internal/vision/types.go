// Package vision implements the real-time perception pipeline: frame
// capture, preprocessing into color masks, ball/goal detection with Kalman
// smoothing, and packet encoding for the downstream microcontroller.
package vision

import (
	"image"

	"github.com/google/uuid"
)

// Frame is a raw BGR raster captured from the camera at a fixed resolution.
// It is produced once by FrameSource and consumed once by the Preprocessor.
type Frame struct {
	Pix    []byte // row-major BGR, 3 bytes per pixel
	Width  int
	Height int
	Tick   uuid.UUID
}

// At returns the BGR triple at (x, y).
func (f *Frame) At(x, y int) (b, g, r uint8) {
	i := (y*f.Width + x) * 3
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Bounds reports the frame's pixel rectangle.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// CroppedFrame is the square-ish raster produced by circular cropping,
// 90-degree rotation, and horizontal flip. Its pixel center corresponds to
// the physical center of the robot.
type CroppedFrame struct {
	Frame
}

// Mask is a single-channel binary raster (255/0), pixel-aligned with the
// CroppedFrame it was derived from.
type Mask struct {
	Pix    []byte
	Width  int
	Height int
}

// NewMask allocates a zeroed mask of the given size.
func NewMask(w, h int) *Mask {
	return &Mask{Pix: make([]byte, w*h), Width: w, Height: h}
}

// At reports whether the pixel at (x, y) is set.
func (m *Mask) At(x, y int) bool {
	return m.Pix[y*m.Width+x] != 0
}

// Set marks the pixel at (x, y).
func (m *Mask) Set(x, y int, on bool) {
	if on {
		m.Pix[y*m.Width+x] = 255
	} else {
		m.Pix[y*m.Width+x] = 0
	}
}

// And returns a new mask that is the pixelwise AND of m and other. Both
// masks must share the same dimensions.
func (m *Mask) And(other *Mask) *Mask {
	out := NewMask(m.Width, m.Height)
	for i := range out.Pix {
		if m.Pix[i] != 0 && other.Pix[i] != 0 {
			out.Pix[i] = 255
		}
	}
	return out
}

// Or returns a new mask that is the pixelwise OR of m and other.
func (m *Mask) Or(other *Mask) *Mask {
	out := NewMask(m.Width, m.Height)
	for i := range out.Pix {
		if m.Pix[i] != 0 || other.Pix[i] != 0 {
			out.Pix[i] = 255
		}
	}
	return out
}

// Fill sets every pixel to on.
func (m *Mask) Fill(on bool) {
	var v byte
	if on {
		v = 255
	}
	for i := range m.Pix {
		m.Pix[i] = v
	}
}

// FillCircle paints a filled disc of the given radius centred at (cx, cy).
func (m *Mask) FillCircle(cx, cy, radius int, on bool) {
	r2 := radius * radius
	for y := cy - radius; y <= cy+radius; y++ {
		if y < 0 || y >= m.Height {
			continue
		}
		dy := y - cy
		for x := cx - radius; x <= cx+radius; x++ {
			if x < 0 || x >= m.Width {
				continue
			}
			dx := x - cx
			if dx*dx+dy*dy <= r2 {
				m.Set(x, y, on)
			}
		}
	}
}

// ColorMaskSet holds the named color masks produced by the Preprocessor for
// a single tick, all sharing the CroppedFrame's dimensions. The Preprocessor
// fills Orange, Blue and Yellow and leaves Green nil.
type ColorMaskSet struct {
	Orange *Mask
	Blue   *Mask
	Yellow *Mask
	Green  *Mask
	Tick   uuid.UUID
}

// HSV is an 8-bit HSV triple using OpenCV's convention: H in [0,179], S and V
// in [0,255].
type HSV struct {
	H, S, V uint8
}

// HSVRange is an inclusive lower/upper bound pair for inRange-style masking.
type HSVRange struct {
	Lower HSV
	Upper HSV
}

// InRange reports whether c falls within the inclusive range.
func (r HSVRange) InRange(c HSV) bool {
	return c.H >= r.Lower.H && c.H <= r.Upper.H &&
		c.S >= r.Lower.S && c.S <= r.Upper.S &&
		c.V >= r.Lower.V && c.V <= r.Upper.V
}

// Detection is an optional (bearing, distance) polar measurement. Presence
// is tracked explicitly rather than via a truthy-zero check against bearing
// or distance, which the original source conflated with "no detection" (see
// SPEC_FULL.md §9) — a real detection at bearing or distance exactly 0 must
// still be transmitted.
type Detection struct {
	Present  bool
	Bearing  float64 // degrees, (-180, 180]
	Distance float64 // centimetres, >= 0
}

// DetectionSet is the triple published by the detectors and consumed by
// PacketSink and the Annotator.
type DetectionSet struct {
	Ball        Detection
	BlueGoal    Detection
	YellowGoal  Detection
	Tick        uuid.UUID
	RawBall     Detection
	RawBlue     Detection
	RawYellow   Detection
	BlueRect    *RotatedRect
	YellowRect  *RotatedRect
}
