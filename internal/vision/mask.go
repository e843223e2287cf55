package vision

import "math"

// CropCircle zeroes every pixel of src outside the circle of the given
// radius centred on the frame, mirroring crop_circle in the reference
// source. Pixels outside the circle are left black (0,0,0).
func CropCircle(f Frame, radius float64) CroppedFrame {
	out := make([]byte, len(f.Pix))
	copy(out, f.Pix)

	cx := float64(f.Width) / 2
	cy := float64(f.Height) / 2
	r2 := radius * radius

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			if dx*dx+dy*dy > r2 {
				idx := (y*f.Width + x) * 3
				out[idx] = 0
				out[idx+1] = 0
				out[idx+2] = 0
			}
		}
	}

	return CroppedFrame{Frame: Frame{Pix: out, Width: f.Width, Height: f.Height, Tick: f.Tick}}
}

// OrientFrame rotates a frame 90 degrees counter-clockwise and then flips
// it horizontally, matching the fixed mount orientation correction applied
// in the reference preprocess step before any color work happens. The
// output frame's width and height are swapped relative to the input.
func OrientFrame(f CroppedFrame) CroppedFrame {
	srcW, srcH := f.Width, f.Height
	dstW, dstH := srcH, srcW
	out := make([]byte, len(f.Pix))

	for outY := 0; outY < dstH; outY++ {
		for outX := 0; outX < dstW; outX++ {
			srcX := srcW - 1 - outY
			srcY := srcH - 1 - outX

			srcIdx := (srcY*srcW + srcX) * 3
			dstIdx := (outY*dstW + outX) * 3
			out[dstIdx] = f.Pix[srcIdx]
			out[dstIdx+1] = f.Pix[srcIdx+1]
			out[dstIdx+2] = f.Pix[srcIdx+2]
		}
	}

	return CroppedFrame{Frame: Frame{Pix: out, Width: dstW, Height: dstH, Tick: f.Tick}}
}

// BGRToHSV converts one BGR888 pixel to HSV with H in [0,180), S and V in
// [0,255], matching the integer-scaled convention OpenCV uses (and which the
// reference source's calibrated slider ranges assume).
func BGRToHSV(b, g, r uint8) HSV {
	rf := float64(r) / 255
	gf := float64(g) / 255
	bf := float64(b) / 255

	max := math.Max(rf, math.Max(gf, bf))
	min := math.Min(rf, math.Min(gf, bf))
	delta := max - min

	var h float64
	switch {
	case delta == 0:
		h = 0
	case max == rf:
		h = 60 * math.Mod((gf-bf)/delta, 6)
	case max == gf:
		h = 60 * ((bf-rf)/delta + 2)
	default:
		h = 60 * ((rf-gf)/delta + 4)
	}
	if h < 0 {
		h += 360
	}

	var s float64
	if max > 0 {
		s = delta / max
	}
	v := max

	hq := math.Round(h / 2) // degrees/2 to fit the 0-180 OpenCV-style range
	if hq >= 180 {
		hq -= 180
	}
	return HSV{
		H: uint8(hq),
		S: uint8(math.Round(s * 255)),
		V: uint8(math.Round(v * 255)),
	}
}

// ToHSV converts an entire cropped, oriented frame to an HSV plane, one
// value per pixel.
func ToHSV(f CroppedFrame) []HSV {
	out := make([]HSV, f.Width*f.Height)
	for i := 0; i < f.Width*f.Height; i++ {
		idx := i * 3
		b, g, r := f.Pix[idx], f.Pix[idx+1], f.Pix[idx+2]
		out[i] = BGRToHSV(b, g, r)
	}
	return out
}

// InRangeMask builds a binary Mask marking every pixel whose HSV value
// falls within rng, the Go equivalent of cv2.inRange.
func InRangeMask(hsv []HSV, width, height int, rng HSVRange) *Mask {
	m := NewMask(width, height)
	for i, c := range hsv {
		if rng.InRange(c) {
			m.Pix[i] = 255
		}
	}
	return m
}

// CloseMask applies a morphological close (dilate then erode), repeated
// iterations times, with a square structuring element of the given
// half-size, matching close_mask's use of
// cv2.morphologyEx(MORPH_CLOSE, ..., iterations=...) to fill small gaps in a
// thresholded mask. A true elliptical kernel is not worth the added
// complexity at these small kernel sizes, so a square kernel is used
// instead; see DESIGN.md.
func CloseMask(m *Mask, halfSize, iterations int) *Mask {
	cur := m
	for i := 0; i < iterations; i++ {
		cur = dilate(cur, halfSize)
	}
	for i := 0; i < iterations; i++ {
		cur = erode(cur, halfSize)
	}
	return cur
}

func dilate(m *Mask, halfSize int) *Mask {
	out := NewMask(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			found := false
			for dy := -halfSize; dy <= halfSize && !found; dy++ {
				for dx := -halfSize; dx <= halfSize; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= m.Width || ny >= m.Height {
						continue
					}
					if m.At(nx, ny) {
						found = true
						break
					}
				}
			}
			if found {
				out.Set(x, y, true)
			}
		}
	}
	return out
}

func erode(m *Mask, halfSize int) *Mask {
	out := NewMask(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			all := true
			for dy := -halfSize; dy <= halfSize && all; dy++ {
				for dx := -halfSize; dx <= halfSize; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= m.Width || ny >= m.Height {
						all = false
						break
					}
					if !m.At(nx, ny) {
						all = false
						break
					}
				}
			}
			if all {
				out.Set(x, y, true)
			}
		}
	}
	return out
}

// FieldMask derives the playing-field mask from the union of the ball and
// goal color masks: union, close to bridge gaps, take the convex hull of the
// largest resulting contour, and fill it. This mirrors preprocess's
// derivation of a single field-extent mask used to gate robot-body
// exclusion and edge noise. No hull/contour CV library appears anywhere in
// the retrieved corpus, so this composition is hand-rolled from
// FindExternalContours/ConvexHull; see DESIGN.md.
func FieldMask(masks ...*Mask) *Mask {
	if len(masks) == 0 {
		return nil
	}
	width, height := masks[0].Width, masks[0].Height
	union := NewMask(width, height)
	for _, m := range masks {
		union = union.Or(m)
	}
	closed := CloseMask(union, 3, 2)

	contours := FindExternalContours(closed)
	if len(contours) == 0 {
		// Fail open: no field boundary found means nothing gets excluded,
		// matching the mask_field=0 path in preprocess.go.
		out := NewMask(width, height)
		out.Fill(true)
		return out
	}
	largest := contours[0]
	largestArea := ContourArea(largest)
	for _, c := range contours[1:] {
		if a := ContourArea(c); a > largestArea {
			largest = c
			largestArea = a
		}
	}

	hull := ConvexHull(largest)
	out := NewMask(width, height)
	fillPolygon(out, hull)
	return out
}

// fillPolygon rasterizes a filled polygon using scanline even-odd fill.
func fillPolygon(m *Mask, poly []Point) {
	if len(poly) < 3 {
		return
	}
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range poly {
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	y0 := int(math.Max(0, math.Floor(minY)))
	y1 := int(math.Min(float64(m.Height-1), math.Ceil(maxY)))

	for y := y0; y <= y1; y++ {
		fy := float64(y) + 0.5
		var xs []float64
		n := len(poly)
		for i := 0; i < n; i++ {
			a := poly[i]
			b := poly[(i+1)%n]
			if (a.Y <= fy && b.Y > fy) || (b.Y <= fy && a.Y > fy) {
				t := (fy - a.Y) / (b.Y - a.Y)
				xs = append(xs, a.X+t*(b.X-a.X))
			}
		}
		if len(xs) < 2 {
			continue
		}
		for i := 0; i+1 < len(xs); i += 2 {
			lo, hi := xs[i], xs[i+1]
			if lo > hi {
				lo, hi = hi, lo
			}
			x0 := int(math.Max(0, math.Ceil(lo-0.5)))
			x1 := int(math.Min(float64(m.Width-1), math.Floor(hi-0.5)))
			for x := x0; x <= x1; x++ {
				m.Set(x, y, true)
			}
		}
	}
}

// ExcludeDisc clears every pixel of m within radius of (cx, cy), used to
// mask out the robot's own chassis/camera mount from the field of view.
func ExcludeDisc(m *Mask, cx, cy, radius float64) {
	r2 := radius * radius
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			if dx*dx+dy*dy <= r2 {
				m.Set(x, y, false)
			}
		}
	}
}
