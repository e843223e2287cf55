package vision

import "testing"

func solidFrame(w, h int, b, g, r uint8) Frame {
	pix := make([]byte, w*h*3)
	for i := 0; i < w*h; i++ {
		pix[i*3] = b
		pix[i*3+1] = g
		pix[i*3+2] = r
	}
	return Frame{Pix: pix, Width: w, Height: h}
}

func TestCropCircleZeroesOutsideRadius(t *testing.T) {
	f := solidFrame(20, 20, 10, 20, 30)
	cropped := CropCircle(f, 5)
	// Corner (0,0) is well outside a radius-5 circle centred at (10,10).
	b, g, r := cropped.At(0, 0)
	if b != 0 || g != 0 || r != 0 {
		t.Errorf("expected corner pixel zeroed, got (%d,%d,%d)", b, g, r)
	}
	// Center pixel should survive.
	b, g, r = cropped.At(10, 10)
	if b != 10 || g != 20 || r != 30 {
		t.Errorf("expected center pixel preserved, got (%d,%d,%d)", b, g, r)
	}
}

func TestOrientFrameSwapsDimensions(t *testing.T) {
	f := CroppedFrame{Frame: solidFrame(4, 6, 1, 2, 3)}
	out := OrientFrame(f)
	if out.Width != 6 || out.Height != 4 {
		t.Errorf("expected dimensions swapped to (6,4), got (%d,%d)", out.Width, out.Height)
	}
}

func TestOrientFrameIsAreaPreservingBijection(t *testing.T) {
	// Distinct pixel values per position let us check every source pixel
	// lands exactly once in the output.
	w, h := 5, 3
	pix := make([]byte, w*h*3)
	for i := 0; i < w*h; i++ {
		pix[i*3] = byte(i)
	}
	f := CroppedFrame{Frame: Frame{Pix: pix, Width: w, Height: h}}
	out := OrientFrame(f)

	seen := make(map[byte]bool)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			b, _, _ := out.At(x, y)
			if seen[b] {
				t.Fatalf("pixel value %d appeared twice in oriented output", b)
			}
			seen[b] = true
		}
	}
	if len(seen) != w*h {
		t.Errorf("expected %d distinct pixels in output, got %d", w*h, len(seen))
	}
}

func TestBGRToHSVPureColors(t *testing.T) {
	// Pure blue in BGR (b=255,g=0,r=0) should hue near 120 (OpenCV 0-180 scale).
	hsv := BGRToHSV(255, 0, 0)
	if hsv.S != 255 || hsv.V != 255 {
		t.Errorf("expected full saturation/value for pure blue, got %+v", hsv)
	}
	if hsv.H < 110 || hsv.H > 130 {
		t.Errorf("expected hue near 120 for pure blue, got %d", hsv.H)
	}

	gray := BGRToHSV(128, 128, 128)
	if gray.S != 0 {
		t.Errorf("expected zero saturation for a gray pixel, got %+v", gray)
	}
}

func TestInRangeMaskSelectsMatchingPixels(t *testing.T) {
	hsv := []HSV{
		{H: 10, S: 200, V: 200},
		{H: 100, S: 200, V: 200},
	}
	rng := HSVRange{Lower: HSV{H: 0, S: 100, V: 100}, Upper: HSV{H: 20, S: 255, V: 255}}
	m := InRangeMask(hsv, 2, 1, rng)
	if !m.At(0, 0) {
		t.Error("expected pixel 0 to match the orange-like range")
	}
	if m.At(1, 0) {
		t.Error("expected pixel 1 to not match the orange-like range")
	}
}

func TestCloseMaskFillsSmallGap(t *testing.T) {
	m := NewMask(20, 20)
	m.FillCircle(5, 10, 3, true)
	m.FillCircle(13, 10, 3, true) // two discs with a 1px gap between them
	closed := CloseMask(m, 2, 2)
	if !closed.At(9, 10) {
		t.Error("expected morphological close to bridge the small gap")
	}
}

func TestFieldMaskUnionsAndHullsInputMasks(t *testing.T) {
	// Two discs 1px apart, which the closing step joins into one region
	// (only the largest region after closing is hulled).
	a := NewMask(30, 30)
	a.FillCircle(10, 15, 4, true)
	b := NewMask(30, 30)
	b.FillCircle(20, 15, 4, true)

	field := FieldMask(a, b)
	if !field.At(10, 15) || !field.At(20, 15) {
		t.Error("expected field mask to cover both source discs")
	}
	// The convex hull of two discs should also fill some of the space between them.
	if !field.At(15, 15) {
		t.Error("expected field mask's convex hull to bridge between the two discs")
	}
}

func TestExcludeDiscClearsCenter(t *testing.T) {
	m := NewMask(20, 20)
	m.Fill(true)
	ExcludeDisc(m, 10, 10, 5)
	if m.At(10, 10) {
		t.Error("expected center pixel excluded")
	}
	if !m.At(0, 0) {
		t.Error("expected corner pixel to remain set")
	}
}
