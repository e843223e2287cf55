package vision

import "math"

// BallDetectorConfig holds the tunable parameters read every tick, matching
// the contour_size.ball and filter_endurance.ball parameter blocks.
type BallDetectorConfig struct {
	MinArea, MaxArea float64
	FilterEndurance  int // not-found ticks after which prediction is abandoned
	// StrictSanityBounds resolves the unit-mismatch flagged in spec.md §9:
	// when true, the predicted-state sanity box is compared in the same
	// units as the measurement (centimetres-scaled), instead of the
	// original pixel-scaled half-mask-dimension box. See SPEC_FULL.md §9.
	StrictSanityBounds bool
}

// BallDetector is the third pipeline stage for the ball: it consumes the
// orange mask and publishes a smoothed polar Detection.
type BallDetector struct {
	in     *Slot[ColorMaskSet]
	out    *Slot[DetectionSet]
	cfg    func() BallDetectorConfig
	loop   *LoopTracker
	filter *KalmanFilter

	notFoundCount int
	everFound     bool
}

// NewBallDetector creates a BallDetector reading masks from in and
// publishing full DetectionSets to out. Goal detection fields of the
// published set are left zero; the PacketSink/Annotator merge detector
// outputs upstream of transmission (SPEC_FULL.md §5).
func NewBallDetector(in *Slot[ColorMaskSet], out *Slot[DetectionSet], cfg func() BallDetectorConfig, loop *LoopTracker) *BallDetector {
	return &BallDetector{in: in, out: out, cfg: cfg, loop: loop, filter: NewKalmanFilter()}
}

// Run waits for each new mask set and publishes the ball's filtered
// Detection, until the input slot is closed.
func (d *BallDetector) Run() {
	var lastGen uint64
	for {
		masks, gen, open := d.in.Wait(lastGen)
		if !open {
			d.out.Close()
			return
		}
		lastGen = gen

		if d.loop != nil {
			d.loop.StartIteration()
		}

		raw, filtered := d.Detect(masks.Orange, masks.Width(), masks.Height())
		d.out.Set(DetectionSet{Ball: filtered, RawBall: raw, Tick: masks.Tick})

		if d.loop != nil {
			d.loop.StopIteration()
		}
	}
}

// Detect runs contour filtering, ellipse-fit-or-centroid, Kalman
// update/predict, and sanity bounding, directly mirroring detect_ball.
func (d *BallDetector) Detect(mask *Mask, width, height int) (raw, filtered Detection) {
	cfg := d.cfg()
	contours := FindExternalContours(mask)
	candidates := SortByAreaDescending(contours, cfg.MinArea, cfg.MaxArea)

	var (
		ellipse Ellipse
		found   bool
	)
	if len(candidates) > 0 {
		cnt := candidates[0]
		if e, ok := FitEllipse(cnt); ok && len(cnt) >= 5 {
			ellipse, found = e, true
		} else {
			cx, cy, m00 := Moments(cnt)
			if m00 != 0 {
				ellipse = Ellipse{Center: Point{X: cx, Y: cy}, Axes: [2]float64{2, 2}}
				found = true
			}
		}
	}

	if found {
		bearing, distance := MapPixelsToCm(width, height, ellipse.Center.X, ellipse.Center.Y)
		raw = Detection{Present: true, Bearing: bearing, Distance: distance}
		d.notFoundCount = 0

		dx, dy := PolarToCartesian(bearing, distance)
		z := [4]float64{dx, dy, ellipse.Axes[0] * 2, ellipse.Axes[1] * 2}
		d.filter.Update(z)
		d.everFound = true
	} else {
		d.notFoundCount++
	}

	if !d.everFound || d.notFoundCount > cfg.FilterEndurance {
		return raw, Detection{}
	}

	state, ok := d.filter.Predict()
	if !ok {
		return raw, Detection{}
	}

	fx, fy := state[0], state[1]
	halfW, halfH := float64(width)/2, float64(height)/2
	if cfg.StrictSanityBounds {
		// The predicted state (fx, fy) is in centimetres post-calibration
		// (it comes from PolarToCartesian on a cm-valued distance), so the
		// pixel half-extents must be run through the same calibration curve
		// before comparing, rather than compared directly in pixel units.
		boundW, boundH := mapPixelsToCmDistance(halfW), mapPixelsToCmDistance(halfH)
		if math.Abs(fx) > boundW || math.Abs(fy) > boundH {
			return raw, Detection{}
		}
	} else if fx < -halfW || fx > halfW || fy < -halfH || fy > halfH {
		return raw, Detection{}
	}

	bearing, distance := CartesianToPolar(fx, fy)
	return raw, Detection{Present: true, Bearing: bearing, Distance: distance}
}

// Width reports the mask set's shared pixel width, or 0 if no mask is set.
func (m ColorMaskSet) Width() int {
	switch {
	case m.Orange != nil:
		return m.Orange.Width
	case m.Blue != nil:
		return m.Blue.Width
	case m.Yellow != nil:
		return m.Yellow.Width
	default:
		return 0
	}
}

// Height reports the mask set's shared pixel height, or 0 if no mask is set.
func (m ColorMaskSet) Height() int {
	switch {
	case m.Orange != nil:
		return m.Orange.Height
	case m.Blue != nil:
		return m.Blue.Height
	case m.Yellow != nil:
		return m.Yellow.Height
	default:
		return 0
	}
}
