package vision

// GoalDetectorConfig holds the tunable parameters read every tick, matching
// the contour_size.goal and filter_endurance.goal parameter blocks.
type GoalDetectorConfig struct {
	MinArea, MaxArea float64
	FilterEndurance  int
	// GoalPolygonEpsilonFactor scales cv2.approxPolyDP's epsilon argument
	// (epsilon = factor * arc length), resolving the Open Question in
	// spec.md §9 about the bare "0.03" constant's origin; see
	// SPEC_FULL.md §9.
	GoalPolygonEpsilonFactor float64
}

// goalSide tracks the per-goal detector state (blue and yellow each get
// their own independent Kalman filter and not-found counter, mirroring
// DetectGoalsThread's two filters).
type goalSide struct {
	filter        *KalmanFilter
	notFoundCount int
	everFound     bool
}

func newGoalSide() *goalSide {
	return &goalSide{filter: NewKalmanFilter()}
}

// GoalDetector is the fourth pipeline stage: it consumes the blue and
// yellow masks and publishes smoothed polar Detections for each goal.
type GoalDetector struct {
	in   *Slot[ColorMaskSet]
	out  *Slot[DetectionSet]
	cfg  func() GoalDetectorConfig
	loop *LoopTracker

	blue   *goalSide
	yellow *goalSide
}

// NewGoalDetector creates a GoalDetector reading masks from in and
// publishing to out.
func NewGoalDetector(in *Slot[ColorMaskSet], out *Slot[DetectionSet], cfg func() GoalDetectorConfig, loop *LoopTracker) *GoalDetector {
	return &GoalDetector{in: in, out: out, cfg: cfg, loop: loop, blue: newGoalSide(), yellow: newGoalSide()}
}

// Run waits for each new mask set and publishes both goals' filtered
// Detections, until the input slot is closed.
func (d *GoalDetector) Run() {
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

		width, height := masks.Width(), masks.Height()
		rawBlue, blue, blueRect := d.detectOne(d.blue, masks.Blue, width, height)
		rawYellow, yellow, yellowRect := d.detectOne(d.yellow, masks.Yellow, width, height)

		d.out.Set(DetectionSet{
			BlueGoal:   blue,
			YellowGoal: yellow,
			RawBlue:    rawBlue,
			RawYellow:  rawYellow,
			BlueRect:   blueRect,
			YellowRect: yellowRect,
			Tick:       masks.Tick,
		})

		if d.loop != nil {
			d.loop.StopIteration()
		}
	}
}

// detectOne runs contour filtering, rect fitting with a polygon
// vertex-count sanity test, Kalman update/predict, and sanity bounding for
// one goal's mask, mirroring the shared logic duplicated for blue/yellow in
// detect_goals.
func (d *GoalDetector) detectOne(side *goalSide, mask *Mask, width, height int) (raw, filtered Detection, rect *RotatedRect) {
	if mask == nil {
		side.notFoundCount++
		return raw, filtered, nil
	}

	cfg := d.cfg()
	contours := FindExternalContours(mask)
	candidates := SortByAreaDescending(contours, cfg.MinArea, cfg.MaxArea)

	var found bool
	var r RotatedRect
	for _, cnt := range candidates {
		epsilon := cfg.GoalPolygonEpsilonFactor * ArcLength(cnt)
		poly := ApproxPolyDP(cnt, epsilon)
		if len(poly) <= 6 {
			r = MinAreaRect(cnt)
			found = true
			break
		}
	}

	if found {
		bearing, distance := MapPixelsToCm(width, height, r.Center.X, r.Center.Y)
		raw = Detection{Present: true, Bearing: bearing, Distance: distance}
		side.notFoundCount = 0
		rect = &r

		dx, dy := PolarToCartesian(bearing, distance)
		z := [4]float64{dx, dy, r.Size[0], r.Size[1]}
		side.filter.Update(z)
		side.everFound = true
	} else {
		side.notFoundCount++
	}

	if !side.everFound || side.notFoundCount > cfg.FilterEndurance {
		return raw, Detection{}, rect
	}

	state, ok := side.filter.Predict()
	if !ok {
		return raw, Detection{}, rect
	}

	fx, fy := state[0], state[1]
	// The acceptable region is twice the mask size, matching the
	// reference's explicit "on purpose" widened bound for goals.
	if fx < -float64(width) || fx > float64(width) || fy < -float64(height) || fy > float64(height) {
		return raw, Detection{}, rect
	}

	bearing, distance := CartesianToPolar(fx, fy)
	return raw, Detection{Present: true, Bearing: bearing, Distance: distance}, rect
}
