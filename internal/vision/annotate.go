package vision

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
)

// LoopTrackers names the per-worker LoopTrackers the Annotator needs to
// compose the profiling text block, mirroring self.mem.loop_trackers.
type LoopTrackers struct {
	FrameSource  *LoopTracker
	Preprocess   *LoopTracker
	BallDetect   *LoopTracker
	GoalDetect   *LoopTracker
	PacketSend   *LoopTracker
	Annotate     *LoopTracker
}

// AnnotatorSnapshot is the data the Annotator needs for one tick: the
// oriented frame it was derived from, the color masks, and both detection
// sets (raw + filtered, plus the goal rotated rects for outline drawing).
type AnnotatorSnapshot struct {
	Frame CroppedFrame
	Masks ColorMaskSet
	Ball  DetectionSet
	Goals DetectionSet
}

// Annotator is the optional debug-UI stage (out of core scope per spec.md,
// but implemented in full here as an ambient diagnostic component): it
// composes a profiling text block and a crosshair/outline-annotated frame,
// mirroring AnnotateFrameThread. It is never wired into the mandatory
// pipeline path — PacketSink does not depend on it — so a build that omits
// it still satisfies every core-scope operation.
type Annotator struct {
	trackers     LoopTrackers
	meanDistance *rollingMean
}

// NewAnnotator creates an Annotator using the given LoopTrackers for its
// profiling text.
func NewAnnotator(trackers LoopTrackers) *Annotator {
	return &Annotator{trackers: trackers, meanDistance: newRollingMean(100)}
}

// ProfilingText composes the fixed-format profiling block, directly
// mirroring the f-string block built in AnnotateFrameThread.run.
func (a *Annotator) ProfilingText(snap AnnotatorSnapshot) string {
	t := a.trackers
	text := "PROFILING\n"
	text += fmt.Sprintf("FPS Ball  : %5.1f FPS\n", t.BallDetect.LastFPS())
	text += "             Read  Mask  Ball  Goal  Send Render\n"
	text += fmt.Sprintf("FPS       : %5.1f %5.1f %5.1f %5.1f %5.1f %5.1f (FPS)\n",
		t.FrameSource.MeanFPS(), t.Preprocess.MeanFPS(), t.BallDetect.MeanFPS(),
		t.GoalDetect.MeanFPS(), t.PacketSend.MeanFPS(), t.Annotate.MeanFPS())
	text += fmt.Sprintf("Loop Time : %5.1f %5.1f %5.1f %5.1f %5.1f %5.1f (ms)\n\n",
		t.FrameSource.MeanLoopTime(), t.Preprocess.MeanLoopTime(), t.BallDetect.MeanLoopTime(),
		t.GoalDetect.MeanLoopTime(), t.PacketSend.MeanLoopTime(), t.Annotate.MeanLoopTime())

	text += "BALL\n"
	text += detectionLine("Raw     ", snap.Ball.RawBall)
	text += detectionLine("Filtered", snap.Ball.Ball)
	if snap.Ball.Ball.Present {
		a.meanDistance.push(snap.Ball.Ball.Distance)
	}
	if mean, ok := a.meanDistance.mean(); ok {
		text += fmt.Sprintf("Mean     :          %6.2f cm away\n\n", mean)
	} else {
		text += "Mean     :   None\n\n"
	}

	text += "BLUE GOAL\n"
	text += detectionLine("Raw     ", snap.Goals.RawBlue)
	text += detectionLine("Filtered", snap.Goals.BlueGoal)
	text += "YELLOW GOAL\n"
	text += detectionLine("Raw     ", snap.Goals.RawYellow)
	text += detectionLine("Filtered", snap.Goals.YellowGoal)

	return text
}

func detectionLine(label string, d Detection) string {
	if !d.Present {
		return fmt.Sprintf("%s :   None\n", label)
	}
	return fmt.Sprintf("%s : %7.2fº %6.2f cm away\n", label, d.Bearing, d.Distance)
}

// DebugView selects which overlay AnnotatedFrame renders, matching the
// reference DebugView enum.
type DebugView int

const (
	ViewDefault DebugView = iota
	ViewOrangeMask
	ViewBlueMask
	ViewYellowMask
	ViewFieldMask
)

// AnnotatedFrame renders one debug view of the frame as an *image.RGBA,
// using only the standard library (no CV/drawing dependency appears
// anywhere in the retrieved corpus for this concern; see DESIGN.md).
// ViewFieldMask has no overlay of its own (the snapshot carries no field
// mask) and renders the same as ViewDefault.
func AnnotatedFrame(snap AnnotatorSnapshot, view DebugView) *image.RGBA {
	w, h := snap.Frame.Width, snap.Frame.Height
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b, g, r := snap.Frame.At(x, y)
			img.Set(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}

	switch view {
	case ViewOrangeMask:
		drawMaskOverlay(img, snap.Masks.Orange)
		return img
	case ViewBlueMask:
		drawMaskOverlay(img, snap.Masks.Blue)
		return img
	case ViewYellowMask:
		drawMaskOverlay(img, snap.Masks.Yellow)
		return img
	}

	drawCross(img, w/2, h/2, color.RGBA{255, 255, 255, 255})
	purple := color.RGBA{240, 32, 160, 255}

	if snap.Ball.RawBall.Present {
		x, y := pixelForDetection(w, h, snap.Ball.RawBall)
		drawCross(img, x, y, color.RGBA{0, 255, 0, 255})
	}
	if snap.Ball.Ball.Present {
		x, y := pixelForDetection(w, h, snap.Ball.Ball)
		drawCross(img, x, y, purple)
	}

	if snap.Goals.RawBlue.Present {
		x, y := pixelForDetection(w, h, snap.Goals.RawBlue)
		drawCross(img, x, y, color.RGBA{0, 255, 255, 255})
	}
	if snap.Goals.BlueGoal.Present {
		x, y := pixelForDetection(w, h, snap.Goals.BlueGoal)
		drawCross(img, x, y, purple)
		if snap.Goals.BlueRect != nil {
			drawRotatedRect(img, *snap.Goals.BlueRect, color.RGBA{0, 255, 255, 255})
		}
	}

	if snap.Goals.RawYellow.Present {
		x, y := pixelForDetection(w, h, snap.Goals.RawYellow)
		drawCross(img, x, y, color.RGBA{255, 0, 0, 255})
	}
	if snap.Goals.YellowGoal.Present {
		x, y := pixelForDetection(w, h, snap.Goals.YellowGoal)
		drawCross(img, x, y, purple)
		if snap.Goals.YellowRect != nil {
			drawRotatedRect(img, *snap.Goals.YellowRect, color.RGBA{255, 0, 0, 255})
		}
	}

	return img
}

func pixelForDetection(w, h int, d Detection) (int, int) {
	x, y := MapCmToPixels(w, h, d.Bearing, d.Distance)
	return int(x), int(y)
}

func drawMaskOverlay(img *image.RGBA, m *Mask) {
	if m == nil {
		return
	}
	overlay := color.RGBA{255, 255, 255, 255}
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.At(x, y) {
				img.Set(x, y, overlay)
			}
		}
	}
}

func drawCross(img draw.Image, cx, cy int, c color.Color) {
	const half = 6
	for d := -half; d <= half; d++ {
		img.Set(cx+d, cy, c)
		img.Set(cx, cy+d, c)
	}
}

func drawRotatedRect(img draw.Image, r RotatedRect, c color.Color) {
	corners := rotatedRectCorners(r)
	for i := 0; i < 4; i++ {
		drawLine(img, corners[i], corners[(i+1)%4], c)
	}
}

func rotatedRectCorners(r RotatedRect) [4]Point {
	halfW, halfH := r.Size[0]/2, r.Size[1]/2
	local := [4]Point{{-halfW, -halfH}, {halfW, -halfH}, {halfW, halfH}, {-halfW, halfH}}
	rad := r.Angle * math.Pi / 180
	cosA, sinA := math.Cos(rad), math.Sin(rad)
	var out [4]Point
	for i, p := range local {
		out[i] = Point{
			X: r.Center.X + p.X*cosA - p.Y*sinA,
			Y: r.Center.Y + p.X*sinA + p.Y*cosA,
		}
	}
	return out
}

func drawLine(img draw.Image, a, b Point, c color.Color) {
	x0, y0 := int(a.X), int(a.Y)
	x1, y1 := int(b.X), int(b.Y)
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// rollingMean is a fixed-capacity ring buffer mean, mirroring the
// ball-distance history list capped at 100 samples in AnnotateFrameThread.
type rollingMean struct {
	capacity int
	values   []float64
}

func newRollingMean(capacity int) *rollingMean {
	return &rollingMean{capacity: capacity}
}

func (r *rollingMean) push(v float64) {
	r.values = append(r.values, v)
	if len(r.values) > r.capacity {
		r.values = r.values[1:]
	}
}

func (r *rollingMean) mean() (float64, bool) {
	if len(r.values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range r.values {
		sum += v
	}
	return sum / float64(len(r.values)), true
}
