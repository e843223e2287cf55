package vision

import (
	"strings"
	"testing"
)

func TestProfilingTextContainsExpectedSections(t *testing.T) {
	trackers := LoopTrackers{
		FrameSource: NewLoopTracker(5),
		Preprocess:  NewLoopTracker(5),
		BallDetect:  NewLoopTracker(5),
		GoalDetect:  NewLoopTracker(5),
		PacketSend:  NewLoopTracker(5),
		Annotate:    NewLoopTracker(5),
	}
	a := NewAnnotator(trackers)

	snap := AnnotatorSnapshot{
		Frame: CroppedFrame{Frame: solidFrame(10, 10, 1, 2, 3)},
		Ball: DetectionSet{
			Ball:    Detection{Present: true, Bearing: 5, Distance: 50},
			RawBall: Detection{Present: true, Bearing: 5, Distance: 50},
		},
	}

	text := a.ProfilingText(snap)
	for _, want := range []string{"PROFILING", "BALL", "BLUE GOAL", "YELLOW GOAL"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected profiling text to contain %q, got:\n%s", want, text)
		}
	}
}

func TestDetectionLineFormatsAbsentAsNone(t *testing.T) {
	line := detectionLine("Raw     ", Detection{})
	if !strings.Contains(line, "None") {
		t.Errorf("expected absent detection to render as None, got %q", line)
	}
}

func TestRollingMeanTracksRecentValues(t *testing.T) {
	r := newRollingMean(3)
	if _, ok := r.mean(); ok {
		t.Error("expected no mean before any push")
	}
	r.push(10)
	r.push(20)
	r.push(30)
	r.push(40) // capacity 3: drops the first value (10)

	mean, ok := r.mean()
	if !ok {
		t.Fatal("expected a mean after pushing values")
	}
	want := (20.0 + 30.0 + 40.0) / 3
	if mean != want {
		t.Errorf("got mean %v, want %v", mean, want)
	}
}

func TestAnnotatedFrameRendersWithoutPanicking(t *testing.T) {
	snap := AnnotatorSnapshot{
		Frame: CroppedFrame{Frame: solidFrame(20, 20, 1, 2, 3)},
		Masks: ColorMaskSet{Orange: NewMask(20, 20)},
		Ball: DetectionSet{
			Ball:    Detection{Present: true, Bearing: 0, Distance: 10},
			RawBall: Detection{Present: true, Bearing: 0, Distance: 10},
		},
	}
	img := AnnotatedFrame(snap, ViewDefault)
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 20 {
		t.Errorf("expected a 20x20 image, got bounds %v", img.Bounds())
	}

	maskImg := AnnotatedFrame(snap, ViewOrangeMask)
	if maskImg == nil {
		t.Error("expected a non-nil image for the orange mask view")
	}
}
