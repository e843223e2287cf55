package vision

import "testing"

func goalTestConfig() GoalDetectorConfig {
	return GoalDetectorConfig{MinArea: 50, MaxArea: 50000, FilterEndurance: 2, GoalPolygonEpsilonFactor: 0.03}
}

func TestGoalDetectorDetectsARectangularBlob(t *testing.T) {
	d := NewGoalDetector(nil, nil, goalTestConfig, nil)
	mask := NewMask(100, 100)
	for y := 30; y < 70; y++ {
		for x := 10; x < 30; x++ {
			mask.Set(x, y, true)
		}
	}

	// The filter's very first Predict() call always reports no prediction
	// (it only establishes the timestamp baseline), so the filtered
	// detection only appears from the second call onward.
	raw, filtered, rect := d.detectOne(d.blue, mask, 100, 100)
	if !raw.Present {
		t.Fatal("expected a raw detection for a rectangular blob")
	}
	if filtered.Present {
		t.Fatal("expected no filtered detection on the very first Predict() call")
	}
	if rect == nil {
		t.Error("expected a non-nil rotated rect for a matched goal")
	}

	raw, filtered, rect = d.detectOne(d.blue, mask, 100, 100)
	if !raw.Present {
		t.Fatal("expected a raw detection for a rectangular blob")
	}
	if !filtered.Present {
		t.Fatal("expected the second measurement to yield a filtered detection")
	}
	if rect == nil {
		t.Error("expected a non-nil rotated rect for a matched goal")
	}
}

func TestGoalDetectorNilMaskCountsAsNotFound(t *testing.T) {
	d := NewGoalDetector(nil, nil, goalTestConfig, nil)
	raw, filtered, rect := d.detectOne(d.blue, nil, 100, 100)
	if raw.Present || filtered.Present {
		t.Error("expected no detection for a nil mask")
	}
	if rect != nil {
		t.Error("expected a nil rect for a nil mask")
	}
	if d.blue.notFoundCount != 1 {
		t.Errorf("expected notFoundCount incremented to 1, got %d", d.blue.notFoundCount)
	}
}

func TestGoalDetectorBlueAndYellowAreIndependent(t *testing.T) {
	d := NewGoalDetector(nil, nil, goalTestConfig, nil)
	blueMask := NewMask(100, 100)
	for y := 30; y < 70; y++ {
		for x := 10; x < 30; x++ {
			blueMask.Set(x, y, true)
		}
	}
	d.detectOne(d.blue, blueMask, 100, 100)
	_, _, _ = d.detectOne(d.yellow, nil, 100, 100)

	if !d.blue.everFound {
		t.Error("expected blue side to have recorded a detection")
	}
	if d.yellow.everFound {
		t.Error("expected yellow side to remain unfound, independent of blue")
	}
}
