package vision

import "testing"

func ballTestConfig() BallDetectorConfig {
	return BallDetectorConfig{MinArea: 10, MaxArea: 5000, FilterEndurance: 2}
}

func TestBallDetectorDetectsASolidBlob(t *testing.T) {
	d := NewBallDetector(nil, nil, ballTestConfig, nil)
	mask := NewMask(100, 100)
	// Off-centre on purpose: the calibration maps the frame centre itself to
	// about 64 cm, outside the +-50 sanity box of a 100x100 mask.
	mask.FillCircle(70, 50, 10, true)

	// The filter's very first Predict() call always reports no prediction
	// (it only establishes the timestamp baseline), regardless of the
	// Update() that just ran, so the filtered detection only appears from
	// the second call onward.
	raw, filtered := d.Detect(mask, 100, 100)
	if !raw.Present {
		t.Fatal("expected a raw detection for a solid blob")
	}
	if filtered.Present {
		t.Fatal("expected no filtered detection on the very first Predict() call")
	}

	raw, filtered = d.Detect(mask, 100, 100)
	if !raw.Present {
		t.Fatal("expected a raw detection for a solid blob")
	}
	if !filtered.Present {
		t.Fatal("expected a filtered detection to follow the second measurement update")
	}
}

func TestBallDetectorNoBlobYieldsNoFilteredDetection(t *testing.T) {
	d := NewBallDetector(nil, nil, ballTestConfig, nil)
	mask := NewMask(100, 100)
	_, filtered := d.Detect(mask, 100, 100)
	if filtered.Present {
		t.Error("expected no filtered detection before any measurement has ever been seen")
	}
}

func TestBallDetectorFilterEnduranceExpiresPrediction(t *testing.T) {
	cfg := BallDetectorConfig{MinArea: 10, MaxArea: 5000, FilterEndurance: 1}
	d := NewBallDetector(nil, nil, func() BallDetectorConfig { return cfg }, nil)

	blob := NewMask(100, 100)
	blob.FillCircle(50, 50, 10, true)
	empty := NewMask(100, 100)

	// Establish state with a real detection.
	d.Detect(blob, 100, 100)
	// FilterEndurance=1 tolerates one missed tick...
	_, filtered := d.Detect(empty, 100, 100)
	_ = filtered
	// ...but not two.
	_, filtered = d.Detect(empty, 100, 100)
	if filtered.Present {
		t.Error("expected the prediction to expire once notFoundCount exceeds FilterEndurance")
	}
}
