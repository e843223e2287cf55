package vision

import (
	"testing"
	"time"
)

func TestLoopTrackerEmptyReturnsSentinel(t *testing.T) {
	lt := NewLoopTracker(10)
	if lt.LastLoopTime() != -1 {
		t.Error("expected -1 before any iteration")
	}
	if lt.LastFPS() != -1 {
		t.Error("expected -1 FPS before any iteration")
	}
	if lt.MeanLoopTime() != -1 || lt.MeanFPS() != -1 {
		t.Error("expected -1 means before any iteration")
	}
}

func TestLoopTrackerRecordsIterations(t *testing.T) {
	lt := NewLoopTracker(10)
	lt.StartIteration()
	time.Sleep(2 * time.Millisecond)
	lt.StopIteration()

	if lt.LastLoopTime() <= 0 {
		t.Errorf("expected positive loop time, got %v", lt.LastLoopTime())
	}

	lt.StartIteration()
	time.Sleep(2 * time.Millisecond)
	lt.StopIteration()

	if lt.LastFPS() <= 0 {
		t.Errorf("expected positive FPS after two iterations, got %v", lt.LastFPS())
	}
}

func TestLoopTrackerCapacityBoundsWindow(t *testing.T) {
	lt := NewLoopTracker(3)
	for i := 0; i < 10; i++ {
		lt.StartIteration()
		lt.StopIteration()
	}
	if len(lt.loopMS) > 3 {
		t.Errorf("expected window capped at 3, got %d", len(lt.loopMS))
	}
}
