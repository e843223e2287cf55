package vision

import (
	"context"
	"testing"
	"time"

	"github.com/fieldcam/pitchvision/internal/serialport"
)

func TestRunSupervisedRestartsAfterPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 10)
	attempt := 0

	done := make(chan struct{})
	go func() {
		runSupervised(ctx, "test-worker", func(context.Context) {
			attempt++
			calls <- struct{}{}
			if attempt < 3 {
				panic("boom")
			}
			cancel()
		})
		close(done)
	}()

	for i := 0; i < 3; i++ {
		select {
		case <-calls:
		case <-time.After(time.Second):
			t.Fatalf("expected %d calls, only received %d", 3, i)
		}
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runSupervised never returned after ctx cancellation")
	}

	if attempt < 3 {
		t.Errorf("expected at least 3 attempts surviving panics, got %d", attempt)
	}
}

func TestRunSupervisedStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // already cancelled

	ran := false
	runSupervised(ctx, "never-runs", func(context.Context) { ran = true })
	if ran {
		t.Error("expected runSupervised to exit immediately on an already-cancelled context")
	}
}

func TestPipelineRunShutsDownCleanly(t *testing.T) {
	device := NewFakeFrameDevice(8, 8)
	factory := &FakeFrameDeviceFactory{Device: device}
	writer := &serialport.FakeWriter{}

	p := NewPipeline(PipelineConfig{
		FrameSource: FrameSourceConfig{DevicePath: "fake", Width: 8, Height: 8, Factory: factory},
		Preprocess: func() PreprocessConfig {
			return PreprocessConfig{CropRadius: 4, MaskField: false}
		},
		BallDetect: func() BallDetectorConfig {
			return BallDetectorConfig{MinArea: 1, MaxArea: 1000, FilterEndurance: 1}
		},
		GoalDetect: func() GoalDetectorConfig {
			return GoalDetectorConfig{MinArea: 1, MaxArea: 1000, FilterEndurance: 1, GoalPolygonEpsilonFactor: 0.03}
		},
		Writer: writer,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	device.Push(make([]byte, 8*8*3))
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Pipeline.Run never returned after cancel")
	}
}

func TestRunSupervisedRestartsAfterCleanReturn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ran := 0
	done := make(chan struct{})
	go func() {
		runSupervised(ctx, "clean", func(context.Context) {
			ran++
			if ran == 1 {
				return // returns cleanly without panicking or cancelling
			}
			cancel()
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runSupervised never returned")
	}
	if ran < 2 {
		t.Errorf("expected fn to be restarted after a clean return, got %d calls", ran)
	}
}
