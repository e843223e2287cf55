package vision

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/fieldcam/pitchvision/internal/serialport"
)

// PipelineConfig bundles the construction-time configuration for every
// worker wired by Run.
type PipelineConfig struct {
	FrameSource  FrameSourceConfig
	Preprocess   func() PreprocessConfig
	BallDetect   func() BallDetectorConfig
	GoalDetect   func() GoalDetectorConfig
	Writer       serialport.Writer
}

// Pipeline owns every worker and the Slots connecting them, and supervises
// each worker's loop with restart-on-panic semantics (SPEC_FULL.md §7):
// a panic in one worker's iteration is recovered, logged, and the worker's
// loop is restarted from scratch rather than bringing the whole process
// down.
type Pipeline struct {
	Frames *Slot[Frame]
	Masks  *Slot[ColorMaskSet]
	Balls  *Slot[DetectionSet]
	Goals  *Slot[DetectionSet]

	Trackers LoopTrackers

	cfg PipelineConfig
}

// NewPipeline allocates the Slots and workers described by cfg.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	p := &Pipeline{
		Frames: NewSlot[Frame](),
		Masks:  NewSlot[ColorMaskSet](),
		Balls:  NewSlot[DetectionSet](),
		Goals:  NewSlot[DetectionSet](),
		cfg:    cfg,
	}
	p.Trackers = LoopTrackers{
		FrameSource: NewLoopTracker(0),
		Preprocess:  NewLoopTracker(0),
		BallDetect:  NewLoopTracker(0),
		GoalDetect:  NewLoopTracker(0),
		PacketSend:  NewLoopTracker(0),
		Annotate:    NewLoopTracker(0),
	}
	return p
}

// Run starts every worker and blocks until ctx is cancelled and all workers
// have exited.
func (p *Pipeline) Run(ctx context.Context) {
	var wg sync.WaitGroup

	frameSourceCfg := p.cfg.FrameSource
	frameSourceCfg.LoopTrack = p.Trackers.FrameSource
	source := NewFrameSource(frameSourceCfg, p.Frames)

	pre := NewPreprocessor(p.Frames, p.Masks, p.cfg.Preprocess, p.Trackers.Preprocess)
	ball := NewBallDetector(p.Masks, p.Balls, p.cfg.BallDetect, p.Trackers.BallDetect)
	goal := NewGoalDetector(p.Masks, p.Goals, p.cfg.GoalDetect, p.Trackers.GoalDetect)
	sink := NewPacketSink(p.Balls, p.Goals, p.cfg.Writer, p.Trackers.PacketSend)

	wg.Add(1)
	go func() {
		defer wg.Done()
		runSupervised(ctx, "framesource", func(ctx context.Context) { _ = source.Run(ctx) })
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runSupervised(ctx, "preprocess", func(context.Context) { pre.Run() })
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runSupervised(ctx, "balldetector", func(context.Context) { ball.Run() })
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runSupervised(ctx, "goaldetector", func(context.Context) { goal.Run() })
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runSupervised(ctx, "packetsink", func(context.Context) { sink.Run() })
	}()

	<-ctx.Done()
	p.Frames.Close()
	p.Masks.Close()
	p.Balls.Close()
	p.Goals.Close()
	wg.Wait()
}

// runSupervised runs fn, restarting it on panic (with a log line and stack
// trace, never a crash) and also after a normal return, until ctx is
// cancelled. This resolves the worker-crash Open Question flagged in
// spec.md §7: the surviving pipeline degrades one stage at a time rather
// than the whole process exiting.
func runSupervised(ctx context.Context, name string, fn func(context.Context)) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					Opsf("%s: recovered from panic, restarting worker: %v\n%s", name, r, debug.Stack())
				}
			}()
			fn(ctx)
		}()

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}
