package vision

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// FrameSourceConfig configures the FrameSource worker.
type FrameSourceConfig struct {
	DevicePath string
	Width      int
	Height     int
	Factory    FrameDeviceFactory
	LoopTrack  *LoopTracker
}

// FrameSource is the first pipeline stage: it owns the capture device and
// publishes each successfully read frame to a Slot for the Preprocessor to
// pick up. One FrameSource serves exactly one Slot[Frame], matching the
// reference MemoryManager's single fetch-frame producer.
type FrameSource struct {
	cfg    FrameSourceConfig
	out    *Slot[Frame]
	device FrameDevice
}

// NewFrameSource creates a FrameSource publishing into out.
func NewFrameSource(cfg FrameSourceConfig, out *Slot[Frame]) *FrameSource {
	return &FrameSource{cfg: cfg, out: out}
}

// Run opens the device and reads frames in a loop until ctx is cancelled.
// Transient read errors (IsTransientDeviceError) are logged and retried
// without reopening the device, mirroring the reference UDP listener's
// "continue on timeout" behavior; non-transient errors trigger a device
// reopen attempt.
func (s *FrameSource) Run(ctx context.Context) error {
	device, err := s.cfg.Factory.Open(s.cfg.DevicePath, s.cfg.Width, s.cfg.Height)
	if err != nil {
		return fmt.Errorf("vision: opening frame device %q: %w", s.cfg.DevicePath, err)
	}
	s.device = device
	defer device.Close()
	// Closing the current device on cancellation unblocks a ReadFrame that
	// is waiting for a frame.
	closeOnCancel := func(d FrameDevice) func() bool {
		return context.AfterFunc(ctx, func() { d.Close() })
	}
	stopClose := closeOnCancel(device)
	defer func() { stopClose() }()

	Opsf("framesource: started on %s (%dx%d)", s.cfg.DevicePath, s.cfg.Width, s.cfg.Height)

	for {
		select {
		case <-ctx.Done():
			Opsf("framesource: stopping, %v", ctx.Err())
			return ctx.Err()
		default:
		}

		if s.cfg.LoopTrack != nil {
			s.cfg.LoopTrack.StartIteration()
		}

		pix, w, h, err := device.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if IsTransientDeviceError(err) {
				Diagf("framesource: transient read error: %v", err)
				continue
			}
			Opsf("framesource: read error, reopening device: %v", err)
			device.Close()
			stopClose()
			device, err = s.cfg.Factory.Open(s.cfg.DevicePath, s.cfg.Width, s.cfg.Height)
			if err != nil {
				return fmt.Errorf("vision: reopening frame device %q: %w", s.cfg.DevicePath, err)
			}
			s.device = device
			stopClose = closeOnCancel(device)
			continue
		}

		s.out.Set(Frame{Pix: pix, Width: w, Height: h, Tick: uuid.New()})

		if s.cfg.LoopTrack != nil {
			s.cfg.LoopTrack.StopIteration()
		}
	}
}
