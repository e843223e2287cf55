package vision

import "github.com/fieldcam/pitchvision/internal/serialport"

// PacketSink is the final pipeline stage: it merges the latest ball and
// goal Detections and writes an encoded packet to the microcontroller link
// every time either source publishes a new tick, mirroring
// SendPayloadThread's single wait-then-write loop (generalized here to two
// independent sources rather than one combined notify_all, since the ball
// and goal detectors are independent workers in this design; see
// SPEC_FULL.md §5).
type PacketSink struct {
	ballIn *Slot[DetectionSet]
	goalIn *Slot[DetectionSet]
	writer serialport.Writer
	loop   *LoopTracker
}

// NewPacketSink creates a PacketSink writing merged packets to writer.
func NewPacketSink(ballIn, goalIn *Slot[DetectionSet], writer serialport.Writer, loop *LoopTracker) *PacketSink {
	return &PacketSink{ballIn: ballIn, goalIn: goalIn, writer: writer, loop: loop}
}

// Run blocks waiting on whichever of the ball/goal slots updates first,
// merges it with the other slot's latest value, encodes a packet, and
// writes it, until both input slots are closed.
func (s *PacketSink) Run() {
	type update struct {
		val    DetectionSet
		closed bool
	}
	ballUpdates := make(chan update)
	goalUpdates := make(chan update)

	go func() {
		var gen uint64
		for {
			v, g, open := s.ballIn.Wait(gen)
			gen = g
			ballUpdates <- update{val: v, closed: !open}
			if !open {
				return
			}
		}
	}()
	go func() {
		var gen uint64
		for {
			v, g, open := s.goalIn.Wait(gen)
			gen = g
			goalUpdates <- update{val: v, closed: !open}
			if !open {
				return
			}
		}
	}()

	var ball, goal DetectionSet
	ballClosed, goalClosed := false, false

	for !(ballClosed && goalClosed) {
		select {
		case u := <-ballUpdates:
			if u.closed {
				ballClosed = true
				continue
			}
			ball = u.val
		case u := <-goalUpdates:
			if u.closed {
				goalClosed = true
				continue
			}
			goal = u.val
		}

		if s.loop != nil {
			s.loop.StartIteration()
		}

		frame := EncodePacket(ball.Ball, goal.BlueGoal, goal.YellowGoal)
		if err := s.writer.Write(frame); err != nil {
			Opsf("packetsink: write failed: %v", err)
		}

		if s.loop != nil {
			s.loop.StopIteration()
		}
	}
}
