package serialport

import "testing"

func TestFakeWriterRecordsFrames(t *testing.T) {
	w := &FakeWriter{}
	if w.Last() != nil {
		t.Error("expected no frames before any Write")
	}

	w.Write([]byte{1, 2, 3})
	w.Write([]byte{4, 5})

	last := w.Last()
	if len(last) != 2 || last[0] != 4 || last[1] != 5 {
		t.Errorf("expected last frame {4,5}, got %v", last)
	}
	if len(w.Frames) != 2 {
		t.Errorf("expected 2 recorded frames, got %d", len(w.Frames))
	}
}

func TestFakeWriterCopiesFrameBytes(t *testing.T) {
	w := &FakeWriter{}
	frame := []byte{9, 9, 9}
	w.Write(frame)
	frame[0] = 0 // mutate caller's slice after the call

	if w.Frames[0][0] != 9 {
		t.Error("expected FakeWriter to copy the frame rather than alias the caller's slice")
	}
}

func TestFakeWriterClose(t *testing.T) {
	w := &FakeWriter{}
	if err := w.Close(); err != nil {
		t.Errorf("expected Close to succeed, got %v", err)
	}
}
