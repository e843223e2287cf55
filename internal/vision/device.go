package vision

import (
	"fmt"
	"sync"
)

// FrameDevice is anything that can hand back successive raw frames from a
// camera-like source. It is an abstraction over the underlying capture
// device so the FrameSource worker can be exercised against a fake in
// tests, mirroring the UDPSocket/UDPSocketFactory split used for the
// reference UDP listener.
type FrameDevice interface {
	// ReadFrame blocks until a frame is available and returns its raw BGR
	// pixels, width, and height. It returns an error for any I/O failure;
	// the caller decides whether the error is transient.
	ReadFrame() (pix []byte, width, height int, err error)
	Close() error
}

// FrameDeviceFactory opens a FrameDevice for a given device path (e.g.
// "/dev/video0"), mirroring UDPSocketFactory's role of deferring actual
// resource acquisition to a pluggable constructor.
type FrameDeviceFactory interface {
	Open(path string, width, height int) (FrameDevice, error)
}

// transientDeviceError marks a device read failure that the FrameSource
// should retry without tearing down and reopening the device, matching the
// reference UDPListener's "continue on timeout" behavior.
type transientDeviceError struct {
	err error
}

func (e *transientDeviceError) Error() string { return e.err.Error() }
func (e *transientDeviceError) Unwrap() error { return e.err }

// NewTransientDeviceError wraps err as a retry-without-teardown failure.
func NewTransientDeviceError(err error) error {
	return &transientDeviceError{err: err}
}

// IsTransientDeviceError reports whether err was produced by
// NewTransientDeviceError.
func IsTransientDeviceError(err error) bool {
	_, ok := err.(*transientDeviceError)
	return ok
}

// FakeFrameDevice is an in-memory FrameDevice for tests and for running the
// pipeline without real camera hardware attached. Frames are fed in via
// Push and consumed in FIFO order by ReadFrame; ReadFrame blocks until a
// frame is pushed or the device is closed.
type FakeFrameDevice struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  [][]byte
	width  int
	height int
	closed bool
	err    error // sticky error returned by ReadFrame once set
}

// NewFakeFrameDevice creates a fake device that will report the given
// fixed frame dimensions.
func NewFakeFrameDevice(width, height int) *FakeFrameDevice {
	d := &FakeFrameDevice{width: width, height: height}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// Push enqueues a raw BGR frame (len(pix) must equal width*height*3).
func (d *FakeFrameDevice) Push(pix []byte) {
	d.mu.Lock()
	d.queue = append(d.queue, pix)
	d.mu.Unlock()
	d.cond.Broadcast()
}

// FailNext causes the next (or current blocking) ReadFrame to return err.
// An error that IsTransientDeviceError reports as transient is returned by
// that one read and then cleared; any other error is sticky and returned by
// every later read.
func (d *FakeFrameDevice) FailNext(err error) {
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
	d.cond.Broadcast()
}

// ReadFrame implements FrameDevice.
func (d *FakeFrameDevice) ReadFrame() ([]byte, int, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for len(d.queue) == 0 && d.err == nil && !d.closed {
		d.cond.Wait()
	}
	if d.err != nil {
		err := d.err
		if !IsTransientDeviceError(err) {
			// Sticky: keep failing every subsequent read.
		} else {
			d.err = nil
		}
		return nil, 0, 0, err
	}
	if d.closed && len(d.queue) == 0 {
		return nil, 0, 0, fmt.Errorf("vision: fake device closed")
	}
	pix := d.queue[0]
	d.queue = d.queue[1:]
	return pix, d.width, d.height, nil
}

// Close implements FrameDevice.
func (d *FakeFrameDevice) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.cond.Broadcast()
	return nil
}

// FakeFrameDeviceFactory always returns the same pre-built fake device,
// ignoring the requested path, for use in tests that need to both feed
// frames and hand the factory to a FrameSource.
type FakeFrameDeviceFactory struct {
	Device *FakeFrameDevice
}

// Open implements FrameDeviceFactory.
func (f *FakeFrameDeviceFactory) Open(path string, width, height int) (FrameDevice, error) {
	if f.Device == nil {
		f.Device = NewFakeFrameDevice(width, height)
	}
	return f.Device, nil
}
