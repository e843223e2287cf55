// Package serialport wraps go.bug.st/serial for the write-only link to the
// microcontroller that consumes detection packets.
package serialport

import (
	"fmt"
	"log"
	"sync"

	"go.bug.st/serial"
)

// Writer is anything that can accept a framed packet, abstracting over the
// real serial.Port so PacketSink can be exercised against a fake in tests.
type Writer interface {
	Write(frame []byte) error
	Close() error
}

// Port wraps a real go.bug.st/serial connection opened at a fixed baud rate.
type Port struct {
	mu   sync.Mutex
	port serial.Port
}

// Open opens the named serial device at the given baud rate, 8N1.
func Open(name string, baud int) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("serialport: opening %q: %w", name, err)
	}
	return &Port{port: p}, nil
}

// Write sends one already-framed packet. A write failure (for example while
// the microcontroller is still booting) is both logged and returned to the
// caller.
func (p *Port) Write(frame []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.port.Write(frame); err != nil {
		log.Printf("serialport: write failed: %v", err)
		return err
	}
	return nil
}

// Close closes the underlying port.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.port.Close()
}

// FakeWriter is an in-memory Writer for tests, recording every frame
// written.
type FakeWriter struct {
	mu     sync.Mutex
	Frames [][]byte
	closed bool
}

// Write implements Writer.
func (f *FakeWriter) Write(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), frame...)
	f.Frames = append(f.Frames, cp)
	return nil
}

// Close implements Writer.
func (f *FakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Last returns the most recently written frame, or nil if none.
func (f *FakeWriter) Last() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Frames) == 0 {
		return nil
	}
	return f.Frames[len(f.Frames)-1]
}
