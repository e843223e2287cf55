package vision

import "sync"

// Slot is a single-writer, many-reader "latest wins" broadcast cell. A
// producer publishes a value by calling Set, which replaces the current
// value and wakes every blocked reader; there is no queueing, so a slow
// consumer simply observes the most recent value on its next Wait. This is
// the Go analogue of the per-stage threading.Condition cells in the
// reference MemoryManager: exactly one writer per slot, readers never
// mutate what they read, and the writer only publishes an
// observably-complete value (the whole struct is swapped in one step).
type Slot[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	value  T
	hasAny bool
	gen    uint64
	closed bool
}

// NewSlot creates an empty slot.
func NewSlot[T any]() *Slot[T] {
	s := &Slot[T]{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Set publishes a new value and wakes every waiter.
func (s *Slot[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	s.hasAny = true
	s.gen++
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Wait blocks until a value newer than lastGen is published, or the slot is
// closed. It returns the current value, its generation, and whether the
// slot is still open.
func (s *Slot[T]) Wait(lastGen uint64) (value T, gen uint64, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.gen == lastGen && !s.closed {
		s.cond.Wait()
	}
	return s.value, s.gen, !s.closed
}

// Get returns the current value without blocking, along with its generation
// and whether anything has ever been published.
func (s *Slot[T]) Get() (value T, gen uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.gen, s.hasAny
}

// Close marks the slot closed and wakes every blocked waiter so they can
// observe shutdown. Close is idempotent.
func (s *Slot[T]) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
}
