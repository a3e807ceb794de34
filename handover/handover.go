// Package handover implements the single-producer/single-consumer
// spillway between a connector's blocking I/O goroutine and the task
// goroutine that polls it (spec §4.2). It exists so a connector can
// pace its own I/O independently of how fast the operator chain
// consumes records, with a bounded buffer between the two.
package handover

import (
	"sync"

	"github.com/coreflow/coreflow/element"
)

// Handover is a bounded SPSC queue of Records. Produce never blocks
// longer than the configured capacity permits; TryPollNext is the
// non-blocking consumer side.
type Handover struct {
	mu     sync.Mutex
	notify *sync.Cond
	buf    []element.Record
	cap    int
	closed bool
}

// New returns a Handover with the given capacity.
func New(capacity int) *Handover {
	h := &Handover{buf: make([]element.Record, 0, capacity), cap: capacity}
	h.notify = sync.NewCond(&h.mu)
	return h
}

// Produce is called from the I/O side. It blocks while the buffer is
// at capacity, and returns false if the Handover has been closed.
func (h *Handover) Produce(r element.Record) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for len(h.buf) >= h.cap && !h.closed {
		h.notify.Wait()
	}
	if h.closed {
		return false
	}
	h.buf = append(h.buf, r)
	h.notify.Signal()
	return true
}

// errEmpty is the error type behind ErrEmpty.
type errEmpty struct{}

func (errEmpty) Error() string { return "handover: empty" }

// ErrEmpty is returned by TryPollNext when no record is buffered.
var ErrEmpty error = errEmpty{}

// TryPollNext is called from the task/operator side. It never blocks.
func (h *Handover) TryPollNext() (element.Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.buf) == 0 {
		return element.Record{}, ErrEmpty
	}
	r := h.buf[0]
	h.buf = h.buf[1:]
	h.notify.Signal() // wake a producer waiting on capacity
	return r, nil
}

// Close propagates closure to both ends: Produce returns false and any
// remaining buffered records drain via TryPollNext until ErrEmpty.
func (h *Handover) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.notify.Broadcast()
}

// Closed reports whether Close has been called.
func (h *Handover) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
