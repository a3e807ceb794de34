// Package channel implements the single typed queue abstraction that
// all inter-task and intra-task queueing goes through (spec §4.1), so
// that backpressure, observability, and draining stay uniform. Both
// base modes share one implementation: Bounded channels are a native
// Go buffered channel; Unbounded channels are a growable queue fed
// into an unbuffered relay channel by a pump goroutine, so that both modes
// present the same receive-side primitive (a native channel) and can
// be waited on uniformly by Select.
package channel

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"time"

	"github.com/coreflow/coreflow/metrics"
)

// Base selects the channel's buffering discipline.
type Base int

const (
	Bounded Base = iota
	Unbounded
)

func (b Base) String() string {
	if b == Unbounded {
		return "Unbounded"
	}
	return "Bounded"
}

var (
	// ErrFull is returned by TrySend when a bounded channel has no
	// spare capacity.
	ErrFull = errors.New("channel: full")
	// ErrEmpty is returned by TryRecv when no value is immediately
	// available.
	ErrEmpty = errors.New("channel: empty")
	// ErrDisconnected is returned once the sender has been closed and
	// drained.
	ErrDisconnected = errors.New("channel: disconnected")
	// ErrTimeout is returned by SendTimeout/RecvTimeout on expiry.
	ErrTimeout = errors.New("channel: timeout")
)

type core[T any] struct {
	name     string
	base     Base
	capacity int

	relay chan T // the native channel both Send and Recv operate against

	// unbounded-mode only: backlog queue feeding the relay.
	mu       sync.Mutex
	backlog  []T
	notEmpty *sync.Cond
	closed   bool
	drained  chan struct{} // closed once the pump has flushed the backlog and closed relay
}

// New creates a named channel and returns its sender and receiver
// halves. capacity is the buffer size for Bounded channels and ignored
// for Unbounded ones.
func New[T any](name string, capacity int, base Base) (*Sender[T], *Receiver[T]) {
	c := &core[T]{name: name, base: base, capacity: capacity}
	switch base {
	case Bounded:
		c.relay = make(chan T, capacity)
	case Unbounded:
		c.relay = make(chan T)
		c.notEmpty = sync.NewCond(&c.mu)
		c.drained = make(chan struct{})
		go c.pump()
	}
	return &Sender[T]{c: c}, &Receiver[T]{c: c}
}

// pump moves items from the unbounded backlog into the relay channel
// one at a time, so a blocked Recv on relay behaves identically to the
// bounded case and Select can treat both uniformly.
func (c *core[T]) pump() {
	for {
		c.mu.Lock()
		for len(c.backlog) == 0 && !c.closed {
			c.notEmpty.Wait()
		}
		if len(c.backlog) == 0 && c.closed {
			c.mu.Unlock()
			close(c.relay)
			close(c.drained)
			return
		}
		v := c.backlog[0]
		c.backlog = c.backlog[1:]
		c.mu.Unlock()

		c.relay <- v
	}
}

func (c *core[T]) size() int {
	switch c.base {
	case Unbounded:
		c.mu.Lock()
		n := len(c.backlog) + len(c.relay)
		c.mu.Unlock()
		return n
	default:
		return len(c.relay)
	}
}

// Sender is the write half of a channel.
type Sender[T any] struct{ c *core[T] }

// Send blocks until the value is accepted; on a full Bounded channel it
// blocks until space frees up or ctx is canceled.
func (s *Sender[T]) Send(ctx context.Context, v T) error {
	switch s.c.base {
	case Bounded:
		select {
		case s.c.relay <- v:
			s.accepted()
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	default:
		s.pushUnbounded(v)
		return nil
	}
}

// TrySend never blocks: it returns ErrFull if a Bounded channel has no
// spare capacity, or ErrDisconnected if the channel has been closed.
func (s *Sender[T]) TrySend(v T) error {
	s.c.mu.Lock()
	if s.c.closed {
		s.c.mu.Unlock()
		return ErrDisconnected
	}
	s.c.mu.Unlock()

	switch s.c.base {
	case Bounded:
		select {
		case s.c.relay <- v:
			s.accepted()
			return nil
		default:
			return ErrFull
		}
	default:
		s.pushUnbounded(v)
		return nil
	}
}

// SendTimeout blocks up to d waiting for the value to be accepted.
func (s *Sender[T]) SendTimeout(v T, d time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	if err := s.Send(ctx, v); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return err
	}
	return nil
}

func (s *Sender[T]) pushUnbounded(v T) {
	s.c.mu.Lock()
	s.c.backlog = append(s.c.backlog, v)
	s.c.notEmpty.Signal()
	s.c.mu.Unlock()
	s.accepted()
}

func (s *Sender[T]) accepted() {
	metrics.ChannelAccepted.WithLabelValues(s.c.name).Inc()
	metrics.ChannelSize.WithLabelValues(s.c.name).Set(float64(s.c.size()))
}

// Close marks the channel disconnected. For a Bounded channel this
// closes the relay immediately (already-buffered values remain
// receivable). For an Unbounded channel the pump drains the backlog
// first, then closes the relay, so no buffered element is lost.
func (s *Sender[T]) Close() {
	switch s.c.base {
	case Bounded:
		s.c.mu.Lock()
		s.c.closed = true
		s.c.mu.Unlock()
		close(s.c.relay)
	default:
		s.c.mu.Lock()
		s.c.closed = true
		s.c.notEmpty.Signal()
		s.c.mu.Unlock()
	}
}

// Receiver is the read half of a channel.
type Receiver[T any] struct{ c *core[T] }

// Recv blocks until a value is available, the channel disconnects
// (ErrDisconnected), or ctx is canceled.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	select {
	case v, ok := <-r.c.relay:
		if !ok {
			return zero, ErrDisconnected
		}
		r.drained()
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// TryRecv never blocks.
func (r *Receiver[T]) TryRecv() (T, error) {
	var zero T
	select {
	case v, ok := <-r.c.relay:
		if !ok {
			return zero, ErrDisconnected
		}
		r.drained()
		return v, nil
	default:
		return zero, ErrEmpty
	}
}

func (r *Receiver[T]) drained() {
	metrics.ChannelDrained.WithLabelValues(r.c.name).Inc()
	metrics.ChannelSize.WithLabelValues(r.c.name).Set(float64(r.c.size()))
}

// rawChan exposes the underlying native channel for Select, without
// widening the public API of Receiver.
func (r *Receiver[T]) rawChan() chan T { return r.c.relay }

// Select waits on N receivers of the same element type and returns the
// index of one that is ready, with no starvation of non-empty channels
// (reflect.Select picks uniformly among ready cases, spec §4.3 "fair
// ready-select"). Blocks until ctx is canceled or a receiver yields a
// value or disconnects.
func Select[T any](ctx context.Context, receivers []*Receiver[T]) (int, T, error) {
	var zero T
	cases := make([]reflect.SelectCase, 0, len(receivers)+1)
	for _, r := range receivers {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(r.rawChan())})
	}
	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())})

	chosen, recv, ok := reflect.Select(cases)
	if chosen == len(receivers) {
		return -1, zero, ctx.Err()
	}
	if !ok {
		return chosen, zero, ErrDisconnected
	}
	v := recv.Interface().(T)
	receivers[chosen].drained()
	return chosen, v, nil
}
