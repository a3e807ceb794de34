// Package network implements the cross-worker pub/sub transport (spec
// §4.3/§6): the same subscribe contract as pubsub/memory, but crossing
// process boundaries over a framed TCP connection, with the
// subscriber reconnecting on connection loss.
package network

import (
	"context"
	"net"
	"sync"

	"github.com/coreflow/coreflow/channel"
	"github.com/coreflow/coreflow/element"
	"github.com/coreflow/coreflow/wire"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultOutboundCapacity bounds the per-edge staging queue a Server
// keeps between "task published" and "client connection drained it",
// so a slow or not-yet-connected subscriber applies the same
// backpressure a memory edge would (spec §5).
const DefaultOutboundCapacity = 256

// Server exposes one worker's task outputs to remote subscribers. One
// Server runs per worker process; it owns a process-lifetime registry
// of per-edge outbound channels, created lazily on first Publish or
// first incoming subscriber for that edge (spec §9).
type Server struct {
	listener net.Listener

	mu       sync.Mutex
	outbound map[element.EdgeKey]*channel.Sender[element.Element]
	inbound  map[element.EdgeKey]*channel.Receiver[element.Element]
	pending  map[element.EdgeKey]element.Element // dequeued from inbound but not yet confirmed written to a subscriber
}

// NewServer wraps an already-bound listener.
func NewServer(listener net.Listener) *Server {
	return &Server{
		listener: listener,
		outbound: make(map[element.EdgeKey]*channel.Sender[element.Element]),
		inbound:  make(map[element.EdgeKey]*channel.Receiver[element.Element]),
		pending:  make(map[element.EdgeKey]element.Element),
	}
}

// Addr returns the server's bound address, for publishing to a
// cluster directory so downstream workers can dial it.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

func (s *Server) edgeChannel(edge element.EdgeKey) *channel.Sender[element.Element] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sender, ok := s.outbound[edge]; ok {
		return sender
	}
	name := "network.out." + edge.Upstream.String() + "->" + edge.Downstream.String()
	sender, receiver := channel.New[element.Element](name, DefaultOutboundCapacity, channel.Bounded)
	s.outbound[edge] = sender
	s.inbound[edge] = receiver
	return sender
}

// Publish stages el for delivery to downstream over the network,
// blocking under backpressure exactly as pubsub/memory does.
func (s *Server) Publish(ctx context.Context, upstream, downstream element.TaskID, el element.Element) error {
	sender := s.edgeChannel(element.EdgeKey{Upstream: upstream, Downstream: downstream})
	return sender.Send(ctx, el)
}

// takePending returns and clears the element left over from a previous
// connection's failed write, if any. Checked before dequeuing a fresh
// element from the edge's channel, so a reconnect redelivers exactly
// what the last connection never got, rather than skipping past it.
func (s *Server) takePending(edge element.EdgeKey) (element.Element, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.pending[edge]
	if ok {
		delete(s.pending, edge)
	}
	return el, ok
}

func (s *Server) setPending(edge element.EdgeKey, el element.Element) {
	s.mu.Lock()
	s.pending[edge] = el
	s.mu.Unlock()
}

// Serve accepts connections until ctx is canceled or the listener
// errors. Each connection is handled in its own goroutine.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return errors.Wrap(err, "pubsub/network: accept")
			}
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	hs, err := wire.ReadHandshake(conn)
	if err != nil {
		log.WithError(err).Warn("pubsub/network: handshake failed, dropping connection")
		return
	}
	edge := element.EdgeKey{Upstream: hs.Upstream, Downstream: hs.Downstream}

	s.mu.Lock()
	receiver, ok := s.inbound[edge]
	if !ok {
		name := "network.out." + edge.Upstream.String() + "->" + edge.Downstream.String()
		sender, recv := channel.New[element.Element](name, DefaultOutboundCapacity, channel.Bounded)
		s.outbound[edge] = sender
		s.inbound[edge] = recv
		receiver = recv
	}
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"upstream": hs.Upstream.String(), "downstream": hs.Downstream.String(), "resume_offset": hs.ResumeOffset,
	}).Debug("pubsub/network: subscriber connected")

	// ResumeOffset is not consulted for replay here: exactly-once recovery
	// across a task restart is driven by the checkpointed connector offset
	// (task.Task.restoreAll), not by transport-level replay (see
	// wire.Handshake). What this loop does guarantee, via the pending slot
	// below, is that a mere connection blip with no task crash never
	// drops an element: a write that fails leaves it queued for the next
	// connection instead of being skipped.
	for {
		el, ok := s.takePending(edge)
		if !ok {
			var err error
			el, err = receiver.Recv(ctx)
			if err != nil {
				return
			}
		}
		if err := wire.Encode(conn, el); err != nil {
			log.WithError(err).Debug("pubsub/network: write failed, retaining element for next connection")
			s.setPending(edge, el)
			return
		}
	}
}
