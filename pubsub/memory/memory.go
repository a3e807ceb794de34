// Package memory implements the in-process pub/sub fan-out from an
// upstream task's output to a chosen downstream task's input (spec
// §4.3). A process-global registry, guarded by one mutex on the
// wiring path, maps (upstream, downstream) task-id pairs to a
// dedicated element channel; once wired, the sender and receiver
// halves are handed out and used lock-free on the steady-state data
// path (spec §5, §9 "global pub/sub state").
//
// One channel per (upstream, downstream) pair, not one shared channel
// per downstream task, is load-bearing: spec §4.5 barrier alignment
// tracks which of a task's K input channels have forwarded the current
// barrier, and that tracking only works if each upstream has its own
// physical channel the task can Select over individually.
package memory

import (
	"context"
	"sync"

	"github.com/coreflow/coreflow/channel"
	"github.com/coreflow/coreflow/element"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrNoSubscriber is returned by Publish when no task has subscribed
// for the (upstream, downstream) pair yet.
var ErrNoSubscriber = errors.New("pubsub/memory: no subscriber for edge")

// Registry is a worker-process-lifetime pub/sub service: created at
// worker start, torn down at worker stop (spec §9).
type Registry struct {
	mu        sync.Mutex
	senders   map[element.EdgeKey]*channel.Sender[element.Element]
	receivers map[element.EdgeKey]*channel.Receiver[element.Element]
}

// NewRegistry returns an empty registry, to be created once per worker
// process.
func NewRegistry() *Registry {
	return &Registry{
		senders:   make(map[element.EdgeKey]*channel.Sender[element.Element]),
		receivers: make(map[element.EdgeKey]*channel.Receiver[element.Element]),
	}
}

// Input is one of a downstream task's K input channels, paired with
// the upstream task id that feeds it, in the order Subscribe's caller
// supplied upstream task ids.
type Input struct {
	Upstream element.TaskID
	Receiver *channel.Receiver[element.Element]
}

// Subscribe wires one dedicated channel per upstream task id feeding
// downstream, creating each on first call and reusing it (idempotent
// for re-subscription, e.g. a task restart after recovery). The
// returned slice has exactly len(upstreamTaskIDs) entries, in the same
// order — this is the downstream task's K input channels (spec §4.5).
func (r *Registry) Subscribe(upstreamTaskIDs []element.TaskID, downstream element.TaskID, capacity int, base channel.Base) []Input {
	r.mu.Lock()
	defer r.mu.Unlock()

	inputs := make([]Input, len(upstreamTaskIDs))
	for i, up := range upstreamTaskIDs {
		key := element.EdgeKey{Upstream: up, Downstream: downstream}
		recv, ok := r.receivers[key]
		if !ok {
			name := "memory." + up.String() + "->" + downstream.String()
			sender, receiver := channel.New[element.Element](name, capacity, base)
			r.senders[key] = sender
			r.receivers[key] = receiver
			recv = receiver
			log.WithFields(log.Fields{
				"upstream":   up.String(),
				"downstream": downstream.String(),
				"capacity":   capacity,
				"base":       base.String(),
			}).Debug("pubsub/memory: wired new edge channel")
		}
		inputs[i] = Input{Upstream: up, Receiver: recv}
	}
	return inputs
}

// Publish sends el from upstream to downstream through the already
// wired channel, blocking per the channel's backpressure semantics
// (spec §5: a full downstream queue blocks the publishing task).
func (r *Registry) Publish(ctx context.Context, upstream, downstream element.TaskID, el element.Element) error {
	r.mu.Lock()
	sender, ok := r.senders[element.EdgeKey{Upstream: upstream, Downstream: downstream}]
	r.mu.Unlock()
	if !ok {
		return errors.Wrapf(ErrNoSubscriber, "%s -> %s", upstream, downstream)
	}
	return sender.Send(ctx, el)
}

// CloseUpstream closes the sender side of the single (upstream,
// downstream) edge, signaling Disconnected to that one input channel
// once drained. A downstream task only considers itself terminated
// once every one of its K inputs has disconnected (spec §4.5).
func (r *Registry) CloseUpstream(upstream, downstream element.TaskID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := element.EdgeKey{Upstream: upstream, Downstream: downstream}
	if sender, ok := r.senders[key]; ok {
		sender.Close()
		delete(r.senders, key)
	}
	delete(r.receivers, key)
}
