package network

import (
	"context"
	"net"
	"time"

	"github.com/coreflow/coreflow"
	"github.com/coreflow/coreflow/channel"
	"github.com/coreflow/coreflow/element"
	"github.com/coreflow/coreflow/internal/retry"
	"github.com/coreflow/coreflow/wire"
	log "github.com/sirupsen/logrus"
)

// Addresser resolves which address hosts a given upstream task, so the
// subscriber knows where to dial. The cluster/placement layer (graph
// package) supplies this; the network package has no opinion on
// service discovery.
type Addresser func(element.TaskID) (addr string, err error)

// Input is one of a downstream task's K input channels, paired with
// the upstream task id it carries frames from.
type Input struct {
	Upstream element.TaskID
	Receiver *channel.Receiver[element.Element]
}

// Subscribe mirrors pubsub/memory.Registry.Subscribe's signature: one
// dedicated channel per upstream task id, each fed by its own
// reconnecting network connection (spec §4.3). A shared channel across
// upstreams would make barrier alignment (spec §4.5) unable to tell
// which upstream an element came from once dequeued, the same reason
// pubsub/memory keeps per-edge channels.
func Subscribe(ctx context.Context, resolve Addresser, upstreamTaskIDs []element.TaskID, downstream element.TaskID, capacity int, base channel.Base) []Input {
	inputs := make([]Input, len(upstreamTaskIDs))
	for i, up := range upstreamTaskIDs {
		name := "network.in." + up.String() + "->" + downstream.String()
		sender, receiver := channel.New[element.Element](name, capacity, base)
		go runSubscription(ctx, resolve, up, downstream, sender)
		inputs[i] = Input{Upstream: up, Receiver: receiver}
	}
	return inputs
}

func runSubscription(ctx context.Context, resolve Addresser, upstream, downstream element.TaskID, sender *channel.Sender[element.Element]) {
	backoff := retry.NewBackoff(50*time.Millisecond, 10*time.Second)
	var lastOffset uint64

	logger := log.WithFields(log.Fields{"upstream": upstream.String(), "downstream": downstream.String()})

	for {
		if ctx.Err() != nil {
			return
		}

		addr, err := resolve(upstream)
		if err != nil {
			logger.WithError(coreflow.New(coreflow.KindTransient, err)).Warn("pubsub/network: address resolution failed, retrying")
			if sleepErr := backoff.Sleep(ctx); sleepErr != nil {
				return
			}
			continue
		}

		n, err := runOneConnection(ctx, addr, upstream, downstream, lastOffset, sender)
		lastOffset += uint64(n)

		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.WithError(coreflow.New(coreflow.KindTransient, err)).Debug("pubsub/network: connection lost, reconnecting")
		}
		if sleepErr := backoff.Sleep(ctx); sleepErr != nil {
			return
		}
	}
}

// runOneConnection dials, handshakes, and streams frames into sender
// until the connection fails or ctx is canceled. It returns the number
// of elements forwarded on this connection.
func runOneConnection(ctx context.Context, addr string, upstream, downstream element.TaskID, resumeOffset uint64, sender *channel.Sender[element.Element]) (int, error) {
	dialer := net.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	if err := wire.WriteHandshake(conn, wire.Handshake{Upstream: upstream, Downstream: downstream, ResumeOffset: resumeOffset}); err != nil {
		return 0, err
	}

	var forwarded int
	for {
		el, err := wire.Decode(conn)
		if err != nil {
			return forwarded, err
		}
		if err := sender.Send(ctx, el); err != nil {
			return forwarded, err
		}
		forwarded++
	}
}
