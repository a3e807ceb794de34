// Package task implements the worker task runtime (spec §4.5): one
// Task per physical ClusterDescriptor.TaskInstance, pulling elements
// from its head (an InputFormat or its upstream input channels),
// threading Records through an operator chain, and publishing the
// result downstream (to peer tasks via Publisher, or to an
// OutputFormat sink).
package task

import (
	"context"

	"github.com/coreflow/coreflow/channel"
	"github.com/coreflow/coreflow/element"
)

// Publisher is the subset of pubsub/memory.Registry's and
// pubsub/network.Server's API a task needs to emit to a downstream
// peer task. Both satisfy this signature already, so task never
// imports either transport package directly (spec §4.7's "core uses
// only the interface" pattern, applied one layer down).
type Publisher interface {
	Publish(ctx context.Context, upstream, downstream element.TaskID, el element.Element) error
}

// Input is one of a task's K input channels, paired with the upstream
// task id it carries elements from. Barrier alignment (spec §4.5)
// tracks state per Input, so this identity must be preserved rather
// than merging upstreams into one channel.
type Input struct {
	Upstream element.TaskID
	Receiver *channel.Receiver[element.Element]
}

// OutputEdge is one logical outgoing edge of a task: the downstream
// operator's task instances (in task-number order) and the
// partitioner that chooses among them per record. A task publishes to
// every configured OutputEdge for each record it emits.
type OutputEdge struct {
	Partitioner element.Partitioner
	Downstreams []element.TaskID
}

// CheckpointAcker reports a task's completed alignment+snapshot for one
// checkpoint to the coordinator (spec §4.6: "collect per-task
// acknowledgements {task_id, checkpoint_id, handle_bytes}"). handle is
// nil and ok is false when the task had nothing to snapshot.
type CheckpointAcker func(taskID element.TaskID, checkpointID uint64, handle []byte, ok bool)

