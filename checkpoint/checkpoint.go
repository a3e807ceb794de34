// Package checkpoint implements the coordinator-side barrier-based
// consistent-cut snapshot mechanism (spec §4.6): periodic barrier
// injection, per-task acknowledgement collection, global-completion
// declaration, and recovery load. Storage is pluggable behind the
// Storage contract; checkpointstore/memory and
// checkpointstore/relational are the two shipped implementations.
package checkpoint

// TaskHandle is one task's opaque state snapshot for one checkpoint
// (spec §4.6: the per-task acknowledgement is {task_id, checkpoint_id,
// handle_bytes}).
type TaskHandle struct {
	TaskID string
	Handle []byte
}

// Checkpoint is a completed, globally-acknowledged snapshot: every
// task in the job acknowledged CheckpointID before Storage.Save was
// called.
type Checkpoint struct {
	AppName      string
	AppID        string
	CheckpointID uint64
	Handles      []TaskHandle
	TTL          uint64 // seconds; stored with the checkpoint, no shipped Storage prunes by it

	// CompletedCheckpointID is the highest checkpoint id that was
	// already globally complete when this one's barriers were injected
	// (spec §4.6). Carried alongside Handles so a recovering
	// coordinator, and the barriers of the next run, can tell which
	// older snapshots are superseded and safe to trim.
	CompletedCheckpointID uint64
}
