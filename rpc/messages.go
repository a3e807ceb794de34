package rpc

import "github.com/coreflow/coreflow/element"

// TaskAssignment is one task instance's placement, as carried by
// AssignTasksRequest. OperatorIndex keys into the worker's own copy of
// the job's LogicalGraph to resolve which operator implementation to
// open — the control plane never ships connector/chain code itself.
type TaskAssignment struct {
	TaskID        element.TaskID
	OperatorIndex int
	Split         *element.InputSplit
	Properties    map[string]string
}

type AssignTasksRequest struct {
	JobID string
	Tasks []TaskAssignment
}

type AssignTasksResponse struct {
	Accepted bool
	Error    string
}

// InjectBarrierRequest asks a worker to start checkpoint CheckpointID
// on TaskID, which must be a source task (spec §4.6).
// CompletedCheckpointID is the coordinator's Coordinator.LastCompleted
// at injection time, carried so the worker can stamp it on the
// resulting Barrier element for downstream trimming.
type InjectBarrierRequest struct {
	TaskID                element.TaskID
	CheckpointID          uint64
	CompletedCheckpointID uint64
}

type InjectBarrierResponse struct {
	Accepted bool
	Error    string
}

// AckCheckpointRequest is a worker reporting one task's alignment +
// snapshot for CheckpointID back to the coordinator (spec §4.6). Ok
// false means the task had no state and Handle is empty.
type AckCheckpointRequest struct {
	TaskID       element.TaskID
	CheckpointID uint64
	Handle       []byte
	Ok           bool
}

type AckCheckpointResponse struct{}

// ReportStatusRequest is a worker's periodic task health report.
type ReportStatusRequest struct {
	TaskID  element.TaskID
	Status  string // "Running", "Failed", "Closed"
	Message string
}

type ReportStatusResponse struct{}

// TerminateRequest asks a worker to stop every task belonging to
// JobID and exit its loops cleanly (spec §5 "Cancellation").
type TerminateRequest struct {
	JobID string
}

type TerminateResponse struct {
	Accepted bool
}
