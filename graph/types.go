// Package graph compiles a logical operator DAG into a physical
// ExecutionGraph: parallelism expansion, input-split assignment, and
// edge classification into memory or network transport (spec §4.4).
package graph

import "github.com/coreflow/coreflow/element"

// SplitEnumerator is implemented by source operators to produce the
// input splits their parallel task instances will own (spec §4.4 step
// 2; mirrors the InputFormat.create_input_splits contract of spec
// §6).
type SplitEnumerator interface {
	CreateInputSplits(minNumSplits int) ([]element.InputSplit, error)
}

// LogicalOperator is one node of the user-supplied job DAG before
// expansion.
type LogicalOperator struct {
	Name        string
	Parallelism uint16
	IsSource    bool
	Enumerator  SplitEnumerator // nil unless IsSource
}

// LogicalEdge connects two logical operators by index into the
// LogicalGraph's Operators slice, carrying the partitioner that routes
// records from the upstream operator's task instances to the
// downstream's.
type LogicalEdge struct {
	From, To    int
	Partitioner element.Partitioner
}

// LogicalGraph is the declarative job description the builder
// compiles (spec §4.4 input).
type LogicalGraph struct {
	Operators []LogicalOperator
	Edges     []LogicalEdge
}

// EdgeKind classifies a physical edge (spec §3).
type EdgeKind int

const (
	Memory EdgeKind = iota
	Network
)

func (k EdgeKind) String() string {
	if k == Network {
		return "Network"
	}
	return "Memory"
}

// TaskInstance is one physical node of the compiled graph: one
// parallel instance of a LogicalOperator.
type TaskInstance struct {
	ID            element.TaskID
	OperatorIndex int
	Split         *element.InputSplit // nil for non-source tasks, and for idle source tasks beyond assignable splits
	WorkerID      string
}

// ExecutionEdge is a physical, per-task-pair connection (spec §3).
type ExecutionEdge struct {
	Upstream, Downstream element.TaskID
	Kind                 EdgeKind
	Partitioner          element.Partitioner
}

// ClusterDescriptor is the compiled job plan plus per-task resource
// placement. Build marks it frozen before returning it (see Frozen);
// nothing in this package modifies it afterwards. JobID names the job
// across restarts; RunID identifies this one compiled incarnation of
// it, so a checkpoint coordinator watching for a stale run (e.g. two
// overlapping deployments racing to register the same JobID) can tell
// them apart without reusing JobID as the coordinator's AppID.
type ClusterDescriptor struct {
	JobID string
	RunID string
	Tasks []TaskInstance
	Edges []ExecutionEdge

	frozen bool
}

// TasksForOperator returns the task instances belonging to the
// operator at the given index, in task-number order.
func (c *ClusterDescriptor) TasksForOperator(operatorIndex int) []TaskInstance {
	var out []TaskInstance
	for _, t := range c.Tasks {
		if t.OperatorIndex == operatorIndex {
			out = append(out, t)
		}
	}
	return out
}

// EdgesInto returns every ExecutionEdge whose Downstream is taskID, the
// set a task wires its input channels against at open() time.
func (c *ClusterDescriptor) EdgesInto(taskID element.TaskID) []ExecutionEdge {
	var out []ExecutionEdge
	for _, e := range c.Edges {
		if e.Downstream == taskID {
			out = append(out, e)
		}
	}
	return out
}

// Frozen reports whether the descriptor has been frozen.
func (c *ClusterDescriptor) Frozen() bool { return c.frozen }
