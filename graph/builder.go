package graph

import (
	"github.com/coreflow/coreflow/element"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrTooManySplits is returned when a source operator's enumerator
// returns more splits than the operator's parallelism can assign one
// split per task. This is the Open Question of spec §9, decided here
// as "fail" rather than silently merging split property bags: merging
// would hand one task two connector identities, violating the
// "exactly one task" split-ownership invariant of spec §3.
var ErrTooManySplits = errors.New("graph: enumerator returned more splits than parallelism")

// Placer decides which worker a task instance runs on. The builder
// uses Place only to classify edges Memory vs Network; actual
// allocation is the resourcemanager package's job.
type Placer interface {
	Place(id element.TaskID, operatorName string) string
}

// Build compiles a LogicalGraph into a frozen ClusterDescriptor (spec
// §4.4): expand parallelism, assign input splits, classify edges,
// freeze.
func Build(jobID string, lg LogicalGraph, placer Placer) (*ClusterDescriptor, error) {
	cd := &ClusterDescriptor{JobID: jobID, RunID: uuid.New().String()}

	tasksByOperator := make([][]TaskInstance, len(lg.Operators))

	// Step 1: expand.
	for opIdx, op := range lg.Operators {
		instances := make([]TaskInstance, op.Parallelism)
		for n := uint16(0); n < op.Parallelism; n++ {
			id := element.TaskID{JobID: jobID, TaskNumber: n, NumTasks: op.Parallelism}
			instances[n] = TaskInstance{ID: id, OperatorIndex: opIdx}
		}
		tasksByOperator[opIdx] = instances
	}

	// Step 2: assign inputs to source operators.
	for opIdx, op := range lg.Operators {
		if !op.IsSource {
			continue
		}
		if err := assignSplits(op, tasksByOperator[opIdx]); err != nil {
			return nil, errors.Wrapf(err, "operator %q", op.Name)
		}
	}

	workerOf := make(map[element.TaskID]string)
	for opIdx, op := range lg.Operators {
		for i, t := range tasksByOperator[opIdx] {
			t.WorkerID = placer.Place(t.ID, op.Name)
			tasksByOperator[opIdx][i] = t
			workerOf[t.ID] = t.WorkerID
			cd.Tasks = append(cd.Tasks, t)
		}
	}

	// Step 3: classify edges.
	for _, le := range lg.Edges {
		upstreamTasks := tasksByOperator[le.From]
		downstreamTasks := tasksByOperator[le.To]

		pairs := pairsFor(le.Partitioner, upstreamTasks, downstreamTasks)
		for _, p := range pairs {
			kind := Network
			if workerOf[p.up] == workerOf[p.down] && locality(le.Partitioner, p.up, p.down) {
				kind = Memory
			}
			cd.Edges = append(cd.Edges, ExecutionEdge{
				Upstream:    p.up,
				Downstream:  p.down,
				Kind:        kind,
				Partitioner: le.Partitioner,
			})
		}
	}

	// Step 4: freeze.
	cd.frozen = true
	return cd, nil
}

type taskPair struct{ up, down element.TaskID }

// pairsFor enumerates which (upstream, downstream) task pairs a
// partitioner can actually route to: Forward is one-to-one by task
// number, everything else is a full fan-out (spec §4.4 step 3).
func pairsFor(p element.Partitioner, upstream, downstream []TaskInstance) []taskPair {
	var out []taskPair
	switch p.(type) {
	case element.Forward:
		for _, u := range upstream {
			for _, d := range downstream {
				if u.ID.TaskNumber == d.ID.TaskNumber {
					out = append(out, taskPair{u.ID, d.ID})
				}
			}
		}
	default:
		for _, u := range upstream {
			for _, d := range downstream {
				out = append(out, taskPair{u.ID, d.ID})
			}
		}
	}
	return out
}

// locality reports whether the partitioner itself preserves
// same-worker locality for this specific task pair — i.e. whether
// there genuinely is only one possible downstream target for this
// upstream record stream, so an inline call is equivalent to a
// channel hop. Only Forward (and a degenerate single-task fan-out)
// qualifies; Hash/Rebalance/Broadcast always cross through the
// pub/sub layer's partitioner logic even when co-located, because the
// *set* of reachable downstream tasks — not just this pair — still
// needs a queue per spec §4.3's fan-out description.
func locality(p element.Partitioner, up, down element.TaskID) bool {
	switch p.(type) {
	case element.Forward:
		return true
	default:
		return down.NumTasks == 1
	}
}
