package graph

import (
	"testing"

	"github.com/coreflow/coreflow/element"
	"github.com/stretchr/testify/require"
)

type fixedEnumerator struct {
	splits []element.InputSplit
}

func (f fixedEnumerator) CreateInputSplits(minNumSplits int) ([]element.InputSplit, error) {
	return f.splits, nil
}

func splitsN(n int) []element.InputSplit {
	out := make([]element.InputSplit, n)
	for i := range out {
		out[i] = element.InputSplit{Index: i, Properties: map[string]string{"p": "v"}, CreateConnection: true}
	}
	return out
}

func TestTaskCountEqualsSumOfParallelism(t *testing.T) {
	lg := LogicalGraph{
		Operators: []LogicalOperator{
			{Name: "source", Parallelism: 2, IsSource: true, Enumerator: fixedEnumerator{splits: splitsN(2)}},
			{Name: "map", Parallelism: 3},
			{Name: "sink", Parallelism: 1},
		},
		Edges: []LogicalEdge{
			{From: 0, To: 1, Partitioner: element.HashByKey{}},
			{From: 1, To: 2, Partitioner: element.HashByKey{}},
		},
	}
	cd, err := Build("job", lg, SingleWorkerPlacer{WorkerID: "w0"})
	require.NoError(t, err)
	require.Len(t, cd.Tasks, 2+3+1)
}

func TestSplitReplicationRounds(t *testing.T) {
	// spec §8 scenario 6: source declares 2 splits, operator
	// parallelism 5. Builder produces 5 tasks, assignments
	// {0->s0, 1->s1, 2->s0', 3->s1', 4->s0''}.
	lg := LogicalGraph{
		Operators: []LogicalOperator{
			{Name: "source", Parallelism: 5, IsSource: true, Enumerator: fixedEnumerator{splits: splitsN(2)}},
		},
	}
	cd, err := Build("job", lg, SingleWorkerPlacer{WorkerID: "w0"})
	require.NoError(t, err)

	tasks := cd.TasksForOperator(0)
	require.Len(t, tasks, 5)

	wantOriginalIdx := []int{0, 1, 0, 1, 0}
	wantCreatesConn := []bool{true, true, false, false, false}
	for i, task := range tasks {
		require.NotNil(t, task.Split)
		require.Equal(t, wantCreatesConn[i], task.Split.CreateConnection, "task %d", i)
		if wantCreatesConn[i] {
			require.Equal(t, wantOriginalIdx[i], task.Split.Index, "task %d", i)
		}
	}
}

func TestTooManySplitsFails(t *testing.T) {
	lg := LogicalGraph{
		Operators: []LogicalOperator{
			{Name: "source", Parallelism: 2, IsSource: true, Enumerator: fixedEnumerator{splits: splitsN(5)}},
		},
	}
	_, err := Build("job", lg, SingleWorkerPlacer{WorkerID: "w0"})
	require.ErrorIs(t, err, ErrTooManySplits)
}

func TestIdleSourceTasksWhenFewerSplitsThanParallelismAndZeroSplits(t *testing.T) {
	lg := LogicalGraph{
		Operators: []LogicalOperator{
			{Name: "source", Parallelism: 3, IsSource: true, Enumerator: fixedEnumerator{splits: nil}},
		},
	}
	cd, err := Build("job", lg, SingleWorkerPlacer{WorkerID: "w0"})
	require.NoError(t, err)
	for _, task := range cd.TasksForOperator(0) {
		require.Nil(t, task.Split)
	}
}

func TestMemoryEdgeWhenCoLocatedNetworkOtherwise(t *testing.T) {
	lg := LogicalGraph{
		Operators: []LogicalOperator{
			{Name: "source", Parallelism: 1, IsSource: true, Enumerator: fixedEnumerator{splits: splitsN(1)}},
			{Name: "sink", Parallelism: 1},
		},
		Edges: []LogicalEdge{{From: 0, To: 1, Partitioner: element.Forward{}}},
	}
	cd, err := Build("job", lg, SingleWorkerPlacer{WorkerID: "w0"})
	require.NoError(t, err)
	require.Len(t, cd.Edges, 1)
	require.Equal(t, Memory, cd.Edges[0].Kind)

	placer := &RoundRobinPlacer{Workers: []string{"w0", "w1"}}
	cd, err = Build("job", lg, placer)
	require.NoError(t, err)
	require.Equal(t, Network, cd.Edges[0].Kind)
}

func TestEveryInputSplitAssignedToExactlyOneTask(t *testing.T) {
	lg := LogicalGraph{
		Operators: []LogicalOperator{
			{Name: "source", Parallelism: 4, IsSource: true, Enumerator: fixedEnumerator{splits: splitsN(4)}},
		},
	}
	cd, err := Build("job", lg, SingleWorkerPlacer{WorkerID: "w0"})
	require.NoError(t, err)

	seen := map[int]int{}
	for _, task := range cd.TasksForOperator(0) {
		require.True(t, task.Split.CreateConnection)
		seen[task.Split.Index]++
	}
	for idx, count := range seen {
		require.Equal(t, 1, count, "split %d assigned to %d tasks, want exactly 1", idx, count)
	}
}
