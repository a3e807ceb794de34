package local

import (
	"context"
	"testing"

	"github.com/coreflow/coreflow/element"
	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/resourcemanager"
	"github.com/stretchr/testify/require"
)

func TestWorkerAllocatePlacesEveryTaskOnTheLocalWorker(t *testing.T) {
	descriptor := &graph.ClusterDescriptor{
		JobID: "j1",
		Tasks: []graph.TaskInstance{
			{ID: element.TaskID{JobID: "j1", TaskNumber: 0, NumTasks: 2}},
			{ID: element.TaskID{JobID: "j1", TaskNumber: 1, NumTasks: 2}},
		},
	}

	mgr := New("worker-0")
	require.NoError(t, mgr.Prepare(context.Background(), descriptor))

	allocations, err := mgr.WorkerAllocate(context.Background(), descriptor, resourcemanager.Resource{})
	require.NoError(t, err)
	require.Len(t, allocations, 2)
	for _, a := range allocations {
		require.Equal(t, "worker-0", a.Worker.WorkerID)
	}

	require.NoError(t, mgr.StopWorkers(context.Background(), allocations))
}
