package checkpoint

import (
	"context"
	"testing"

	"github.com/coreflow/coreflow/element"
	"github.com/stretchr/testify/require"
)

type fakeInjector struct {
	calls []barrierCall
}

type barrierCall struct {
	id, completedCheckpointID uint64
}

func (f *fakeInjector) InjectBarrier(id, completedCheckpointID uint64) {
	f.calls = append(f.calls, barrierCall{id, completedCheckpointID})
}

type fakeStorage struct {
	saved []Checkpoint
}

func (s *fakeStorage) Save(_ context.Context, cp Checkpoint) error {
	s.saved = append(s.saved, cp)
	return nil
}

func (s *fakeStorage) Load(context.Context, string, string) (Checkpoint, error) {
	return Checkpoint{}, ErrNotFound
}

func (s *fakeStorage) LoadByCheckpointID(context.Context, string, string, uint64) (Checkpoint, error) {
	return Checkpoint{}, ErrNotFound
}

// TestTickCarriesLastCompletedIntoBarrierInjection is spec §4.6: "expose
// the most recent completed id for inclusion in subsequent barriers, so
// downstream components can trim pending resources for superseded
// checkpoints." The second tick must inject with the first checkpoint's
// id once it has completed.
func TestTickCarriesLastCompletedIntoBarrierInjection(t *testing.T) {
	injector := &fakeInjector{}
	storage := &fakeStorage{}
	coord := NewCoordinator("app", "job-1", 0, 0, storage)
	coord.TotalTasks = 1
	coord.SourceTasks = []BarrierInjector{injector}

	taskID := element.TaskID{JobID: "app", TaskNumber: 0, NumTasks: 1}

	coord.tick()
	require.Len(t, injector.calls, 1)
	require.Equal(t, uint64(1), injector.calls[0].id)
	require.Equal(t, uint64(0), injector.calls[0].completedCheckpointID)

	coord.Ack(taskID, 1, nil, false)
	require.Len(t, storage.saved, 1)
	require.Equal(t, uint64(0), storage.saved[0].CompletedCheckpointID)
	require.Equal(t, uint64(1), coord.LastCompleted())

	coord.tick()
	require.Len(t, injector.calls, 2)
	require.Equal(t, uint64(2), injector.calls[1].id)
	require.Equal(t, uint64(1), injector.calls[1].completedCheckpointID)

	coord.Ack(taskID, 2, nil, false)
	require.Len(t, storage.saved, 2)
	require.Equal(t, uint64(1), storage.saved[1].CompletedCheckpointID)
}
