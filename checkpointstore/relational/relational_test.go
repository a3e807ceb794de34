package relational

import (
	"context"
	"testing"

	"github.com/coreflow/coreflow/checkpoint"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndLoadRoundTripsHandles(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	cp := checkpoint.Checkpoint{
		AppName:      "wordcount",
		AppID:        "job-1",
		CheckpointID: 1,
		TTL:          3600,
		Handles: []checkpoint.TaskHandle{
			{TaskID: "wordcount-0-2", Handle: []byte{0x01, 0x02}},
			{TaskID: "wordcount-1-2", Handle: []byte{0x03}},
		},
		CompletedCheckpointID: 0,
	}
	require.NoError(t, store.Save(ctx, cp))

	loaded, err := store.Load(ctx, "wordcount", "job-1")
	require.NoError(t, err)
	require.Equal(t, uint64(1), loaded.CheckpointID)
	require.Equal(t, uint64(3600), loaded.TTL)
	require.Len(t, loaded.Handles, 2)

	cp2 := cp
	cp2.CheckpointID = 2
	cp2.CompletedCheckpointID = 1
	require.NoError(t, store.Save(ctx, cp2))

	loaded2, err := store.Load(ctx, "wordcount", "job-1")
	require.NoError(t, err)
	require.Equal(t, uint64(2), loaded2.CheckpointID)
	require.Equal(t, uint64(1), loaded2.CompletedCheckpointID)
}

func TestLoadReturnsHighestCheckpointID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{AppName: "a", AppID: "1", CheckpointID: 2}))
	require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{AppName: "a", AppID: "1", CheckpointID: 9}))
	require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{AppName: "a", AppID: "1", CheckpointID: 4}))

	loaded, err := store.Load(ctx, "a", "1")
	require.NoError(t, err)
	require.Equal(t, uint64(9), loaded.CheckpointID)
}

func TestLoadByCheckpointIDAndNotFound(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{
		AppName: "a", AppID: "1", CheckpointID: 5,
		Handles: []checkpoint.TaskHandle{{TaskID: "t", Handle: []byte("x")}},
	}))

	loaded, err := store.LoadByCheckpointID(ctx, "a", "1", 5)
	require.NoError(t, err)
	require.Len(t, loaded.Handles, 1)

	_, err = store.LoadByCheckpointID(ctx, "a", "1", 99)
	require.ErrorIs(t, err, checkpoint.ErrNotFound)

	_, err = store.Load(ctx, "missing", "app")
	require.ErrorIs(t, err, checkpoint.ErrNotFound)
}
