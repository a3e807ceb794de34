package memory

import (
	"context"
	"testing"

	"github.com/coreflow/coreflow/checkpoint"
	"github.com/stretchr/testify/require"
)

func TestLoadReturnsMostRecentCheckpoint(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{AppName: "a", AppID: "1", CheckpointID: 3}))
	require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{AppName: "a", AppID: "1", CheckpointID: 7}))
	require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{AppName: "a", AppID: "1", CheckpointID: 5}))

	cp, err := store.Load(ctx, "a", "1")
	require.NoError(t, err)
	require.Equal(t, uint64(7), cp.CheckpointID)
}

func TestLoadByCheckpointIDReturnsSpecificID(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{AppName: "a", AppID: "1", CheckpointID: 3}))
	require.NoError(t, store.Save(ctx, checkpoint.Checkpoint{AppName: "a", AppID: "1", CheckpointID: 7}))

	cp, err := store.LoadByCheckpointID(ctx, "a", "1", 3)
	require.NoError(t, err)
	require.Equal(t, uint64(3), cp.CheckpointID)

	_, err = store.LoadByCheckpointID(ctx, "a", "1", 99)
	require.ErrorIs(t, err, checkpoint.ErrNotFound)
}

func TestLoadUnknownAppReturnsNotFound(t *testing.T) {
	store := New()
	_, err := store.Load(context.Background(), "missing", "1")
	require.ErrorIs(t, err, checkpoint.ErrNotFound)
}
