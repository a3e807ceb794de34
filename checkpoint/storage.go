package checkpoint

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Load/LoadByCheckpointID when the
// application has no matching completed checkpoint — a fresh start,
// not an error condition the caller should abort on.
var ErrNotFound = errors.New("checkpoint: not found")

// Storage is the persistence contract the coordinator saves completed
// checkpoints to and loads them from on recovery (spec §4.6). Save is
// atomic per (AppID, CheckpointID); Load returns the handles of the
// latest CheckpointID for which every task acknowledged;
// LoadByCheckpointID returns one specific id's handles. The memory and
// relational stores keep each checkpoint's TTL with it and never
// prune older snapshots.
type Storage interface {
	Save(ctx context.Context, cp Checkpoint) error
	Load(ctx context.Context, appName, appID string) (Checkpoint, error)
	LoadByCheckpointID(ctx context.Context, appName, appID string, checkpointID uint64) (Checkpoint, error)
}
