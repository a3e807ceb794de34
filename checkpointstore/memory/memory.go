// Package memory is an in-process checkpoint.Storage, useful for
// local runs and tests where nothing needs to survive a process
// restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/coreflow/coreflow/checkpoint"
)

type key struct {
	appName string
	appID   string
}

// Store is a process-local checkpoint.Storage keeping, per
// application, every checkpoint it has ever saved so
// LoadByCheckpointID can still answer for an older id.
type Store struct {
	mu   sync.RWMutex
	byID map[key]map[uint64]checkpoint.Checkpoint
}

// New returns an empty Store.
func New() *Store {
	return &Store{byID: make(map[key]map[uint64]checkpoint.Checkpoint)}
}

func (s *Store) Save(_ context.Context, cp checkpoint.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{appName: cp.AppName, appID: cp.AppID}
	app, ok := s.byID[k]
	if !ok {
		app = make(map[uint64]checkpoint.Checkpoint)
		s.byID[k] = app
	}
	app[cp.CheckpointID] = cp
	return nil
}

func (s *Store) Load(_ context.Context, appName, appID string) (checkpoint.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.byID[key{appName: appName, appID: appID}]
	if !ok || len(app) == 0 {
		return checkpoint.Checkpoint{}, checkpoint.ErrNotFound
	}

	ids := make([]uint64, 0, len(app))
	for id := range app {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return app[ids[0]], nil
}

func (s *Store) LoadByCheckpointID(_ context.Context, appName, appID string, checkpointID uint64) (checkpoint.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.byID[key{appName: appName, appID: appID}]
	if !ok {
		return checkpoint.Checkpoint{}, checkpoint.ErrNotFound
	}
	cp, ok := app[checkpointID]
	if !ok {
		return checkpoint.Checkpoint{}, checkpoint.ErrNotFound
	}
	return cp, nil
}

var _ checkpoint.Storage = (*Store)(nil)
