package checkpoint

import (
	"context"
	"sync"
	"time"

	"github.com/coreflow/coreflow"
	"github.com/coreflow/coreflow/element"
	"github.com/coreflow/coreflow/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// BarrierInjector is the subset of task.Task's API the coordinator
// needs to start a checkpoint (spec §4.6: "inject Barrier(id) at every
// source task"). task.Task.InjectBarrier satisfies this directly.
type BarrierInjector interface {
	InjectBarrier(id, completedCheckpointID uint64)
}

// inFlight tracks one checkpoint's acknowledgements as they arrive.
type inFlight struct {
	startedAt time.Time
	acks      map[string]TaskHandle // keyed by TaskID.String()

	// completedCheckpointID is the value stamped on this round's
	// barriers (spec §4.6), carried through to the saved Checkpoint.
	completedCheckpointID uint64
}

// Coordinator is the singleton checkpoint driver running in the
// coordinator process (spec §4.6). One Coordinator per running
// application.
type Coordinator struct {
	AppName     string
	AppID       string
	Interval    time.Duration
	TTL         uint64
	Storage     Storage
	TotalTasks  int
	SourceTasks []BarrierInjector

	mu            sync.Mutex
	nextID        uint64
	lastCompleted uint64
	pending       map[uint64]*inFlight
}

// NewCoordinator returns a Coordinator ready to Run once its fields
// are populated by the caller (the worker/job bootstrap, once the
// ClusterDescriptor and its tasks exist).
func NewCoordinator(appName, appID string, interval time.Duration, ttl uint64, storage Storage) *Coordinator {
	return &Coordinator{
		AppName:  appName,
		AppID:    appID,
		Interval: interval,
		TTL:      ttl,
		Storage:  storage,
		pending:  make(map[uint64]*inFlight),
	}
}

// Run injects a new checkpoint every Interval, skipping a tick if the
// previous checkpoint hasn't reached global completion yet — spec §4.5
// assumes a single in-flight barrier per task, so the coordinator never
// overlaps two checkpoints.
func (c *Coordinator) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.tick()
		}
	}
}

func (c *Coordinator) tick() {
	c.mu.Lock()
	if len(c.pending) > 0 {
		c.mu.Unlock()
		log.WithField("app", c.AppName).Debug("checkpoint: previous checkpoint still aligning, skipping tick")
		return
	}
	id := c.nextID + 1
	c.nextID = id
	completedID := c.lastCompleted
	c.pending[id] = &inFlight{
		startedAt:             time.Now(),
		acks:                  make(map[string]TaskHandle, c.TotalTasks),
		completedCheckpointID: completedID,
	}
	c.mu.Unlock()

	log.WithFields(log.Fields{"app": c.AppName, "checkpoint": id, "sources": len(c.SourceTasks)}).
		Info("checkpoint: injecting barrier")
	for _, src := range c.SourceTasks {
		src.InjectBarrier(id, completedID)
	}
}

// Ack records one task's acknowledgement for a checkpoint (spec §4.6).
// It is the function value wired as every task's task.CheckpointAcker.
// Once every task in the job has acknowledged, the checkpoint is
// declared globally complete and saved.
func (c *Coordinator) Ack(taskID element.TaskID, checkpointID uint64, handle []byte, ok bool) {
	_ = ok // an empty handle already signals "nothing to restore" on recovery

	c.mu.Lock()
	cp, exists := c.pending[checkpointID]
	if !exists {
		c.mu.Unlock()
		log.WithFields(log.Fields{"task": taskID.String(), "checkpoint": checkpointID}).
			Warn("checkpoint: ack for unknown or already-completed checkpoint")
		return
	}
	cp.acks[taskID.String()] = TaskHandle{TaskID: taskID.String(), Handle: handle}
	complete := len(cp.acks) >= c.TotalTasks
	if complete {
		delete(c.pending, checkpointID)
	}
	c.mu.Unlock()

	if !complete {
		return
	}
	c.complete(checkpointID, cp)
}

func (c *Coordinator) complete(checkpointID uint64, cp *inFlight) {
	handles := make([]TaskHandle, 0, len(cp.acks))
	for _, h := range cp.acks {
		handles = append(handles, h)
	}

	saved := Checkpoint{
		AppName:               c.AppName,
		AppID:                 c.AppID,
		CheckpointID:          checkpointID,
		Handles:               handles,
		TTL:                   c.TTL,
		CompletedCheckpointID: cp.completedCheckpointID,
	}
	if err := c.Storage.Save(context.Background(), saved); err != nil {
		// Abandoned, not retried: the next barrier starts a fresh attempt
		// at checkpointID+1 rather than re-saving this one (spec §7
		// CheckpointFailed).
		log.WithError(coreflow.New(coreflow.KindCheckpointFailed, err)).
			WithField("checkpoint", checkpointID).Error("checkpoint: save failed")
		return
	}

	c.mu.Lock()
	if checkpointID > c.lastCompleted {
		c.lastCompleted = checkpointID
	}
	c.mu.Unlock()

	metrics.CheckpointDuration.WithLabelValues(c.AppName).Observe(time.Since(cp.startedAt).Seconds())
	log.WithFields(log.Fields{"app": c.AppName, "checkpoint": checkpointID, "tasks": len(handles)}).
		Info("checkpoint: globally complete")
}

// LastCompleted returns the most recently completed checkpoint id, for
// inclusion in subsequent barriers so downstream components can trim
// pending resources for superseded checkpoints (spec §4.6). Zero means
// none has completed yet.
func (c *Coordinator) LastCompleted() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastCompleted
}

// Recover loads the latest completed checkpoint's per-task handles,
// keyed by TaskID.String(), and primes the coordinator's own id
// counters so the next Run tick continues from where the failed
// attempt left off. A nil map with no error means there is no prior
// checkpoint to recover from (spec §4.6).
func (c *Coordinator) Recover(ctx context.Context) (map[string][]byte, uint64, error) {
	cp, err := c.Storage.Load(ctx, c.AppName, c.AppID)
	if errors.Is(err, ErrNotFound) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, errors.Wrap(err, "checkpoint: load for recovery")
	}

	handles := make(map[string][]byte, len(cp.Handles))
	for _, h := range cp.Handles {
		handles[h.TaskID] = h.Handle
	}

	c.mu.Lock()
	c.lastCompleted = cp.CheckpointID
	c.nextID = cp.CheckpointID
	c.mu.Unlock()

	return handles, cp.CheckpointID, nil
}
