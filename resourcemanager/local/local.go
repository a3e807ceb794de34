// Package local implements resourcemanager.Manager for a single
// process: every task instance runs as a goroutine in the calling
// process, so "allocation" is bookkeeping only.
package local

import (
	"context"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/resourcemanager"
	log "github.com/sirupsen/logrus"
)

// Manager places every task on the single in-process worker. Useful
// for tests and single-node development runs (spec §4.7 "local").
type Manager struct {
	// WorkerID is the identity reported for every task allocation.
	WorkerID string
}

// New returns a Manager reporting workerID for every allocation.
func New(workerID string) *Manager {
	return &Manager{WorkerID: workerID}
}

func (m *Manager) Prepare(_ context.Context, descriptor *graph.ClusterDescriptor) error {
	log.WithFields(log.Fields{"job": descriptor.JobID, "tasks": len(descriptor.Tasks)}).
		Debug("resourcemanager/local: prepared")
	return nil
}

func (m *Manager) WorkerAllocate(_ context.Context, descriptor *graph.ClusterDescriptor, _ resourcemanager.Resource) ([]resourcemanager.TaskAllocation, error) {
	worker := resourcemanager.WorkerInfo{WorkerID: m.WorkerID, Address: "local"}
	out := make([]resourcemanager.TaskAllocation, 0, len(descriptor.Tasks))
	for _, t := range descriptor.Tasks {
		out = append(out, resourcemanager.TaskAllocation{TaskID: t.ID, Worker: worker})
	}
	return out, nil
}

func (m *Manager) StopWorkers(_ context.Context, allocations []resourcemanager.TaskAllocation) error {
	log.WithField("tasks", len(allocations)).Debug("resourcemanager/local: stopped")
	return nil
}

var _ resourcemanager.Manager = (*Manager)(nil)
