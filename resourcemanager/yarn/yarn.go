// Package yarn is a resourcemanager.Manager stub for Hadoop YARN
// clusters. No pack example imports a YARN client library, and the
// spec places concrete platform clients out of scope (spec §1); this
// type exists so `cluster.mode = yarn` resolves to a real, clearly
// unimplemented Manager rather than a missing case.
package yarn

import (
	"context"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/resourcemanager"
	"github.com/pkg/errors"
)

// Manager is an unimplemented resourcemanager.Manager for YARN.
type Manager struct {
	// ResourceManagerAddress is the YARN RM's address; unused until a
	// real client is wired in.
	ResourceManagerAddress string
}

// New returns a stub Manager targeting the given YARN ResourceManager
// address.
func New(resourceManagerAddress string) *Manager {
	return &Manager{ResourceManagerAddress: resourceManagerAddress}
}

func (m *Manager) Prepare(context.Context, *graph.ClusterDescriptor) error {
	return errors.New("resourcemanager/yarn: not implemented")
}

func (m *Manager) WorkerAllocate(context.Context, *graph.ClusterDescriptor, resourcemanager.Resource) ([]resourcemanager.TaskAllocation, error) {
	return nil, errors.New("resourcemanager/yarn: not implemented")
}

func (m *Manager) StopWorkers(context.Context, []resourcemanager.TaskAllocation) error {
	return errors.New("resourcemanager/yarn: not implemented")
}

var _ resourcemanager.Manager = (*Manager)(nil)
