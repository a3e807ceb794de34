// Package kubernetes is a resourcemanager.Manager stub for Kubernetes
// clusters. No pack example imports k8s.io/client-go as a direct
// dependency, and the spec places concrete platform clients out of
// scope (spec §1); this type exists so `cluster.mode = kubernetes`
// resolves to a real, clearly unimplemented Manager rather than a
// missing case.
package kubernetes

import (
	"context"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/resourcemanager"
	"github.com/pkg/errors"
)

// Manager is an unimplemented resourcemanager.Manager for Kubernetes.
type Manager struct {
	// Namespace is the target namespace for worker Pods; unused until a
	// real client is wired in.
	Namespace string
}

// New returns a stub Manager targeting the given namespace.
func New(namespace string) *Manager {
	return &Manager{Namespace: namespace}
}

func (m *Manager) Prepare(context.Context, *graph.ClusterDescriptor) error {
	return errors.New("resourcemanager/kubernetes: not implemented")
}

func (m *Manager) WorkerAllocate(context.Context, *graph.ClusterDescriptor, resourcemanager.Resource) ([]resourcemanager.TaskAllocation, error) {
	return nil, errors.New("resourcemanager/kubernetes: not implemented")
}

func (m *Manager) StopWorkers(context.Context, []resourcemanager.TaskAllocation) error {
	return errors.New("resourcemanager/kubernetes: not implemented")
}

var _ resourcemanager.Manager = (*Manager)(nil)
