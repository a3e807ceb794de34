// Package resourcemanager is the pluggable worker-placement contract
// (spec §4.7): validate feasibility, allocate workers for a compiled
// graph, tear them down. The core only ever depends on the Manager
// interface; local/standalone/yarn/kubernetes are swappable variants
// differing only in how they contact the underlying platform.
package resourcemanager

import (
	"context"

	"github.com/coreflow/coreflow"
	"github.com/coreflow/coreflow/element"
	"github.com/coreflow/coreflow/graph"
	"github.com/pkg/errors"
)

// Resource is the per-task resource request a Manager allocates
// against.
type Resource struct {
	MemoryMB uint32
	CPUCores uint32
}

// WorkerInfo identifies a placed worker process.
type WorkerInfo struct {
	WorkerID string
	Address  string // host:port the coordinator dials for the rpc control plane
}

// TaskAllocation is where one ClusterDescriptor task instance landed.
type TaskAllocation struct {
	TaskID element.TaskID
	Worker WorkerInfo
}

// Manager is the platform-independent worker placement contract (spec
// §4.7). All variants must return within a bounded time or surface
// ErrResourceAllocationFailed; a partial allocation
// failure must roll back whatever it already placed.
type Manager interface {
	// Prepare validates feasibility and stages any artifacts the
	// platform needs before allocation (e.g. registering the job in a
	// coordination store). Fatal on failure — spec §4.7/§7
	// ConfigInvalid/ResourceAllocationFailed.
	Prepare(ctx context.Context, descriptor *graph.ClusterDescriptor) error

	// WorkerAllocate returns where each task instance of descriptor
	// runs. On any partial failure it MUST roll back every allocation
	// it already made and return ErrResourceAllocationFailed.
	WorkerAllocate(ctx context.Context, descriptor *graph.ClusterDescriptor, resource Resource) ([]TaskAllocation, error)

	// StopWorkers tears down a previously returned allocation.
	StopWorkers(ctx context.Context, allocations []TaskAllocation) error
}

// ErrResourceAllocationFailed is returned by WorkerAllocate when any
// part of the requested allocation could not be satisfied, after
// rolling back whatever had already succeeded. It carries
// KindResourceAllocationFailed (spec §7), so callers can branch on
// coreflow.Is rather than string-matching.
var ErrResourceAllocationFailed = coreflow.New(coreflow.KindResourceAllocationFailed, errors.New("resourcemanager: allocation failed"))
