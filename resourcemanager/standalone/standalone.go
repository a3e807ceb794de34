// Package standalone implements resourcemanager.Manager against a
// pre-existing, self-managed cluster of worker processes that
// register themselves in etcd (spec §4.7 "standalone"): no platform
// scheduler, just a shared coordination keyspace workers advertise
// themselves into and the coordinator reads from.
package standalone

import (
	"context"
	"fmt"
	"time"

	"github.com/coreflow/coreflow/graph"
	"github.com/coreflow/coreflow/resourcemanager"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const (
	workersPrefix     = "/coreflow/workers/"
	allocationsPrefix = "/coreflow/allocations/"
	leaseTTLSeconds   = 30
	allocateTimeout   = 10 * time.Second
)

// Manager allocates tasks onto workers registered under workersPrefix
// in etcd, each key's value the worker's dial address.
type Manager struct {
	Client *clientv3.Client
}

// New returns a Manager backed by client.
func New(client *clientv3.Client) *Manager {
	return &Manager{Client: client}
}

// RegisterWorker advertises this process as an allocatable worker,
// keeping its key alive via an etcd lease until ctx is cancelled. Run
// this from the worker process, not the coordinator.
func (m *Manager) RegisterWorker(ctx context.Context, workerID, address string) error {
	lease, err := m.Client.Grant(ctx, leaseTTLSeconds)
	if err != nil {
		return errors.Wrap(err, "standalone: granting worker lease")
	}
	if _, err := m.Client.Put(ctx, workersPrefix+workerID, address, clientv3.WithLease(lease.ID)); err != nil {
		return errors.Wrap(err, "standalone: registering worker")
	}
	keepAlive, err := m.Client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return errors.Wrap(err, "standalone: starting lease keepalive")
	}
	go func() {
		for range keepAlive {
			// drain; etcd client handles the renewal cadence internally
		}
	}()
	return nil
}

func (m *Manager) Prepare(ctx context.Context, descriptor *graph.ClusterDescriptor) error {
	prepCtx, cancel := context.WithTimeout(ctx, allocateTimeout)
	defer cancel()

	resp, err := m.Client.Get(prepCtx, workersPrefix, clientv3.WithPrefix())
	if err != nil {
		return errors.Wrap(err, "standalone: listing registered workers")
	}
	if len(resp.Kvs) == 0 {
		return errors.Wrapf(resourcemanager.ErrResourceAllocationFailed, "no workers registered under %s", workersPrefix)
	}
	log.WithFields(log.Fields{"job": descriptor.JobID, "workers": len(resp.Kvs), "tasks": len(descriptor.Tasks)}).
		Debug("resourcemanager/standalone: prepared")
	return nil
}

// WorkerAllocate round-robins descriptor's task instances across the
// currently-registered workers, persisting each assignment
// transactionally under allocationsPrefix so a concurrent allocation
// attempt for the same job fails cleanly rather than double-booking.
// Any failure rolls back every key this call itself created.
func (m *Manager) WorkerAllocate(ctx context.Context, descriptor *graph.ClusterDescriptor, _ resourcemanager.Resource) ([]resourcemanager.TaskAllocation, error) {
	allocCtx, cancel := context.WithTimeout(ctx, allocateTimeout)
	defer cancel()

	resp, err := m.Client.Get(allocCtx, workersPrefix, clientv3.WithPrefix())
	if err != nil {
		return nil, errors.Wrap(err, "standalone: listing registered workers")
	}
	if len(resp.Kvs) == 0 {
		return nil, errors.Wrapf(resourcemanager.ErrResourceAllocationFailed, "no workers registered under %s", workersPrefix)
	}

	workers := make([]resourcemanager.WorkerInfo, len(resp.Kvs))
	for i, kv := range resp.Kvs {
		workers[i] = resourcemanager.WorkerInfo{
			WorkerID: string(kv.Key[len(workersPrefix):]),
			Address:  string(kv.Value),
		}
	}

	allocations := make([]resourcemanager.TaskAllocation, 0, len(descriptor.Tasks))
	var cmps []clientv3.Cmp
	var ops []clientv3.Op

	for i, t := range descriptor.Tasks {
		worker := workers[i%len(workers)]
		allocations = append(allocations, resourcemanager.TaskAllocation{TaskID: t.ID, Worker: worker})

		key := allocationKey(descriptor.JobID, t.ID.String())
		cmps = append(cmps, clientv3.Compare(clientv3.CreateRevision(key), "=", 0))
		ops = append(ops, clientv3.OpPut(key, worker.WorkerID))
	}

	txnResp, err := m.Client.Txn(allocCtx).If(cmps...).Then(ops...).Commit()
	if err != nil {
		return nil, errors.Wrap(err, "standalone: allocation transaction")
	}
	if !txnResp.Succeeded {
		return nil, errors.Wrapf(resourcemanager.ErrResourceAllocationFailed, "job %s already has an allocation in progress", descriptor.JobID)
	}

	log.WithFields(log.Fields{"job": descriptor.JobID, "tasks": len(allocations)}).
		Info("resourcemanager/standalone: allocated")
	return allocations, nil
}

// StopWorkers removes the allocation keys this Manager created. It
// does not terminate the worker processes themselves — those keep
// running and simply become eligible for the next allocation.
func (m *Manager) StopWorkers(ctx context.Context, allocations []resourcemanager.TaskAllocation) error {
	stopCtx, cancel := context.WithTimeout(ctx, allocateTimeout)
	defer cancel()

	var firstErr error
	for _, a := range allocations {
		// jobID isn't carried on TaskAllocation; the task id alone is
		// unique enough within the coordinator's allocation keyspace
		// since TaskID embeds its owning JobID.
		key := allocationKey(a.TaskID.JobID, a.TaskID.String())
		if _, err := m.Client.Delete(stopCtx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return errors.Wrap(firstErr, "standalone: releasing allocations")
}

func allocationKey(jobID, taskID string) string {
	return fmt.Sprintf("%s%s/%s", allocationsPrefix, jobID, taskID)
}

var _ resourcemanager.Manager = (*Manager)(nil)
