package element

import (
	"hash/fnv"
	"sync/atomic"
)

// Partitioner maps a record (via its key) and the current record index
// to a downstream task number in [0, numTasks). Implementations must be
// deterministic given the same key and numTasks (spec §3 invariant,
// testable property in spec §8: "hash(k, N) is stable across
// invocations").
type Partitioner interface {
	Partition(key []byte, recordIndex uint64, numTasks uint16) uint16
	Name() string
}

// Forward sends every record to index 0 of the downstream list; used
// when upstream and downstream parallelism match 1:1 and no shuffling
// is required. It pairs tasks one-to-one only when each upstream
// task's list holds just its same-numbered downstream task, which is
// how graph.Build pairs Forward edges.
type Forward struct{}

func (Forward) Partition(_ []byte, _ uint64, numTasks uint16) uint16 {
	if numTasks == 0 {
		return 0
	}
	return 0
}
func (Forward) Name() string { return "forward" }

// HashByKey routes deterministically on the record key via FNV-1a,
// the stable hash(k, N) required by spec §8.
type HashByKey struct{}

func (HashByKey) Partition(key []byte, _ uint64, numTasks uint16) uint16 {
	if numTasks == 0 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write(key)
	return uint16(h.Sum32() % uint32(numTasks))
}
func (HashByKey) Name() string { return "hash" }

// Rebalance distributes records round-robin across downstream tasks,
// ignoring the key, to spread load evenly regardless of key skew.
type Rebalance struct {
	counter uint64
}

func (r *Rebalance) Partition(_ []byte, _ uint64, numTasks uint16) uint16 {
	if numTasks == 0 {
		return 0
	}
	n := atomic.AddUint64(&r.counter, 1)
	return uint16(n % uint64(numTasks))
}
func (*Rebalance) Name() string { return "rebalance" }

// Broadcast indicates every downstream task number should receive the
// element. It satisfies Partitioner so it can be stored in the same
// LogicalEdge field as the others, but callers MUST type-switch for
// Broadcast and fan out to every downstream task themselves rather
// than call Partition, which has no single target to return.
type Broadcast struct{}

func (Broadcast) Partition(_ []byte, _ uint64, numTasks uint16) uint16 {
	panic("element: Partition called directly on Broadcast; callers must special-case it")
}
func (Broadcast) Name() string { return "broadcast" }
