package connector

import (
	"sync"

	"github.com/coreflow/coreflow/element"
)

// MemSink is an OutputFormat that collects written records behind a
// mutex, for assertions in tests (spec §8 scenario 1's "memory sink
// collects").
type MemSink struct {
	NopCheckpoint

	mu      sync.Mutex
	records []element.Record
}

func NewMemSink() *MemSink { return &MemSink{} }

func (m *MemSink) Open(ctx *Context) error { return nil }

func (m *MemSink) WriteRecord(r element.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

func (m *MemSink) Close() error { return nil }

func (m *MemSink) Schema(in Schema) Schema { return in }

// Records returns a snapshot copy of everything written so far.
func (m *MemSink) Records() []element.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]element.Record, len(m.records))
	copy(out, m.records)
	return out
}
