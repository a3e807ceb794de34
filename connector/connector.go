// Package connector defines the external contracts the worker task
// runtime consumes (spec §6): InputFormat, OutputFormat, and
// CheckpointFunction. Concrete connector implementations (message-bus
// sources, search-index sinks) are deliberately out of scope per spec
// §1 — this package also carries a handful of reference
// implementations (vecsource, memsink, busource, searchsink) that
// exercise the contracts in tests, grounded in original_source/rlink-rs.
package connector

import (
	"context"

	"github.com/coreflow/coreflow/element"
)

// Context carries the task's identity and its application properties
// to the contract methods that take it. A recovered checkpoint handle
// is not part of it: InitializeState receives the handle as its own
// argument.
type Context struct {
	TaskID     element.TaskID
	Properties map[string]string
}

// Schema is an opaque, connector-defined field list; the builder only
// threads it through, never interprets it (spec §6 "schema(in) -> out").
type Schema []string

// InputFormat is the head of a source task's operator chain (spec
// §4.5/§6). Next returns io.EOF once the split is exhausted or the
// format has been closed.
type InputFormat interface {
	CreateInputSplits(minNumSplits int) ([]element.InputSplit, error)
	Open(split element.InputSplit, ctx *Context) error
	Next(ctx context.Context) (element.Element, error)
	Close() error
	Schema(in Schema) Schema
	Parallelism() uint16
}

// OutputFormat is the tail of a task's operator chain (spec §6).
type OutputFormat interface {
	Open(ctx *Context) error
	WriteRecord(r element.Record) error
	Close() error
	Schema(in Schema) Schema
}

// CheckpointFunction is implemented by any InputFormat, OutputFormat,
// or intermediate operator that carries state across checkpoints
// (spec §6). InitializeState is called exactly once before Open;
// SnapshotState is called once per barrier and may return ok=false to
// mean "nothing to snapshot this round".
type CheckpointFunction interface {
	InitializeState(ctx *Context, handle []byte) error
	SnapshotState(ctx *Context) (handle []byte, ok bool, err error)
}

// NopCheckpoint is embedded by connectors with no state to checkpoint,
// mirroring the teacher/rlink pattern of a blanket
// `impl CheckpointFunction for X {}` default.
type NopCheckpoint struct{}

func (NopCheckpoint) InitializeState(*Context, []byte) error { return nil }
func (NopCheckpoint) SnapshotState(*Context) ([]byte, bool, error) {
	return nil, false, nil
}

// FlatMapFunction is one step of the middle of an operator chain: it
// may emit zero, one, or many output records per input record.
type FlatMapFunction interface {
	FlatMap(ctx *Context, r element.Record) ([]element.Record, error)
	Name() string
}
