package task

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"sync/atomic"
	"time"

	"github.com/coreflow/coreflow"
	"github.com/coreflow/coreflow/channel"
	"github.com/coreflow/coreflow/connector"
	"github.com/coreflow/coreflow/element"
	"github.com/coreflow/coreflow/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// UpstreamCloser is implemented by a Publisher that can signal
// Disconnected to one specific downstream edge (pubsub/memory.Registry
// does; pubsub/network has no such call since disconnect there is
// driven by the underlying TCP connection closing). A task calls this,
// when available, once it has no more elements to emit.
type UpstreamCloser interface {
	CloseUpstream(upstream, downstream element.TaskID)
}

// Task is one physical worker task: lifecycle open -> run -> close
// (spec §4.5). Exactly one of Source or Inputs is populated (the task
// is either the head of its chain or fed by upstream tasks); exactly
// one of Sink or Outputs is populated likewise.
type Task struct {
	ID         element.TaskID
	Properties map[string]string

	Source connector.InputFormat
	Split  *element.InputSplit

	Inputs []Input

	Chain []connector.FlatMapFunction

	Sink    connector.OutputFormat
	Outputs []OutputEdge

	Publisher Publisher
	Acker     CheckpointAcker

	cctx  *connector.Context
	stages []stage

	barrierRequests chan barrierRequest

	currentBarrierID           uint64
	currentCompletedCheckpoint uint64
	passed                     map[int]bool
	buffered                   map[int][]element.Element

	lastWatermark      []time.Time
	forwardedWatermark time.Time

	disconnected []bool
	recordIndex  uint64

	idleSource bool
}

// Open prepares the task to run. recoveredHandle is the per-task
// checkpoint handle returned by CheckpointStorage.load on recovery, or
// nil for a fresh start. Before Source/Sink Open, a non-nil handle is
// split across the stateful functions by restoreAll; on a fresh start
// every stateful function's InitializeState receives nil.
func (t *Task) Open(ctx context.Context, recoveredHandle []byte) error {
	t.cctx = &connector.Context{TaskID: t.ID, Properties: t.Properties}
	t.stages = buildChain(t.cctx, t.Chain)

	if recoveredHandle != nil {
		if err := t.restoreAll(t.cctx, recoveredHandle); err != nil {
			return errors.Wrap(err, "task: restore checkpoint state")
		}
	} else {
		for _, fn := range t.statefulFns() {
			if err := fn.InitializeState(t.cctx, nil); err != nil {
				return errors.Wrap(err, "task: initialize state")
			}
		}
	}

	if t.Source != nil {
		if t.Split == nil {
			// Builder assigned this parallel instance no input split
			// (fewer splits than parallelism, spec §4.4): it never
			// reads or emits and terminates immediately in Run.
			t.idleSource = true
		} else if err := t.Source.Open(*t.Split, t.cctx); err != nil {
			return coreflow.New(coreflow.KindConnectorOpenFailed, errors.Wrap(err, "task: open source"))
		}
		t.barrierRequests = make(chan barrierRequest, 1)
	}
	if t.Sink != nil {
		if err := t.Sink.Open(t.cctx); err != nil {
			return coreflow.New(coreflow.KindConnectorOpenFailed, errors.Wrap(err, "task: open sink"))
		}
	}

	t.lastWatermark = make([]time.Time, len(t.Inputs))
	t.disconnected = make([]bool, len(t.Inputs))
	return nil
}

// Close releases the head and tail connectors. Run must have returned
// before Close is called.
func (t *Task) Close() error {
	var firstErr error
	if t.Source != nil && !t.idleSource {
		if err := t.Source.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if t.Sink != nil {
		if err := t.Sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// barrierRequest is one coordinator-issued InjectBarrier call, queued
// for the source's run loop to pick up between reads.
type barrierRequest struct {
	id                    uint64
	completedCheckpointID uint64
}

// InjectBarrier requests that a source task emit Barrier(id) as soon
// as it next checks between input-split reads (spec §4.6: the
// coordinator injects barriers "at every source task"). completedID is
// the highest checkpoint id known globally complete at injection time
// (spec §4.6: "expose the most recent completed id for inclusion in
// subsequent barriers, so downstream components can trim pending
// resources for superseded checkpoints"); the coordinator passes its
// own Coordinator.LastCompleted(). Only valid on a task with Source
// set; a no-op otherwise. If a previous injection hasn't been consumed
// yet, this one is dropped and logged — the coordinator is expected to
// wait for one checkpoint's global completion before starting the next.
func (t *Task) InjectBarrier(id, completedID uint64) {
	if t.barrierRequests == nil {
		return
	}
	select {
	case t.barrierRequests <- barrierRequest{id: id, completedCheckpointID: completedID}:
	default:
		log.WithFields(log.Fields{"task": t.ID.String(), "checkpoint": id}).
			Warn("task: barrier injection dropped, previous still pending")
	}
}

// Run drives the task's element loop until its inputs disconnect, the
// coordinator reports global termination (ctx canceled), or an error
// occurs.
func (t *Task) Run(ctx context.Context) error {
	if t.Source != nil {
		return t.runSource(ctx)
	}
	return t.runOperator(ctx)
}

func (t *Task) runSource(ctx context.Context) error {
	if t.idleSource {
		t.closeDownstreams()
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-t.barrierRequests:
			if err := t.emitSourceBarrier(ctx, req.id, req.completedCheckpointID); err != nil {
				return err
			}
		default:
		}

		el, err := t.Source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				t.closeDownstreams()
				return nil
			}
			return errors.Wrap(err, "task: source read")
		}
		if err := t.processAndEmit(ctx, el.Record); err != nil {
			return err
		}
		metrics.TaskRecordsProcessed.WithLabelValues(t.ID.String()).Inc()
	}
}

func (t *Task) emitSourceBarrier(ctx context.Context, id, completedID uint64) error {
	handle, ok, err := t.snapshotAll(t.cctx)
	if err != nil {
		return errors.Wrap(err, "task: snapshot state")
	}
	if t.Acker != nil {
		t.Acker(t.ID, id, handle, ok)
	}
	return t.emitControl(ctx, element.NewBarrier(id, completedID))
}

func (t *Task) runOperator(ctx context.Context) error {
	for {
		recvs, idxs := t.liveInputs()
		if len(recvs) == 0 {
			t.closeDownstreams()
			return nil
		}

		pos, el, err := channel.Select(ctx, recvs)
		if err != nil {
			if errors.Is(err, channel.ErrDisconnected) {
				log.WithError(coreflow.New(coreflow.KindChannelDisconnected, err)).
					WithFields(log.Fields{"task": t.ID.String(), "input": idxs[pos]}).
					Debug("task: upstream disconnected")
				t.disconnected[idxs[pos]] = true
				continue
			}
			return err
		}
		if err := t.handleElement(ctx, idxs[pos], el); err != nil {
			return err
		}
	}
}

func (t *Task) liveInputs() ([]*channel.Receiver[element.Element], []int) {
	recvs := make([]*channel.Receiver[element.Element], 0, len(t.Inputs))
	idxs := make([]int, 0, len(t.Inputs))
	for i, in := range t.Inputs {
		if !t.disconnected[i] {
			recvs = append(recvs, in.Receiver)
			idxs = append(idxs, i)
		}
	}
	return recvs, idxs
}

// handleElement dispatches one element received on input idx: control
// elements bypass user functions per spec §4.5, and any element
// arriving on a channel that has already passed the in-flight barrier
// is buffered until alignment completes.
func (t *Task) handleElement(ctx context.Context, idx int, el element.Element) error {
	if t.currentBarrierID != 0 && t.passed[idx] && el.Kind != element.KindBarrier {
		t.buffered[idx] = append(t.buffered[idx], el)
		return nil
	}

	switch el.Kind {
	case element.KindBarrier:
		return t.onBarrier(ctx, idx, el.CheckpointID, el.CompletedCheckpointID)
	case element.KindWatermark:
		return t.onWatermark(ctx, idx, el.WatermarkTS)
	case element.KindStreamStatus:
		return t.emitControl(ctx, el)
	default:
		if err := t.processAndEmit(ctx, el.Record); err != nil {
			return err
		}
		metrics.TaskRecordsProcessed.WithLabelValues(t.ID.String()).Inc()
		return nil
	}
}

// onBarrier implements spec §4.5 alignment: a task with K inputs
// forwards Barrier(id) only once every input has delivered it.
// completedID is forwarded unchanged on the outgoing barrier — every
// input carries the same value for a given id, since it originates
// from one coordinator tick.
func (t *Task) onBarrier(ctx context.Context, idx int, id, completedID uint64) error {
	if t.currentBarrierID == 0 {
		t.currentBarrierID = id
		t.currentCompletedCheckpoint = completedID
		t.passed = make(map[int]bool, len(t.Inputs))
		t.buffered = make(map[int][]element.Element, len(t.Inputs))
	} else if id != t.currentBarrierID {
		return coreflow.New(coreflow.KindBarrierMisaligned,
			errors.Errorf("task %s: barrier %d arrived while %d still aligning", t.ID, id, t.currentBarrierID))
	}

	t.passed[idx] = true
	if len(t.passed) < len(t.Inputs) {
		return nil
	}

	handle, ok, err := t.snapshotAll(t.cctx)
	if err != nil {
		return errors.Wrap(err, "task: snapshot state")
	}
	if t.Acker != nil {
		t.Acker(t.ID, id, handle, ok)
	}
	if err := t.emitControl(ctx, element.NewBarrier(id, t.currentCompletedCheckpoint)); err != nil {
		return err
	}

	buffered := t.buffered
	t.currentBarrierID = 0
	t.passed = nil
	t.buffered = nil

	for i := range t.Inputs {
		for _, buf := range buffered[i] {
			if err := t.handleElement(ctx, i, buf); err != nil {
				return err
			}
		}
	}
	return nil
}

// onWatermark tracks the latest watermark seen per input and forwards
// the min across inputs whenever it advances (spec §5: "watermarks are
// taken as the min across input channels"). No watermark is forwarded
// until every input has reported at least one.
func (t *Task) onWatermark(ctx context.Context, idx int, ts time.Time) error {
	t.lastWatermark[idx] = ts

	min := ts
	for i, wm := range t.lastWatermark {
		if t.disconnected[i] {
			continue
		}
		if wm.IsZero() {
			return nil // not every live input has reported yet
		}
		if wm.Before(min) {
			min = wm
		}
	}
	if !min.After(t.forwardedWatermark) {
		return nil
	}
	t.forwardedWatermark = min
	return t.emitControl(ctx, element.NewWatermark(min))
}

func (t *Task) processAndEmit(ctx context.Context, r element.Record) error {
	out, err := runChain(t.stages, r)
	if err != nil {
		return errors.Wrap(err, "task: operator chain")
	}
	for _, rec := range out {
		if err := t.emitRecord(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (t *Task) emitRecord(ctx context.Context, r element.Record) error {
	if t.Sink != nil {
		return t.Sink.WriteRecord(r)
	}
	for _, oe := range t.Outputs {
		if len(oe.Downstreams) == 0 {
			continue
		}
		if _, broadcast := oe.Partitioner.(element.Broadcast); broadcast {
			for _, d := range oe.Downstreams {
				if err := t.Publisher.Publish(ctx, t.ID, d, element.NewRecord(r)); err != nil {
					return err
				}
			}
			continue
		}
		idx := oe.Partitioner.Partition(r.Key, atomic.AddUint64(&t.recordIndex, 1), uint16(len(oe.Downstreams)))
		if err := t.Publisher.Publish(ctx, t.ID, oe.Downstreams[idx], element.NewRecord(r)); err != nil {
			return err
		}
	}
	return nil
}

// emitControl forwards a Barrier/Watermark/StreamStatus element to
// every downstream task of every output edge — control elements are
// never partitioned, since each physical edge must carry each barrier
// exactly once (spec §8 invariant).
func (t *Task) emitControl(ctx context.Context, el element.Element) error {
	if t.Sink != nil {
		return nil
	}
	for _, oe := range t.Outputs {
		for _, d := range oe.Downstreams {
			if err := t.Publisher.Publish(ctx, t.ID, d, el); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Task) closeDownstreams() {
	closer, ok := t.Publisher.(UpstreamCloser)
	if !ok {
		return
	}
	for _, oe := range t.Outputs {
		for _, d := range oe.Downstreams {
			closer.CloseUpstream(t.ID, d)
		}
	}
}

// statefulFns returns, in a fixed order (source, then chain in
// declaration order, then sink), every function that carries
// checkpointed state. The order is itself part of the handle's wire
// format: restoreAll replays the same order to hand each function back
// its own slice.
func (t *Task) statefulFns() []connector.CheckpointFunction {
	var fns []connector.CheckpointFunction
	if cf, ok := t.Source.(connector.CheckpointFunction); ok {
		fns = append(fns, cf)
	}
	for _, fn := range t.Chain {
		if cf, ok := fn.(connector.CheckpointFunction); ok {
			fns = append(fns, cf)
		}
	}
	if cf, ok := t.Sink.(connector.CheckpointFunction); ok {
		fns = append(fns, cf)
	}
	return fns
}

// snapshotAll concatenates each stateful function's handle as
// [u32 len][bytes], in statefulFns order. ok is false only when no
// function had anything to snapshot this round.
func (t *Task) snapshotAll(cctx *connector.Context) ([]byte, bool, error) {
	fns := t.statefulFns()
	if len(fns) == 0 {
		return nil, false, nil
	}

	var buf bytes.Buffer
	any := false
	for _, fn := range fns {
		h, ok, err := fn.SnapshotState(cctx)
		if err != nil {
			return nil, false, err
		}
		n := uint32(0)
		if ok {
			n = uint32(len(h))
			any = true
		}
		if err := binary.Write(&buf, binary.BigEndian, n); err != nil {
			return nil, false, err
		}
		buf.Write(h[:n])
	}
	if !any {
		return nil, false, nil
	}
	return buf.Bytes(), true, nil
}

// restoreAll is the inverse of snapshotAll: it splits handle back into
// one slice per stateful function, in the same order, and hands each
// one to InitializeState. A handle shorter than expected (e.g. the
// first-ever checkpoint snapshotted fewer functions than the job now
// has) simply leaves the remaining functions uninitialized.
func (t *Task) restoreAll(cctx *connector.Context, handle []byte) error {
	fns := t.statefulFns()
	r := bytes.NewReader(handle)
	for _, fn := range fns {
		var n uint32
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}
		if err := fn.InitializeState(cctx, buf); err != nil {
			return err
		}
	}
	return nil
}
