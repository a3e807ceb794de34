package task

import (
	"context"
	"testing"
	"time"

	"github.com/coreflow/coreflow/channel"
	"github.com/coreflow/coreflow/connector"
	"github.com/coreflow/coreflow/element"
	"github.com/coreflow/coreflow/pubsub/memory"
	"github.com/stretchr/testify/require"
)

func newTaskID(job string, n, of uint16) element.TaskID {
	return element.TaskID{JobID: job, TaskNumber: n, NumTasks: of}
}

// TestLocalEcho is spec §8 scenario 1: source emits two records,
// identity map, memory sink collects them in input order.
func TestLocalEcho(t *testing.T) {
	registry := memory.NewRegistry()
	srcID := newTaskID("echo", 0, 1)
	sinkID := newTaskID("echo", 0, 1)

	split := element.InputSplit{Index: 0, CreateConnection: true}
	source := connector.NewVecSource([]element.Record{
		{Key: []byte("a"), EventTime: time.Unix(0, 0)},
		{Key: []byte("b"), EventTime: time.Unix(1, 0)},
	})

	sink := connector.NewMemSink()

	srcTask := &Task{
		ID:        srcID,
		Split:     &split,
		Source:    source,
		Publisher: registry,
		Outputs: []OutputEdge{
			{Partitioner: element.Forward{}, Downstreams: []element.TaskID{sinkID}},
		},
	}

	inputs := registry.Subscribe([]element.TaskID{srcID}, sinkID, 16, channel.Bounded)
	taskInputs := make([]Input, len(inputs))
	for i, in := range inputs {
		taskInputs[i] = Input{Upstream: in.Upstream, Receiver: in.Receiver}
	}

	sinkTask := &Task{
		ID:     sinkID,
		Inputs: taskInputs,
		Sink:   sink,
	}

	require.NoError(t, srcTask.Open(context.Background(), nil))
	require.NoError(t, sinkTask.Open(context.Background(), nil))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- sinkTask.Run(ctx) }()

	require.NoError(t, srcTask.Run(ctx))
	require.NoError(t, <-done)

	require.NoError(t, srcTask.Close())
	require.NoError(t, sinkTask.Close())

	records := sink.Records()
	require.Len(t, records, 2)
	require.Equal(t, []byte("a"), records[0].Key)
	require.Equal(t, []byte("b"), records[1].Key)
}

// TestBarrierAlignment is spec §8 scenario 3: two upstream tasks, one
// downstream. A sends R1, Barrier(5), R2; B sends R3, R4, Barrier(5).
// Downstream must emit {R1,R3,R4} in some order before forwarding
// Barrier(5), then R2 after.
func TestBarrierAlignment(t *testing.T) {
	registry := memory.NewRegistry()
	upA := newTaskID("align", 0, 2)
	upB := newTaskID("align", 1, 2)
	down := newTaskID("align", 0, 1)

	inputs := registry.Subscribe([]element.TaskID{upA, upB}, down, 16, channel.Bounded)
	taskInputs := make([]Input, len(inputs))
	for i, in := range inputs {
		taskInputs[i] = Input{Upstream: in.Upstream, Receiver: in.Receiver}
	}

	sink := connector.NewMemSink()
	acked := make(chan uint64, 4)
	downTask := &Task{
		ID:     down,
		Inputs: taskInputs,
		Sink:   sink,
		Acker: func(taskID element.TaskID, checkpointID uint64, handle []byte, ok bool) {
			acked <- checkpointID
		},
	}
	require.NoError(t, downTask.Open(context.Background(), nil))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- downTask.Run(ctx) }()

	rec := func(k string) element.Element { return element.NewRecord(element.Record{Key: []byte(k)}) }

	require.NoError(t, registry.Publish(context.Background(), upA, down, rec("R1")))
	require.NoError(t, registry.Publish(context.Background(), upB, down, rec("R3")))
	require.NoError(t, registry.Publish(context.Background(), upB, down, rec("R4")))
	require.NoError(t, registry.Publish(context.Background(), upA, down, element.NewBarrier(5, 0)))

	// R2 is sent after A's barrier: it must be buffered until B's
	// barrier also arrives, then replayed after the forwarded barrier.
	require.NoError(t, registry.Publish(context.Background(), upA, down, rec("R2")))
	require.NoError(t, registry.Publish(context.Background(), upB, down, element.NewBarrier(5, 0)))

	require.Eventually(t, func() bool { return len(sink.Records()) == 4 }, 2*time.Second, 10*time.Millisecond)

	records := sink.Records()
	require.Len(t, records, 4)

	preBarrier := map[string]bool{}
	for _, r := range records[:3] {
		preBarrier[string(r.Key)] = true
	}
	require.True(t, preBarrier["R1"])
	require.True(t, preBarrier["R3"])
	require.True(t, preBarrier["R4"])
	require.Equal(t, "R2", string(records[3].Key))

	select {
	case id := <-acked:
		require.Equal(t, uint64(5), id)
	case <-time.After(time.Second):
		t.Fatal("expected a checkpoint ack")
	}

	registry.CloseUpstream(upA, down)
	registry.CloseUpstream(upB, down)
	cancel()
	<-done
	require.NoError(t, downTask.Close())
}
