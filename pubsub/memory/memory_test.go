package memory

import (
	"context"
	"testing"
	"time"

	"github.com/coreflow/coreflow/channel"
	"github.com/coreflow/coreflow/element"
	"github.com/stretchr/testify/require"
)

func TestPublishWithoutSubscriberFails(t *testing.T) {
	r := NewRegistry()
	up := element.TaskID{JobID: "j", TaskNumber: 0, NumTasks: 1}
	down := element.TaskID{JobID: "j", TaskNumber: 0, NumTasks: 1}
	err := r.Publish(context.Background(), up, down, element.NewWatermark(time.Now()))
	require.ErrorIs(t, err, ErrNoSubscriber)
}

func TestHashPartitionParallelism3(t *testing.T) {
	// spec §8 scenario 2: source emits {key:"x"} x 100; key-by hash;
	// downstream parallelism 3. All 100 records must land on exactly
	// one downstream task.
	r := NewRegistry()
	up := element.TaskID{JobID: "j", TaskNumber: 0, NumTasks: 1}

	var downstreams []element.TaskID
	var receivers []*channel.Receiver[element.Element]
	for i := uint16(0); i < 3; i++ {
		d := element.TaskID{JobID: "j", TaskNumber: i, NumTasks: 3}
		downstreams = append(downstreams, d)
		inputs := r.Subscribe([]element.TaskID{up}, d, 200, channel.Unbounded)
		receivers = append(receivers, inputs[0].Receiver)
	}

	var part element.HashByKey
	key := []byte("x")
	target := part.Partition(key, 0, 3)

	for i := 0; i < 100; i++ {
		err := r.Publish(context.Background(), up, downstreams[target], element.NewRecord(element.Record{Key: key}))
		require.NoError(t, err)
	}

	for i, d := range downstreams {
		_ = d
		count := 0
		for {
			_, err := receivers[i].TryRecv()
			if err != nil {
				break
			}
			count++
		}
		if uint16(i) == target {
			require.Equal(t, 100, count, "target downstream task must receive all 100 records")
		} else {
			require.Equal(t, 0, count, "non-target downstream tasks must receive nothing")
		}
	}
}
