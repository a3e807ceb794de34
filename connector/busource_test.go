package connector

import (
	"context"
	"encoding/binary"
	"io"
	"testing"

	"github.com/coreflow/coreflow/element"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	records map[string][][]byte // key topic -> payloads by offset (partition is ignored)
}

func (f *fakeFetcher) Fetch(ctx context.Context, topic string, partition int, fromOffset int64) ([]byte, int64, error) {
	key := topic
	payloads := f.records[key]
	if int(fromOffset) >= len(payloads) {
		return nil, fromOffset, io.EOF
	}
	return payloads[fromOffset], fromOffset + 1, nil
}

func TestBuSourceEnumeratesTopicPartitionSplits(t *testing.T) {
	src := NewBuSource(&fakeFetcher{}, []string{"events", "clicks"}, 2)
	splits, err := src.CreateInputSplits(0)
	require.NoError(t, err)
	require.Len(t, splits, 4)
	require.Equal(t, "events", splits[0].Properties["topic"])
	require.Equal(t, "0", splits[0].Properties["partition"])
	require.Equal(t, "1", splits[1].Properties["partition"])
	require.True(t, splits[0].CreateConnection)
}

func TestBuSourceResumesFromCheckpointedOffset(t *testing.T) {
	fetcher := &fakeFetcher{records: map[string][][]byte{
		"events": {[]byte("a"), []byte("b"), []byte("c")},
	}}
	src := NewBuSource(fetcher, []string{"events"}, 1)

	handle := make([]byte, 8)
	binary.BigEndian.PutUint64(handle, 2)
	require.NoError(t, src.InitializeState(nil, handle))

	split := element.InputSplit{
		Index:            0,
		Properties:       map[string]string{"topic": "events", "partition": "0"},
		CreateConnection: true,
	}
	require.NoError(t, src.Open(split, &Context{}))

	el, err := src.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte("c"), el.Record.Payload)

	snap, ok, err := src.SnapshotState(nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(3), binary.BigEndian.Uint64(snap))
}
