package handover

import (
	"testing"
	"time"

	"github.com/coreflow/coreflow/element"
	"github.com/stretchr/testify/require"
)

func TestProduceThenPollInOrder(t *testing.T) {
	h := New(4)
	for i := 0; i < 4; i++ {
		require.True(t, h.Produce(element.Record{Payload: []byte{byte(i)}}))
	}
	for i := 0; i < 4; i++ {
		r, err := h.TryPollNext()
		require.NoError(t, err)
		require.Equal(t, []byte{byte(i)}, r.Payload)
	}
	_, err := h.TryPollNext()
	require.ErrorIs(t, err, ErrEmpty)
}

func TestProduceBlocksAtCapacityUntilDrained(t *testing.T) {
	h := New(1)
	require.True(t, h.Produce(element.Record{Payload: []byte("a")}))

	produced := make(chan bool, 1)
	go func() { produced <- h.Produce(element.Record{Payload: []byte("b")}) }()

	select {
	case <-produced:
		t.Fatal("Produce must block while at capacity")
	case <-time.After(50 * time.Millisecond):
	}

	_, err := h.TryPollNext()
	require.NoError(t, err)

	select {
	case ok := <-produced:
		require.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Produce never unblocked after drain")
	}
}

func TestCloseUnblocksProducerAndPropagatesToConsumer(t *testing.T) {
	h := New(1)
	require.True(t, h.Produce(element.Record{}))

	done := make(chan bool, 1)
	go func() { done <- h.Produce(element.Record{}) }()

	time.Sleep(10 * time.Millisecond)
	h.Close()

	require.False(t, <-done)
	require.True(t, h.Closed())
}
