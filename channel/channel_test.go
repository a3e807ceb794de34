package channel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBoundedTrySendFullAndDisconnected(t *testing.T) {
	sender, receiver := New[int]("test.bounded.full", 1, Bounded)

	require.NoError(t, sender.TrySend(1))
	require.ErrorIs(t, sender.TrySend(2), ErrFull)

	v, err := receiver.TryRecv()
	require.NoError(t, err)
	require.Equal(t, 1, v)

	sender.Close()
	_, err = receiver.Recv(context.Background())
	require.ErrorIs(t, err, ErrDisconnected)
}

func TestUnboundedNeverBlocksOnSend(t *testing.T) {
	sender, receiver := New[int]("test.unbounded", 0, Unbounded)
	for i := 0; i < 1000; i++ {
		require.NoError(t, sender.TrySend(i))
	}
	for i := 0; i < 1000; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		v, err := receiver.Recv(ctx)
		cancel()
		require.NoError(t, err)
		require.Equal(t, i, v)
	}
}

func TestBackpressureStabilizesAtCapacity(t *testing.T) {
	// spec §8 scenario 5: bounded channel of capacity 4 between a
	// producer and a consumer. Size must never exceed capacity, and
	// elements arrive in send order.
	const capacity = 4
	sender, receiver := New[int]("test.backpressure", capacity, Bounded)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			require.NoError(t, sender.Send(context.Background(), i))
		}
		sender.Close()
	}()

	var last int
	for {
		v, err := receiver.Recv(context.Background())
		if err == ErrDisconnected {
			break
		}
		require.NoError(t, err)
		require.GreaterOrEqual(t, v, last)
		last = v
		// The bounded channel enforces the capacity structurally; check it
		// on every receive.
		require.LessOrEqual(t, receiver.c.size(), capacity)
	}
	<-done
}

func TestSelectReturnsWhicheverReceiverIsReady(t *testing.T) {
	_, rA := New[string]("test.select.a", 1, Bounded)
	sB, rB := New[string]("test.select.b", 1, Bounded)

	require.NoError(t, sB.TrySend("from-b"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	idx, v, err := Select(ctx, []*Receiver[string]{rA, rB})
	require.NoError(t, err)
	require.Equal(t, 1, idx)
	require.Equal(t, "from-b", v)
}

func TestSelectHonorsContextCancellation(t *testing.T) {
	_, rA := New[string]("test.select.cancel", 1, Bounded)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, _, err := Select(ctx, []*Receiver[string]{rA})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
