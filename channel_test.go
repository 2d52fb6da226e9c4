package trafficlight_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fujiwara/trafficlight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelLatestValueWins(t *testing.T) {
	ch := trafficlight.NewChannel[trafficlight.Phase]()
	ch.Send(trafficlight.PhaseRed)
	ch.Send(trafficlight.PhaseGreen)
	assert.Equal(t, 2, ch.Len())

	p, err := ch.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, trafficlight.PhaseGreen, p)
	assert.Equal(t, 0, ch.Len())

	_, ok := ch.TryReceive()
	assert.False(t, ok, "earlier values must be discarded")
}

func TestChannelReceiveBlocksUntilSend(t *testing.T) {
	ch := trafficlight.NewChannel[int]()
	got := make(chan int, 1)
	go func() {
		v, err := ch.Receive(context.Background())
		if err == nil {
			got <- v
		}
	}()

	select {
	case v := <-got:
		t.Fatalf("receive returned %d before send", v)
	case <-time.After(50 * time.Millisecond):
	}

	ch.Send(42)
	select {
	case v := <-got:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("receive did not wake up after send")
	}
}

func TestChannelReceiveCanceled(t *testing.T) {
	ch := trafficlight.NewChannel[string]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	v, err := ch.Receive(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, v)
}

func TestChannelTryReceive(t *testing.T) {
	ch := trafficlight.NewChannel[int]()
	_, ok := ch.TryReceive()
	assert.False(t, ok)

	ch.Send(1)
	v, ok := ch.TryReceive()
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestChannelManyReceivers(t *testing.T) {
	ch := trafficlight.NewChannel[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const receivers = 4
	var wg sync.WaitGroup
	results := make(chan int, receivers)
	for i := 0; i < receivers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := ch.Receive(ctx)
			if err == nil {
				results <- v
			}
		}()
	}

	// every receiver gets some value as long as sends keep coming
	go func() {
		for i := 1; ctx.Err() == nil; i++ {
			ch.Send(i)
			time.Sleep(time.Millisecond)
		}
	}()
	wg.Wait()
	close(results)

	n := 0
	for v := range results {
		assert.Positive(t, v)
		n++
	}
	assert.Equal(t, receivers, n)
}
