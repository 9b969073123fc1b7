package senderlock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/senderlock"
)

func newRegistry(t *testing.T) *senderlock.Registry {
	t.Helper()
	return senderlock.New(log.NewNopLogger())
}

func TestAcquireReleaseRoundTrip(t *testing.T) {
	r := newRegistry(t)
	token, err := r.Acquire(context.Background(), "0xSender")
	require.NoError(t, err)
	require.Equal(t, 1, r.ActiveSessionCount("0xSender"))

	r.Release("0xSender", token)
	require.Equal(t, 0, r.ActiveSessionCount("0xSender"))
}

func TestReleaseWithUnknownTokenIsNoop(t *testing.T) {
	r := newRegistry(t)
	token, err := r.Acquire(context.Background(), "0xSender")
	require.NoError(t, err)

	// double-release with a bogus token must not disturb the real lock.
	r.Release("0xSender", "not-the-real-token")
	require.Equal(t, 1, r.ActiveSessionCount("0xSender"))

	r.Release("0xSender", token)
	require.Equal(t, 0, r.ActiveSessionCount("0xSender"))

	// releasing again after the real release is also a silent no-op.
	r.Release("0xSender", token)
	require.Equal(t, 0, r.ActiveSessionCount("0xSender"))
}

func TestConcurrentAcquireForSameSenderIsSerialized(t *testing.T) {
	r := newRegistry(t)
	const holders = 20

	var mu sync.Mutex
	order := make([]int, 0, holders)
	var wg sync.WaitGroup

	for i := 0; i < holders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, err := r.Acquire(context.Background(), "0xShared")
			require.NoError(t, err)
			require.Equal(t, 1, r.ActiveSessionCount("0xShared"))
			time.Sleep(time.Millisecond)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			r.Release("0xShared", token)
		}(i)
	}
	wg.Wait()
	require.Len(t, order, holders)
	require.Equal(t, 0, r.ActiveSessionCount("0xShared"))
}

func TestAcquireTimesOutWhenHeldForever(t *testing.T) {
	r := newRegistry(t)
	_, err := r.Acquire(context.Background(), "0xStuck")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.Acquire(ctx, "0xStuck")
	require.Error(t, err)
}
