package infra

import (
	"context"
	"testing"
	"time"

	"url-insights/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostThrottle_DisabledNeverBlocks(t *testing.T) {
	th := NewHostThrottle(0, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	for i := 0; i < 100; i++ {
		require.NoError(t, th.Wait(ctx, "example.com"))
	}
	assert.Equal(t, 0, th.Len())
}

func TestHostThrottle_NilIsNoop(t *testing.T) {
	var th *HostThrottle
	assert.NoError(t, th.Wait(context.Background(), "example.com"))
}

func TestHostThrottle_BlocksSameHostAfterBurst(t *testing.T) {
	th := NewHostThrottle(0.01, 1)

	require.NoError(t, th.Wait(context.Background(), "a.example"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, th.Wait(ctx, "a.example"), "second call on same host should not get a token in time")

	// outro host tem o próprio bucket
	assert.NoError(t, th.Wait(context.Background(), "b.example"))
	assert.Equal(t, 2, th.Len())
}

func TestHostThrottle_CleanupDropsIdleHosts(t *testing.T) {
	clk := clock.NewFake(t0)
	th := NewHostThrottle(10, 5, WithThrottleClock(clk), WithIdleTTL(time.Minute))

	require.NoError(t, th.Wait(context.Background(), "old.example"))
	clk.Advance(50 * time.Second)
	require.NoError(t, th.Wait(context.Background(), "new.example"))

	clk.Advance(30 * time.Second)
	th.Cleanup()

	assert.Equal(t, 1, th.Len())
}

func TestHostThrottle_JanitorStopsWithContext(t *testing.T) {
	th := NewHostThrottle(10, 1, WithThrottleCleanupEvery(5*time.Millisecond), WithIdleTTL(time.Nanosecond))
	require.NoError(t, th.Wait(context.Background(), "x.example"))

	ctx, cancel := context.WithCancel(context.Background())
	th.StartJanitor(ctx)

	assert.Eventually(t, func() bool { return th.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
}
