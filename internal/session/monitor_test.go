package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2ztrade/storekit/internal/credentials"
	"github.com/a2ztrade/storekit/internal/repositories/keyvalue"
)

// fakeClock is an adjustable time source shared with the credential store.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

const tickInterval = 5 * time.Millisecond

func newMonitorFixture(t *testing.T, ttl time.Duration) (*Monitor, *credentials.Store, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	creds := credentials.NewStore(keyvalue.NewMemoryRepository(),
		credentials.WithClock(clock.Now),
		credentials.WithTokenTTL(ttl),
	)
	m := NewMonitor(creds, tickInterval, nil)
	t.Cleanup(m.Stop)
	return m, creds, clock
}

// waitTicks sleeps long enough for the monitor to have ticked several times.
func waitTicks(n int) {
	time.Sleep(time.Duration(n) * tickInterval * 2)
}

func TestMonitor_NoopWithoutToken(t *testing.T) {
	m, _, _ := newMonitorFixture(t, time.Hour)

	var fired atomic.Int32
	m.Start(context.Background(), func() { fired.Add(1) })

	assert.False(t, m.IsRunning())
	waitTicks(10)
	assert.Zero(t, fired.Load(), "callback must never fire without a token")
}

func TestMonitor_FiresOnceOnExpiry(t *testing.T) {
	m, creds, clock := newMonitorFixture(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, creds.SaveToken(ctx, "tok123", ""))

	var fired atomic.Int32
	m.Start(ctx, func() { fired.Add(1) })
	require.True(t, m.IsRunning())

	clock.Advance(2 * time.Hour)
	waitTicks(10)

	assert.Equal(t, int32(1), fired.Load())
	assert.False(t, m.IsRunning(), "monitor stops after expiry")
	assert.Empty(t, creds.PeekToken(ctx), "expired session is cleared")
}

func TestMonitor_SingleTimerAfterDoubleStart(t *testing.T) {
	m, creds, clock := newMonitorFixture(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, creds.SaveToken(ctx, "tok123", ""))

	var fired atomic.Int32
	cb := func() { fired.Add(1) }
	m.Start(ctx, cb)
	m.Start(ctx, cb)
	require.True(t, m.IsRunning())

	clock.Advance(2 * time.Hour)
	waitTicks(20)

	// Two live timers would each observe the expiry and fire.
	assert.Equal(t, int32(1), fired.Load())
}

func TestMonitor_StopsSilentlyWhenTokenRemovedExternally(t *testing.T) {
	m, creds, _ := newMonitorFixture(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, creds.SaveToken(ctx, "tok123", ""))

	var fired atomic.Int32
	m.Start(ctx, func() { fired.Add(1) })

	// Logout elsewhere removes the token between ticks.
	require.NoError(t, creds.RemoveUser(ctx))
	waitTicks(10)

	assert.False(t, m.IsRunning())
	assert.Zero(t, fired.Load(), "disappearance is terminal, no callback")
}

func TestMonitor_StopIsIdempotent(t *testing.T) {
	m, creds, _ := newMonitorFixture(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, creds.SaveToken(ctx, "tok123", ""))
	m.Start(ctx, nil)

	m.Stop()
	m.Stop()
	assert.False(t, m.IsRunning())
}

func TestMonitor_RestartAfterExpiryWorks(t *testing.T) {
	m, creds, clock := newMonitorFixture(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, creds.SaveToken(ctx, "tok1", ""))
	var fired atomic.Int32
	m.Start(ctx, func() { fired.Add(1) })

	clock.Advance(2 * time.Hour)
	waitTicks(10)
	require.Equal(t, int32(1), fired.Load())

	// A fresh login starts a fresh monitor.
	require.NoError(t, creds.SaveToken(ctx, "tok2", ""))
	m.Start(ctx, func() { fired.Add(1) })
	require.True(t, m.IsRunning())

	clock.Advance(2 * time.Hour)
	waitTicks(10)
	assert.Equal(t, int32(2), fired.Load())
}
