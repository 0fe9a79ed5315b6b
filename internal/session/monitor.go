// Package session owns the authentication lifecycle: the Manager is the
// only entry point application code should use for login/logout/session
// state, and the Monitor proactively detects token expiry so the UI can
// react without waiting for the next backend call to fail.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/a2ztrade/storekit/internal/credentials"
	"github.com/a2ztrade/storekit/internal/logging"
)

// DefaultMonitorInterval is how often the monitor re-checks the token.
const DefaultMonitorInterval = 5 * time.Minute

// Monitor periodically checks token validity while running. It has two
// states, stopped and running; starting it again always cancels the prior
// run first, so at most one check loop exists per Monitor.
type Monitor struct {
	creds    *credentials.Store
	logger   logging.Logger
	interval time.Duration

	mu     sync.Mutex
	stopCh chan struct{}
}

// NewMonitor builds a stopped Monitor over the credential store.
func NewMonitor(creds *credentials.Store, interval time.Duration, logger logging.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Monitor{creds: creds, logger: logger, interval: interval}
}

// Start transitions the monitor to running. Without a stored token this is
// a harmless no-op: "not logged in yet" is a normal state, not an error.
// onExpiry fires at most once, when a tick finds the token expired.
func (m *Monitor) Start(ctx context.Context, onExpiry func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Cancel any prior run so at most one loop ever exists.
	if m.stopCh != nil {
		close(m.stopCh)
		m.stopCh = nil
	}

	if m.creds.PeekToken(ctx) == "" {
		m.logger.Info(ctx, "no token present, expiry monitor not started")
		return
	}

	stop := make(chan struct{})
	m.stopCh = stop

	m.logger.Debug(ctx, "expiry monitor started", "interval", m.interval)
	go m.run(ctx, stop, onExpiry)
}

// Stop cancels the check loop. Safe to call at any time, in any state.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopCh != nil {
		close(m.stopCh)
		m.stopCh = nil
	}
}

// IsRunning reports whether a check loop is active.
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCh != nil
}

func (m *Monitor) run(ctx context.Context, stop chan struct{}, onExpiry func()) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			m.clearHandle(stop)
			return
		case <-ticker.C:
			if m.tick(ctx, onExpiry) {
				m.clearHandle(stop)
				return
			}
		}
	}
}

// tick runs one validity check. Returns true when the loop must terminate.
func (m *Monitor) tick(ctx context.Context, onExpiry func()) bool {
	// Token removed externally (logout elsewhere): the disappearance itself
	// is the terminal signal, no callback.
	if m.creds.PeekToken(ctx) == "" {
		m.logger.Debug(ctx, "token gone, expiry monitor stopping")
		return true
	}

	if !m.creds.IsTokenValid(ctx) {
		m.logger.Info(ctx, "token expired, clearing session")
		if err := m.creds.RemoveUser(ctx); err != nil {
			m.logger.Warn(ctx, "failed to clear expired session", "error", err)
		}
		if onExpiry != nil {
			onExpiry()
		}
		return true
	}

	if m.creds.IsTokenExpiringSoon(ctx) {
		m.logger.Warn(ctx, "token expiring soon", "remaining", m.creds.RemainingTime(ctx))
	}
	return false
}

// clearHandle resets the handle, but only if it still belongs to this run.
// A newer Start may have installed a fresh channel already.
func (m *Monitor) clearHandle(stop chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopCh == stop {
		m.stopCh = nil
	}
}
