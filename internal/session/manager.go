package session

import (
	"context"
	"time"

	"github.com/a2ztrade/storekit/internal/api"
	"github.com/a2ztrade/storekit/internal/credentials"
	"github.com/a2ztrade/storekit/internal/logging"
	"github.com/a2ztrade/storekit/internal/models"
)

// Backend is the slice of the API client the session manager depends on.
type Backend interface {
	Login(ctx context.Context, creds api.Credentials) (*api.AuthResponse, error)
	SocialLogin(ctx context.Context, payload api.SocialPayload) (*api.AuthResponse, error)
}

// Manager is the facade for the authentication lifecycle. It hides the
// credential store and the expiry monitor behind a small surface; no other
// component is allowed to start or stop the monitor.
type Manager struct {
	backend Backend
	creds   *credentials.Store
	monitor *Monitor
	logger  logging.Logger

	// onExpired is the process-wide "token expired" notification, invoked
	// in addition to any per-Start callback.
	onExpired func()
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger.
func WithManagerLogger(l logging.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// WithExpiryHandler installs the process-wide token-expired notification.
func WithExpiryHandler(fn func()) ManagerOption {
	return func(m *Manager) { m.onExpired = fn }
}

// NewManager wires the facade together. The monitor is created here and
// owned exclusively by the Manager.
func NewManager(backend Backend, creds *credentials.Store, monitorInterval time.Duration, opts ...ManagerOption) *Manager {
	m := &Manager{
		backend: backend,
		creds:   creds,
		logger:  logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.monitor = NewMonitor(creds, monitorInterval, m.logger)
	return m
}

// Login authenticates against the backend and, on success, persists the
// user and token and starts the expiry monitor. By the time this returns,
// either all three hold or none do.
func (m *Manager) Login(ctx context.Context, creds api.Credentials) (*api.AuthResponse, error) {
	resp, err := m.backend.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	if err := m.persistSession(ctx, resp); err != nil {
		return nil, err
	}

	m.logger.Info(ctx, "logged in", "user_id", resp.User.ID)
	m.startMonitor(ctx, nil)
	return resp, nil
}

// SocialLogin has the same contract as Login for the social endpoint.
func (m *Manager) SocialLogin(ctx context.Context, payload api.SocialPayload) (*api.AuthResponse, error) {
	resp, err := m.backend.SocialLogin(ctx, payload)
	if err != nil {
		return nil, err
	}
	if err := m.persistSession(ctx, resp); err != nil {
		return nil, err
	}

	m.logger.Info(ctx, "logged in via social provider", "user_id", resp.User.ID)
	m.startMonitor(ctx, nil)
	return resp, nil
}

// persistSession writes user and token together. A half-written session is
// rolled back so callers never observe user-without-token or the reverse.
func (m *Manager) persistSession(ctx context.Context, resp *api.AuthResponse) error {
	if err := m.creds.SaveUser(ctx, resp.User); err != nil {
		return err
	}
	if err := m.creds.SaveToken(ctx, resp.Token, resp.RefreshToken); err != nil {
		if rmErr := m.creds.RemoveUser(ctx); rmErr != nil {
			m.logger.Warn(ctx, "failed to roll back partial session", "error", rmErr)
		}
		return err
	}
	return nil
}

// Logout stops monitoring and clears the session. It never fails from the
// caller's perspective: a broken storage layer is logged and retried via
// the direct clear path, but the user is logged out regardless.
func (m *Manager) Logout(ctx context.Context) {
	m.monitor.Stop()

	if err := m.creds.RemoveUser(ctx); err != nil {
		m.logger.Warn(ctx, "failed to clear session, retrying with direct clear", "error", err)
		if err := m.creds.Reset(ctx); err != nil {
			m.logger.Error(ctx, "failed to clear session storage", "error", err)
		}
	}
	m.logger.Info(ctx, "logged out")
}

// IsAuthenticated reports whether a user with a valid token is cached.
// Like Token, an expired session is cleared as a side effect.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	return m.creds.IsLoggedIn(ctx)
}

// Token returns the access token while valid, clearing the session
// otherwise. Every call is a potential implicit logout.
func (m *Manager) Token(ctx context.Context) string {
	return m.creds.ValidTokenOrClear(ctx)
}

// User returns the cached user profile, or nil.
func (m *Manager) User(ctx context.Context) *models.User {
	return m.creds.User(ctx)
}

// IsMonitoring reports whether the expiry monitor is running.
func (m *Manager) IsMonitoring() bool {
	return m.monitor.IsRunning()
}

// StartTokenMonitoring resumes expiry monitoring for a session restored
// from storage. Data sitting in storage does not start the monitor by
// itself; page-load code calls this explicitly.
func (m *Manager) StartTokenMonitoring(ctx context.Context, onExpiry func()) {
	m.startMonitor(ctx, onExpiry)
}

// StopTokenMonitoring halts the monitor without touching the session.
func (m *Manager) StopTokenMonitoring() {
	m.monitor.Stop()
}

func (m *Manager) startMonitor(ctx context.Context, onExpiry func()) {
	m.monitor.Start(ctx, func() {
		if onExpiry != nil {
			onExpiry()
		}
		if m.onExpired != nil {
			m.onExpired()
		}
	})
}
