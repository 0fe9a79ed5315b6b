package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2ztrade/storekit/internal/api"
	"github.com/a2ztrade/storekit/internal/credentials"
	"github.com/a2ztrade/storekit/internal/models"
	"github.com/a2ztrade/storekit/internal/repositories/keyvalue"
)

// fakeBackend implements Backend for manager tests.
type fakeBackend struct {
	loginResp *api.AuthResponse
	loginErr  error

	socialResp *api.AuthResponse
	socialErr  error

	lastCreds  api.Credentials
	lastSocial api.SocialPayload
}

func (f *fakeBackend) Login(ctx context.Context, creds api.Credentials) (*api.AuthResponse, error) {
	f.lastCreds = creds
	return f.loginResp, f.loginErr
}

func (f *fakeBackend) SocialLogin(ctx context.Context, payload api.SocialPayload) (*api.AuthResponse, error) {
	f.lastSocial = payload
	return f.socialResp, f.socialErr
}

// failingRepo wraps a working repository but fails deletes, to exercise the
// logout fallback path.
type failingRepo struct {
	keyvalue.Repository
	cleared atomic.Bool
}

func (f *failingRepo) Delete(ctx context.Context, key string) error {
	return errors.New("storage is wedged")
}

func (f *failingRepo) Clear(ctx context.Context) error {
	f.cleared.Store(true)
	return f.Repository.Clear(ctx)
}

func newManagerFixture(t *testing.T, backend Backend) (*Manager, *credentials.Store) {
	t.Helper()
	creds := credentials.NewStore(keyvalue.NewMemoryRepository())
	m := NewManager(backend, creds, 5*time.Millisecond)
	t.Cleanup(m.StopTokenMonitoring)
	return m, creds
}

func authOK() *api.AuthResponse {
	return &api.AuthResponse{
		User:         &models.User{ID: "u1", Email: "a@b.com"},
		Token:        "tok123",
		RefreshToken: "ref456",
	}
}

func TestManager_LoginPersistsAtomicallyAndStartsMonitor(t *testing.T) {
	backend := &fakeBackend{loginResp: authOK()}
	m, _ := newManagerFixture(t, backend)
	ctx := context.Background()

	resp, err := m.Login(ctx, api.Credentials{Email: "a@b.com", Password: "Secret123!"})
	require.NoError(t, err)
	require.NotNil(t, resp)

	// All three must hold simultaneously, never a subset.
	user := m.User(ctx)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "tok123", m.Token(ctx))
	assert.True(t, m.IsMonitoring())
}

func TestManager_LoginFailureLeavesStoreEmpty(t *testing.T) {
	backend := &fakeBackend{loginErr: &api.Error{Kind: api.KindAuth, StatusCode: 401, Message: "rejected"}}
	m, creds := newManagerFixture(t, backend)
	ctx := context.Background()

	_, err := m.Login(ctx, api.Credentials{Email: "a@b.com", Password: "Wrong1234!"})
	require.Error(t, err)

	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.Equal(t, 401, apiErr.StatusCode)
	assert.False(t, apiErr.NetworkError)

	assert.Nil(t, creds.User(ctx))
	assert.Empty(t, creds.PeekToken(ctx))
	assert.False(t, m.IsMonitoring())
}

func TestManager_SocialLogin(t *testing.T) {
	backend := &fakeBackend{socialResp: authOK()}
	m, _ := newManagerFixture(t, backend)
	ctx := context.Background()

	_, err := m.SocialLogin(ctx, api.SocialPayload{Provider: "google", IDToken: "idtok"})
	require.NoError(t, err)

	assert.Equal(t, "google", backend.lastSocial.Provider)
	assert.True(t, m.IsAuthenticated(ctx))
	assert.True(t, m.IsMonitoring())
}

func TestManager_LogoutClearsEverythingAndNeverFails(t *testing.T) {
	backend := &fakeBackend{loginResp: authOK()}
	m, creds := newManagerFixture(t, backend)
	ctx := context.Background()

	_, err := m.Login(ctx, api.Credentials{Email: "a@b.com", Password: "Secret123!"})
	require.NoError(t, err)

	m.Logout(ctx)

	assert.Nil(t, creds.User(ctx))
	assert.Empty(t, creds.PeekToken(ctx))
	assert.False(t, m.IsMonitoring())

	// Logging out again is harmless.
	m.Logout(ctx)
}

func TestManager_LogoutFallsBackToDirectClear(t *testing.T) {
	repo := &failingRepo{Repository: keyvalue.NewMemoryRepository()}
	creds := credentials.NewStore(repo)
	backend := &fakeBackend{loginResp: authOK()}
	m := NewManager(backend, creds, 5*time.Millisecond)
	t.Cleanup(m.StopTokenMonitoring)
	ctx := context.Background()

	_, err := m.Login(ctx, api.Credentials{Email: "a@b.com", Password: "Secret123!"})
	require.NoError(t, err)

	// Per-key deletes are broken; Logout must still leave a clean store.
	m.Logout(ctx)

	assert.True(t, repo.cleared.Load(), "fallback clear path must run")
	assert.Nil(t, creds.User(ctx))
	assert.Empty(t, creds.PeekToken(ctx))
}

func TestManager_ResumeMonitoringAfterRestart(t *testing.T) {
	backend := &fakeBackend{}
	creds := credentials.NewStore(keyvalue.NewMemoryRepository())
	ctx := context.Background()

	// Simulate a previous session left in storage.
	require.NoError(t, creds.SaveUser(ctx, &models.User{ID: "u1"}))
	require.NoError(t, creds.SaveToken(ctx, "tok123", ""))

	m := NewManager(backend, creds, 5*time.Millisecond)
	t.Cleanup(m.StopTokenMonitoring)

	// Data in storage alone does not start the monitor.
	assert.False(t, m.IsMonitoring())

	m.StartTokenMonitoring(ctx, nil)
	assert.True(t, m.IsMonitoring())

	m.StopTokenMonitoring()
	assert.False(t, m.IsMonitoring())
}

func TestManager_ExpiryHandlerFires(t *testing.T) {
	clock := newFakeClock()
	creds := credentials.NewStore(keyvalue.NewMemoryRepository(),
		credentials.WithClock(clock.Now),
		credentials.WithTokenTTL(time.Hour),
	)
	backend := &fakeBackend{loginResp: authOK()}

	var notified atomic.Int32
	m := NewManager(backend, creds, tickInterval,
		WithExpiryHandler(func() { notified.Add(1) }),
	)
	t.Cleanup(m.StopTokenMonitoring)
	ctx := context.Background()

	_, err := m.Login(ctx, api.Credentials{Email: "a@b.com", Password: "Secret123!"})
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	waitTicks(10)

	assert.Equal(t, int32(1), notified.Load())
	assert.False(t, m.IsAuthenticated(ctx))
}
