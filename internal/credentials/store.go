// Package credentials is the single source of truth for "am I logged in,
// and with what identity and token". It persists the cached user profile and
// token state through a key-value repository and owns the token expiry
// arithmetic.
//
// Reading a token comes in two flavors, and callers must pick intentionally:
//
//   - PeekToken is a pure read with no side effects.
//   - ValidTokenOrClear returns the token only while it is valid; an expired
//     or absent token clears the whole session as a side effect. Every call
//     is therefore a potential implicit logout.
package credentials

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/a2ztrade/storekit/internal/logging"
	"github.com/a2ztrade/storekit/internal/models"
	"github.com/a2ztrade/storekit/internal/repositories/keyvalue"
)

// Storage keys. These match the names the storefront has always used, so an
// existing cache stays readable across upgrades.
const (
	keyUser      = "user_data"
	keyToken     = "auth_token"
	keyRefresh   = "refresh_token"
	keyExpiry    = "token_expiry"
	keyLoginTime = "login_time"
)

const (
	// DefaultTokenTTL is assumed when the backend gives no expiry of its own.
	DefaultTokenTTL = 24 * time.Hour

	// DefaultWarnThreshold is the remaining lifetime below which a token
	// counts as expiring soon.
	DefaultWarnThreshold = 5 * time.Minute
)

// Store wraps a key-value repository with the credential lifecycle. All
// methods are safe for concurrent use.
type Store struct {
	repo   keyvalue.Repository
	logger logging.Logger

	ttl           time.Duration
	warnThreshold time.Duration
	now           func() time.Time

	mu sync.Mutex
}

// Option customizes a Store.
type Option func(*Store)

// WithTokenTTL overrides the assumed token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithWarnThreshold overrides the expiring-soon threshold.
func WithWarnThreshold(d time.Duration) Option {
	return func(s *Store) { s.warnThreshold = d }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock injects the time source. Tests use this to advance time.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore constructs a Store over the given repository.
func NewStore(repo keyvalue.Repository, opts ...Option) *Store {
	s := &Store{
		repo:          repo,
		logger:        logging.NewNopLogger(),
		ttl:           DefaultTokenTTL,
		warnThreshold: DefaultWarnThreshold,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveUser serializes and persists the user profile. The only requirement is
// a non-nil user with an id.
func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	if user == nil || user.ID == "" {
		return ErrInvalidUser
	}

	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Set(ctx, keyUser, data)
}

// User returns the cached profile, or nil when absent. Malformed stored data
// is treated as "no user", never as an error.
func (s *Store) User(ctx context.Context) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user(ctx)
}

func (s *Store) user(ctx context.Context) *models.User {
	data, err := s.repo.Get(ctx, keyUser)
	if err != nil {
		s.logger.Warn(ctx, "failed to read cached user", "error", err)
		return nil
	}
	if data == nil {
		return nil
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		s.logger.Warn(ctx, "cached user is malformed, treating as absent", "error", err)
		return nil
	}
	return &user
}

// UpdateUser merges the patch into the cached profile. A missing profile
// makes this a no-op.
func (s *Store) UpdateUser(ctx context.Context, patch models.UserPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.user(ctx)
	if user == nil {
		return nil
	}

	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Phone != nil {
		user.Phone = *patch.Phone
	}
	if patch.Image != nil {
		user.Image = *patch.Image
	}
	if patch.Addresses != nil {
		user.Addresses = *patch.Addresses
	}

	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.repo.Set(ctx, keyUser, data)
}

// RemoveUser clears the profile and all token state as one logical
// operation. Individual deletion order is not observable to callers, and
// repeating the call leaves the same empty state.
func (s *Store) RemoveUser(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeUser(ctx)
}

func (s *Store) removeUser(ctx context.Context) error {
	var firstErr error
	for _, key := range []string{keyUser, keyToken, keyRefresh, keyExpiry, keyLoginTime} {
		if err := s.repo.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Reset wipes the entire credential namespace in one storage call. It is
// the logout fallback for when per-key deletion misbehaves.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Clear(ctx)
}

// SaveToken persists the access token (and optional refresh token), stamping
// the login time and computing the expiry as now + ttl. If the token is a
// JWT whose exp claim lands earlier than that, the claim wins.
func (s *Store) SaveToken(ctx context.Context, token, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	expiry := now.Add(s.ttl)
	if claimed, ok := jwtExpiry(token); ok && claimed.Before(expiry) {
		expiry = claimed
	}

	if err := s.repo.Set(ctx, keyToken, []byte(token)); err != nil {
		return err
	}
	if refreshToken != "" {
		if err := s.repo.Set(ctx, keyRefresh, []byte(refreshToken)); err != nil {
			return err
		}
	}
	if err := s.repo.Set(ctx, keyExpiry, epochMs(expiry)); err != nil {
		return err
	}
	return s.repo.Set(ctx, keyLoginTime, epochMs(now))
}

// PeekToken returns the stored access token without any validity check or
// side effect. Empty string means absent.
func (s *Store) PeekToken(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peekToken(ctx)
}

func (s *Store) peekToken(ctx context.Context) string {
	data, err := s.repo.Get(ctx, keyToken)
	if err != nil {
		s.logger.Warn(ctx, "failed to read token", "error", err)
		return ""
	}
	return string(data)
}

// RefreshToken returns the stored refresh token, if any.
func (s *Store) RefreshToken(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.repo.Get(ctx, keyRefresh)
	if err != nil {
		s.logger.Warn(ctx, "failed to read refresh token", "error", err)
		return ""
	}
	return string(data)
}

// ValidTokenOrClear returns the access token while it is valid. An expired,
// absent, or unreadable token clears the entire session and returns "".
func (s *Store) ValidTokenOrClear(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := s.peekToken(ctx)
	if token == "" {
		return ""
	}
	if !s.isTokenValid(ctx) {
		s.logger.Info(ctx, "token expired, clearing session")
		if err := s.removeUser(ctx); err != nil {
			s.logger.Warn(ctx, "failed to clear expired session", "error", err)
		}
		return ""
	}
	return token
}

// IsTokenValid reports whether now is before the recorded expiry. No expiry
// on record means invalid.
func (s *Store) IsTokenValid(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isTokenValid(ctx)
}

func (s *Store) isTokenValid(ctx context.Context) bool {
	expiry, ok := s.expiry(ctx)
	if !ok {
		return false
	}
	return s.now().Before(expiry)
}

// IsTokenExpiringSoon reports whether the remaining lifetime is positive but
// below the warn threshold.
func (s *Store) IsTokenExpiringSoon(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := s.remainingTime(ctx)
	return remaining > 0 && remaining < s.warnThreshold
}

// RemainingTime returns the non-negative time until expiry; zero when the
// token is already expired or absent.
func (s *Store) RemainingTime(ctx context.Context) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remainingTime(ctx)
}

func (s *Store) remainingTime(ctx context.Context) time.Duration {
	expiry, ok := s.expiry(ctx)
	if !ok {
		return 0
	}
	remaining := expiry.Sub(s.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsLoggedIn reports whether both a cached user and a valid token exist.
// An invalid token clears the session, same contract as ValidTokenOrClear.
func (s *Store) IsLoggedIn(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user(ctx) == nil || s.peekToken(ctx) == "" {
		return false
	}
	if !s.isTokenValid(ctx) {
		if err := s.removeUser(ctx); err != nil {
			s.logger.Warn(ctx, "failed to clear expired session", "error", err)
		}
		return false
	}
	return true
}

// LoginTime returns when the current session was established, or the zero
// time when unknown.
func (s *Store) LoginTime(ctx context.Context) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.repo.Get(ctx, keyLoginTime)
	if err != nil || data == nil {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func (s *Store) expiry(ctx context.Context) (time.Time, bool) {
	data, err := s.repo.Get(ctx, keyExpiry)
	if err != nil {
		s.logger.Warn(ctx, "failed to read token expiry", "error", err)
		return time.Time{}, false
	}
	if data == nil {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		s.logger.Warn(ctx, "token expiry is malformed", "error", err)
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func epochMs(t time.Time) []byte {
	return []byte(strconv.FormatInt(t.UnixMilli(), 10))
}

// jwtExpiry extracts the exp claim from a JWT access token without verifying
// the signature. Opaque tokens simply report no claim.
func jwtExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
