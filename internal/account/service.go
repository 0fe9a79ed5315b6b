// Package account covers everything a signed-in (or signing-up) customer
// does outside of login and checkout: registration and verification,
// password recovery, profile and address management, order history, and
// notifications. The service keeps the locally cached profile in sync with
// whatever the backend returns.
package account

import (
	"context"

	"github.com/a2ztrade/storekit/internal/api"
	"github.com/a2ztrade/storekit/internal/credentials"
	"github.com/a2ztrade/storekit/internal/logging"
	"github.com/a2ztrade/storekit/internal/models"
)

// Backend is the slice of the API client the account service depends on.
type Backend interface {
	Signup(ctx context.Context, req api.SignupRequest) (*api.AuthResponse, error)
	VerifyEmail(ctx context.Context, email, code string) error
	ResendCode(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req api.ResetPasswordRequest) error
	UpdatePassword(ctx context.Context, current, next string) error

	Profile(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, patch models.UserPatch) (*models.User, error)

	AddAddress(ctx context.Context, addr models.Address) ([]models.Address, error)
	UpdateAddress(ctx context.Context, addr models.Address) ([]models.Address, error)
	DeleteAddress(ctx context.Context, addressID string) ([]models.Address, error)

	ListOrders(ctx context.Context) ([]models.Order, error)

	Notifications(ctx context.Context) (*api.NotificationList, error)
	MarkNotificationRead(ctx context.Context, id string) error
	DeleteNotification(ctx context.Context, id string) error
}

// Service implements the account operations over the backend and the
// credential cache.
type Service struct {
	backend Backend
	creds   *credentials.Store
	logger  logging.Logger
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger.
func WithServiceLogger(l logging.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService wires the account service.
func NewService(backend Backend, creds *credentials.Store, opts ...ServiceOption) *Service {
	s := &Service{
		backend: backend,
		creds:   creds,
		logger:  logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup registers a new account. When the backend issues a token right
// away, the session is persisted exactly like a login; when it withholds
// the token pending email verification, only the response is returned and
// nothing is cached.
func (s *Service) Signup(ctx context.Context, req api.SignupRequest) (*api.AuthResponse, error) {
	resp, err := s.backend.Signup(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.Token == "" {
		s.logger.Info(ctx, "signed up, pending email verification", "email", req.Email)
		return resp, nil
	}

	if err := s.creds.SaveUser(ctx, resp.User); err != nil {
		return nil, err
	}
	if err := s.creds.SaveToken(ctx, resp.Token, resp.RefreshToken); err != nil {
		if rmErr := s.creds.RemoveUser(ctx); rmErr != nil {
			s.logger.Warn(ctx, "failed to roll back partial session", "error", rmErr)
		}
		return nil, err
	}

	s.logger.Info(ctx, "signed up", "user_id", resp.User.ID)
	return resp, nil
}

// VerifyEmail confirms the emailed verification code.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	return s.backend.VerifyEmail(ctx, email, code)
}

// ResendCode requests a fresh verification or reset code.
func (s *Service) ResendCode(ctx context.Context, email string) error {
	return s.backend.ResendCode(ctx, email)
}

// ForgotPassword starts the password-reset flow.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	return s.backend.ForgotPassword(ctx, email)
}

// ResetPassword completes the password-reset flow with the emailed code.
func (s *Service) ResetPassword(ctx context.Context, req api.ResetPasswordRequest) error {
	return s.backend.ResetPassword(ctx, req)
}

// ChangePassword changes the password of the authenticated user.
func (s *Service) ChangePassword(ctx context.Context, current, next string) error {
	return s.backend.UpdatePassword(ctx, current, next)
}

// Profile fetches the profile from the backend and refreshes the cached
// copy. A cache write failure is logged, not returned; the fresh profile is
// still handed to the caller.
func (s *Service) Profile(ctx context.Context) (*models.User, error) {
	user, err := s.backend.Profile(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.creds.SaveUser(ctx, user); err != nil {
		s.logger.Warn(ctx, "failed to refresh cached profile", "error", err)
	}
	return user, nil
}

// CachedProfile returns the locally cached profile without a network call.
func (s *Service) CachedProfile(ctx context.Context) *models.User {
	return s.creds.User(ctx)
}

// UpdateProfile patches the profile on the backend and mirrors the result
// into the cache.
func (s *Service) UpdateProfile(ctx context.Context, patch models.UserPatch) (*models.User, error) {
	user, err := s.backend.UpdateProfile(ctx, patch)
	if err != nil {
		return nil, err
	}
	if err := s.creds.SaveUser(ctx, user); err != nil {
		s.logger.Warn(ctx, "failed to refresh cached profile", "error", err)
	}
	return user, nil
}

// AddAddress appends a delivery address and syncs the cached address list.
func (s *Service) AddAddress(ctx context.Context, addr models.Address) ([]models.Address, error) {
	addresses, err := s.backend.AddAddress(ctx, addr)
	if err != nil {
		return nil, err
	}
	s.syncAddresses(ctx, addresses)
	return addresses, nil
}

// UpdateAddress replaces an address and syncs the cached address list.
func (s *Service) UpdateAddress(ctx context.Context, addr models.Address) ([]models.Address, error) {
	addresses, err := s.backend.UpdateAddress(ctx, addr)
	if err != nil {
		return nil, err
	}
	s.syncAddresses(ctx, addresses)
	return addresses, nil
}

// DeleteAddress removes an address and syncs the cached address list.
func (s *Service) DeleteAddress(ctx context.Context, addressID string) ([]models.Address, error) {
	addresses, err := s.backend.DeleteAddress(ctx, addressID)
	if err != nil {
		return nil, err
	}
	s.syncAddresses(ctx, addresses)
	return addresses, nil
}

func (s *Service) syncAddresses(ctx context.Context, addresses []models.Address) {
	if err := s.creds.UpdateUser(ctx, models.UserPatch{Addresses: &addresses}); err != nil {
		s.logger.Warn(ctx, "failed to sync cached addresses", "error", err)
	}
}

// Orders fetches the user's order history.
func (s *Service) Orders(ctx context.Context) ([]models.Order, error) {
	return s.backend.ListOrders(ctx)
}

// Notifications fetches the notification center snapshot.
func (s *Service) Notifications(ctx context.Context) (*api.NotificationList, error) {
	return s.backend.Notifications(ctx)
}

// MarkNotificationRead flags one notification as read.
func (s *Service) MarkNotificationRead(ctx context.Context, id string) error {
	return s.backend.MarkNotificationRead(ctx, id)
}

// DeleteNotification removes one notification.
func (s *Service) DeleteNotification(ctx context.Context, id string) error {
	return s.backend.DeleteNotification(ctx, id)
}
