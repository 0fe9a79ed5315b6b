package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/a2ztrade/storekit/internal/models"
)

// Credentials is a login request.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// SocialPayload is a social-provider login request.
type SocialPayload struct {
	Provider string `json:"provider" validate:"required,oneof=google facebook apple"`
	IDToken  string `json:"idToken" validate:"required"`
}

// SignupRequest creates a new account.
type SignupRequest struct {
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// ResetPasswordRequest sets a new password using a reset code. The request
// schema is pinned: exactly these four fields, camelCase.
type ResetPasswordRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Code            string `json:"code" validate:"required,len=6,numeric"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// AuthResponse is what a successful login/signup yields.
type AuthResponse struct {
	User         *models.User
	Token        string
	RefreshToken string
}

// parseAuthResponse tolerates both envelope shapes the backend produces:
// {data:{user,token}} and the flattened {user,token}.
func parseAuthResponse(body []byte) (*AuthResponse, error) {
	userRaw := gjson.GetBytes(body, "data.user")
	if !userRaw.Exists() {
		userRaw = gjson.GetBytes(body, "user")
	}
	if !userRaw.Exists() {
		return nil, fmt.Errorf("response has no user")
	}

	var user models.User
	if err := json.Unmarshal([]byte(userRaw.Raw), &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}

	token := gjson.GetBytes(body, "data.token").String()
	if token == "" {
		token = gjson.GetBytes(body, "token").String()
	}
	refresh := gjson.GetBytes(body, "data.refreshToken").String()
	if refresh == "" {
		refresh = gjson.GetBytes(body, "refreshToken").String()
	}

	return &AuthResponse{User: &user, Token: token, RefreshToken: refresh}, nil
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	if err := validate.Struct(creds); err != nil {
		return nil, validationError(err)
	}

	body, status, err := c.doJSON(ctx, http.MethodPost, "/users/login", nil, creds)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, apiError(status, body, false)
	}

	resp, err := parseAuthResponse(body)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, StatusCode: status, Message: msgServerError, Err: err}
	}
	if resp.Token == "" {
		return nil, &Error{Kind: KindUnknown, StatusCode: status, Message: msgServerError, Err: fmt.Errorf("login response has no token")}
	}
	return resp, nil
}

// SocialLogin has the same contract as Login against the social endpoint.
func (c *Client) SocialLogin(ctx context.Context, payload SocialPayload) (*AuthResponse, error) {
	if err := validate.Struct(payload); err != nil {
		return nil, validationError(err)
	}

	body, status, err := c.doJSON(ctx, http.MethodPost, "/users/signWithSocial", nil, payload)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, apiError(status, body, false)
	}

	resp, err := parseAuthResponse(body)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, StatusCode: status, Message: msgServerError, Err: err}
	}
	return resp, nil
}

// Signup registers a new account. Depending on backend settings the
// response may or may not include a token (email verification first).
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	body, status, err := c.doJSON(ctx, http.MethodPost, "/users/signup", nil, req)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, apiError(status, body, false)
	}

	resp, err := parseAuthResponse(body)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, StatusCode: status, Message: msgServerError, Err: err}
	}
	return resp, nil
}

// VerifyEmail confirms the emailed verification code.
func (c *Client) VerifyEmail(ctx context.Context, email, code string) error {
	payload := struct {
		Email string `json:"email" validate:"required,email"`
		Code  string `json:"code" validate:"required,len=6,numeric"`
	}{Email: email, Code: code}
	if err := validate.Struct(payload); err != nil {
		return validationError(err)
	}

	body, status, err := c.doJSON(ctx, http.MethodPatch, "/users/OTPVerification", nil, payload)
	if err != nil {
		return err
	}
	if status >= 400 {
		return apiError(status, body, false)
	}
	return nil
}

// ResendCode asks for a fresh verification or reset code.
func (c *Client) ResendCode(ctx context.Context, email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return validationError(err)
	}

	payload := struct {
		Email string `json:"email"`
	}{Email: email}

	body, status, err := c.doJSON(ctx, http.MethodPost, "/users/OTPResend", nil, payload)
	if err != nil {
		return err
	}
	if status >= 400 {
		return apiError(status, body, false)
	}
	return nil
}

// ForgotPassword starts the password-reset flow.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return validationError(err)
	}

	payload := struct {
		Email string `json:"email"`
	}{Email: email}

	body, status, err := c.doJSON(ctx, http.MethodPost, "/users/forgetPassword", nil, payload)
	if err != nil {
		return err
	}
	if status >= 400 {
		return apiError(status, body, false)
	}
	return nil
}

// ResetPassword completes the password-reset flow.
func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if err := validate.Struct(req); err != nil {
		return validationError(err)
	}

	body, status, err := c.doJSON(ctx, http.MethodPatch, "/users/ResetPassword", nil, req)
	if err != nil {
		return err
	}
	if status >= 400 {
		return apiError(status, body, false)
	}
	return nil
}

// UpdatePassword changes the password of the authenticated user.
func (c *Client) UpdatePassword(ctx context.Context, current, next string) error {
	payload := struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		Password        string `json:"password" validate:"required,min=8"`
	}{CurrentPassword: current, Password: next}
	if err := validate.Struct(payload); err != nil {
		return validationError(err)
	}

	body, status, err := c.doJSON(ctx, http.MethodPatch, "/users/updatePassword", nil, payload)
	if err != nil {
		return err
	}
	if status >= 400 {
		return apiError(status, body, true)
	}
	return nil
}
