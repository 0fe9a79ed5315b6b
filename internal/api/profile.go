package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/a2ztrade/storekit/internal/models"
)

// parseUser tolerates {data:{user}}, {user}, and bare {data:{...profile...}}
// envelopes.
func parseUser(body []byte) (*models.User, error) {
	raw := gjson.GetBytes(body, "data.user")
	if !raw.Exists() {
		raw = gjson.GetBytes(body, "user")
	}
	if !raw.Exists() {
		raw = gjson.GetBytes(body, "data")
	}
	if !raw.Exists() {
		return nil, fmt.Errorf("response has no user")
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw.Raw), &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

// Profile fetches the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/users/user", nil, nil, "")
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, apiError(status, body, true)
	}

	user, err := parseUser(body)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, StatusCode: status, Message: msgServerError, Err: err}
	}
	return user, nil
}

// UpdateProfile patches profile fields and returns the updated user.
func (c *Client) UpdateProfile(ctx context.Context, patch models.UserPatch) (*models.User, error) {
	body, status, err := c.doJSON(ctx, http.MethodPatch, "/users/user", nil, patch)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, apiError(status, body, true)
	}

	user, err := parseUser(body)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, StatusCode: status, Message: msgServerError, Err: err}
	}
	return user, nil
}

// parseAddresses reads the address list the backend returns after every
// address mutation.
func parseAddresses(body []byte) ([]models.Address, error) {
	raw := gjson.GetBytes(body, "address")
	if !raw.Exists() {
		raw = gjson.GetBytes(body, "data.address")
	}
	if !raw.Exists() {
		return nil, nil
	}

	var addresses []models.Address
	if err := json.Unmarshal([]byte(raw.Raw), &addresses); err != nil {
		return nil, fmt.Errorf("failed to decode addresses: %w", err)
	}
	return addresses, nil
}

// AddAddress appends a delivery address and returns the full updated list.
func (c *Client) AddAddress(ctx context.Context, addr models.Address) ([]models.Address, error) {
	body, status, err := c.doJSON(ctx, http.MethodPost, "/users/address", nil, addr)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, apiError(status, body, true)
	}
	return parseAddresses(body)
}

// UpdateAddress replaces an existing address.
func (c *Client) UpdateAddress(ctx context.Context, addr models.Address) ([]models.Address, error) {
	body, status, err := c.doJSON(ctx, http.MethodPatch, "/users/address", nil, addr)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, apiError(status, body, true)
	}
	return parseAddresses(body)
}

// DeleteAddress removes an address by id.
func (c *Client) DeleteAddress(ctx context.Context, addressID string) ([]models.Address, error) {
	payload := struct {
		ID string `json:"addressId"`
	}{ID: addressID}

	body, status, err := c.doJSON(ctx, http.MethodDelete, "/users/address", nil, payload)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, apiError(status, body, true)
	}
	return parseAddresses(body)
}
