// Package api is the HTTP client for the storefront backend. It gives every
// outgoing request the same treatment: a bearer token when one is cached, a
// default language query parameter, and a single retry on transient
// transport failures. Responses are mapped to the typed Error of this
// package; 401s on protected endpoints additionally clear the cached
// session, though the error still propagates to the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-retry"

	"github.com/a2ztrade/storekit/internal/logging"
)

// TokenSource supplies the bearer token for outgoing requests and clears
// the cached session when the backend rejects it. *credentials.Store
// satisfies it.
type TokenSource interface {
	PeekToken(ctx context.Context) string
	RemoveUser(ctx context.Context) error
}

const (
	defaultLanguage     = "en"
	defaultRetryBackoff = time.Second
)

// Endpoints that never require authentication. A 401 from these must not
// touch the cached token.
var publicPrefixes = []string{
	"/products",
	"/categories",
	"/brands",
}

func isPublicPath(path string) bool {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Client talks to the storefront backend.
type Client struct {
	baseURL      string
	language     string
	http         *http.Client
	tokens       TokenSource
	logger       logging.Logger
	retryBackoff time.Duration
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithTokenSource wires the credential cache in.
func WithTokenSource(ts TokenSource) ClientOption {
	return func(c *Client) { c.tokens = ts }
}

// WithClientLogger sets the logger.
func WithClientLogger(l logging.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithLanguage sets the default "lang" query parameter value.
func WithLanguage(lang string) ClientOption {
	return func(c *Client) { c.language = lang }
}

// WithRetryBackoff sets the fixed delay before the single transient retry.
func WithRetryBackoff(d time.Duration) ClientOption {
	return func(c *Client) { c.retryBackoff = d }
}

// NewClient constructs a Client for the given base URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		language:     defaultLanguage,
		http:         &http.Client{},
		logger:       logging.NewNopLogger(),
		retryBackoff: defaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// isTransientError reports whether a transport failure is worth one retry:
// timeouts, connection resets/aborts, and half-closed connections (the
// classic socket hang-up shows up as an unexpected EOF).
func isTransientError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNABORTED) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return false
}

// do performs one backend call. The request is rebuilt per attempt so the
// body can be resent on the retry. It returns the raw response body and
// status; only transport-level failures produce an error here, response
// statuses are mapped by the calling endpoint method.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, contentType string) ([]byte, int, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid request url: %w", err)
	}

	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if q.Get("lang") == "" {
		q.Set("lang", c.language)
	}
	u.RawQuery = q.Encode()

	var resp *http.Response
	backoff := retry.WithMaxRetries(1, retry.NewConstant(c.retryBackoff))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
		if err != nil {
			return err
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("Accept", "application/json")
		if c.tokens != nil {
			if token := c.tokens.PeekToken(ctx); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}

		r, err := c.http.Do(req)
		if err != nil {
			if isTransientError(err) {
				c.logger.Warn(ctx, "transient request failure, will retry once",
					"method", method, "path", path, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, 0, networkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, networkError(err)
	}

	if resp.StatusCode == http.StatusUnauthorized && !isPublicPath(path) && c.tokens != nil {
		c.logger.Info(ctx, "backend rejected session, clearing cached token", "path", path)
		if err := c.tokens.RemoveUser(ctx); err != nil {
			c.logger.Warn(ctx, "failed to clear rejected session", "error", err)
		}
	}

	return data, resp.StatusCode, nil
}

// doJSON marshals payload (when non-nil) and performs the call with a JSON
// content type.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, int, error) {
	var body []byte
	contentType := ""

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode request: %w", err)
		}
		body = data
		contentType = "application/json"
	}

	return c.do(ctx, method, path, query, body, contentType)
}
