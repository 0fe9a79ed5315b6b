package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTokens is a minimal TokenSource.
type fakeTokens struct {
	mu      sync.Mutex
	token   string
	removed bool
}

func (f *fakeTokens) PeekToken(ctx context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeTokens) RemoveUser(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = true
	f.token = ""
	return nil
}

// flakyTransport fails the first n round trips with err, then delegates.
type flakyTransport struct {
	mu       sync.Mutex
	calls    int
	failures int
	err      error
	inner    http.RoundTripper
}

func (t *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	t.calls++
	n := t.calls
	t.mu.Unlock()

	if n <= t.failures {
		return nil, t.err
	}
	if t.inner == nil {
		return nil, fmt.Errorf("no inner transport")
	}
	return t.inner.RoundTrip(req)
}

func (t *flakyTransport) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

func newTestClient(t *testing.T, handler http.Handler, opts ...ClientOption) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts = append([]ClientOption{WithRetryBackoff(time.Millisecond)}, opts...)
	return NewClient(srv.URL, opts...), srv
}

func TestDo_RetriesOnceOnTransientFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"success"}`)
	}))
	defer srv.Close()

	transport := &flakyTransport{failures: 1, err: syscall.ECONNRESET, inner: http.DefaultTransport}
	c := NewClient(srv.URL,
		WithHTTPClient(&http.Client{Transport: transport}),
		WithRetryBackoff(time.Millisecond),
	)

	_, status, err := c.do(context.Background(), http.MethodGet, "/products", nil, nil, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, transport.callCount())
}

func TestDo_SecondTransientFailurePropagates(t *testing.T) {
	transport := &flakyTransport{failures: 10, err: syscall.ECONNRESET}
	c := NewClient("http://backend.invalid",
		WithHTTPClient(&http.Client{Transport: transport}),
		WithRetryBackoff(time.Millisecond),
	)

	_, _, err := c.do(context.Background(), http.MethodGet, "/products", nil, nil, "")
	require.Error(t, err)

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, apiErr.Kind)
	assert.True(t, apiErr.NetworkError)
	// One initial attempt plus exactly one retry, never more.
	assert.Equal(t, 2, transport.callCount())
}

func TestDo_NonTransientFailureIsNotRetried(t *testing.T) {
	transport := &flakyTransport{failures: 10, err: errors.New("x509: certificate signed by unknown authority")}
	c := NewClient("http://backend.invalid",
		WithHTTPClient(&http.Client{Transport: transport}),
		WithRetryBackoff(time.Millisecond),
	)

	_, _, err := c.do(context.Background(), http.MethodGet, "/products", nil, nil, "")
	require.Error(t, err)
	assert.Equal(t, 1, transport.callCount())
}

func TestIsTransientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"connection reset", syscall.ECONNRESET, true},
		{"connection aborted", syscall.ECONNABORTED, true},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"socket hang up", io.ErrUnexpectedEOF, true},
		{"eof", io.EOF, true},
		{"wrapped in url.Error", &url.Error{Op: "Get", URL: "http://x", Err: syscall.ECONNRESET}, true},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransientError(tt.err))
		})
	}
}

func TestDo_AttachesBearerTokenAndDefaultLang(t *testing.T) {
	var gotAuth, gotLang string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotLang = r.URL.Query().Get("lang")
		fmt.Fprint(w, `{}`)
	}), WithTokenSource(&fakeTokens{token: "tok123"}))

	_, _, err := c.do(context.Background(), http.MethodGet, "/users/orders", nil, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", gotAuth)
	assert.Equal(t, "en", gotLang)
}

func TestDo_ExplicitLangIsKept(t *testing.T) {
	var gotLang string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLang = r.URL.Query().Get("lang")
		fmt.Fprint(w, `{}`)
	}))

	query := url.Values{"lang": {"ar"}}
	_, _, err := c.do(context.Background(), http.MethodGet, "/products", query, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "ar", gotLang)
}

func TestDo_NoAuthHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{}`)
	}), WithTokenSource(&fakeTokens{}))

	_, _, err := c.do(context.Background(), http.MethodGet, "/products", nil, nil, "")
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func Test401_ClearsTokenOnlyForProtectedEndpoints(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"unauthorized"}`)
	})

	t.Run("protected endpoint clears", func(t *testing.T) {
		tokens := &fakeTokens{token: "tok123"}
		c, _ := newTestClient(t, handler, WithTokenSource(tokens))

		_, err := c.ListOrders(context.Background())
		require.Error(t, err)

		apiErr, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, KindSessionExpired, apiErr.Kind)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.True(t, tokens.removed)
	})

	t.Run("public endpoint does not clear", func(t *testing.T) {
		tokens := &fakeTokens{token: "tok123"}
		c, _ := newTestClient(t, handler, WithTokenSource(tokens))

		_, err := c.Products(context.Background(), 0, 0)
		require.Error(t, err)

		apiErr, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, KindAuth, apiErr.Kind)
		assert.False(t, tokens.removed)
		assert.Equal(t, "tok123", tokens.token)
	})
}
