package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvider(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(tokenURL string, timeout time.Duration) *Client {
	return NewClient(Config{
		AuthorizeURL:   "https://provider.example.com/authorize",
		AccessTokenURL: tokenURL,
		ClientID:       "client-123",
		ClientSecret:   "secret-456",
		RedirectURL:    "http://localhost:8080/callback",
		Timeout:        timeout,
	})
}

func TestClient_AuthCodeURL(t *testing.T) {
	client := newTestClient("https://provider.example.com/token", 0)

	raw := client.AuthCodeURL("state-xyz")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "provider.example.com", u.Host)
	assert.Equal(t, "/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "state-xyz", q.Get("state"))
	assert.Equal(t, "client-123", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "http://localhost:8080/callback", q.Get("redirect_uri"))
	assert.Equal(t, "openid profile email", q.Get("scope"))
}

func TestClient_Exchange(t *testing.T) {
	t.Run("returns access token and sends credentials in body", func(t *testing.T) {
		var calls atomic.Int32
		srv := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
			assert.Equal(t, "the-code", r.PostForm.Get("code"))
			assert.Equal(t, "client-123", r.PostForm.Get("client_id"))
			assert.Equal(t, "secret-456", r.PostForm.Get("client_secret"))
			assert.Equal(t, "http://localhost:8080/callback", r.PostForm.Get("redirect_uri"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`))
		})

		token, err := newTestClient(srv.URL, time.Second).Exchange(context.Background(), "the-code")
		require.NoError(t, err)
		assert.Equal(t, "at-1", token.AccessToken)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("non-2xx is an exchange failure and is not retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := newProvider(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		})

		_, err := newTestClient(srv.URL, time.Second).Exchange(context.Background(), "bad-code")
		require.ErrorIs(t, err, ErrExchangeFailed)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("missing access token is an exchange failure", func(t *testing.T) {
		srv := newProvider(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"token_type":"Bearer"}`))
		})

		_, err := newTestClient(srv.URL, time.Second).Exchange(context.Background(), "code")
		require.ErrorIs(t, err, ErrExchangeFailed)
	})

	t.Run("slow provider hits the timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		})
		defer close(release)

		start := time.Now()
		_, err := newTestClient(srv.URL, 50*time.Millisecond).Exchange(context.Background(), "code")
		require.ErrorIs(t, err, ErrExchangeFailed)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("unreachable provider is an exchange failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		addr := srv.URL
		srv.Close()

		_, err := newTestClient(addr, time.Second).Exchange(context.Background(), "code")
		require.ErrorIs(t, err, ErrExchangeFailed)
	})
}
