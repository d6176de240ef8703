package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeTokenEndpoint is an httptest server that mimics the provider's
// token endpoint and counts requests per grant type.
type fakeTokenEndpoint struct {
	*httptest.Server

	mu            sync.Mutex
	lastForm      url.Values
	exchangeCalls atomic.Int64
	refreshCalls  atomic.Int64

	// respond overrides the default 200 response when set.
	respond func(w http.ResponseWriter, form url.Values)
}

func newFakeTokenEndpoint(t *testing.T) *fakeTokenEndpoint {
	f := &fakeTokenEndpoint{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.mu.Lock()
		f.lastForm = r.PostForm
		f.mu.Unlock()

		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			f.exchangeCalls.Add(1)
		case "refresh_token":
			f.refreshCalls.Add(1)
		}

		if f.respond != nil {
			f.respond(w, r.PostForm)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "AT1",
			"refresh_token": "RT1",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"scope":         "contacts.readonly",
			"locationId":    "loc-123",
			"companyId":     "comp-456",
			"userType":      "Location",
		})
	}))
	t.Cleanup(f.Server.Close)
	return f
}

func (f *fakeTokenEndpoint) form() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastForm
}

func newTestService(t *testing.T, endpoint *fakeTokenEndpoint) (*Service, string) {
	path := filepath.Join(t.TempDir(), ".token.json")
	cfg := &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://example.com/oauth/callback",
		Scopes:       []string{"contacts.readonly", "contacts.write"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://marketplace.gohighlevel.com/oauth/chooselocation",
			TokenURL:  endpoint.URL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	return NewService(cfg, NewTokenStore(path), nil), path
}

func seedRecord(t *testing.T, svc *Service, rec *TokenRecord) {
	t.Helper()
	require.NoError(t, svc.Store().Save(rec))
}

func TestExchangeAuthorizationCode(t *testing.T) {
	endpoint := newFakeTokenEndpoint(t)
	svc, path := newTestService(t, endpoint)

	before := time.Now()
	rec, err := svc.ExchangeAuthorizationCode(context.Background(), "auth-code-1")
	require.NoError(t, err)

	assert.Equal(t, "AT1", rec.AccessToken)
	assert.Equal(t, "RT1", rec.RefreshToken)
	assert.Equal(t, "Bearer", rec.TokenType)
	assert.Equal(t, "contacts.readonly", rec.Scope)
	assert.WithinDuration(t, before.Add(time.Hour), rec.ExpiresAt, 10*time.Second)
	assert.Equal(t, "loc-123", rec.Raw["locationId"])
	assert.Equal(t, "comp-456", rec.Raw["companyId"])

	// The wire form carried the full authorization-code grant.
	form := endpoint.form()
	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "auth-code-1", form.Get("code"))
	assert.Equal(t, "https://example.com/oauth/callback", form.Get("redirect_uri"))
	assert.Equal(t, "client-id", form.Get("client_id"))
	assert.Equal(t, "client-secret", form.Get("client_secret"))

	// The store reflects the exchanged credential...
	onDisk, err := NewTokenStore(path).Load()
	require.NoError(t, err)
	require.NotNil(t, onDisk)
	assert.Equal(t, "AT1", onDisk.AccessToken)

	// ...and an immediate get returns the same token without touching the
	// token endpoint again.
	token, err := svc.GetValidAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AT1", token)
	assert.Equal(t, int64(1), endpoint.exchangeCalls.Load())
	assert.Equal(t, int64(0), endpoint.refreshCalls.Load())
}

func TestExchangeAuthorizationCode_ProviderRejects(t *testing.T) {
	endpoint := newFakeTokenEndpoint(t)
	endpoint.respond = func(w http.ResponseWriter, form url.Values) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"redirect_uri mismatch"}`))
	}
	svc, path := newTestService(t, endpoint)

	_, err := svc.ExchangeAuthorizationCode(context.Background(), "bad-code")
	var exchErr *ExchangeError
	require.ErrorAs(t, err, &exchErr)
	assert.Equal(t, http.StatusBadRequest, exchErr.StatusCode)
	assert.Contains(t, exchErr.Body, "redirect_uri mismatch")
	assert.Equal(t, "authorization_code", exchErr.Grant)

	// Nothing persisted on failure.
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestGetValidAccessToken_NotAuthorized(t *testing.T) {
	endpoint := newFakeTokenEndpoint(t)
	svc, _ := newTestService(t, endpoint)

	_, err := svc.GetValidAccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.Equal(t, int64(0), endpoint.refreshCalls.Load())
}

func TestGetValidAccessToken_FreshTokenNoNetwork(t *testing.T) {
	endpoint := newFakeTokenEndpoint(t)
	svc, _ := newTestService(t, endpoint)

	seedRecord(t, svc, &TokenRecord{
		AccessToken:  "fresh-token",
		RefreshToken: "RT0",
		TokenType:    "Bearer",
		ExpiresAt:    time.Now().Add(time.Hour),
	})

	token, err := svc.GetValidAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.Equal(t, int64(0), endpoint.exchangeCalls.Load()+endpoint.refreshCalls.Load(),
		"a fresh token must make zero network calls")
}

func TestGetValidAccessToken_RefreshesExpired(t *testing.T) {
	endpoint := newFakeTokenEndpoint(t)
	endpoint.respond = func(w http.ResponseWriter, form url.Values) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "AT2",
			"refresh_token": "RT2",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}
	svc, path := newTestService(t, endpoint)

	seedRecord(t, svc, &TokenRecord{
		AccessToken:  "AT1",
		RefreshToken: "RT1",
		TokenType:    "Bearer",
		ExpiresAt:    time.Now().Add(-time.Hour),
	})

	before := time.Now()
	token, err := svc.GetValidAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AT2", token)
	assert.Equal(t, "refresh_token", endpoint.form().Get("grant_type"))
	assert.Equal(t, "RT1", endpoint.form().Get("refresh_token"))

	// The rotated refresh token and recomputed expiry were persisted.
	onDisk, err := NewTokenStore(path).Load()
	require.NoError(t, err)
	require.NotNil(t, onDisk)
	assert.Equal(t, "AT2", onDisk.AccessToken)
	assert.Equal(t, "RT2", onDisk.RefreshToken)
	assert.WithinDuration(t, before.Add(time.Hour), onDisk.ExpiresAt, 10*time.Second)
}

func TestGetValidAccessToken_KeepsRefreshTokenWhenOmitted(t *testing.T) {
	endpoint := newFakeTokenEndpoint(t)
	endpoint.respond = func(w http.ResponseWriter, form url.Values) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "AT2",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}
	svc, path := newTestService(t, endpoint)

	seedRecord(t, svc, &TokenRecord{
		AccessToken:  "AT1",
		RefreshToken: "RT1",
		ExpiresAt:    time.Now().Add(-time.Minute),
	})

	_, err := svc.GetValidAccessToken(context.Background())
	require.NoError(t, err)

	onDisk, err := NewTokenStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "RT1", onDisk.RefreshToken, "omitted refresh token keeps the prior one")
}

func TestGetValidAccessToken_RefreshRejected(t *testing.T) {
	endpoint := newFakeTokenEndpoint(t)
	endpoint.respond = func(w http.ResponseWriter, form url.Values) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}
	svc, path := newTestService(t, endpoint)

	seedRecord(t, svc, &TokenRecord{
		AccessToken:  "AT1",
		RefreshToken: "RT1",
		ExpiresAt:    time.Now().Add(-time.Hour),
	})
	beforeBytes, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = svc.GetValidAccessToken(context.Background())
	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
	assert.NotErrorIs(t, err, ErrNotAuthorized, "RefreshError is distinct from NotAuthorized")

	var exchErr *ExchangeError
	require.ErrorAs(t, err, &exchErr, "provider diagnostics are preserved in the chain")
	assert.Equal(t, http.StatusBadRequest, exchErr.StatusCode)

	// The on-disk record is untouched after a failed refresh.
	afterBytes, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, beforeBytes, afterBytes)
}

func TestGetValidAccessToken_ConcurrentRefreshCollapses(t *testing.T) {
	endpoint := newFakeTokenEndpoint(t)
	endpoint.respond = func(w http.ResponseWriter, form url.Values) {
		time.Sleep(50 * time.Millisecond) // widen the in-flight window
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "AT2",
			"refresh_token": "RT2",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}
	svc, _ := newTestService(t, endpoint)

	seedRecord(t, svc, &TokenRecord{
		AccessToken:  "AT1",
		RefreshToken: "RT1",
		ExpiresAt:    time.Now().Add(-time.Hour),
	})

	const callers = 10
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = svc.GetValidAccessToken(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "AT2", tokens[i])
	}
	assert.Equal(t, int64(1), endpoint.refreshCalls.Load(),
		"concurrent stale callers must collapse into a single refresh")
}

func TestCheckAuthStatus(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		endpoint := newFakeTokenEndpoint(t)
		svc, _ := newTestService(t, endpoint)

		ok, msg := svc.CheckAuthStatus(context.Background())
		assert.False(t, ok)
		assert.Contains(t, msg, "not authorized")
	})

	t.Run("fresh token", func(t *testing.T) {
		endpoint := newFakeTokenEndpoint(t)
		svc, _ := newTestService(t, endpoint)
		seedRecord(t, svc, &TokenRecord{
			AccessToken: "AT1",
			ExpiresAt:   time.Now().Add(time.Hour),
		})

		ok, _ := svc.CheckAuthStatus(context.Background())
		assert.True(t, ok)
		assert.Equal(t, int64(0), endpoint.refreshCalls.Load())
	})

	t.Run("expired but refreshable", func(t *testing.T) {
		endpoint := newFakeTokenEndpoint(t)
		svc, _ := newTestService(t, endpoint)
		seedRecord(t, svc, &TokenRecord{
			AccessToken:  "AT1",
			RefreshToken: "RT1",
			ExpiresAt:    time.Now().Add(-time.Hour),
		})

		ok, msg := svc.CheckAuthStatus(context.Background())
		assert.True(t, ok, "expired-but-refreshable counts as healthy")
		assert.Contains(t, msg, "refreshed")
		assert.Equal(t, int64(1), endpoint.refreshCalls.Load())
	})

	t.Run("refresh rejected", func(t *testing.T) {
		endpoint := newFakeTokenEndpoint(t)
		endpoint.respond = func(w http.ResponseWriter, form url.Values) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid_grant"}`))
		}
		svc, _ := newTestService(t, endpoint)
		seedRecord(t, svc, &TokenRecord{
			AccessToken:  "AT1",
			RefreshToken: "RT1",
			ExpiresAt:    time.Now().Add(-time.Hour),
		})

		ok, msg := svc.CheckAuthStatus(context.Background())
		assert.False(t, ok)
		assert.Contains(t, msg, "no longer usable")
	})
}

func TestAuthCodeURL(t *testing.T) {
	endpoint := newFakeTokenEndpoint(t)
	svc, _ := newTestService(t, endpoint)

	u, err := url.Parse(svc.AuthCodeURL("state-123"))
	require.NoError(t, err)
	assert.Equal(t, "marketplace.gohighlevel.com", u.Host)
	assert.Equal(t, "/oauth/chooselocation", u.Path)

	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "https://example.com/oauth/callback", q.Get("redirect_uri"))
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "contacts.readonly contacts.write", q.Get("scope"))
}

func TestErrorKindsAreDistinct(t *testing.T) {
	refreshErr := &RefreshError{Err: errors.New("boom")}
	assert.NotErrorIs(t, refreshErr, ErrNotAuthorized)
	assert.ErrorContains(t, refreshErr, "token refresh failed")

	exchErr := &ExchangeError{Grant: "authorization_code", StatusCode: 422, Body: "nope"}
	assert.ErrorContains(t, exchErr, "422")
	assert.ErrorContains(t, exchErr, "authorization_code")
}
