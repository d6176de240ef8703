package ghl

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nawneet77/ghl/internal/oauth"
)

// fakeTokenProvider counts how often the service-managed credential path
// is taken.
type fakeTokenProvider struct {
	token string
	err   error
	calls int
}

func (f *fakeTokenProvider) GetValidAccessToken(ctx context.Context) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

func TestResolver_OverrideBypassesService(t *testing.T) {
	client, seen := newFakeAPI(t, http.StatusOK, `{}`)
	provider := &fakeTokenProvider{token: "service-token"}
	resolver := NewResolver(client, provider)

	bound, err := resolver.Resolve(context.Background(), "override-token-123")
	require.NoError(t, err)

	_, err = bound.Get(context.Background(), "/contacts/", nil)
	require.NoError(t, err)

	assert.Equal(t, 0, provider.calls, "override must never consult the OAuth service")
	assert.Equal(t, "Bearer override-token-123", (*seen)[0].headers.Get("Authorization"))
}

func TestResolver_FallsBackToService(t *testing.T) {
	client, seen := newFakeAPI(t, http.StatusOK, `{}`)
	provider := &fakeTokenProvider{token: "service-token"}
	resolver := NewResolver(client, provider)

	bound, err := resolver.Resolve(context.Background(), "")
	require.NoError(t, err)

	_, err = bound.Get(context.Background(), "/contacts/", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, "Bearer service-token", (*seen)[0].headers.Get("Authorization"))
}

func TestResolver_PropagatesServiceErrorsUntouched(t *testing.T) {
	client, _ := newFakeAPI(t, http.StatusOK, `{}`)

	t.Run("not authorized", func(t *testing.T) {
		provider := &fakeTokenProvider{err: oauth.ErrNotAuthorized}
		_, err := NewResolver(client, provider).Resolve(context.Background(), "")
		assert.ErrorIs(t, err, oauth.ErrNotAuthorized)
	})

	t.Run("refresh failed", func(t *testing.T) {
		refreshErr := &oauth.RefreshError{Err: assert.AnError}
		provider := &fakeTokenProvider{err: refreshErr}
		_, err := NewResolver(client, provider).Resolve(context.Background(), "")
		var re *oauth.RefreshError
		require.ErrorAs(t, err, &re)
		assert.Same(t, refreshErr, re, "errors pass through unwrapped")
	})
}
