package server

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/nawneet77/ghl/internal/ghl"
	"github.com/nawneet77/ghl/internal/oauth"
	"github.com/nawneet77/ghl/internal/tools"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	store := oauth.NewTokenStore(filepath.Join(t.TempDir(), ".token.json"))
	service := oauth.NewService(&oauth2.Config{}, store, http.DefaultClient)
	registrar := tools.NewRegistrar(ghl.NewResolver(ghl.NewClient("", nil), service))
	return New(cfg, registrar, store)
}

func TestServer_DefaultTransport(t *testing.T) {
	s := newTestServer(t, Config{})
	assert.Equal(t, TransportStreamableHTTP, s.cfg.Transport)
}

func TestServer_UnsupportedTransport(t *testing.T) {
	s := newTestServer(t, Config{Transport: "sse"})
	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport")
}

func TestServer_StartStop(t *testing.T) {
	s := newTestServer(t, Config{
		Host:      "127.0.0.1",
		Port:      0,
		Transport: TransportStreamableHTTP,
		Version:   "test",
	})

	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()), "second start must fail")

	require.NoError(t, s.Stop(context.Background()))
	assert.Error(t, s.Stop(context.Background()), "second stop must fail")
}
