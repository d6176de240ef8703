package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/nawneet77/ghl/pkg/logging"
)

// RefreshMargin is how long before expiry a token is considered stale.
// It absorbs clock skew and the latency of the API call the token is
// about to be used for.
const RefreshMargin = 60 * time.Second

// defaultRequestTimeout bounds token endpoint calls so a stuck provider
// surfaces as an error instead of blocking the process.
const defaultRequestTimeout = 30 * time.Second

// maxErrorBodySize caps how much of a provider error body is retained for
// diagnostics.
const maxErrorBodySize = 64 << 10

// Service owns all communication with the provider's token endpoint and
// the credential store. It is safe for concurrent use; concurrent callers
// that observe a stale token collapse into a single in-flight refresh.
type Service struct {
	cfg        *oauth2.Config
	store      *TokenStore
	httpClient *http.Client

	refreshGroup singleflight.Group
}

// NewService creates a Service from the x/oauth2 client configuration and
// a token store. A nil httpClient falls back to a timeout-bounded default.
func NewService(cfg *oauth2.Config, store *TokenStore, httpClient *http.Client) *Service {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Service{
		cfg:        cfg,
		store:      store,
		httpClient: httpClient,
	}
}

// Store returns the credential store owned by this service.
func (s *Service) Store() *TokenStore {
	return s.store
}

// RedirectURL returns the configured OAuth redirect URI.
func (s *Service) RedirectURL() string {
	return s.cfg.RedirectURL
}

// AuthCodeURL builds the provider's hosted authorization page URL for the
// given CSRF state value.
func (s *Service) AuthCodeURL(state string) string {
	return s.cfg.AuthCodeURL(state)
}

// ExchangeAuthorizationCode trades a one-time authorization code for a
// token pair and persists the resulting record before returning it.
//
// The redirect_uri sent here must match the one in the authorization URL
// byte-for-byte; a mismatch is rejected by the provider and surfaces as an
// *ExchangeError carrying the provider's diagnostics.
func (s *Service) ExchangeAuthorizationCode(ctx context.Context, code string) (*TokenRecord, error) {
	if code == "" {
		return nil, fmt.Errorf("authorization code is empty")
	}

	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {s.cfg.RedirectURL},
	}

	rec, err := s.exchange(ctx, "authorization_code", form)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(rec); err != nil {
		return nil, fmt.Errorf("exchange succeeded but persisting the token failed: %w", err)
	}

	logging.Info("OAuth", "Authorization code exchanged, credential stored (expires_at=%s)", rec.ExpiresAt)
	return rec, nil
}

// GetValidAccessToken returns a currently valid access token, refreshing
// the stored credential if it is within RefreshMargin of expiry.
//
// Returns ErrNotAuthorized when no credential exists, and *RefreshError
// when a credential exists but the provider rejected the refresh.
func (s *Service) GetValidAccessToken(ctx context.Context) (string, error) {
	rec, err := s.store.Load()
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", ErrNotAuthorized
	}
	if rec.Fresh(RefreshMargin) {
		return rec.AccessToken, nil
	}

	// Collapse concurrent refreshes into one exchange. Late arrivals that
	// join after a refresh completed re-check the store inside the flight
	// and return the fresh token without another network call.
	v, err, _ := s.refreshGroup.Do("refresh", func() (interface{}, error) {
		return s.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// refresh performs the refresh-token exchange and persists the result.
// Called only through the singleflight group.
func (s *Service) refresh(ctx context.Context) (string, error) {
	rec, err := s.store.Load()
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", ErrNotAuthorized
	}
	if rec.Fresh(RefreshMargin) {
		// Another caller already refreshed while we waited.
		return rec.AccessToken, nil
	}
	if rec.RefreshToken == "" {
		return "", &RefreshError{Err: fmt.Errorf("stored record has no refresh token")}
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {rec.RefreshToken},
	}

	fresh, err := s.exchange(ctx, "refresh_token", form)
	if err != nil {
		logging.Warn("OAuth", "Token refresh rejected by provider: %v", err)
		return "", &RefreshError{Err: err}
	}

	// Providers may rotate the refresh token. Keep the prior one only when
	// the provider omitted it.
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = rec.RefreshToken
	}

	if err := s.store.Save(fresh); err != nil {
		return "", &RefreshError{Err: fmt.Errorf("refresh succeeded but persisting the token failed: %w", err)}
	}

	logging.Info("OAuth", "Access token refreshed (expires_at=%s)", fresh.ExpiresAt)
	return fresh.AccessToken, nil
}

// CheckAuthStatus is a startup health check. A present, unexpired record
// is healthy; an expired-but-refreshable record counts as healthy too, so
// the check attempts a refresh when needed.
func (s *Service) CheckAuthStatus(ctx context.Context) (bool, string) {
	rec, err := s.store.Load()
	if err != nil {
		return false, fmt.Sprintf("failed to read credential store: %v", err)
	}
	if rec == nil {
		return false, "not authorized: run the interactive authorization flow"
	}
	if rec.Fresh(RefreshMargin) {
		return true, fmt.Sprintf("authorized (token valid until %s)", rec.ExpiresAt.Format(time.RFC3339))
	}

	if _, err := s.GetValidAccessToken(ctx); err != nil {
		return false, fmt.Sprintf("stored credential is no longer usable: %v", err)
	}
	return true, "authorized (token refreshed)"
}

// exchange POSTs a form to the token endpoint and builds a TokenRecord
// from the response. Nothing is persisted here.
func (s *Service) exchange(ctx context.Context, grant string, form url.Values) (*TokenRecord, error) {
	form.Set("client_id", s.cfg.ClientID)
	form.Set("client_secret", s.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token endpoint request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ExchangeError{
			Grant:      grant,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("token response contained no access token")
	}

	// Keep the full provider payload for fields this system does not
	// interpret (locationId, companyId, userType, ...).
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		raw = nil
	}

	rec := &TokenRecord{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
		Scope:        tr.Scope,
		Raw:          raw,
	}
	if rec.TokenType == "" {
		rec.TokenType = "Bearer"
	}
	if tr.ExpiresIn > 0 {
		rec.ExpiresAt = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}

	return rec, nil
}
