package oauth

import (
	"time"

	"golang.org/x/oauth2"
)

// TokenRecord is the persisted OAuth credential. Its absence on disk means
// "not yet authorized". Once any exchange has succeeded, AccessToken and
// RefreshToken are non-empty.
type TokenRecord struct {
	// AccessToken is the bearer credential for API calls.
	AccessToken string `json:"access_token"`

	// RefreshToken mints a new access token without user interaction.
	RefreshToken string `json:"refresh_token"`

	// TokenType is typically "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresAt is the absolute expiry time, computed from the provider's
	// expires_in at receipt. Relative durations rot once loaded from disk
	// at a later time, so only the absolute form is ever stored.
	ExpiresAt time.Time `json:"expires_at"`

	// Scope is the granted scope string. Advisory only.
	Scope string `json:"scope,omitempty"`

	// Raw preserves every field the provider returned, including ones this
	// system does not interpret (locationId, companyId, userType, ...).
	Raw map[string]interface{} `json:"raw,omitempty"`
}

// Fresh reports whether the access token is still usable with the given
// safety margin before expiry. A zero ExpiresAt counts as fresh.
func (r *TokenRecord) Fresh(margin time.Duration) bool {
	if r == nil || r.AccessToken == "" {
		return false
	}
	if r.ExpiresAt.IsZero() {
		return true
	}
	return time.Now().Add(margin).Before(r.ExpiresAt)
}

// Token converts the record to an oauth2.Token for interoperability with
// x/oauth2 based clients.
func (r *TokenRecord) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
		Expiry:       r.ExpiresAt,
	}
}

// tokenResponse is the provider's token endpoint payload. Fields beyond
// these are captured in TokenRecord.Raw.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
}
