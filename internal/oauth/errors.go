package oauth

import (
	"errors"
	"fmt"
)

// ErrNotAuthorized indicates that no credential exists yet. Recoverable by
// running the interactive authorization flow.
var ErrNotAuthorized = errors.New("not authorized: no stored credential, run the authorization flow first")

// ExchangeError reports a non-200 response from the provider's token
// endpoint. It carries the provider's diagnostics so a redirect_uri
// mismatch or an invalid code is distinguishable from transport failures.
type ExchangeError struct {
	// Grant is the grant_type of the failed exchange.
	Grant string

	// StatusCode is the provider's HTTP status.
	StatusCode int

	// Body is the raw provider response body.
	Body string
}

// Error implements the error interface.
func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%s exchange failed: provider returned %d: %s", e.Grant, e.StatusCode, e.Body)
}

// RefreshError indicates a credential existed but could not be refreshed
// (revoked, expired refresh token). Unlike ErrNotAuthorized this means the
// user must re-run the authorization flow, not first-time setup.
type RefreshError struct {
	Err error
}

// Error implements the error interface.
func (e *RefreshError) Error() string {
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

// Unwrap returns the underlying error for errors.As/Is chains.
func (e *RefreshError) Unwrap() error {
	return e.Err
}
