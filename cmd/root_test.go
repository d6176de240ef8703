package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nawneet77/ghl/internal/oauth"
)

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "generic error",
			err:  errors.New("boom"),
			want: ExitCodeError,
		},
		{
			name: "not authorized",
			err:  oauth.ErrNotAuthorized,
			want: ExitCodeAuthRequired,
		},
		{
			name: "wrapped not authorized",
			err:  fmt.Errorf("tool call failed: %w", oauth.ErrNotAuthorized),
			want: ExitCodeAuthRequired,
		},
		{
			name: "exchange failed",
			err:  &oauth.ExchangeError{Grant: "authorization_code", StatusCode: 400, Body: "invalid_grant"},
			want: ExitCodeAuthFailed,
		},
		{
			name: "refresh failed",
			err:  &oauth.RefreshError{Err: errors.New("revoked")},
			want: ExitCodeAuthFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getExitCode(tt.err))
		})
	}
}

func TestVersionRoundTrip(t *testing.T) {
	old := GetVersion()
	defer SetVersion(old)

	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", GetVersion())
}
