package cmd

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/nawneet77/ghl/internal/config"
	"github.com/nawneet77/ghl/internal/oauth"
)

// authCmd groups the credential management subcommands.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the stored GoHighLevel credential",
	Long: `Manage the OAuth2 credential used to authenticate API calls.

Examples:
  ghl auth login    # Authorize via the browser and store the credential
  ghl auth status   # Show whether the stored credential is usable
  ghl auth logout   # Delete the stored credential`,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
}

// loadOAuthService builds the OAuth service stack from configuration.
// Shared by the auth subcommands, serve and authserver.
func loadOAuthService() (*config.Config, *oauth.Service, error) {
	cfg, err := config.Load(rootConfigPath)
	if err != nil {
		return nil, nil, err
	}

	store := oauth.NewTokenStore(cfg.TokenFile)
	service := oauth.NewService(cfg.OAuth2(), store, http.DefaultClient)
	return cfg, service, nil
}
