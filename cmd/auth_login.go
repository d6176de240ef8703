package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/nawneet77/ghl/internal/oauth"
)

// authLoginCmd represents the auth login command.
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize with GoHighLevel via the browser",
	Long: `Run the OAuth2 authorization flow and store the resulting credential.

The command opens the GoHighLevel location chooser in your browser, waits
for the callback on the configured loopback redirect URI, exchanges the
authorization code and persists the credential to the token file.

The redirect URI must point at localhost for this command; for hosted
deployments run 'ghl authserver' instead.`,
	RunE: runAuthLogin,
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	cfg, service, err := loadOAuthService()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), oauth.CallbackTimeout)
	defer cancel()

	callback, err := oauth.NewCallbackServer(cfg.RedirectURI)
	if err != nil {
		return err
	}
	if err := callback.Start(ctx); err != nil {
		return err
	}
	defer callback.Stop()

	states := oauth.NewStateStore()
	defer states.Stop()

	state, err := states.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate state: %w", err)
	}

	authURL := service.AuthCodeURL(state)
	fmt.Println("Opening your browser to authorize with GoHighLevel...")
	if err := oauth.OpenBrowser(authURL); err != nil {
		fmt.Println("Could not open a browser automatically. Visit this URL:")
		fmt.Println()
		fmt.Println("  " + authURL)
		fmt.Println()
	}

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	sp.Suffix = " Waiting for authorization to complete in the browser..."
	sp.Start()
	result, err := callback.WaitForCallback(ctx)
	sp.Stop()
	if err != nil {
		return fmt.Errorf("authorization did not complete: %w", err)
	}

	if result.IsError() {
		return fmt.Errorf("authorization was denied: %s: %s", result.Error, result.ErrorDescription)
	}
	if !states.Validate(result.State) {
		return fmt.Errorf("state mismatch in OAuth callback; aborting")
	}

	rec, err := service.ExchangeAuthorizationCode(ctx, result.Code)
	if err != nil {
		return err
	}

	fmt.Printf("Authorized. Credential stored in %s", service.Store().Path())
	if !rec.ExpiresAt.IsZero() {
		fmt.Printf(" (access token valid until %s)", rec.ExpiresAt.Format(time.RFC3339))
	}
	fmt.Println()
	return nil
}
