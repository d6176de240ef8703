package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nawneet77/ghl/internal/oauth"
	"github.com/nawneet77/ghl/pkg/logging"
)

// authServerCmd runs the standalone authorization web flow.
var authServerCmd = &cobra.Command{
	Use:   "authserver",
	Short: "Run the OAuth2 authorization web flow",
	Long: `Run the web server hosting the OAuth2 authorization flow.

It serves a landing page that links to the GoHighLevel location chooser
and handles the registered redirect URI. On success the credential is
written to the token file, where a running 'ghl serve' process picks it
up automatically.

Use this instead of 'ghl auth login' when the redirect URI is not a
localhost address, e.g. on a hosted deployment.`,
	Args: cobra.NoArgs,
	RunE: runAuthServer,
}

func init() {
	rootCmd.AddCommand(authServerCmd)
}

func runAuthServer(cmd *cobra.Command, args []string) error {
	cfg, service, err := loadOAuthService()
	if err != nil {
		return err
	}

	states := oauth.NewStateStore()
	defer states.Stop()

	mux := http.NewServeMux()
	oauth.NewHandler(service, states).Routes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.AuthPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.Info("AuthServer", "Authorization flow listening on http://%s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("authorization server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
