package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// authStatusCmd represents the auth status command.
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored credential status",
	Long: `Show whether a credential is stored and whether it is still usable.

An expired credential with a working refresh token counts as usable; the
check refreshes it in place. Token values themselves are never printed.`,
	RunE: runAuthStatus,
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	cfg, service, err := loadOAuthService()
	if err != nil {
		return err
	}

	healthy, detail := service.CheckAuthStatus(cmd.Context())

	status := "not authorized"
	if healthy {
		status = "authorized"
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendRow(table.Row{"Status", status})
	t.AppendRow(table.Row{"Detail", detail})
	t.AppendRow(table.Row{"Token file", service.Store().Path()})
	t.AppendRow(table.Row{"Redirect URI", cfg.RedirectURI})
	t.AppendRow(table.Row{"Scopes", strings.Join(cfg.Scopes, "\n")})

	if rec, loadErr := service.Store().Load(); loadErr == nil && rec != nil && !rec.ExpiresAt.IsZero() {
		t.AppendRow(table.Row{"Expires", rec.ExpiresAt.Format(time.RFC3339)})
	}

	t.Render()

	if !healthy {
		// Non-zero exit so scripts can gate on authorization.
		os.Exit(ExitCodeAuthRequired)
	}
	return nil
}
