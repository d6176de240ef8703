package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// authLogoutCmd represents the auth logout command.
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete the stored credential",
	Long: `Delete the persisted credential file.

This only removes the local copy; it does not revoke the grant with
GoHighLevel. Deleting an already-absent credential succeeds.`,
	RunE: runAuthLogout,
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	_, service, err := loadOAuthService()
	if err != nil {
		return err
	}

	if err := service.Store().Delete(); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	fmt.Printf("Credential removed from %s\n", service.Store().Path())
	return nil
}
