package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/nawneet77/ghl/internal/oauth"
	"github.com/nawneet77/ghl/pkg/logging"
)

// Exit codes for CLI commands. These follow common conventions so the
// binary can be scripted.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates no stored credential is available.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the OAuth flow or a refresh failed.
	ExitCodeAuthFailed = 3
)

// Persistent flags shared by every command.
var (
	rootConfigPath string
	rootDebug      bool
)

// rootCmd represents the base command for the ghl application.
var rootCmd = &cobra.Command{
	Use:   "ghl",
	Short: "GoHighLevel MCP server and OAuth credential manager",
	Long: `ghl exposes the GoHighLevel marketing platform (contacts,
conversations, opportunities, calendars, forms) as MCP tools, and manages
the OAuth2 credential those tools authenticate with.

Run 'ghl auth login' once to authorize, then 'ghl serve' to start the MCP
server. The stored credential is refreshed automatically as it is used.`,
	// SilenceUsage keeps error output clean; usage on every failed API
	// call is just noise.
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logging.LevelInfo
		if rootDebug {
			level = logging.LevelDebug
		}
		logging.Init(level, os.Stderr)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "Path to the YAML config file (default: config.yaml if present)")
	rootCmd.PersistentFlags().BoolVar(&rootDebug, "debug", false, "Enable debug logging")
}

// SetVersion sets the version for the root command. Called from the main
// package to inject the build version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "ghl version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps error kinds to semantic exit codes for scripting.
func getExitCode(err error) int {
	if errors.Is(err, oauth.ErrNotAuthorized) {
		return ExitCodeAuthRequired
	}

	var exchangeErr *oauth.ExchangeError
	if errors.As(err, &exchangeErr) {
		return ExitCodeAuthFailed
	}

	var refreshErr *oauth.RefreshError
	if errors.As(err, &refreshErr) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}
