package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nawneet77/ghl/internal/ghl"
	"github.com/nawneet77/ghl/internal/server"
	"github.com/nawneet77/ghl/internal/tools"
	"github.com/nawneet77/ghl/pkg/logging"
)

// Serve-specific flags.
var (
	serveTransport string
	serveHost      string
	servePort      int
)

// serveCmd starts the MCP server exposing the GoHighLevel tools.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the GoHighLevel MCP server",
	Long: `Start the MCP server exposing the GoHighLevel tool set.

The server authenticates API calls with the stored credential and
refreshes it lazily as tools are invoked. Run 'ghl auth login' first, or
point an agent at a token via each tool's access_token argument.

Transports:
  streamable-http (default)  Serves MCP over HTTP on --host:--port.
  stdio                      Serves MCP on stdin/stdout, for editors and
                             agent runtimes that spawn the server.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveTransport, "transport", server.TransportStreamableHTTP, "MCP transport: streamable-http or stdio")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, service, err := loadOAuthService()
	if err != nil {
		return err
	}

	if serveHost != "" {
		cfg.Host = serveHost
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	// Startup is not gated on authorization: the flow may be run while the
	// server is up, and per-call token overrides need no stored credential.
	if healthy, detail := service.CheckAuthStatus(cmd.Context()); healthy {
		logging.Info("Serve", "Credential check: %s", detail)
	} else {
		logging.Warn("Serve", "Credential check: %s", detail)
	}

	client := ghl.NewClient(cfg.APIBaseURL, http.DefaultClient)
	registrar := tools.NewRegistrar(ghl.NewResolver(client, service))

	srv := server.New(server.Config{
		Host:      cfg.Host,
		Port:      cfg.Port,
		Transport: serveTransport,
		Version:   GetVersion(),
	}, registrar, service.Store())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start MCP server: %w", err)
	}

	<-ctx.Done()
	stop()

	return srv.Stop(context.Background())
}
