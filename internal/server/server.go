// Package server runs the MCP server exposing the GoHighLevel tools.
//
// The server owns transport lifecycle only. Tool semantics live in
// internal/tools; credential handling lives in internal/oauth.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nawneet77/ghl/internal/oauth"
	"github.com/nawneet77/ghl/internal/tools"
	"github.com/nawneet77/ghl/pkg/logging"
)

// Supported MCP transports.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// Config holds the transport configuration for the MCP server.
type Config struct {
	Host      string
	Port      int
	Transport string
	Version   string
}

// Server is the MCP server process: one MCP endpoint, the GoHighLevel
// tool set, and a token-file watcher that picks up credentials written
// by other processes.
type Server struct {
	mu     sync.Mutex
	cfg    Config
	tools  *tools.Registrar
	store  *oauth.TokenStore
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mcpServer        *server.MCPServer
	streamableServer *server.StreamableHTTPServer
	stdioServer      *server.StdioServer
}

// New creates a server over the tool registrar and the token store.
func New(cfg Config, registrar *tools.Registrar, store *oauth.TokenStore) *Server {
	if cfg.Transport == "" {
		cfg.Transport = TransportStreamableHTTP
	}
	return &Server{cfg: cfg, tools: registrar, store: store}
}

// Start registers the tools and starts the configured transport. It
// returns once the transport is accepting requests; the server then runs
// until Stop.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mcpServer != nil {
		return fmt.Errorf("server already started")
	}

	ctx, s.cancel = context.WithCancel(ctx)

	s.mcpServer = server.NewMCPServer(
		"ghl-mcp-server",
		s.cfg.Version,
		server.WithToolCapabilities(false),
	)
	s.tools.RegisterAll(s.mcpServer)

	// Pick up token files written by the standalone authorization server
	// without a restart.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.store.Watch(ctx); err != nil {
			logging.Warn("Server", "Token file watcher stopped: %v", err)
		}
	}()

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	switch s.cfg.Transport {
	case TransportStdio:
		logging.Info("Server", "Starting MCP server with stdio transport")
		s.stdioServer = server.NewStdioServer(s.mcpServer)
		stdioServer := s.stdioServer
		go func() {
			if err := stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil {
				logging.Error("Server", err, "Stdio server error")
			}
		}()

	case TransportStreamableHTTP:
		logging.Info("Server", "Starting MCP server with streamable-http transport on %s", addr)
		s.streamableServer = server.NewStreamableHTTPServer(s.mcpServer)
		streamableServer := s.streamableServer
		go func() {
			if err := streamableServer.Start(addr); err != nil && err != http.ErrServerClosed {
				logging.Error("Server", err, "Streamable HTTP server error")
			}
		}()

	default:
		s.cancel()
		return fmt.Errorf("unsupported transport %q", s.cfg.Transport)
	}

	// Tell systemd we are up; a no-op outside a systemd unit.
	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logging.Warn("Server", "systemd readiness notification failed: %v", err)
	} else if sent {
		logging.Debug("Server", "Notified systemd of readiness")
	}

	return nil
}

// Stop shuts the transport down and waits for background routines.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.mcpServer == nil {
		s.mu.Unlock()
		return fmt.Errorf("server not started")
	}

	logging.Info("Server", "Stopping MCP server")

	cancel := s.cancel
	streamableServer := s.streamableServer
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(ctx, 5*time.Second)
	defer cancelShutdown()

	if streamableServer != nil {
		if err := streamableServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("Server", err, "Error shutting down streamable HTTP server")
		}
	}
	// The stdio transport stops on context cancellation.

	s.wg.Wait()

	s.mu.Lock()
	s.mcpServer = nil
	s.streamableServer = nil
	s.stdioServer = nil
	s.mu.Unlock()

	return nil
}
