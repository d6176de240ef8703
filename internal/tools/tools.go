// Package tools maps MCP tool invocations onto GoHighLevel REST
// endpoints. Every tool is thin glue: argument extraction, one API call
// through the resolved client, and the raw JSON response back to the
// caller.
//
// Each tool accepts an optional access_token argument. When present the
// call authenticates with that literal token instead of the shared
// service-managed credential, which lets one server process serve
// multiple accounts.
package tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nawneet77/ghl/internal/ghl"
)

// overrideTokenArg is the per-call token override argument shared by all
// tools.
const overrideTokenArg = "access_token"

// Registrar registers the GoHighLevel tool families on an MCP server.
type Registrar struct {
	resolver *ghl.Resolver
}

// NewRegistrar creates a registrar over the client resolver.
func NewRegistrar(resolver *ghl.Resolver) *Registrar {
	return &Registrar{resolver: resolver}
}

// RegisterAll registers every tool family.
func (r *Registrar) RegisterAll(s *server.MCPServer) {
	r.registerContactTools(s)
	r.registerConversationTools(s)
	r.registerOpportunityTools(s)
	r.registerCalendarTools(s)
	r.registerFormTools(s)
}

// client resolves the authenticated client for one invocation, honoring
// the access_token override when the caller supplied one.
func (r *Registrar) client(ctx context.Context, req mcp.CallToolRequest) (*ghl.BoundClient, error) {
	return r.resolver.Resolve(ctx, stringArg(req, overrideTokenArg))
}

// args returns the invocation arguments as a map, or nil.
func args(req mcp.CallToolRequest) map[string]interface{} {
	m, _ := req.Params.Arguments.(map[string]interface{})
	return m
}

// stringArg returns a string argument, or "" when absent or not a string.
func stringArg(req mcp.CallToolRequest, key string) string {
	v, _ := args(req)[key].(string)
	return v
}

// requireArg returns a required string argument, or an MCP error result
// naming the missing argument.
func requireArg(req mcp.CallToolRequest, key string) (string, *mcp.CallToolResult) {
	v := stringArg(req, key)
	if v == "" {
		return "", mcp.NewToolResultError(key + " is required")
	}
	return v, nil
}

// result renders an API response or error as an MCP tool result. API and
// auth errors become tool-level errors, not protocol errors, so the agent
// can read the provider diagnostics and react.
func result(raw json.RawMessage, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

// withOverrideToken is the access_token tool option shared by all tools.
func withOverrideToken() mcp.ToolOption {
	return mcp.WithString(overrideTokenArg,
		mcp.Description("Optional access token override; bypasses the stored credential for this call"),
	)
}
