package tools

import (
	"context"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerFormTools registers the form and submission tools.
func (r *Registrar) registerFormTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("ghl_get_forms",
		mcp.WithDescription("List forms in a GoHighLevel location"),
		mcp.WithString("location_id", mcp.Required(), mcp.Description("Location (sub-account) ID")),
		withOverrideToken(),
	), r.handleGetForms)

	s.AddTool(mcp.NewTool("ghl_get_form_submissions",
		mcp.WithDescription("List submissions for forms in a location"),
		mcp.WithString("location_id", mcp.Required(), mcp.Description("Location (sub-account) ID")),
		mcp.WithString("form_id", mcp.Description("Restrict to one form")),
		mcp.WithString("limit", mcp.Description("Maximum number of submissions to return")),
		withOverrideToken(),
	), r.handleGetFormSubmissions)
}

func (r *Registrar) handleGetForms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	locationID, errResult := requireArg(req, "location_id")
	if errResult != nil {
		return errResult, nil
	}

	client, err := r.client(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return result(client.Get(ctx, "/forms/", url.Values{
		"locationId": {locationID},
	}))
}

func (r *Registrar) handleGetFormSubmissions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	locationID, errResult := requireArg(req, "location_id")
	if errResult != nil {
		return errResult, nil
	}

	client, err := r.client(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return result(client.Get(ctx, "/forms/submissions", url.Values{
		"locationId": {locationID},
		"formId":     {stringArg(req, "form_id")},
		"limit":      {stringArg(req, "limit")},
	}))
}
