package tools

import (
	"context"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerOpportunityTools registers the pipeline and opportunity tools.
func (r *Registrar) registerOpportunityTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("ghl_search_opportunities",
		mcp.WithDescription("Search opportunities in a GoHighLevel location"),
		mcp.WithString("location_id", mcp.Required(), mcp.Description("Location (sub-account) ID")),
		mcp.WithString("pipeline_id", mcp.Description("Restrict to one pipeline")),
		mcp.WithString("status", mcp.Description("Opportunity status filter: open, won, lost, abandoned")),
		withOverrideToken(),
	), r.handleSearchOpportunities)

	s.AddTool(mcp.NewTool("ghl_get_pipelines",
		mcp.WithDescription("List pipelines and their stages for a location"),
		mcp.WithString("location_id", mcp.Required(), mcp.Description("Location (sub-account) ID")),
		withOverrideToken(),
	), r.handleGetPipelines)
}

func (r *Registrar) handleSearchOpportunities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	locationID, errResult := requireArg(req, "location_id")
	if errResult != nil {
		return errResult, nil
	}

	client, err := r.client(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return result(client.Get(ctx, "/opportunities/search", url.Values{
		"location_id": {locationID},
		"pipeline_id": {stringArg(req, "pipeline_id")},
		"status":      {stringArg(req, "status")},
	}))
}

func (r *Registrar) handleGetPipelines(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	locationID, errResult := requireArg(req, "location_id")
	if errResult != nil {
		return errResult, nil
	}

	client, err := r.client(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return result(client.Get(ctx, "/opportunities/pipelines", url.Values{
		"locationId": {locationID},
	}))
}
