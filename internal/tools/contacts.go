package tools

import (
	"context"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerContactTools registers the contact resource tools.
func (r *Registrar) registerContactTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("ghl_search_contacts",
		mcp.WithDescription("Search contacts in a GoHighLevel location"),
		mcp.WithString("location_id", mcp.Required(), mcp.Description("Location (sub-account) ID")),
		mcp.WithString("query", mcp.Description("Free-text search across name, email and phone")),
		mcp.WithString("limit", mcp.Description("Maximum number of contacts to return")),
		withOverrideToken(),
	), r.handleSearchContacts)

	s.AddTool(mcp.NewTool("ghl_get_contact",
		mcp.WithDescription("Get a single contact by ID"),
		mcp.WithString("contact_id", mcp.Required(), mcp.Description("Contact ID")),
		withOverrideToken(),
	), r.handleGetContact)

	s.AddTool(mcp.NewTool("ghl_create_contact",
		mcp.WithDescription("Create a contact in a GoHighLevel location"),
		mcp.WithString("location_id", mcp.Required(), mcp.Description("Location (sub-account) ID")),
		mcp.WithString("first_name", mcp.Description("First name")),
		mcp.WithString("last_name", mcp.Description("Last name")),
		mcp.WithString("email", mcp.Description("Email address")),
		mcp.WithString("phone", mcp.Description("Phone number in E.164 format")),
		withOverrideToken(),
	), r.handleCreateContact)

	s.AddTool(mcp.NewTool("ghl_update_contact",
		mcp.WithDescription("Update fields on an existing contact"),
		mcp.WithString("contact_id", mcp.Required(), mcp.Description("Contact ID")),
		mcp.WithString("first_name", mcp.Description("First name")),
		mcp.WithString("last_name", mcp.Description("Last name")),
		mcp.WithString("email", mcp.Description("Email address")),
		mcp.WithString("phone", mcp.Description("Phone number in E.164 format")),
		withOverrideToken(),
	), r.handleUpdateContact)
}

func (r *Registrar) handleSearchContacts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	locationID, errResult := requireArg(req, "location_id")
	if errResult != nil {
		return errResult, nil
	}

	client, err := r.client(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return result(client.Get(ctx, "/contacts/", url.Values{
		"locationId": {locationID},
		"query":      {stringArg(req, "query")},
		"limit":      {stringArg(req, "limit")},
	}))
}

func (r *Registrar) handleGetContact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contactID, errResult := requireArg(req, "contact_id")
	if errResult != nil {
		return errResult, nil
	}

	client, err := r.client(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return result(client.Get(ctx, "/contacts/"+contactID, nil))
}

func (r *Registrar) handleCreateContact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	locationID, errResult := requireArg(req, "location_id")
	if errResult != nil {
		return errResult, nil
	}

	client, err := r.client(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]string{"locationId": locationID}
	setIfPresent(body, req, "first_name", "firstName")
	setIfPresent(body, req, "last_name", "lastName")
	setIfPresent(body, req, "email", "email")
	setIfPresent(body, req, "phone", "phone")

	return result(client.Post(ctx, "/contacts/", body))
}

func (r *Registrar) handleUpdateContact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contactID, errResult := requireArg(req, "contact_id")
	if errResult != nil {
		return errResult, nil
	}

	client, err := r.client(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]string{}
	setIfPresent(body, req, "first_name", "firstName")
	setIfPresent(body, req, "last_name", "lastName")
	setIfPresent(body, req, "email", "email")
	setIfPresent(body, req, "phone", "phone")

	return result(client.Put(ctx, "/contacts/"+contactID, body))
}

// setIfPresent copies a tool argument into an API body under the
// provider's field name, skipping absent arguments.
func setIfPresent(body map[string]string, req mcp.CallToolRequest, arg, field string) {
	if v := stringArg(req, arg); v != "" {
		body[field] = v
	}
}
