package tools

import (
	"context"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerConversationTools registers the conversation and messaging tools.
func (r *Registrar) registerConversationTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("ghl_search_conversations",
		mcp.WithDescription("Search conversations in a GoHighLevel location"),
		mcp.WithString("location_id", mcp.Required(), mcp.Description("Location (sub-account) ID")),
		mcp.WithString("contact_id", mcp.Description("Restrict to one contact's conversations")),
		mcp.WithString("status", mcp.Description("Conversation status filter: all, read, unread, starred")),
		withOverrideToken(),
	), r.handleSearchConversations)

	s.AddTool(mcp.NewTool("ghl_get_conversation",
		mcp.WithDescription("Get a conversation with its messages by ID"),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation ID")),
		withOverrideToken(),
	), r.handleGetConversation)

	s.AddTool(mcp.NewTool("ghl_send_message",
		mcp.WithDescription("Send an SMS or email message to a contact"),
		mcp.WithString("contact_id", mcp.Required(), mcp.Description("Contact ID to message")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Message channel: SMS or Email")),
		mcp.WithString("message", mcp.Required(), mcp.Description("Message body")),
		mcp.WithString("subject", mcp.Description("Email subject; ignored for SMS")),
		withOverrideToken(),
	), r.handleSendMessage)
}

func (r *Registrar) handleSearchConversations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	locationID, errResult := requireArg(req, "location_id")
	if errResult != nil {
		return errResult, nil
	}

	client, err := r.client(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return result(client.Get(ctx, "/conversations/search", url.Values{
		"locationId": {locationID},
		"contactId":  {stringArg(req, "contact_id")},
		"status":     {stringArg(req, "status")},
	}))
}

func (r *Registrar) handleGetConversation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversationID, errResult := requireArg(req, "conversation_id")
	if errResult != nil {
		return errResult, nil
	}

	client, err := r.client(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return result(client.Get(ctx, "/conversations/"+conversationID, nil))
}

func (r *Registrar) handleSendMessage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contactID, errResult := requireArg(req, "contact_id")
	if errResult != nil {
		return errResult, nil
	}
	msgType, errResult := requireArg(req, "type")
	if errResult != nil {
		return errResult, nil
	}
	message, errResult := requireArg(req, "message")
	if errResult != nil {
		return errResult, nil
	}

	client, err := r.client(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]string{
		"contactId": contactID,
		"type":      msgType,
		"message":   message,
	}
	setIfPresent(body, req, "subject", "subject")

	return result(client.Post(ctx, "/conversations/messages", body))
}
