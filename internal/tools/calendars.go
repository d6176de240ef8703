package tools

import (
	"context"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerCalendarTools registers the calendar and appointment tools.
func (r *Registrar) registerCalendarTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("ghl_get_calendars",
		mcp.WithDescription("List calendars in a GoHighLevel location"),
		mcp.WithString("location_id", mcp.Required(), mcp.Description("Location (sub-account) ID")),
		withOverrideToken(),
	), r.handleGetCalendars)

	s.AddTool(mcp.NewTool("ghl_get_calendar_events",
		mcp.WithDescription("List events on a calendar within a time window"),
		mcp.WithString("location_id", mcp.Required(), mcp.Description("Location (sub-account) ID")),
		mcp.WithString("calendar_id", mcp.Required(), mcp.Description("Calendar ID")),
		mcp.WithString("start_time", mcp.Required(), mcp.Description("Window start, epoch milliseconds")),
		mcp.WithString("end_time", mcp.Required(), mcp.Description("Window end, epoch milliseconds")),
		withOverrideToken(),
	), r.handleGetCalendarEvents)

	s.AddTool(mcp.NewTool("ghl_create_appointment",
		mcp.WithDescription("Book an appointment on a calendar"),
		mcp.WithString("location_id", mcp.Required(), mcp.Description("Location (sub-account) ID")),
		mcp.WithString("calendar_id", mcp.Required(), mcp.Description("Calendar ID")),
		mcp.WithString("contact_id", mcp.Required(), mcp.Description("Contact the appointment is for")),
		mcp.WithString("start_time", mcp.Required(), mcp.Description("Appointment start, RFC 3339")),
		mcp.WithString("title", mcp.Description("Appointment title")),
		withOverrideToken(),
	), r.handleCreateAppointment)
}

func (r *Registrar) handleGetCalendars(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	locationID, errResult := requireArg(req, "location_id")
	if errResult != nil {
		return errResult, nil
	}

	client, err := r.client(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return result(client.Get(ctx, "/calendars/", url.Values{
		"locationId": {locationID},
	}))
}

func (r *Registrar) handleGetCalendarEvents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	locationID, errResult := requireArg(req, "location_id")
	if errResult != nil {
		return errResult, nil
	}
	calendarID, errResult := requireArg(req, "calendar_id")
	if errResult != nil {
		return errResult, nil
	}
	startTime, errResult := requireArg(req, "start_time")
	if errResult != nil {
		return errResult, nil
	}
	endTime, errResult := requireArg(req, "end_time")
	if errResult != nil {
		return errResult, nil
	}

	client, err := r.client(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return result(client.Get(ctx, "/calendars/events", url.Values{
		"locationId": {locationID},
		"calendarId": {calendarID},
		"startTime":  {startTime},
		"endTime":    {endTime},
	}))
}

func (r *Registrar) handleCreateAppointment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	locationID, errResult := requireArg(req, "location_id")
	if errResult != nil {
		return errResult, nil
	}
	calendarID, errResult := requireArg(req, "calendar_id")
	if errResult != nil {
		return errResult, nil
	}
	contactID, errResult := requireArg(req, "contact_id")
	if errResult != nil {
		return errResult, nil
	}
	startTime, errResult := requireArg(req, "start_time")
	if errResult != nil {
		return errResult, nil
	}

	client, err := r.client(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]string{
		"locationId": locationID,
		"calendarId": calendarID,
		"contactId":  contactID,
		"startTime":  startTime,
	}
	setIfPresent(body, req, "title", "title")

	return result(client.Post(ctx, "/calendars/events/appointments", body))
}
