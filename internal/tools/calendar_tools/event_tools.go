package calendar_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kiyora/google-mcp/internal/calendar"
	"github.com/kiyora/google-mcp/internal/instrumentation"
	"github.com/kiyora/google-mcp/internal/server"
)

// registerEventReadTools registers the read-only Calendar tools.
func registerEventReadTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	listTool := mcp.NewTool("calendar_list_events",
		mcp.WithDescription("List upcoming events from the primary calendar"),
		sessionArg(),
		mcp.WithString("time_min",
			mcp.Description("Start of the time range (RFC 3339, default: now)"),
		),
		mcp.WithString("time_max",
			mcp.Description("End of the time range (RFC 3339, default: open-ended)"),
		),
		mcp.WithNumber("max_results",
			mcp.Description(fmt.Sprintf("Maximum number of events to return (default: %d)", calendar.DefaultMaxResults)),
		),
		mcp.WithString("query",
			mcp.Description("Free text search over event fields"),
		),
	)
	addInstrumentedTool(s, sc, listTool, instrumentation.OperationList,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		})

	searchTool := mcp.NewTool("calendar_search_events",
		mcp.WithDescription("Search events on the primary calendar by free text"),
		sessionArg(),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free text to search for"),
		),
		mcp.WithString("time_min",
			mcp.Description("Start of the time range (RFC 3339, default: now)"),
		),
		mcp.WithString("time_max",
			mcp.Description("End of the time range (RFC 3339, default: open-ended)"),
		),
		mcp.WithNumber("max_results",
			mcp.Description(fmt.Sprintf("Maximum number of events to return (default: %d)", calendar.DefaultMaxResults)),
		),
	)
	addInstrumentedTool(s, sc, searchTool, instrumentation.OperationSearch,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearchEvents(ctx, request, sc)
		})

	colorsTool := mcp.NewTool("calendar_list_colors",
		mcp.WithDescription("List the available event color palette"),
		sessionArg(),
	)
	addInstrumentedTool(s, sc, colorsTool, instrumentation.OperationList,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListColors(ctx, request, sc)
		})
}

// registerEventWriteTools registers the event mutation tools. Only called
// when write operations are enabled.
func registerEventWriteTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	createTool := mcp.NewTool("calendar_create_event",
		mcp.WithDescription("Create an event on the primary calendar"),
		sessionArg(),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Event start time (RFC 3339)"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("Event end time (RFC 3339)"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("location",
			mcp.Description("Event location"),
		),
		mcp.WithString("time_zone",
			mcp.Description("IANA time zone for the event times (e.g. Europe/Berlin)"),
		),
		mcp.WithString("attendees",
			mcp.Description("Attendee email address(es), comma-separated"),
		),
		mcp.WithString("color_id",
			mcp.Description("Color ID from calendar_list_colors"),
		),
		mcp.WithString("recurrence",
			mcp.Description("RFC 5545 recurrence rule (e.g. RRULE:FREQ=WEEKLY;BYDAY=MO)"),
		),
	)
	addInstrumentedTool(s, sc, createTool, instrumentation.OperationCreate,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateEvent(ctx, request, sc)
		})

	updateTool := mcp.NewTool("calendar_update_event",
		mcp.WithDescription("Update fields of an existing event; omitted fields are left unchanged"),
		sessionArg(),
		mcp.WithString("event_id",
			mcp.Required(),
			mcp.Description("ID of the event to update"),
		),
		mcp.WithString("summary",
			mcp.Description("New event title"),
		),
		mcp.WithString("start",
			mcp.Description("New start time (RFC 3339)"),
		),
		mcp.WithString("end",
			mcp.Description("New end time (RFC 3339)"),
		),
		mcp.WithString("description",
			mcp.Description("New description"),
		),
		mcp.WithString("location",
			mcp.Description("New location"),
		),
		mcp.WithString("time_zone",
			mcp.Description("IANA time zone for the event times"),
		),
		mcp.WithString("attendees",
			mcp.Description("Attendee email address(es), comma-separated"),
		),
		mcp.WithString("color_id",
			mcp.Description("Color ID from calendar_list_colors"),
		),
	)
	addInstrumentedTool(s, sc, updateTool, instrumentation.OperationUpdate,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateEvent(ctx, request, sc)
		})

	deleteTool := mcp.NewTool("calendar_delete_event",
		mcp.WithDescription("Delete an event from the primary calendar"),
		sessionArg(),
		mcp.WithString("event_id",
			mcp.Required(),
			mcp.Description("ID of the event to delete"),
		),
	)
	addInstrumentedTool(s, sc, deleteTool, instrumentation.OperationDelete,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteEvent(ctx, request, sc)
		})
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	timeMin, err := parseTimeArg(args, "time_min")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeMax, err := parseTimeArg(args, "time_max")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	maxResults := int64(0)
	if maxVal, ok := args["max_results"].(float64); ok {
		maxResults = int64(maxVal)
	}
	query := ""
	if queryVal, ok := args["query"].(string); ok {
		query = queryVal
	}

	client, result := calendarClientForSession(ctx, sc, request)
	if result != nil {
		return result, nil
	}

	events, err := client.ListEvents(timeMin, timeMax, maxResults, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list events: %v", err)), nil
	}

	return jsonResult(struct {
		Events []calendar.EventSummary `json:"events"`
	}{Events: events})
}

func handleSearchEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("'query' field is required"), nil
	}

	timeMin, err := parseTimeArg(args, "time_min")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeMax, err := parseTimeArg(args, "time_max")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	maxResults := int64(0)
	if maxVal, ok := args["max_results"].(float64); ok {
		maxResults = int64(maxVal)
	}

	client, result := calendarClientForSession(ctx, sc, request)
	if result != nil {
		return result, nil
	}

	events, err := client.SearchEvents(query, timeMin, timeMax, maxResults)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search events: %v", err)), nil
	}

	return jsonResult(struct {
		Query  string                  `json:"query"`
		Events []calendar.EventSummary `json:"events"`
	}{Query: query, Events: events})
}

func handleListColors(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, result := calendarClientForSession(ctx, sc, request)
	if result != nil {
		return result, nil
	}

	colors, err := client.ListColors()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list colors: %v", err)), nil
	}

	return jsonResult(struct {
		Colors []calendar.ColorInfo `json:"colors"`
	}{Colors: colors})
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	summary, ok := args["summary"].(string)
	if !ok || summary == "" {
		return mcp.NewToolResultError("'summary' field is required"), nil
	}

	input, errResult := eventInputFromArgs(args)
	if errResult != nil {
		return errResult, nil
	}
	input.Summary = summary

	if input.Start.IsZero() || input.End.IsZero() {
		return mcp.NewToolResultError("'start' and 'end' fields are required"), nil
	}

	client, result := calendarClientForSession(ctx, sc, request)
	if result != nil {
		return result, nil
	}

	event, err := client.CreateEvent(input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create event: %v", err)), nil
	}

	return jsonResult(event)
}

func handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID, ok := args["event_id"].(string)
	if !ok || eventID == "" {
		return mcp.NewToolResultError("'event_id' field is required"), nil
	}

	input, errResult := eventInputFromArgs(args)
	if errResult != nil {
		return errResult, nil
	}
	if summary, ok := args["summary"].(string); ok {
		input.Summary = summary
	}

	client, result := calendarClientForSession(ctx, sc, request)
	if result != nil {
		return result, nil
	}

	event, err := client.UpdateEvent(eventID, input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update event: %v", err)), nil
	}

	return jsonResult(event)
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID, ok := args["event_id"].(string)
	if !ok || eventID == "" {
		return mcp.NewToolResultError("'event_id' field is required"), nil
	}

	client, result := calendarClientForSession(ctx, sc, request)
	if result != nil {
		return result, nil
	}

	if err := client.DeleteEvent(eventID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete event: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Event %s deleted", eventID)), nil
}

// eventInputFromArgs builds an EventInput from the optional event fields.
// The second return value is an error result for malformed times.
func eventInputFromArgs(args map[string]interface{}) (*calendar.EventInput, *mcp.CallToolResult) {
	input := &calendar.EventInput{}

	start, err := parseTimeArg(args, "start")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	end, err := parseTimeArg(args, "end")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	input.Start = start
	input.End = end

	if description, ok := args["description"].(string); ok {
		input.Description = description
	}
	if location, ok := args["location"].(string); ok {
		input.Location = location
	}
	if timeZone, ok := args["time_zone"].(string); ok {
		input.TimeZone = timeZone
	}
	if colorID, ok := args["color_id"].(string); ok {
		input.ColorID = colorID
	}
	if attendees, ok := args["attendees"].(string); ok && attendees != "" {
		for _, email := range strings.Split(attendees, ",") {
			if trimmed := strings.TrimSpace(email); trimmed != "" {
				input.Attendees = append(input.Attendees, trimmed)
			}
		}
	}
	if recurrence, ok := args["recurrence"].(string); ok && recurrence != "" {
		input.Recurrence = []string{recurrence}
	}

	return input, nil
}

// jsonResult marshals v into an indented JSON tool result.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
