package calendar

import (
	"context"
	"fmt"
	"sort"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/kiyora/google-mcp/internal/auth"
)

// DefaultMaxResults is used when a listing call does not specify a limit.
const DefaultMaxResults = 10

// primaryCalendar is the calendar all operations act on.
const primaryCalendar = "primary"

// Client wraps the Google Calendar service for one resolved authorization
// session.
type Client struct {
	svc *calendar.Service
}

// NewClient creates a Calendar client from resolved session credentials.
func NewClient(ctx context.Context, creds *auth.Credentials) (*Client, error) {
	if creds == nil {
		return nil, fmt.Errorf("credentials cannot be nil")
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(creds.HTTPClient(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{svc: svc}, nil
}

// ListEvents lists events on the primary calendar within a time range,
// ordered by start time with recurring events expanded. A zero timeMax
// leaves the range open-ended; query optionally restricts results by free
// text.
func (c *Client) ListEvents(timeMin, timeMax time.Time, maxResults int64, query string) ([]EventSummary, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if timeMin.IsZero() {
		timeMin = time.Now().UTC()
	}

	call := c.svc.Events.List(primaryCalendar).
		TimeMin(timeMin.Format(time.RFC3339)).
		MaxResults(maxResults).
		SingleEvents(true).
		OrderBy("startTime")

	if !timeMax.IsZero() {
		call = call.TimeMax(timeMax.Format(time.RFC3339))
	}
	if query != "" {
		call = call.Q(query)
	}

	events, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	summaries := make([]EventSummary, 0, len(events.Items))
	for _, event := range events.Items {
		summaries = append(summaries, toEventSummary(event))
	}
	return summaries, nil
}

// SearchEvents searches the primary calendar by free text.
func (c *Client) SearchEvents(query string, timeMin, timeMax time.Time, maxResults int64) ([]EventSummary, error) {
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	return c.ListEvents(timeMin, timeMax, maxResults, query)
}

// GetEvent retrieves a single event by ID.
func (c *Client) GetEvent(eventID string) (*EventSummary, error) {
	event, err := c.svc.Events.Get(primaryCalendar, eventID).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", eventID, err)
	}

	summary := toEventSummary(event)
	return &summary, nil
}

// CreateEvent creates an event on the primary calendar.
func (c *Client) CreateEvent(input *EventInput) (*EventSummary, error) {
	if input == nil || input.Summary == "" {
		return nil, fmt.Errorf("event summary is required")
	}
	if input.Start.IsZero() || input.End.IsZero() {
		return nil, fmt.Errorf("event start and end times are required")
	}

	event, err := c.svc.Events.Insert(primaryCalendar, toEvent(input)).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	summary := toEventSummary(event)
	return &summary, nil
}

// UpdateEvent applies the non-empty fields of input to an existing event.
func (c *Client) UpdateEvent(eventID string, input *EventInput) (*EventSummary, error) {
	if eventID == "" {
		return nil, fmt.Errorf("event ID is required")
	}
	if input == nil {
		return nil, fmt.Errorf("event input is required")
	}

	event, err := c.svc.Events.Patch(primaryCalendar, eventID, toEvent(input)).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update event %s: %w", eventID, err)
	}

	summary := toEventSummary(event)
	return &summary, nil
}

// DeleteEvent removes an event from the primary calendar.
func (c *Client) DeleteEvent(eventID string) error {
	if eventID == "" {
		return fmt.Errorf("event ID is required")
	}
	if err := c.svc.Events.Delete(primaryCalendar, eventID).Do(); err != nil {
		return fmt.Errorf("failed to delete event %s: %w", eventID, err)
	}
	return nil
}

// ListColors returns the event color palette, sorted by color ID.
func (c *Client) ListColors() ([]ColorInfo, error) {
	colors, err := c.svc.Colors.Get().Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list colors: %w", err)
	}

	infos := make([]ColorInfo, 0, len(colors.Event))
	for id, def := range colors.Event {
		infos = append(infos, ColorInfo{
			ID:         id,
			Background: def.Background,
			Foreground: def.Foreground,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}
