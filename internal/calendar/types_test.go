package calendar

import (
	"testing"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

func TestToEventSummary(t *testing.T) {
	event := &calendar.Event{
		Id:          "evt-1",
		Summary:     "Team Meeting",
		Description: "Weekly sync",
		Location:    "Room 4",
		Status:      "confirmed",
		ColorId:     "1",
		HtmlLink:    "https://calendar.google.com/event?eid=abc",
		Start:       &calendar.EventDateTime{DateTime: "2026-03-20T10:00:00Z"},
		End:         &calendar.EventDateTime{DateTime: "2026-03-20T11:00:00Z"},
		Attendees: []*calendar.EventAttendee{
			{Email: "alice@example.com", ResponseStatus: "accepted", Organizer: true},
			{Email: "bob@example.com", ResponseStatus: "needsAction", Optional: true},
		},
	}

	summary := toEventSummary(event)

	if summary.ID != "evt-1" || summary.Summary != "Team Meeting" {
		t.Errorf("id/summary = %q/%q", summary.ID, summary.Summary)
	}
	wantStart := time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC)
	if !summary.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", summary.Start, wantStart)
	}
	if summary.AllDay {
		t.Error("AllDay = true for a timed event")
	}
	if len(summary.Attendees) != 2 {
		t.Fatalf("Attendees = %d, want 2", len(summary.Attendees))
	}
	if !summary.Attendees[0].Organizer || summary.Attendees[0].Email != "alice@example.com" {
		t.Errorf("first attendee = %+v", summary.Attendees[0])
	}
	if !summary.Attendees[1].Optional {
		t.Errorf("second attendee = %+v", summary.Attendees[1])
	}
}

func TestToEventSummaryAllDay(t *testing.T) {
	event := &calendar.Event{
		Id:    "evt-2",
		Start: &calendar.EventDateTime{Date: "2026-03-21"},
		End:   &calendar.EventDateTime{Date: "2026-03-22"},
	}

	summary := toEventSummary(event)
	if !summary.AllDay {
		t.Error("AllDay = false for a date-only event")
	}
	want := time.Date(2026, 3, 21, 0, 0, 0, 0, time.UTC)
	if !summary.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", summary.Start, want)
	}
}

func TestParseEventTime(t *testing.T) {
	tests := []struct {
		name   string
		edt    *calendar.EventDateTime
		want   time.Time
		allDay bool
	}{
		{"nil boundary", nil, time.Time{}, false},
		{
			"timestamp",
			&calendar.EventDateTime{DateTime: "2026-01-02T15:04:05+01:00"},
			time.Date(2026, 1, 2, 15, 4, 5, 0, time.FixedZone("", 3600)),
			false,
		},
		{
			"date only",
			&calendar.EventDateTime{Date: "2026-01-02"},
			time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
			true,
		},
		{"malformed timestamp", &calendar.EventDateTime{DateTime: "yesterday"}, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, allDay := parseEventTime(tt.edt)
			if !got.Equal(tt.want) {
				t.Errorf("time = %v, want %v", got, tt.want)
			}
			if allDay != tt.allDay {
				t.Errorf("allDay = %v, want %v", allDay, tt.allDay)
			}
		})
	}
}

func TestToEvent(t *testing.T) {
	start := time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC)
	input := &EventInput{
		Summary:     "Planning",
		Description: "Q2 planning",
		Location:    "HQ",
		Start:       start,
		End:         start.Add(time.Hour),
		TimeZone:    "Europe/Berlin",
		Attendees:   []string{"alice@example.com", "", "bob@example.com"},
		ColorID:     "5",
		Recurrence:  []string{"RRULE:FREQ=WEEKLY;COUNT=5"},
	}

	event := toEvent(input)

	if event.Summary != "Planning" || event.ColorId != "5" {
		t.Errorf("summary/color = %q/%q", event.Summary, event.ColorId)
	}
	if event.Start == nil || event.Start.DateTime != "2026-03-20T10:00:00Z" {
		t.Errorf("Start = %+v", event.Start)
	}
	if event.Start.TimeZone != "Europe/Berlin" {
		t.Errorf("TimeZone = %q", event.Start.TimeZone)
	}
	if len(event.Attendees) != 2 {
		t.Fatalf("Attendees = %d, want 2 (empty email dropped)", len(event.Attendees))
	}
	if len(event.Recurrence) != 1 {
		t.Errorf("Recurrence = %v", event.Recurrence)
	}
}

func TestToEventOmitsZeroTimes(t *testing.T) {
	event := toEvent(&EventInput{Summary: "No times"})
	if event.Start != nil || event.End != nil {
		t.Errorf("start/end = %+v/%+v, want nil for zero times", event.Start, event.End)
	}
}
