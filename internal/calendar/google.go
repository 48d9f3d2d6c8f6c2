package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/clinovahq/clinic-platform/pkg/logging"
)

// GoogleConfig holds configuration for the Google Calendar client.
type GoogleConfig struct {
	CredentialsFile string
	CalendarID      string
}

// GoogleClient implements Client against the Google Calendar API.
type GoogleClient struct {
	svc        *gcal.Service
	calendarID string
	logger     *logging.Logger
}

// NewGoogleClient creates a calendar client authenticated with a service
// account credentials file.
func NewGoogleClient(ctx context.Context, cfg GoogleConfig, logger *logging.Logger) (*GoogleClient, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.CalendarID == "" {
		cfg.CalendarID = "primary"
	}
	svc, err := gcal.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(gcal.CalendarScope, gcal.CalendarEventsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("calendar: create service: %w", err)
	}
	return &GoogleClient{svc: svc, calendarID: cfg.CalendarID, logger: logger}, nil
}

// CreateEvent inserts a calendar event and returns the provider ids. A meet
// link is present only when in.RequestMeet was set.
func (c *GoogleClient) CreateEvent(ctx context.Context, in EventInput) (*Event, error) {
	event := buildEvent(in)
	call := c.svc.Events.Insert(c.calendarID, event).
		SendUpdates("all").
		Context(ctx)
	if in.RequestMeet {
		call = call.ConferenceDataVersion(1)
	}
	created, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("calendar: insert event: %w", err)
	}
	c.logger.Info("calendar event created", "event_id", created.Id, "meet", created.HangoutLink != "")
	return &Event{ID: created.Id, MeetLink: created.HangoutLink, ViewLink: created.HtmlLink}, nil
}

// UpdateEvent replaces an event's details. An existing meet link is preserved
// by the provider; when the event lacks one and the appointment is virtual a
// new conferencing resource is requested.
func (c *GoogleClient) UpdateEvent(ctx context.Context, eventID string, in EventInput) (*Event, error) {
	event := buildEvent(in)

	if in.RequestMeet {
		existing, err := c.svc.Events.Get(c.calendarID, eventID).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("calendar: get event %s: %w", eventID, err)
		}
		if existing.HangoutLink != "" {
			// Keep the conference the attendees already have.
			event.ConferenceData = existing.ConferenceData
		}
	} else {
		event.ConferenceData = nil
	}

	call := c.svc.Events.Update(c.calendarID, eventID, event).
		SendUpdates("all").
		Context(ctx)
	if in.RequestMeet {
		call = call.ConferenceDataVersion(1)
	}
	updated, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("calendar: update event %s: %w", eventID, err)
	}
	return &Event{ID: updated.Id, MeetLink: updated.HangoutLink, ViewLink: updated.HtmlLink}, nil
}

// DeleteEvent removes the external event.
func (c *GoogleClient) DeleteEvent(ctx context.Context, eventID string) error {
	err := c.svc.Events.Delete(c.calendarID, eventID).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("calendar: delete event %s: %w", eventID, err)
	}
	return nil
}

func buildEvent(in EventInput) *gcal.Event {
	event := &gcal.Event{
		Summary:     in.Summary,
		Description: in.Description,
		Start: &gcal.EventDateTime{
			DateTime: in.Start.Format(time.RFC3339),
			TimeZone: in.Timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: in.End.Format(time.RFC3339),
			TimeZone: in.Timezone,
		},
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 30},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}
	for _, email := range in.Attendees {
		event.Attendees = append(event.Attendees, &gcal.EventAttendee{Email: email})
	}
	if in.RequestMeet {
		event.ConferenceData = &gcal.ConferenceData{
			CreateRequest: &gcal.CreateConferenceRequest{
				RequestId:             "meet-" + uuid.NewString(),
				ConferenceSolutionKey: &gcal.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		}
	}
	return event
}

var _ Client = (*GoogleClient)(nil)
