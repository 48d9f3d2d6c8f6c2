// Package calendar is the thin translation boundary to the external calendar
// provider. It performs no local persistence.
package calendar

import (
	"context"
	"time"
)

// EventInput describes one calendar event to create or replace.
type EventInput struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Timezone    string
	Attendees   []string
	// RequestMeet asks the provider for a video-conferencing resource. Only
	// set for virtual appointments.
	RequestMeet bool
}

// Event is the provider's view of a created or updated event.
type Event struct {
	ID       string
	MeetLink string // empty when no conferencing resource exists
	ViewLink string
}

// Client mirrors an appointment's lifecycle onto an external calendar.
type Client interface {
	CreateEvent(ctx context.Context, in EventInput) (*Event, error)
	UpdateEvent(ctx context.Context, eventID string, in EventInput) (*Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}
