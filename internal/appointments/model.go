package appointments

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Type distinguishes how the encounter takes place.
type Type string

const (
	TypeInPerson Type = "in-person"
	TypeVirtual  Type = "virtual"
)

// Valid reports whether t is a known appointment type.
func (t Type) Valid() bool {
	return t == TypeInPerson || t == TypeVirtual
}

// Status models the appointment lifecycle. Attended and cancelled are terminal.
type Status string

const (
	StatusScheduled           Status = "scheduled"
	StatusAttended            Status = "attended"
	StatusCancelled           Status = "cancelled"
	StatusRescheduled         Status = "rescheduled"
	StatusPendingConfirmation Status = "pending-confirmation"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusAttended, StatusCancelled, StatusRescheduled, StatusPendingConfirmation:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed out of s.
func (s Status) Terminal() bool {
	return s == StatusAttended || s == StatusCancelled
}

var timeOfDayRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidTimeOfDay reports whether v is a zero-padded HH:MM string.
func ValidTimeOfDay(v string) bool {
	return timeOfDayRe.MatchString(v)
}

// Appointment is a scheduled encounter between one doctor and one patient.
// Doctor and patient display fields are denormalized via the store join.
type Appointment struct {
	ID              uuid.UUID `json:"id"`
	DoctorID        uuid.UUID `json:"doctorId"`
	PatientID       uuid.UUID `json:"patientId"`
	Date            time.Time `json:"date"`
	TimeOfDay       string    `json:"time"`
	Type            Type      `json:"type"`
	Reason          string    `json:"reason"`
	Status          Status    `json:"status"`
	CalendarEventID *string   `json:"calendarEventId"`
	MeetLink        *string   `json:"meetLink"`
	ReminderSent    bool      `json:"reminderSent"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	DoctorName       string  `json:"doctorName"`
	DoctorEmail      *string `json:"doctorEmail,omitempty"`
	PatientFirstName string  `json:"patientFirstName"`
	PatientLastName  string  `json:"patientLastName"`
	PatientEmail     *string `json:"patientEmail,omitempty"`
	PatientPhone     *string `json:"patientPhone,omitempty"`
}

// StartsAt combines the calendar date and time-of-day into a wall-clock instant
// in the given location.
func (a *Appointment) StartsAt(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	var hour, min int
	fmt.Sscanf(a.TimeOfDay, "%d:%d", &hour, &min)
	return time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), hour, min, 0, 0, loc)
}

// PatientDisplayName returns "First Last" for notification bodies.
func (a *Appointment) PatientDisplayName() string {
	return a.PatientFirstName + " " + a.PatientLastName
}

// HasPatientEmail reports whether a notification can be addressed at all.
func (a *Appointment) HasPatientEmail() bool {
	return a.PatientEmail != nil && *a.PatientEmail != ""
}

// CreateInput carries a validated create request into the store.
type CreateInput struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Date      time.Time
	TimeOfDay string
	Type      Type
	Reason    string
}

// UpdateInput carries a partial update; nil fields are left unchanged
// (COALESCE semantics in the store).
type UpdateInput struct {
	Date            *time.Time
	TimeOfDay       *string
	Type            *Type
	Reason          *string
	Status          *Status
	CancelReason    string
	CalendarEventID *string
	MeetLink        *string
}

// ListFilter narrows patient/doctor listings.
type ListFilter struct {
	Status   *Status
	Type     *Type
	FromDate *time.Time
	ToDate   *time.Time
}
