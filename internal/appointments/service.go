package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinovahq/clinic-platform/internal/calendar"
	"github.com/clinovahq/clinic-platform/internal/observability/metrics"
	"github.com/clinovahq/clinic-platform/internal/slotlock"
	"github.com/clinovahq/clinic-platform/pkg/logging"
)

// Repository is the store surface the orchestrator needs. *Store implements it.
type Repository interface {
	Create(ctx context.Context, in CreateInput) (*Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateInput) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, filter ListFilter) ([]Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, filter ListFilter) ([]Appointment, error)
	IsAvailable(ctx context.Context, doctorID uuid.UUID, date time.Time, timeOfDay string, excludeID *uuid.UUID) (bool, error)
	BookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)
	SetCalendarLink(ctx context.Context, id uuid.UUID, eventID string, meetLink *string) error
}

var _ Repository = (*Store)(nil)

// CalendarSync mirrors appointments onto the external calendar.
type CalendarSync interface {
	CreateEvent(ctx context.Context, in calendar.EventInput) (*calendar.Event, error)
	UpdateEvent(ctx context.Context, eventID string, in calendar.EventInput) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// Notifier dispatches transactional patient emails. Failures are best-effort
// for every operation; the service logs them and moves on.
type Notifier interface {
	SendConfirmation(ctx context.Context, appt *Appointment) error
	SendCancellation(ctx context.Context, appt *Appointment, reason string) error
}

// ServiceConfig carries scheduling policy.
type ServiceConfig struct {
	Grid         Grid
	Timezone     *time.Location
	TimezoneName string
}

// Service orchestrates appointment create/update/delete across the store,
// the external calendar and the notification mailer.
type Service struct {
	repo     Repository
	cal      CalendarSync
	notifier Notifier
	locker   slotlock.Locker
	grid     Grid
	loc      *time.Location
	tzName   string
	metrics  *metrics.SchedulingMetrics
	logger   *logging.Logger
}

// NewService creates the orchestrator. cal and notifier may be nil (sync and
// notifications are skipped); locker may be nil (the database constraint
// alone rejects double bookings).
func NewService(repo Repository, cal CalendarSync, notifier Notifier, locker slotlock.Locker, m *metrics.SchedulingMetrics, cfg ServiceConfig, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if locker == nil {
		locker = slotlock.NopLocker{}
	}
	if cfg.Grid.IntervalMins == 0 {
		cfg.Grid = DefaultGrid()
	}
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}
	if cfg.TimezoneName == "" {
		cfg.TimezoneName = cfg.Timezone.String()
	}
	return &Service{
		repo:     repo,
		cal:      cal,
		notifier: notifier,
		locker:   locker,
		grid:     cfg.Grid,
		loc:      cfg.Timezone,
		tzName:   cfg.TimezoneName,
		metrics:  m,
		logger:   logger,
	}
}

// Get returns one hydrated appointment.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByPatient returns a patient's appointments, newest first.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, filter ListFilter) ([]Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID, filter)
}

// ListByDoctor returns a doctor's appointments, earliest first.
func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, filter ListFilter) ([]Appointment, error) {
	return s.repo.ListByDoctor(ctx, doctorID, filter)
}

// AvailableSlots returns the free times on the working-hours grid for one
// doctor and date.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	booked, err := s.repo.BookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	return s.grid.Available(booked), nil
}

// IsAvailable reports whether a slot is free of non-cancelled appointments.
func (s *Service) IsAvailable(ctx context.Context, doctorID uuid.UUID, date time.Time, timeOfDay string) (bool, error) {
	return s.repo.IsAvailable(ctx, doctorID, date, timeOfDay, nil)
}

// Create books a new appointment. The availability check and the insert run
// under a per-slot lock; a lost race still surfaces as ErrSchedulingConflict
// through the store's unique index. Calendar sync and the confirmation email
// run after the write: the record is authoritative, a calendar failure is
// logged and leaves the calendar fields empty.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Appointment, error) {
	var appt *Appointment
	key := slotlock.Key(in.DoctorID, in.Date, in.TimeOfDay)
	err := s.locker.WithLock(ctx, key, func(ctx context.Context) error {
		free, err := s.repo.IsAvailable(ctx, in.DoctorID, in.Date, in.TimeOfDay, nil)
		if err != nil {
			return err
		}
		if !free {
			return ErrSchedulingConflict
		}
		appt, err = s.repo.Create(ctx, in)
		return err
	})
	if err != nil {
		if errors.Is(err, slotlock.ErrNotAcquired) {
			err = ErrSchedulingConflict
		}
		if errors.Is(err, ErrSchedulingConflict) {
			s.metrics.ObserveConflict()
		}
		return nil, err
	}
	s.metrics.ObserveCreated(string(appt.Type))
	s.logger.Info("appointment created", "appointment_id", appt.ID, "doctor_id", appt.DoctorID, "date", appt.Date.Format(time.DateOnly), "time", appt.TimeOfDay)

	s.syncCalendarCreate(ctx, appt)
	s.notifyConfirmation(ctx, appt)
	return appt, nil
}

// Update applies a partial update. A date/time change re-validates
// availability against the effective new slot, excluding the appointment
// itself so moving to its own slot never self-conflicts. Calendar and email
// side effects are best-effort.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Appointment, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	statusChanged := in.Status != nil && *in.Status != existing.Status
	if statusChanged && existing.Status.Terminal() {
		return nil, ErrTerminalStatus
	}

	newDate := existing.Date
	if in.Date != nil {
		newDate = *in.Date
	}
	newTime := existing.TimeOfDay
	if in.TimeOfDay != nil {
		newTime = *in.TimeOfDay
	}
	slotChanged := !sameDay(newDate, existing.Date) || newTime != existing.TimeOfDay

	if slotChanged {
		key := slotlock.Key(existing.DoctorID, newDate, newTime)
		err = s.locker.WithLock(ctx, key, func(ctx context.Context) error {
			free, err := s.repo.IsAvailable(ctx, existing.DoctorID, newDate, newTime, &id)
			if err != nil {
				return err
			}
			if !free {
				return ErrSchedulingConflict
			}
			return s.repo.Update(ctx, id, in)
		})
	} else {
		err = s.repo.Update(ctx, id, in)
	}
	if err != nil {
		if errors.Is(err, slotlock.ErrNotAcquired) {
			err = ErrSchedulingConflict
		}
		if errors.Is(err, ErrSchedulingConflict) {
			s.metrics.ObserveConflict()
		}
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.syncCalendarUpdate(ctx, existing, updated)

	if statusChanged {
		if *in.Status == StatusCancelled {
			s.notifyCancellation(ctx, updated, in.CancelReason)
		} else {
			s.notifyConfirmation(ctx, updated)
		}
	}
	return updated, nil
}

// Delete removes an appointment. The external event delete is best-effort:
// the store record goes away even when the calendar call fails.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if appt.CalendarEventID != nil && s.cal != nil {
		if err := s.cal.DeleteEvent(ctx, *appt.CalendarEventID); err != nil {
			s.metrics.ObserveCalendarFailure("delete")
			s.logger.Error("calendar event delete failed, removing appointment anyway",
				"appointment_id", appt.ID, "event_id", *appt.CalendarEventID, "error", err)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("appointment deleted", "appointment_id", id)

	s.notifyCancellation(ctx, appt, "")
	return nil
}

// MarkAttended is the status shortcut: no availability re-check, no
// notification, no calendar change.
func (s *Service) MarkAttended(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status.Terminal() && existing.Status != StatusAttended {
		return nil, ErrTerminalStatus
	}
	status := StatusAttended
	if err := s.repo.Update(ctx, id, UpdateInput{Status: &status}); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) syncCalendarCreate(ctx context.Context, appt *Appointment) {
	if s.cal == nil {
		return
	}
	ev, err := s.cal.CreateEvent(ctx, s.eventInput(appt))
	if err != nil {
		s.metrics.ObserveCalendarFailure("create")
		s.logger.Error("calendar sync failed on create, keeping appointment",
			"appointment_id", appt.ID, "error", err)
		return
	}
	var meet *string
	if ev.MeetLink != "" {
		meet = &ev.MeetLink
	}
	if err := s.repo.SetCalendarLink(ctx, appt.ID, ev.ID, meet); err != nil {
		s.logger.Error("failed to persist calendar link", "appointment_id", appt.ID, "event_id", ev.ID, "error", err)
		return
	}
	appt.CalendarEventID = &ev.ID
	appt.MeetLink = meet
}

func (s *Service) syncCalendarUpdate(ctx context.Context, existing, updated *Appointment) {
	if s.cal == nil || existing.CalendarEventID == nil {
		return
	}
	ev, err := s.cal.UpdateEvent(ctx, *existing.CalendarEventID, s.eventInput(updated))
	if err != nil {
		s.metrics.ObserveCalendarFailure("update")
		s.logger.Error("calendar sync failed on update",
			"appointment_id", updated.ID, "event_id", *existing.CalendarEventID, "error", err)
		return
	}
	var meet *string
	if ev.MeetLink != "" {
		meet = &ev.MeetLink
	}
	if !equalLink(meet, existing.MeetLink) {
		if err := s.repo.SetCalendarLink(ctx, updated.ID, ev.ID, meet); err != nil {
			s.logger.Error("failed to persist calendar link", "appointment_id", updated.ID, "event_id", ev.ID, "error", err)
			return
		}
	}
	updated.CalendarEventID = &ev.ID
	updated.MeetLink = meet
}

func (s *Service) eventInput(appt *Appointment) calendar.EventInput {
	start := appt.StartsAt(s.loc)
	description := fmt.Sprintf("Appointment with Dr. %s\nPatient: %s\nType: %s\nReason: %s",
		appt.DoctorName, appt.PatientDisplayName(), appt.Type, appt.Reason)
	if appt.Type == TypeVirtual {
		description += "\n\nThe Meet link will be sent by email."
	}
	var attendees []string
	if appt.DoctorEmail != nil && *appt.DoctorEmail != "" {
		attendees = append(attendees, *appt.DoctorEmail)
	}
	if appt.HasPatientEmail() {
		attendees = append(attendees, *appt.PatientEmail)
	}
	return calendar.EventInput{
		Summary:     "Medical appointment: " + appt.PatientDisplayName(),
		Description: description,
		Start:       start,
		End:         start.Add(30 * time.Minute),
		Timezone:    s.tzName,
		Attendees:   attendees,
		RequestMeet: appt.Type == TypeVirtual,
	}
}

func (s *Service) notifyConfirmation(ctx context.Context, appt *Appointment) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.SendConfirmation(ctx, appt)
	s.metrics.ObserveNotification("confirmation", err)
	if err != nil {
		s.logger.Error("confirmation email failed", "appointment_id", appt.ID, "error", err)
	}
}

func (s *Service) notifyCancellation(ctx context.Context, appt *Appointment, reason string) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.SendCancellation(ctx, appt, reason)
	s.metrics.ObserveNotification("cancellation", err)
	if err != nil {
		s.logger.Error("cancellation email failed", "appointment_id", appt.ID, "error", err)
	}
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func equalLink(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
