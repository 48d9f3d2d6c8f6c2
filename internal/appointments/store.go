package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides persistence for appointments. All reads return records
// hydrated with doctor and patient display fields.
type Store struct {
	db DB
}

// NewStore creates an appointment store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

const hydratedColumns = `
	a.id, a.doctor_id, a.patient_id, a.date, a.time_of_day, a.type, a.reason, a.status,
	a.calendar_event_id, a.meet_link, a.reminder_sent, a.created_at, a.updated_at,
	d.full_name, d.email, p.first_name, p.last_name, p.email, p.phone`

const hydratedFrom = `
	FROM appointments a
	JOIN doctors d ON d.id = a.doctor_id
	JOIN patients p ON p.id = a.patient_id`

// Create inserts a new appointment with status scheduled and returns it
// hydrated. A unique-index violation on the slot becomes
// ErrSchedulingConflict; dangling doctor or patient references become
// ErrDoctorNotFound / ErrPatientNotFound.
func (s *Store) Create(ctx context.Context, in CreateInput) (*Appointment, error) {
	id := uuid.New()
	_, err := s.db.Exec(ctx, `
		INSERT INTO appointments (id, doctor_id, patient_id, date, time_of_day, type, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, in.DoctorID, in.PatientID, in.Date, in.TimeOfDay, string(in.Type), in.Reason, string(StatusScheduled),
	)
	if err != nil {
		if mapped := mapConstraintError(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("appointments: insert: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches one hydrated appointment.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := s.db.QueryRow(ctx, `SELECT`+hydratedColumns+hydratedFrom+`
	WHERE a.id = $1`, id)
	return scanAppointment(row)
}

// Update applies a partial update; nil fields keep their current value.
// Returns ErrNotFound when no row matches the id.
func (s *Store) Update(ctx context.Context, id uuid.UUID, in UpdateInput) error {
	var typ, status *string
	if in.Type != nil {
		v := string(*in.Type)
		typ = &v
	}
	if in.Status != nil {
		v := string(*in.Status)
		status = &v
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE appointments SET
			date = COALESCE($2, date),
			time_of_day = COALESCE($3, time_of_day),
			type = COALESCE($4, type),
			reason = COALESCE($5, reason),
			status = COALESCE($6, status),
			calendar_event_id = COALESCE($7, calendar_event_id),
			meet_link = COALESCE($8, meet_link),
			updated_at = now()
		WHERE id = $1`,
		id, in.Date, in.TimeOfDay, typ, in.Reason, status, in.CalendarEventID, in.MeetLink,
	)
	if err != nil {
		if mapped := mapConstraintError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("appointments: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an appointment. Returns ErrNotFound when the id is unknown.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByPatient returns a patient's appointments, newest first.
func (s *Store) ListByPatient(ctx context.Context, patientID uuid.UUID, filter ListFilter) ([]Appointment, error) {
	query, args := buildListQuery("a.patient_id", patientID, filter, "ORDER BY a.date DESC, a.time_of_day DESC")
	return s.list(ctx, query, args)
}

// ListByDoctor returns a doctor's appointments, earliest first.
func (s *Store) ListByDoctor(ctx context.Context, doctorID uuid.UUID, filter ListFilter) ([]Appointment, error) {
	query, args := buildListQuery("a.doctor_id", doctorID, filter, "ORDER BY a.date ASC, a.time_of_day ASC")
	return s.list(ctx, query, args)
}

// ListNeedingReminder returns scheduled appointments starting within the next
// hoursAhead hours whose reminder has not been sent, soonest first.
func (s *Store) ListNeedingReminder(ctx context.Context, hoursAhead int) ([]Appointment, error) {
	query := `SELECT` + hydratedColumns + hydratedFrom + `
	WHERE a.status = 'scheduled'
	  AND a.reminder_sent = FALSE
	  AND (a.date + a.time_of_day::time) > now()
	  AND (a.date + a.time_of_day::time) <= now() + make_interval(hours => $1)
	ORDER BY a.date ASC, a.time_of_day ASC`
	return s.list(ctx, query, []any{hoursAhead})
}

// IsAvailable reports whether the (doctor, date, time) slot holds no
// non-cancelled appointment. excludeID skips one appointment so a reschedule
// to its own current slot never conflicts with itself.
func (s *Store) IsAvailable(ctx context.Context, doctorID uuid.UUID, date time.Time, timeOfDay string, excludeID *uuid.UUID) (bool, error) {
	var available bool
	err := s.db.QueryRow(ctx, `
		SELECT NOT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND date = $2 AND time_of_day = $3
			  AND status <> 'cancelled'
			  AND ($4::uuid IS NULL OR id <> $4)
		)`, doctorID, date, timeOfDay, excludeID).Scan(&available)
	if err != nil {
		return false, fmt.Errorf("appointments: check availability: %w", err)
	}
	return available, nil
}

// BookedTimes returns the non-cancelled appointment times for a doctor/date.
func (s *Store) BookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT time_of_day FROM appointments
		WHERE doctor_id = $1 AND date = $2 AND status <> 'cancelled'`, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: booked times: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("appointments: booked times scan: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: booked times rows: %w", err)
	}
	return out, nil
}

// SetCalendarLink persists the external calendar event id and meeting link.
func (s *Store) SetCalendarLink(ctx context.Context, id uuid.UUID, eventID string, meetLink *string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE appointments SET calendar_event_id = $2, meet_link = $3, updated_at = now()
		WHERE id = $1`, id, eventID, meetLink)
	if err != nil {
		return fmt.Errorf("appointments: set calendar link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkReminderSent flips the reminder flag exactly once. The conditional
// update touches only the flag column so it cannot clobber a concurrent
// reschedule. Returns false when the flag was already set or the row is gone.
func (s *Store) MarkReminderSent(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE appointments SET reminder_sent = TRUE, updated_at = now()
		WHERE id = $1 AND reminder_sent = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("appointments: mark reminder sent: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) list(ctx context.Context, query string, args []any) ([]Appointment, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()
	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: list rows: %w", err)
	}
	return out, nil
}

func buildListQuery(ownerColumn string, ownerID uuid.UUID, filter ListFilter, order string) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT` + hydratedColumns + hydratedFrom)
	b.WriteString("\n\tWHERE " + ownerColumn + " = $1")
	args := []any{ownerID}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		fmt.Fprintf(&b, " AND a.status = $%d", len(args))
	}
	if filter.Type != nil {
		args = append(args, string(*filter.Type))
		fmt.Fprintf(&b, " AND a.type = $%d", len(args))
	}
	if filter.FromDate != nil {
		args = append(args, *filter.FromDate)
		fmt.Fprintf(&b, " AND a.date >= $%d", len(args))
	}
	if filter.ToDate != nil {
		args = append(args, *filter.ToDate)
		fmt.Fprintf(&b, " AND a.date <= $%d", len(args))
	}
	b.WriteString("\n\t" + order)
	return b.String(), args
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var typ, status string
	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.PatientID,
		&a.Date,
		&a.TimeOfDay,
		&typ,
		&a.Reason,
		&status,
		&a.CalendarEventID,
		&a.MeetLink,
		&a.ReminderSent,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.DoctorName,
		&a.DoctorEmail,
		&a.PatientFirstName,
		&a.PatientLastName,
		&a.PatientEmail,
		&a.PatientPhone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: scan: %w", err)
	}
	a.Type = Type(typ)
	a.Status = Status(status)
	return &a, nil
}

// mapConstraintError translates Postgres constraint violations into domain
// errors; returns nil when err is not a recognized constraint failure.
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch pgErr.Code {
	case "23505": // unique_violation: the partial slot index
		return ErrSchedulingConflict
	case "23503": // foreign_key_violation
		if strings.Contains(pgErr.ConstraintName, "doctor") {
			return ErrDoctorNotFound
		}
		return ErrPatientNotFound
	}
	return nil
}
