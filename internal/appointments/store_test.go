package appointments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hydratedRowColumns() []string {
	return []string{
		"id", "doctor_id", "patient_id", "date", "time_of_day", "type", "reason", "status",
		"calendar_event_id", "meet_link", "reminder_sent", "created_at", "updated_at",
		"full_name", "d_email", "first_name", "last_name", "p_email", "phone",
	}
}

func hydratedRow(mock pgxmock.PgxPoolIface, id uuid.UUID) *pgxmock.Rows {
	now := time.Now()
	email := "ana@example.com"
	return mock.NewRows(hydratedRowColumns()).AddRow(
		id, uuid.New(), uuid.New(),
		time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC), "10:30",
		"in-person", "Annual checkup", "scheduled",
		nil, nil, false, now, now,
		"Gregory House", nil, "Ana", "Lopez", &email, nil,
	)
}

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewStore(mock), mock
}

func TestStoreCreate(t *testing.T) {
	store, mock := newMockStore(t)
	in := testCreateInput()

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), in.DoctorID, in.PatientID, in.Date, in.TimeOfDay, "in-person", in.Reason, "scheduled").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("FROM appointments a").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(hydratedRow(mock, uuid.New()))

	appt, err := store.Create(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, StatusScheduled, appt.Status)
	assert.Equal(t, "Gregory House", appt.DoctorName)
	assert.Equal(t, "Ana Lopez", appt.PatientDisplayName())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreCreateSlotConflict(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "appointments_slot_unique"})

	_, err := store.Create(context.Background(), testCreateInput())
	require.ErrorIs(t, err, ErrSchedulingConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreCreateUnknownDoctor(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "appointments_doctor_id_fkey"})

	_, err := store.Create(context.Background(), testCreateInput())
	require.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestStoreCreateUnknownPatient(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "appointments_patient_id_fkey"})

	_, err := store.Create(context.Background(), testCreateInput())
	require.ErrorIs(t, err, ErrPatientNotFound)
}

func TestStoreGetByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery("FROM appointments a").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := store.GetByID(context.Background(), id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreUpdate(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()
	newTime := "11:00"

	mock.ExpectExec("UPDATE appointments SET").
		WithArgs(id, pgxmock.AnyArg(), &newTime, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := store.Update(context.Background(), id, UpdateInput{TimeOfDay: &newTime})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreUpdateNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE appointments SET").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.Update(context.Background(), id, UpdateInput{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreUpdateSlotConflict(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE appointments SET").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "appointments_slot_unique"})

	err := store.Update(context.Background(), uuid.New(), UpdateInput{})
	require.ErrorIs(t, err, ErrSchedulingConflict)
}

func TestStoreDelete(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM appointments").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, store.Delete(context.Background(), id))
}

func TestStoreDeleteNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM appointments").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.ErrorIs(t, store.Delete(context.Background(), uuid.New()), ErrNotFound)
}

func TestStoreIsAvailable(t *testing.T) {
	store, mock := newMockStore(t)
	doctorID := uuid.New()
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT NOT EXISTS").
		WithArgs(doctorID, date, "10:30", pgxmock.AnyArg()).
		WillReturnRows(mock.NewRows([]string{"available"}).AddRow(true))

	free, err := store.IsAvailable(context.Background(), doctorID, date, "10:30", nil)
	require.NoError(t, err)
	assert.True(t, free)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreIsAvailableExcludesSelf(t *testing.T) {
	store, mock := newMockStore(t)
	doctorID := uuid.New()
	selfID := uuid.New()
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT NOT EXISTS").
		WithArgs(doctorID, date, "10:30", &selfID).
		WillReturnRows(mock.NewRows([]string{"available"}).AddRow(true))

	free, err := store.IsAvailable(context.Background(), doctorID, date, "10:30", &selfID)
	require.NoError(t, err)
	assert.True(t, free)
}

func TestStoreBookedTimes(t *testing.T) {
	store, mock := newMockStore(t)
	doctorID := uuid.New()
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT time_of_day FROM appointments").
		WithArgs(doctorID, date).
		WillReturnRows(mock.NewRows([]string{"time_of_day"}).AddRow("08:00").AddRow("09:30"))

	times, err := store.BookedTimes(context.Background(), doctorID, date)
	require.NoError(t, err)
	assert.Equal(t, []string{"08:00", "09:30"}, times)
}

func TestStoreMarkReminderSent(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE appointments SET reminder_sent = TRUE").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	marked, err := store.MarkReminderSent(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, marked)
}

func TestStoreMarkReminderSentAlreadySet(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE appointments SET reminder_sent = TRUE").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	marked, err := store.MarkReminderSent(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, marked)
}

func TestStoreListNeedingReminder(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("reminder_sent = FALSE").
		WithArgs(24).
		WillReturnRows(hydratedRow(mock, uuid.New()))

	due, err := store.ListNeedingReminder(context.Background(), 24)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.False(t, due[0].ReminderSent)
}

func TestStoreListByDoctorFilters(t *testing.T) {
	store, mock := newMockStore(t)
	doctorID := uuid.New()
	status := StatusScheduled
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM appointments a").
		WithArgs(doctorID, "scheduled", from).
		WillReturnRows(hydratedRow(mock, uuid.New()))

	appts, err := store.ListByDoctor(context.Background(), doctorID, ListFilter{
		Status:   &status,
		FromDate: &from,
	})
	require.NoError(t, err)
	require.Len(t, appts, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildListQueryArgOrder(t *testing.T) {
	ownerID := uuid.New()
	status := StatusCancelled
	typ := TypeVirtual
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)

	query, args := buildListQuery("a.patient_id", ownerID, ListFilter{
		Status:   &status,
		Type:     &typ,
		FromDate: &from,
		ToDate:   &to,
	}, "ORDER BY a.date DESC, a.time_of_day DESC")

	assert.Equal(t, []any{ownerID, "cancelled", "virtual", from, to}, args)
	assert.Contains(t, query, "a.status = $2")
	assert.Contains(t, query, "a.type = $3")
	assert.Contains(t, query, "a.date >= $4")
	assert.Contains(t, query, "a.date <= $5")
	assert.Contains(t, query, "ORDER BY a.date DESC")
}
