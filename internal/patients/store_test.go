package patients

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

func patientColumnsList() []string {
	return []string{"id", "first_name", "last_name", "email", "phone", "birth_date", "created_at", "updated_at"}
}

func patientRow(mock pgxmock.PgxPoolIface, id uuid.UUID) *pgxmock.Rows {
	now := time.Now()
	email := "ana@example.com"
	return mock.NewRows(patientColumnsList()).
		AddRow(id, "Ana", "Lopez", &email, nil, nil, now, now)
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
	email := "ana@example.com"

	mock.ExpectQuery("INSERT INTO patients").
		WithArgs(pgxmock.AnyArg(), "Ana", "Lopez", &email, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(patientRow(mock, uuid.New()))

	p, err := store.Create(context.Background(), &CreatePatientRequest{
		FirstName: "Ana",
		LastName:  "Lopez",
		Email:     &email,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.FirstName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreCreateValidation(t *testing.T) {
	store, _ := newMockStore(t)

	_, err := store.Create(context.Background(), &CreatePatientRequest{LastName: "Lopez"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "firstName")
}

func TestStoreCreateDuplicateEmail(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO patients").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "patients_email_unique"})

	_, err := store.Create(context.Background(), &CreatePatientRequest{
		FirstName: "Ana",
		LastName:  "Lopez",
	})
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestStoreGetByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM patients").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := store.GetByID(context.Background(), id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreUpdate(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()
	phone := "+51999888777"

	mock.ExpectQuery("UPDATE patients SET").
		WithArgs(id, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), &phone, pgxmock.AnyArg()).
		WillReturnRows(patientRow(mock, id))

	p, err := store.Update(context.Background(), id, &UpdatePatientRequest{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
}

func TestStoreUpdateNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("UPDATE patients SET").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	_, err := store.Update(context.Background(), uuid.New(), &UpdatePatientRequest{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreDelete(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM patients").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, store.Delete(context.Background(), id))
}

func TestStoreDeleteNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM patients").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.ErrorIs(t, store.Delete(context.Background(), uuid.New()), ErrNotFound)
}

func TestStoreList(t *testing.T) {
	store, mock := newMockStore(t)

	rows := patientRow(mock, uuid.New())
	mock.ExpectQuery("FROM patients").
		WithArgs(50, 0).
		WillReturnRows(rows)

	list, err := store.List(context.Background(), 50, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
