package patients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when no patient matches the given id.
var ErrNotFound = errors.New("patients: not found")

// ErrDuplicateEmail is returned when another patient already uses the email.
var ErrDuplicateEmail = errors.New("patients: email already registered")

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides persistence for patients.
type Store struct {
	db DB
}

// NewStore creates a patient store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

const patientColumns = `id, first_name, last_name, email, phone, birth_date, created_at, updated_at`

// Create inserts a new patient.
func (s *Store) Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	var birthDate *time.Time
	if req.BirthDate != nil && *req.BirthDate != "" {
		d, _ := time.Parse(time.DateOnly, *req.BirthDate)
		birthDate = &d
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO patients (id, first_name, last_name, email, phone, birth_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+patientColumns,
		id, req.FirstName, req.LastName, req.Email, req.Phone, birthDate,
	)
	p, err := scanPatient(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("patients: insert: %w", err)
	}
	return p, nil
}

// GetByID fetches one patient.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := s.db.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	p, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("patients: get: %w", err)
	}
	return p, nil
}

// Update applies a partial update and returns the stored record.
func (s *Store) Update(ctx context.Context, id uuid.UUID, req *UpdatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var birthDate *time.Time
	if req.BirthDate != nil && *req.BirthDate != "" {
		d, _ := time.Parse(time.DateOnly, *req.BirthDate)
		birthDate = &d
	}

	row := s.db.QueryRow(ctx, `
		UPDATE patients SET
			first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			email = COALESCE($4, email),
			phone = COALESCE($5, phone),
			birth_date = COALESCE($6, birth_date),
			updated_at = now()
		WHERE id = $1
		RETURNING `+patientColumns,
		id, req.FirstName, req.LastName, req.Email, req.Phone, birthDate,
	)
	p, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("patients: update: %w", err)
	}
	return p, nil
}

// Delete removes a patient. Appointments cascade at the schema level.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("patients: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns patients ordered by last name, paginated.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Patient, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+patientColumns+` FROM patients
		ORDER BY last_name ASC, first_name ASC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("patients: list: %w", err)
	}
	defer rows.Close()
	var out []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("patients: list scan: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("patients: list rows: %w", err)
	}
	return out, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.Email,
		&p.Phone,
		&p.BirthDate,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
