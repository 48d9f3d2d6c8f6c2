package doctors

import (
	"context"
	"errors"
	"fmt"
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

// Store provides read access to the doctor directory.
type Store struct {
	db DB
}

// NewStore creates a doctor store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

const doctorColumns = `id, full_name, specialty, email, active, created_at, updated_at`

// GetByID fetches one doctor.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := s.db.QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id)
	d, err := scanDoctor(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("doctors: get: %w", err)
	}
	return d, nil
}

// List returns active doctors, optionally filtered by specialty.
func (s *Store) List(ctx context.Context, specialty string) ([]Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE active = TRUE`
	args := []any{}
	if specialty != "" {
		args = append(args, specialty)
		query += ` AND specialty = $1`
	}
	query += ` ORDER BY full_name ASC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("doctors: list: %w", err)
	}
	defer rows.Close()
	var out []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("doctors: list scan: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("doctors: list rows: %w", err)
	}
	return out, nil
}

// Specialties returns the distinct specialties among active doctors.
func (s *Store) Specialties(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT specialty FROM doctors
		WHERE active = TRUE
		ORDER BY specialty ASC`)
	if err != nil {
		return nil, fmt.Errorf("doctors: specialties: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var sp string
		if err := rows.Scan(&sp); err != nil {
			return nil, fmt.Errorf("doctors: specialties scan: %w", err)
		}
		out = append(out, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("doctors: specialties rows: %w", err)
	}
	return out, nil
}

// Stats aggregates a doctor's appointments by status and type over the
// inclusive date range.
func (s *Store) Stats(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (*ScheduleStats, error) {
	rows, err := s.db.Query(ctx, `
		SELECT status, type, COUNT(*) FROM appointments
		WHERE doctor_id = $1 AND date >= $2 AND date <= $3
		GROUP BY status, type`, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("doctors: stats: %w", err)
	}
	defer rows.Close()

	stats := &ScheduleStats{
		DoctorID: doctorID,
		From:     from.Format(time.DateOnly),
		To:       to.Format(time.DateOnly),
		ByStatus: make(map[string]int),
		ByType:   make(map[string]int),
	}
	for rows.Next() {
		var status, typ string
		var count int
		if err := rows.Scan(&status, &typ, &count); err != nil {
			return nil, fmt.Errorf("doctors: stats scan: %w", err)
		}
		stats.ByStatus[status] += count
		stats.ByType[typ] += count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("doctors: stats rows: %w", err)
	}
	return stats, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(
		&d.ID,
		&d.FullName,
		&d.Specialty,
		&d.Email,
		&d.Active,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
