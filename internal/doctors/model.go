// Package doctors exposes the clinic's doctor directory.
package doctors

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no doctor matches the given id.
var ErrNotFound = errors.New("doctors: not found")

// Doctor is a practitioner who can hold appointments.
type Doctor struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"fullName"`
	Specialty string    `json:"specialty"`
	Email     *string   `json:"email,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ScheduleStats summarizes a doctor's appointment load over a date range.
type ScheduleStats struct {
	DoctorID uuid.UUID      `json:"doctorId"`
	From     string         `json:"from"`
	To       string         `json:"to"`
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
	ByType   map[string]int `json:"byType"`
}
