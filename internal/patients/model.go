package patients

import (
	"errors"
	"net/mail"
	"time"

	"github.com/google/uuid"
)

// Patient is a clinic patient record.
type Patient struct {
	ID        uuid.UUID  `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     *string    `json:"email,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	BirthDate *time.Time `json:"birthDate,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CreatePatientRequest is the POST /patients payload.
type CreatePatientRequest struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	BirthDate *string `json:"birthDate"`
}

// Validate checks required fields and formats.
func (r *CreatePatientRequest) Validate() error {
	if r.FirstName == "" {
		return errors.New("firstName is required")
	}
	if r.LastName == "" {
		return errors.New("lastName is required")
	}
	if r.Email != nil && *r.Email != "" {
		if _, err := mail.ParseAddress(*r.Email); err != nil {
			return errors.New("email is not valid")
		}
	}
	if r.BirthDate != nil && *r.BirthDate != "" {
		if _, err := time.Parse(time.DateOnly, *r.BirthDate); err != nil {
			return errors.New("birthDate must be YYYY-MM-DD")
		}
	}
	return nil
}

// UpdatePatientRequest is the PUT /patients/{id} payload; absent fields are
// left unchanged.
type UpdatePatientRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	BirthDate *string `json:"birthDate"`
}

// Validate checks formats on the provided fields.
func (r *UpdatePatientRequest) Validate() error {
	if r.FirstName != nil && *r.FirstName == "" {
		return errors.New("firstName cannot be empty")
	}
	if r.LastName != nil && *r.LastName == "" {
		return errors.New("lastName cannot be empty")
	}
	if r.Email != nil && *r.Email != "" {
		if _, err := mail.ParseAddress(*r.Email); err != nil {
			return errors.New("email is not valid")
		}
	}
	if r.BirthDate != nil && *r.BirthDate != "" {
		if _, err := time.Parse(time.DateOnly, *r.BirthDate); err != nil {
			return errors.New("birthDate must be YYYY-MM-DD")
		}
	}
	return nil
}
