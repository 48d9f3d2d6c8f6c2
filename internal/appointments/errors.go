package appointments

import "errors"

var (
	// ErrNotFound is returned when no appointment exists for the given id.
	ErrNotFound = errors.New("appointments: appointment not found")

	// ErrSchedulingConflict is returned when the (doctor, date, time) slot
	// already holds a non-cancelled appointment. The store maps unique
	// constraint violations to this error so a lost check-then-act race is
	// still reported as a conflict, never as a generic failure.
	ErrSchedulingConflict = errors.New("appointments: slot is not available")

	// ErrDoctorNotFound and ErrPatientNotFound report dangling references on
	// create or update.
	ErrDoctorNotFound  = errors.New("appointments: doctor reference not found")
	ErrPatientNotFound = errors.New("appointments: patient reference not found")

	// ErrTerminalStatus rejects transitions out of attended or cancelled.
	ErrTerminalStatus = errors.New("appointments: appointment is in a terminal status")
)
