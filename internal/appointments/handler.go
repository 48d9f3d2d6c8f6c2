package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinovahq/clinic-platform/pkg/logging"
)

// Handler exposes the appointment API over HTTP.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new appointments handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger,
	}
}

// maxReasonLen bounds the free-text visit reason.
const maxReasonLen = 500

// CreateAppointmentRequest is the POST /appointments payload.
type CreateAppointmentRequest struct {
	DoctorID  string `json:"doctorId"`
	PatientID string `json:"patientId"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Type      string `json:"type"`
	Reason    string `json:"reason"`
}

// UpdateAppointmentRequest is the PUT /appointments/{id} payload. Absent
// fields keep their stored value.
type UpdateAppointmentRequest struct {
	Date         *string `json:"date"`
	Time         *string `json:"time"`
	Type         *string `json:"type"`
	Reason       *string `json:"reason"`
	Status       *string `json:"status"`
	CancelReason string  `json:"cancelReason"`
}

// Create handles POST /appointments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in, errs := req.validate()
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return
	}

	appt, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err, "failed to create appointment")
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// Get handles GET /appointments/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	appt, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "failed to load appointment")
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Update handles PUT /appointments/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req UpdateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in, errs := req.validate()
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return
	}

	appt, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		h.writeServiceError(w, err, "failed to update appointment")
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Delete handles DELETE /appointments/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err, "failed to delete appointment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "appointment deleted"})
}

// MarkAttended handles PATCH /appointments/{id}/mark-attended.
func (h *Handler) MarkAttended(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	appt, err := h.svc.MarkAttended(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "failed to mark appointment attended")
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// ListByPatient handles GET /appointments/patient/{patientID}.
func (h *Handler) ListByPatient(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid patient id")
		return
	}
	filter, errs := parseListFilter(r)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return
	}
	appts, err := h.svc.ListByPatient(r.Context(), patientID, filter)
	if err != nil {
		h.writeServiceError(w, err, "failed to list appointments")
		return
	}
	writeJSON(w, http.StatusOK, listResponse(appts))
}

// ListByDoctor handles GET /appointments/doctor/{doctorID}.
func (h *Handler) ListByDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid doctor id")
		return
	}
	filter, errs := parseListFilter(r)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return
	}
	appts, err := h.svc.ListByDoctor(r.Context(), doctorID, filter)
	if err != nil {
		h.writeServiceError(w, err, "failed to list appointments")
		return
	}
	writeJSON(w, http.StatusOK, listResponse(appts))
}

// CheckAvailability handles GET /appointments/availability.
func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	doctorID, err := uuid.Parse(q.Get("doctorId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid doctorId")
		return
	}
	date, err := time.Parse(time.DateOnly, q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	timeOfDay := q.Get("time")
	if !ValidTimeOfDay(timeOfDay) {
		writeError(w, http.StatusBadRequest, "invalid time, expected HH:MM")
		return
	}

	available, err := h.svc.IsAvailable(r.Context(), doctorID, date, timeOfDay)
	if err != nil {
		h.writeServiceError(w, err, "failed to check availability")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}

// AvailableSlots handles GET /appointments/available-slots/{doctorID}/{date}
// and the query-param form GET /appointments/slots?doctorId&date.
func (h *Handler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	doctorParam := chi.URLParam(r, "doctorID")
	if doctorParam == "" {
		doctorParam = q.Get("doctorId")
	}
	doctorID, err := uuid.Parse(doctorParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid doctor id")
		return
	}
	dateParam := chi.URLParam(r, "date")
	if dateParam == "" {
		dateParam = q.Get("date")
	}
	date, err := time.Parse(time.DateOnly, dateParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	slots, err := h.svc.AvailableSlots(r.Context(), doctorID, date)
	if err != nil {
		h.writeServiceError(w, err, "failed to compute slots")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":  date.Format(time.DateOnly),
		"slots": slots,
	})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrSchedulingConflict):
		writeError(w, http.StatusBadRequest, "the doctor already has an appointment at that date and time")
	case errors.Is(err, ErrDoctorNotFound):
		writeError(w, http.StatusBadRequest, "doctor does not exist")
	case errors.Is(err, ErrPatientNotFound):
		writeError(w, http.StatusBadRequest, "patient does not exist")
	case errors.Is(err, ErrTerminalStatus):
		writeError(w, http.StatusBadRequest, "appointment is already attended or cancelled")
	default:
		h.logger.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, msg)
	}
}

func (r *CreateAppointmentRequest) validate() (CreateInput, []string) {
	var errs []string
	var in CreateInput

	doctorID, err := uuid.Parse(r.DoctorID)
	if err != nil {
		errs = append(errs, "doctorId must be a valid id")
	}
	patientID, err := uuid.Parse(r.PatientID)
	if err != nil {
		errs = append(errs, "patientId must be a valid id")
	}
	date, err := time.Parse(time.DateOnly, r.Date)
	if err != nil {
		errs = append(errs, "date must be YYYY-MM-DD")
	}
	if !ValidTimeOfDay(r.Time) {
		errs = append(errs, "time must be HH:MM")
	}
	if !Type(r.Type).Valid() {
		errs = append(errs, "type must be in-person or virtual")
	}
	if r.Reason == "" || len(r.Reason) > maxReasonLen {
		errs = append(errs, "reason must be between 1 and 500 characters")
	}
	if len(errs) > 0 {
		return in, errs
	}

	in = CreateInput{
		DoctorID:  doctorID,
		PatientID: patientID,
		Date:      date,
		TimeOfDay: r.Time,
		Type:      Type(r.Type),
		Reason:    r.Reason,
	}
	return in, nil
}

func (r *UpdateAppointmentRequest) validate() (UpdateInput, []string) {
	var errs []string
	var in UpdateInput

	if r.Date != nil {
		date, err := time.Parse(time.DateOnly, *r.Date)
		if err != nil {
			errs = append(errs, "date must be YYYY-MM-DD")
		} else {
			in.Date = &date
		}
	}
	if r.Time != nil {
		if !ValidTimeOfDay(*r.Time) {
			errs = append(errs, "time must be HH:MM")
		} else {
			in.TimeOfDay = r.Time
		}
	}
	if r.Type != nil {
		t := Type(*r.Type)
		if !t.Valid() {
			errs = append(errs, "type must be in-person or virtual")
		} else {
			in.Type = &t
		}
	}
	if r.Status != nil {
		s := Status(*r.Status)
		if !s.Valid() {
			errs = append(errs, "status is not valid")
		} else {
			in.Status = &s
		}
	}
	if r.Reason != nil {
		if *r.Reason == "" || len(*r.Reason) > maxReasonLen {
			errs = append(errs, "reason must be between 1 and 500 characters")
		} else {
			in.Reason = r.Reason
		}
	}
	in.CancelReason = r.CancelReason
	return in, errs
}

// parseListFilter reads status/type/fromDate/toDate query params. The legacy
// param names estado, tipo_cita, from and to are accepted as aliases.
func parseListFilter(r *http.Request) (ListFilter, []string) {
	var filter ListFilter
	var errs []string
	q := r.URL.Query()

	statusParam := q.Get("status")
	if statusParam == "" {
		statusParam = q.Get("estado")
	}
	if statusParam != "" {
		s := Status(statusParam)
		if !s.Valid() {
			errs = append(errs, "status is not valid")
		} else {
			filter.Status = &s
		}
	}

	typeParam := q.Get("type")
	if typeParam == "" {
		typeParam = q.Get("tipo_cita")
	}
	if typeParam != "" {
		t := Type(typeParam)
		if !t.Valid() {
			errs = append(errs, "type must be in-person or virtual")
		} else {
			filter.Type = &t
		}
	}

	from := q.Get("fromDate")
	if from == "" {
		from = q.Get("from")
	}
	if from != "" {
		d, err := time.Parse(time.DateOnly, from)
		if err != nil {
			errs = append(errs, "fromDate must be YYYY-MM-DD")
		} else {
			filter.FromDate = &d
		}
	}
	to := q.Get("toDate")
	if to == "" {
		to = q.Get("to")
	}
	if to != "" {
		d, err := time.Parse(time.DateOnly, to)
		if err != nil {
			errs = append(errs, "toDate must be YYYY-MM-DD")
		} else {
			filter.ToDate = &d
		}
	}
	return filter, errs
}

func listResponse(appts []Appointment) map[string]any {
	if appts == nil {
		appts = []Appointment{}
	}
	return map[string]any{
		"appointments": appts,
		"count":        len(appts),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
