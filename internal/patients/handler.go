package patients

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinovahq/clinic-platform/pkg/logging"
)

// Handler exposes the patient API over HTTP.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates a new patients handler.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Create handles POST /patients.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	patient, err := h.store.Create(r.Context(), &req)
	if err != nil {
		h.writeStoreError(w, err, "failed to create patient")
		return
	}
	h.logger.Info("patient created", "patient_id", patient.ID)
	writeJSON(w, http.StatusCreated, patient)
}

// Get handles GET /patients/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	patient, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "failed to load patient")
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

// Update handles PUT /patients/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req UpdatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	patient, err := h.store.Update(r.Context(), id, &req)
	if err != nil {
		h.writeStoreError(w, err, "failed to update patient")
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

// Delete handles DELETE /patients/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.writeStoreError(w, err, "failed to delete patient")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "patient deleted"})
}

// List handles GET /patients.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	list, err := h.store.List(r.Context(), limit, offset)
	if err != nil {
		h.writeStoreError(w, err, "failed to list patients")
		return
	}
	if list == nil {
		list = []Patient{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"patients": list,
		"count":    len(list),
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid patient id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "patient not found")
	case errors.Is(err, ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "email already registered")
	default:
		h.logger.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, msg)
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
