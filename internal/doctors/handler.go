package doctors

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinovahq/clinic-platform/pkg/logging"
)

// Handler exposes the doctor directory over HTTP.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates a new doctors handler.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// List handles GET /doctors.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context(), r.URL.Query().Get("specialty"))
	if err != nil {
		h.logger.Error("failed to list doctors", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list doctors")
		return
	}
	if list == nil {
		list = []Doctor{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doctors": list,
		"count":   len(list),
	})
}

// Get handles GET /doctors/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid doctor id")
		return
	}
	doctor, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "doctor not found")
			return
		}
		h.logger.Error("failed to load doctor", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load doctor")
		return
	}
	writeJSON(w, http.StatusOK, doctor)
}

// Specialties handles GET /doctors/specialties.
func (h *Handler) Specialties(w http.ResponseWriter, r *http.Request) {
	specialties, err := h.store.Specialties(r.Context())
	if err != nil {
		h.logger.Error("failed to list specialties", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list specialties")
		return
	}
	if specialties == nil {
		specialties = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"specialties": specialties})
}

// Stats handles GET /doctors/{id}/stats. Defaults to the last 30 days.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid doctor id")
		return
	}

	q := r.URL.Query()
	to := time.Now()
	from := to.AddDate(0, 0, -30)
	if v := q.Get("from"); v != "" {
		d, err := time.Parse(time.DateOnly, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		from = d
	}
	if v := q.Get("to"); v != "" {
		d, err := time.Parse(time.DateOnly, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		to = d
	}

	stats, err := h.store.Stats(r.Context(), id, from, to)
	if err != nil {
		h.logger.Error("failed to compute doctor stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
