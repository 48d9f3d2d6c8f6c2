package assistant

import (
	"encoding/json"
	"net/http"

	"github.com/clinovahq/clinic-platform/pkg/logging"
)

// Handler exposes the assistant over HTTP.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new assistant handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// ChatRequest is the POST /assistant/chat payload.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// Chat handles POST /assistant/chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages is required")
		return
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != "user" || last.Content == "" {
		writeError(w, http.StatusBadRequest, "the last message must be a non-empty user message")
		return
	}

	answer, err := h.svc.Chat(r.Context(), req.Messages)
	if err != nil {
		h.logger.Error("assistant chat failed", "error", err)
		writeError(w, http.StatusBadGateway, "assistant is unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
