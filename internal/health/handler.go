package health

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type statusResponse struct {
	Status string `json:"status"`
}

type Handler struct {
	checker *Checker
}

func NewHandler(checker *Checker) *Handler {
	return &Handler{checker: checker}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	return r
}

// Health is the liveness endpoint: 200 as soon as the process serves
// requests, regardless of downstream dependency state.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	if !h.checker.Live() {
		writeStatus(w, http.StatusServiceUnavailable, "unhealthy")
		return
	}
	writeStatus(w, http.StatusOK, "ok")
}

// Ready is the readiness endpoint: 200 only when every dependency probe
// passed the last round.
func (h *Handler) Ready(w http.ResponseWriter, _ *http.Request) {
	if !h.checker.Ready() {
		writeStatus(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	writeStatus(w, http.StatusOK, "ready")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(statusResponse{Status: status})
}
