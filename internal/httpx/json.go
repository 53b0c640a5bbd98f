package httpx

import (
	"encoding/json"
	"net/http"
	"time"
)

// Every response shares one envelope: data on success, error on failure, a
// server timestamp either way. Handlers never write raw bodies, so clients
// can always unwrap the same shape.
type envelope struct {
	Data  any    `json:"data,omitempty"`
	Time  string `json:"time"`
	Error any    `json:"error,omitempty"`
}

// WriteJSON wraps v in the success envelope.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	write(w, status, envelope{Data: v})
}

// WriteError wraps errBody in the error envelope.
func WriteError[T any](w http.ResponseWriter, status int, errBody ErrorResponse[T]) {
	write(w, status, envelope{Error: errBody})
}

func write(w http.ResponseWriter, status int, body envelope) {
	body.Time = time.Now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	// Responses may carry tokens or principal data; keep them out of caches.
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
