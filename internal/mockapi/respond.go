// Package mockapi implements the backend the widget harness pages talk to.
// Every behavior here exists to produce server responses the e2e suite can
// assert UI reactions against: versioned settings with compare-and-swap
// conflicts, a token-bucket rate limiter, a catalog-sync operation guard,
// GDPR data-subject endpoints and cart/checkout simulation.
package mockapi

import (
	"encoding/json"
	"log"
	"net/http"
)

// ErrorResponse is the JSON envelope for all API errors. Message is always
// human-readable copy suitable for direct display; raw status codes and
// internal error strings never reach it.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON writes v as a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// writeError sends a JSON error response
func writeError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
