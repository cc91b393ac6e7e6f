// Package httputil provides the shared JSON error envelope used by the
// router's 404 and 405 handlers. The query façade writes its debug view
// and its 400 responses itself.
package httputil

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code. If
// encoding fails, the error is logged; headers and status have
// already been sent, so nothing else can be done about it.
func WriteJSON(w http.ResponseWriter, logger *zap.Logger, status int, v any) {
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		if logger != nil {
			logger.Error("httputil: json encoding failed after headers sent", zap.Error(err))
		}
	}
}

// JSONError writes a structured JSON error with an error code and message.
func JSONError(w http.ResponseWriter, logger *zap.Logger, status int, code, message string) {
	WriteJSON(w, logger, status, ErrorResponse{Error: code, Message: message})
}
