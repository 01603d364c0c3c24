// Package respond writes JSON responses and maps application errors onto
// HTTP status codes.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ayush/car-catalog/backend/internal/apperror"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
	}
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"message": msg})
}

// Error writes err as {"error": ...}. Internal errors are logged with the
// request method and path and reported to the client generically.
func Error(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, body := apperror.ToResponse(err)
	if status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "err", err)
	}
	JSON(w, status, body)
}
