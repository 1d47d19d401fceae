package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"simfinder/internal/coordinator"
	"simfinder/internal/errs"
	"simfinder/internal/logging"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": status})
}

// writeError maps the error taxonomy onto HTTP status codes: missing
// indexes and jobs are 404, an unreadable query image is 422, writer and
// generation conflicts are 409, store failures are 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errs.IsNotFound(err):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errs.IsDecode(err):
		writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, coordinator.ErrIndexRunning), errors.Is(err, coordinator.ErrSuperseded):
		writeJSONError(w, err.Error(), http.StatusConflict)
	case errs.IsStore(err):
		logging.Error("store failure: %v", err)
		writeJSONError(w, "internal store error", http.StatusInternalServerError)
	default:
		logging.Error("request failed: %v", err)
		writeJSONError(w, "internal error", http.StatusInternalServerError)
	}
}
