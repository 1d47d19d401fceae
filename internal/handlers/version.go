package handlers

import (
	"net/http"

	"simfinder/internal/startup"
)

// GetVersion reports the build stamped into the binary at link time.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, startup.GetBuildInfo())
}
