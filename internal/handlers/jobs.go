package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// GetJob returns the status snapshot for an indexing job.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	info, err := h.coord.GetJob(id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, info)
}
