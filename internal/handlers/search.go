package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"simfinder/internal/search"

	"github.com/gorilla/mux"
)

type searchRequest struct {
	QueryPath string `json:"query_path"`
	// Threshold is a pointer so an explicit 0 (exact duplicates only)
	// is distinguishable from an absent field.
	Threshold *int `json:"threshold"`
}

type searchResponse struct {
	Count   int            `json:"count"`
	Matches []search.Match `json:"matches"`
}

// Search runs a similarity query against an index. The query image is
// fingerprinted on the fly; records whose files have disappeared are
// excluded from the results.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.QueryPath == "" {
		writeJSONError(w, "query_path is required", http.StatusBadRequest)
		return
	}

	threshold := search.DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if threshold < search.MinThreshold || threshold > search.MaxThreshold {
		msg := fmt.Sprintf("threshold must be between %d and %d", search.MinThreshold, search.MaxThreshold)
		writeJSONError(w, msg, http.StatusBadRequest)
		return
	}

	matches, err := h.coord.Search(r.Context(), name, req.QueryPath, threshold)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, searchResponse{Count: len(matches), Matches: matches})
}
