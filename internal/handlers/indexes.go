package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"simfinder/internal/coordinator"
	"simfinder/internal/filesystem"
	"simfinder/internal/logging"
	"simfinder/internal/streaming"

	"github.com/gorilla/mux"
)

type createIndexRequest struct {
	Directory string `json:"directory"`
}

// CreateIndex registers (or re-opens) the index for a source directory.
func (h *Handlers) CreateIndex(w http.ResponseWriter, r *http.Request) {
	var req createIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Directory == "" {
		writeJSONError(w, "directory is required", http.StatusBadRequest)
		return
	}

	fi, err := filesystem.StatWithRetry(req.Directory, h.coord.RetryConfig())
	if err != nil {
		writeJSONError(w, "directory does not exist: "+req.Directory, http.StatusBadRequest)
		return
	}
	if !fi.IsDir() {
		writeJSONError(w, "not a directory: "+req.Directory, http.StatusBadRequest)
		return
	}

	info, err := h.coord.CreateIndex(r.Context(), req.Directory)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, info)
}

// ListIndexes returns every registered index with its source directory
// and record count.
func (h *Handlers) ListIndexes(w http.ResponseWriter, r *http.Request) {
	infos, err := h.coord.ListIndexes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, infos)
}

// DeleteIndex removes a store and its sidecar files.
func (h *Handlers) DeleteIndex(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.coord.DeleteIndex(name); err != nil {
		writeError(w, err)
		return
	}

	writeJSONStatus(w, "deleted")
}

// RunIndex starts an indexing job for a store. The default response is
// the job's initial snapshot; with ?stream=true the connection stays
// open and progress events are forwarded as NDJSON until the job ends.
func (h *Handlers) RunIndex(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	info, err := h.coord.StartIndex(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("stream") != "true" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		writeJSON(w, info)
		return
	}

	h.streamJob(w, r, info.ID)
}

// streamJob forwards a job's progress events as NDJSON, closing with a
// terminal done or error event derived from the finished job.
func (h *Handlers) streamJob(w http.ResponseWriter, r *http.Request, jobID string) {
	events, cancel, err := h.coord.SubscribeJob(jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	ew := streaming.NewEventWriter(r.Context(), w, streaming.DefaultEventWriterConfig())
	defer func() {
		if err := ew.Close(); err != nil {
			logging.Warn("Failed to close event writer: %v", err)
		}
	}()

	for ev := range events {
		if err := ew.WriteEvent(ev); err != nil {
			if errors.Is(err, streaming.ErrClientGone) {
				logging.Debug("Job %s stream: client disconnected", jobID)
			} else {
				logging.Warn("Job %s stream: %v", jobID, err)
			}
			return
		}
	}

	// The event channel closed, so the job is terminal. Send the final
	// event from its snapshot.
	info, err := h.coord.GetJob(jobID)
	if err != nil {
		logging.Warn("Job %s stream: lost job after completion: %v", jobID, err)
		return
	}
	if err := ew.WriteEvent(coordinator.TerminalEvent(info)); err != nil {
		logging.Debug("Job %s stream: terminal event not delivered: %v", jobID, err)
	}
}

type pruneResponse struct {
	Removed int64 `json:"removed"`
}

// PruneIndex removes records whose files no longer exist on disk.
func (h *Handlers) PruneIndex(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	removed, err := h.coord.Prune(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, pruneResponse{Removed: removed})
}
