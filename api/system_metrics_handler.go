package api

import (
	"encoding/json"
	"net/http"
)

// SnapshotHandler serves the latest snapshot as JSON.
type SnapshotHandler struct {
	recorder *Recorder
}

func NewSnapshotHandler(recorder *Recorder) *SnapshotHandler {
	return &SnapshotHandler{
		recorder: recorder,
	}
}

func (sh *SnapshotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := sh.recorder.Latest()
	if snapshot == nil {
		http.Error(w, "no snapshot collected yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, snapshot)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
