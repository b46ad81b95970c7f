package api

import (
	"net/http"

	"ChintuIdrive/host-health-watchdog/dto"
)

// ProcessMetricsHandler serves the top processes of the latest snapshot.
type ProcessMetricsHandler struct {
	recorder *Recorder
}

func NewProcessMetricsHandler(recorder *Recorder) *ProcessMetricsHandler {
	return &ProcessMetricsHandler{
		recorder: recorder,
	}
}

func (pmh *ProcessMetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	processes := []dto.ProcessStats{}
	if snapshot := pmh.recorder.Latest(); snapshot != nil && snapshot.TopProcesses != nil {
		processes = snapshot.TopProcesses
	}
	writeJSON(w, processes)
}
