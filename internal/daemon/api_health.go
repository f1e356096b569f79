package daemon

import (
	"net/http"
	"os"

	"statusd/internal/types"
)

const rootMessage = "statusd running"

func (a *API) Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, types.InfoResponse{Message: rootMessage})
}

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	subscribers := 0
	if a.Broadcaster != nil {
		subscribers = a.Broadcaster.Count()
	}
	writeJSON(w, http.StatusOK, types.HealthResponse{
		OK:          true,
		Version:     a.Version,
		PID:         os.Getpid(),
		Subscribers: subscribers,
	})
}

func (a *API) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if a.Broadcaster == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "broadcaster not available"})
		return
	}
	sample, sampled := a.Broadcaster.Snapshot()
	snapshot := types.StatusSnapshot{Sampled: sampled}
	if sampled {
		label := sample.Label
		snapshot.Status = &label
		snapshot.CPUTemperature = sample.Temperature
	}
	writeJSON(w, http.StatusOK, snapshot)
}
