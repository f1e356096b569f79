package daemon

import "net/http"

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", a.Root)
	mux.HandleFunc("/health", a.Health)
	mux.HandleFunc("/ws", a.WebSocket)
	mux.HandleFunc("/command", a.Command)
	mux.HandleFunc("/v1/events", a.Events)
	mux.HandleFunc("/v1/status", a.Status)
	mux.HandleFunc("/v1/shutdown", a.ShutdownDaemon)
	if a.Metrics != nil {
		mux.Handle("/metrics", a.Metrics.Handler())
	}
}
