package daemon

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"statusd/internal/logging"
	"statusd/internal/types"
)

const maxCommandBodyBytes = 4 << 10

// Command relays a power command to the host. The reply is always
// {"result":"ok"}: unknown tokens and unreadable bodies are ignored and
// launch failures are only logged.
func (a *API) Command(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	logger := a.logger()

	var req types.CommandRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxCommandBodyBytes)).Decode(&req); err != nil {
		logger.Debug("command_ignored", logging.F("reason", "invalid_body"), logging.F("error", err))
		a.Metrics.ObserveCommand("", "ignored")
		writeJSON(w, http.StatusOK, types.CommandResponse{Result: "ok"})
		return
	}

	switch {
	case !knownPowerCommand(req.Command):
		logger.Info("command_ignored", logging.F("command", req.Command), logging.F("reason", "unknown_command"))
		a.Metrics.ObserveCommand("unknown", "ignored")
	case a.Power == nil:
		logger.Warn("command_failed", logging.F("command", req.Command), logging.F("error", "power controller not configured"))
		a.Metrics.ObserveCommand(req.Command, "failed")
	default:
		if err := a.Power.Start(context.Background(), req.Command); err != nil {
			logger.Warn("command_failed", logging.F("command", req.Command), logging.F("error", err))
			a.Metrics.ObserveCommand(req.Command, "failed")
			break
		}
		logger.Info("command_started", logging.F("command", req.Command))
		a.Metrics.ObserveCommand(req.Command, "started")
	}
	writeJSON(w, http.StatusOK, types.CommandResponse{Result: "ok"})
}
