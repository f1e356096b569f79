package types

// Power command tokens accepted by POST /command.
const (
	CommandShutdown = "shutdown"
	CommandSleep    = "sleep"
)

type CommandRequest struct {
	Command string `json:"command"`
}

type CommandResponse struct {
	Result string `json:"result"`
}

type InfoResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	OK          bool   `json:"ok"`
	Version     string `json:"version"`
	PID         int    `json:"pid"`
	Subscribers int    `json:"subscribers"`
}
