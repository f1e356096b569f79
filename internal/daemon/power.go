package daemon

import (
	"context"
	"fmt"
	"os/exec"

	"statusd/internal/logging"
	"statusd/internal/types"
)

// PowerController carries out host power commands. Start must not wait for
// the action to finish.
type PowerController interface {
	Start(ctx context.Context, command string) error
}

var powerCommandArgs = map[string][]string{
	types.CommandShutdown: {"systemctl", "poweroff"},
	types.CommandSleep:    {"systemctl", "suspend"},
}

// knownPowerCommand reports whether command maps to a host action.
func knownPowerCommand(command string) bool {
	_, ok := powerCommandArgs[command]
	return ok
}

// SystemctlPower starts systemctl and reaps it in the background.
type SystemctlPower struct {
	logger  logging.Logger
	command func(name string, args ...string) *exec.Cmd
}

func NewSystemctlPower(logger logging.Logger) *SystemctlPower {
	if logger == nil {
		logger = logging.Nop()
	}
	return &SystemctlPower{logger: logger, command: exec.Command}
}

func (p *SystemctlPower) Start(_ context.Context, command string) error {
	args, ok := powerCommandArgs[command]
	if !ok {
		return fmt.Errorf("unknown power command %q", command)
	}
	// Not tied to the request context: the action must outlive the request.
	cmd := p.command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", args[0], err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			p.logger.Warn("power_command_failed",
				logging.F("command", command),
				logging.F("error", err),
			)
			return
		}
		p.logger.Info("power_command_finished", logging.F("command", command))
	}()
	return nil
}
