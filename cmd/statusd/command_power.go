package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"statusd/internal/types"
)

type PowerCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewPowerCommand(stdout, stderr io.Writer, newClient clientFactory) *PowerCommand {
	return &PowerCommand{
		stdout:    stdout,
		stderr:    stderr,
		newClient: newClient,
	}
}

func (c *PowerCommand) Run(args []string) error {
	fs := newFlagSet("power", c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: statusd power <shutdown|sleep>")
	}
	command := strings.ToLower(strings.TrimSpace(fs.Arg(0)))
	switch command {
	case types.CommandShutdown, types.CommandSleep:
	default:
		return fmt.Errorf("unknown power command %q: must be shutdown or sleep", command)
	}

	ctx := context.Background()
	client, err := c.newClient()
	if err != nil {
		return err
	}
	if err := client.EnsureDaemon(ctx); err != nil {
		return err
	}
	resp, err := client.Command(ctx, command)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "%s: %s\n", command, resp.Result)
	return nil
}
