package main

import (
	"io"
	"os"
)

type commandRunner interface {
	Run(args []string) error
}

type commandWiring struct {
	stdout                io.Writer
	stderr                io.Writer
	newClient             clientFactory
	runDaemon             func(background bool) error
	killDaemon            func() error
	runWatchUI            watchUIRunner
	configureWatchLogging func() (io.Writer, func())
	version               string
}

func defaultCommandWiring(stdout, stderr io.Writer) commandWiring {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return commandWiring{
		stdout:    stdout,
		stderr:    stderr,
		newClient: newStatusClient,
		runDaemon: runDaemonProcess,
		killDaemon: func() error {
			return killDaemonWithFactory(newStatusClient)
		},
		runWatchUI:            runWatchUI,
		configureWatchLogging: configureWatchLogging,
		version:               buildVersion(),
	}
}

func buildCommands(wiring commandWiring) map[string]commandRunner {
	return map[string]commandRunner{
		"daemon": NewDaemonCommand(wiring.stderr, wiring.runDaemon, wiring.killDaemon),
		"status": NewStatusCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"watch":  NewWatchCommand(wiring.stdout, wiring.stderr, wiring.newClient, wiring.runWatchUI, wiring.configureWatchLogging, wiring.version),
		"power":  NewPowerCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"config": NewConfigCommand(wiring.stdout, wiring.stderr),
	}
}
