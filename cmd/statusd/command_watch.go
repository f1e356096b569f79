package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"statusd/internal/config"
	"statusd/internal/logging"
	"statusd/internal/types"
	"statusd/internal/watch"
)

type watchUIRunner func(ctx context.Context, updates <-chan types.StatusUpdate, stop func(), source string, logger logging.Logger) error

type WatchCommand struct {
	stdout                io.Writer
	stderr                io.Writer
	newClient             clientFactory
	runUI                 watchUIRunner
	configureWatchLogging func() (io.Writer, func())
	version               string
}

func NewWatchCommand(stdout, stderr io.Writer, newClient clientFactory, runUI watchUIRunner, configureWatchLogging func() (io.Writer, func()), version string) *WatchCommand {
	return &WatchCommand{
		stdout:                stdout,
		stderr:                stderr,
		newClient:             newClient,
		runUI:                 runUI,
		configureWatchLogging: configureWatchLogging,
		version:               version,
	}
}

func (c *WatchCommand) Run(args []string) error {
	fs := newFlagSet("watch", c.stderr)
	ui := fs.Bool("ui", false, "open the terminal view instead of printing JSON lines")
	sse := fs.Bool("sse", false, "subscribe over server-sent events instead of WebSocket")
	restartDaemon := fs.Bool("restart-daemon", false, "restart daemon if version mismatch")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := c.newClient()
	if err != nil {
		return err
	}
	if err := client.EnsureDaemonVersion(ctx, c.version, *restartDaemon); err != nil {
		return err
	}
	subscribe := client.Watch
	if *sse {
		subscribe = client.EventStream
	}
	updates, stop, err := subscribe(ctx)
	if err != nil {
		return err
	}
	defer stop()

	if *ui {
		logOut, closeLog := io.Writer(io.Discard), func() {}
		if c.configureWatchLogging != nil {
			logOut, closeLog = c.configureWatchLogging()
		}
		defer closeLog()
		logger := logging.New(logOut, logging.Info)
		return c.runUI(ctx, updates, stop, watchSource(client.BaseURL()), logger)
	}
	return c.printUpdates(ctx, updates)
}

// printUpdates writes one JSON object per update until the stream ends.
func (c *WatchCommand) printUpdates(ctx context.Context, updates <-chan types.StatusUpdate) error {
	encoder := json.NewEncoder(c.stdout)
	for update := range updates {
		if err := encoder.Encode(update); err != nil {
			return err
		}
	}
	if ctx.Err() == nil {
		fmt.Fprintln(c.stderr, "watch: stream closed")
	}
	return nil
}

func watchSource(baseURL string) string {
	source := strings.TrimPrefix(baseURL, "http://")
	return strings.TrimPrefix(source, "https://")
}

func runWatchUI(ctx context.Context, updates <-chan types.StatusUpdate, stop func(), source string, logger logging.Logger) error {
	model := watch.NewModel(updates, stop, source, watch.WithLogger(logger))
	return watch.Run(ctx, model)
}

// configureWatchLogging sends terminal view logs to a file so they do not
// corrupt the screen.
func configureWatchLogging() (io.Writer, func()) {
	file, err := openLogFile(config.WatchLogPath)
	if err != nil {
		return io.Discard, func() {}
	}
	return file, func() { _ = file.Close() }
}
