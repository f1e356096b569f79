package main

import (
	"fmt"
	"os"
)

const usageText = `statusd reports host activity and CPU temperature to subscribers.

Usage:
  statusd <command> [flags]

Commands:
  daemon   run the status daemon
  status   print the daemon's last-known status
  watch    stream status updates (JSON lines or terminal view)
  power    ask the daemon to shut down or suspend the host
  config   print configuration (effective or defaults)
  help     show help

Flags:
  -h, --help   show help

Daemon flags:
  --background    run in background (logs to file)
  --force         stop any running daemon before starting
  --kill          stop any running daemon and exit

Watch flags:
  --ui              open the terminal view
  --sse             subscribe over server-sent events
  --restart-daemon  restart the daemon if its version differs

Examples:
  statusd daemon --background
  statusd status --format markdown
  statusd watch --ui
  statusd power sleep
  statusd config --defaults --format toml
`

func printUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		return
	}

	wiring := defaultCommandWiring(os.Stdout, os.Stderr)
	commands := buildCommands(wiring)

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return
	}

	runner, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
	exitOnErr(args[0], runner.Run(args[1:]), wiring.stderr)
}
