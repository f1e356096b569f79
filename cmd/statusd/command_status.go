package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"

	"statusd/internal/types"
	"statusd/internal/watch"
)

const (
	statusFormatText     = "text"
	statusFormatJSON     = "json"
	statusFormatMarkdown = "markdown"

	markdownWrapWidth = 80
)

type StatusCommand struct {
	stdout        io.Writer
	stderr        io.Writer
	newClient     clientFactory
	markdownStyle string
}

func NewStatusCommand(stdout, stderr io.Writer, newClient clientFactory) *StatusCommand {
	return &StatusCommand{
		stdout:        stdout,
		stderr:        stderr,
		newClient:     newClient,
		markdownStyle: styles.DarkStyle,
	}
}

func (c *StatusCommand) Run(args []string) error {
	fs := newFlagSet("status", c.stderr)
	format := fs.String("format", statusFormatText, "output format: text|json|markdown")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resolved, err := resolveStatusFormat(*format)
	if err != nil {
		return err
	}

	ctx := context.Background()
	client, err := c.newClient()
	if err != nil {
		return err
	}
	if err := client.EnsureDaemon(ctx); err != nil {
		return err
	}
	snapshot, err := client.Status(ctx)
	if err != nil {
		return err
	}

	switch resolved {
	case statusFormatJSON:
		encoder := json.NewEncoder(c.stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(snapshot)
	case statusFormatMarkdown:
		out, err := renderStatusMarkdown(snapshot, c.markdownStyle)
		if err != nil {
			return err
		}
		_, err = io.WriteString(c.stdout, out)
		return err
	default:
		_, err := io.WriteString(c.stdout, statusText(snapshot))
		return err
	}
}

func resolveStatusFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", statusFormatText:
		return statusFormatText, nil
	case statusFormatJSON:
		return statusFormatJSON, nil
	case statusFormatMarkdown, "md":
		return statusFormatMarkdown, nil
	default:
		return "", errors.New("invalid format: must be text, json, or markdown")
	}
}

func snapshotLabel(snapshot *types.StatusSnapshot) string {
	if snapshot == nil || snapshot.Status == nil {
		return "unknown (no sample yet)"
	}
	return *snapshot.Status
}

func snapshotTemperature(snapshot *types.StatusSnapshot) *float64 {
	if snapshot == nil {
		return nil
	}
	return snapshot.CPUTemperature
}

func statusText(snapshot *types.StatusSnapshot) string {
	return fmt.Sprintf("status: %s\ncpu:    %s\n", snapshotLabel(snapshot), watch.FormatTemperature(snapshotTemperature(snapshot)))
}

func statusMarkdown(snapshot *types.StatusSnapshot) string {
	var b strings.Builder
	b.WriteString("## Host status\n\n")
	fmt.Fprintf(&b, "- **Status:** %s\n", snapshotLabel(snapshot))
	fmt.Fprintf(&b, "- **CPU:** %s\n", watch.FormatTemperature(snapshotTemperature(snapshot)))
	return b.String()
}

func renderStatusMarkdown(snapshot *types.StatusSnapshot, style string) (string, error) {
	if style == "" {
		style = styles.DarkStyle
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(markdownWrapWidth),
	)
	if err != nil {
		return "", err
	}
	out, err := r.Render(statusMarkdown(snapshot))
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}
