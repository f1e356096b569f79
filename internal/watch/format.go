package watch

import (
	"fmt"
	"strings"
	"time"

	xansi "github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"statusd/internal/types"
)

const ellipsis = "…"

// FormatTemperature renders a temperature for display, "n/a" when absent.
func FormatTemperature(t *float64) string {
	if t == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f °C", *t)
}

// StatusText is the plain-text form copied to the clipboard.
func StatusText(s types.StatusSample) string {
	return fmt.Sprintf("%s (cpu %s)", s.Label, FormatTemperature(s.Temperature))
}

// historyLine describes one received update. Only fields present in the
// update are listed.
func historyLine(at time.Time, u types.StatusUpdate) string {
	parts := make([]string, 0, 2)
	if u.Status != nil {
		parts = append(parts, "status="+*u.Status)
	}
	if u.HasTemperature {
		parts = append(parts, "cpu="+FormatTemperature(u.Temperature))
	}
	if len(parts) == 0 {
		parts = append(parts, "(empty)")
	}
	return at.Format("15:04:05") + "  " + strings.Join(parts, "  ")
}

// truncateLabel shortens s to width terminal cells. Game names are often
// CJK, so widths are measured per rune.
func truncateLabel(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, ellipsis)
}

// padRight pads a styled line to width cells.
func padRight(s string, width int) string {
	gap := width - xansi.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}
