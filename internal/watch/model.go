// Package watch is a terminal live view of the daemon's status stream.
package watch

import (
	"context"
	"strings"
	"time"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"statusd/internal/logging"
	"statusd/internal/types"
)

const (
	maxHistoryLines = 500
	headerHeight    = 6
	footerHeight    = 2
	minBodyHeight   = 3
	defaultWidth    = 80
	defaultHeight   = 24
	statusTimeout   = 3 * time.Second
	statusChipWidth = 24
)

type updateMsg types.StatusUpdate

type streamClosedMsg struct{}

type clearStatusMsg struct {
	seq int
}

type Model struct {
	updates <-chan types.StatusUpdate
	stop    func()
	source  string
	logger  logging.Logger
	now     func() time.Time

	current   types.StatusSample
	known     bool
	connected bool
	received  int
	history   []string

	viewport viewport.Model
	width    int
	height   int

	statusText  string
	statusError bool
	statusSeq   int
}

type Option func(*Model)

func WithLogger(logger logging.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewModel reads updates until the channel closes. stop is called when the
// user quits; source names the daemon in the header.
func NewModel(updates <-chan types.StatusUpdate, stop func(), source string, opts ...Option) *Model {
	m := &Model{
		updates:   updates,
		stop:      stop,
		source:    source,
		logger:    logging.Nop(),
		now:       time.Now,
		connected: true,
		width:     defaultWidth,
		height:    defaultHeight,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	m.viewport = viewport.New(viewport.WithWidth(m.width), viewport.WithHeight(m.bodyHeight()))
	m.viewport.SetContent(m.historyContent())
	return m
}

// Run shows the view until the user quits or ctx is cancelled.
func Run(ctx context.Context, model *Model) error {
	p := tea.NewProgram(model, tea.WithContext(ctx))
	_, err := p.Run()
	if model.stop != nil {
		model.stop()
	}
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m *Model) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

func waitForUpdate(ch <-chan types.StatusUpdate) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return updateMsg(update)
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case updateMsg:
		m.applyUpdate(types.StatusUpdate(msg))
		return m, waitForUpdate(m.updates)
	case streamClosedMsg:
		m.connected = false
		m.logger.Info("watch_stream_closed", logging.F("received", m.received))
		return m, m.setStatus("stream closed", true)
	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.statusText = ""
			m.statusError = false
		}
		return m, nil
	case tea.KeyPressMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.stop != nil {
				m.stop()
			}
			return m, tea.Quit
		case "y":
			return m, m.copyStatus()
		case "c":
			m.history = nil
			m.viewport.SetContent(m.historyContent())
			return m, m.setStatus("history cleared", false)
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) applyUpdate(update types.StatusUpdate) {
	if !m.known {
		m.current = types.StatusSample{Label: types.IdleLabel}
	}
	m.current = m.current.Apply(update)
	m.known = true
	m.received++

	follow := m.viewport.AtBottom()
	m.history = append(m.history, historyLine(m.now(), update))
	if len(m.history) > maxHistoryLines {
		m.history = append([]string(nil), m.history[len(m.history)-maxHistoryLines:]...)
	}
	m.viewport.SetContent(m.historyContent())
	if follow {
		m.viewport.GotoBottom()
	}
	m.logger.Debug("watch_update",
		logging.F("status", m.current.Label),
		logging.F("cpu_temperature", FormatTemperature(m.current.Temperature)),
	)
}

func (m *Model) copyStatus() tea.Cmd {
	if !m.known {
		return m.setStatus("nothing to copy yet", true)
	}
	method, err := copyTextToClipboard(StatusText(m.current))
	if err != nil {
		m.logger.Warn("watch_copy_failed", logging.F("error", err))
		return m.setStatus("copy failed: "+err.Error(), true)
	}
	if method == clipboardMethodOSC52 {
		return m.setStatus("copied status (OSC52)", false)
	}
	return m.setStatus("copied status", false)
}

func (m *Model) setStatus(text string, isError bool) tea.Cmd {
	m.statusSeq++
	m.statusText = text
	m.statusError = isError
	seq := m.statusSeq
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

func (m *Model) resize(width, height int) {
	if width > 0 {
		m.width = width
	}
	if height > 0 {
		m.height = height
	}
	m.viewport.SetWidth(max(1, m.width))
	m.viewport.SetHeight(m.bodyHeight())
}

func (m *Model) bodyHeight() int {
	return max(minBodyHeight, m.height-headerHeight-footerHeight)
}

func (m *Model) historyContent() string {
	if len(m.history) == 0 {
		return helpStyle.Render("Waiting for updates...")
	}
	return strings.Join(m.history, "\n")
}

func (m *Model) View() tea.View {
	view := tea.NewView(m.render())
	view.AltScreen = true
	return view
}

func (m *Model) render() string {
	lines := make([]string, 0, 8)
	title := headerStyle.Render("statusd")
	if m.source != "" {
		title += labelStyle.Render("  " + m.source)
	}
	if !m.connected {
		title += disconnectedStyle.Render("  (disconnected)")
	}
	lines = append(lines, title)
	lines = append(lines, cardStyle.Render(m.renderCard()))
	lines = append(lines, dividerStyle.Render(strings.Repeat("─", max(1, m.width))))
	lines = append(lines, m.viewport.View())
	lines = append(lines, m.renderFooter())
	return strings.Join(lines, "\n")
}

func (m *Model) renderCard() string {
	labelWidth := max(8, m.width-16)
	if !m.known {
		return labelStyle.Render("Status ") + idleStyle.Render("waiting for first sample") + "\n" +
			labelStyle.Render("CPU    ") + idleStyle.Render("n/a")
	}
	statusLine := labelStyle.Render("Status ")
	label := truncateLabel(m.current.Label, labelWidth)
	if m.current.Label == types.IdleLabel {
		statusLine += idleStyle.Render(label)
	} else {
		statusLine += activityStyle.Render(label)
	}
	return statusLine + "\n" + labelStyle.Render("CPU    ") + temperatureStyleFor(m.current.Temperature).Render(FormatTemperature(m.current.Temperature))
}

func (m *Model) renderFooter() string {
	help := helpStyle.Render("q quit  y copy  c clear  ↑/↓ scroll")
	if m.statusText == "" {
		return help
	}
	style := statusInfoStyle
	if m.statusError {
		style = statusErrorStyle
	}
	return padRight(style.Render(" "+m.statusText+" "), statusChipWidth) + "  " + help
}

func temperatureStyleFor(t *float64) lipgloss.Style {
	switch {
	case t == nil:
		return idleStyle
	case *t >= hotThreshold:
		return hotStyle
	case *t >= warmThreshold:
		return warmStyle
	default:
		return temperatureStyle
	}
}

// Current returns the merged status and whether any update arrived.
func (m *Model) Current() (types.StatusSample, bool) {
	return m.current, m.known
}
