package tracker

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"indoortrack/internal/config"
	"indoortrack/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// positionMsg carries a fresh position row.
type positionMsg struct{ telemetry.PositionRow }

// transitionMsg carries a zone transition log line.
type transitionMsg struct{ line string }

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

// methodColors maps estimation methods to ANSI colors for the log view.
var methodColors = map[string]string{
	"trilateration":    colorGreen,
	"weighted_average": colorYellow,
	"sensor_fusion":    colorCyan,
	"mmwave_only":      colorMagenta,
}

// TUIWriter renders live positions and zone transitions using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter(cfg *config.TrackingConfig) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	m := newTUIModel(cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Write implements PositionWriter.
func (w *TUIWriter) Write(row telemetry.PositionRow) error {
	w.program.Send(positionMsg{row})
	return nil
}

// WriteBatch outputs multiple position rows.
func (w *TUIWriter) WriteBatch(rows []telemetry.PositionRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteTransition implements TransitionWriter.
func (w *TUIWriter) WriteTransition(t telemetry.TransitionRow) error {
	eventColor := colorGreen
	if t.Event == "exited" {
		eventColor = colorRed
	}
	line := fmt.Sprintf("%s[%s]%s %s%s%s %sdevice=%s%s %szone=%s%s %sat=(%.2f,%.2f)%s",
		colorGray, t.Timestamp.Format(time.RFC3339), colorReset,
		eventColor, strings.ToUpper(t.Event), colorReset,
		colorBlue, t.DeviceID, colorReset,
		colorCyan, t.ZoneName, colorReset,
		colorGray, t.X, t.Y, colorReset)
	w.program.Send(transitionMsg{line: line})
	return nil
}

// WriteTransitions outputs multiple transition rows.
func (w *TUIWriter) WriteTransitions(rows []telemetry.TransitionRow) error {
	for _, t := range rows {
		_ = w.WriteTransition(t)
	}
	return nil
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	cfg          *config.TrackingConfig
	table        table.Model
	vp           viewport.Model
	latest       map[string]telemetry.PositionRow
	logs         []string
	wrap         bool
	autoscroll   bool
	help         bool
	header       string
	headerHeight int
	height       int
}

func newTUIModel(cfg *config.TrackingConfig) tuiModel {
	cols := []table.Column{
		{Title: "Device", Width: 24},
		{Title: "X", Width: 8},
		{Title: "Y", Width: 8},
		{Title: "Conf", Width: 6},
		{Title: "Sensors", Width: 8},
		{Title: "Method", Width: 18},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(8))
	vp := viewport.New(0, 0)
	return tuiModel{
		cfg:        cfg,
		table:      t,
		vp:         vp,
		latest:     make(map[string]telemetry.PositionRow),
		autoscroll: true,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.height = msg.Height
		m.header = m.renderHeader()
		m.headerHeight = lipgloss.Height(m.header)
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.KeyMsg:
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
			return m, nil
		case "h", "?":
			m.help = true
			return m, nil
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
			case "pgdown", "ctrl+n":
				m.vp.LineDown(10)
			case "pgup", "ctrl+p":
				m.vp.LineUp(10)
			default:
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				return m, cmd
			}
			return m, nil
		}
		return m, nil
	case positionMsg:
		m.latest[msg.DeviceID] = msg.PositionRow
		m.refreshTable()
	case transitionMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > 1000 {
			m.logs = m.logs[len(m.logs)-1000:]
		}
		m.refreshViewport()
	}
	return m, nil
}

func (m *tuiModel) refreshTable() {
	ids := make([]string, 0, len(m.latest))
	for id := range m.latest {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	rows := make([]table.Row, 0, len(ids))
	for _, id := range ids {
		r := m.latest[id]
		rows = append(rows, table.Row{
			r.DeviceID,
			fmt.Sprintf("%.2f", r.X),
			fmt.Sprintf("%.2f", r.Y),
			fmt.Sprintf("%.2f", r.Confidence),
			fmt.Sprintf("%d", r.SensorCount),
			fmt.Sprintf("%s%s%s", methodColors[r.Method], r.Method, colorReset),
		})
	}
	m.table.SetRows(rows)
}

func (m *tuiModel) updateViewportHeight() {
	h := m.height - m.headerHeight - m.table.Height() - 4
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	var lines []string
	for _, l := range m.logs {
		if m.wrap {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) renderHeader() string {
	style := lipgloss.NewStyle().Bold(true)
	site := m.cfg.SiteID
	if site == "" {
		site = "default"
	}
	return style.Render(fmt.Sprintf("indoortrack site=%s sensors=%d zones=%d smoothing=%s",
		site, len(m.cfg.Sensors), len(m.cfg.Zones), smoothingLabel(m.cfg)))
}

func smoothingLabel(cfg *config.TrackingConfig) string {
	if cfg.SmoothingEnabled() {
		return "kalman"
	}
	return "none"
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.vp.Width)
	sections := []string{
		m.header,
		divider,
		m.table.View(),
		divider,
		"Transitions:",
		m.vp.View(),
	}
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q  quit",
		" w  toggle wrap for transition log",
		" s  toggle auto-scroll",
		" h/? toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}
