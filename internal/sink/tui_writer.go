package sink

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"network-analyser/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// snapshotMsg carries a snapshot to the model.
type snapshotMsg struct{ telemetry.Snapshot }

// adminMsg reports admin server status.
type adminMsg struct{ active bool }

const (
	maxAnomalyLines = 200
	trafficBarWidth = 30
)

// TUIWriter renders snapshots using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter. Quitting
// the program interrupts the process.
func NewTUIWriter(sensorID string, interval time.Duration) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(sensorID, interval), tea.WithAltScreen())
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

// Write implements SnapshotWriter.
func (w *TUIWriter) Write(s telemetry.Snapshot) error {
	w.program.Send(snapshotMsg{s})
	return nil
}

// SetAdminStatus updates the admin server indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
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
	sensorID   string
	interval   time.Duration
	security   table.Model
	vp         viewport.Model
	snap       telemetry.Snapshot
	have       bool
	received   int
	logs       []string
	admin      bool
	wrap       bool
	autoscroll bool
	paused     bool
	help       bool
	width      int
	height     int
}

func newTUIModel(sensorID string, interval time.Duration) tuiModel {
	cols := []table.Column{
		{Title: "Category", Width: 24},
		{Title: "Value", Width: 8},
		{Title: "Status", Width: 10},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(len(telemetry.SecurityCategories)+1))
	return tuiModel{
		sensorID:   sensorID,
		interval:   interval,
		security:   t,
		vp:         viewport.New(0, 0),
		autoscroll: true,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.vp.Width = msg.Width
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.KeyMsg:
		if m.help {
			switch msg.String() {
			case "h", "?", "esc":
				m.help = false
			case "q", "ctrl+c":
				return m, tea.Quit
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
		case "p":
			m.paused = !m.paused
		case "h", "?":
			m.help = true
		default:
			if !m.autoscroll {
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				return m, cmd
			}
		}
	case snapshotMsg:
		m.received++
		if m.paused {
			return m, nil
		}
		m.snap = msg.Snapshot
		m.have = true
		m.security.SetRows(securityRows(msg.Security))
		for _, a := range msg.Anomalies {
			m.logs = append(m.logs, anomalyLine(msg.Sequence, a))
		}
		if over := len(m.logs) - maxAnomalyLines; over > 0 {
			m.logs = m.logs[over:]
		}
		m.updateViewportHeight()
		m.refreshViewport()
	case adminMsg:
		m.admin = msg.active
	}
	return m, nil
}

func securityRows(ms [3]telemetry.SecurityMetric) []table.Row {
	rows := make([]table.Row, 0, len(ms))
	for _, s := range ms {
		rows = append(rows, table.Row{s.Category, fmt.Sprintf("%.1f", s.Value), string(s.Status)})
	}
	return rows
}

func anomalyLine(seq uint64, a telemetry.Anomaly) string {
	return fmt.Sprintf("%s#%d%s %s%-6s%s %s: %s %s(%s, %s)%s",
		colorGray, seq, colorReset,
		severityColor(a.Severity), a.Severity, colorReset,
		a.Title, a.Description,
		colorGray, a.SourceIP, a.Timestamp, colorReset)
}

func (m *tuiModel) updateViewportHeight() {
	used := lipgloss.Height(m.renderHeader()) + lipgloss.Height(m.renderBottom()) + 3
	h := m.height - used
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	lines := m.logs
	if m.wrap && m.vp.Width > 0 {
		lines = make([]string, len(m.logs))
		for i, l := range m.logs {
			lines[i] = wordwrap.String(l, m.vp.Width)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.width)
	sections := []string{
		m.renderHeader(),
		divider,
		"Anomalies:",
		m.vp.View(),
		divider,
		m.renderBottom(),
	}
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderHeader() string {
	if !m.have {
		return fmt.Sprintf("sensor %s: waiting for first snapshot", m.sensorID)
	}
	n := m.snap.Network
	status := fmt.Sprintf("Network\n conn   %s\n signal %d%%\n status %s%s%s\n\n%s",
		n.ConnectionType, n.SignalStrength,
		securityColor(n.SecurityStatus), n.SecurityStatus, colorReset,
		m.security.View())
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("│")
	return lipgloss.JoinHorizontal(lipgloss.Top, status, sep, renderTraffic(m.snap.Traffic))
}

// renderTraffic draws one bar per hour scaled to the busiest hour.
func renderTraffic(samples [telemetry.HoursPerDay]telemetry.TrafficSample) string {
	busiest := 0
	for _, t := range samples {
		if v := t.Inbound + t.Outbound; v > busiest {
			busiest = v
		}
	}
	var b strings.Builder
	b.WriteString("Traffic (in/out)\n")
	for _, t := range samples {
		in, out := 0, 0
		if busiest > 0 {
			in = t.Inbound * trafficBarWidth / busiest
			out = t.Outbound * trafficBarWidth / busiest
		}
		fmt.Fprintf(&b, " %s %s%s%s%s%s\n", t.Time,
			colorBlue, strings.Repeat("█", in),
			colorMagenta, strings.Repeat("█", out), colorReset)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m tuiModel) renderBottom() string {
	admin := "off"
	if m.admin {
		admin = "on"
	}
	state := "live"
	if m.paused {
		state = "paused"
	}
	return fmt.Sprintf("sensor=%s tick=%s snapshots=%d seq=%d admin=%s %s  [h] help",
		m.sensorID, m.interval, m.received, m.snap.Sequence, admin, state)
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q  quit",
		" w  toggle wrap for anomaly list",
		" s  toggle auto-scroll",
		" p  pause display (snapshots are still counted)",
		" h/? toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}
