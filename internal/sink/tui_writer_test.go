package sink

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeProgram struct{ msgs []tea.Msg }

func (f *fakeProgram) Send(msg tea.Msg) { f.msgs = append(f.msgs, msg) }

func TestTUIWriterMessages(t *testing.T) {
	p := &fakeProgram{}
	w := &TUIWriter{program: p}
	if err := w.Write(testSnapshot(1)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, ok := p.msgs[0].(snapshotMsg); !ok {
		t.Fatalf("expected snapshotMsg, got %T", p.msgs[0])
	}
	w.SetAdminStatus(true)
	if _, ok := p.msgs[1].(adminMsg); !ok {
		t.Fatalf("expected adminMsg, got %T", p.msgs[1])
	}
}

func update(t *testing.T, m tuiModel, msg tea.Msg) tuiModel {
	t.Helper()
	mi, _ := m.Update(msg)
	return mi.(tuiModel)
}

func TestTUIModelSnapshot(t *testing.T) {
	m := newTUIModel("s1", 2*time.Second)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 60})
	snap := testSnapshot(4)
	m = update(t, m, snapshotMsg{snap})

	if !m.have || m.received != 1 {
		t.Fatalf("snapshot not recorded")
	}
	if len(m.logs) != len(snap.Anomalies) {
		t.Fatalf("expected %d anomaly lines, got %d", len(snap.Anomalies), len(m.logs))
	}
	if rows := m.security.Rows(); len(rows) != 3 || rows[0][0] != snap.Security[0].Category {
		t.Fatalf("security table not populated: %v", rows)
	}
	view := m.View()
	if !strings.Contains(view, string(snap.Network.ConnectionType)) || !strings.Contains(view, "Traffic") {
		t.Fatalf("view missing network or traffic section")
	}
}

func TestTUIPause(t *testing.T) {
	m := newTUIModel("s1", time.Second)
	m = update(t, m, snapshotMsg{testSnapshot(1)})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	if !m.paused {
		t.Fatalf("pause not toggled")
	}
	m = update(t, m, snapshotMsg{testSnapshot(2)})
	if m.snap.Sequence != 1 || m.received != 2 {
		t.Fatalf("paused model should count but not display: seq=%d received=%d", m.snap.Sequence, m.received)
	}
}

func TestTUIAnomalyLogBounded(t *testing.T) {
	m := newTUIModel("s1", time.Second)
	for i := uint64(1); i <= maxAnomalyLines; i++ {
		m = update(t, m, snapshotMsg{testSnapshot(i)})
	}
	if len(m.logs) != maxAnomalyLines {
		t.Fatalf("expected %d lines, got %d", maxAnomalyLines, len(m.logs))
	}
}

func TestTUIHelpToggle(t *testing.T) {
	m := newTUIModel("s1", time.Second)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	if !m.help || !strings.Contains(m.View(), "Key Bindings:") {
		t.Fatalf("help not shown")
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'h'}})
	if m.help {
		t.Fatalf("help not hidden")
	}
}

func TestTUIWrapToggle(t *testing.T) {
	m := newTUIModel("s1", time.Second)
	m = update(t, m, tea.WindowSizeMsg{Width: 30, Height: 80})
	m = update(t, m, snapshotMsg{testSnapshot(1)})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'w'}})
	if !m.wrap {
		t.Fatalf("wrap not toggled")
	}
}
