package ui

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/go-cmp/cmp"

	"github.com/Dicklesworthstone/gunicorn_console/internal/config"
	"github.com/Dicklesworthstone/gunicorn_console/internal/engine"
	"github.com/Dicklesworthstone/gunicorn_console/internal/model"
)

type staticProcs []model.Process

func (s staticProcs) Processes(context.Context) ([]model.Process, error) { return s, nil }

type noSockets struct{}

func (noSockets) Ports(context.Context, map[int]bool) (iter.Seq2[int, int], error) {
	return func(func(int, int) bool) {}, nil
}

type recorder struct{ sent []string }

func (r *recorder) Signal(_ context.Context, sig model.Signal, pid int) error {
	r.sent = append(r.sent, string(sig)+" "+strconv.Itoa(pid))
	return nil
}

func newTestModel(procs staticProcs) (*Model, *recorder) {
	rec := &recorder{}
	cfg := config.Default()
	eng := engine.New(engine.Options{
		Processes:    procs,
		Sockets:      noSockets{},
		Signaller:    rec,
		TicksPerPoll: cfg.TicksPerPoll(),
		FrameEvery:   cfg.FrameEvery,
		Frames:       Frames,
		Log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return New(context.Background(), cfg, eng), rec
}

func appProcs() staticProcs {
	return staticProcs{
		{PID: 100, PPID: 1, RSSKB: 50000, Role: model.RoleMaster, Name: "app"},
		{PID: 101, PPID: 100, RSSKB: 20000, Role: model.RoleWorker, Name: "app"},
		{PID: 102, PPID: 100, RSSKB: 20000, Role: model.RoleWorker, Name: "app"},
	}
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func tick(t *testing.T, m *Model) tea.Cmd {
	t.Helper()
	_, cmd := m.Update(tickMsg{})
	return cmd
}

func TestIntentFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg  tea.KeyMsg
		want engine.Intent
	}{
		{tea.KeyMsg{Type: tea.KeyUp}, engine.IntentUp},
		{runes("k"), engine.IntentUp},
		{tea.KeyMsg{Type: tea.KeyDown}, engine.IntentDown},
		{runes("j"), engine.IntentDown},
		{runes("a"), engine.IntentAddWorker},
		{runes("+"), engine.IntentAddWorker},
		{runes("w"), engine.IntentRemoveWorker},
		{runes("-"), engine.IntentRemoveWorker},
		{runes("r"), engine.IntentReload},
		{runes("R"), engine.IntentReloadAll},
		{runes("m"), engine.IntentTerminate},
		{runes("q"), engine.IntentQuit},
		{tea.KeyMsg{Type: tea.KeyCtrlC}, engine.IntentQuit},
		{runes("z"), engine.IntentNone},
		{tea.KeyMsg{Type: tea.KeyEnter}, engine.IntentNone},
	}
	for _, tt := range tests {
		if got := intentFor(tt.msg); got != tt.want {
			t.Errorf("intentFor(%q) = %v, want %v", tt.msg.String(), got, tt.want)
		}
	}
}

func TestOneIntentPerTick(t *testing.T) {
	t.Parallel()

	m, rec := newTestModel(appProcs())
	tick(t, m) // first poll

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(runes("a"))
	tick(t, m)
	if len(rec.sent) != 0 {
		t.Fatalf("signal sent on the navigation tick: %v", rec.sent)
	}
	tick(t, m)
	if diff := cmp.Diff([]string{"TTIN 100"}, rec.sent); diff != "" {
		t.Errorf("signals (-want +got):\n%s", diff)
	}
	if m.flash == 0 {
		t.Error("no flash after a signal intent")
	}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestQuitStopsProgram(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(nil)
	if _, cmd := m.Update(runes("q")); !isQuit(cmd) {
		t.Error("quit key did not return tea.Quit")
	}
}

func TestQuitBehindFullQueue(t *testing.T) {
	t.Parallel()

	m, rec := newTestModel(appProcs())
	tick(t, m)
	for i := 0; i < maxQueued; i++ {
		m.Update(runes("j"))
	}
	m.Update(runes("a"))
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC}); !isQuit(cmd) {
		t.Fatal("ctrl+c behind a full queue did not quit")
	}
	if len(rec.sent) != 0 {
		t.Errorf("signals sent before quitting: %v", rec.sent)
	}
}

func TestIntentWithoutSelectionFlashes(t *testing.T) {
	t.Parallel()

	m, rec := newTestModel(appProcs())
	tick(t, m)
	m.Update(runes("r"))
	tick(t, m)

	if len(rec.sent) != 0 {
		t.Errorf("signal sent without selection: %v", rec.sent)
	}
	if m.flash == 0 {
		t.Error("no flash acknowledgment")
	}
	if !strings.Contains(m.View(), "app") {
		t.Error("group vanished after refused reload")
	}
}

func TestQueueIsBounded(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(nil)
	for i := 0; i < maxQueued*2; i++ {
		m.Update(runes("j"))
	}
	if len(m.queue) != maxQueued {
		t.Errorf("queue length = %d, want %d", len(m.queue), maxQueued)
	}
}

func TestViewEmpty(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(nil)
	tick(t, m)
	view := m.View()
	for _, want := range []string{"gunicorn-console", "PID", "PORT", "NAME", "MEM (MB)", "WORKERS", noGunicorns, "quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewRows(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(appProcs())
	tick(t, m)
	view := m.View()
	for _, want := range []string{"100", "app", "90.000", " 2 "} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, noGunicorns) {
		t.Error("empty message shown with groups present")
	}
}

func TestRowsHaveFixedWidth(t *testing.T) {
	t.Parallel()

	rows := []string{
		formatRow("PID", "PORT", "NAME", "MEM (MB)", "WORKERS"),
		groupRow(model.ServerGroup{ID: 100, Name: "app", Workers: model.Count(2), MemoryKB: 90000}),
		groupRow(model.ServerGroup{ID: 4194304, Name: strings.Repeat("x", 80), Workers: model.Pending(3), Port: 65535}),
	}
	for _, r := range rows {
		if w := lipgloss.Width(r); w != rowWidth {
			t.Errorf("row %q width = %d, want %d", r, w, rowWidth)
		}
	}
}

func TestPendingCellCyclesEveryGlyph(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(appProcs())
	tick(t, m)
	m.Update(runes("j"))
	tick(t, m)
	m.Update(runes("a"))
	tick(t, m)

	var got []string
	for i := 0; i <= Frames; i++ {
		g, ok := m.engine.Group(100)
		if !ok {
			t.Fatal("group 100 gone")
		}
		got = append(got, workersCell(g.Workers))
		tick(t, m)
	}
	want := append(append([]string{}, glyphs...), glyphs[0])
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cells (-want +got):\n%s", diff)
	}
}

func TestWorkersCell(t *testing.T) {
	t.Parallel()

	tests := []struct {
		w    model.Workers
		want string
	}{
		{model.Count(3), "3"},
		{model.Pending(0), "|"},
		{model.Pending(1), "/"},
		{model.Pending(2), "-"},
		{model.Pending(3), "\\"},
		{model.Pending(4), "|"},
	}
	for _, tt := range tests {
		if got := workersCell(tt.w); got != tt.want {
			t.Errorf("workersCell(%v) = %q, want %q", tt.w, got, tt.want)
		}
	}
}

func TestGroupRowPortAndMemory(t *testing.T) {
	t.Parallel()

	row := groupRow(model.ServerGroup{ID: 7, Name: "api", Workers: model.Count(1), MemoryKB: 1234, Port: 8000})
	for _, want := range []string{"8000", "1.234", "api"} {
		if !strings.Contains(row, want) {
			t.Errorf("row %q missing %q", row, want)
		}
	}
	if row := groupRow(model.ServerGroup{ID: 7, Workers: model.Count(1)}); !strings.Contains(row, " - ") {
		t.Errorf("unresolved port not shown as '-': %q", row)
	}
}
