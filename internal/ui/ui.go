package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/gunicorn_console/internal/config"
	"github.com/Dicklesworthstone/gunicorn_console/internal/engine"
	"github.com/Dicklesworthstone/gunicorn_console/internal/model"
)

const (
	title        = "(`\\._./`\\._.-> gunicorn-console <-._./`\\._./`)"
	noGunicorns  = "Aww, no gunicorns are running!!"
	maxQueued    = 8
	flashTicks   = 2
	pidWidth     = 7
	portWidth    = 6
	nameWidth    = 31
	memWidth     = 9
	workersWidth = 7
)

// glyphs animate a worker count that is waiting for the next poll.
var glyphs = spinner.Line.Frames

// Frames is the number of animation glyphs; the engine's clock cycles
// through this many frames.
var Frames = len(glyphs)

// rowWidth is the width of every table row, taken from an empty row.
var rowWidth = lipgloss.Width(formatRow("", "", "", "", ""))

// Model renders the engine's group table and feeds it keyboard intents.
type Model struct {
	cfg    config.Config
	engine *engine.Engine
	ctx    context.Context
	help   help.Model
	queue  []engine.Intent
	flash  int // ticks left to show the flash
	width  int
	height int
}

func New(ctx context.Context, cfg config.Config, eng *engine.Engine) *Model {
	h := help.New()
	h.ShowAll = true
	return &Model{
		cfg:    cfg,
		engine: eng,
		ctx:    ctx,
		help:   h,
		width:  rowWidth + 6,
		height: 24,
	}
}

// Messages
type tickMsg struct{}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *Model) Init() tea.Cmd { return tickCmd(m.cfg.Tick) }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
	case tea.KeyMsg:
		intent := intentFor(msg)
		if intent == engine.IntentQuit {
			return m, tea.Quit
		}
		if intent != engine.IntentNone && len(m.queue) < maxQueued {
			m.queue = append(m.queue, intent)
		}
	case tickMsg:
		m.engine.Tick(m.ctx)
		if m.flash > 0 {
			m.flash--
		}
		if len(m.queue) > 0 {
			intent := m.queue[0]
			m.queue = m.queue[1:]
			m.engine.Dispatch(m.ctx, intent)
			if intent.Signals() {
				m.flash = flashTicks
			}
		}
		return m, tickCmd(m.cfg.Tick)
	}
	return m, nil
}

// Styles
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	headerStyle   = lipgloss.NewStyle().Reverse(true).Bold(true)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	ruleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	windowStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(1, 2).
			Margin(1, 3)
	flashStyle = windowStyle.
			BorderForeground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))
)

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(center(title, rowWidth)) + "\n\n")
	b.WriteString(headerStyle.Render(formatRow("PID", "PORT", "NAME", "MEM (MB)", "WORKERS")) + "\n")

	groups := m.engine.Groups()
	if len(groups) == 0 {
		b.WriteString("\n" + subtleStyle.Render(center(noGunicorns, rowWidth)) + "\n\n")
	} else {
		b.WriteString(ruleStyle.Render(strings.Repeat("─", rowWidth)) + "\n")
		selected, _ := m.engine.Selected()
		for _, g := range groups {
			row := groupRow(g)
			if g.ID == selected {
				row = selectedStyle.Render(row)
			}
			b.WriteString(row + "\n")
		}
	}
	b.WriteString(ruleStyle.Render(strings.Repeat("─", rowWidth)) + "\n\n")
	b.WriteString(m.help.View(keys))

	style := windowStyle
	if m.flash > 0 {
		style = flashStyle
	}
	return style.Render(b.String())
}

// Helpers

// formatRow pads each column to its fixed width.
func formatRow(pid, port, name, mem, workers string) string {
	return fmt.Sprintf(" %-*s %-*s %-*s %*s %*s ",
		pidWidth, pid,
		portWidth, port,
		nameWidth, truncate(name, nameWidth),
		memWidth, mem,
		workersWidth, workers)
}

func groupRow(g model.ServerGroup) string {
	port := "-"
	if g.HasPort() {
		port = strconv.Itoa(g.Port)
	}
	return formatRow(
		strconv.Itoa(g.ID),
		port,
		g.Name,
		fmt.Sprintf("%.3f", g.MemoryMB()),
		workersCell(g.Workers),
	)
}

func workersCell(w model.Workers) string {
	if w.IsPending() {
		return glyphs[w.Frame()%len(glyphs)]
	}
	return strconv.Itoa(w.N())
}

func center(s string, width int) string {
	n := lipgloss.Width(s)
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// RunTUI starts the Bubble Tea program. The alt screen is torn down on every
// exit path, panics included.
func RunTUI(ctx context.Context, cfg config.Config, eng *engine.Engine) error {
	prog := tea.NewProgram(New(ctx, cfg, eng), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := prog.Run()
	return err
}
