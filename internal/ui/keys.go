package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/gunicorn_console/internal/engine"
)

type keyMap struct {
	Up           key.Binding
	Down         key.Binding
	AddWorker    key.Binding
	RemoveWorker key.Binding
	Reload       key.Binding
	ReloadAll    key.Binding
	Terminate    key.Binding
	Quit         key.Binding
}

var keys = keyMap{
	Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	AddWorker:    key.NewBinding(key.WithKeys("a", "A", "+"), key.WithHelp("a/+", "add worker")),
	RemoveWorker: key.NewBinding(key.WithKeys("w", "W", "-"), key.WithHelp("w/-", "kill worker")),
	Reload:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload master")),
	ReloadAll:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload all")),
	Terminate:    key.NewBinding(key.WithKeys("m", "M"), key.WithHelp("m", "kill master")),
	Quit:         key.NewBinding(key.WithKeys("q", "Q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Reload, k.AddWorker, k.RemoveWorker, k.Terminate, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Reload, k.ReloadAll},
		{k.AddWorker, k.RemoveWorker},
		{k.Terminate, k.Quit},
		{k.Up, k.Down},
	}
}

// intentFor maps a key press to an intent; unbound keys map to IntentNone.
func intentFor(msg tea.KeyMsg) engine.Intent {
	switch {
	case key.Matches(msg, keys.Up):
		return engine.IntentUp
	case key.Matches(msg, keys.Down):
		return engine.IntentDown
	case key.Matches(msg, keys.AddWorker):
		return engine.IntentAddWorker
	case key.Matches(msg, keys.RemoveWorker):
		return engine.IntentRemoveWorker
	case key.Matches(msg, keys.Reload):
		return engine.IntentReload
	case key.Matches(msg, keys.ReloadAll):
		return engine.IntentReloadAll
	case key.Matches(msg, keys.Terminate):
		return engine.IntentTerminate
	case key.Matches(msg, keys.Quit):
		return engine.IntentQuit
	}
	return engine.IntentNone
}
