package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	open      key.Binding
	play      key.Binding
	pause     key.Binding
	restart   key.Binding
	timeRange key.Binding
	login     key.Binding
	back      key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "draw card")),
		play:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play/pause")),
		pause:     key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p", "pause")),
		restart:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
		timeRange: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "time range")),
		login:     key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log in")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.open},
		{k.play, k.pause, k.restart, k.timeRange},
		{k.login, k.back, k.quit},
	}
}
