package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Expand  key.Binding
	Toggle  key.Binding
	Add     key.Binding
	NewList key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Theme   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Expand:  key.NewBinding(key.WithKeys("enter", "o"), key.WithHelp("enter", "expand")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("x", "done")),
		Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add task")),
		NewList: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new list")),
		Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "rename")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Theme:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Expand, k.Toggle, k.Add, k.Delete, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Expand},
		{k.Toggle, k.Add, k.NewList},
		{k.Edit, k.Delete},
		{k.Theme, k.Help, k.Quit},
	}
}
