package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Edit    key.Binding
	EditURL key.Binding
	Submit  key.Binding
	Clear   key.Binding
	History key.Binding
	Quit    key.Binding

	Confirm key.Binding
	Cancel  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Edit:    key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		EditURL: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "video link")),
		Submit:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "submit")),
		Clear:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear text")),
		History: key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "history")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

func (k keyMap) browse() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Edit, k.EditURL, k.Submit, k.Clear, k.History, k.Quit}
}

func (k keyMap) editing() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}
