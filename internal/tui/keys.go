package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Add            key.Binding
	Edit           key.Binding
	Toggle         key.Binding
	Delete         key.Binding
	ToggleAll      key.Binding
	ClearCompleted key.Binding
	NextFilter     key.Binding
	FilterAll      key.Binding
	FilterActive   key.Binding
	FilterDone     key.Binding
	Reload         key.Binding
	Dismiss        key.Binding
	Quit           key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Add:            key.NewBinding(key.WithKeys("a", "n"), key.WithHelp("a", "add")),
		Edit:           key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("e", "edit")),
		Toggle:         key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		Delete:         key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		ToggleAll:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle all")),
		ClearCompleted: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear completed")),
		NextFilter:     key.NewBinding(key.WithKeys("f", "tab"), key.WithHelp("f", "filter")),
		FilterAll:      key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "all")),
		FilterActive:   key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "active")),
		FilterDone:     key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "completed")),
		Reload:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Dismiss:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss error")),
		Quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) short() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Toggle, k.Delete, k.NextFilter}
}

func (k keyMap) full() []key.Binding {
	return []key.Binding{
		k.Add, k.Edit, k.Toggle, k.Delete, k.ToggleAll, k.ClearCompleted,
		k.NextFilter, k.FilterAll, k.FilterActive, k.FilterDone, k.Reload, k.Dismiss,
	}
}
