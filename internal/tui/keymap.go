package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Toggle     key.Binding
	Sort       key.Binding
	Reverse    key.Binding
	Add        key.Binding
	Delete     key.Binding
	Enable     key.Binding
	Disable    key.Binding
	Check      key.Binding
	ModeAll    key.Binding
	ModeSingle key.Binding
	ModeSet    key.Binding
	PruneZero  key.Binding
	PruneBelow key.Binding
	Balances   key.Binding
	Refresh    key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		Sort:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort field")),
		Reverse:    key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "reverse")),
		Add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Delete:     key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete")),
		Enable:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "enable")),
		Disable:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "disable")),
		Check:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "check")),
		ModeAll:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "use all")),
		ModeSingle: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "use one")),
		ModeSet:    key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "use selected")),
		PruneZero:  key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "prune empty")),
		PruneBelow: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prune below")),
		Balances:   key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "refresh balances")),
		Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// help is the one-line key summary shown in the footer
func (k keyMap) help() []key.Binding {
	return []key.Binding{
		k.Toggle, k.Sort, k.Add, k.Delete, k.Enable, k.Disable, k.Check,
		k.ModeAll, k.ModeSingle, k.ModeSet, k.PruneZero, k.PruneBelow, k.Balances, k.Refresh, k.Quit,
	}
}
