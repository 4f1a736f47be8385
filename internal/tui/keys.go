package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Toggle      key.Binding
	LevelUp     key.Binding
	LevelDown   key.Binding
	CollapseAll key.Binding
	ExpandAll   key.Binding
	Search      key.Binding
	Queries     key.Binding
	Follow      key.Binding
	Refresh     key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter", "toggle"),
	),
	LevelUp: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "deeper"),
	),
	LevelDown: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "shallower"),
	),
	CollapseAll: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "collapse all"),
	),
	ExpandAll: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "expand all"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Queries: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "user queries"),
	),
	Follow: key.NewBinding(
		key.WithKeys("."),
		key.WithHelp(".", "follow"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.LevelUp, k.LevelDown, k.CollapseAll, k.ExpandAll, k.Search, k.Queries, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Follow},
		{k.LevelUp, k.LevelDown, k.CollapseAll, k.ExpandAll},
		{k.Search, k.Queries, k.Refresh, k.Quit},
	}
}
