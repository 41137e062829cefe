package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit           key.Binding
	Search         key.Binding
	FilterRoute    key.Binding
	FilterSeverity key.Binding
	FilterLevel    key.Binding
	FixableOnly    key.Binding
	Sort           key.Binding
	Copy           key.Binding
	ClearFilter    key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	FilterRoute: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "filter route"),
	),
	FilterSeverity: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "cycle severity"),
	),
	FilterLevel: key.NewBinding(
		key.WithKeys("w"),
		key.WithHelp("w", "cycle WCAG level"),
	),
	FixableOnly: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "fixable only"),
	),
	Sort: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "cycle sort"),
	),
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy"),
	),
	ClearFilter: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "clear"),
	),
}
