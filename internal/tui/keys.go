package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NewText    key.Binding
	Retry      key.Binding
	Duration   key.Binding
	WordCount  key.Binding
	Theme      key.Binding
	DeleteWord key.Binding
	Backspace  key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NewText: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "new text"),
		),
		Retry: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "retry"),
		),
		Duration: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "time"),
		),
		WordCount: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "words"),
		),
		Theme: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "theme"),
		),
		DeleteWord: key.NewBinding(
			key.WithKeys("alt+backspace", "ctrl+w"),
			key.WithHelp("alt+⌫", "delete word"),
		),
		Backspace: key.NewBinding(
			key.WithKeys("backspace"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NewText, k.Retry, k.Duration, k.WordCount, k.Theme, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NewText, k.Retry, k.DeleteWord},
		{k.Duration, k.WordCount, k.Theme, k.Quit},
	}
}
