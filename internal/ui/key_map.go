package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings for each screen. Letter keys other than y/n/r/q are
// free for the birth year input.
type keyMap struct {
	scroll  key.Binding
	submit  key.Binding
	create  key.Binding
	back    key.Binding
	confirm key.Binding
	cancel  key.Binding
	again   key.Binding
	exit    key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		scroll:  key.NewBinding(key.WithKeys("up", "down", "k", "j"), key.WithHelp("↑/↓", "scroll songs")),
		submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "show songs")),
		create:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "create playlist")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		confirm: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "create it")),
		cancel:  key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "not yet")),
		again:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "another year")),
		exit:    key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		quit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.submit, k.scroll, k.create},
		{k.confirm, k.cancel, k.back},
		{k.again, k.exit, k.quit},
	}
}
