package tui

import "github.com/charmbracelet/bubbles/key"

// Letters go to the search input, so list movement uses arrows and
// control chords only.
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	First     key.Binding
	Last      key.Binding
	Copy      key.Binding
	Quit      key.Binding
	PreviewUp key.Binding
	PreviewDn key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
}

var keys = keyMap{
	Up:        key.NewBinding(key.WithKeys("up", "ctrl+k"), key.WithHelp("up/C-k", "previous message")),
	Down:      key.NewBinding(key.WithKeys("down", "ctrl+j"), key.WithHelp("dn/C-j", "next message")),
	First:     key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "first result")),
	Last:      key.NewBinding(key.WithKeys("end"), key.WithHelp("end", "last result")),
	Copy:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "copy message")),
	Quit:      key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	PreviewUp: key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("C-u", "scroll chat up")),
	PreviewDn: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("C-d", "scroll chat down")),
	PageUp:    key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "chat page up")),
	PageDown:  key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "chat page down")),
}

// ShortHelp is the footer line.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.PreviewDn, k.Copy, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.First, k.Last},
		{k.PreviewUp, k.PreviewDn, k.PageUp, k.PageDown},
		{k.Copy, k.Quit},
	}
}
