package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap is the browse screen's bindings. Printable keys go to the search
// box, so every command sits on a control or function key.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Home        key.Binding
	End         key.Binding
	Copy        key.Binding
	NextConsole key.Binding
	PrevConsole key.Binding
	Sort        key.Binding
	View        key.Binding
	Match       key.Binding
	Jump        key.Binding
	Clear       key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "previous tile"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "next tile"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("Home", "first"),
		),
		End: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("End", "last"),
		),
		Copy: key.NewBinding(
			key.WithKeys("enter", "ctrl+y"),
			key.WithHelp("Enter", "copy"),
		),
		NextConsole: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "next console"),
		),
		PrevConsole: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("Shift+Tab", "previous console"),
		),
		Sort: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("Ctrl+S", "sort"),
		),
		View: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("Ctrl+T", "list/grid"),
		),
		Match: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("Ctrl+F", "match mode"),
		),
		Jump: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("Ctrl+L", "jump to letter"),
		),
		Clear: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "clear search / quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "quit"),
		),
	}
}

// shortHelp is the footer line.
func (k KeyMap) shortHelp() []key.Binding {
	return []key.Binding{k.Copy, k.NextConsole, k.Sort, k.View, k.Match, k.Jump, k.Help}
}
