package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpIntro = `# Game Library

Type to search titles. The list narrows as you type; the grid shows only
games with cover art once the search has a couple of characters.

## Keys

| Key | Action |
| --- | --- |
`

const helpOutro = `
## Letter jump

Press the jump key, then a letter (or a digit for **#**). The list scrolls
to the first title in that bucket. Letters with no titles are ignored.

## Match modes

- **contains**: the title contains the search text anywhere
- **prefix**: the title starts with the search text
- **fuzzy**: the search letters appear in order, best matches first
`

func (k KeyMap) helpMarkdown() string {
	var b strings.Builder
	b.WriteString(helpIntro)
	for _, binding := range []struct{ keys, desc string }{
		{k.Up.Help().Key + " " + k.Down.Help().Key, "move selection"},
		{k.Left.Help().Key + " " + k.Right.Help().Key, "move across grid tiles"},
		{k.PageUp.Help().Key + " " + k.PageDown.Help().Key, "scroll a page"},
		{k.Home.Help().Key + " " + k.End.Help().Key, "first / last"},
		{k.Copy.Help().Key, "copy the selected label"},
		{k.NextConsole.Help().Key, k.NextConsole.Help().Desc},
		{k.PrevConsole.Help().Key, k.PrevConsole.Help().Desc},
		{k.Sort.Help().Key, "sort: title, console, random"},
		{k.View.Help().Key, "switch list and grid"},
		{k.Match.Help().Key, "match: contains, prefix, fuzzy"},
		{k.Jump.Help().Key, k.Jump.Help().Desc},
		{k.Clear.Help().Key, k.Clear.Help().Desc},
		{k.Quit.Help().Key, k.Quit.Help().Desc},
	} {
		fmt.Fprintf(&b, "| %s | %s |\n", binding.keys, binding.desc)
	}
	b.WriteString(helpOutro)
	return b.String()
}

// renderHelp turns the help markdown into styled text for the current
// width. Rendering failures fall back to the raw markdown.
func renderHelp(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(min(width, 100)-4, 20)),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func (m *Model) openHelp() {
	m.prevState = m.state
	m.state = stateHelp
	if m.help == "" {
		m.help = renderHelp(m.keys.helpMarkdown(), m.width)
	}
}

func (m Model) viewHelp() string {
	body := m.help
	if body == "" {
		body = m.keys.helpMarkdown()
	}
	if m.height > 2 {
		body = fitLines(strings.TrimRight(body, "\n"), m.height-1)
	}
	return body + "\n" + subtitleStyle.Render("any key to return")
}
