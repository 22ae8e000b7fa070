package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"gamelib/internal/browse"
	"gamelib/internal/catalog"
)

const ellipsis = "…"

func (m Model) viewForm() string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("Game Library"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("Open a site folder or the URL it is served from"))
	b.WriteString("\n\n")

	b.WriteString(m.form.source.View())
	if ind := validationIndicator(m.form.valid); ind != "" {
		b.WriteString(" " + ind)
	}
	b.WriteString("\n")

	if m.form.showingCompletions {
		b.WriteString("\n")
		for i, c := range m.form.completions {
			line := "  " + c
			if i == m.form.completionIndex {
				line = cursorStyle.Render("> " + c)
			}
			b.WriteString(line + "\n")
		}
	}
	if m.form.err != "" {
		b.WriteString("\n" + errorStyle.Render(m.form.err) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(renderKeyHelp([]string{"Enter open", "Tab complete", "F1 help", "Esc quit"}))
	return renderBorder(b.String(), "Source", primary)
}

func (m Model) viewLoading() string {
	body := fmt.Sprintf("%s Loading %s", m.spin.View(), valueStyle.Render(m.location))
	return renderBorder(body, "Loading", info)
}

// viewFailed is the terminal error screen; nothing but quitting works here.
func (m Model) viewFailed() string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		errorStyle.Render("Failed to load games.json"),
		"",
		renderKeyHelp([]string{"q quit"}),
	)
	return renderBorder(body, "Error", danger)
}

func (m Model) viewBrowse() string {
	if m.view == nil {
		return ""
	}
	var body string
	if m.coord.Query().View == browse.ViewGrid {
		body = m.renderGrid()
	} else {
		body = m.renderList()
	}
	body = fitLines(body, m.bodyHeight())

	return lipgloss.JoinVertical(lipgloss.Left,
		m.search.View(),
		m.renderFilters(),
		m.renderLetters(),
		body,
		m.renderStatus(),
		m.renderFooter(),
	)
}

func (m Model) renderFilters() string {
	q := m.coord.Query()
	console := q.Console
	if console == "" {
		console = "All consoles"
	}
	pair := func(label, value string) string {
		return labelStyle.Render(label+" ") + valueStyle.Render(value)
	}
	return strings.Join([]string{
		pair("Console", console),
		pair("Sort", string(q.Sort)),
		pair("Match", string(q.Match)),
		pair("View", string(q.View)),
	}, dimStyle.Render("  │  "))
}

// renderLetters shows the A-Z bar for title-sorted lists. Letters without
// entries are dimmed.
func (m Model) renderLetters() string {
	li := m.view.Letters
	if li == nil {
		return ""
	}
	parts := make([]string, 0, len(browse.Buckets))
	for _, r := range browse.Buckets {
		s := string(r)
		switch {
		case !li.Has(r):
			parts = append(parts, dimStyle.Render(s))
		case m.jumpArmed:
			parts = append(parts, cursorStyle.Render(s))
		default:
			parts = append(parts, accentStyle.Render(s))
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) renderList() string {
	items := m.items()
	if len(items) == 0 {
		return subtitleStyle.Render("No matches")
	}
	start, end := m.frame.Visible(m.viewport())
	width := max(m.width, 10)

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderRow(items[i], i == m.cursor, width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(e *catalog.Entry, selected bool, width int) string {
	prefix := "  "
	st, styled := m.styles[e.Console]
	if styled && st.icon != "" && m.icons[st.icon] == iconLoaded {
		prefix = "◆ "
	}
	label := runewidth.FillRight(truncate.StringWithTail(prefix+e.Label(), uint(width), ellipsis), width)

	switch {
	case selected:
		return cursorStyle.Render(label)
	case styled:
		return lipgloss.NewStyle().Background(st.bg).Foreground(st.fg).Render(label)
	}
	return label
}

func (m Model) renderGrid() string {
	items := m.items()
	if len(items) == 0 {
		return subtitleStyle.Render("No covers match")
	}
	geo := m.settings.GridGeometry()
	tileW := int(geo.TileWidth)
	// Frame.RowHeight is exactly tileH+gap lines.
	tileH := int(geo.TileHeight())
	gap := int(geo.Gap)
	cols := max(m.frame.Columns, 1)

	first, skip, count := m.gridRows()
	var rows []string
	for r := first; r < first+count; r++ {
		lo := r * cols
		if lo >= len(items) {
			break
		}
		hi := min(lo+cols, len(items))
		tiles := make([]string, 0, hi-lo)
		for i := lo; i < hi; i++ {
			tile := m.renderTile(items[i], i == m.cursor, tileW, tileH)
			if i > lo && gap > 0 {
				tile = lipgloss.NewStyle().MarginLeft(gap).Render(tile)
			}
			tiles = append(tiles, tile)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, tiles...))
		for range gap {
			rows = append(rows, "")
		}
	}
	lines := strings.Split(strings.Join(rows, "\n"), "\n")
	return strings.Join(lines[min(skip, len(lines)):], "\n")
}

// renderTile draws one cover tile: the cover's state in the art area and
// the title as caption.
func (m Model) renderTile(e *catalog.Entry, selected bool, w, h int) string {
	inner := max(w-2, 1)
	caption := truncate.StringWithTail(e.Title, uint(inner), ellipsis)

	art := lipgloss.Place(inner, max(h-3, 1), lipgloss.Center, lipgloss.Center,
		subtitleStyle.Render(truncate.StringWithTail(m.coverLabel(e), uint(inner), ellipsis)))

	content := lipgloss.JoinVertical(lipgloss.Left, art, valueStyle.Render(caption))
	style := tileStyle
	if selected {
		style = tileCursorStyle
	}
	if st, ok := m.styles[e.Console]; ok && !selected {
		style = style.BorderForeground(st.bg)
	}
	return style.Width(inner).Render(content)
}

func (m Model) coverLabel(e *catalog.Entry) string {
	p := m.resolver.Resolve(e.CoverKey())
	if p == m.resolver.Placeholder() {
		return "no cover"
	}
	info, ok := m.covers.get(p)
	switch {
	case !ok && m.covers.loading(p):
		return ellipsis
	case !ok:
		return ""
	case info.err != nil:
		return "unavailable"
	}
	return fmt.Sprintf("%d×%d %s", info.width, info.height, info.format)
}

func (m Model) renderStatus() string {
	status := subtitleStyle.Render(m.view.Status.String())
	if m.jumpArmed {
		status += "  " + accentStyle.Render("jump to letter…")
	}
	if m.toast != "" {
		status += "  " + toastStyle.Render(m.toast)
	}
	return status
}

func (m Model) renderFooter() string {
	var keys []string
	for _, b := range m.keys.shortHelp() {
		h := b.Help()
		keys = append(keys, h.Key+" "+h.Desc)
	}
	return truncate.StringWithTail(renderKeyHelp(keys), uint(max(m.width, 20)), ellipsis)
}

// fitLines pads or cuts s to exactly n lines so the chrome below it stays
// put.
func fitLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	for len(lines) < n {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
