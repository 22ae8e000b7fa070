package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Color palette
var (
	primary   = lipgloss.Color("#7c3aed") // Purple
	secondary = lipgloss.Color("#06b6d4") // Cyan
	accent    = lipgloss.Color("#10b981") // Emerald

	success = lipgloss.Color("#22c55e")
	warning = lipgloss.Color("#f59e0b")
	danger  = lipgloss.Color("#ef4444")
	info    = lipgloss.Color("#3b82f6")

	background = lipgloss.Color("#0f172a") // Slate-900
	surface    = lipgloss.Color("#1e293b") // Slate-800
	border     = lipgloss.Color("#334155") // Slate-700
	muted      = lipgloss.Color("#64748b") // Slate-500
	text       = lipgloss.Color("#f1f5f9") // Slate-100
	textMuted  = lipgloss.Color("#94a3b8") // Slate-400
)

var (
	headingStyle = lipgloss.NewStyle().
			Foreground(primary).
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(textMuted)

	labelStyle = lipgloss.NewStyle().
			Foreground(textMuted).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(text).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(danger).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(success).
			Bold(true)

	accentStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(background).
			Background(secondary).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(border)

	toastStyle = lipgloss.NewStyle().
			Foreground(background).
			Background(success).
			Bold(true).
			Padding(0, 1)

	tileStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border)

	tileCursorStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(secondary)
)

func renderKeyHelp(keys []string) string {
	var parts []string
	colors := []lipgloss.Color{primary, accent, secondary, info}

	for i, key := range keys {
		keyStyle := lipgloss.NewStyle().
			Background(colors[i%len(colors)]).
			Foreground(background).
			Padding(0, 1).
			Bold(true).
			MarginRight(1)

		parts = append(parts, keyStyle.Render(key))
	}

	return lipgloss.JoinHorizontal(lipgloss.Left, parts...)
}

func renderBorder(content string, title string, color lipgloss.Color) string {
	titleBar := lipgloss.NewStyle().
		Background(color).
		Foreground(background).
		Bold(true).
		Padding(0, 1).
		MarginBottom(1).
		Render(fmt.Sprintf(" %s ", title))

	bordered := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(1, 2)

	return lipgloss.JoinVertical(lipgloss.Left,
		titleBar,
		bordered.Render(content),
	)
}

// renderTable lays out label/value rows in two aligned columns.
func renderTable(rows [][2]string) string {
	if len(rows) == 0 {
		return subtitleStyle.Render("No data to display")
	}

	labelWidth := 0
	for _, row := range rows {
		labelWidth = max(labelWidth, lipgloss.Width(row[0]))
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Left,
			labelStyle.Width(labelWidth+2).Render(row[0]),
			valueStyle.Render(row[1]),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderProgressBar(percent float64, width int) string {
	if width <= 0 {
		width = 40
	}

	filled := int(percent * float64(width) / 100)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	progressStyle := lipgloss.NewStyle().
		Foreground(accent).
		Background(surface)

	emptyStyle := lipgloss.NewStyle().
		Foreground(muted).
		Background(surface)

	filledBar := progressStyle.Render(strings.Repeat("█", filled))
	emptyBar := emptyStyle.Render(strings.Repeat("░", width-filled))

	return lipgloss.JoinHorizontal(lipgloss.Left, filledBar, emptyBar)
}

// consoleStyle is a console's row decoration: background, a readable
// foreground for it, and the icon path inside the site.
type consoleStyle struct {
	bg, fg lipgloss.Color
	icon   string
}

// newConsoleStyle parses a hex color and picks dark text for light
// backgrounds. Unparseable colors fall back to the surface color.
func newConsoleStyle(hex, icon string) consoleStyle {
	st := consoleStyle{bg: surface, fg: text}
	if icon != "" {
		st.icon = iconPath(icon)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return st
	}
	st.bg = lipgloss.Color(c.Hex())
	if isLight(c) {
		st.fg = background
	}
	return st
}

func isLight(c colorful.Color) bool {
	l, _, _ := c.Lab()
	return l > 0.7
}
