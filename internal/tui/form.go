package tui

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Path validation states for the source field.
const (
	pathUnknown = iota
	pathValid
	pathPartial
	pathInvalid
)

type formModel struct {
	source textinput.Model
	err    string
	valid  int

	completions        []string
	completionIndex    int
	showingCompletions bool
}

func newForm(initial string) formModel {
	in := textinput.New()
	in.Prompt = "Site folder or URL: "
	in.Placeholder = "/path/to/site or https://example.github.io/games"
	if initial != "" && initial != "." {
		in.SetValue(initial)
	}
	in.Focus()
	return formModel{source: in, valid: validateSource(in.Value())}
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "tab":
			return m.handleTabCompletion(), nil
		case "down":
			if m.form.showingCompletions && len(m.form.completions) > 0 {
				m.form.completionIndex = (m.form.completionIndex + 1) % len(m.form.completions)
			}
			return m, nil
		case "up", "shift+tab":
			if m.form.showingCompletions && len(m.form.completions) > 0 {
				n := len(m.form.completions)
				m.form.completionIndex = (m.form.completionIndex + n - 1) % n
			}
			return m, nil
		case "enter":
			if m.form.showingCompletions && len(m.form.completions) > 0 {
				return m.selectCompletion(), nil
			}
			return m.submitForm()
		case "esc":
			if m.form.showingCompletions {
				m.form.showingCompletions = false
				m.form.completions = nil
				return m, nil
			}
			return m, tea.Quit
		case "f1":
			m.openHelp()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.form.source, cmd = m.form.source.Update(msg)
	m.form.valid = validateSource(m.form.source.Value())
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	loc := strings.TrimSpace(m.form.source.Value())
	switch {
	case loc == "":
		m.form.err = "A site folder or URL is required."
		return m, nil
	case isURL(loc):
	case validateSource(loc) != pathValid:
		m.form.err = "Folder not accessible."
		return m, nil
	}
	m.form.err = ""
	m.location = loc
	m.state = stateLoading
	return m, tea.Batch(m.spin.Tick, m.load())
}

func (m Model) handleTabCompletion() Model {
	completions := getPathCompletions(m.form.source.Value())
	switch len(completions) {
	case 0:
		return m
	case 1:
		m.form.source.SetValue(completions[0])
		m.form.source.CursorEnd()
		m.form.valid = validateSource(completions[0])
		return m
	}
	m.form.completions = completions
	m.form.completionIndex = 0
	m.form.showingCompletions = true
	return m
}

func (m Model) selectCompletion() Model {
	completion := m.form.completions[m.form.completionIndex]
	m.form.source.SetValue(completion)
	m.form.source.CursorEnd()
	m.form.valid = validateSource(completion)
	m.form.showingCompletions = false
	m.form.completions = nil
	return m
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// validateSource classifies the field: URLs are taken as valid, folders
// must exist, and a path whose parent exists is partial.
func validateSource(p string) int {
	p = strings.TrimSpace(p)
	if p == "" {
		return pathUnknown
	}
	if isURL(p) {
		return pathValid
	}
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		return pathValid
	}
	if _, err := os.Stat(filepath.Dir(p)); err == nil {
		return pathPartial
	}
	return pathInvalid
}

// getPathCompletions lists the visible subdirectories of p, or of its
// parent filtered by the typed prefix when p is incomplete.
func getPathCompletions(p string) []string {
	p = strings.TrimSpace(p)
	if p == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		p = home
	}
	if isURL(p) {
		return nil
	}

	dir, prefix := p, ""
	if info, err := os.Stat(p); err != nil || !info.IsDir() {
		dir, prefix = filepath.Dir(p), strings.ToLower(filepath.Base(p))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var completions []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if prefix == "" || strings.HasPrefix(strings.ToLower(name), prefix) {
			completions = append(completions, filepath.Join(dir, name))
		}
	}
	return completions
}

func validationIndicator(status int) string {
	switch status {
	case pathValid:
		return lipgloss.NewStyle().Foreground(success).Render("✓")
	case pathPartial:
		return lipgloss.NewStyle().Foreground(warning).Render("⚠")
	case pathInvalid:
		return lipgloss.NewStyle().Foreground(danger).Render("✗")
	}
	return ""
}
