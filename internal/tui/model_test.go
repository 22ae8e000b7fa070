package tui

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"gamelib/internal/browse"
	"gamelib/internal/catalog"
	"gamelib/internal/config"
)

const gamesDoc = `[
	{"title":"Zelda","console":"GameCube","serial":"GZLE01"},
	{"title":"Metroid","console":"GameCube","serial":"GM8E01"},
	{"title":"Okami","console":"PlayStation 2","serial":"SLUS-21115"}
]`

const coverDoc = `{"bySerial":{"wii_gc":{"GZLE01":"Covers/wii_gc/GZLE01.png"}},"byTitle":{}}`

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", filepath.Dir(p), err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return dir
}

func writePNG(t *testing.T, p string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatalf("Failed to create %s: %v", filepath.Dir(p), err)
	}
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", p, err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("Failed to encode %s: %v", p, err)
	}
}

type clipboardStub struct{ copied []string }

func (c *clipboardStub) write(s string) error {
	c.copied = append(c.copied, s)
	return nil
}

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

// drain runs cmd and feeds every message it produces back into the model.
// Toasts are left alone so tests never wait on their timer.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for rounds := 0; len(queue) > 0 && rounds < 100; rounds++ {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case coverMsg, iconMsg, frameMsg:
			var next tea.Cmd
			m, next = step(t, m, msg)
			queue = append(queue, next)
		}
	}
	return m
}

func keyRunes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func browsing(t *testing.T, files map[string]string) (Model, *clipboardStub) {
	t.Helper()
	dir := writeSite(t, files)
	clip := &clipboardStub{}
	settings, err := config.Defaults()
	if err != nil {
		t.Fatalf("config.Defaults() failed: %v", err)
	}
	m := New(Options{Source: dir, Log: zerolog.Nop(), Settings: settings, Clipboard: clip.write})
	if m.state != stateLoading {
		t.Fatalf("state = %v, want loading", m.state)
	}
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, cmd := step(t, m, m.load()())
	if m.state != stateBrowse {
		t.Fatalf("state = %v, want browse", m.state)
	}
	return drain(t, m, cmd), clip
}

func labels(m Model) []string {
	var out []string
	for _, e := range m.items() {
		out = append(out, e.Label())
	}
	return out
}

func TestNewStartsWithForm(t *testing.T) {
	m := New(Options{Log: zerolog.Nop()})
	if m.state != stateForm {
		t.Fatalf("state = %v, want form", m.state)
	}
	if !strings.Contains(m.View(), "Site folder or URL") {
		t.Errorf("form view missing prompt:\n%s", m.View())
	}
}

func TestFormSubmit(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name      string
		value     string
		wantState appState
		wantErr   bool
	}{
		{name: "existing folder", value: dir, wantState: stateLoading},
		{name: "url", value: "https://example.github.io/games", wantState: stateLoading},
		{name: "missing folder", value: filepath.Join(dir, "nope", "deeper"), wantState: stateForm, wantErr: true},
		{name: "empty", value: "  ", wantState: stateForm, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(Options{Log: zerolog.Nop()})
			m.form.source.SetValue(tt.value)
			m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
			if m.state != tt.wantState {
				t.Errorf("state = %v, want %v", m.state, tt.wantState)
			}
			if (m.form.err != "") != tt.wantErr {
				t.Errorf("form error = %q, wantErr %v", m.form.err, tt.wantErr)
			}
			if tt.wantState == stateLoading {
				if cmd == nil {
					t.Error("expected a load command")
				}
				if m.location != strings.TrimSpace(tt.value) {
					t.Errorf("location = %q", m.location)
				}
			}
		})
	}
}

func TestPathCompletions(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"covers", "catalog", ".hidden", "games"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "cat.txt"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	got := getPathCompletions(filepath.Join(dir, "c"))
	want := []string{filepath.Join(dir, "catalog"), filepath.Join(dir, "covers")}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("completions = %v, want %v", got, want)
	}
	if got := getPathCompletions(dir); len(got) != 3 {
		t.Errorf("completions of dir = %v, want 3 visible folders", got)
	}
	if got := getPathCompletions("https://example.com/x"); got != nil {
		t.Errorf("url completions = %v, want none", got)
	}

	if v := validateSource(dir); v != pathValid {
		t.Errorf("validateSource(dir) = %d", v)
	}
	if v := validateSource(filepath.Join(dir, "new")); v != pathPartial {
		t.Errorf("validateSource(child) = %d", v)
	}
}

func TestFailedStateIsInert(t *testing.T) {
	dir := writeSite(t, map[string]string{"config.json": `{}`})
	m := New(Options{Source: dir, Log: zerolog.Nop()})
	m, _ = step(t, m, m.load()())
	if m.state != stateFailed {
		t.Fatalf("state = %v, want failed", m.state)
	}
	if !strings.Contains(m.View(), "Failed to load games.json") {
		t.Errorf("failed view = %q", m.View())
	}

	for _, msg := range []tea.Msg{
		tea.KeyMsg{Type: tea.KeyEnter},
		tea.KeyMsg{Type: tea.KeyTab},
		tea.KeyMsg{Type: tea.KeyCtrlT},
		tea.KeyMsg{Type: tea.KeyF1},
		keyRunes("z"),
		copiedMsg{},
		frameMsg{},
	} {
		var cmd tea.Cmd
		m, cmd = step(t, m, msg)
		if m.state != stateFailed || cmd != nil {
			t.Fatalf("%v changed the failed screen: state %v, cmd %v", msg, m.state, cmd != nil)
		}
	}

	_, cmd := step(t, m, keyRunes("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not produce a quit message")
	}
}

func TestConsoleCycling(t *testing.T) {
	m, _ := browsing(t, map[string]string{"games.json": gamesDoc})
	if got, want := m.consoles, []string{"", "GameCube", "PlayStation 2"}; strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("consoles = %q, want %q", got, want)
	}

	tests := []struct {
		key     tea.KeyMsg
		console string
		count   int
	}{
		{tea.KeyMsg{Type: tea.KeyTab}, "GameCube", 2},
		{tea.KeyMsg{Type: tea.KeyTab}, "PlayStation 2", 1},
		{tea.KeyMsg{Type: tea.KeyTab}, "", 3},
		{tea.KeyMsg{Type: tea.KeyShiftTab}, "PlayStation 2", 1},
	}
	for _, tt := range tests {
		m, _ = step(t, m, tt.key)
		if got := m.coord.Query().Console; got != tt.console {
			t.Errorf("console = %q, want %q", got, tt.console)
		}
		if got := len(m.items()); got != tt.count {
			t.Errorf("console %q shows %d items, want %d", tt.console, got, tt.count)
		}
	}
}

func TestSearchFiltersAndClears(t *testing.T) {
	m, _ := browsing(t, map[string]string{"games.json": gamesDoc})
	for _, r := range "zel" {
		m, _ = step(t, m, keyRunes(string(r)))
	}
	if got := labels(m); len(got) != 1 || got[0] != "Zelda [GZLE01]" {
		t.Fatalf("search results = %v", got)
	}
	if m.coord.Query().Search != "zel" {
		t.Errorf("query search = %q", m.coord.Query().Search)
	}

	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.search.Value() != "" || len(m.items()) != 3 {
		t.Errorf("esc left search %q with %d items", m.search.Value(), len(m.items()))
	}
	if cmd != nil {
		if _, ok := cmd().(tea.QuitMsg); ok {
			t.Error("esc with a search should clear, not quit")
		}
	}
}

func TestViewToggleAndSort(t *testing.T) {
	site := map[string]string{"games.json": gamesDoc, "coverIndex.json": coverDoc}
	m, _ := browsing(t, site)

	if got := labels(m); strings.Join(got, ",") != "Metroid [GM8E01],Okami [SLUS-21115],Zelda [GZLE01]" {
		t.Errorf("title order = %v", got)
	}
	if m.view.Letters == nil {
		t.Error("title-sorted list should carry a letter index")
	}

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if m.coord.Query().View != browse.ViewGrid {
		t.Fatalf("view = %v, want grid", m.coord.Query().View)
	}
	if got := labels(m); len(got) != 1 || got[0] != "Zelda [GZLE01]" {
		t.Errorf("grid items = %v, want only the covered game", got)
	}
	if m.view.Status.Hidden != 2 {
		t.Errorf("hidden = %d, want 2", m.view.Status.Hidden)
	}
	if m.view.Letters != nil {
		t.Error("grid should not carry a letter index")
	}

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.coord.Query().Sort != browse.SortConsole {
		t.Fatalf("sort = %v, want console", m.coord.Query().Sort)
	}
	if got := labels(m); strings.Join(got, ",") != "Metroid [GM8E01],Zelda [GZLE01],Okami [SLUS-21115]" {
		t.Errorf("console order = %v", got)
	}
	if m.cursor != 0 || m.coord.Offset() != 0 {
		t.Errorf("sort change kept cursor %d offset %v", m.cursor, m.coord.Offset())
	}
}

func TestMatchModeCycle(t *testing.T) {
	m, _ := browsing(t, map[string]string{"games.json": gamesDoc})
	for _, r := range "mt" {
		m, _ = step(t, m, keyRunes(string(r)))
	}
	if len(m.items()) != 0 {
		t.Fatalf("contains %q matched %v", "mt", labels(m))
	}
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlF})
	if m.coord.Query().Match != browse.MatchPrefix {
		t.Fatalf("match = %v, want prefix", m.coord.Query().Match)
	}
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlF})
	if m.coord.Query().Match != browse.MatchFuzzy {
		t.Fatalf("match = %v, want fuzzy", m.coord.Query().Match)
	}
	// m...t in order
	if got := labels(m); len(got) != 1 || got[0] != "Metroid [GM8E01]" {
		t.Errorf("fuzzy results = %v", got)
	}
}

func TestCopyToast(t *testing.T) {
	m, clip := browsing(t, map[string]string{"games.json": gamesDoc})

	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should copy")
	}
	msg := cmd()
	if len(clip.copied) != 1 || clip.copied[0] != "Metroid [GM8E01]" {
		t.Fatalf("copied = %v", clip.copied)
	}

	m, tick := step(t, m, msg)
	if m.toast != "Copied!" || tick == nil {
		t.Fatalf("toast = %q, tick %v", m.toast, tick != nil)
	}
	first := m.toastID

	// a second copy restarts the toast; the first timer must not clear it
	m, _ = step(t, m, copiedMsg{})
	m, _ = step(t, m, toastClearMsg{id: first})
	if m.toast == "" {
		t.Error("stale clear removed the newer toast")
	}
	m, _ = step(t, m, toastClearMsg{id: m.toastID})
	if m.toast != "" {
		t.Errorf("toast = %q after clear", m.toast)
	}
}

func lettersDoc() string {
	var parts []string
	for i := 0; i < 26; i++ {
		for j := 1; j <= 2; j++ {
			parts = append(parts, fmt.Sprintf(`{"title":"%c Game %d","console":"PlayStation 2","serial":"S%02d%d"}`, 'A'+i, j, i, j))
		}
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func TestLetterJump(t *testing.T) {
	m, _ := browsing(t, map[string]string{"games.json": lettersDoc()})
	if len(m.items()) != 52 {
		t.Fatalf("items = %d, want 52", len(m.items()))
	}

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	if !m.jumpArmed {
		t.Fatal("ctrl+l should arm the letter jump")
	}
	m, cmd := step(t, m, keyRunes("m"))
	if m.jumpArmed {
		t.Error("jump stayed armed")
	}
	if m.cursor != 24 || m.coord.Offset() != 24 {
		t.Errorf("jump to M: cursor %d offset %v, want 24 24", m.cursor, m.coord.Offset())
	}
	if cmd == nil {
		t.Error("scrolling should request a frame")
	}
	if m.search.Value() != "" {
		t.Errorf("armed letter leaked into search: %q", m.search.Value())
	}

	// digits map to '#', which has no entries here
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	m, _ = step(t, m, keyRunes("7"))
	if m.cursor != 24 {
		t.Errorf("empty bucket moved cursor to %d", m.cursor)
	}
}

func TestScrollCoalescesFrames(t *testing.T) {
	m, _ := browsing(t, map[string]string{"games.json": lettersDoc()})
	wheel := tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown}

	m, first := step(t, m, wheel)
	if first == nil {
		t.Fatal("first scroll should schedule a frame")
	}
	m, second := step(t, m, wheel)
	if second != nil {
		t.Error("second scroll should fold into the pending frame")
	}
	if m.coord.Offset() != 2*wheelRows {
		t.Errorf("offset = %v, want %d", m.coord.Offset(), 2*wheelRows)
	}
	if m.coalesce.Merged() != 1 {
		t.Errorf("merged = %d, want 1", m.coalesce.Merged())
	}

	m, _ = step(t, m, frameMsg{})
	if m.coalesce.Pending() {
		t.Error("frame left a request pending")
	}
	start, _ := m.frame.Visible(m.viewport())
	if start != 2*wheelRows {
		t.Errorf("visible start = %d, want %d", start, 2*wheelRows)
	}
	if m.cursor < start {
		t.Errorf("cursor %d left above the viewport", m.cursor)
	}

	// stale frames do nothing
	if _, cmd := step(t, m, frameMsg{}); cmd != nil {
		t.Error("stale frame produced work")
	}
}

func TestGridProbesCovers(t *testing.T) {
	dir := writeSite(t, map[string]string{"games.json": gamesDoc, "coverIndex.json": coverDoc})
	writePNG(t, filepath.Join(dir, "Covers", "wii_gc", "GZLE01.png"), 64, 92)

	m := New(Options{Source: dir, Log: zerolog.Nop()})
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m, cmd := step(t, m, m.load()())
	m = drain(t, m, cmd)

	// the only styled console icon is missing from the site
	if st := m.icons[iconPath("gamecube.png")]; st != iconFailed {
		t.Errorf("gamecube icon state = %v, want failed", st)
	}

	m, cmd = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	m = drain(t, m, cmd)

	info, ok := m.covers.get("Covers/wii_gc/GZLE01.png")
	if !ok {
		t.Fatal("visible cover was not probed")
	}
	if info.err != nil || info.width != 64 || info.height != 92 || info.format != "png" {
		t.Errorf("cover info = %+v", info)
	}
	if !strings.Contains(m.View(), "64×92 png") {
		t.Errorf("grid view does not show the cover size:\n%s", m.View())
	}

	// a cover is fetched once
	if m.covers.claim("Covers/wii_gc/GZLE01.png") {
		t.Error("probed cover could be claimed again")
	}
}

func TestBrowseView(t *testing.T) {
	m, _ := browsing(t, map[string]string{"games.json": gamesDoc})
	out := m.View()
	for _, want := range []string{"Search:", "All consoles", "3 / 3 shown", "Okami [SLUS-21115]"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if lines := strings.Count(out, "\n") + 1; lines > 30 {
		t.Errorf("view is %d lines, taller than the window", lines)
	}
}

func TestHelpRoundTrip(t *testing.T) {
	m, _ := browsing(t, map[string]string{"games.json": gamesDoc})
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyF1})
	if m.state != stateHelp || m.help == "" {
		t.Fatalf("state = %v, help cached %v", m.state, m.help != "")
	}
	if !strings.Contains(m.View(), "Letter") {
		t.Error("help view missing section")
	}
	m, _ = step(t, m, keyRunes("x"))
	if m.state != stateBrowse {
		t.Errorf("state = %v, want browse", m.state)
	}
	if m.search.Value() != "" {
		t.Error("key that closed help reached the search box")
	}
}

func TestConsoleStyleContrast(t *testing.T) {
	tests := []struct {
		hex    string
		wantFg string
	}{
		{"#f8fafc", string(background)},
		{"#1a2930", string(text)},
		{"#6d28d9", string(text)},
		{"#9ca3af", string(text)},
		{"#ffff00", string(background)},
	}
	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			st := newConsoleStyle(tt.hex, "")
			if string(st.fg) != tt.wantFg {
				t.Errorf("fg = %s, want %s", st.fg, tt.wantFg)
			}
			if string(st.bg) != tt.hex {
				t.Errorf("bg = %s, want %s", st.bg, tt.hex)
			}
		})
	}

	st := newConsoleStyle("not a color", "gc.png")
	if st.bg != surface || st.icon != "icons/gc.png" {
		t.Errorf("fallback style = %+v", st)
	}
}

// coveredSite is a GameCube catalog of n entries that all have covers.
func coveredSite(n int) map[string]string {
	var games, covers []string
	for i := range n {
		serial := fmt.Sprintf("G%05d", i)
		games = append(games, fmt.Sprintf(`{"title":"Game %03d","console":"GameCube","serial":%q}`, i, serial))
		covers = append(covers, fmt.Sprintf(`%q:"Covers/wii_gc/%s.png"`, serial, serial))
	}
	return map[string]string{
		"games.json":      "[" + strings.Join(games, ",") + "]",
		"coverIndex.json": `{"bySerial":{"wii_gc":{` + strings.Join(covers, ",") + `}},"byTitle":{}}`,
	}
}

func TestGridWidenAtEnd(t *testing.T) {
	m, _ := browsing(t, coveredSite(301))
	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	m = drain(t, m, cmd)
	m, cmd = step(t, m, tea.KeyMsg{Type: tea.KeyEnd})
	m = drain(t, m, cmd)
	if m.frame.Columns != 5 || m.coord.Offset() == 0 {
		t.Fatalf("before widening: %d columns, offset %v", m.frame.Columns, m.coord.Offset())
	}

	m, cmd = step(t, m, tea.WindowSizeMsg{Width: 300, Height: 30})
	m = drain(t, m, cmd)

	height := float64(m.bodyHeight())
	if m.frame.Columns != 15 {
		t.Errorf("columns = %d, want 15", m.frame.Columns)
	}
	if got, want := m.coord.Offset(), m.frame.MaxOffset(height); got != want {
		t.Errorf("offset = %v, want clamped to %v", got, want)
	}
	if m.frame.Start > m.frame.End || m.frame.End != 301 {
		t.Errorf("frame range = [%d,%d)", m.frame.Start, m.frame.End)
	}
	last := m.items()[len(m.items())-1]
	if !strings.Contains(m.renderGrid(), last.Title) {
		t.Errorf("last tile %q not drawn:\n%s", last.Title, m.renderGrid())
	}
}

func TestGridRowPitchMatchesFrame(t *testing.T) {
	m, _ := browsing(t, coveredSite(12))
	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	m = drain(t, m, cmd)

	var tops []int
	for i, line := range strings.Split(m.renderGrid(), "\n") {
		if strings.ContainsAny(line, "╭┏") {
			tops = append(tops, i)
		}
	}
	if len(tops) < 2 {
		t.Fatalf("want at least two tile rows, got tops %v", tops)
	}
	if pitch := tops[1] - tops[0]; float64(pitch) != m.frame.RowHeight {
		t.Errorf("drawn row pitch = %d, frame row height = %v", pitch, m.frame.RowHeight)
	}
}

func TestCoverLabelStates(t *testing.T) {
	m, _ := browsing(t, map[string]string{"games.json": gamesDoc, "coverIndex.json": coverDoc})
	okami, zelda := m.items()[1], m.items()[2]
	const p = "Covers/wii_gc/GZLE01.png"

	steps := []struct {
		name  string
		do    func()
		entry *catalog.Entry
		want  string
	}{
		{"not requested", func() {}, zelda, ""},
		{"in flight", func() { m.covers.claim(p) }, zelda, ellipsis},
		{"probed", func() { m.covers.store(p, coverInfo{width: 64, height: 92, format: "png"}) }, zelda, "64×92 png"},
		{"no cover", func() {}, okami, "no cover"},
	}
	for _, s := range steps {
		s.do()
		if got := m.coverLabel(s.entry); got != s.want {
			t.Errorf("%s: coverLabel() = %q, want %q", s.name, got, s.want)
		}
	}
}
