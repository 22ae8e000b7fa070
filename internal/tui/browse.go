package tui

import (
	"math"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"gamelib/internal/browse"
	"gamelib/internal/catalog"
	"gamelib/internal/virtual"
)

// chromeLines is the height of everything around the scrolling body:
// search, filters, letter bar, status and key help.
const chromeLines = 5

// wheelRows is how far one mouse wheel notch scrolls.
const wheelRows = 3

func (m Model) bodyHeight() int { return max(m.height-chromeLines, 1) }

func (m Model) viewport() virtual.Viewport {
	return virtual.Viewport{
		Offset: m.coord.Offset(),
		Width:  float64(max(m.width, 1)),
		Height: float64(m.bodyHeight()),
	}
}

func (m Model) items() []*catalog.Entry {
	if m.view == nil {
		return nil
	}
	return m.view.Items()
}

// recompute rebuilds the view for the current query. The scroll offset was
// already reset by the coordinator; cursor, observer and any pending frame
// start over with it.
func (m *Model) recompute() tea.Cmd {
	m.view = m.engine.Compute(m.coord.Query())
	m.cursor = 0
	m.jumpArmed = false
	m.observer.Reset()
	m.coalesce.Reset()
	return m.layout(true)
}

// layout lays out the current items for the viewport and, in grid mode,
// hands the materialized tiles to the observer. initial marks the first
// layout of a new item list, whose visible tiles load straight away.
func (m *Model) layout(initial bool) tea.Cmd {
	vp := m.viewport()
	n := len(m.items())
	grid := m.coord.Query().View == browse.ViewGrid
	if grid {
		m.frame = virtual.Grid(n, m.settings.GridGeometry(), vp)
	} else {
		m.frame = virtual.List(n, m.settings.ListGeometry(), vp)
	}
	// A resize can shrink the content below the current offset.
	if off := m.frame.ClampOffset(vp.Offset, vp.Height); off != vp.Offset {
		m.coord.SetOffset(off)
		return m.layout(initial)
	}
	if !grid {
		return nil
	}

	for _, p := range m.frame.Items {
		m.observer.Observe(virtual.Target{
			ID:     p.Index,
			Top:    p.Y,
			Bottom: p.Y + p.Height,
			Eager:  initial && p.Y < vp.Offset+vp.Height && p.Y+p.Height > vp.Offset,
		})
	}
	return m.probeCovers(m.observer.Update(vp.Offset, vp.Offset+vp.Height))
}

// requestFrame schedules a coalesced layout on the next frame tick.
func (m *Model) requestFrame() tea.Cmd {
	if !m.coalesce.Request() {
		return nil
	}
	return tea.Tick(virtual.FrameInterval, func(time.Time) tea.Msg { return frameMsg{} })
}

func (m Model) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		if !m.coalesce.Fire() {
			return m, nil
		}
		cmd := m.layout(false)
		return m, cmd

	case coverMsg:
		m.covers.store(msg.path, msg.info)
		if msg.info.err != nil {
			m.log.Debug().Err(msg.info.err).Str("cover", msg.path).Msg("cover unavailable")
		}
		return m, nil

	case iconMsg:
		if msg.ok {
			m.icons[msg.path] = iconLoaded
		} else {
			m.log.Debug().Str("icon", msg.path).Msg("console icon unavailable")
			m.icons[msg.path] = iconFailed
		}
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.log.Debug().Err(msg.err).Msg("clipboard write failed")
		}
		m.toastID++
		m.toast = "Copied!"
		id := m.toastID
		return m, tea.Tick(ToastDuration, func(time.Time) tea.Msg { return toastClearMsg{id: id} })

	case toastClearMsg:
		if msg.id == m.toastID {
			m.toast = ""
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.jumpArmed {
		m.jumpArmed = false
		if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
			cmd := m.jumpToLetter(msg.Runes[0])
			return m, cmd
		}
	}

	k := m.keys
	grid := m.coord.Query().View == browse.ViewGrid
	var cmd tea.Cmd
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.openHelp()
	case key.Matches(msg, k.Clear):
		if m.search.Value() == "" {
			return m, tea.Quit
		}
		m.search.SetValue("")
		cmd = m.applySearch()
	case key.Matches(msg, k.Copy):
		cmd = m.copyCurrent()
	case key.Matches(msg, k.NextConsole):
		cmd = m.cycleConsole(1)
	case key.Matches(msg, k.PrevConsole):
		cmd = m.cycleConsole(-1)
	case key.Matches(msg, k.Sort):
		m.coord.CycleSort()
		cmd = m.recompute()
	case key.Matches(msg, k.View):
		m.coord.ToggleView()
		cmd = m.recompute()
	case key.Matches(msg, k.Match):
		if m.coord.SetMatch(nextMatch(m.coord.Query().Match)) {
			cmd = m.recompute()
		}
	case key.Matches(msg, k.Jump):
		m.jumpArmed = m.view != nil && m.view.Letters != nil
	case key.Matches(msg, k.Up):
		cmd = m.moveCursor(-m.frame.Columns)
	case key.Matches(msg, k.Down):
		cmd = m.moveCursor(m.frame.Columns)
	case key.Matches(msg, k.PageUp):
		cmd = m.moveCursor(-m.pageItems())
	case key.Matches(msg, k.PageDown):
		cmd = m.moveCursor(m.pageItems())
	case key.Matches(msg, k.Home):
		cmd = m.moveCursor(-len(m.items()))
	case key.Matches(msg, k.End):
		cmd = m.moveCursor(len(m.items()))
	case grid && key.Matches(msg, k.Left):
		cmd = m.moveCursor(-1)
	case grid && key.Matches(msg, k.Right):
		cmd = m.moveCursor(1)
	default:
		m.search, cmd = m.search.Update(msg)
		search := m.applySearch()
		return m, tea.Batch(cmd, search)
	}
	return m, cmd
}

// applySearch pushes the search box into the query when it changed.
func (m *Model) applySearch() tea.Cmd {
	if !m.coord.SetSearch(m.search.Value()) {
		return nil
	}
	return m.recompute()
}

func (m *Model) cycleConsole(step int) tea.Cmd {
	if len(m.consoles) == 0 {
		return nil
	}
	i := slices.Index(m.consoles, m.coord.Query().Console)
	i = (i + step + len(m.consoles)) % len(m.consoles)
	if !m.coord.SetConsole(m.consoles[i]) {
		return nil
	}
	return m.recompute()
}

func nextMatch(cur browse.MatchMode) browse.MatchMode {
	switch cur {
	case browse.MatchContains:
		return browse.MatchPrefix
	case browse.MatchPrefix:
		return browse.MatchFuzzy
	}
	return browse.MatchContains
}

// pageItems is how many items one screen holds.
func (m Model) pageItems() int {
	rows := int(float64(m.bodyHeight()) / m.frame.RowHeight)
	return max(rows, 1) * max(m.frame.Columns, 1)
}

// moveCursor moves the selection and scrolls just enough to keep it
// visible.
func (m *Model) moveCursor(delta int) tea.Cmd {
	n := len(m.items())
	if n == 0 || delta == 0 {
		return nil
	}
	cur := min(max(m.cursor+delta, 0), n-1)
	if cur == m.cursor {
		return nil
	}
	m.cursor = cur
	return m.scrollTo(m.frame.Reveal(cur, m.coord.Offset(), float64(m.bodyHeight())))
}

func (m *Model) scrollTo(offset float64) tea.Cmd {
	offset = m.frame.ClampOffset(offset, float64(m.bodyHeight()))
	if offset == m.coord.Offset() {
		return nil
	}
	m.coord.SetOffset(offset)
	return m.requestFrame()
}

// jumpToLetter scrolls the bucket's first entry to the top. Buckets with no
// entries do nothing.
func (m *Model) jumpToLetter(r rune) tea.Cmd {
	if m.view == nil || m.view.Letters == nil {
		return nil
	}
	if r >= '0' && r <= '9' {
		r = '#'
	}
	pos, ok := m.view.Letters.Position(r)
	if !ok {
		return nil
	}
	m.cursor = pos
	return m.scrollTo(m.frame.OffsetFor(pos))
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress {
		return m, nil
	}
	step := m.frame.RowHeight * wheelRows
	var cmd tea.Cmd
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		cmd = m.scrollTo(m.coord.Offset() - step)
	case tea.MouseButtonWheelDown:
		cmd = m.scrollTo(m.coord.Offset() + step)
	default:
		return m, nil
	}
	// keep the selection on screen
	start, end := m.frame.Visible(m.viewport())
	if end > start {
		m.cursor = min(max(m.cursor, start), end-1)
	}
	return m, cmd
}

func (m Model) copyCurrent() tea.Cmd {
	items := m.items()
	if m.cursor < 0 || m.cursor >= len(items) {
		return nil
	}
	label, write := items[m.cursor].Label(), m.opts.Clipboard
	return func() tea.Msg { return copiedMsg{err: write(label)} }
}

// gridRows reports the first visible row, how many of its lines are
// scrolled above the viewport, and how many rows reach into it.
func (m Model) gridRows() (first, skip, count int) {
	rowH := m.frame.RowHeight
	if rowH <= 0 {
		return 0, 0, 0
	}
	off := m.coord.Offset()
	first = int(math.Floor(off / rowH))
	skip = int(math.Round(off - float64(first)*rowH))
	count = int(math.Ceil((float64(m.bodyHeight()) + float64(skip)) / rowH))
	return first, skip, count
}
