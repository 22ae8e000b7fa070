// Package tui is the Bubble Tea front end: a source form, the loading
// screen, the list/grid browser with its help overlay, and the inert
// failure screen. All state changes happen in Update; loads, cover probes
// and clipboard writes run as commands and report back as messages.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"gamelib/internal/browse"
	"gamelib/internal/catalog"
	"gamelib/internal/config"
	"gamelib/internal/cover"
	"gamelib/internal/virtual"
)

type appState int

const (
	stateForm appState = iota
	stateLoading
	stateBrowse
	stateHelp
	stateFailed
)

// ToastDuration is how long the "Copied!" notice stays up.
const ToastDuration = 900 * time.Millisecond

// Options configures a browser session.
type Options struct {
	// Source is a site directory or base URL; empty opens the form first.
	Source   string
	Settings *config.Settings
	Log      zerolog.Logger
	// Clipboard defaults to the system clipboard with an OSC52 fallback.
	Clipboard func(string) error
	// Shuffle overrides the random sort permutation.
	Shuffle func(n int, swap func(i, j int))
	Context context.Context
}

type Model struct {
	state     appState
	prevState appState
	opts      Options
	settings  *config.Settings
	log       zerolog.Logger
	keys      KeyMap

	form   formModel
	spin   spinner.Model
	search textinput.Model
	width  int
	height int

	location string
	src      catalog.Source
	result   *catalog.Result
	resolver *cover.Resolver
	engine   *browse.Engine
	coord    *browse.Coordinator
	view     *browse.View
	consoles []string // "" first, meaning all consoles

	frame     virtual.Frame
	cursor    int
	coalesce  virtual.Coalescer
	observer  virtual.Observer
	jumpArmed bool

	covers *coverCache
	icons  map[string]iconState // by icon path
	styles map[string]consoleStyle

	toast   string
	toastID int
	help    string
	err     error
}

type (
	loadedMsg struct {
		src    catalog.Source
		result *catalog.Result
	}
	failedMsg     struct{ err error }
	frameMsg      struct{}
	copiedMsg     struct{ err error }
	toastClearMsg struct{ id int }
)

func New(opts Options) Model {
	if opts.Settings == nil {
		s, err := config.Defaults()
		if err != nil {
			opts.Log.Warn().Err(err).Msg("falling back to empty settings")
			s = &config.Settings{}
		}
		opts.Settings = s
	}
	if opts.Clipboard == nil {
		opts.Clipboard = writeClipboard
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "title…"

	m := Model{
		opts:     opts,
		settings: opts.Settings,
		log:      opts.Log,
		keys:     DefaultKeyMap(),
		spin:     s,
		search:   search,
		icons:    map[string]iconState{},
		styles:   map[string]consoleStyle{},
	}
	if opts.Source != "" {
		m.location = opts.Source
		m.state = stateLoading
	} else {
		m.form = newForm(opts.Settings.Source)
		m.state = stateForm
	}
	return m
}

// Err is the load failure that ended the session, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	if m.state == stateLoading {
		return tea.Batch(m.spin.Tick, m.load())
	}
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		return m.resize(size)
	}
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state {
	case stateForm:
		return m.updateForm(msg)
	case stateLoading:
		return m.updateLoading(msg)
	case stateBrowse:
		return m.updateBrowse(msg)
	case stateHelp:
		return m.updateHelp(msg)
	case stateFailed:
		// Inert: nothing but quitting.
		if k, ok := msg.(tea.KeyMsg); ok && (k.String() == "q" || k.String() == "esc") {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) View() string {
	switch m.state {
	case stateForm:
		return m.viewForm()
	case stateLoading:
		return m.viewLoading()
	case stateBrowse:
		return m.viewBrowse()
	case stateHelp:
		return m.viewHelp()
	case stateFailed:
		return m.viewFailed()
	}
	return ""
}

func (m Model) resize(size tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width, m.height = size.Width, size.Height
	m.search.Width = max(m.width-lenPrompt(m.search)-2, 10)
	m.help = ""
	if m.state == stateHelp {
		m.help = renderHelp(m.keys.helpMarkdown(), m.width)
	}
	if m.coord == nil {
		return m, nil
	}
	cmd := m.requestFrame()
	return m, cmd
}

func lenPrompt(t textinput.Model) int { return len([]rune(t.Prompt)) }

func (m Model) load() tea.Cmd {
	location, log, ctx := m.location, m.log, m.opts.Context
	return func() tea.Msg {
		src, err := catalog.NewSource(location)
		if err != nil {
			return failedMsg{err: err}
		}
		res, err := catalog.NewLoader(src, log).Load(ctx)
		if err != nil {
			return failedMsg{err: err}
		}
		return loadedMsg{src: src, result: res}
	}
}

func (m Model) updateLoading(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		return m.enterBrowse(msg.src, msg.result)
	case failedMsg:
		m.log.Error().Err(msg.err).Str("source", m.location).Msg("catalog load failed")
		m.err = msg.err
		m.state = stateFailed
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "esc" {
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) enterBrowse(src catalog.Source, res *catalog.Result) (tea.Model, tea.Cmd) {
	m.src, m.result = src, res
	m.resolver = cover.NewResolver(res.Covers, m.settings.Policy())

	opts := m.settings.EngineOptions()
	opts.Shuffle = m.opts.Shuffle
	m.engine = browse.NewEngine(res.Catalog, m.resolver, opts)

	q := browse.DefaultQuery()
	q.Match = m.settings.MatchMode()
	m.coord = browse.NewCoordinator(q)
	m.consoles = append([]string{""}, res.Catalog.Consoles()...)
	m.observer = virtual.NewMarginObserver(float64(m.settings.Geometry.ObserveMargin))
	m.covers = newCoverCache(m.settings.Browse.CoverCache)

	m.log.Info().
		Int("entries", res.Catalog.Len()).
		Int("dropped", res.Dropped).
		Bool("covers", res.Covers != nil).
		Str("source", src.String()).
		Msg("catalog loaded")

	m.state = stateBrowse
	m.search.Focus()

	cmds := m.probeIcons()
	cmds = append(cmds, m.recompute())
	return m, tea.Batch(cmds...)
}

func (m Model) updateHelp(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.state = m.prevState
		return m, nil
	case coverMsg, iconMsg, frameMsg, copiedMsg, toastClearMsg:
		// keep background work flowing while help is up
		next, cmd := m.updateBrowse(msg)
		nm := next.(Model)
		nm.state = stateHelp
		return nm, cmd
	}
	return m, nil
}
