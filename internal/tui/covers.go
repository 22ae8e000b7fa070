package tui

import (
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	lru "github.com/hashicorp/golang-lru/v2"
	_ "golang.org/x/image/webp"

	"gamelib/internal/catalog"
)

const probeTimeout = 10 * time.Second

// coverInfo is what probing a cover learned: its pixel size and format, or
// why it could not be read.
type coverInfo struct {
	width, height int
	format        string
	err           error
}

type coverMsg struct {
	path string
	info coverInfo
}

type iconState int

const (
	iconPending iconState = iota
	iconLoaded
	iconFailed
)

type iconMsg struct {
	path string
	ok   bool
}

// coverCache remembers probe results, failures included, so a cover is
// fetched at most once while it stays in the cache.
type coverCache struct {
	done     *lru.Cache[string, coverInfo]
	inflight map[string]bool
}

func newCoverCache(size int) *coverCache {
	if size <= 0 {
		size = 512
	}
	c, _ := lru.New[string, coverInfo](size)
	return &coverCache{done: c, inflight: map[string]bool{}}
}

func (c *coverCache) get(path string) (coverInfo, bool) { return c.done.Get(path) }

func (c *coverCache) loading(path string) bool { return c.inflight[path] }

// claim marks path as being fetched; false means it is cached or already
// in flight.
func (c *coverCache) claim(path string) bool {
	if c.inflight[path] || c.done.Contains(path) {
		return false
	}
	c.inflight[path] = true
	return true
}

func (c *coverCache) store(path string, info coverInfo) {
	delete(c.inflight, path)
	c.done.Add(path, info)
}

// probeCovers starts loading the covers of the given item positions.
func (m *Model) probeCovers(ids []int) tea.Cmd {
	items := m.items()
	var cmds []tea.Cmd
	for _, id := range ids {
		if id < 0 || id >= len(items) {
			continue
		}
		p := m.resolver.Resolve(items[id].CoverKey())
		if p == m.resolver.Placeholder() || !m.covers.claim(p) {
			continue
		}
		cmds = append(cmds, probeCover(m.opts.Context, m.src, p))
	}
	return tea.Batch(cmds...)
}

func probeCover(ctx context.Context, src catalog.Source, p string) tea.Cmd {
	return func() tea.Msg {
		return coverMsg{path: p, info: decodeHeader(ctx, src, p)}
	}
}

// decodeHeader reads only as much of the image as its header needs.
func decodeHeader(ctx context.Context, src catalog.Source, p string) coverInfo {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	rc, err := src.Open(ctx, p)
	if err != nil {
		return coverInfo{err: err}
	}
	defer rc.Close()

	cfg, format, err := image.DecodeConfig(rc)
	if err != nil {
		return coverInfo{err: err}
	}
	return coverInfo{width: cfg.Width, height: cfg.Height, format: format}
}

// iconPath is where a console icon lives inside the site.
func iconPath(icon string) string { return path.Join("icons", icon) }

// probeIcons checks every styled console's icon once. Icons that fail are
// dropped and the console renders without one.
func (m *Model) probeIcons() []tea.Cmd {
	var cmds []tea.Cmd
	for _, console := range m.consoles[1:] {
		st, ok := m.settings.Style(console)
		if !ok {
			continue
		}
		m.styles[console] = newConsoleStyle(st.Color, st.Icon)
		if st.Icon == "" {
			continue
		}
		p := iconPath(st.Icon)
		if _, seen := m.icons[p]; seen {
			continue
		}
		m.icons[p] = iconPending
		src, ctx := m.src, m.opts.Context
		cmds = append(cmds, func() tea.Msg {
			info := decodeHeader(ctx, src, p)
			return iconMsg{path: p, ok: info.err == nil}
		})
	}
	return cmds
}
