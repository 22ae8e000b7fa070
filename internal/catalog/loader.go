package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"gamelib/internal/cover"
)

// Document names inside a site.
const (
	GamesFile      = "games.json"
	ConfigFile     = "config.json"
	CoverIndexFile = "coverIndex.json"
)

// ErrCatalog marks a fatal catalog load failure. Nothing partial is
// returned alongside it.
var ErrCatalog = errors.New("failed to load games.json")

// Result is everything the browser needs from a site.
type Result struct {
	Catalog    *Catalog
	Covers     *cover.Index // nil when coverIndex.json is unavailable
	Visibility Visibility
	// Dropped counts catalog elements rejected as malformed or hidden by
	// the visibility policy.
	Dropped  int
	Warnings []error
}

// Loader reads config.json, games.json and coverIndex.json from a Source,
// each exactly once.
type Loader struct {
	src Source
	log zerolog.Logger
}

func NewLoader(src Source, log zerolog.Logger) *Loader {
	return &Loader{src: src, log: log}
}

// Load runs the three fetches in order. Only the catalog is required.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	res := &Result{Visibility: ShowAll()}

	if vis, err := l.loadVisibility(ctx); err != nil {
		l.log.Warn().Err(err).Msg("no usable config.json; showing all consoles")
		res.Warnings = append(res.Warnings, err)
	} else {
		res.Visibility = vis
	}

	entries, dropped, err := l.loadEntries(ctx, res.Visibility)
	if err != nil {
		l.log.Error().Err(err).Str("source", l.src.String()).Msg("catalog load failed")
		return nil, err
	}
	res.Catalog = New(entries)
	res.Dropped = dropped

	if ix, err := l.loadCovers(ctx); err != nil {
		l.log.Warn().Err(err).Msg("no usable coverIndex.json; every entry counts as covered")
		res.Warnings = append(res.Warnings, err)
	} else {
		res.Covers = ix
	}

	l.log.Info().
		Int("entries", res.Catalog.Len()).
		Int("dropped", res.Dropped).
		Bool("covers", res.Covers != nil).
		Msg("catalog loaded")
	return res, nil
}

func (l *Loader) loadVisibility(ctx context.Context) (Visibility, error) {
	doc, err := l.read(ctx, ConfigFile)
	if err != nil {
		return ShowAll(), err
	}
	return ParseVisibility(doc)
}

func (l *Loader) loadEntries(ctx context.Context, vis Visibility) ([]Entry, int, error) {
	doc, err := l.read(ctx, GamesFile)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrCatalog, err)
	}
	entries, dropped, err := ParseEntries(doc)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrCatalog, err)
	}
	if !vis.Restricted() {
		return entries, dropped, nil
	}
	kept := entries[:0]
	for _, e := range entries {
		if vis.Visible(e.Console) {
			kept = append(kept, e)
		} else {
			dropped++
		}
	}
	return kept, dropped, nil
}

func (l *Loader) loadCovers(ctx context.Context) (*cover.Index, error) {
	rc, err := l.src.Open(ctx, CoverIndexFile)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", CoverIndexFile, err)
	}
	defer rc.Close()
	return cover.ParseIndex(rc)
}

func (l *Loader) read(ctx context.Context, name string) ([]byte, error) {
	rc, err := l.src.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	defer rc.Close()
	doc, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return doc, nil
}

// ParseEntries decodes a games.json array. Elements are decoded one by one
// so a malformed record only costs itself; the document itself must be an
// array.
func ParseEntries(doc []byte) ([]Entry, int, error) {
	if trimmed := bytes.TrimSpace(doc); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, 0, errors.New("games.json must be an array")
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, 0, fmt.Errorf("games.json must be an array: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	dropped := 0
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal(item, &e); err != nil || !e.valid() {
			dropped++
			continue
		}
		entries = append(entries, e)
	}
	return entries, dropped, nil
}
