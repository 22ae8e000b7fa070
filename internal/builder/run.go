// Package builder produces the browser's static inputs: games.json from the
// per-system index files (or legacy text lists) and docs/coverIndex.json
// from the same index files or a walk of the Covers/ tree.
package builder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"gamelib/internal/catalog"
)

// ErrNoCovers is returned when the Covers/ folder is missing.
var ErrNoCovers = errors.New("covers folder not found")

// Options locates the inputs and outputs of a build. Empty paths default to
// the site layout under Root.
type Options struct {
	Root      string
	IndexDir  string
	CoversDir string
	ListsDir  string
	GamesOut  string
	CoversOut string
	// Manifest, when set, records every cover image in this sqlite file.
	Manifest string
	Hash     bool
}

func (o Options) withDefaults() Options {
	if o.Root == "" {
		o.Root = "."
	}
	def := func(p *string, rel ...string) {
		if *p == "" {
			*p = filepath.Join(append([]string{o.Root}, rel...)...)
		}
	}
	def(&o.IndexDir, "lists", "Indexs")
	def(&o.CoversDir, "Covers")
	def(&o.ListsDir, "lists")
	def(&o.GamesOut, catalog.GamesFile)
	def(&o.CoversOut, "docs", catalog.CoverIndexFile)
	return o
}

// Progress is reported while a build runs.
type Progress struct {
	Stage   string
	Done    int64
	Total   int64
	Folders int64
	Bytes   int64
	Last    string
}

// Summary is what a finished build reports.
type Summary struct {
	Kind     string
	Output   string
	Source   string
	Entries  int
	Skipped  int
	Manifest *ManifestSummary
	Elapsed  time.Duration
}

// Rows renders the summary as label/value pairs for display.
func (s *Summary) Rows() [][2]string {
	rows := [][2]string{
		{"Output", s.Output},
		{"Source", s.Source},
		{"Entries", humanize.Comma(int64(s.Entries))},
	}
	if s.Skipped > 0 {
		rows = append(rows, [2]string{"Skipped", humanize.Comma(int64(s.Skipped))})
	}
	if m := s.Manifest; m != nil {
		rows = append(rows,
			[2]string{"Manifest run", m.RunID},
			[2]string{"Images", humanize.Comma(m.Files)},
			[2]string{"Image bytes", humanize.Bytes(uint64(m.Bytes))},
		)
	}
	rows = append(rows, [2]string{"Elapsed", s.Elapsed.Round(time.Millisecond).String()})
	return rows
}

// Games writes games.json from the index files.
func Games(ctx context.Context, opts Options, log zerolog.Logger, progress func(Progress)) (*Summary, error) {
	opts = opts.withDefaults()
	start := time.Now()
	notify(progress, Progress{Stage: "scan", Last: opts.IndexDir})

	files, err := ScanIndexes(opts.IndexDir, log)
	if err != nil {
		return nil, err
	}
	entries, stats := BuildGames(files)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := writeJSON(opts.GamesOut, entries); err != nil {
		return nil, err
	}
	log.Info().
		Int("games", stats.Written).
		Int("duplicates", stats.Duplicates).
		Int("untitled", stats.Untitled).
		Str("out", opts.GamesOut).
		Msg("wrote games")

	return &Summary{
		Kind:    "games",
		Output:  opts.GamesOut,
		Source:  opts.IndexDir,
		Entries: stats.Written,
		Skipped: stats.Duplicates + stats.Untitled,
		Elapsed: time.Since(start),
	}, nil
}

// Lists writes games.json from legacy <Console>.txt lists.
func Lists(ctx context.Context, opts Options, log zerolog.Logger, progress func(Progress)) (*Summary, error) {
	opts = opts.withDefaults()
	start := time.Now()
	notify(progress, Progress{Stage: "scan", Last: opts.ListsDir})

	entries, stats, err := ParseTextLists(opts.ListsDir, log)
	if err != nil {
		return nil, err
	}
	if stats.Files == 0 {
		return nil, fmt.Errorf("no .txt lists found in %s", opts.ListsDir)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := writeJSON(opts.GamesOut, entries); err != nil {
		return nil, err
	}
	log.Info().Int("games", stats.Written).Int("lists", stats.Files).Str("out", opts.GamesOut).Msg("wrote games")

	return &Summary{
		Kind:    "lists",
		Output:  opts.GamesOut,
		Source:  opts.ListsDir,
		Entries: stats.Written,
		Skipped: stats.Duplicates + stats.NoSerial,
		Elapsed: time.Since(start),
	}, nil
}

// Covers writes the cover index. Index files are preferred; without any
// usable one the Covers/ tree is walked instead.
func Covers(ctx context.Context, opts Options, log zerolog.Logger, progress func(Progress)) (*Summary, error) {
	opts = opts.withDefaults()
	start := time.Now()
	if !isDir(opts.CoversDir) {
		return nil, fmt.Errorf("%w: %s", ErrNoCovers, opts.CoversDir)
	}
	notify(progress, Progress{Stage: "scan", Last: opts.IndexDir})

	sum := &Summary{Kind: "covers", Output: opts.CoversOut}

	files, err := ScanIndexes(opts.IndexDir, log)
	if err != nil && !errors.Is(err, ErrNoIndexes) {
		return nil, err
	}
	ix, ok := CoverIndexFromIndexes(files, opts.CoversDir)
	if ok {
		sum.Source = opts.IndexDir
		log.Info().Str("dir", opts.IndexDir).Msg("building cover index from index files")
	} else {
		sum.Source = opts.CoversDir
		log.Info().Str("dir", opts.CoversDir).Msg("scanning covers")
		notify(progress, Progress{Stage: "walk", Last: opts.CoversDir})
		ix, err = CoverIndexFromDir(opts.Root, opts.CoversDir, nil)
		if err != nil {
			return nil, err
		}
	}
	sum.Entries = ix.Len()

	if err := writeJSON(opts.CoversOut, ix); err != nil {
		return nil, err
	}
	log.Info().Int("mappings", sum.Entries).Str("out", opts.CoversOut).Msg("wrote cover index")

	if opts.Manifest != "" {
		m, err := RecordManifest(ctx, opts.CoversDir, opts.Manifest, ManifestOptions{
			Exts:      CoverExts,
			Hash:      opts.Hash,
			Estimated: CountFiles(opts.CoversDir, CoverExts),
		}, progress)
		if err != nil {
			return nil, fmt.Errorf("cover manifest: %w", err)
		}
		log.Info().Str("run", m.RunID).Int64("images", m.Files).Str("db", opts.Manifest).Msg("recorded cover manifest")
		sum.Manifest = m
	}

	sum.Elapsed = time.Since(start)
	return sum, nil
}

func notify(progress func(Progress), p Progress) {
	if progress != nil {
		progress(p)
	}
}

// writeJSON writes v indented by two spaces, creating parent folders.
// Non-ASCII and HTML characters are written as-is.
func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
