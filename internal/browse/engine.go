package browse

import (
	"bytes"
	"math/rand/v2"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"gamelib/internal/catalog"
	"gamelib/internal/cover"
)

// DefaultGridSearchThreshold is the search length from which the grid stops
// hiding cover-less entries.
const DefaultGridSearchThreshold = 2

type Options struct {
	// GridSearchThreshold: searches at least this many characters long show
	// every match in the grid, covered or not.
	GridSearchThreshold int
	// Locale drives title collation; empty means the root locale.
	Locale string
	// Shuffle permutes n items for random sort. Defaults to math/rand/v2.
	Shuffle func(n int, swap func(i, j int))
}

// Engine turns a Query into a View over one immutable catalog. Sort keys,
// folded titles and cover presence are computed once up front so each
// Compute is a filter plus an O(n log n) sort.
type Engine struct {
	cat  *catalog.Catalog
	opts Options
	fold cases.Caser

	folded      []string
	labelKeys   [][]byte
	consoleKeys [][]byte
	covered     []bool
}

func NewEngine(cat *catalog.Catalog, resolver *cover.Resolver, opts Options) *Engine {
	if opts.GridSearchThreshold <= 0 {
		opts.GridSearchThreshold = DefaultGridSearchThreshold
	}
	if opts.Shuffle == nil {
		opts.Shuffle = rand.Shuffle
	}

	e := &Engine{cat: cat, opts: opts, fold: cases.Fold()}

	tag := language.Und
	if opts.Locale != "" {
		tag = language.Make(opts.Locale)
	}
	coll := collate.New(tag, collate.IgnoreCase)
	var buf collate.Buffer

	n := cat.Len()
	e.folded = make([]string, n)
	e.labelKeys = make([][]byte, n)
	e.consoleKeys = make([][]byte, n)
	e.covered = make([]bool, n)
	consoleKey := map[string][]byte{}
	for i := 0; i < n; i++ {
		entry := cat.At(i)
		e.folded[i] = e.fold.String(entry.Title)
		e.labelKeys[i] = bytes.Clone(coll.KeyFromString(&buf, entry.Label()))
		buf.Reset()
		k, ok := consoleKey[entry.Console]
		if !ok {
			k = bytes.Clone(coll.KeyFromString(&buf, entry.Console))
			buf.Reset()
			consoleKey[entry.Console] = k
		}
		e.consoleKeys[i] = k
		e.covered[i] = resolver == nil || resolver.HasCover(entry.CoverKey())
	}
	return e
}

func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// Compute applies q to the catalog. The returned View is never modified
// afterwards.
func (e *Engine) Compute(q Query) *View {
	positions := e.filter(q)
	e.order(positions, q.Sort)

	v := &View{Query: q, Entries: e.entries(positions)}
	total := e.cat.Len()

	if q.View == ViewGrid {
		if utf8.RuneCountInString(strings.TrimSpace(q.Search)) >= e.opts.GridSearchThreshold {
			v.Grid = v.Entries
		} else {
			grid := make([]*catalog.Entry, 0, len(positions))
			for _, p := range positions {
				if e.covered[p] {
					grid = append(grid, e.cat.At(p))
				}
			}
			v.Grid = grid
		}
		v.Status = Status{Visible: len(v.Grid), Total: total, Hidden: len(v.Entries) - len(v.Grid)}
	} else {
		v.Status = Status{Visible: len(v.Entries), Total: total}
	}

	if q.View == ViewList && q.Sort == SortTitle {
		v.Letters = BuildLetterIndex(v.Entries)
	}
	return v
}

func (e *Engine) filter(q Query) []int {
	positions := make([]int, 0, e.cat.Len())
	for i := 0; i < e.cat.Len(); i++ {
		if q.Console != "" && e.cat.At(i).Console != q.Console {
			continue
		}
		positions = append(positions, i)
	}

	needle := e.fold.String(strings.TrimSpace(q.Search))
	if needle == "" {
		return positions
	}

	switch q.Match {
	case MatchFuzzy:
		titles := make([]string, len(positions))
		for i, p := range positions {
			titles[i] = e.folded[p]
		}
		matches := fuzzy.Find(needle, titles)
		kept := make([]int, 0, len(matches))
		for _, m := range matches {
			kept = append(kept, positions[m.Index])
		}
		return kept
	case MatchPrefix:
		kept := positions[:0]
		for _, p := range positions {
			if strings.HasPrefix(e.folded[p], needle) {
				kept = append(kept, p)
			}
		}
		return kept
	default:
		kept := positions[:0]
		for _, p := range positions {
			if strings.Contains(e.folded[p], needle) {
				kept = append(kept, p)
			}
		}
		return kept
	}
}

func (e *Engine) order(positions []int, mode SortMode) {
	switch mode {
	case SortRandom:
		e.opts.Shuffle(len(positions), func(i, j int) {
			positions[i], positions[j] = positions[j], positions[i]
		})
	case SortConsole:
		slices.SortFunc(positions, func(a, b int) int {
			if c := bytes.Compare(e.consoleKeys[a], e.consoleKeys[b]); c != 0 {
				return c
			}
			return e.compareLabels(a, b)
		})
	default:
		slices.SortFunc(positions, e.compareLabels)
	}
}

// compareLabels is a total order: collation key, then raw label, then
// catalog position.
func (e *Engine) compareLabels(a, b int) int {
	if c := bytes.Compare(e.labelKeys[a], e.labelKeys[b]); c != 0 {
		return c
	}
	if c := strings.Compare(e.cat.At(a).Label(), e.cat.At(b).Label()); c != 0 {
		return c
	}
	return a - b
}

func (e *Engine) entries(positions []int) []*catalog.Entry {
	out := make([]*catalog.Entry, len(positions))
	for i, p := range positions {
		out[i] = e.cat.At(p)
	}
	return out
}
