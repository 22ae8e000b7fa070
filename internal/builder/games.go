package builder

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"gamelib/internal/catalog"
	"gamelib/internal/cover"
)

// ConsoleDisplayName picks the console name shown in games.json from the
// index meta.system, falling back to the system folder prefix. It returns
// "" when neither identifies a console.
func ConsoleDisplayName(system, folder string) string {
	sys := strings.ToLower(strings.TrimSpace(system))
	folder = strings.ToLower(folder)

	for _, c := range displayNames {
		if sys == c.system || strings.HasPrefix(folder, c.folder) {
			return c.name
		}
	}
	return strings.TrimSpace(system)
}

// Order matters: "gba" must be tested before "gb".
var displayNames = []struct{ system, folder, name string }{
	{"nds", "ds", "DS"},
	{"gc", "gc", "GameCube"},
	{"wii", "wii", "Wii"},
	{"ps2", "ps2", "PS2"},
	{"ps1", "ps1", "PS1"},
	{"n64", "n64", "N64"},
	{"nes", "nes", "NES"},
	{"snes", "snes", "SNES"},
	{"gba", "gba", "GBA"},
	{"gb", "gb", "GB"},
	{"atari 2600", "atari_2600", "Atari 2600"},
}

// ConsoleTag is the short code shown in brackets after a title.
func ConsoleTag(system, fallback string) string {
	sys := strings.TrimSpace(system)
	switch strings.ToLower(sys) {
	case "nds":
		return "DS"
	case "atari 2600":
		return "2600"
	}
	if sys != "" {
		return sys
	}
	return strings.TrimSpace(fallback)
}

// IsRealSerialSystem reports whether an index's ids are real product codes
// (PS1/PS2 serials, Wii/GameCube game ids) rather than checksums.
func IsRealSerialSystem(idType string) bool {
	t := strings.ToLower(strings.TrimSpace(idType))
	return t == "serial" || t == "game_id"
}

// GameStats counts what BuildGames kept and why it dropped the rest.
type GameStats struct {
	Written    int
	Duplicates int
	Untitled   int
}

// BuildGames flattens index files into catalog entries. Real-serial systems
// dedupe on console and id and keep the id for cover lookup; the rest dedupe
// on console and normalized title. The result is sorted by console then
// title.
func BuildGames(files []IndexFile) ([]catalog.Entry, GameStats) {
	var (
		out   = []catalog.Entry{}
		stats GameStats
		seen  = map[string]bool{}
	)

	for _, f := range files {
		console := ConsoleDisplayName(f.Meta.System, f.Folder)
		if console == "" {
			continue
		}
		tag := ConsoleTag(f.Meta.System, console)
		realSerials := IsRealSerialSystem(f.Meta.IDType)

		for _, g := range f.Games {
			raw := g.DisplayTitle
			if raw == "" {
				raw = cover.StripTrailingBracketSerial(g.DatTitle)
			}
			if raw == "" {
				raw = strings.TrimSpace(g.DatTitle)
			}
			title := cover.StripParenGroups(raw)
			if title == "" {
				stats.Untitled++
				continue
			}

			key := console + "|" + cover.NormalizeTitle(title)
			if realSerials && g.ID != "" {
				key = console + "|" + g.ID
			}
			if seen[key] {
				stats.Duplicates++
				continue
			}
			seen[key] = true

			e := catalog.Entry{
				Title:   title,
				Console: console,
				Serial:  tag,
				Display: title + " [" + tag + "]",
			}
			if realSerials {
				e.ID = g.ID
			}
			out = append(out, e)
		}
	}

	sortEntries(out, func(e *catalog.Entry) string { return e.Title })
	stats.Written = len(out)
	return out, stats
}

// sortEntries orders entries by console, then by the given title key, using
// root-locale collation. The sort is stable so equal keys keep input order.
func sortEntries(entries []catalog.Entry, title func(*catalog.Entry) string) {
	coll := collate.New(language.Und)
	slices.SortStableFunc(entries, func(a, b catalog.Entry) int {
		if c := coll.CompareString(a.Console, b.Console); c != 0 {
			return c
		}
		return coll.CompareString(title(&a), title(&b))
	})
}
