package builder

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"gamelib/internal/catalog"
)

// listSerialRe matches a bracketed product code, disc id or short console
// code: [SLUS-20265], [RMCE01], [N64].
var listSerialRe = regexp.MustCompile(`(?i)\[((?:[A-Z]{3,5}-\d{3,6})|(?:[A-Z0-9]{6})|(?:[A-Z0-9]{2,5}))\]`)

// ListStats summarizes a legacy list import.
type ListStats struct {
	Files      int
	Written    int
	Duplicates int
	NoSerial   int
}

// ParseTextList reads one legacy "<Console>.txt" list: one "Title [SERIAL]"
// per line. The console is the file name without extension. Lines without
// a serial are counted in noSerial and left out, since the catalog rejects
// them anyway.
func ParseTextList(path string) (entries []catalog.Entry, noSerial int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	console := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || isDivider(line) {
			continue
		}

		var serial string
		if m := listSerialRe.FindStringSubmatch(line); m != nil {
			serial = m[1]
		}
		title := strings.Join(strings.Fields(listSerialRe.ReplaceAllString(line, "")), " ")
		if title == "" {
			continue
		}
		if serial == "" {
			noSerial++
			continue
		}
		entries = append(entries, catalog.Entry{Title: title, Console: console, Serial: serial, Display: line})
	}
	return entries, noSerial, sc.Err()
}

func isDivider(line string) bool {
	return strings.Trim(line, "-=_*") == ""
}

// ParseTextLists imports every *.txt list in dir, dedupes on console, serial
// and lowercase title (so games sharing a console code all stay) and sorts
// by console then lowercase title.
func ParseTextLists(dir string, log zerolog.Logger) ([]catalog.Entry, ListStats, error) {
	var stats ListStats
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, stats, err
	}

	var all []catalog.Entry
	for _, p := range paths {
		entries, noSerial, err := ParseTextList(p)
		if err != nil {
			log.Warn().Err(err).Str("file", p).Msg("skipping unreadable list")
			continue
		}
		stats.Files++
		stats.NoSerial += noSerial
		log.Info().Int("games", len(entries)).Str("file", filepath.Base(p)).Msg("parsed list")
		all = append(all, entries...)
	}

	seen := map[string]bool{}
	out := make([]catalog.Entry, 0, len(all))
	for _, e := range all {
		key := e.Console + "\x00" + e.Serial + "\x00" + strings.ToLower(e.Title)
		if seen[key] {
			stats.Duplicates++
			continue
		}
		seen[key] = true
		out = append(out, e)
	}

	sortEntries(out, func(e *catalog.Entry) string { return strings.ToLower(e.Title) })
	stats.Written = len(out)
	return out, stats, nil
}
