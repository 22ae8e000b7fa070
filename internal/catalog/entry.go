package catalog

import (
	"strings"

	"gamelib/internal/cover"
)

// Entry is one game record from games.json.
type Entry struct {
	Title   string `json:"title"`
	Console string `json:"console"`
	Serial  string `json:"serial"`
	Display string `json:"display,omitempty"`
	// ID is the real disc/product code kept for cover lookup on consoles
	// whose Serial is only a console tag.
	ID string `json:"id,omitempty"`
}

// Label is the text shown in the list and copied to the clipboard.
func (e *Entry) Label() string {
	if e.Display != "" {
		return e.Display
	}
	return e.Title + " [" + e.Serial + "]"
}

func (e *Entry) CoverKey() cover.Key {
	return cover.Key{Console: e.Console, Title: e.Title, Serial: e.Serial, ID: e.ID}
}

// valid reports whether e may enter the catalog. Entries without a real
// serial, title or console are dropped at load.
func (e *Entry) valid() bool {
	return strings.TrimSpace(e.Serial) != "" &&
		strings.TrimSpace(e.Title) != "" &&
		strings.TrimSpace(e.Console) != ""
}
