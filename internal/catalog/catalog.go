package catalog

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Catalog is the immutable, validated set of entries for a session.
type Catalog struct {
	entries  []Entry
	consoles []string
}

// New builds a catalog from already validated entries. The slice is owned by
// the catalog afterwards.
func New(entries []Entry) *Catalog {
	c := &Catalog{entries: entries}
	c.consoles = uniqueConsoles(entries)
	return c
}

func (c *Catalog) Len() int { return len(c.entries) }

// At returns a pointer into the catalog; callers must not modify it.
func (c *Catalog) At(i int) *Entry { return &c.entries[i] }

// Consoles lists the distinct console names in collation order.
func (c *Catalog) Consoles() []string {
	out := make([]string, len(c.consoles))
	copy(out, c.consoles)
	return out
}

func uniqueConsoles(entries []Entry) []string {
	seen := map[string]struct{}{}
	var out []string
	for i := range entries {
		name := entries[i].Console
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	collate.New(language.Und).SortStrings(out)
	return out
}
