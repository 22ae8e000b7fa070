package cover

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Index is the precomputed cover lookup written by the builder as
// coverIndex.json. Both halves are keyed by console folder key first.
type Index struct {
	BySerial map[string]map[string]string `json:"bySerial"`
	ByTitle  map[string]map[string]string `json:"byTitle"`
}

func NewIndex() *Index {
	return &Index{
		BySerial: map[string]map[string]string{},
		ByTitle:  map[string]map[string]string{},
	}
}

// ParseIndex decodes a coverIndex.json document.
func ParseIndex(r io.Reader) (*Index, error) {
	ix := NewIndex()
	if err := json.NewDecoder(r).Decode(ix); err != nil {
		return nil, fmt.Errorf("decode cover index: %w", err)
	}
	if ix.BySerial == nil {
		ix.BySerial = map[string]map[string]string{}
	}
	if ix.ByTitle == nil {
		ix.ByTitle = map[string]map[string]string{}
	}
	return ix, nil
}

// Add records path under the serial and normalized title. The first mapping
// for a key wins; later duplicates are ignored.
func (ix *Index) Add(consoleKey, serial, normTitle, path string) {
	if consoleKey == "" || path == "" {
		return
	}
	serials := bucket(ix.BySerial, consoleKey)
	titles := bucket(ix.ByTitle, consoleKey)

	if s := strings.ToUpper(strings.TrimSpace(serial)); s != "" {
		if _, ok := serials[s]; !ok {
			serials[s] = path
		}
	}
	if normTitle != "" {
		if _, ok := titles[normTitle]; !ok {
			titles[normTitle] = path
		}
	}
}

func (ix *Index) serial(consoleKey, serial string) (string, bool) {
	p, ok := ix.BySerial[consoleKey][serial]
	return p, ok
}

func (ix *Index) title(consoleKey, normTitle string) (string, bool) {
	p, ok := ix.ByTitle[consoleKey][normTitle]
	return p, ok
}

// Len is the number of serial and title mappings across all consoles.
func (ix *Index) Len() int {
	n := 0
	for _, m := range ix.BySerial {
		n += len(m)
	}
	for _, m := range ix.ByTitle {
		n += len(m)
	}
	return n
}

func bucket(m map[string]map[string]string, key string) map[string]string {
	b, ok := m[key]
	if !ok {
		b = map[string]string{}
		m[key] = b
	}
	return b
}
