package browse

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"gamelib/internal/catalog"
)

// Buckets is the jump bar in display order.
const Buckets = "#ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// LetterIndex maps a jump bucket to the first position whose label starts
// with it.
type LetterIndex struct {
	first map[rune]int
}

// BuildLetterIndex scans entries once, recording the lowest position per
// bucket. It only makes sense for title-sorted input.
func BuildLetterIndex(entries []*catalog.Entry) *LetterIndex {
	li := &LetterIndex{first: make(map[rune]int, len(Buckets))}
	for i, e := range entries {
		b, ok := Bucket(e.Label())
		if !ok {
			continue
		}
		if _, seen := li.first[b]; !seen {
			li.first[b] = i
		}
	}
	return li
}

// Bucket classifies the first character of label: digits go to '#',
// letters (accents stripped) to their uppercase ASCII form.
func Bucket(label string) (rune, bool) {
	r, size := utf8.DecodeRuneInString(label)
	if size == 0 || r == utf8.RuneError {
		return 0, false
	}
	if unicode.IsDigit(r) {
		return '#', true
	}
	if r >= utf8.RuneSelf {
		base, _ := utf8.DecodeRuneInString(norm.NFD.String(string(r)))
		r = base
	}
	switch {
	case r >= 'a' && r <= 'z':
		return r - 'a' + 'A', true
	case r >= 'A' && r <= 'Z':
		return r, true
	}
	return 0, false
}

func (li *LetterIndex) Position(bucket rune) (int, bool) {
	if li == nil {
		return 0, false
	}
	p, ok := li.first[unicode.ToUpper(bucket)]
	return p, ok
}

func (li *LetterIndex) Has(bucket rune) bool {
	_, ok := li.Position(bucket)
	return ok
}

// Present lists recorded buckets in jump-bar order.
func (li *LetterIndex) Present() []rune {
	var out []rune
	for _, b := range Buckets {
		if li.Has(b) {
			out = append(out, b)
		}
	}
	return out
}
