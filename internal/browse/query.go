package browse

import (
	"fmt"
	"strings"
)

type SortMode string

const (
	SortTitle   SortMode = "title"
	SortConsole SortMode = "console"
	SortRandom  SortMode = "random"
)

type ViewMode string

const (
	ViewList ViewMode = "list"
	ViewGrid ViewMode = "grid"
)

// MatchMode is how the search text is tested against a title.
type MatchMode string

const (
	MatchContains MatchMode = "contains"
	MatchPrefix   MatchMode = "prefix"
	MatchFuzzy    MatchMode = "fuzzy"
)

// Query is the user's current browse state. An empty Console means all
// consoles.
type Query struct {
	Search  string
	Console string
	Sort    SortMode
	View    ViewMode
	Match   MatchMode
}

func DefaultQuery() Query {
	return Query{Sort: SortTitle, View: ViewList, Match: MatchContains}
}

var sortOrder = []SortMode{SortTitle, SortConsole, SortRandom}

// Next cycles title -> console -> random -> title.
func (s SortMode) Next() SortMode {
	for i, m := range sortOrder {
		if m == s {
			return sortOrder[(i+1)%len(sortOrder)]
		}
	}
	return SortTitle
}

func ParseSortMode(s string) (SortMode, error) {
	switch m := SortMode(strings.ToLower(strings.TrimSpace(s))); m {
	case SortTitle, SortConsole, SortRandom:
		return m, nil
	}
	return "", fmt.Errorf("unknown sort mode %q (want title, console or random)", s)
}

func ParseViewMode(s string) (ViewMode, error) {
	switch m := ViewMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ViewList, ViewGrid:
		return m, nil
	}
	return "", fmt.Errorf("unknown view mode %q (want list or grid)", s)
}

func ParseMatchMode(s string) (MatchMode, error) {
	switch m := MatchMode(strings.ToLower(strings.TrimSpace(s))); m {
	case MatchContains, MatchPrefix, MatchFuzzy:
		return m, nil
	case "":
		return MatchContains, nil
	}
	return "", fmt.Errorf("unknown match mode %q (want contains, prefix or fuzzy)", s)
}
