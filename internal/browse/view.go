package browse

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"gamelib/internal/catalog"
)

// View is one computed result: the filtered, ordered entries plus the
// derived grid subset, letter index and status counts.
type View struct {
	Query   Query
	Entries []*catalog.Entry
	// Grid is the subset shown in grid mode; nil in list mode.
	Grid []*catalog.Entry
	// Letters is set only for title-sorted list views.
	Letters *LetterIndex
	Status  Status
}

// Items is what the renderer should lay out for the view's mode.
func (v *View) Items() []*catalog.Entry {
	if v.Query.View == ViewGrid {
		return v.Grid
	}
	return v.Entries
}

type Status struct {
	Visible int
	Total   int
	// Hidden counts matches left out of the grid for lacking a cover.
	Hidden int
}

func (s Status) String() string {
	out := fmt.Sprintf("%s / %s shown", humanize.Comma(int64(s.Visible)), humanize.Comma(int64(s.Total)))
	if s.Hidden > 0 {
		out += fmt.Sprintf(" (%s without cover hidden)", humanize.Comma(int64(s.Hidden)))
	}
	return out
}
