package virtual

import "math"

// Cover art is 512x736; grid tiles keep that shape.
const (
	CoverAspectW = 512
	CoverAspectH = 736
)

const (
	DefaultListOverscan = 8
	DefaultGridOverscan = 4
)

// Viewport is the visible window over the scrollable content. Units are
// whatever the presentation layer measures in (pixels, terminal cells).
type Viewport struct {
	Offset float64
	Width  float64
	Height float64
}

type ListGeometry struct {
	RowHeight float64
	Overscan  int
}

type GridGeometry struct {
	TileWidth float64
	// AspectW:AspectH is the artwork ratio; zero means the cover ratio.
	AspectW, AspectH float64
	Gap              float64
	// CaptionHeight is added below the artwork for the title line(s).
	CaptionHeight float64
	// VerticalScale compensates for non-square units: 1 for pixels, about
	// 0.5 for terminal cells that are twice as tall as they are wide.
	VerticalScale float64
	// Snap rounds the tile height to whole units so rows land on cell
	// boundaries.
	Snap     bool
	Overscan int
}

// TileHeight is the artwork height derived from the width plus the caption.
func (g GridGeometry) TileHeight() float64 {
	aw, ah := g.AspectW, g.AspectH
	if aw <= 0 || ah <= 0 {
		aw, ah = CoverAspectW, CoverAspectH
	}
	scale := g.VerticalScale
	if scale <= 0 {
		scale = 1
	}
	h := g.TileWidth*ah/aw*scale + g.CaptionHeight
	if g.Snap {
		return math.Round(h)
	}
	return h
}

// RowHeight is the vertical pitch of one grid row.
func (g GridGeometry) RowHeight() float64 { return g.TileHeight() + g.Gap }

// Columns is how many tiles fit across width; never less than one.
func (g GridGeometry) Columns(width float64) int {
	if g.TileWidth <= 0 {
		return 1
	}
	cols := int((width + g.Gap) / (g.TileWidth + g.Gap))
	if cols < 1 {
		return 1
	}
	return cols
}
