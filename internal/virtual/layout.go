package virtual

import "math"

// Placement positions one materialized item inside the full-height spacer.
type Placement struct {
	Index         int
	X, Y          float64
	Width, Height float64
}

// Frame is the renderer's output: the index range to materialize, where the
// window sits, and how tall the spacer must be so scrollbars reflect the
// whole list.
type Frame struct {
	Count         int
	Start, End    int // [Start, End)
	Columns       int
	RowHeight     float64
	ContentHeight float64
	WindowOffset  float64
	Items         []Placement
}

// List lays out count fixed-height rows.
func List(count int, g ListGeometry, vp Viewport) Frame {
	h := g.RowHeight
	if h <= 0 {
		h = 1
	}
	f := Frame{Count: count, Columns: 1, RowHeight: h, ContentHeight: float64(count) * h}
	if count <= 0 {
		return f
	}

	off := math.Max(vp.Offset, 0)
	f.Start = clamp(int(math.Floor(off/h))-g.Overscan, 0, count)
	f.End = clamp(int(math.Ceil((off+vp.Height)/h))+g.Overscan, f.Start, count)
	f.WindowOffset = float64(f.Start) * h

	f.Items = make([]Placement, 0, f.End-f.Start)
	for i := f.Start; i < f.End; i++ {
		f.Items = append(f.Items, Placement{Index: i, Y: float64(i) * h, Width: vp.Width, Height: h})
	}
	return f
}

// Grid lays out count tiles in as many columns as fit the viewport width.
func Grid(count int, g GridGeometry, vp Viewport) Frame {
	cols := g.Columns(vp.Width)
	rowH := g.RowHeight()
	if rowH <= 0 {
		rowH = 1
	}
	rows := (count + cols - 1) / cols
	f := Frame{Count: count, Columns: cols, RowHeight: rowH, ContentHeight: float64(rows) * rowH}
	if count <= 0 {
		return f
	}

	off := math.Max(vp.Offset, 0)
	startRow := clamp(int(math.Floor(off/rowH))-g.Overscan, 0, rows-1)
	endRow := clamp(int(math.Ceil((off+vp.Height)/rowH))+g.Overscan, startRow, rows)
	f.Start = startRow * cols
	f.End = min(count, endRow*cols)
	f.WindowOffset = float64(startRow) * rowH

	tileH := g.TileHeight()
	f.Items = make([]Placement, 0, f.End-f.Start)
	for i := f.Start; i < f.End; i++ {
		row, col := i/cols, i%cols
		f.Items = append(f.Items, Placement{
			Index:  i,
			X:      float64(col) * (g.TileWidth + g.Gap),
			Y:      float64(row) * rowH,
			Width:  g.TileWidth,
			Height: tileH,
		})
	}
	return f
}

// OffsetFor is the scroll offset that puts index at the top of the viewport.
func (f Frame) OffsetFor(index int) float64 {
	if f.Columns <= 0 {
		return 0
	}
	return float64(index/f.Columns) * f.RowHeight
}

// MaxOffset is the furthest the content can scroll for a viewport height.
func (f Frame) MaxOffset(height float64) float64 {
	return math.Max(f.ContentHeight-height, 0)
}

// ClampOffset keeps offset inside [0, MaxOffset].
func (f Frame) ClampOffset(offset, height float64) float64 {
	return math.Min(math.Max(offset, 0), f.MaxOffset(height))
}

// Reveal returns the smallest scroll change from offset that makes the row
// holding index fully visible.
func (f Frame) Reveal(index int, offset, height float64) float64 {
	top := f.OffsetFor(index)
	bottom := top + f.RowHeight
	switch {
	case top < offset:
		return top
	case bottom > offset+height:
		return f.ClampOffset(bottom-height, height)
	}
	return offset
}

// Visible reports the index range actually inside the viewport, without
// overscan.
func (f Frame) Visible(vp Viewport) (start, end int) {
	if f.Count == 0 || f.RowHeight <= 0 {
		return 0, 0
	}
	rows := (f.Count + f.Columns - 1) / f.Columns
	off := math.Max(vp.Offset, 0)
	firstRow := clamp(int(math.Floor(off/f.RowHeight)), 0, rows-1)
	lastRow := clamp(int(math.Ceil((off+vp.Height)/f.RowHeight)), firstRow, rows)
	return firstRow * f.Columns, min(f.Count, lastRow*f.Columns)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
