// Package layout computes near-square grid placements for pages.
package layout

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultUsageRatio  = 0.8
	DefaultMinCellSize = 100
)

// ErrLayoutTooSmall is returned when a cell would fall below the minimum usable size.
var ErrLayoutTooSmall = errors.New("layout too small")

// Grid describes the shape computed for a page count.
type Grid struct {
	Cols       int
	Rows       int
	CellWidth  int
	CellHeight int
	OffsetX    int
	OffsetY    int
}

// Planner maps a page count and viewport to one rectangle per page.
type Planner struct {
	UsageRatio  float64
	MinCellSize int
}

func NewPlanner(usageRatio float64, minCellSize int) *Planner {
	if usageRatio <= 0 || usageRatio > 1 {
		usageRatio = DefaultUsageRatio
	}
	if minCellSize <= 0 {
		minCellSize = DefaultMinCellSize
	}
	return &Planner{UsageRatio: usageRatio, MinCellSize: minCellSize}
}

// Shape computes the grid for count pages. count must be positive.
func (p *Planner) Shape(count int, vp Viewport) (Grid, error) {
	if count <= 0 {
		return Grid{}, fmt.Errorf("invalid page count: %d", count)
	}

	cols := int(math.Ceil(math.Sqrt(float64(count))))
	rows := (count + cols - 1) / cols

	cellW := int(math.Floor(float64(vp.Width) * p.UsageRatio / float64(cols)))
	cellH := int(math.Floor(float64(vp.Height) * p.UsageRatio / float64(rows)))

	if cellW < p.MinCellSize || cellH < p.MinCellSize {
		return Grid{}, fmt.Errorf("%w: cell %dx%d below minimum %d", ErrLayoutTooSmall, cellW, cellH, p.MinCellSize)
	}

	return Grid{
		Cols:       cols,
		Rows:       rows,
		CellWidth:  cellW,
		CellHeight: cellH,
		OffsetX:    vp.X + (vp.Width-cellW*cols)/2,
		OffsetY:    vp.Y + (vp.Height-cellH*rows)/2,
	}, nil
}

// Plan returns the row-major cell rectangles for count pages.
// A zero count yields no rectangles and no error.
func (p *Planner) Plan(count int, vp Viewport) ([]Rect, error) {
	if count == 0 {
		return nil, nil
	}

	g, err := p.Shape(count, vp)
	if err != nil {
		return nil, err
	}

	rects := make([]Rect, count)
	for i := range rects {
		row := i / g.Cols
		col := i % g.Cols
		rects[i] = NewRect(g.OffsetX+col*g.CellWidth, g.OffsetY+row*g.CellHeight, g.CellWidth, g.CellHeight)
	}

	return rects, nil
}

// Maximized is the rectangle a maximized page occupies: the whole viewport.
func (p *Planner) Maximized(vp Viewport) Rect {
	return vp.Rect()
}
