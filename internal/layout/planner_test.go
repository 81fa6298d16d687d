package layout

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chess10kp/pagegrid/internal/metrics"
)

func TestPlan_FourPagesSquare(t *testing.T) {
	p := NewPlanner(0.8, 100)
	vp := Viewport{Width: 800, Height: 800}

	g, err := p.Shape(4, vp)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Cols)
	assert.Equal(t, 2, g.Rows)
	assert.Equal(t, 320, g.CellWidth)
	assert.Equal(t, 320, g.CellHeight)

	rects, err := p.Plan(4, vp)
	require.NoError(t, err)
	require.Len(t, rects, 4)

	want := []Rect{
		{X: 80, Y: 80, Width: 320, Height: 320},
		{X: 400, Y: 80, Width: 320, Height: 320},
		{X: 80, Y: 400, Width: 320, Height: 320},
		{X: 400, Y: 400, Width: 320, Height: 320},
	}
	assert.Equal(t, want, rects)

	for i := range rects {
		for j := i + 1; j < len(rects); j++ {
			assert.False(t, rects[i].Overlaps(rects[j]), "rect %d overlaps %d", i, j)
		}
	}

	// Centered: equal margins on both sides.
	assert.Equal(t, rects[0].X, vp.Width-rects[3].Right())
	assert.Equal(t, rects[0].Y, vp.Height-rects[3].Bottom())
}

func TestPlan_Shapes(t *testing.T) {
	p := NewPlanner(0.8, 1)
	vp := Viewport{Width: 1700, Height: 900}

	testCases := []struct {
		count, cols, rows int
	}{
		{1, 1, 1},
		{2, 2, 1},
		{3, 2, 2},
		{5, 3, 2},
		{7, 3, 3},
		{10, 4, 3},
		{16, 4, 4},
		{17, 5, 4},
	}

	for _, tc := range testCases {
		g, err := p.Shape(tc.count, vp)
		if err != nil {
			t.Errorf("Shape(%d): %v", tc.count, err)
			continue
		}
		if g.Cols != tc.cols || g.Rows != tc.rows {
			t.Errorf("Shape(%d) = %dx%d, want %dx%d", tc.count, g.Cols, g.Rows, tc.cols, tc.rows)
		}
	}
}

func TestPlan_RowMajorOrder(t *testing.T) {
	p := NewPlanner(0.8, 100)
	rects, err := p.Plan(5, Viewport{Width: 1700, Height: 900})
	require.NoError(t, err)

	// 3 columns, 2 rows: index 3 starts the second row.
	assert.Equal(t, rects[0].X, rects[3].X)
	assert.Greater(t, rects[3].Y, rects[0].Y)
	assert.Equal(t, rects[0].Y, rects[2].Y)
	assert.Greater(t, rects[1].X, rects[0].X)
}

func TestPlan_ViewportOrigin(t *testing.T) {
	p := NewPlanner(0.8, 100)
	rects, err := p.Plan(1, Viewport{X: 1920, Y: 30, Width: 1000, Height: 500})
	require.NoError(t, err)

	assert.Equal(t, Rect{X: 1920 + 100, Y: 30 + 50, Width: 800, Height: 400}, rects[0])
}

func TestPlan_ZeroPages(t *testing.T) {
	p := NewPlanner(0.8, 100)
	rects, err := p.Plan(0, Viewport{Width: 10, Height: 10})
	assert.NoError(t, err)
	assert.Empty(t, rects)
}

func TestPlan_TooSmall(t *testing.T) {
	p := NewPlanner(0.8, 100)

	testCases := []struct {
		name  string
		count int
		vp    Viewport
	}{
		{"narrow", 4, Viewport{Width: 240, Height: 800}},
		{"short", 4, Viewport{Width: 800, Height: 240}},
		{"many pages", 16, Viewport{Width: 400, Height: 400}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rects, err := p.Plan(tc.count, tc.vp)
			assert.True(t, errors.Is(err, ErrLayoutTooSmall), "got %v", err)
			assert.Nil(t, rects)
		})
	}
}

func TestPlan_ExactlyMinimumIsUsable(t *testing.T) {
	p := NewPlanner(0.8, 100)
	// 250 * 0.8 = 200, two columns of 100.
	rects, err := p.Plan(2, Viewport{Width: 250, Height: 125})
	require.NoError(t, err)
	assert.Equal(t, 100, rects[0].Width)
	assert.Equal(t, 100, rects[0].Height)
}

func TestNewPlanner_Defaults(t *testing.T) {
	p := NewPlanner(0, -1)
	assert.Equal(t, DefaultUsageRatio, p.UsageRatio)
	assert.Equal(t, DefaultMinCellSize, p.MinCellSize)
}

func TestMaximized_FullViewport(t *testing.T) {
	p := NewPlanner(0.8, 100)
	vp := Viewport{X: 5, Y: 6, Width: 700, Height: 800}
	assert.Equal(t, Rect{X: 5, Y: 6, Width: 700, Height: 800}, p.Maximized(vp))
}

func TestCachedPlanner_HitsAndCopies(t *testing.T) {
	c, err := NewCachedPlanner(NewPlanner(0.8, 100), 2)
	require.NoError(t, err)

	vp := Viewport{Width: 800, Height: 800}
	hits := testutil.ToFloat64(metrics.LayoutCacheRequests.WithLabelValues("hit"))

	first, err := c.Plan(4, vp)
	require.NoError(t, err)
	first[0].X = -1

	second, err := c.Plan(4, vp)
	require.NoError(t, err)
	assert.Equal(t, 80, second[0].X, "cached rects must not alias caller slices")
	assert.Equal(t, hits+1, testutil.ToFloat64(metrics.LayoutCacheRequests.WithLabelValues("hit")))

	_, err = c.Plan(16, Viewport{Width: 100, Height: 100})
	assert.ErrorIs(t, err, ErrLayoutTooSmall)
	_, err = c.Plan(16, Viewport{Width: 100, Height: 100})
	assert.ErrorIs(t, err, ErrLayoutTooSmall, "cached errors are replayed")

	c.Plan(1, vp)
	assert.Equal(t, 2, c.Len())
}
