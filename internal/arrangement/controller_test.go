package arrangement

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chess10kp/pagegrid/internal/calculator"
	"github.com/chess10kp/pagegrid/internal/layout"
	"github.com/chess10kp/pagegrid/internal/pages"
)

type warning struct {
	Kind    WarningKind
	Message string
}

type fakePresenter struct {
	mu       sync.Mutex
	layouts  [][]Entry
	warnings []warning
	setup    int
	area     int
	utility  map[pages.ID]string
	dark     []bool
}

func newFakePresenter() *fakePresenter {
	return &fakePresenter{utility: make(map[pages.ID]string)}
}

func (p *fakePresenter) PageValuesChanged(pages.ID, map[string]int) {}

func (p *fakePresenter) LayoutApplied(entries []Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.layouts = append(p.layouts, entries)
}

func (p *fakePresenter) Warning(kind WarningKind, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.warnings = append(p.warnings, warning{kind, message})
}

func (p *fakePresenter) ShowSetupForm() { p.setup++ }
func (p *fakePresenter) ShowPageArea()  { p.area++ }

func (p *fakePresenter) UtilityChanged(id pages.ID, display string) {
	p.utility[id] = display
}

func (p *fakePresenter) ThemeChanged(dark bool) { p.dark = append(p.dark, dark) }

func (p *fakePresenter) lastLayout() []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.layouts) == 0 {
		return nil
	}
	return p.layouts[len(p.layouts)-1]
}

func (p *fakePresenter) lastWarning() (warning, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.warnings) == 0 {
		return warning{}, false
	}
	return p.warnings[len(p.warnings)-1], true
}

var testViewport = layout.Viewport{Width: 800, Height: 800}

func newTestController(t *testing.T, withUtility bool) (*Controller, *fakePresenter) {
	t.Helper()
	opts := pages.Options{}
	if withUtility {
		opts.NewUtility = func() pages.UtilityState { return calculator.New() }
	}
	presenter := newFakePresenter()
	c := New(Options{
		Registry:  pages.NewRegistry(opts),
		Planner:   layout.NewPlanner(0.8, 100),
		Presenter: presenter,
		Viewport:  testViewport,
	})
	return c, presenter
}

func visibleIDs(entries []Entry) []pages.ID {
	var ids []pages.ID
	for _, e := range entries {
		if e.Visible {
			ids = append(ids, e.PageID)
		}
	}
	return ids
}

func TestController_CreateAppliesGrid(t *testing.T) {
	c, p := newTestController(t, false)

	require.NoError(t, c.HandleCreate(4))
	assert.Equal(t, 1, p.area)

	entries := p.lastLayout()
	require.Len(t, entries, 4)
	want := []layout.Rect{
		{X: 80, Y: 80, Width: 320, Height: 320},
		{X: 400, Y: 80, Width: 320, Height: 320},
		{X: 80, Y: 400, Width: 320, Height: 320},
		{X: 400, Y: 400, Width: 320, Height: 320},
	}
	for i, e := range entries {
		assert.True(t, e.Visible)
		assert.Equal(t, i, e.Index)
		assert.Equal(t, want[i], e.Rect)
	}
	assert.Equal(t, "Page 1", entries[0].Title)
}

func TestController_CreateInvalidCount(t *testing.T) {
	c, p := newTestController(t, false)
	require.NoError(t, c.HandleCreate(2))
	before := p.lastLayout()

	for _, n := range []int{0, 17} {
		err := c.HandleCreate(n)
		require.ErrorIs(t, err, pages.ErrInvalidCount)

		w, ok := p.lastWarning()
		require.True(t, ok)
		assert.Equal(t, WarningInvalidCount, w.Kind)
	}

	assert.Equal(t, 2, c.Registry().Count())
	assert.Equal(t, before, p.lastLayout())
	assert.Equal(t, 1, p.area)
}

func TestController_AddAtCapacity(t *testing.T) {
	c, p := newTestController(t, false)
	c.viewport = layout.Viewport{Width: 2000, Height: 2000}
	require.NoError(t, c.HandleCreate(16))
	layouts := len(p.layouts)

	err := c.HandleAddPage()
	require.ErrorIs(t, err, pages.ErrCapacityExceeded)
	assert.Equal(t, 16, c.Registry().Count())
	assert.Len(t, p.layouts, layouts, "no relayout on rejected add")

	w, ok := p.lastWarning()
	require.True(t, ok)
	assert.Equal(t, WarningCapacityExceeded, w.Kind)
}

func TestController_AddInsertsBeforeUtility(t *testing.T) {
	c, p := newTestController(t, true)
	require.NoError(t, c.HandleCreate(2))
	require.NoError(t, c.HandleAddPage())

	entries := p.lastLayout()
	require.Len(t, entries, 4)
	assert.Equal(t, pages.KindData, entries[2].Kind)
	assert.Equal(t, "Page 3", entries[2].Title)
	assert.Equal(t, pages.KindUtility, entries[3].Kind)
	assert.Equal(t, "Calculator", entries[3].Title)
}

func TestController_CloseLastPageShowsSetup(t *testing.T) {
	c, p := newTestController(t, false)
	require.NoError(t, c.HandleCreate(2))
	ids := visibleIDs(p.lastLayout())

	require.NoError(t, c.HandleClosePage(ids[0]))
	assert.Equal(t, 0, p.setup)
	assert.Len(t, p.lastLayout(), 1)
	assert.Equal(t, "Page 1", p.lastLayout()[0].Title, "title follows position")

	require.NoError(t, c.HandleClosePage(ids[1]))
	assert.Equal(t, 1, p.setup)
	assert.Empty(t, p.lastLayout())
}

func TestController_CloseUnknownIsNoop(t *testing.T) {
	c, p := newTestController(t, false)
	require.NoError(t, c.HandleCreate(3))
	layouts := len(p.layouts)

	err := c.HandleClosePage(999)
	require.ErrorIs(t, err, pages.ErrUnknownPage)
	assert.Equal(t, 3, c.Registry().Count())
	assert.Len(t, p.layouts, layouts)
}

func TestController_CloseAll(t *testing.T) {
	c, p := newTestController(t, true)
	require.NoError(t, c.HandleCreate(5))

	require.NoError(t, c.HandleCloseAll())
	assert.Equal(t, 0, c.Registry().Count())
	assert.Empty(t, p.lastLayout())
	assert.Equal(t, 1, p.setup)
}

func TestController_DragReorder(t *testing.T) {
	c, p := newTestController(t, false)
	require.NoError(t, c.HandleCreate(4))
	before := visibleIDs(p.lastLayout())

	require.NoError(t, c.HandleDragReorder(before[0], before[2]))
	after := p.lastLayout()
	assert.Equal(t, []pages.ID{before[1], before[2], before[0], before[3]}, visibleIDs(after))
	for i, e := range after {
		assert.Equal(t, i, e.Index)
	}
	assert.Equal(t, "Page 3", after[2].Title)

	layouts := len(p.layouts)
	assert.ErrorIs(t, c.HandleDragReorder(before[0], 999), pages.ErrUnknownPage)
	assert.ErrorIs(t, c.HandleDragReorder(999, before[0]), pages.ErrUnknownPage)
	assert.Error(t, c.HandleMove(0, 4))
	assert.Len(t, p.layouts, layouts, "failed reorders do not relayout")
}

func TestController_DoubleClickToggleIsBitForBit(t *testing.T) {
	c, p := newTestController(t, false)
	require.NoError(t, c.HandleCreate(5))
	grid := p.lastLayout()
	target := grid[3].PageID

	require.NoError(t, c.HandleDoubleClick(target))
	maxed := p.lastLayout()
	require.Len(t, maxed, 5, "hidden pages stay in the layout")
	assert.Equal(t, []pages.ID{target}, visibleIDs(maxed))
	for _, e := range maxed {
		if e.PageID == target {
			assert.Equal(t, layout.Rect{Width: 800, Height: 800}, e.Rect)
		} else {
			assert.Equal(t, layout.Rect{}, e.Rect)
		}
	}
	assert.Equal(t, 5, c.Registry().Count())

	require.NoError(t, c.HandleDoubleClick(target))
	assert.Equal(t, grid, p.lastLayout())
}

func TestController_DoubleClickOtherPageSwitchesFocus(t *testing.T) {
	c, p := newTestController(t, false)
	require.NoError(t, c.HandleCreate(3))
	ids := visibleIDs(p.lastLayout())

	require.NoError(t, c.HandleDoubleClick(ids[0]))
	require.NoError(t, c.HandleDoubleClick(ids[2]))
	assert.Equal(t, []pages.ID{ids[2]}, visibleIDs(p.lastLayout()))

	err := c.HandleDoubleClick(999)
	require.ErrorIs(t, err, pages.ErrUnknownPage)
	w, _ := p.lastWarning()
	assert.Equal(t, WarningUnknownPage, w.Kind)
}

func TestController_RemoveMaximizedReturnsToGrid(t *testing.T) {
	c, p := newTestController(t, false)
	require.NoError(t, c.HandleCreate(3))
	ids := visibleIDs(p.lastLayout())

	require.NoError(t, c.HandleDoubleClick(ids[1]))
	require.NoError(t, c.HandleClosePage(ids[1]))

	assert.Equal(t, []pages.ID{ids[0], ids[2]}, visibleIDs(p.lastLayout()))
	_, maximized := c.Registry().Maximized()
	assert.False(t, maximized)
}

func TestController_LayoutTooSmallKeepsChangeButNotLayout(t *testing.T) {
	c, p := newTestController(t, false)
	c.viewport = layout.Viewport{Width: 200, Height: 300}
	require.NoError(t, c.HandleCreate(1))
	applied := p.lastLayout()
	require.Len(t, applied, 1)

	err := c.HandleAddPage()
	require.True(t, errors.Is(err, layout.ErrLayoutTooSmall))
	assert.Equal(t, 2, c.Registry().Count())
	assert.Equal(t, applied, p.lastLayout(), "layout not applied")
	assert.Equal(t, applied, c.Entries())

	w, ok := p.lastWarning()
	require.True(t, ok)
	assert.Equal(t, WarningLayoutTooSmall, w.Kind)
}

func TestController_RestoreTooSmallStaysMaximized(t *testing.T) {
	c, p := newTestController(t, false)
	c.viewport = layout.Viewport{Width: 200, Height: 300}
	require.NoError(t, c.HandleCreate(1))
	id := p.lastLayout()[0].PageID

	require.NoError(t, c.HandleDoubleClick(id))
	require.NoError(t, c.HandleAddPage(), "maximized layout still fits")
	maximized := c.Entries()
	require.Equal(t, []pages.ID{id}, visibleIDs(maximized))

	err := c.HandleDoubleClick(id)
	require.True(t, errors.Is(err, layout.ErrLayoutTooSmall))

	maxID, ok := c.Registry().Maximized()
	require.True(t, ok, "restore rolled back")
	assert.Equal(t, id, maxID)
	assert.Equal(t, maximized, c.Entries())
	assert.Equal(t, maximized, p.lastLayout())
	assert.Equal(t, id, c.State().Maximized)

	w, ok := p.lastWarning()
	require.True(t, ok)
	assert.Equal(t, WarningLayoutTooSmall, w.Kind)
}

func TestController_Resize(t *testing.T) {
	c, p := newTestController(t, false)
	require.NoError(t, c.HandleCreate(1))

	require.NoError(t, c.HandleResize(layout.Viewport{X: 10, Y: 20, Width: 1000, Height: 500}))
	entries := p.lastLayout()
	require.Len(t, entries, 1)
	assert.Equal(t, layout.Rect{X: 110, Y: 70, Width: 800, Height: 400}, entries[0].Rect)

	layouts := len(p.layouts)
	require.NoError(t, c.HandleResize(layout.Viewport{X: 10, Y: 20, Width: 1000, Height: 500}))
	assert.Len(t, p.layouts, layouts, "unchanged viewport does not relayout")
}

func TestController_UtilityKeys(t *testing.T) {
	c, p := newTestController(t, true)
	require.NoError(t, c.HandleCreate(1))
	entries := p.lastLayout()
	require.Len(t, entries, 2)
	data, util := entries[0].PageID, entries[1].PageID

	for _, k := range []string{"7", "/", "2"} {
		_, err := c.HandleUtilityKey(util, k)
		require.NoError(t, err)
	}
	display, err := c.HandleUtilityKey(util, "=")
	require.NoError(t, err)
	assert.Equal(t, "3.5", display)
	assert.Equal(t, "3.5", p.utility[util])

	_, err = c.HandleUtilityKey(data, "1")
	assert.ErrorIs(t, err, pages.ErrUnknownPage)
	_, err = c.HandleUtilityKey(999, "1")
	assert.ErrorIs(t, err, pages.ErrUnknownPage)
}

func TestController_ThemeAndState(t *testing.T) {
	c, p := newTestController(t, true)
	require.NoError(t, c.HandleCreate(2))

	assert.True(t, c.HandleToggleTheme())
	assert.False(t, c.HandleToggleTheme())
	assert.Equal(t, []bool{true, false}, p.dark)

	ids := visibleIDs(p.lastLayout())
	require.NoError(t, c.HandleDoubleClick(ids[1]))

	s := c.State()
	assert.Len(t, s.Pages, 3)
	assert.Equal(t, ids[1], s.Maximized)
	assert.Equal(t, testViewport, s.Viewport)
	assert.False(t, s.Dark)
	assert.Equal(t, p.lastLayout(), s.Entries)
	assert.True(t, s.Pages[1].Maximized)
}

func TestController_SetPresenterPushesTheme(t *testing.T) {
	c := New(Options{Dark: true})
	p := newFakePresenter()
	c.SetPresenter(p)
	assert.Equal(t, []bool{true}, p.dark)
}
