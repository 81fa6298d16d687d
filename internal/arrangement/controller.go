// Package arrangement serializes user intents against the page registry and
// drives the presentation layer with fully recomputed layouts.
package arrangement

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/chess10kp/pagegrid/internal/layout"
	"github.com/chess10kp/pagegrid/internal/metrics"
	"github.com/chess10kp/pagegrid/internal/pages"
)

// LayoutPlanner is satisfied by layout.Planner and layout.CachedPlanner.
type LayoutPlanner interface {
	Plan(count int, vp layout.Viewport) ([]layout.Rect, error)
	Maximized(vp layout.Viewport) layout.Rect
}

// State is a consistent view of the arrangement.
type State struct {
	Pages     []pages.Snapshot `json:"pages"`
	Maximized pages.ID         `json:"maximized,omitempty"`
	Viewport  layout.Viewport  `json:"viewport"`
	Dark      bool             `json:"dark"`
	Entries   []Entry          `json:"entries"`
}

// Controller is the single writer of the registry. Every Handle method runs
// under one lock, so intents from the window and the IPC server interleave
// safely.
type Controller struct {
	mu        sync.Mutex
	registry  *pages.Registry
	planner   LayoutPlanner
	presenter Presenter
	viewport  layout.Viewport
	dark      bool
	entries   []Entry
}

type Options struct {
	Registry  *pages.Registry
	Planner   LayoutPlanner
	Presenter Presenter
	Viewport  layout.Viewport
	Dark      bool
}

func New(opts Options) *Controller {
	if opts.Registry == nil {
		opts.Registry = pages.NewRegistry(pages.Options{})
	}
	if opts.Planner == nil {
		opts.Planner = layout.NewPlanner(layout.DefaultUsageRatio, layout.DefaultMinCellSize)
	}
	if opts.Presenter == nil {
		opts.Presenter = NopPresenter{}
	}
	return &Controller{
		registry:  opts.Registry,
		planner:   opts.Planner,
		presenter: opts.Presenter,
		viewport:  opts.Viewport,
		dark:      opts.Dark,
	}
}

// SetPresenter replaces the presentation layer. The current theme is pushed
// to the new presenter immediately.
func (c *Controller) SetPresenter(p Presenter) {
	if p == nil {
		p = NopPresenter{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.presenter = p
	p.ThemeChanged(c.dark)
}

// Registry returns the controlled registry for read-only queries.
func (c *Controller) Registry() *pages.Registry {
	return c.registry
}

// HandleCreate replaces the page set with n pages and shows the page area.
func (c *Controller) HandleCreate(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.registry.CreateSet(n); err != nil {
		c.warnLocked(WarningInvalidCount, err)
		return err
	}

	log.Info("Page set created", "count", n)
	err := c.relayoutLocked()
	c.presenter.ShowPageArea()
	return err
}

// HandleAddPage adds one data page. At capacity nothing changes and a
// warning is raised.
func (c *Controller) HandleAddPage() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	page, err := c.registry.Add()
	if err != nil {
		c.warnLocked(WarningCapacityExceeded, err)
		return err
	}

	log.Debug("Page added", "id", page.ID(), "index", page.Index())
	return c.relayoutLocked()
}

// HandleClosePage removes a page. When the last page goes the setup form is
// shown again.
func (c *Controller) HandleClosePage(id pages.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.registry.Remove(id) {
		return fmt.Errorf("%w: %d", pages.ErrUnknownPage, id)
	}

	err := c.relayoutLocked()
	if c.registry.Count() == 0 {
		c.presenter.ShowSetupForm()
	}
	return err
}

// HandleCloseAll removes every page and resets to the setup form.
func (c *Controller) HandleCloseAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.registry.RemoveAll()
	log.Info("Closed all pages", "count", n)

	err := c.relayoutLocked()
	c.presenter.ShowSetupForm()
	return err
}

// HandleDragReorder moves the page fromID to the position currently held by
// toID. Unknown ids leave everything unchanged.
func (c *Controller) HandleDragReorder(fromID, toID pages.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	from, ok := c.registry.IndexOf(fromID)
	if !ok {
		return fmt.Errorf("%w: %d", pages.ErrUnknownPage, fromID)
	}
	to, ok := c.registry.IndexOf(toID)
	if !ok {
		return fmt.Errorf("%w: %d", pages.ErrUnknownPage, toID)
	}

	return c.moveLocked(from, to)
}

// HandleMove moves the page at index from to index to.
func (c *Controller) HandleMove(from, to int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.moveLocked(from, to)
}

func (c *Controller) moveLocked(from, to int) error {
	if !c.registry.Reorder(from, to) {
		return fmt.Errorf("index out of range: %d -> %d (have %d pages)", from, to, c.registry.Count())
	}
	if from == to {
		return nil
	}
	return c.relayoutLocked()
}

// HandleDoubleClick toggles maximize for id. A restore whose grid does not
// fit leaves id maximized.
func (c *Controller) HandleDoubleClick(id pages.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, wasMax := c.registry.Maximized()
	if err := c.registry.ToggleMaximize(id); err != nil {
		c.warnLocked(WarningUnknownPage, err)
		return err
	}

	err := c.relayoutLocked()
	if err != nil && wasMax && prev == id {
		c.registry.ToggleMaximize(id)
	}
	return err
}

// HandleResize replaces the viewport and relayouts.
func (c *Controller) HandleResize(vp layout.Viewport) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if vp == c.viewport {
		return nil
	}
	c.viewport = vp
	log.Debug("Viewport changed", "viewport", vp.Rect())

	if c.registry.Count() == 0 {
		return nil
	}
	return c.relayoutLocked()
}

// HandleToggleTheme flips between the light and dark themes.
func (c *Controller) HandleToggleTheme() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dark = !c.dark
	c.presenter.ThemeChanged(c.dark)
	return c.dark
}

// HandleUtilityKey applies a keypad key to the utility page id.
func (c *Controller) HandleUtilityKey(id pages.ID, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	page, ok := c.registry.Get(id)
	if !ok {
		err := fmt.Errorf("%w: %d", pages.ErrUnknownPage, id)
		c.warnLocked(WarningUnknownPage, err)
		return "", err
	}

	display, err := page.PressKey(key)
	if err != nil {
		c.warnLocked(WarningUnknownPage, err)
		return "", err
	}

	c.presenter.UtilityChanged(id, display)
	return display, nil
}

// State returns the current arrangement.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		Pages:    c.registry.Snapshot(),
		Viewport: c.viewport,
		Dark:     c.dark,
		Entries:  append([]Entry(nil), c.entries...),
	}
	if id, ok := c.registry.Maximized(); ok {
		s.Maximized = id
	}
	return s
}

// Entries returns the last applied layout.
func (c *Controller) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]Entry(nil), c.entries...)
}

// relayoutLocked recomputes every entry and hands the full set to the
// presenter. A layout that cannot fit is reported and not applied.
func (c *Controller) relayoutLocked() error {
	all := c.registry.Pages()

	if len(all) == 0 {
		c.applyLocked(nil, "empty")
		return nil
	}

	if maxID, ok := c.registry.Maximized(); ok {
		full := c.planner.Maximized(c.viewport)
		entries := make([]Entry, len(all))
		for i, p := range all {
			entries[i] = newEntry(p)
			if p.ID() == maxID {
				entries[i].Rect = full
				entries[i].Visible = true
			}
		}
		c.applyLocked(entries, "maximized")
		return nil
	}

	rects, err := c.planner.Plan(len(all), c.viewport)
	if err != nil {
		if errors.Is(err, layout.ErrLayoutTooSmall) {
			c.warnLocked(WarningLayoutTooSmall, err)
		} else {
			log.Error("Failed to plan layout", "pages", len(all), "error", err)
		}
		return err
	}

	entries := make([]Entry, len(all))
	for i, p := range all {
		entries[i] = newEntry(p)
		entries[i].Rect = rects[i]
		entries[i].Visible = true
	}
	c.applyLocked(entries, "grid")
	return nil
}

func (c *Controller) applyLocked(entries []Entry, mode string) {
	c.entries = entries
	metrics.LayoutsApplied.WithLabelValues(mode).Inc()
	c.presenter.LayoutApplied(append([]Entry(nil), entries...))
}

func (c *Controller) warnLocked(kind WarningKind, err error) {
	log.Warn("Intent rejected", "kind", kind, "error", err)
	metrics.Warnings.WithLabelValues(kind.String()).Inc()
	c.presenter.Warning(kind, err.Error())
}

func newEntry(p *pages.Page) Entry {
	return Entry{
		PageID: p.ID(),
		Index:  p.Index(),
		Kind:   p.Kind(),
		Title:  p.Title(),
	}
}
