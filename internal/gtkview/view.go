// Package gtkview is the GTK3 presentation layer. Presenter methods may be
// called from any goroutine; each one hops onto the GTK main loop with
// glib.IdleAdd before touching widgets.
package gtkview

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"

	"github.com/chess10kp/pagegrid/internal/arrangement"
	"github.com/chess10kp/pagegrid/internal/layout"
	"github.com/chess10kp/pagegrid/internal/pages"
)

const controlBarHeight = 48

type Options struct {
	Title     string
	Viewport  layout.Viewport
	MaxPages  int
	CustomCSS string
	// OnQuit runs when the window closes or Exit is pressed.
	OnQuit func()
}

// View owns the window. Every field below ctrl is only used on the GTK
// thread.
type View struct {
	ctrl *arrangement.Controller
	opts Options

	styles   *Styles
	window   *gtk.Window
	setup    *gtk.Box
	entry    *gtk.Entry
	controls *gtk.Box
	area     *gtk.Fixed

	views    map[pages.ID]*pageView
	order    []pages.ID
	dragFrom pages.ID
	areaSize layout.Viewport
}

// New builds the window. It must run on the GTK thread after gtk.Init.
func New(ctrl *arrangement.Controller, opts Options) (*View, error) {
	if opts.Title == "" {
		opts.Title = "pagegrid"
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = pages.MaxPages
	}

	v := &View{
		ctrl:  ctrl,
		opts:  opts,
		views: make(map[pages.ID]*pageView),
	}

	v.styles = SetupStyles()
	if opts.CustomCSS != "" {
		LoadCustomCSS(opts.CustomCSS)
	}

	if err := v.build(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *View) build() error {
	win, err := gtk.WindowNew(gtk.WINDOW_TOPLEVEL)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	v.window = win
	win.SetTitle(v.opts.Title)
	win.SetDefaultSize(v.opts.Viewport.Width, v.opts.Viewport.Height+controlBarHeight)
	win.Connect("destroy", func() {
		if v.opts.OnQuit != nil {
			v.opts.OnQuit()
		}
	})

	root, err := gtk.BoxNew(gtk.ORIENTATION_VERTICAL, 0)
	if err != nil {
		return err
	}
	win.Add(root)

	if v.setup, err = v.buildSetupForm(); err != nil {
		return err
	}
	root.PackStart(v.setup, true, false, 0)

	if v.controls, err = v.buildControlBar(); err != nil {
		return err
	}
	root.PackStart(v.controls, false, false, 0)

	area, err := gtk.FixedNew()
	if err != nil {
		return fmt.Errorf("failed to create page area: %w", err)
	}
	area.SetName("page-area")
	area.Connect("size-allocate", v.onAreaResized)
	v.area = area
	root.PackStart(area, true, true, 0)

	win.ShowAll()
	v.showSetupForm()
	return nil
}

func (v *View) buildSetupForm() (*gtk.Box, error) {
	box, err := gtk.BoxNew(gtk.ORIENTATION_VERTICAL, 8)
	if err != nil {
		return nil, err
	}
	box.SetName("setup-form")
	box.SetHAlign(gtk.ALIGN_CENTER)
	box.SetVAlign(gtk.ALIGN_CENTER)

	prompt, err := gtk.LabelNew(fmt.Sprintf("Number of pages (1-%d)", v.opts.MaxPages))
	if err != nil {
		return nil, err
	}
	box.PackStart(prompt, false, false, 0)

	entry, err := gtk.EntryNew()
	if err != nil {
		return nil, err
	}
	entry.SetPlaceholderText("e.g. 4")
	entry.Connect("activate", v.onCreate)
	v.entry = entry
	box.PackStart(entry, false, false, 0)

	buttons, err := gtk.BoxNew(gtk.ORIENTATION_HORIZONTAL, 8)
	if err != nil {
		return nil, err
	}
	for _, b := range []struct {
		label string
		fn    func()
	}{
		{"Create", v.onCreate},
		{"Toggle theme", func() { v.ctrl.HandleToggleTheme() }},
		{"Exit", v.quit},
	} {
		btn, err := gtk.ButtonNewWithLabel(b.label)
		if err != nil {
			return nil, err
		}
		btn.Connect("clicked", b.fn)
		buttons.PackStart(btn, true, true, 0)
	}
	box.PackStart(buttons, false, false, 0)

	return box, nil
}

func (v *View) buildControlBar() (*gtk.Box, error) {
	bar, err := gtk.BoxNew(gtk.ORIENTATION_HORIZONTAL, 8)
	if err != nil {
		return nil, err
	}
	bar.SetName("control-bar")
	bar.SetSizeRequest(-1, controlBarHeight)

	for _, b := range []struct {
		label string
		fn    func()
	}{
		{"Add page", func() { v.ctrl.HandleAddPage() }},
		{"Close all", func() { v.ctrl.HandleCloseAll() }},
		{"Toggle theme", func() { v.ctrl.HandleToggleTheme() }},
	} {
		btn, err := gtk.ButtonNewWithLabel(b.label)
		if err != nil {
			return nil, err
		}
		btn.Connect("clicked", b.fn)
		bar.PackStart(btn, false, false, 4)
	}
	return bar, nil
}

// Presenter implementation. Each call is deferred to the GTK thread.

func (v *View) PageValuesChanged(id pages.ID, values map[string]int) {
	glib.IdleAdd(func() {
		if pv, ok := v.views[id]; ok {
			pv.setValues(values)
		}
	})
}

func (v *View) LayoutApplied(entries []arrangement.Entry) {
	glib.IdleAdd(func() {
		v.applyLayout(entries)
	})
}

func (v *View) Warning(kind arrangement.WarningKind, message string) {
	glib.IdleAdd(func() {
		v.showWarning(warningText(kind, v.opts.MaxPages, message))
	})
}

func (v *View) ShowSetupForm() {
	glib.IdleAdd(v.showSetupForm)
}

func (v *View) ShowPageArea() {
	glib.IdleAdd(v.showPageArea)
}

func (v *View) UtilityChanged(id pages.ID, display string) {
	glib.IdleAdd(func() {
		if pv, ok := v.views[id]; ok {
			pv.setDisplay(display)
		}
	})
}

func (v *View) ThemeChanged(dark bool) {
	glib.IdleAdd(func() {
		v.styles.SetDark(dark)
	})
}

// GTK-thread helpers.

func (v *View) applyLayout(entries []arrangement.Entry) {
	live := make(map[pages.ID]bool, len(entries))
	order := make([]pages.ID, 0, len(entries))
	maxID, maximized := v.ctrl.Registry().Maximized()

	for _, e := range entries {
		live[e.PageID] = true
		order = append(order, e.PageID)

		pv, ok := v.views[e.PageID]
		if !ok {
			page, found := v.ctrl.Registry().Get(e.PageID)
			if !found {
				continue
			}
			created, err := newPageView(v, page)
			if err != nil {
				log.Error("Failed to create page view", "id", e.PageID, "error", err)
				continue
			}
			pv = created
			v.views[e.PageID] = pv
			v.area.Put(pv.root, e.Rect.X, e.Rect.Y)
		}

		pv.setTitle(e.Title)
		pv.setMaximized(maximized && maxID == e.PageID)

		if !e.Visible {
			pv.root.Hide()
			continue
		}
		pv.root.SetSizeRequest(e.Rect.Width, e.Rect.Height)
		v.area.Move(pv.root, e.Rect.X, e.Rect.Y)
		pv.root.ShowAll()
	}

	for id, pv := range v.views {
		if !live[id] {
			v.area.Remove(pv.root)
			pv.root.Destroy()
			delete(v.views, id)
		}
	}
	v.order = order
}

func (v *View) showSetupForm() {
	v.controls.Hide()
	v.area.Hide()
	v.setup.ShowAll()
	v.entry.GrabFocus()
}

func (v *View) showPageArea() {
	v.setup.Hide()
	v.controls.ShowAll()
	v.area.Show()
}

func (v *View) showWarning(text string) {
	dialog := gtk.MessageDialogNew(v.window, gtk.DIALOG_MODAL, gtk.MESSAGE_WARNING, gtk.BUTTONS_OK, "%s", text)
	dialog.SetTitle("Warning")
	dialog.Connect("response", func() {
		dialog.Destroy()
	})
	dialog.Show()
}

func (v *View) onCreate() {
	text, err := v.entry.GetText()
	if err != nil {
		return
	}
	n, ok := parseCount(text)
	if !ok {
		v.showWarning("Please enter the number of pages.")
		return
	}
	if err := v.ctrl.HandleCreate(n); err == nil {
		v.entry.SetText("")
	}
}

func (v *View) onAreaResized() {
	vp := layout.Viewport{
		Width:  v.area.GetAllocatedWidth(),
		Height: v.area.GetAllocatedHeight(),
	}
	if vp.Width <= 1 || vp.Height <= 1 || vp == v.areaSize {
		return
	}
	v.areaSize = vp
	if err := v.ctrl.HandleResize(vp); err != nil {
		log.Debug("Resize not applied", "viewport", vp.Rect(), "error", err)
	}
}

// moveBy swaps the page with its neighbour delta positions away.
func (v *View) moveBy(id pages.ID, delta int) {
	for i, cur := range v.order {
		if cur != id {
			continue
		}
		j := i + delta
		if j < 0 || j >= len(v.order) {
			return
		}
		if err := v.ctrl.HandleDragReorder(id, v.order[j]); err != nil {
			log.Debug("Move ignored", "id", id, "error", err)
		}
		return
	}
}

func (v *View) dropOn(target pages.ID) {
	from := v.dragFrom
	v.dragFrom = 0
	if from == 0 || from == target {
		return
	}
	if err := v.ctrl.HandleDragReorder(from, target); err != nil {
		log.Debug("Drop ignored", "from", from, "to", target, "error", err)
	}
}

func (v *View) quit() {
	v.window.Destroy()
}

func parseCount(text string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, false
	}
	return n, true
}

func warningText(kind arrangement.WarningKind, maxPages int, detail string) string {
	switch kind {
	case arrangement.WarningCapacityExceeded:
		return fmt.Sprintf("The maximum number of pages (%d) has been reached.", maxPages)
	case arrangement.WarningLayoutTooSmall:
		return "Pages have become too small. Enter a smaller number or close some pages."
	case arrangement.WarningInvalidCount:
		return fmt.Sprintf("The number of pages must be between 1 and %d.", maxPages)
	default:
		return detail
	}
}
