package gtkview

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/gtk"

	"github.com/chess10kp/pagegrid/internal/calculator"
	"github.com/chess10kp/pagegrid/internal/pages"
)

const dragTarget = "application/x-pagegrid-page"

// pageView is the widget tree of one page. Only the GTK thread touches it.
type pageView struct {
	id   pages.ID
	kind pages.Kind

	root    *gtk.EventBox
	frame   *gtk.Frame
	title   *gtk.Label
	fields  map[string]*gtk.Label
	display *gtk.Label
}

func newPageView(v *View, page *pages.Page) (*pageView, error) {
	pv := &pageView{
		id:     page.ID(),
		kind:   page.Kind(),
		fields: make(map[string]*gtk.Label),
	}

	root, err := gtk.EventBoxNew()
	if err != nil {
		return nil, fmt.Errorf("failed to create page event box: %w", err)
	}
	pv.root = root

	frame, err := gtk.FrameNew("")
	if err != nil {
		return nil, fmt.Errorf("failed to create page frame: %w", err)
	}
	pv.frame = frame
	addClass(&frame.Widget, "page-frame")
	root.Add(frame)

	body, err := gtk.BoxNew(gtk.ORIENTATION_VERTICAL, 6)
	if err != nil {
		return nil, err
	}
	frame.Add(body)

	header, err := pv.buildHeader(v)
	if err != nil {
		return nil, err
	}
	body.PackStart(header, false, false, 0)

	if pv.kind == pages.KindUtility {
		keypad, err := pv.buildCalculator(v, page)
		if err != nil {
			return nil, err
		}
		body.PackStart(keypad, true, true, 0)
	} else {
		values := page.Values()
		for _, name := range page.Fields() {
			label, err := gtk.LabelNew(formatField(name, values[name]))
			if err != nil {
				return nil, err
			}
			addClass(&label.Widget, "page-field")
			pv.fields[name] = label
			body.PackStart(label, true, true, 0)
		}
	}

	root.Connect("button-press-event", func(_ *gtk.EventBox, ev *gdk.Event) bool {
		btn := gdk.EventButtonNewFromEvent(ev)
		if btn.Type() != gdk.EVENT_2BUTTON_PRESS {
			return false
		}
		if err := v.ctrl.HandleDoubleClick(pv.id); err != nil {
			log.Debug("Double click ignored", "id", pv.id, "error", err)
		}
		return true
	})

	pv.enableDrag(v)
	return pv, nil
}

func (pv *pageView) buildHeader(v *View) (*gtk.Box, error) {
	header, err := gtk.BoxNew(gtk.ORIENTATION_HORIZONTAL, 4)
	if err != nil {
		return nil, err
	}

	title, err := gtk.LabelNew("")
	if err != nil {
		return nil, err
	}
	addClass(&title.Widget, "page-title")
	pv.title = title
	header.PackStart(title, true, true, 0)

	left, err := pageButton("◀", func() { v.moveBy(pv.id, -1) })
	if err != nil {
		return nil, err
	}
	right, err := pageButton("▶", func() { v.moveBy(pv.id, 1) })
	if err != nil {
		return nil, err
	}
	closeBtn, err := pageButton("✕", func() {
		if err := v.ctrl.HandleClosePage(pv.id); err != nil {
			log.Debug("Close ignored", "id", pv.id, "error", err)
		}
	})
	if err != nil {
		return nil, err
	}

	header.PackStart(left, false, false, 0)
	header.PackStart(right, false, false, 0)
	header.PackStart(closeBtn, false, false, 0)
	return header, nil
}

func (pv *pageView) buildCalculator(v *View, page *pages.Page) (*gtk.Box, error) {
	box, err := gtk.BoxNew(gtk.ORIENTATION_VERTICAL, 4)
	if err != nil {
		return nil, err
	}

	display, err := gtk.LabelNew("")
	if err != nil {
		return nil, err
	}
	display.SetXAlign(1)
	addClass(&display.Widget, "calc-display")
	if u := page.Utility(); u != nil {
		display.SetText(u.Display())
	}
	pv.display = display
	box.PackStart(display, false, false, 0)

	grid, err := gtk.GridNew()
	if err != nil {
		return nil, err
	}
	grid.SetRowSpacing(4)
	grid.SetColumnSpacing(4)
	grid.SetColumnHomogeneous(true)
	grid.SetRowHomogeneous(true)

	const cols = 4
	for i, key := range calculator.Keys {
		btn, err := gtk.ButtonNewWithLabel(key)
		if err != nil {
			return nil, err
		}
		addClass(&btn.Widget, "calc-key")
		btn.Connect("clicked", func() {
			if _, err := v.ctrl.HandleUtilityKey(pv.id, key); err != nil {
				log.Debug("Utility key ignored", "id", pv.id, "key", key, "error", err)
			}
		})

		width := 1
		if i == len(calculator.Keys)-1 && i%cols == 0 {
			width = cols
		}
		grid.Attach(btn, i%cols, i/cols, width, 1)
	}
	box.PackStart(grid, true, true, 0)

	return box, nil
}

// enableDrag makes the page both a drag source and a drop target. The
// dragged id is kept on the view; the selection payload is unused.
func (pv *pageView) enableDrag(v *View) {
	target, err := gtk.TargetEntryNew(dragTarget, gtk.TARGET_SAME_APP, 0)
	if err != nil {
		log.Warn("Drag reorder unavailable", "error", err)
		return
	}
	targets := []gtk.TargetEntry{*target}

	pv.root.DragSourceSet(gdk.BUTTON1_MASK, targets, gdk.ACTION_MOVE)
	pv.root.DragDestSet(gtk.DEST_DEFAULT_ALL, targets, gdk.ACTION_MOVE)

	pv.root.Connect("drag-begin", func() {
		v.dragFrom = pv.id
	})
	pv.root.Connect("drag-data-received", func() {
		v.dropOn(pv.id)
	})
}

func (pv *pageView) setTitle(title string) {
	pv.title.SetText(title)
}

func (pv *pageView) setValues(values map[string]int) {
	for name, label := range pv.fields {
		if val, ok := values[name]; ok {
			label.SetText(formatField(name, val))
		}
	}
}

func (pv *pageView) setDisplay(display string) {
	if pv.display != nil {
		pv.display.SetText(display)
	}
}

func (pv *pageView) setMaximized(maximized bool) {
	if maximized {
		addClass(&pv.frame.Widget, "page-maximized")
	} else {
		removeClass(&pv.frame.Widget, "page-maximized")
	}
}

func pageButton(label string, onClick func()) (*gtk.Button, error) {
	btn, err := gtk.ButtonNewWithLabel(label)
	if err != nil {
		return nil, err
	}
	btn.SetRelief(gtk.RELIEF_NONE)
	addClass(&btn.Widget, "page-button")
	btn.Connect("clicked", onClick)
	return btn, nil
}

func formatField(name string, value int) string {
	return fmt.Sprintf("%s: %d", name, value)
}

func addClass(w *gtk.Widget, class string) {
	ctx, err := w.GetStyleContext()
	if err != nil {
		return
	}
	ctx.AddClass(class)
}

func removeClass(w *gtk.Widget, class string) {
	ctx, err := w.GetStyleContext()
	if err != nil {
		return
	}
	ctx.RemoveClass(class)
}
