package arrangement

import (
	"github.com/chess10kp/pagegrid/internal/layout"
	"github.com/chess10kp/pagegrid/internal/pages"
	"github.com/chess10kp/pagegrid/internal/scheduler"
)

// Entry is one page's placement in an applied layout. Hidden entries carry
// a zero Rect.
type Entry struct {
	PageID  pages.ID    `json:"page_id"`
	Index   int         `json:"index"`
	Kind    pages.Kind  `json:"kind"`
	Title   string      `json:"title"`
	Rect    layout.Rect `json:"rect"`
	Visible bool        `json:"visible"`
}

// WarningKind classifies user-visible warnings.
type WarningKind int

const (
	WarningCapacityExceeded WarningKind = iota
	WarningLayoutTooSmall
	WarningInvalidCount
	WarningUnknownPage
)

// String returns the string representation of WarningKind
func (k WarningKind) String() string {
	switch k {
	case WarningCapacityExceeded:
		return "capacity_exceeded"
	case WarningLayoutTooSmall:
		return "layout_too_small"
	case WarningInvalidCount:
		return "invalid_count"
	case WarningUnknownPage:
		return "unknown_page"
	default:
		return "unknown"
	}
}

// Presenter is the presentation layer the controller drives. Calls are made
// while the controller is serialized; implementations must not call back
// into the controller synchronously.
type Presenter interface {
	scheduler.Notifier

	// LayoutApplied receives the full recomputed layout after every relayout.
	LayoutApplied(entries []Entry)
	// Warning surfaces a recoverable error to the user.
	Warning(kind WarningKind, message string)
	// ShowSetupForm shows the page count form and hides the page area.
	ShowSetupForm()
	// ShowPageArea shows the page area and hides the page count form.
	ShowPageArea()
	// UtilityChanged reports a new utility page display.
	UtilityChanged(id pages.ID, display string)
	// ThemeChanged reports the current theme.
	ThemeChanged(dark bool)
}

// NopPresenter ignores every call.
type NopPresenter struct{}

func (NopPresenter) PageValuesChanged(pages.ID, map[string]int) {}
func (NopPresenter) LayoutApplied([]Entry)                      {}
func (NopPresenter) Warning(WarningKind, string)                {}
func (NopPresenter) ShowSetupForm()                             {}
func (NopPresenter) ShowPageArea()                              {}
func (NopPresenter) UtilityChanged(pages.ID, string)            {}
func (NopPresenter) ThemeChanged(bool)                          {}
