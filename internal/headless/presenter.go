// Package headless provides a Presenter that only logs, for running without a
// display.
package headless

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/chess10kp/pagegrid/internal/arrangement"
	"github.com/chess10kp/pagegrid/internal/pages"
)

type Presenter struct {
	logger *log.Logger

	mu      sync.Mutex
	visible bool
}

func NewPresenter(logger *log.Logger) *Presenter {
	if logger == nil {
		logger = log.Default()
	}
	return &Presenter{logger: logger.WithPrefix("headless")}
}

func (p *Presenter) PageValuesChanged(id pages.ID, values map[string]int) {
	p.logger.Debug("Page values", "id", id, "values", formatValues(values))
}

func (p *Presenter) LayoutApplied(entries []arrangement.Entry) {
	p.logger.Info("Layout applied", "pages", len(entries))
	for _, e := range entries {
		if e.Visible {
			p.logger.Debug("Page placed", "id", e.PageID, "title", e.Title, "rect", e.Rect)
		}
	}
}

func (p *Presenter) Warning(kind arrangement.WarningKind, message string) {
	p.logger.Warn("Warning", "kind", kind, "message", message)
}

func (p *Presenter) ShowSetupForm() {
	p.mu.Lock()
	p.visible = false
	p.mu.Unlock()
	p.logger.Info("Showing setup form")
}

func (p *Presenter) ShowPageArea() {
	p.mu.Lock()
	p.visible = true
	p.mu.Unlock()
	p.logger.Info("Showing page area")
}

func (p *Presenter) UtilityChanged(id pages.ID, display string) {
	p.logger.Info("Utility display", "id", id, "display", display)
}

func (p *Presenter) ThemeChanged(dark bool) {
	p.logger.Info("Theme changed", "dark", dark)
}

// PageAreaVisible reports whether the page area is showing.
func (p *Presenter) PageAreaVisible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// formatValues renders values as "k=v" pairs in key order.
func formatValues(values map[string]int) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(strconv.Itoa(values[k]))
	}
	return sb.String()
}
