// Package pages owns the ordered set of live pages and their model state.
package pages

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/chess10kp/pagegrid/internal/metrics"
)

// MaxPages is the hard cap on live data pages.
const MaxPages = 16

// Options configures a Registry.
type Options struct {
	// MaxPages caps data pages; values outside [1, 16] mean 16.
	MaxPages int
	// Fields are the sampled field names of every data page.
	Fields []string
	// TitleFormat renders a data page title from its 1-based position.
	TitleFormat string
	// UtilityTitle is the fixed title of the utility page.
	UtilityTitle string
	// NewUtility, when set, appends a utility page after every CreateSet.
	NewUtility func() UtilityState
	// Tasks starts and owns each data page's background job. May be nil.
	Tasks TaskStarter
}

// Registry is the ordered collection of live pages. Index values are kept
// dense (0..n-1) after every structural change.
type Registry struct {
	mu        sync.RWMutex
	opts      Options
	pages     []*Page
	byID      map[ID]*Page
	nextID    ID
	maximized ID
	hasMax    bool
}

func NewRegistry(opts Options) *Registry {
	if opts.MaxPages < 1 || opts.MaxPages > MaxPages {
		opts.MaxPages = MaxPages
	}
	if len(opts.Fields) == 0 {
		opts.Fields = []string{"x", "y", "z"}
	}
	if opts.TitleFormat == "" {
		opts.TitleFormat = "Page %d"
	}
	if opts.UtilityTitle == "" {
		opts.UtilityTitle = "Calculator"
	}
	opts.Fields = append([]string(nil), opts.Fields...)

	return &Registry{
		opts:   opts,
		byID:   make(map[ID]*Page),
		nextID: 1,
	}
}

// MaxDataPages returns the effective data page cap.
func (r *Registry) MaxDataPages() int {
	return r.opts.MaxPages
}

// CreateSet replaces all pages with n fresh data pages, plus the utility page
// when one is configured. Prior state is untouched when n is out of range.
func (r *Registry) CreateSet(n int) error {
	if n < 1 || n > r.opts.MaxPages {
		return fmt.Errorf("%w: %d (must be 1-%d)", ErrInvalidCount, n, r.opts.MaxPages)
	}

	r.mu.Lock()
	old := r.detachAllLocked()
	r.mu.Unlock()

	// Old tasks are gone before any new page exists.
	stopTasks(old)

	r.mu.Lock()
	for i := 0; i < n; i++ {
		r.pages = append(r.pages, r.newDataPageLocked())
	}
	if r.opts.NewUtility != nil {
		r.pages = append(r.pages, r.newUtilityPageLocked())
	}
	r.reindexLocked()
	created := r.startTasksLocked(r.pages)
	r.mu.Unlock()

	log.Info("Created page set", "pages", n, "utility", r.opts.NewUtility != nil, "tasks", created)

	return nil
}

// Add inserts a new data page before the utility page, or at the end.
func (r *Registry) Add() (*Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.dataCountLocked() >= r.opts.MaxPages {
		return nil, fmt.Errorf("%w: maximum is %d", ErrCapacityExceeded, r.opts.MaxPages)
	}

	page := r.newDataPageLocked()

	pos := len(r.pages)
	if u := r.utilityIndexLocked(); u >= 0 {
		pos = u
	}
	r.pages = append(r.pages, nil)
	copy(r.pages[pos+1:], r.pages[pos:])
	r.pages[pos] = page

	r.reindexLocked()
	r.startTasksLocked([]*Page{page})

	log.Debug("Added page", "id", page.id, "index", page.index)
	return page, nil
}

// Remove deletes the page and stops its task before returning. Unknown ids
// are a no-op and report false.
func (r *Registry) Remove(id ID) bool {
	r.mu.Lock()
	page, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return false
	}

	r.pages = append(r.pages[:page.index], r.pages[page.index+1:]...)
	delete(r.byID, id)
	if r.hasMax && r.maximized == id {
		r.hasMax = false
		r.maximized = 0
	}
	r.reindexLocked()
	r.mu.Unlock()

	stopTasks([]*Page{page})
	log.Debug("Removed page", "id", id)

	return true
}

// RemoveAll deletes every page, stopping all tasks, and returns how many
// pages were removed.
func (r *Registry) RemoveAll() int {
	r.mu.Lock()
	old := r.detachAllLocked()
	r.reindexLocked()
	r.mu.Unlock()

	stopTasks(old)
	return len(old)
}

// Reorder moves the page at from to to, shifting the pages between. Out of
// range indices are a no-op and report false.
func (r *Registry) Reorder(from, to int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.pages)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	if from == to {
		return true
	}

	page := r.pages[from]
	if from < to {
		copy(r.pages[from:to], r.pages[from+1:to+1])
	} else {
		copy(r.pages[to+1:from+1], r.pages[to:from])
	}
	r.pages[to] = page
	r.reindexLocked()

	return true
}

// ToggleMaximize maximizes id, restores it if it is already maximized, or
// switches focus to id when a different page is maximized.
func (r *Registry) ToggleMaximize(id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPage, id)
	}

	if r.hasMax && r.maximized == id {
		r.hasMax = false
		r.maximized = 0
		return nil
	}

	r.maximized = id
	r.hasMax = true
	return nil
}

// Maximized returns the maximized page id, if any.
func (r *Registry) Maximized() (ID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.maximized, r.hasMax
}

// Get returns a live page by id.
func (r *Registry) Get(id ID) (*Page, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	return p, ok
}

// IndexOf resolves a live page id to its current position.
func (r *Registry) IndexOf(id ID) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return -1, false
	}
	return p.index, true
}

// Pages returns the live pages in display order.
func (r *Registry) Pages() []*Page {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]*Page(nil), r.pages...)
}

// Count returns the number of live pages of any kind.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.pages)
}

// DataCount returns the number of live data pages.
func (r *Registry) DataCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.dataCountLocked()
}

// Snapshot copies every live page in display order.
func (r *Registry) Snapshot() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Snapshot, len(r.pages))
	for i, p := range r.pages {
		out[i] = p.snapshot(r.hasMax && r.maximized == p.id)
	}
	return out
}

func (r *Registry) newDataPageLocked() *Page {
	p := newDataPage(r.nextID, r.opts.Fields, r.opts.TitleFormat)
	r.nextID++
	r.byID[p.id] = p
	return p
}

func (r *Registry) newUtilityPageLocked() *Page {
	p := newUtilityPage(r.nextID, r.opts.NewUtility(), r.opts.UtilityTitle)
	r.nextID++
	r.byID[p.id] = p
	return p
}

func (r *Registry) startTasksLocked(pages []*Page) int {
	if r.opts.Tasks == nil {
		return 0
	}
	started := 0
	for _, p := range pages {
		if p.kind == KindData && p.task == nil {
			p.task = r.opts.Tasks.StartTask(p)
			started++
		}
	}
	return started
}

// detachAllLocked clears the registry and returns the pages whose tasks the
// caller must stop after releasing the lock.
func (r *Registry) detachAllLocked() []*Page {
	old := r.pages
	r.pages = nil
	r.byID = make(map[ID]*Page)
	r.hasMax = false
	r.maximized = 0
	return old
}

func (r *Registry) reindexLocked() {
	data := 0
	for i, p := range r.pages {
		p.index = i
		if p.kind == KindData {
			data++
		}
	}
	metrics.PagesLive.WithLabelValues(KindData.String()).Set(float64(data))
	metrics.PagesLive.WithLabelValues(KindUtility.String()).Set(float64(len(r.pages) - data))
}

func (r *Registry) dataCountLocked() int {
	n := 0
	for _, p := range r.pages {
		if p.kind == KindData {
			n++
		}
	}
	return n
}

func (r *Registry) utilityIndexLocked() int {
	for i, p := range r.pages {
		if p.kind == KindUtility {
			return i
		}
	}
	return -1
}

func stopTasks(pages []*Page) {
	for _, p := range pages {
		if p.task != nil {
			p.task.Stop()
		}
	}
}
