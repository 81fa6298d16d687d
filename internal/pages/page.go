package pages

import (
	"fmt"
	"sync"
)

// ID identifies a page for its whole lifetime. IDs are never reused.
type ID int

// Kind distinguishes sampled data pages from the utility page.
type Kind int

const (
	KindData Kind = iota
	KindUtility
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindUtility:
		return "utility"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "data":
		*k = KindData
	case "utility":
		*k = KindUtility
	default:
		return fmt.Errorf("unknown page kind %q", text)
	}
	return nil
}

// UtilityState is the opaque sub-state of a utility page.
type UtilityState interface {
	Press(key string) string
	Display() string
}

// Task is a page's background job. Stop must not return until the job can no
// longer fire.
type Task interface {
	Stop()
}

// TaskStarter starts the background job for a newly created data page.
type TaskStarter interface {
	StartTask(p *Page) Task
}

// Page is one tileable unit. Structure (index) is owned by the Registry;
// field values are written by the page's task under mu.
type Page struct {
	id     ID
	kind   Kind
	index  int
	fields []string

	titleFormat  string
	utilityTitle string

	mu      sync.RWMutex
	values  map[string]int
	utility UtilityState

	task Task
}

func newDataPage(id ID, fields []string, titleFormat string) *Page {
	values := make(map[string]int, len(fields))
	for _, f := range fields {
		values[f] = 0
	}
	return &Page{
		id:          id,
		kind:        KindData,
		fields:      fields,
		titleFormat: titleFormat,
		values:      values,
	}
}

func newUtilityPage(id ID, state UtilityState, title string) *Page {
	return &Page{
		id:           id,
		kind:         KindUtility,
		utilityTitle: title,
		utility:      state,
	}
}

func (p *Page) ID() ID     { return p.id }
func (p *Page) Kind() Kind { return p.kind }

// Index returns the page's current display position.
func (p *Page) Index() int { return p.index }

// Fields returns the names of the page's sampled fields in display order.
func (p *Page) Fields() []string {
	return append([]string(nil), p.fields...)
}

// Title derives the display title from the current position.
func (p *Page) Title() string {
	if p.kind == KindUtility {
		return p.utilityTitle
	}
	return fmt.Sprintf(p.titleFormat, p.index+1)
}

// Values returns a copy of the field values.
func (p *Page) Values() map[string]int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return copyValues(p.values)
}

// Sample replaces every field with next(field) in one critical section and
// returns a copy of the new values.
func (p *Page) Sample(next func(field string) int) map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, f := range p.fields {
		p.values[f] = next(f)
	}
	return copyValues(p.values)
}

// Utility returns the utility sub-state, or nil for data pages.
func (p *Page) Utility() UtilityState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.utility
}

// PressKey applies key to the utility sub-state and returns the new display.
func (p *Page) PressKey(key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.utility == nil {
		return "", fmt.Errorf("%w: page %d is not a utility page", ErrUnknownPage, p.id)
	}
	return p.utility.Press(key), nil
}

func (p *Page) snapshot(maximized bool) Snapshot {
	s := Snapshot{
		ID:        p.id,
		Index:     p.index,
		Kind:      p.kind,
		Title:     p.Title(),
		Maximized: maximized,
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.kind == KindData {
		s.Values = copyValues(p.values)
	} else if p.utility != nil {
		s.Display = p.utility.Display()
	}
	return s
}

// Snapshot is a point-in-time copy of a page.
type Snapshot struct {
	ID        ID             `json:"id"`
	Index     int            `json:"index"`
	Kind      Kind           `json:"kind"`
	Title     string         `json:"title"`
	Values    map[string]int `json:"values,omitempty"`
	Display   string         `json:"display,omitempty"`
	Maximized bool           `json:"maximized,omitempty"`
}

func copyValues(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
