package pages

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Search fuzzy-matches query against page titles. Results are snapshots
// ordered by exact match first, then score, then position.
func (r *Registry) Search(query string) []Snapshot {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	titles := make([]string, len(r.pages))
	for i, p := range r.pages {
		titles[i] = strings.ToLower(p.Title())
	}

	matches := fuzzy.Find(query, titles)
	sort.SliceStable(matches, func(i, j int) bool {
		ei := matches[i].Str == query
		ej := matches[j].Str == query
		if ei != ej {
			return ei
		}
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Index < matches[j].Index
	})

	out := make([]Snapshot, len(matches))
	for i, m := range matches {
		p := r.pages[m.Index]
		out[i] = p.snapshot(r.hasMax && r.maximized == p.id)
	}
	return out
}
