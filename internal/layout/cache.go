package layout

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/chess10kp/pagegrid/internal/metrics"
)

type planKey struct {
	count int
	vp    Viewport
}

type planResult struct {
	rects []Rect
	err   error
}

// CachedPlanner memoizes Plan results. The planner is pure, so entries never
// go stale; the LRU only bounds memory across viewport resizes.
type CachedPlanner struct {
	*Planner
	cache *lru.Cache[planKey, planResult]
}

func NewCachedPlanner(p *Planner, size int) (*CachedPlanner, error) {
	if size <= 0 {
		size = 64
	}

	cache, err := lru.New[planKey, planResult](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create layout cache: %w", err)
	}

	return &CachedPlanner{Planner: p, cache: cache}, nil
}

// Plan returns a copy of the cached rectangles, computing them on a miss.
func (c *CachedPlanner) Plan(count int, vp Viewport) ([]Rect, error) {
	key := planKey{count: count, vp: vp}

	if res, ok := c.cache.Get(key); ok {
		metrics.LayoutCacheRequests.WithLabelValues("hit").Inc()
		return cloneRects(res.rects), res.err
	}

	metrics.LayoutCacheRequests.WithLabelValues("miss").Inc()
	rects, err := c.Planner.Plan(count, vp)
	c.cache.Add(key, planResult{rects: rects, err: err})

	return cloneRects(rects), err
}

// Len returns the number of cached plans.
func (c *CachedPlanner) Len() int {
	return c.cache.Len()
}

func cloneRects(rects []Rect) []Rect {
	if rects == nil {
		return nil
	}
	out := make([]Rect, len(rects))
	copy(out, rects)
	return out
}
