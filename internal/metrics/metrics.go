// Package metrics holds the prometheus collectors for the page manager.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PagesLive tracks live pages by kind (data/utility)
	PagesLive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pagegrid_pages_live",
			Help: "Current number of live pages by kind",
		},
		[]string{"kind"},
	)

	// LayoutsApplied counts relayouts handed to the presentation layer by mode
	LayoutsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagegrid_layouts_applied_total",
			Help: "Total layouts applied by mode (grid, maximized, empty)",
		},
		[]string{"mode"},
	)

	// Warnings counts user-visible warnings by kind
	Warnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagegrid_warnings_total",
			Help: "Total warnings raised to the presentation layer by kind",
		},
		[]string{"kind"},
	)

	// SamplesTotal counts periodic field samples across all pages
	SamplesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagegrid_samples_total",
			Help: "Total periodic page samples taken",
		},
	)

	// LayoutCacheRequests counts plan cache lookups by result (hit/miss)
	LayoutCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagegrid_layout_cache_requests_total",
			Help: "Layout plan cache lookups by result",
		},
		[]string{"result"},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
