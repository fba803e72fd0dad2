// Package metrics provides Prometheus metrics for the session tracker.
// Scrape these at /metrics for Grafana dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	SessionStartValue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gw2_session_start_value_copper",
			Help: "Total holdings value recorded at session start, in copper",
		},
	)

	SessionCurrentValue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gw2_session_current_value_copper",
			Help: "Total holdings value as of the last update cycle, in copper",
		},
	)

	SessionProfit = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gw2_session_profit_copper",
			Help: "Session profit (current minus start value), in copper",
		},
	)

	SessionUpdatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gw2_session_updates_total",
			Help: "Total number of completed session update cycles",
		},
	)

	SessionUpdateFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gw2_session_update_failures_total",
			Help: "Update cycles aborted because a holdings fetch failed",
		},
	)

	// Valuation metrics
	ValuationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gw2_valuation_duration_seconds",
			Help:    "Time taken to value one holdings collection",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	ValuationItemsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gw2_valuation_items_skipped_total",
			Help: "Stacks excluded from totals because metadata could not be resolved",
		},
	)

	// GW2 API metrics
	GW2RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gw2_api_requests_total",
			Help: "Total number of GW2 API requests made",
		},
		[]string{"endpoint"},
	)

	GW2RequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gw2_api_request_errors_total",
			Help: "GW2 API requests that failed after retries",
		},
		[]string{"endpoint"},
	)

	// Bulk price refresh metrics
	PriceRefreshTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gw2_price_refresh_total",
			Help: "Total number of completed trading-post bulk refreshes",
		},
	)

	PriceRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gw2_price_refresh_duration_seconds",
			Help:    "Time taken for a full trading-post price resync",
			Buckets: []float64{1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	PricesCached = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gw2_prices_cached",
			Help: "Number of trading-post prices currently cached",
		},
	)
)
