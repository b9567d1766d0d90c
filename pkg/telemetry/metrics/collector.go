// Package metrics exposes the gatekeeper's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mintworks/mintgate/pkg/config"
)

// Collector tracks mint evaluation metrics.
//
// Metrics:
//   - mintgate_mints_total: mint attempts by outcome
//   - mintgate_mint_duration_seconds: evaluation latency by outcome
//   - mintgate_guard_rejections_total: guard denials by kind and code
//   - mintgate_bot_tax_collected_total: penalties collected
//   - mintgate_bot_tax_lamports_total: penalty volume in native units
//   - mintgate_route_instructions_total: route requests by guard and status
//   - mintgate_frozen_assets: assets currently under custodial hold
type Collector struct {
	mintsTotal      *prometheus.CounterVec
	mintDuration    *prometheus.HistogramVec
	guardRejections *prometheus.CounterVec
	botTaxTotal     prometheus.Counter
	botTaxLamports  prometheus.Counter
	routeTotal      *prometheus.CounterVec
	frozenAssets    prometheus.Gauge

	registry *prometheus.Registry
}

// NewCollector creates and registers the gatekeeper metrics with the
// provided registry.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	ns := cfg.Namespace

	c := &Collector{
		mintsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "mints_total",
				Help:      "Total number of mint attempts by outcome",
			},
			[]string{"outcome"},
		),
		mintDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "mint_duration_seconds",
				Help:      "Mint evaluation latency by outcome",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		guardRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "guard_rejections_total",
				Help:      "Total number of guard denials by kind and failure code",
			},
			[]string{"guard", "code"},
		),
		botTaxTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "bot_tax_collected_total",
				Help:      "Total number of bot tax penalties collected",
			},
		),
		botTaxLamports: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "bot_tax_lamports_total",
				Help:      "Total penalty volume collected in native units",
			},
		),
		routeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "route_instructions_total",
				Help:      "Total number of route instructions by guard and status",
			},
			[]string{"guard", "status"},
		),
		frozenAssets: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: ns,
				Name:      "frozen_assets",
				Help:      "Assets currently under custodial hold across all escrows",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		c.mintsTotal,
		c.mintDuration,
		c.guardRejections,
		c.botTaxTotal,
		c.botTaxLamports,
		c.routeTotal,
		c.frozenAssets,
	)
	return c
}

// MintEvaluated records one completed mint attempt.
func (c *Collector) MintEvaluated(outcome string, duration time.Duration) {
	c.mintsTotal.WithLabelValues(outcome).Inc()
	c.mintDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// GuardRejected records one guard denial.
func (c *Collector) GuardRejected(kind, code string) {
	c.guardRejections.WithLabelValues(kind, code).Inc()
}

// BotTaxCollected records one collected penalty.
func (c *Collector) BotTaxCollected(lamports uint64) {
	c.botTaxTotal.Inc()
	c.botTaxLamports.Add(float64(lamports))
}

// RouteDispatched records one route instruction.
func (c *Collector) RouteDispatched(guard, status string) {
	c.routeTotal.WithLabelValues(guard, status).Inc()
}

// SetFrozenAssets updates the custodial hold gauge, typically from the
// escrow sweep job.
func (c *Collector) SetFrozenAssets(count float64) {
	c.frozenAssets.Set(count)
}

// Handler returns the HTTP handler serving the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
