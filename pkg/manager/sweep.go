package manager

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// startSweep schedules the periodic escrow sweep.
func (g *Gatekeeper) startSweep() error {
	c := cron.New()
	if _, err := c.AddFunc(g.cfg.Sweep.Schedule, g.sweep); err != nil {
		return fmt.Errorf("sweep schedule %q: %w", g.cfg.Sweep.Schedule, err)
	}
	g.cron = c
	c.Start()

	g.logger.Info("escrow sweep scheduled", "schedule", g.cfg.Sweep.Schedule)
	return nil
}

// sweep walks the active escrows, updates the frozen asset gauge, and logs
// escrows whose thaw predicate now holds so operators can release them.
func (g *Gatekeeper) sweep() {
	ctx := context.Background()

	escrows, err := g.escrows.List(ctx)
	if err != nil {
		g.logger.Error("escrow sweep failed", "error", err)
		return
	}

	var frozen uint64
	var thawable int
	now := g.env.Clock.Now()
	for key, e := range escrows {
		frozen += e.FrozenCount

		pool, err := g.env.Ledger.Pool(e.Pool)
		if err != nil {
			g.logger.Warn("escrow references unknown pool", "escrow", key, "error", err)
			continue
		}
		if e.FrozenCount > 0 && e.IsThawAllowed(pool, now) {
			thawable++
			g.logger.Info("escrow eligible for thaw",
				"escrow", key,
				"frozen", e.FrozenCount,
				"allow_thaw", e.AllowThaw)
		}
	}

	if g.collector != nil {
		g.collector.SetFrozenAssets(float64(frozen))
	}
	g.logger.Debug("escrow sweep complete", "escrows", len(escrows), "frozen", frozen, "thawable", thawable)
}
