package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mintworks/mintgate/pkg/config"
)

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	cfg := &config.MetricsConfig{Namespace: "test"}
	return NewCollector(cfg, prometheus.NewRegistry())
}

func TestCollector_MintEvaluated(t *testing.T) {
	c := newTestCollector(t)

	c.MintEvaluated("minted", 5*time.Millisecond)
	c.MintEvaluated("minted", 7*time.Millisecond)
	c.MintEvaluated("taxed", time.Millisecond)

	if got := testutil.ToFloat64(c.mintsTotal.WithLabelValues("minted")); got != 2 {
		t.Errorf("mints_total{minted} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.mintsTotal.WithLabelValues("taxed")); got != 1 {
		t.Errorf("mints_total{taxed} = %v, want 1", got)
	}
}

func TestCollector_GuardRejected(t *testing.T) {
	c := newTestCollector(t)

	c.GuardRejected("address_gate", "address_not_authorized")
	c.GuardRejected("address_gate", "address_not_authorized")
	c.GuardRejected("start_date", "mint_not_live")

	if got := testutil.ToFloat64(c.guardRejections.WithLabelValues("address_gate", "address_not_authorized")); got != 2 {
		t.Errorf("guard_rejections_total = %v, want 2", got)
	}
}

func TestCollector_BotTaxCollected(t *testing.T) {
	c := newTestCollector(t)

	c.BotTaxCollected(600)
	c.BotTaxCollected(1000)

	if got := testutil.ToFloat64(c.botTaxTotal); got != 2 {
		t.Errorf("bot_tax_collected_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.botTaxLamports); got != 1600 {
		t.Errorf("bot_tax_lamports_total = %v, want 1600", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := newTestCollector(t)
	c.RouteDispatched("allocation", "ok")
	c.SetFrozenAssets(3)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `test_route_instructions_total{guard="allocation",status="ok"} 1`) {
		t.Errorf("scrape output missing route counter:\n%s", body)
	}
	if !strings.Contains(body, "test_frozen_assets 3") {
		t.Errorf("scrape output missing frozen assets gauge:\n%s", body)
	}
}
