package guard

import (
	"testing"
	"time"

	"mintworks/mintgate/pkg/escrow"
	"mintworks/mintgate/pkg/ledger"
	"mintworks/mintgate/pkg/state"
)

// newTestContext builds a mint context against a fresh in-memory world:
// one pool with ten items and a funded payer.
func newTestContext(t *testing.T) (*MintContext, *ledger.ManualClock) {
	t.Helper()

	l := ledger.New()
	backend := state.NewMemoryBackend()
	t.Cleanup(func() { backend.Close() })
	clock := ledger.NewManualClock(time.Unix(1_700_000_000, 0))

	env := Env{
		Ledger:    l,
		Records:   backend,
		Escrows:   escrow.NewStore(backend, clock),
		Clock:     clock,
		ProgramID: ledger.NewAddress("program"),
		GuardID:   ledger.NewAddress("guard-policy"),
		Authority: ledger.NewAddress("authority"),
		PoolID:    ledger.NewAddress("pool"),
	}
	l.CreatePool(env.PoolID, env.Authority, 10)

	payer := ledger.NewAddress("payer")
	return &MintContext{
		Env:       env,
		Payer:     payer,
		Minter:    payer,
		AssetMint: ledger.NewAddress("asset-mint"),
	}, clock
}

// routeContext derives a route context sharing the mint context's world.
func routeContext(mc *MintContext, payer ledger.Address, resources ...Resource) *RouteContext {
	return &RouteContext{Env: mc.Env, Payer: payer, Resources: resources}
}

// authoritySigner is the authority resource carrying a signature.
func authoritySigner(mc *MintContext) Resource {
	return Resource{Address: mc.Authority, Signer: true}
}
