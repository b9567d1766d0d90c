// Package ledger provides the host account model consumed by the guard
// pipeline: native balances, fungible token accounts, assets with custodial
// freeze, mint pools, deterministic address derivation, and a clock.
//
// # Overview
//
// The pipeline and the guards never talk to a real chain. Everything they
// need from the host is expressed through this package:
//
//   - Address: opaque 32-byte account identity
//   - Derive: deterministic (program, seeds) -> Address computation
//   - Ledger: balances, token accounts, assets, and pools with the
//     transfer/burn/freeze primitives guards rely on
//   - Clock: monotonic time source (SystemClock, or ManualClock in tests)
//
// # Thread Safety
//
// Ledger is safe for concurrent use. Each mutating method takes the ledger
// lock for its whole duration, which mirrors the single-writer-per-account
// guarantee the design assumes from the host.
package ledger
