// Package escrow implements the freeze escrow state machine used by the
// custody payment guards.
//
// # Overview
//
// An escrow account tracks custodial holds for one (guard kind, destination,
// policy, pool) tuple. Its lifecycle is:
//
//	Uninitialized -> Active -> Closed
//
// Initialize creates the record (authority-signed, refuses duplicates).
// Every successful custody mint increments the frozen count and records the
// first activity time. Thaw releases one hold when the thaw predicate allows
// it. UnlockFunds sweeps the escrowed payment to the destination and closes
// the record, but only once every hold has been released: funds can never be
// unlocked while a purchased asset remains frozen.
//
// The record itself is a small binary blob persisted through state.Backend,
// so escrows survive restarts when the SQLite backend is configured.
package escrow
