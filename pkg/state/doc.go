// Package state provides persistent storage for guard records: mint
// counters, allocation trackers, rate limiter stamps, and freeze escrow
// accounts.
//
// # Overview
//
// Guards address their records by a deterministically derived key, so the
// storage model is a flat (kind, key) -> value map of small binary records:
//
//   - Backend: the storage interface
//   - MemoryBackend: in-memory map, the default for tests and single runs
//   - SQLiteBackend: durable single-file storage for deployments that must
//     survive restarts
//
// # Thread Safety
//
// Both backends are safe for concurrent use.
package state
