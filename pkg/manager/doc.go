// Package manager wires the gatekeeper together: the guard configuration
// buffer, the evaluation pipeline, the route dispatcher, persistence,
// audit, and telemetry.
//
// # Overview
//
// A Gatekeeper serves one mint pool. It loads the serialized guard data
// from disk, optionally watches the file for changes (keeping the last
// good configuration when a reload fails validation), evaluates mint
// requests through the pipeline, dispatches administrative route
// instructions, and runs a periodic escrow sweep that reports custody
// state to the metrics collector.
//
// # Thread Safety
//
// All exported methods are safe for concurrent use. The guard data buffer
// is swapped atomically under a read-write lock; in-flight evaluations
// keep the snapshot they resolved against.
package manager
