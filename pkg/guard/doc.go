// Package guard implements the pluggable authorization conditions that
// gatekeep the mint, the fixed-layout configuration codec that stores them,
// and the evaluation context shared across guard phases.
//
// # Overview
//
// A guard is one independently configurable condition evaluated during a
// mint: a payment, an allow-list, a limit, a token gate, a custody deposit.
// The full configuration of a mint pool is a Set (one optional config per
// Kind) plus zero or more labeled Groups that override the default Set.
//
// Guards run in three phases driven by the pipeline package:
//
//   - Validate: read-only condition check; may claim auxiliary resources
//     and record their positions in the EvaluationContext
//   - PreAction: side effects that must happen before the mint (charge a
//     payment, burn a token, bump a counter)
//   - PostAction: side effects that must happen after the mint (freeze the
//     minted asset into escrow, stamp a rate limiter)
//
// # Wire Format
//
// Sets serialize into a fixed-layout byte buffer: an 8-byte feature bitmask
// followed by one fixed-size slot per Kind in declaration order. A kind's
// slot offset never depends on which guards are enabled, so toggling one
// guard never moves another guard's bytes. See codec.go.
package guard
