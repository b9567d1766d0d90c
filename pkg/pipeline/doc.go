// Package pipeline drives the guard evaluation of one mint attempt.
//
// # Overview
//
// Execute runs the enabled guards of a resolved set through four phases:
//
//  1. Validate, for every guard in enumeration order, stopping at the
//     first failure
//  2. PreAction, for every guard
//  3. the privileged action supplied by the caller
//  4. PostAction, for every guard
//
// A validation failure normally aborts the attempt. When the bot tax guard
// is enabled, the failure is intercepted instead: the penalty is collected
// from the payer and the attempt reports success with a taxed outcome, so
// the requester cannot distinguish a denied probe from a mint for free.
// Failures in phases 2 through 4 are never taxed; they abort the attempt
// and surface to the caller, which is expected to discard any partial
// state.
package pipeline
