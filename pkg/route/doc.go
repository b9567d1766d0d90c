// Package route dispatches administrative side-channel instructions to the
// guard that owns them.
//
// Guards that keep state outside the mint path (freeze escrows, allocation
// trackers) expose an Instruction handler. A route request names the guard
// kind and carries an opaque instruction payload; the dispatcher resolves
// the guard from the effective set and hands the payload over. Guards
// without a handler reject the request, as do kinds not enabled on the
// resolved set.
package route
