package guard

import (
	"context"
	"fmt"

	"mintworks/mintgate/pkg/escrow"
	"mintworks/mintgate/pkg/ledger"
	"mintworks/mintgate/pkg/state"
)

// Guard is one configurable mint condition. Implementations live in this
// package; the set of kinds is closed and enumerated by Kind.
//
// The pipeline calls Validate for every enabled guard first, then PreAction
// for every enabled guard, then the privileged action, then PostAction.
// Validate must not mutate ledger or record state.
type Guard interface {
	// Kind identifies the guard's slot in the feature bitmask and buffer.
	Kind() Kind

	// Validate checks the condition. It may claim resources and argument
	// bytes through ec and record their positions for the action phases.
	Validate(ctx context.Context, mc *MintContext, ec *EvaluationContext) error

	// PreAction applies side effects that must precede the mint.
	PreAction(ctx context.Context, mc *MintContext, ec *EvaluationContext) error

	// PostAction applies side effects that must follow the mint.
	PostAction(ctx context.Context, mc *MintContext, ec *EvaluationContext) error

	// marshal writes the guard config into its fixed slot. buf is exactly
	// Kind().Size() bytes.
	marshal(buf []byte)
}

// Router is implemented by guards that expose an administrative
// side-channel instruction reachable through the route dispatcher.
type Router interface {
	Guard

	// Instruction executes the guard's side-channel operation.
	Instruction(ctx context.Context, rc *RouteContext, data []byte) error
}

// noAction provides no-op action phases for guards that only validate.
type noAction struct{}

func (noAction) PreAction(context.Context, *MintContext, *EvaluationContext) error {
	return nil
}

func (noAction) PostAction(context.Context, *MintContext, *EvaluationContext) error {
	return nil
}

// Resource is one auxiliary account supplied with a mint or route request,
// in the order the enabled guards expect to claim them.
type Resource struct {
	// Address of the account.
	Address ledger.Address

	// Signer reports whether the request carries this account's signature.
	Signer bool

	// Writable reports whether the account may be mutated.
	Writable bool
}

// Env is the execution environment shared by mint and route requests: the
// ledger, the persistence backends, and the identity of the policy being
// evaluated.
type Env struct {
	// Ledger is the fund, token and asset ledger.
	Ledger *ledger.Ledger

	// Records persists guard trackers (mint counters, allocations, rate
	// limit stamps).
	Records state.Backend

	// Escrows drives the freeze escrow state machine.
	Escrows *escrow.Store

	// Clock supplies the current time for all date and period checks.
	Clock ledger.Clock

	// ProgramID namespaces every derived tracker and escrow address.
	ProgramID ledger.Address

	// GuardID is the address of the guard policy account.
	GuardID ledger.Address

	// Authority may update the policy and run privileged route
	// instructions.
	Authority ledger.Address

	// PoolID is the mint pool being gated.
	PoolID ledger.Address
}

// Pool loads the mint pool snapshot from the ledger.
func (e *Env) Pool() (*ledger.Pool, error) {
	return e.Ledger.Pool(e.PoolID)
}

// MintContext carries everything a guard may inspect or mutate while
// evaluating one mint attempt.
type MintContext struct {
	Env

	// Payer funds the mint and is the subject of every per-wallet check.
	Payer ledger.Address

	// Minter receives the asset. Usually the payer.
	Minter ledger.Address

	// AssetMint is the address the minted asset will live at.
	AssetMint ledger.Address

	// Args is the guard-specific argument payload, consumed in guard
	// enumeration order through EvaluationContext.ReadArgs.
	Args []byte

	// Resources are the auxiliary accounts supplied with the request,
	// claimed in guard enumeration order.
	Resources []Resource

	// TxPrograms are the program ids invoked by the surrounding
	// transaction, inspected by the transaction shape guards.
	TxPrograms []ledger.Address

	// DefaultPrograms is the process-wide program allow-list.
	DefaultPrograms []ledger.Address
}

// Resource returns the auxiliary resource at index i, as recorded by a
// guard during Validate.
func (mc *MintContext) Resource(i int) (Resource, error) {
	if i < 0 || i >= len(mc.Resources) {
		return Resource{}, fmt.Errorf("%w: index %d", ErrMissingResource, i)
	}
	return mc.Resources[i], nil
}

// RouteContext carries the environment of one administrative route
// request.
type RouteContext struct {
	Env

	// Payer signs and funds the route request.
	Payer ledger.Address

	// Resources are the auxiliary accounts supplied with the request.
	Resources []Resource
}

// Resource returns the auxiliary resource at index i.
func (rc *RouteContext) Resource(i int) (Resource, error) {
	if i < 0 || i >= len(rc.Resources) {
		return Resource{}, fmt.Errorf("%w: index %d", ErrMissingResource, i)
	}
	return rc.Resources[i], nil
}

// AuthoritySigned reports whether any supplied resource is the policy
// authority carrying a signature.
func (rc *RouteContext) AuthoritySigned() bool {
	for _, r := range rc.Resources {
		if r.Signer && r.Address.Equal(rc.Authority) {
			return true
		}
	}
	return false
}
