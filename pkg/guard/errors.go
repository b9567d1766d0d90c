package guard

import "errors"

// Class groups guard failures by what went wrong, so callers and metrics
// can tell a malformed configuration apart from a denied mint.
type Class int

const (
	// ClassConfiguration covers malformed or inconsistent guard data.
	ClassConfiguration Class = iota

	// ClassResource covers missing or mismatched auxiliary resources and
	// argument payloads.
	ClassResource

	// ClassAuthorization covers conditions that deny the mint itself.
	ClassAuthorization

	// ClassState covers invalid state machine transitions.
	ClassState
)

func (c Class) String() string {
	switch c {
	case ClassConfiguration:
		return "configuration"
	case ClassResource:
		return "resource"
	case ClassAuthorization:
		return "authorization"
	case ClassState:
		return "state"
	default:
		return "unknown"
	}
}

// Error is a guard failure with a stable machine-readable code. Guard
// failures are sentinel values: compare with errors.Is against the Err*
// variables below.
type Error struct {
	// Code is the stable snake_case identifier of the failure.
	Code string

	// Class is the failure category.
	Class Class

	msg string
}

func (e *Error) Error() string { return e.msg }

func guardErr(code string, class Class, msg string) *Error {
	return &Error{Code: code, Class: class, msg: msg}
}

// Configuration failures.
var (
	ErrDeserialization        = guardErr("deserialization_error", ClassConfiguration, "could not deserialize guard data")
	ErrExceededLength         = guardErr("exceeded_length", ClassConfiguration, "group label exceeds the maximum length")
	ErrDuplicatedGroupLabel   = guardErr("duplicated_group_label", ClassConfiguration, "duplicated group label")
	ErrGroupNotFound          = guardErr("group_not_found", ClassConfiguration, "group not found")
	ErrRequiredGroupLabel     = guardErr("required_group_label_not_found", ClassConfiguration, "a group label was not provided")
	ErrExceededProgramListLen = guardErr("exceeded_program_list_size", ClassConfiguration, "exceeded the maximum number of programs in the additional list")
)

// Resource failures.
var (
	ErrMissingResource   = guardErr("missing_resource", ClassResource, "missing expected resource")
	ErrKeyMismatch       = guardErr("key_mismatch", ClassResource, "resource address does not match the expected value")
	ErrMissingArguments  = guardErr("missing_arguments", ClassResource, "mint arguments exhausted")
	ErrMissingProof      = guardErr("missing_allow_list_proof", ClassResource, "missing allow list proof")
	ErrNumericalOverflow = guardErr("numerical_overflow", ClassResource, "numerical overflow")
)

// Authorization failures. Any of these may be converted into a bot tax
// penalty by the pipeline.
var (
	ErrNotEnoughFunds         = guardErr("not_enough_funds", ClassAuthorization, "not enough funds to pay for the mint")
	ErrNotEnoughTokens        = guardErr("not_enough_tokens", ClassAuthorization, "not enough tokens on the account")
	ErrMintNotLive            = guardErr("mint_not_live", ClassAuthorization, "mint is not live")
	ErrAfterEndDate           = guardErr("after_end_date", ClassAuthorization, "current time is after the set end date")
	ErrMissingSignature       = guardErr("missing_required_signature", ClassAuthorization, "missing required signature")
	ErrAddressNotAuthorized   = guardErr("address_not_authorized", ClassAuthorization, "address is not authorized to mint")
	ErrAddressNotInAllowList  = guardErr("address_not_found_in_allow_list", ClassAuthorization, "address not found on the allow list")
	ErrMintLimitReached       = guardErr("allowed_mint_limit_reached", ClassAuthorization, "the maximum number of allowed mints was reached")
	ErrAllocationLimitReached = guardErr("allocation_limit_reached", ClassAuthorization, "the allocation limit was reached")
	ErrRateLimitExceeded      = guardErr("rate_limit_exceeded", ClassAuthorization, "minting again too soon")
	ErrMaximumRedeemedAmount  = guardErr("maximum_redeemed_amount", ClassAuthorization, "the maximum redeemed amount was reached")
	ErrInvalidCollection      = guardErr("invalid_asset_collection", ClassAuthorization, "asset is not part of the required collection")
	ErrUnauthorizedProgram    = guardErr("unauthorized_program_found", ClassAuthorization, "an unauthorized program was found in the transaction")
	ErrNotLastInstruction     = guardErr("mint_not_last_transaction", ClassAuthorization, "the mint is not the last transaction")
)

// State failures.
var (
	ErrGuardNotEnabled         = guardErr("guard_not_enabled", ClassState, "guard is not enabled on the resolved set")
	ErrInstructionNotFound     = guardErr("instruction_not_found", ClassState, "guard has no administrative instruction")
	ErrAllocationNotInit       = guardErr("allocation_not_initialized", ClassState, "allocation tracker was not initialized by the authority")
	ErrFreezeNotInitialized    = guardErr("freeze_not_initialized", ClassState, "freeze escrow must be initialized before minting")
	ErrMissingFreezeInstr      = guardErr("missing_freeze_instruction", ClassState, "missing freeze instruction data")
	ErrMissingFreezePeriod     = guardErr("missing_freeze_period", ClassState, "missing freeze period")
	ErrInvalidFreezeInstr      = guardErr("invalid_freeze_instruction", ClassState, "unknown freeze instruction")
	ErrUnlockNotEnabled        = guardErr("unlock_not_enabled", ClassState, "unlock is not enabled (not all assets are thawed)")
	ErrThawNotEnabled          = guardErr("thaw_not_enabled", ClassState, "thaw is not enabled")
	ErrFreezeEscrowExists      = guardErr("freeze_escrow_already_exists", ClassState, "freeze escrow already exists")
	ErrExceededMaxFreezePeriod = guardErr("exceeded_maximum_freeze_period", ClassState, "exceeded the maximum freeze period")
)

// ClassOf returns the failure class of err, unwrapping as needed.
// Errors that are not guard failures report ClassState.
func ClassOf(err error) Class {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Class
	}
	return ClassState
}

// CodeOf returns the stable failure code of err, or "internal_error" for
// errors that are not guard failures.
func CodeOf(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return "internal_error"
}
