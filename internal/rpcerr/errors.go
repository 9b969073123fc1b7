// Package rpcerr implements the error taxonomy of the JSON-RPC gateway described
// in spec.md §7: a fixed table of {code, message} pairs that every precheck,
// tracer, and limiter failure is drawn from, so callers can branch on kind
// rather than probing error strings or duck-typed predicates (spec.md §9).
package rpcerr

import (
	errorsmod "cosmossdk.io/errors"
)

// codespace is the registered namespace for every error code below, following
// the cosmossdk.io/errors registration idiom used throughout the teacher
// (see mempool/errors.go in the teacher repo).
const codespace = "gateway"

var (
	ErrInvalidArguments            = errorsmod.Register(codespace, 1, "invalid arguments")
	ErrUnsupportedMethod           = errorsmod.Register(codespace, 2, "Unsupported JSON-RPC method")
	ErrUnsupportedOperation        = errorsmod.Register(codespace, 3, "unsupported operation")
	ErrUnsupportedTransactionType3 = errorsmod.Register(codespace, 4, "blob transactions (type 3) are not supported")
	ErrGasLimitTooHigh             = errorsmod.Register(codespace, 5, "gas limit too high")
	ErrInsufficientFunds           = errorsmod.Register(codespace, 6, "Insufficient funds")
	ErrNonceTooLow                 = errorsmod.Register(codespace, 7, "nonce too low")
	ErrResourceNotFound            = errorsmod.Register(codespace, 8, "resource not found")
	ErrHbarRateLimitExceeded       = errorsmod.Register(codespace, 9, "HBAR rate limit exceeded")
	ErrInternal                    = errorsmod.Register(codespace, 10, "internal error")
	ErrAlreadyKnown                = errorsmod.Register(codespace, 11, "already known")
	ErrTimeout                     = errorsmod.Register(codespace, 12, "timeout exceeded")
	ErrConnectionDropped           = errorsmod.Register(codespace, 13, "Connection dropped")
)

// JSONRPCCode maps a registered error to the numeric code returned on the wire.
// Unsupported-method rejections use the standard JSON-RPC -32601 and
// invalid-argument rejections the standard -32602; everything else from this
// taxonomy is surfaced as a gateway-specific application error (-32000),
// matching the OpenRPC error shape referenced in spec.md §6.
func JSONRPCCode(err error) int {
	switch errorsmod.Unwrap(err) {
	case ErrUnsupportedMethod:
		return -32601
	case ErrInvalidArguments:
		return -32602
	default:
		return -32000
	}
}

// ValueTooSmallMsg is the literal precheck message mandated by spec.md §4.1 for a
// non-zero value below the 10^10 wei minimum unit.
const ValueTooSmallMsg = "Value can't be non-zero and less than 10_000_000_000 wei"

// ReadOnlyMsg is the literal message for a write attempt while the relay is
// in read-only mode (spec.md §4.1 step 2).
const ReadOnlyMsg = "Relay is in read-only mode"
