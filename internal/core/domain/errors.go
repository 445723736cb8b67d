package domain

import "errors"

var (
	// ErrMalformedAccount is returned when account data does not follow the
	// capsule layout. Callers skip the record.
	ErrMalformedAccount = errors.New("malformed capsule account")
	// ErrTransientRPC marks provider failures that are worth retrying.
	ErrTransientRPC = errors.New("transient rpc error")
	// ErrTerminalRPC marks provider failures that must not be retried.
	ErrTerminalRPC = errors.New("terminal rpc error")
	// ErrIntentParse is returned when the intent payload is missing, empty or
	// not understood.
	ErrIntentParse = errors.New("invalid intent payload")
	// ErrSubmission is returned when the ledger rejects an execution
	// transaction.
	ErrSubmission = errors.New("execution submission failed")
	// ErrConfiguration is returned for missing or invalid operator settings,
	// e.g. the crank signer key.
	ErrConfiguration = errors.New("configuration error")
	// ErrCapsuleNotFound is returned when an address is not in the index.
	ErrCapsuleNotFound = errors.New("capsule not found")
)
