package domain

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Capsule is the decoded state of an intent capsule account.
type Capsule struct {
	Owner            solana.PublicKey
	InactivityPeriod int64
	LastActivity     int64
	IntentData       []byte
	IsActive         bool
	// ExecutedAt is set once the intent has run in the current lifecycle.
	// It is not guaranteed that IsActive is false when this is set.
	ExecutedAt *int64
}

// Deadline returns the unix time after which the capsule is expired.
func (c Capsule) Deadline() int64 {
	return c.LastActivity + c.InactivityPeriod
}

// IsExpired reports whether the inactivity deadline is strictly in the past.
// A deadline equal to now is not expired.
func (c Capsule) IsExpired(now time.Time) bool {
	return c.Deadline() < now.Unix()
}

// IsEligible reports whether the crank may execute the capsule at now.
func (c Capsule) IsEligible(now time.Time) bool {
	return c.IsActive &&
		c.ExecutedAt == nil &&
		c.InactivityPeriod > 0 &&
		c.IsExpired(now)
}

// CapsuleAccount is a capsule together with the address it was read from.
type CapsuleAccount struct {
	Address solana.PublicKey
	Capsule Capsule
}

type CapsuleStatus int

const (
	CapsuleStatusActive CapsuleStatus = iota
	CapsuleStatusExpired
	CapsuleStatusExecuted
	// CapsuleStatusWaiting is the inactive, unexecuted, unexpired state.
	// The indexer drops capsules in this state.
	CapsuleStatusWaiting
)

func (s CapsuleStatus) String() string {
	switch s {
	case CapsuleStatusActive:
		return "Active"
	case CapsuleStatusExpired:
		return "Expired"
	case CapsuleStatusExecuted:
		return "Executed"
	case CapsuleStatusWaiting:
		return "Waiting"
	default:
		return "Unknown"
	}
}

func (s CapsuleStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StatusAt derives the display status of the capsule.
func (c Capsule) StatusAt(now time.Time) CapsuleStatus {
	if c.ExecutedAt != nil {
		return CapsuleStatusExecuted
	}
	if c.IsExpired(now) {
		return CapsuleStatusExpired
	}
	if !c.IsActive {
		return CapsuleStatusWaiting
	}
	return CapsuleStatusActive
}

// EligibleCapsule holds what the crank needs to execute one capsule. It only
// lives for the duration of a crank pass.
type EligibleCapsule struct {
	CapsuleAccount
	Vault     solana.PublicKey
	FeeConfig solana.PublicKey
	// Intent is nil when the payload could not be parsed; IntentErr says why.
	Intent    *IntentPayload
	IntentErr error
}
