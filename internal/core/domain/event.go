package domain

import (
	"github.com/gagliardetto/solana-go"
)

type EventKind string

const (
	EventCreated         EventKind = "created"
	EventExecuted        EventKind = "executed"
	EventIntentUpdated   EventKind = "intent_updated"
	EventActivityUpdated EventKind = "activity_updated"
	EventDeactivated     EventKind = "deactivated"
	EventRecreated       EventKind = "recreated"
	EventUnknown         EventKind = "unknown"
)

// IsDashboardRow reports whether events of this kind are listed in the
// top-level activity table. Other kinds only show in per-capsule details.
func (k EventKind) IsDashboardRow() bool {
	switch k {
	case EventCreated, EventRecreated, EventExecuted:
		return true
	default:
		return false
	}
}

type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailed  EventStatus = "failed"
)

type TokenDelta struct {
	Mint   solana.PublicKey
	Amount float64
}

// CapsuleEvent is derived from one transaction that invoked the capsule
// program. It is rebuilt on every indexing pass and never stored.
type CapsuleEvent struct {
	Signature      solana.Signature
	BlockTime      *int64
	Status         EventStatus
	Kind           EventKind
	CapsuleAddress solana.PublicKey
	OwnerAddress   *solana.PublicKey
	TokenDelta     *TokenDelta
	// NativeDelta is the owner's native balance change in whole SOL.
	NativeDelta *float64
}
